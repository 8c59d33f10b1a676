package classifier

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"image"
	_ "image/png"

	"github.com/BaSui01/challenger/agent/browser"
	"github.com/BaSui01/challenger/types"
)

// Image 一份视觉载荷
type Image struct {
	Name string `json:"name"`
	// PNG 字节
	Data []byte `json:"-"`
	// 载荷在视口中的位置
	Box types.BoundingBox `json:"box"`
	// 像素尺寸
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Grid 图片格的行列布局
type Grid struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

// Descriptor 一次检测到的挑战渲染
type Descriptor struct {
	Type    types.ChallengeType `json:"type"`
	Prompt  string              `json:"prompt"`
	Payload []Image             `json:"payload"`

	// 二分类网格的图片格，按页面顺序
	Tiles []types.BoundingBox `json:"tiles,omitempty"`
	Grid  Grid                `json:"grid"`

	Submit  *types.BoundingBox `json:"submit,omitempty"`
	Refresh *types.BoundingBox `json:"refresh,omitempty"`

	// 题目与载荷的稳定哈希，用于判断挑战是否被替换
	Fingerprint string `json:"fingerprint"`

	// 活动控件句柄
	Handle browser.Widget `json:"-"`
}

// Category 返回对应的任务类别
func (d *Descriptor) Category() types.TaskCategory {
	return d.Type.Category()
}

// PrimaryImage 返回首个载荷
func (d *Descriptor) PrimaryImage() (Image, bool) {
	if len(d.Payload) == 0 {
		return Image{}, false
	}
	return d.Payload[0], true
}

// Fingerprint 计算 (类型, 题目, 载荷) 的 sha256
func Fingerprint(t types.ChallengeType, prompt string, payload []Image) string {
	h := sha256.New()
	h.Write([]byte(t))
	h.Write([]byte{0})
	h.Write([]byte(prompt))
	for _, img := range payload {
		h.Write([]byte{0})
		h.Write(img.Data)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func newImage(name string, data []byte, box types.BoundingBox) Image {
	img := Image{Name: name, Data: data, Box: box, Width: int(box.Width), Height: int(box.Height)}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		img.Width, img.Height = cfg.Width, cfg.Height
	}
	return img
}

// gridOf 按图片格纵坐标推断行数
func gridOf(tiles []types.BoundingBox) Grid {
	if len(tiles) == 0 {
		return Grid{}
	}
	rows := 0
	lastY := -1.0
	for _, t := range tiles {
		c := t.Center().Y
		if rows == 0 || c-lastY > t.Height/2 {
			rows++
			lastY = c
		}
	}
	cols := (len(tiles) + rows - 1) / rows
	return Grid{Rows: rows, Cols: cols}
}

func union(boxes []types.BoundingBox) types.BoundingBox {
	if len(boxes) == 0 {
		return types.BoundingBox{}
	}
	minX, minY := boxes[0].X, boxes[0].Y
	maxX, maxY := boxes[0].X+boxes[0].Width, boxes[0].Y+boxes[0].Height
	for _, b := range boxes[1:] {
		minX = min(minX, b.X)
		minY = min(minY, b.Y)
		maxX = max(maxX, b.X+b.Width)
		maxY = max(maxY, b.Y+b.Height)
	}
	return types.BoundingBox{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

func boxOf(el *browser.Element) *types.BoundingBox {
	if el == nil {
		return nil
	}
	b := el.Box
	return &b
}
