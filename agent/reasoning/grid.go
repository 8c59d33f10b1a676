package reasoning

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strconv"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

// DrawGridDivisions 在 PNG 上叠加带像素刻度的坐标网格，帮助模型读出坐标。
// step <= 0 时按图片短边自动选择间距。
func DrawGridDivisions(data []byte, step int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if step <= 0 {
		step = gridStep(w, h)
	}

	dc := gg.NewContextForImage(img)
	dc.SetFontFace(basicfont.Face7x13)
	dc.SetLineWidth(1)

	for x := step; x < w; x += step {
		dc.SetRGBA(1, 0, 0, 0.45)
		dc.DrawLine(float64(x)+0.5, 0, float64(x)+0.5, float64(h))
		dc.Stroke()
		drawLabel(dc, strconv.Itoa(x), float64(x)+2, 11)
	}
	for y := step; y < h; y += step {
		dc.SetRGBA(1, 0, 0, 0.45)
		dc.DrawLine(0, float64(y)+0.5, float64(w), float64(y)+0.5)
		dc.Stroke()
		drawLabel(dc, strconv.Itoa(y), 2, float64(y)-2)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dc.Image()); err != nil {
		return nil, fmt.Errorf("encode overlay: %w", err)
	}
	return buf.Bytes(), nil
}

func drawLabel(dc *gg.Context, s string, x, y float64) {
	tw, th := dc.MeasureString(s)
	dc.SetRGBA(1, 1, 1, 0.75)
	dc.DrawRectangle(x-1, y-th, tw+2, th+2)
	dc.Fill()
	dc.SetRGB(0.8, 0, 0)
	dc.DrawString(s, x, y)
}

// gridStep 取短边的十分之一，向下取整到 10 的倍数，最小 20
func gridStep(w, h int) int {
	short := min(w, h)
	step := short / 10 / 10 * 10
	return max(step, 20)
}
