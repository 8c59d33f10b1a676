// =============================================================================
// 📦 测试数据工厂 - 挑战控件屏幕
// =============================================================================
// 提供各挑战变体的预置渲染状态，用于脚本化 mocks.Widget
// =============================================================================
package fixtures

import (
	"hash/fnv"

	"github.com/BaSui01/challenger/agent/browser"
	"github.com/BaSui01/challenger/testutil"
	"github.com/BaSui01/challenger/testutil/mocks"
	"github.com/BaSui01/challenger/types"
)

// 控件布局（视口像素）
var (
	FrameBox   = types.BoundingBox{X: 100, Y: 80, Width: 400, Height: 600}
	CanvasBox  = types.BoundingBox{X: 120, Y: 180, Width: 360, Height: 360}
	SubmitBox  = types.BoundingBox{X: 380, Y: 620, Width: 100, Height: 40}
	RefreshBox = types.BoundingBox{X: 120, Y: 620, Width: 40, Height: 40}
)

// IdleScreen 尚未出现挑战，点击复选框后推进
func IdleScreen() mocks.Screen {
	return mocks.Screen{Next: mocks.OnCheckbox}
}

// WaitingScreen 永远不出现挑战
func WaitingScreen() mocks.Screen {
	return mocks.Screen{Next: mocks.Stay}
}

// AreaSelectScreen 单目标区域选择，提交后推进
func AreaSelectScreen(prompt string) mocks.Screen {
	return canvasScreen(prompt, 0)
}

// DragScreen 拖拽挑战，draggables 为可拖拽标记数量
func DragScreen(prompt string, draggables int) mocks.Screen {
	return canvasScreen(prompt, draggables)
}

// BinaryScreen 3x3 图片格二分类挑战，提交后推进
func BinaryScreen(prompt string) mocks.Screen {
	s := base(prompt)
	for i := 0; i < 9; i++ {
		s.Snapshot.Tiles = append(s.Snapshot.Tiles, browser.Element{
			Selector: ".task-image",
			Box:      TileBox(i),
		})
	}
	s.Image = testutil.SolidPNG(360, 360, seed(prompt))
	return s
}

// TileBox 返回 3x3 网格第 i 格的位置
func TileBox(i int) types.BoundingBox {
	return types.BoundingBox{
		X:      CanvasBox.X + float64(i%3)*120,
		Y:      CanvasBox.Y + float64(i/3)*120,
		Width:  116,
		Height: 116,
	}
}

// SolvedScreen 挑战关闭且页面已写入令牌
func SolvedScreen(token string) mocks.Screen {
	return mocks.Screen{Snapshot: browser.Snapshot{Token: token}}
}

// UnknownScreen 挑战可见但没有已知布局
func UnknownScreen(prompt string) mocks.Screen {
	return base(prompt)
}

// WithNext 修改推进条件
func WithNext(s mocks.Screen, next mocks.Advance) mocks.Screen {
	s.Next = next
	return s
}

func canvasScreen(prompt string, draggables int) mocks.Screen {
	s := base(prompt)
	s.Snapshot.Canvas = &browser.Element{Selector: "canvas", Box: CanvasBox}
	for i := 0; i < draggables; i++ {
		s.Snapshot.Draggables = append(s.Snapshot.Draggables, browser.Element{
			Selector: ".draggable",
			Box:      types.BoundingBox{X: CanvasBox.X + 280, Y: CanvasBox.Y + float64(i)*90, Width: 80, Height: 80},
		})
	}
	s.Image = testutil.SolidPNG(360, 360, seed(prompt))
	return s
}

func base(prompt string) mocks.Screen {
	return mocks.Screen{
		Snapshot: browser.Snapshot{
			ChallengeVisible: true,
			Frame:            FrameBox,
			Prompt:           prompt,
			Submit:           &browser.Element{Selector: ".button-submit", Text: "Verify", Box: SubmitBox},
			Refresh:          &browser.Element{Selector: ".refresh", Box: RefreshBox},
		},
		Next: mocks.OnSubmit,
	}
}

func seed(prompt string) uint8 {
	h := fnv.New32a()
	h.Write([]byte(prompt))
	return uint8(h.Sum32())
}
