package browser

import (
	"context"
	"errors"

	"github.com/BaSui01/challenger/types"
)

var (
	// ErrWidgetDetached 控件句柄已失效（页面跳转、标签页关闭）
	ErrWidgetDetached = errors.New("widget handle detached")
	// ErrElementNotFound 期望的控件元素不存在
	ErrElementNotFound = errors.New("widget element not found")
)

// Widget 是挑战控件的浏览器侧边界。
//
// Snapshot 与 Capture 只读，不得改变控件状态；指针原语由 arm 包驱动。
// 所有坐标均为视口像素。
type Widget interface {
	// Snapshot 返回当前渲染状态的结构化视图
	Snapshot(ctx context.Context) (*Snapshot, error)
	// Capture 截取视口中的矩形区域，返回 PNG
	Capture(ctx context.Context, box types.BoundingBox) ([]byte, error)
	// CheckboxBox 返回入口复选框的位置
	CheckboxBox(ctx context.Context) (types.BoundingBox, error)

	MoveMouse(ctx context.Context, p types.Point) error
	MouseDown(ctx context.Context, p types.Point) error
	MouseUp(ctx context.Context, p types.Point) error
}

// Element 控件中的一个可见元素
type Element struct {
	Selector string            `json:"selector,omitempty"`
	Text     string            `json:"text,omitempty"`
	Box      types.BoundingBox `json:"box"`
}

// Snapshot 挑战控件某一时刻的结构化视图
type Snapshot struct {
	// 挑战框是否可见
	ChallengeVisible bool              `json:"challenge_visible"`
	Frame            types.BoundingBox `json:"frame"`
	Prompt           string            `json:"prompt,omitempty"`

	// 画布容器，拖拽与区域选择共用
	Canvas *Element `json:"canvas,omitempty"`
	// 二分类网格的图片格
	Tiles []Element `json:"tiles,omitempty"`
	// 可拖拽的标记
	Draggables []Element `json:"draggables,omitempty"`

	Submit  *Element `json:"submit,omitempty"`
	Refresh *Element `json:"refresh,omitempty"`

	// 控件显示的错误提示，例如 "Please try again"
	ErrorText string `json:"error_text,omitempty"`
	// 通过验证后写入页面的令牌
	Token string `json:"token,omitempty"`
}

// Solved 报告页面上是否已出现令牌
func (s *Snapshot) Solved() bool {
	return s != nil && s.Token != ""
}

// HasChallenge 报告是否有可交互的挑战
func (s *Snapshot) HasChallenge() bool {
	return s != nil && s.ChallengeVisible && (s.Canvas != nil || len(s.Tiles) > 0)
}
