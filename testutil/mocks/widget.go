// Widget 的挑战控件测试模拟实现。
//
// 按脚本切换屏幕：每个 Screen 描述一次渲染状态，以及哪种点击会推进到下一屏。
package mocks

import (
	"context"
	"slices"
	"sync"

	"github.com/BaSui01/challenger/agent/browser"
	"github.com/BaSui01/challenger/types"
)

// Advance 推进到下一屏的触发条件
type Advance int

const (
	// Stay 不推进
	Stay Advance = iota
	// OnCheckbox 在复选框内松开鼠标时推进
	OnCheckbox
	// OnSubmit 在提交按钮内松开鼠标时推进
	OnSubmit
	// OnRefresh 在刷新按钮内松开鼠标时推进
	OnRefresh
)

// Screen 一次渲染状态
type Screen struct {
	Snapshot browser.Snapshot
	// Capture 返回的图片
	Image []byte
	Next  Advance
}

// PointerEvent 记录一次指针事件
type PointerEvent struct {
	Kind  string
	Point types.Point
}

// Widget 是 browser.Widget 的模拟实现
type Widget struct {
	mu sync.Mutex

	screens  []Screen
	idx      int
	checkbox types.BoundingBox

	// 错误注入
	snapshotErr error
	pointerErr  error
	failAfter   int

	// 调用记录
	events        []PointerEvent
	snapshotCalls int
	captureCalls  int
}

// NewWidget 创建没有挑战的 Widget
func NewWidget() *Widget {
	return &Widget{
		screens:   []Screen{{}},
		checkbox:  types.BoundingBox{X: 20, Y: 20, Width: 28, Height: 28},
		failAfter: -1,
	}
}

// WithScreens 设置屏幕脚本
func (w *Widget) WithScreens(screens ...Screen) *Widget {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.screens = slices.Clone(screens)
	w.idx = 0
	return w
}

// WithCheckbox 设置复选框位置
func (w *Widget) WithCheckbox(box types.BoundingBox) *Widget {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.checkbox = box
	return w
}

// WithSnapshotError 让 Snapshot 返回错误
func (w *Widget) WithSnapshotError(err error) *Widget {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.snapshotErr = err
	return w
}

// WithPointerError 在 after 个指针事件成功后，之后的事件都返回 err
func (w *Widget) WithPointerError(after int, err error) *Widget {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.failAfter = after
	w.pointerErr = err
	return w
}

// SetScreen 直接跳到第 i 屏
func (w *Widget) SetScreen(i int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.idx = i
}

// --- browser.Widget 实现 ---

// Snapshot 返回当前屏的快照副本
func (w *Widget) Snapshot(ctx context.Context) (*browser.Snapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.snapshotCalls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if w.snapshotErr != nil {
		return nil, w.snapshotErr
	}

	snap := w.screens[w.idx].Snapshot
	snap.Tiles = slices.Clone(snap.Tiles)
	snap.Draggables = slices.Clone(snap.Draggables)
	if snap.Canvas != nil {
		c := *snap.Canvas
		snap.Canvas = &c
	}
	if snap.Submit != nil {
		s := *snap.Submit
		snap.Submit = &s
	}
	if snap.Refresh != nil {
		r := *snap.Refresh
		snap.Refresh = &r
	}
	return &snap, nil
}

// Capture 返回当前屏的图片
func (w *Widget) Capture(ctx context.Context, box types.BoundingBox) ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.captureCalls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if w.snapshotErr != nil {
		return nil, w.snapshotErr
	}
	return slices.Clone(w.screens[w.idx].Image), nil
}

// CheckboxBox 返回复选框位置
func (w *Widget) CheckboxBox(ctx context.Context) (types.BoundingBox, error) {
	if err := ctx.Err(); err != nil {
		return types.BoundingBox{}, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.checkbox, nil
}

// MoveMouse 记录移动
func (w *Widget) MoveMouse(ctx context.Context, p types.Point) error {
	return w.pointer(ctx, "move", p)
}

// MouseDown 记录按下
func (w *Widget) MouseDown(ctx context.Context, p types.Point) error {
	return w.pointer(ctx, "down", p)
}

// MouseUp 记录松开，并按脚本推进屏幕
func (w *Widget) MouseUp(ctx context.Context, p types.Point) error {
	return w.pointer(ctx, "up", p)
}

func (w *Widget) pointer(ctx context.Context, kind string, p types.Point) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.failAfter >= 0 && len(w.events) >= w.failAfter {
		return w.pointerErr
	}
	w.events = append(w.events, PointerEvent{Kind: kind, Point: p})

	if kind == "up" && w.shouldAdvance(p) && w.idx < len(w.screens)-1 {
		w.idx++
	}
	return nil
}

func (w *Widget) shouldAdvance(p types.Point) bool {
	snap := w.screens[w.idx].Snapshot
	switch w.screens[w.idx].Next {
	case OnCheckbox:
		return w.checkbox.Contains(p)
	case OnSubmit:
		return snap.Submit != nil && snap.Submit.Box.Contains(p)
	case OnRefresh:
		return snap.Refresh != nil && snap.Refresh.Box.Contains(p)
	}
	return false
}

// --- 断言辅助 ---

// ScreenIndex 返回当前屏下标
func (w *Widget) ScreenIndex() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.idx
}

// SnapshotCalls 返回 Snapshot 调用次数
func (w *Widget) SnapshotCalls() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotCalls
}

// CaptureCalls 返回 Capture 调用次数
func (w *Widget) CaptureCalls() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.captureCalls
}

// Events 返回全部指针事件
func (w *Widget) Events() []PointerEvent {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.events)
}

// Releases 返回所有松开鼠标的位置
func (w *Widget) Releases() []types.Point {
	return w.pointsOf("up")
}

// Presses 返回所有按下鼠标的位置
func (w *Widget) Presses() []types.Point {
	return w.pointsOf("down")
}

// MoveCount 返回移动事件数
func (w *Widget) MoveCount() int {
	return len(w.pointsOf("move"))
}

func (w *Widget) pointsOf(kind string) []types.Point {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []types.Point
	for _, e := range w.events {
		if e.Kind == kind {
			out = append(out, e.Point)
		}
	}
	return out
}
