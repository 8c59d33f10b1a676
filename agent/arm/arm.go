package arm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/challenger/agent/browser"
	"github.com/BaSui01/challenger/agent/classifier"
	"github.com/BaSui01/challenger/agent/reasoning"
	"github.com/BaSui01/challenger/config"
	"github.com/BaSui01/challenger/types"
)

// Observer 接收每个动作的结果
type Observer interface {
	ObserveAction(action string, elapsed time.Duration, err error)
}

// Option 配置 Arm
type Option func(*Arm)

// WithLogger 设置日志
func WithLogger(logger *zap.Logger) Option {
	return func(a *Arm) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithSeed 固定运动随机源
func WithSeed(seed uint64) Option {
	return func(a *Arm) {
		a.seed = seed
	}
}

// WithObserver 设置动作观察者
func WithObserver(o Observer) Option {
	return func(a *Arm) {
		a.observer = o
	}
}

// Arm 把答案转换为拟人化的指针事件
//
// 一个 Arm 绑定一个控件，并记住上一次的光标位置，
// 让相邻动作的轨迹首尾相接。
type Arm struct {
	widget   browser.Widget
	logger   *zap.Logger
	observer Observer
	seed     uint64

	mu     sync.Mutex
	motion *motion
	cursor types.Point
}

// New 创建绑定到 widget 的 Arm
func New(widget browser.Widget, cfg config.MotionConfig, opts ...Option) *Arm {
	a := &Arm{
		widget: widget,
		logger: zap.NewNop(),
		seed:   uint64(time.Now().UnixNano()),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With(zap.String("component", "arm"))
	a.motion = newMotion(cfg, a.seed)
	return a
}

// Cursor 返回当前光标位置
func (a *Arm) Cursor() types.Point {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cursor
}

// ClickCheckbox 点击触发挑战的复选框
func (a *Arm) ClickCheckbox(ctx context.Context) error {
	return a.do("click_checkbox", func() error {
		box, err := a.widget.CheckboxBox(ctx)
		if err != nil {
			return a.lost(ctx, "locate checkbox", err)
		}
		return a.click(ctx, a.motion.landing(box))
	})
}

// ClickPoint 点击视口中的精确位置
func (a *Arm) ClickPoint(ctx context.Context, p types.Point) error {
	return a.do("click_point", func() error {
		return a.click(ctx, p)
	})
}

// Drag 按住 path.Start 拖到 path.End（视口像素）
func (a *Arm) Drag(ctx context.Context, path reasoning.Path) error {
	return a.do("drag", func() error {
		if err := a.moveTo(ctx, path.Start); err != nil {
			return err
		}
		if err := a.press(ctx, path.Start); err != nil {
			return err
		}
		if err := sleep(ctx, a.motion.hold()); err != nil {
			return err
		}
		if err := a.moveTo(ctx, path.End); err != nil {
			return err
		}
		if err := sleep(ctx, a.motion.stepDelay()); err != nil {
			return err
		}
		if err := a.release(ctx, path.End); err != nil {
			return err
		}
		return sleep(ctx, a.motion.pause())
	})
}

// SelectRegions 依次点击每个区域
func (a *Arm) SelectRegions(ctx context.Context, boxes []types.BoundingBox) error {
	return a.do("select_regions", func() error {
		for _, box := range boxes {
			if err := a.click(ctx, a.motion.landing(box)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Submit 点击提交按钮
func (a *Arm) Submit(ctx context.Context, box *types.BoundingBox) error {
	return a.clickButton(ctx, "submit", box)
}

// Refresh 点击刷新按钮，换一道题
func (a *Arm) Refresh(ctx context.Context, box *types.BoundingBox) error {
	return a.clickButton(ctx, "refresh", box)
}

// Execute 把答案映射为指针动作并提交。
// 答案的分数坐标按首个载荷在视口中的位置投影。
func (a *Arm) Execute(ctx context.Context, d *classifier.Descriptor, sol *reasoning.Solution) error {
	if sol == nil || sol.Category != d.Category() {
		return fmt.Errorf("%w: %s answer for %s", ErrSolutionMismatch, categoryOf(sol), d.Type)
	}

	switch sol.Category {
	case types.CategoryImageClassification:
		boxes := make([]types.BoundingBox, 0, len(sol.Regions))
		for _, idx := range sol.Regions {
			if idx < 0 || idx >= len(d.Tiles) {
				return fmt.Errorf("%w: tile %d of %d", ErrSolutionMismatch, idx, len(d.Tiles))
			}
			boxes = append(boxes, d.Tiles[idx])
		}
		if err := a.SelectRegions(ctx, boxes); err != nil {
			return err
		}

	case types.CategorySpatialPoint:
		img, ok := d.PrimaryImage()
		if !ok {
			return fmt.Errorf("%w: no payload", ErrSolutionMismatch)
		}
		for _, p := range sol.Points {
			if err := a.ClickPoint(ctx, img.Box.Project(p)); err != nil {
				return err
			}
		}

	case types.CategorySpatialPath:
		img, ok := d.PrimaryImage()
		if !ok {
			return fmt.Errorf("%w: no payload", ErrSolutionMismatch)
		}
		for _, p := range sol.Paths {
			drag := reasoning.Path{Start: img.Box.Project(p.Start), End: img.Box.Project(p.End)}
			if err := a.Drag(ctx, drag); err != nil {
				return err
			}
		}
	}

	return a.Submit(ctx, d.Submit)
}

func (a *Arm) clickButton(ctx context.Context, name string, box *types.BoundingBox) error {
	return a.do(name, func() error {
		if box == nil || box.Empty() {
			return fmt.Errorf("%w: %s button", ErrElementMissing, name)
		}
		return a.click(ctx, a.motion.landing(*box))
	})
}

func (a *Arm) click(ctx context.Context, p types.Point) error {
	if err := a.moveTo(ctx, p); err != nil {
		return err
	}
	if err := a.press(ctx, p); err != nil {
		return err
	}
	if err := sleep(ctx, a.motion.hold()); err != nil {
		return err
	}
	if err := a.release(ctx, p); err != nil {
		return err
	}
	return sleep(ctx, a.motion.pause())
}

func (a *Arm) moveTo(ctx context.Context, to types.Point) error {
	a.mu.Lock()
	waypoints := a.motion.path(a.cursor, to)
	a.mu.Unlock()

	for _, p := range waypoints {
		if err := a.widget.MoveMouse(ctx, p); err != nil {
			return a.lost(ctx, "move", err)
		}
		a.setCursor(p)
		if err := sleep(ctx, a.motion.stepDelay()); err != nil {
			return err
		}
	}
	return nil
}

func (a *Arm) press(ctx context.Context, p types.Point) error {
	if err := a.widget.MouseDown(ctx, p); err != nil {
		return a.lost(ctx, "mouse down", err)
	}
	return nil
}

func (a *Arm) release(ctx context.Context, p types.Point) error {
	if err := a.widget.MouseUp(ctx, p); err != nil {
		return a.lost(ctx, "mouse up", err)
	}
	return nil
}

func (a *Arm) setCursor(p types.Point) {
	a.mu.Lock()
	a.cursor = p
	a.mu.Unlock()
}

// lost 区分调用方取消与控件失联
func (a *Arm) lost(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &InteractionLost{Op: op, Err: err}
}

func (a *Arm) do(action string, fn func() error) error {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	if a.observer != nil {
		a.observer.ObserveAction(action, elapsed, err)
	}
	if err != nil {
		a.logger.Debug("action failed", zap.String("action", action), zap.Error(err))
		return err
	}
	a.logger.Debug("action done", zap.String("action", action), zap.Duration("elapsed", elapsed))
	return nil
}

func categoryOf(sol *reasoning.Solution) types.TaskCategory {
	if sol == nil {
		return ""
	}
	return sol.Category
}
