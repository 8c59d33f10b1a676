package browser

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/BaSui01/challenger/config"
	"github.com/BaSui01/challenger/types"
)

// Selectors 定位控件各部分的 CSS 选择器
type Selectors struct {
	CheckboxFrame  string
	Checkbox       string
	ChallengeFrame string
	Prompt         string
	Tile           string
	Canvas         string
	Draggable      string
	Submit         string
	Refresh        string
	Error          string
	Token          string
}

// DefaultSelectors 返回 hCaptcha 控件的选择器
func DefaultSelectors() Selectors {
	return Selectors{
		CheckboxFrame:  `iframe[src*="frame=checkbox"]`,
		Checkbox:       `#checkbox`,
		ChallengeFrame: `iframe[src*="frame=challenge"]`,
		Prompt:         `.prompt-text`,
		Tile:           `.task-grid .task-image`,
		Canvas:         `.challenge-view canvas`,
		Draggable:      `.challenge-view .draggable`,
		Submit:         `.button-submit`,
		Refresh:        `.refresh.button`,
		Error:          `.display-error`,
		Token:          `textarea[name="h-captcha-response"]`,
	}
}

// ChromeDPOption 配置选项
type ChromeDPOption func(*ChromeDPWidget)

// WithSelectors 替换默认选择器
func WithSelectors(sel Selectors) ChromeDPOption {
	return func(w *ChromeDPWidget) { w.sel = sel }
}

// ChromeDPWidget 基于 chromedp 的 Widget 实现
type ChromeDPWidget struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc
	config      config.BrowserConfig
	sel         Selectors
	logger      *zap.Logger
	mu          sync.Mutex
}

// NewChromeDPWidget 启动浏览器并返回控件句柄
func NewChromeDPWidget(cfg config.BrowserConfig, logger *zap.Logger, opts ...ChromeDPOption) (*ChromeDPWidget, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.WindowSize(cfg.ViewportWidth, cfg.ViewportHeight),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		// 挑战 iframe 跨域，关闭站点隔离后才能在同一会话里查询其 DOM
		chromedp.Flag("disable-site-isolation-trials", true),
		chromedp.Flag("disable-features", "IsolateOrigins,site-per-process"),
	)
	if cfg.Locale != "" {
		allocOpts = append(allocOpts, chromedp.Flag("lang", cfg.Locale))
	}
	if cfg.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(cfg.UserAgent))
	}
	if cfg.ProxyURL != "" {
		allocOpts = append(allocOpts, chromedp.ProxyServer(cfg.ProxyURL))
	}
	if cfg.UserDataDir != "" {
		allocOpts = append(allocOpts, chromedp.UserDataDir(cfg.UserDataDir))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	ctx, cancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			logger.Debug(fmt.Sprintf(format, args...))
		}),
	)

	w := &ChromeDPWidget{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		ctx:         ctx,
		cancel:      cancel,
		config:      cfg,
		sel:         DefaultSelectors(),
		logger:      logger.With(zap.String("component", "chromedp_widget")),
	}
	for _, opt := range opts {
		opt(w)
	}

	// 首次 Run 分配浏览器与标签页
	if err := chromedp.Run(ctx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	w.logger.Info("chromedp browser started",
		zap.Bool("headless", cfg.Headless),
		zap.Int("viewport_w", cfg.ViewportWidth),
		zap.Int("viewport_h", cfg.ViewportHeight))

	return w, nil
}

// Navigate 打开承载控件的页面，受 BrowserConfig.Timeout 约束
func (w *ChromeDPWidget) Navigate(ctx context.Context, url string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.config.Timeout)
		defer cancel()
	}
	w.logger.Debug("navigating", zap.String("url", url), zap.Duration("timeout", w.config.Timeout))
	return w.run(ctx, chromedp.Navigate(url))
}

// Snapshot 实现 Widget.Snapshot
func (w *ChromeDPWidget) Snapshot(ctx context.Context) (*Snapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	snap := &Snapshot{}
	err := w.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		token, err := w.readToken(ctx)
		if err != nil {
			return err
		}
		snap.Token = token

		frame, frameBox, ok, err := w.firstVisible(ctx, w.sel.ChallengeFrame, nil)
		if err != nil || !ok {
			return err
		}
		snap.ChallengeVisible = true
		snap.Frame = frameBox

		if el, ok, err := w.element(ctx, w.sel.Prompt, frame); err != nil {
			return err
		} else if ok {
			snap.Prompt = el.Text
		}
		if snap.Canvas, err = w.optional(ctx, w.sel.Canvas, frame); err != nil {
			return err
		}
		if snap.Tiles, err = w.elements(ctx, w.sel.Tile, frame); err != nil {
			return err
		}
		if snap.Draggables, err = w.elements(ctx, w.sel.Draggable, frame); err != nil {
			return err
		}
		if snap.Submit, err = w.optional(ctx, w.sel.Submit, frame); err != nil {
			return err
		}
		if snap.Refresh, err = w.optional(ctx, w.sel.Refresh, frame); err != nil {
			return err
		}
		if el, ok, err := w.element(ctx, w.sel.Error, frame); err != nil {
			return err
		} else if ok {
			snap.ErrorText = el.Text
		}
		return nil
	}))
	if err != nil {
		return nil, fmt.Errorf("snapshot failed: %w", err)
	}
	return snap, nil
}

// Capture 实现 Widget.Capture
func (w *ChromeDPWidget) Capture(ctx context.Context, box types.BoundingBox) ([]byte, error) {
	if box.Empty() {
		return nil, fmt.Errorf("capture: empty region")
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	var buf []byte
	err := w.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		buf, err = page.CaptureScreenshot().
			WithFormat(page.CaptureScreenshotFormatPng).
			WithClip(&page.Viewport{X: box.X, Y: box.Y, Width: box.Width, Height: box.Height, Scale: 1}).
			Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("capture failed: %w", err)
	}
	return buf, nil
}

// CheckboxBox 实现 Widget.CheckboxBox
func (w *ChromeDPWidget) CheckboxBox(ctx context.Context) (types.BoundingBox, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var box types.BoundingBox
	err := w.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		frame, _, ok, err := w.firstVisible(ctx, w.sel.CheckboxFrame, nil)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s", ErrElementNotFound, w.sel.CheckboxFrame)
		}
		el, ok, err := w.element(ctx, w.sel.Checkbox, frame)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s", ErrElementNotFound, w.sel.Checkbox)
		}
		box = el.Box
		return nil
	}))
	return box, err
}

// MoveMouse 实现 Widget.MoveMouse
func (w *ChromeDPWidget) MoveMouse(ctx context.Context, p types.Point) error {
	return w.dispatch(ctx, input.MouseMoved, p)
}

// MouseDown 实现 Widget.MouseDown
func (w *ChromeDPWidget) MouseDown(ctx context.Context, p types.Point) error {
	return w.dispatch(ctx, input.MousePressed, p)
}

// MouseUp 实现 Widget.MouseUp
func (w *ChromeDPWidget) MouseUp(ctx context.Context, p types.Point) error {
	return w.dispatch(ctx, input.MouseReleased, p)
}

// Close 关闭浏览器
func (w *ChromeDPWidget) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.logger.Info("closing chromedp browser")
	w.cancel()
	w.allocCancel()
	return nil
}

func (w *ChromeDPWidget) dispatch(ctx context.Context, typ input.MouseType, p types.Point) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		ev := input.DispatchMouseEvent(typ, p.X, p.Y)
		if typ != input.MouseMoved {
			ev = ev.WithButton(input.Left).WithClickCount(1)
		}
		return ev.Do(ctx)
	}))
}

// run 在标签页上下文中执行动作，同时响应调用方的取消
func (w *ChromeDPWidget) run(ctx context.Context, actions ...chromedp.Action) error {
	if w.ctx.Err() != nil {
		return ErrWidgetDetached
	}

	runCtx, cancel := context.WithCancel(w.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	case w.ctx.Err() != nil:
		return fmt.Errorf("%w: %v", ErrWidgetDetached, err)
	default:
		return err
	}
}

func (w *ChromeDPWidget) readToken(ctx context.Context) (string, error) {
	var token string
	script := fmt.Sprintf(`(function(){var el=document.querySelector(%q);return el?el.value:"";})()`, w.sel.Token)
	if err := chromedp.Evaluate(script, &token).Do(ctx); err != nil {
		return "", err
	}
	return strings.TrimSpace(token), nil
}

func (w *ChromeDPWidget) query(ctx context.Context, sel string, from *cdp.Node) ([]*cdp.Node, error) {
	var nodes []*cdp.Node
	opts := []chromedp.QueryOption{chromedp.ByQueryAll, chromedp.AtLeast(0)}
	if from != nil {
		opts = append(opts, chromedp.FromNode(from))
	}
	if err := chromedp.Nodes(sel, &nodes, opts...).Do(ctx); err != nil {
		return nil, err
	}
	return nodes, nil
}

// firstVisible 返回第一个有布局盒的节点
func (w *ChromeDPWidget) firstVisible(ctx context.Context, sel string, from *cdp.Node) (*cdp.Node, types.BoundingBox, bool, error) {
	nodes, err := w.query(ctx, sel, from)
	if err != nil {
		return nil, types.BoundingBox{}, false, err
	}
	for _, n := range nodes {
		if box, ok := nodeBox(ctx, n); ok {
			return n, box, true, nil
		}
	}
	return nil, types.BoundingBox{}, false, nil
}

func (w *ChromeDPWidget) element(ctx context.Context, sel string, from *cdp.Node) (Element, bool, error) {
	els, err := w.elements(ctx, sel, from)
	if err != nil || len(els) == 0 {
		return Element{}, false, err
	}
	return els[0], true, nil
}

func (w *ChromeDPWidget) optional(ctx context.Context, sel string, from *cdp.Node) (*Element, error) {
	el, ok, err := w.element(ctx, sel, from)
	if err != nil || !ok {
		return nil, err
	}
	return &el, nil
}

// elements 返回所有可见节点，不可见节点跳过
func (w *ChromeDPWidget) elements(ctx context.Context, sel string, from *cdp.Node) ([]Element, error) {
	nodes, err := w.query(ctx, sel, from)
	if err != nil {
		return nil, err
	}
	var out []Element
	for _, n := range nodes {
		box, ok := nodeBox(ctx, n)
		if !ok {
			continue
		}
		var text string
		if err := chromedp.Text([]cdp.NodeID{n.NodeID}, &text, chromedp.ByNodeID).Do(ctx); err != nil {
			text = ""
		}
		out = append(out, Element{Selector: sel, Text: strings.TrimSpace(text), Box: box})
	}
	return out, nil
}

// nodeBox 读取节点在主视口中的边框盒
func nodeBox(ctx context.Context, n *cdp.Node) (types.BoundingBox, bool) {
	model, err := dom.GetBoxModel().WithNodeID(n.NodeID).Do(ctx)
	if err != nil || model == nil {
		return types.BoundingBox{}, false
	}
	box := quadBox(model.Border)
	return box, !box.Empty()
}

func quadBox(q dom.Quad) types.BoundingBox {
	if len(q) < 8 {
		return types.BoundingBox{}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for i := 0; i+1 < len(q); i += 2 {
		minX = math.Min(minX, q[i])
		maxX = math.Max(maxX, q[i])
		minY = math.Min(minY, q[i+1])
		maxY = math.Max(maxY, q[i+1])
	}
	return types.BoundingBox{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// IsDetached 报告错误是否表示句柄失效
func IsDetached(err error) bool {
	return errors.Is(err, ErrWidgetDetached)
}
