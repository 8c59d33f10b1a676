package classifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/challenger/agent/browser"
	"github.com/BaSui01/challenger/types"
)

var (
	// ErrNotReady 当前没有渲染中的挑战
	ErrNotReady = errors.New("no challenge rendered")
	// ErrUnclassified 挑战存在但布局未知
	ErrUnclassified = errors.New("unclassified challenge")
	// ErrPassedWithoutChallenge 未出现挑战就已拿到令牌
	ErrPassedWithoutChallenge = errors.New("widget passed without a challenge")
)

// UnclassifiedError 记录无法识别的挑战
type UnclassifiedError struct {
	Prompt string
}

func (e *UnclassifiedError) Error() string {
	return fmt.Sprintf("%v: prompt %q", ErrUnclassified, e.Prompt)
}

func (e *UnclassifiedError) Unwrap() error {
	return ErrUnclassified
}

// Classifier 识别当前渲染的挑战变体
//
// Classify 只读，对静态控件连续调用两次得到相同的 Descriptor。
type Classifier struct {
	logger *zap.Logger
}

// New 创建 Classifier
func New(logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{logger: logger.With(zap.String("component", "classifier"))}
}

// Classify 读取控件快照并返回 Descriptor。
// 没有挑战时返回 ErrNotReady，布局未知时返回 *UnclassifiedError。
func (c *Classifier) Classify(ctx context.Context, w browser.Widget) (*Descriptor, error) {
	snap, err := w.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("classify: snapshot: %w", err)
	}
	return c.classifySnapshot(ctx, w, snap)
}

func (c *Classifier) classifySnapshot(ctx context.Context, w browser.Widget, snap *browser.Snapshot) (*Descriptor, error) {
	if !snap.ChallengeVisible {
		return nil, ErrNotReady
	}

	typ, ok := match(snap)
	if !ok {
		c.logger.Debug("no rule matched", zap.String("prompt", snap.Prompt))
		return nil, &UnclassifiedError{Prompt: snap.Prompt}
	}

	d := &Descriptor{
		Type:    typ,
		Prompt:  snap.Prompt,
		Submit:  boxOf(snap.Submit),
		Refresh: boxOf(snap.Refresh),
		Handle:  w,
	}

	var region types.BoundingBox
	var name string
	switch typ.RequestType() {
	case types.RequestImageLabelBinary:
		for _, t := range snap.Tiles {
			d.Tiles = append(d.Tiles, t.Box)
		}
		d.Grid = gridOf(d.Tiles)
		region, name = union(d.Tiles), "grid"
	default:
		region, name = snap.Canvas.Box, "canvas"
	}

	data, err := w.Capture(ctx, region)
	if err != nil {
		return nil, fmt.Errorf("classify: capture %s: %w", name, err)
	}
	d.Payload = []Image{newImage(name, data, region)}
	d.Fingerprint = Fingerprint(d.Type, d.Prompt, d.Payload)

	c.logger.Debug("challenge classified",
		zap.String("type", string(d.Type)),
		zap.String("prompt", d.Prompt),
		zap.String("fingerprint", d.Fingerprint[:12]))

	return d, nil
}

// WaitForChallenge 挂起直到挑战出现或 ctx 结束，内部按 interval 轮询。
// 控件在挑战出现前给出令牌时返回 ErrPassedWithoutChallenge。
func (c *Classifier) WaitForChallenge(ctx context.Context, w browser.Widget, interval time.Duration) (*Descriptor, error) {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		snap, err := w.Snapshot(ctx)
		switch {
		case err != nil && ctx.Err() != nil:
			return nil, fmt.Errorf("wait for challenge: %w", ctx.Err())
		case err != nil:
			return nil, fmt.Errorf("wait for challenge: snapshot: %w", err)
		case snap.ChallengeVisible:
			d, err := c.classifySnapshot(ctx, w, snap)
			if err == nil || !errors.Is(err, ErrNotReady) {
				return d, err
			}
		case snap.Solved():
			return nil, ErrPassedWithoutChallenge
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("wait for challenge: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}
