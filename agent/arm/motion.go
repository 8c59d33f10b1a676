package arm

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"github.com/BaSui01/challenger/config"
	"github.com/BaSui01/challenger/types"
)

// motion 生成拟人化的指针轨迹与停顿
type motion struct {
	cfg config.MotionConfig
	rng *rand.Rand
}

func newMotion(cfg config.MotionConfig, seed uint64) *motion {
	if cfg.PixelsPerWaypoint <= 0 {
		cfg.PixelsPerWaypoint = config.DefaultMotionConfig().PixelsPerWaypoint
	}
	if cfg.StepDelayMax < cfg.StepDelayMin {
		cfg.StepDelayMax = cfg.StepDelayMin
	}
	return &motion{cfg: cfg, rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// path 返回从 from 到 to 的三次贝塞尔路点，不含起点，末点恰为 to。
// 路点数与距离成正比，中间路点带有抖动。
func (m *motion) path(from, to types.Point) []types.Point {
	dist := from.Distance(to)
	n := int(math.Ceil(dist / m.cfg.PixelsPerWaypoint))
	if n < 2 {
		n = 2
	}

	c1, c2 := m.controls(from, to, dist)
	out := make([]types.Point, 0, n)
	for i := 1; i <= n; i++ {
		t := float64(i) / float64(n)
		p := bezier(from, c1, c2, to, ease(t))
		if i < n && m.cfg.Jitter > 0 {
			p.X += (m.rng.Float64()*2 - 1) * m.cfg.Jitter
			p.Y += (m.rng.Float64()*2 - 1) * m.cfg.Jitter
		}
		out = append(out, p)
	}
	out[n-1] = to
	return out
}

// controls 在起止连线两侧取控制点，弯曲幅度不超过距离的四分之一
func (m *motion) controls(from, to types.Point, dist float64) (types.Point, types.Point) {
	if dist == 0 {
		return from, to
	}
	nx, ny := -(to.Y-from.Y)/dist, (to.X-from.X)/dist
	bend := func() float64 { return (m.rng.Float64()*2 - 1) * dist / 4 }

	b1, b2 := bend(), bend()
	c1 := types.Point{X: from.X + (to.X-from.X)/3 + nx*b1, Y: from.Y + (to.Y-from.Y)/3 + ny*b1}
	c2 := types.Point{X: from.X + 2*(to.X-from.X)/3 + nx*b2, Y: from.Y + 2*(to.Y-from.Y)/3 + ny*b2}
	return c1, c2
}

// landing 在目标框中心附近取落点，偏移不超过半宽/半高的 30%
func (m *motion) landing(box types.BoundingBox) types.Point {
	c := box.Center()
	c.X += (m.rng.Float64()*2 - 1) * box.Width * 0.15
	c.Y += (m.rng.Float64()*2 - 1) * box.Height * 0.15
	return c
}

func (m *motion) stepDelay() time.Duration {
	return m.between(m.cfg.StepDelayMin, m.cfg.StepDelayMax)
}

// hold 按下时长在 PressHold 的 ±25% 内浮动
func (m *motion) hold() time.Duration {
	return m.between(m.cfg.PressHold*3/4, m.cfg.PressHold*5/4)
}

func (m *motion) pause() time.Duration {
	return m.between(m.cfg.ActionPause*3/4, m.cfg.ActionPause*5/4)
}

func (m *motion) between(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(m.rng.Int64N(int64(hi-lo)+1))
}

func bezier(p0, p1, p2, p3 types.Point, t float64) types.Point {
	u := 1 - t
	a, b, c, d := u*u*u, 3*u*u*t, 3*u*t*t, t*t*t
	return types.Point{
		X: a*p0.X + b*p1.X + c*p2.X + d*p3.X,
		Y: a*p0.Y + b*p1.Y + c*p2.Y + d*p3.Y,
	}
}

// ease 先加速后减速
func ease(t float64) float64 {
	return t * t * (3 - 2*t)
}

// sleep 等待 d 或 ctx 结束
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
