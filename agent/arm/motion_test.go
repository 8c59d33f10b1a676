package arm

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/BaSui01/challenger/config"
	"github.com/BaSui01/challenger/types"
)

func genPoint(t *rapid.T, label string) types.Point {
	return types.Point{
		X: rapid.Float64Range(0, 1920).Draw(t, label+".x"),
		Y: rapid.Float64Range(0, 1080).Draw(t, label+".y"),
	}
}

func TestPath_EndsAtTarget(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := config.MotionConfig{
			PixelsPerWaypoint: rapid.Float64Range(1, 50).Draw(t, "ppw"),
			Jitter:            rapid.Float64Range(0, 3).Draw(t, "jitter"),
		}
		m := newMotion(cfg, rapid.Uint64().Draw(t, "seed"))
		from, to := genPoint(t, "from"), genPoint(t, "to")

		path := m.path(from, to)

		want := max(2, int(math.Ceil(from.Distance(to)/cfg.PixelsPerWaypoint)))
		if len(path) != want {
			t.Fatalf("got %d waypoints, want %d", len(path), want)
		}
		if path[len(path)-1] != to {
			t.Fatalf("last waypoint %v, want %v", path[len(path)-1], to)
		}
	})
}

func TestLanding_InsideBox(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		m := newMotion(config.DefaultMotionConfig(), rapid.Uint64().Draw(t, "seed"))
		box := types.BoundingBox{
			X:      rapid.Float64Range(0, 1000).Draw(t, "x"),
			Y:      rapid.Float64Range(0, 1000).Draw(t, "y"),
			Width:  rapid.Float64Range(1, 400).Draw(t, "w"),
			Height: rapid.Float64Range(1, 400).Draw(t, "h"),
		}
		if p := m.landing(box); !box.Contains(p) {
			t.Fatalf("landing %v outside %v", p, box)
		}
	})
}

func TestDelaysWithinBounds(t *testing.T) {
	m := newMotion(config.MotionConfig{
		StepDelayMin:      5 * time.Millisecond,
		StepDelayMax:      10 * time.Millisecond,
		PressHold:         80 * time.Millisecond,
		PixelsPerWaypoint: 10,
	}, 42)

	for i := 0; i < 200; i++ {
		d := m.stepDelay()
		assert.GreaterOrEqual(t, d, 5*time.Millisecond)
		assert.LessOrEqual(t, d, 10*time.Millisecond)

		h := m.hold()
		assert.GreaterOrEqual(t, h, 60*time.Millisecond)
		assert.LessOrEqual(t, h, 100*time.Millisecond)
	}
	assert.Zero(t, m.pause())
}

func TestNewMotion_Sanitises(t *testing.T) {
	m := newMotion(config.MotionConfig{StepDelayMin: 10 * time.Millisecond}, 1)
	assert.Equal(t, config.DefaultMotionConfig().PixelsPerWaypoint, m.cfg.PixelsPerWaypoint)
	assert.Equal(t, 10*time.Millisecond, m.stepDelay())
}

func TestBezierEndpoints(t *testing.T) {
	p0, p3 := types.Point{X: 1, Y: 2}, types.Point{X: 9, Y: 7}
	c := types.Point{X: 100, Y: -100}
	assert.Equal(t, p0, bezier(p0, c, c, p3, 0))
	assert.Equal(t, p3, bezier(p0, c, c, p3, 1))
	assert.Zero(t, ease(0))
	assert.Equal(t, 1.0, ease(1))
}
