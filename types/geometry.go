package types

import "math"

// Point is a 2D coordinate. Its space (viewport pixels or fractional 0..1)
// is fixed by whoever produces it.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the euclidean distance between p and q.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

// BoundingBox is an axis-aligned rectangle in viewport pixels.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the center of the box.
func (b BoundingBox) Center() Point {
	return Point{X: b.X + b.Width/2, Y: b.Y + b.Height/2}
}

// Contains reports whether p lies inside the box (edges included).
func (b BoundingBox) Contains(p Point) bool {
	return p.X >= b.X && p.X <= b.X+b.Width && p.Y >= b.Y && p.Y <= b.Y+b.Height
}

// Empty reports whether the box has no area.
func (b BoundingBox) Empty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// Project maps a fractional point (0..1 on both axes) into the box.
// Out-of-range fractions are clamped to the box edges.
func (b BoundingBox) Project(frac Point) Point {
	return Point{
		X: b.X + clamp01(frac.X)*b.Width,
		Y: b.Y + clamp01(frac.Y)*b.Height,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
