package study

import (
	"fmt"
	"math"
)

// Point is a position in screen space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Dist returns the Euclidean distance between two points.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Bounds is an axis-aligned rectangle. Points on the edge are inside.
type Bounds struct {
	MinX float64 `json:"minX"`
	MinY float64 `json:"minY"`
	MaxX float64 `json:"maxX"`
	MaxY float64 `json:"maxY"`
}

// ScreenBounds returns the bounds of a width x height screen anchored at the origin.
func ScreenBounds(width, height float64) Bounds {
	return Bounds{MaxX: width, MaxY: height}
}

func (b Bounds) Width() float64  { return b.MaxX - b.MinX }
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

func (b Bounds) Center() Point {
	return Point{X: (b.MinX + b.MaxX) / 2, Y: (b.MinY + b.MaxY) / 2}
}

func (b Bounds) Contains(p Point) bool {
	return p.X >= b.MinX && p.X <= b.MaxX && p.Y >= b.MinY && p.Y <= b.MaxY
}

// Inset shrinks the bounds by margin on every side. A margin larger than
// half the extent collapses that axis onto its centre line.
func (b Bounds) Inset(margin float64) Bounds {
	out := Bounds{MinX: b.MinX + margin, MinY: b.MinY + margin, MaxX: b.MaxX - margin, MaxY: b.MaxY - margin}
	if out.MinX > out.MaxX {
		c := (b.MinX + b.MaxX) / 2
		out.MinX, out.MaxX = c, c
	}
	if out.MinY > out.MaxY {
		c := (b.MinY + b.MaxY) / 2
		out.MinY, out.MaxY = c, c
	}
	return out
}

// Clamp returns the point of b closest to p.
func (b Bounds) Clamp(p Point) Point {
	return Point{X: math.Max(b.MinX, math.Min(b.MaxX, p.X)), Y: math.Max(b.MinY, math.Min(b.MaxY, p.Y))}
}

// Validate reports an error when the rectangle is empty or not finite.
func (b Bounds) Validate() error {
	for _, v := range []float64{b.MinX, b.MinY, b.MaxX, b.MaxY} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: bounds must be finite", ErrInvalidConfiguration)
		}
	}
	if b.Width() <= 0 || b.Height() <= 0 {
		return fmt.Errorf("%w: bounds %vx%v are empty", ErrInvalidConfiguration, b.Width(), b.Height())
	}
	return nil
}
