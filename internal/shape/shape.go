package shape

import (
	"errors"
	"fmt"
	"math"
)

// MinPoints is the smallest contour the analyzers accept.
const MinPoints = 4

// ErrTooFewPoints is returned when a shape is shorter than MinPoints.
var ErrTooFewPoints = errors.New("shape has too few points")

// ErrLengthMismatch is returned when two shapes that must be compared differ in length.
var ErrLengthMismatch = errors.New("shape lengths differ")

// Point is one contour sample.
type Point struct {
	X float64
	Y float64
}

// Pt returns the point (x, y).
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Shape is an ordered sequence of contour points.
type Shape []Point

// FromXY zips parallel coordinate slices into a shape.
func FromXY(xs, ys []float64) (Shape, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("%w: %d x values, %d y values", ErrLengthMismatch, len(xs), len(ys))
	}
	out := make(Shape, len(xs))
	for i := range xs {
		out[i] = Point{X: xs[i], Y: ys[i]}
	}
	return out, nil
}

// XY splits the shape into its coordinate sequences.
func (s Shape) XY() (xs, ys []float64) {
	xs = make([]float64, len(s))
	ys = make([]float64, len(s))
	for i, p := range s {
		xs[i] = p.X
		ys[i] = p.Y
	}
	return xs, ys
}

// Finite reports whether every coordinate is a finite number.
func (s Shape) Finite() bool {
	for _, p := range s {
		if !isFinite(p.X) || !isFinite(p.Y) {
			return false
		}
	}
	return true
}

// Reverse returns a copy of the shape traversed in the opposite direction.
func (s Shape) Reverse() Shape {
	out := make(Shape, len(s))
	for i, p := range s {
		out[len(s)-1-i] = p
	}
	return out
}

// Transform returns a copy of the shape rotated by theta radians about the
// origin, scaled by k, and then translated by (dx, dy).
func (s Shape) Transform(theta, k, dx, dy float64) Shape {
	sin, cos := math.Sincos(theta)
	out := make(Shape, len(s))
	for i, p := range s {
		out[i] = Point{
			X: k*(cos*p.X-sin*p.Y) + dx,
			Y: k*(sin*p.X+cos*p.Y) + dy,
		}
	}
	return out
}

// Validate checks the minimum length requirement.
func (s Shape) Validate() error {
	if len(s) < MinPoints {
		return fmt.Errorf("%w: got %d, need %d", ErrTooFewPoints, len(s), MinPoints)
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
