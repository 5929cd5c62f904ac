package procrustes

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"tshape/internal/shape"
)

// Result captures the superimposition of a candidate onto a reference.
type Result struct {
	// Distance is the root of the summed squared residual after alignment.
	Distance float64
	// Theta is the counter-clockwise rotation applied to the candidate.
	Theta float64
	// Reference and Aligned are the normalized reference and the rotated,
	// normalized candidate.
	Reference shape.Shape
	Aligned   shape.Shape
}

// Align returns the Procrustes distance between reference and candidate.
//
// A shape whose points all coincide has zero RMS radius; the resulting NaN is
// returned as the distance rather than reported as an error.
func Align(reference, candidate shape.Shape) (float64, error) {
	res, err := Superimpose(reference, candidate)
	if err != nil {
		return 0, err
	}
	return res.Distance, nil
}

// Superimpose aligns candidate onto reference and returns the distance along
// with the normalized shapes and rotation.
func Superimpose(reference, candidate shape.Shape) (Result, error) {
	if len(reference) != len(candidate) {
		return Result{}, fmt.Errorf("procrustes: %w: reference has %d points, candidate %d",
			shape.ErrLengthMismatch, len(reference), len(candidate))
	}
	if len(reference) == 0 {
		return Result{}, fmt.Errorf("procrustes: %w: empty shapes", shape.ErrTooFewPoints)
	}

	a := normalize(reference)
	b := normalize(candidate)

	var num, den float64
	for i := range a {
		num += b[i].X*a[i].Y - b[i].Y*a[i].X
		den += b[i].X*a[i].X + b[i].Y*a[i].Y
	}
	theta := math.Atan2(num, den)
	aligned := b.Transform(theta, 1, 0, 0)

	var residual float64
	for i := range a {
		dx := a[i].X - aligned[i].X
		dy := a[i].Y - aligned[i].Y
		residual += dx*dx + dy*dy
	}

	return Result{
		Distance:  math.Sqrt(residual),
		Theta:     theta,
		Reference: a,
		Aligned:   aligned,
	}, nil
}

// normalize centres s on its centroid and scales it to unit RMS radius.
func normalize(s shape.Shape) shape.Shape {
	xs, ys := s.XY()
	n := float64(len(s))
	floats.AddConst(-floats.Sum(xs)/n, xs)
	floats.AddConst(-floats.Sum(ys)/n, ys)

	var sq float64
	for i := range xs {
		sq += xs[i]*xs[i] + ys[i]*ys[i]
	}
	scale := math.Sqrt(sq / n)
	for i := range xs {
		xs[i] /= scale
		ys[i] /= scale
	}

	out, _ := shape.FromXY(xs, ys)
	return out
}
