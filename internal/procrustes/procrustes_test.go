package procrustes_test

import (
	"errors"
	"math"
	"testing"

	"tshape/internal/procrustes"
	"tshape/internal/shape"
	"tshape/internal/testsupport"
)

const tolerance = 1e-9

func TestAlignIdentityIsZero(t *testing.T) {
	s := testsupport.Arc(50, 1.2)
	d, err := procrustes.Align(s, s)
	if err != nil {
		t.Fatalf("Align returned error: %v", err)
	}
	if math.Abs(d) > tolerance {
		t.Fatalf("Align(s, s) = %v, want 0", d)
	}
}

func TestAlignInvariantUnderSimilarityTransforms(t *testing.T) {
	ref := testsupport.Arc(40, 1.0)
	cand := testsupport.Wave(40, 0.3)
	base, err := procrustes.Align(ref, cand)
	if err != nil {
		t.Fatalf("Align returned error: %v", err)
	}
	if base <= 0 {
		t.Fatalf("expected positive distance for different shapes, got %v", base)
	}

	tests := []struct {
		name             string
		theta, k, dx, dy float64
		moveReference    bool
	}{
		{name: "translate candidate", k: 1, dx: 12, dy: -4},
		{name: "scale candidate", k: 7.5},
		{name: "rotate candidate", theta: 1.1, k: 1},
		{name: "all on candidate", theta: -2.4, k: 0.2, dx: 3, dy: 9},
		{name: "all on reference", theta: 0.7, k: 3, dx: -5, dy: 1, moveReference: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, c := ref, cand
			if tt.moveReference {
				r = r.Transform(tt.theta, tt.k, tt.dx, tt.dy)
			} else {
				c = c.Transform(tt.theta, tt.k, tt.dx, tt.dy)
			}
			got, err := procrustes.Align(r, c)
			if err != nil {
				t.Fatalf("Align returned error: %v", err)
			}
			if math.Abs(got-base) > 1e-9 {
				t.Fatalf("distance %v differs from base %v", got, base)
			}
		})
	}
}

func TestAlignNearlySymmetric(t *testing.T) {
	a := testsupport.Arc(30, 0.8)
	b := testsupport.Wave(30, 0.5)
	ab, err := procrustes.Align(a, b)
	if err != nil {
		t.Fatalf("Align returned error: %v", err)
	}
	ba, err := procrustes.Align(b, a)
	if err != nil {
		t.Fatalf("Align returned error: %v", err)
	}
	if math.Abs(ab-ba) > 1e-9 {
		t.Fatalf("Align(a,b)=%v Align(b,a)=%v", ab, ba)
	}
}

func TestAlignDoesNotCorrectReflection(t *testing.T) {
	s := testsupport.Wave(30, 0.5)
	mirrored := make(shape.Shape, len(s))
	for i, p := range s {
		mirrored[i] = shape.Pt(-p.X, p.Y)
	}
	d, err := procrustes.Align(s, mirrored)
	if err != nil {
		t.Fatalf("Align returned error: %v", err)
	}
	if d < 1e-3 {
		t.Fatalf("mirrored distance %v should be clearly positive", d)
	}
}

func TestAlignDegenerateShapePropagatesNaN(t *testing.T) {
	ref := testsupport.Arc(10, 1)
	flat := make(shape.Shape, 10)
	for i := range flat {
		flat[i] = shape.Pt(2, 2)
	}
	d, err := procrustes.Align(ref, flat)
	if err != nil {
		t.Fatalf("Align returned error: %v", err)
	}
	if !math.IsNaN(d) {
		t.Fatalf("distance = %v, want NaN", d)
	}
}

func TestAlignRejectsLengthMismatch(t *testing.T) {
	_, err := procrustes.Align(testsupport.Arc(10, 1), testsupport.Arc(11, 1))
	if !errors.Is(err, shape.ErrLengthMismatch) {
		t.Fatalf("error = %v, want ErrLengthMismatch", err)
	}
}

func TestSuperimposeRecoversRotation(t *testing.T) {
	ref := testsupport.Wave(25, 0.4)
	rotated := ref.Transform(-0.6, 1, 0, 0)
	res, err := procrustes.Superimpose(ref, rotated)
	if err != nil {
		t.Fatalf("Superimpose returned error: %v", err)
	}
	if math.Abs(res.Theta-0.6) > 1e-9 {
		t.Fatalf("theta = %v, want 0.6", res.Theta)
	}
	if res.Distance > tolerance {
		t.Fatalf("distance = %v, want 0", res.Distance)
	}
}
