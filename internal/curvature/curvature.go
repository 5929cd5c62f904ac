package curvature

import (
	"fmt"
	"math"
	"slices"

	"tshape/internal/shape"
	"tshape/internal/signal"
)

const (
	// DefaultOrder is the Butterworth order used for smoothing.
	DefaultOrder = 5
	// DefaultCutoff is the smoothing cutoff as a fraction of Nyquist.
	DefaultCutoff = 0.25
)

// Analyzer computes curvature indices with a fixed smoothing filter.
type Analyzer struct {
	b []float64
	a []float64
}

// New designs the smoothing filter for the given order and cutoff.
func New(order int, cutoff float64) (*Analyzer, error) {
	b, a, err := signal.Butter(order, cutoff)
	if err != nil {
		return nil, fmt.Errorf("curvature smoothing filter: %w", err)
	}
	return &Analyzer{b: b, a: a}, nil
}

// Default returns an analyzer using DefaultOrder and DefaultCutoff.
func Default() *Analyzer {
	an, err := New(DefaultOrder, DefaultCutoff)
	if err != nil {
		panic(err)
	}
	return an
}

// Index returns the integral of absolute smoothed curvature over arc length.
func (an *Analyzer) Index(s shape.Shape) (float64, error) {
	kappa := Signed(s)
	smoothed, err := an.Smooth(kappa)
	if err != nil {
		return 0, err
	}
	for i, v := range smoothed {
		smoothed[i] = math.Abs(v)
	}
	return signal.Simpson(smoothed, ArcLength(s)), nil
}

// Smooth low-pass filters kappa with zero phase. The sequence is padded with
// a reversed copy of itself on each side before filtering and the padding is
// discarded afterwards.
func (an *Analyzer) Smooth(kappa []float64) ([]float64, error) {
	n := len(kappa)
	rev := slices.Clone(kappa)
	slices.Reverse(rev)

	padded := make([]float64, 0, 3*n)
	padded = append(padded, rev...)
	padded = append(padded, kappa...)
	padded = append(padded, rev...)

	filtered, err := signal.FiltFilt(an.b, an.a, padded)
	if err != nil {
		return nil, fmt.Errorf("smooth curvature: %w", err)
	}
	return slices.Clone(filtered[n : 2*n]), nil
}

// Signed returns the signed curvature at each point of s,
// (x'y'' - y'x'') / (x'^2 + y'^2)^1.5.
func Signed(s shape.Shape) []float64 {
	dx, dy := s.Derivatives()
	ddx := shape.Gradient(dx)
	ddy := shape.Gradient(dy)
	out := make([]float64, len(s))
	for i := range out {
		speed := dx[i]*dx[i] + dy[i]*dy[i]
		out[i] = (dx[i]*ddy[i] - dy[i]*ddx[i]) / math.Pow(speed, 1.5)
	}
	return out
}

// ArcLength returns the cumulative distance along s, starting at 0 for the
// first point.
func ArcLength(s shape.Shape) []float64 {
	out := make([]float64, len(s))
	for i := 1; i < len(s); i++ {
		dx := s[i].X - s[i-1].X
		dy := s[i].Y - s[i-1].Y
		out[i] = out[i-1] + math.Sqrt(dx*dx+dy*dy)
	}
	return out
}
