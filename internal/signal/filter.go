package signal

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// normalize pads b and a to a common length and scales both by a[0].
func normalize(b, a []float64) (nb, na []float64, err error) {
	if len(a) == 0 || a[0] == 0 {
		return nil, nil, fmt.Errorf("%w: leading denominator coefficient must be non-zero", ErrInvalidFilter)
	}
	if len(b) == 0 {
		return nil, nil, fmt.Errorf("%w: empty numerator", ErrInvalidFilter)
	}
	n := max(len(a), len(b))
	nb = make([]float64, n)
	na = make([]float64, n)
	for i, v := range b {
		nb[i] = v / a[0]
	}
	for i, v := range a {
		na[i] = v / a[0]
	}
	return nb, na, nil
}

// LFilter runs x through the IIR filter (b, a) in direct form II transposed.
// zi holds the initial delay-line state and may be nil for a zero state; the
// final state is returned alongside the output.
func LFilter(b, a, x, zi []float64) (y, zf []float64, err error) {
	b, a, err = normalize(b, a)
	if err != nil {
		return nil, nil, err
	}
	order := len(a) - 1
	z := make([]float64, order)
	if zi != nil {
		if len(zi) != order {
			return nil, nil, fmt.Errorf("%w: initial state has %d values, filter needs %d", ErrInvalidFilter, len(zi), order)
		}
		copy(z, zi)
	}

	y = make([]float64, len(x))
	for n, xn := range x {
		if order == 0 {
			y[n] = b[0] * xn
			continue
		}
		yn := b[0]*xn + z[0]
		for i := 0; i < order-1; i++ {
			z[i] = b[i+1]*xn + z[i+1] - a[i+1]*yn
		}
		z[order-1] = b[order]*xn - a[order]*yn
		y[n] = yn
	}
	return y, z, nil
}

// LFilterZI returns the delay-line state for which a unit step input produces
// a unit-scaled steady-state output from the first sample on.
func LFilterZI(b, a []float64) ([]float64, error) {
	b, a, err := normalize(b, a)
	if err != nil {
		return nil, err
	}
	m := len(a) - 1
	if m == 0 {
		return []float64{}, nil
	}

	// I - companion(a)^T
	lhs := mat.NewDense(m, m, nil)
	for i := 0; i < m; i++ {
		lhs.Set(i, i, 1)
		lhs.Set(i, 0, lhs.At(i, 0)+a[i+1])
		if i+1 < m {
			lhs.Set(i, i+1, -1)
		}
	}
	rhs := mat.NewVecDense(m, nil)
	for i := 0; i < m; i++ {
		rhs.SetVec(i, b[i+1]-a[i+1]*b[0])
	}

	var zi mat.VecDense
	if err := zi.SolveVec(lhs, rhs); err != nil {
		return nil, fmt.Errorf("solve initial filter state: %w", err)
	}
	out := make([]float64, m)
	for i := range out {
		out[i] = zi.AtVec(i)
	}
	return out, nil
}

// FiltFilt applies the filter forward and then backward so the result has
// zero phase distortion. The input is extended at both ends by an odd
// reflection of 3*max(len(a), len(b)) samples (fewer when x is too short) to
// tame start-up transients, and each pass starts from the steady state scaled
// to its first sample.
func FiltFilt(b, a, x []float64) ([]float64, error) {
	if len(x) == 0 {
		return []float64{}, nil
	}
	edge := 3 * max(len(a), len(b))
	edge = min(edge, len(x)-1)

	zi, err := LFilterZI(b, a)
	if err != nil {
		return nil, err
	}
	ext := oddExtend(x, edge)

	forward, _, err := LFilter(b, a, ext, scaled(zi, ext[0]))
	if err != nil {
		return nil, err
	}
	slices.Reverse(forward)
	backward, _, err := LFilter(b, a, forward, scaled(zi, forward[0]))
	if err != nil {
		return nil, err
	}
	slices.Reverse(backward)
	return backward[edge : len(backward)-edge], nil
}

// oddExtend reflects x about each endpoint value, adding n samples per side.
func oddExtend(x []float64, n int) []float64 {
	last := len(x) - 1
	out := make([]float64, 0, len(x)+2*n)
	for i := n; i >= 1; i-- {
		out = append(out, 2*x[0]-x[i])
	}
	out = append(out, x...)
	for i := 1; i <= n; i++ {
		out = append(out, 2*x[last]-x[last-i])
	}
	return out
}

func scaled(v []float64, k float64) []float64 {
	return floats.ScaleTo(make([]float64, len(v)), k, v)
}
