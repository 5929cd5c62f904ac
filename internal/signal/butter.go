package signal

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
)

// ErrInvalidFilter is returned for unusable filter design parameters.
var ErrInvalidFilter = errors.New("invalid filter parameters")

// Butter designs a digital low-pass Butterworth filter and returns its
// transfer function coefficients, numerator b and denominator a, both of
// length order+1 with a[0] == 1. cutoff is normalized so that 1 is the
// Nyquist frequency.
func Butter(order int, cutoff float64) (b, a []float64, err error) {
	if order < 1 {
		return nil, nil, fmt.Errorf("%w: order %d must be positive", ErrInvalidFilter, order)
	}
	if !(cutoff > 0 && cutoff < 1) {
		return nil, nil, fmt.Errorf("%w: cutoff %g must lie in (0, 1)", ErrInvalidFilter, cutoff)
	}

	// Analog prototype poles on the left half of the unit circle.
	poles := make([]complex128, order)
	for i := range poles {
		m := float64(-order + 1 + 2*i)
		poles[i] = -cmplx.Exp(complex(0, math.Pi*m/float64(2*order)))
	}

	// Pre-warp the cutoff for the bilinear transform with fs = 2.
	const fs = 2.0
	warped := 2 * fs * math.Tan(math.Pi*cutoff/fs)
	gain := math.Pow(warped, float64(order))
	for i := range poles {
		poles[i] *= complex(warped, 0)
	}

	const fs2 = 2 * fs
	digitalPoles := make([]complex128, order)
	denom := complex(1, 0)
	for i, p := range poles {
		digitalPoles[i] = (fs2 + p) / (fs2 - p)
		denom *= fs2 - p
	}
	zeros := make([]complex128, order)
	for i := range zeros {
		zeros[i] = -1
	}
	gain *= real(1 / denom)

	bc := poly(zeros)
	ac := poly(digitalPoles)
	b = make([]float64, len(bc))
	a = make([]float64, len(ac))
	for i := range bc {
		b[i] = gain * real(bc[i])
	}
	for i := range ac {
		a[i] = real(ac[i])
	}
	return b, a, nil
}

// poly expands prod(x - r) over roots into coefficients, highest degree first.
func poly(roots []complex128) []complex128 {
	coeffs := make([]complex128, 1, len(roots)+1)
	coeffs[0] = 1
	for _, r := range roots {
		next := make([]complex128, len(coeffs)+1)
		copy(next, coeffs)
		for i := 1; i < len(next); i++ {
			next[i] -= r * coeffs[i-1]
		}
		coeffs = next
	}
	return coeffs
}
