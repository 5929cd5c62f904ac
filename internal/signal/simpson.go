package signal

import (
	"math"

	"gonum.org/v1/gonum/integrate"
)

// Simpson integrates samples y taken at the non-decreasing abscissae x with
// the composite Simpson rule for irregular spacing. With an even number of
// samples the rule cannot cover every interval, so the result averages
// Simpson-over-all-but-last plus a trapezoid on the last interval with a
// trapezoid on the first interval plus Simpson over the rest.
//
// Non-finite abscissae yield NaN; coincident neighbouring abscissae inside a
// Simpson panel produce non-finite results rather than an error.
func Simpson(y, x []float64) float64 {
	n := len(y)
	if n != len(x) {
		panic("signal: Simpson slice length mismatch")
	}
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return math.NaN()
		}
	}
	switch {
	case n < 2:
		return 0
	case n == 2:
		return integrate.Trapezoidal(x, y)
	case n%2 == 1:
		return simpsonPanels(y, x, 0, n-1)
	}

	lastTrap := integrate.Trapezoidal(x[n-2:], y[n-2:])
	firstTrap := integrate.Trapezoidal(x[:2], y[:2])
	panels := simpsonPanels(y, x, 0, n-2) + simpsonPanels(y, x, 1, n-1)
	return (panels + lastTrap + firstTrap) / 2
}

// simpsonPanels sums Simpson panels (i, i+1, i+2) for i = start, start+2, ...
// while i+2 <= end.
func simpsonPanels(y, x []float64, start, end int) float64 {
	var total float64
	for i := start; i+2 <= end; i += 2 {
		h0 := x[i+1] - x[i]
		h1 := x[i+2] - x[i+1]
		hsum := h0 + h1
		hprod := h0 * h1
		ratio := h0 / h1
		total += hsum / 6 * (y[i]*(2-1/ratio) + y[i+1]*hsum*hsum/hprod + y[i+2]*(2-ratio))
	}
	return total
}
