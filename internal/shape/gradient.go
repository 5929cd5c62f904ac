package shape

// Gradient returns the numerical derivative of f with unit sample spacing.
// Interior samples use central differences and the two endpoints use one-sided
// first differences, so the result is co-indexed with f.
func Gradient(f []float64) []float64 {
	n := len(f)
	out := make([]float64, n)
	switch n {
	case 0:
		return out
	case 1:
		return out
	}
	out[0] = f[1] - f[0]
	out[n-1] = f[n-1] - f[n-2]
	for i := 1; i < n-1; i++ {
		out[i] = (f[i+1] - f[i-1]) / 2
	}
	return out
}

// Derivatives returns the first derivative of the x and y sequences of s.
func (s Shape) Derivatives() (dx, dy []float64) {
	xs, ys := s.XY()
	return Gradient(xs), Gradient(ys)
}
