package spectrum

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"

	"tshape/internal/shape"
)

// ReportedHarmonics is the number of non-DC bins carried into analysis rows.
const ReportedHarmonics = 3

// Spectrum is the half spectrum of a real sequence, one entry per bin from DC
// up to floor(N/2).
type Spectrum struct {
	Real []float64
	Imag []float64
	Mod  []float64
}

// Harmonic is a single spectral bin.
type Harmonic struct {
	Real float64
	Imag float64
	Mod  float64
}

// Bins returns the number of frequency bins.
func (s Spectrum) Bins() int {
	return len(s.Real)
}

// Harmonic returns bin k.
func (s Spectrum) Harmonic(k int) (Harmonic, error) {
	if k < 0 || k >= s.Bins() {
		return Harmonic{}, fmt.Errorf("spectrum: bin %d out of range [0, %d)", k, s.Bins())
	}
	return Harmonic{Real: s.Real[k], Imag: s.Imag[k], Mod: s.Mod[k]}, nil
}

// Leading returns bins 1 through ReportedHarmonics.
func (s Spectrum) Leading() ([ReportedHarmonics]Harmonic, error) {
	var out [ReportedHarmonics]Harmonic
	for i := range out {
		h, err := s.Harmonic(i + 1)
		if err != nil {
			return out, err
		}
		out[i] = h
	}
	return out, nil
}

// TangentAngles returns atan2(dy, dx) at each point of s.
func TangentAngles(s shape.Shape) []float64 {
	dx, dy := s.Derivatives()
	out := make([]float64, len(s))
	for i := range out {
		out[i] = math.Atan2(dy[i], dx[i])
	}
	return out
}

// Tangent returns the real FFT of the tangent-angle sequence of s.
func Tangent(s shape.Shape) Spectrum {
	angles := TangentAngles(s)
	if len(angles) == 0 {
		return Spectrum{}
	}
	coeffs := fourier.NewFFT(len(angles)).Coefficients(nil, angles)

	out := Spectrum{
		Real: make([]float64, len(coeffs)),
		Imag: make([]float64, len(coeffs)),
		Mod:  make([]float64, len(coeffs)),
	}
	for i, c := range coeffs {
		out.Real[i] = real(c)
		out.Imag[i] = imag(c)
		out.Mod[i] = cmplx.Abs(c)
	}
	return out
}
