package spectrum_test

import (
	"math"
	"testing"

	"tshape/internal/shape"
	"tshape/internal/spectrum"
	"tshape/internal/testsupport"
)

func TestTangentBinCount(t *testing.T) {
	for _, n := range []int{4, 5, 50, 51} {
		sp := spectrum.Tangent(testsupport.Wave(n, 0.3))
		if got, want := sp.Bins(), n/2+1; got != want {
			t.Fatalf("n=%d bins = %d, want %d", n, got, want)
		}
	}
}

func TestTangentDCIsSumOfAngles(t *testing.T) {
	s := testsupport.Wave(40, 0.6)
	angles := spectrum.TangentAngles(s)
	var sum float64
	for _, a := range angles {
		sum += a
	}
	sp := spectrum.Tangent(s)
	if math.Abs(sp.Real[0]-sum) > 1e-9 || math.Abs(sp.Imag[0]) > 1e-9 {
		t.Fatalf("DC bin = %v%+vi, want %v", sp.Real[0], sp.Imag[0], sum)
	}
	if math.Abs(sp.Mod[0]-math.Abs(sum)) > 1e-9 {
		t.Fatalf("DC magnitude = %v, want %v", sp.Mod[0], math.Abs(sum))
	}
}

func TestTangentParseval(t *testing.T) {
	for _, n := range []int{32, 33} {
		s := testsupport.Wave(n, 0.8)
		angles := spectrum.TangentAngles(s)
		var timeEnergy float64
		for _, a := range angles {
			timeEnergy += a * a
		}

		sp := spectrum.Tangent(s)
		freqEnergy := sp.Mod[0] * sp.Mod[0]
		for k := 1; k < sp.Bins(); k++ {
			weight := 2.0
			if n%2 == 0 && k == sp.Bins()-1 {
				weight = 1
			}
			freqEnergy += weight * sp.Mod[k] * sp.Mod[k]
		}
		freqEnergy /= float64(n)

		if math.Abs(timeEnergy-freqEnergy) > 1e-9*timeEnergy {
			t.Fatalf("n=%d time energy %v, frequency energy %v", n, timeEnergy, freqEnergy)
		}
	}
}

func TestStraightLineHasOnlyDC(t *testing.T) {
	s := testsupport.Line(16).Transform(math.Pi/6, 1, 0, 0)
	sp := spectrum.Tangent(s)
	if math.Abs(sp.Real[0]-16*math.Pi/6) > 1e-9 {
		t.Fatalf("DC = %v, want %v", sp.Real[0], 16*math.Pi/6)
	}
	for k := 1; k < sp.Bins(); k++ {
		if sp.Mod[k] > 1e-9 {
			t.Fatalf("bin %d magnitude = %v, want 0", k, sp.Mod[k])
		}
	}
}

func TestLeadingHarmonics(t *testing.T) {
	sp := spectrum.Tangent(testsupport.Wave(20, 0.5))
	lead, err := sp.Leading()
	if err != nil {
		t.Fatalf("Leading returned error: %v", err)
	}
	for i, h := range lead {
		want, _ := sp.Harmonic(i + 1)
		if h != want {
			t.Fatalf("harmonic %d = %+v, want %+v", i+1, h, want)
		}
		if math.Abs(math.Hypot(h.Real, h.Imag)-h.Mod) > 1e-12 {
			t.Fatalf("harmonic %d modulus inconsistent: %+v", i+1, h)
		}
	}

	short := spectrum.Tangent(shape.Shape{shape.Pt(0, 0), shape.Pt(1, 1), shape.Pt(2, 0), shape.Pt(3, 1)})
	if _, err := short.Leading(); err == nil {
		t.Fatal("expected error when fewer than three harmonics are available")
	}
}
