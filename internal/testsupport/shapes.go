package testsupport

import (
	"math"

	"tshape/internal/shape"
)

// Arc samples n points along a unit-radius circular arc sweeping the given
// angle counter-clockwise from (1, 0).
func Arc(n int, sweep float64) shape.Shape {
	out := make(shape.Shape, n)
	for i := range out {
		t := sweep * float64(i) / float64(n-1)
		out[i] = shape.Pt(math.Cos(t), math.Sin(t))
	}
	return out
}

// Wave samples one period of a sine wave of the given amplitude over x in [0, 1].
func Wave(n int, amplitude float64) shape.Shape {
	out := make(shape.Shape, n)
	for i := range out {
		x := float64(i) / float64(n-1)
		out[i] = shape.Pt(x, amplitude*math.Sin(2*math.Pi*x))
	}
	return out
}

// Line samples n evenly spaced points along the positive x axis.
func Line(n int) shape.Shape {
	out := make(shape.Shape, n)
	for i := range out {
		out[i] = shape.Pt(float64(i), 0)
	}
	return out
}

// Table lays shapes out side by side as x/y column pairs. All shapes must
// have the same length.
func Table(shapes ...shape.Shape) shape.Table {
	if len(shapes) == 0 {
		return shape.Table{}
	}
	table := make(shape.Table, len(shapes[0]))
	for i := range table {
		row := make([]float64, 0, 2*len(shapes))
		for _, s := range shapes {
			row = append(row, s[i].X, s[i].Y)
		}
		table[i] = row
	}
	return table
}

// WithNaN returns a copy of s whose point i has a NaN x coordinate.
func WithNaN(s shape.Shape, i int) shape.Shape {
	out := make(shape.Shape, len(s))
	copy(out, s)
	out[i].X = math.NaN()
	return out
}
