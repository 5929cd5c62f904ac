package shape

import (
	"errors"
	"fmt"
)

// ErrRaggedTable is returned when table rows differ in width.
var ErrRaggedTable = errors.New("table rows differ in width")

// Table is a row-major numeric table: rows are contour points, and each pair
// of adjacent columns holds one repetition's x and y coordinates.
type Table [][]float64

// Rows returns the number of contour points.
func (t Table) Rows() int {
	return len(t)
}

// Columns returns the table width, taken from the first row.
func (t Table) Columns() int {
	if len(t) == 0 {
		return 0
	}
	return len(t[0])
}

// Check verifies that every row has the same width.
func (t Table) Check() error {
	width := t.Columns()
	for i, row := range t {
		if len(row) != width {
			return fmt.Errorf("%w: row %d has %d columns, expected %d", ErrRaggedTable, i, len(row), width)
		}
	}
	return nil
}

// Repetitions returns how many complete x/y column pairs the table holds.
func (t Table) Repetitions() int {
	return t.Columns() / 2
}

// Repetition extracts the shape stored in columns 2*rep and 2*rep+1.
func (t Table) Repetition(rep int) (Shape, error) {
	if rep < 0 || rep >= t.Repetitions() {
		return nil, fmt.Errorf("repetition %d out of range [0, %d)", rep, t.Repetitions())
	}
	j := 2 * rep
	out := make(Shape, len(t))
	for i, row := range t {
		if len(row) <= j+1 {
			return nil, fmt.Errorf("%w: row %d has %d columns", ErrRaggedTable, i, len(row))
		}
		out[i] = Point{X: row[j], Y: row[j+1]}
	}
	return out, nil
}
