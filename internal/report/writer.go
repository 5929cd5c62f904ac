package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofrs/flock"

	"tshape/internal/batch"
)

// Header is the column layout of the output table.
var Header = []string{
	"ID", "symbol", "repetition", "MCI", "procrustes",
	"real_1", "imag_1", "mod_1",
	"real_2", "imag_2", "mod_2",
	"real_3", "imag_3", "mod_3",
}

// ErrOutputLocked is returned when another process holds the output file lock.
var ErrOutputLocked = errors.New("output file is locked by another run")

// Writer emits rows in the output layout.
type Writer struct {
	csv         *csv.Writer
	wroteHeader bool
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// Write appends one row, emitting the header first if it has not been written.
func (w *Writer) Write(row batch.Row) error {
	if err := w.header(); err != nil {
		return err
	}
	return w.csv.Write(Record(row))
}

// WriteAll writes the header followed by rows and flushes.
func (w *Writer) WriteAll(rows []batch.Row) error {
	if err := w.header(); err != nil {
		return err
	}
	for _, row := range rows {
		if err := w.csv.Write(Record(row)); err != nil {
			return fmt.Errorf("write row %s/%s/%d: %w", row.Subject, row.Symbol, row.Repetition, err)
		}
	}
	return w.Flush()
}

func (w *Writer) header() error {
	if w.wroteHeader {
		return nil
	}
	if err := w.csv.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	w.wroteHeader = true
	return nil
}

// Flush writes buffered data to the underlying writer.
func (w *Writer) Flush() error {
	w.csv.Flush()
	return w.csv.Error()
}

// Record formats row as output cells in Header order. Without a rest shape
// the procrustes cell holds the integer sentinel 0.
func Record(row batch.Row) []string {
	proc := "0"
	if row.HasRest {
		proc = formatFloat(row.Procrustes)
	}
	out := make([]string, 0, len(Header))
	out = append(out,
		row.Subject,
		row.Symbol,
		strconv.Itoa(row.Repetition),
		formatFloat(row.MCI),
		proc,
	)
	for _, h := range row.Harmonics {
		out = append(out, formatFloat(h.Real), formatFloat(h.Imag), formatFloat(h.Mod))
	}
	return out
}

// formatFloat writes the shortest round-tripping form of v. Magnitudes with a
// decimal exponent in [-4, 16) are written positionally and always carry a
// fractional part ("3.0", "1000000000000000.0"); others use exponent form
// ("1e+16", "2.5e-05"). Non-finite values are "nan", "inf" and "-inf".
func formatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	sci := strconv.FormatFloat(v, 'e', -1, 64)
	exp, err := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	if err != nil || exp < -4 || exp >= 16 {
		return sci
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// WriteFile replaces path with the table for rows. An exclusive lock on
// path+".lock" is held for the duration so concurrent runs targeting the same
// output fail fast instead of interleaving. The table is written to a
// temporary file in the same directory and renamed into place.
func WriteFile(path string, rows []batch.Row) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure output directory: %w", err)
	}

	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire output lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrOutputLocked, path)
	}
	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil && err == nil {
			err = fmt.Errorf("release output lock: %w", unlockErr)
		}
	}()

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp output: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if err := NewWriter(tmp).WriteAll(rows); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp output: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod output: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace output: %w", err)
	}
	return nil
}
