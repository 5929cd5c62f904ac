package report_test

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofrs/flock"
	"github.com/google/go-cmp/cmp"

	"tshape/internal/batch"
	"tshape/internal/report"
	"tshape/internal/spectrum"
)

func sampleRows() []batch.Row {
	return []batch.Row{
		{
			Subject: "P1", Symbol: "TT", Repetition: 1,
			MCI: 2.5, Procrustes: 0.125, HasRest: true,
			Harmonics: [spectrum.ReportedHarmonics]spectrum.Harmonic{
				{Real: 1, Imag: -1, Mod: math.Sqrt2},
				{Real: 0.5, Imag: 0, Mod: 0.5},
				{Real: 0, Imag: 0.25, Mod: 0.25},
			},
		},
		{Subject: "P2", Symbol: "KK", Repetition: 0, MCI: math.NaN()},
	}
}

func TestWriteAllLayout(t *testing.T) {
	var buf bytes.Buffer
	if err := report.NewWriter(&buf).WriteAll(sampleRows()); err != nil {
		t.Fatalf("WriteAll returned error: %v", err)
	}
	want := strings.Join([]string{
		"ID,symbol,repetition,MCI,procrustes,real_1,imag_1,mod_1,real_2,imag_2,mod_2,real_3,imag_3,mod_3",
		"P1,TT,1,2.5,0.125,1.0,-1.0,1.4142135623730951,0.5,0.0,0.5,0.0,0.25,0.25",
		"P2,KK,0,nan,0,0.0,0.0,0.0,0.0,0.0,0.0,0.0,0.0,0.0",
		"",
	}, "\n")
	if d := cmp.Diff(want, buf.String()); d != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", d)
	}
}

func TestRecordNumberFormatting(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want string
	}{
		{name: "whole", in: 3, want: "3.0"},
		{name: "negative zero", in: math.Copysign(0, -1), want: "-0.0"},
		{name: "fraction", in: 0.1, want: "0.1"},
		{name: "small positional", in: 0.0001, want: "0.0001"},
		{name: "small exponent", in: 2.5e-05, want: "2.5e-05"},
		{name: "large positional", in: 1e15, want: "1000000000000000.0"},
		{name: "large exponent", in: 1e16, want: "1e+16"},
		{name: "nan", in: math.NaN(), want: "nan"},
		{name: "positive infinity", in: math.Inf(1), want: "inf"},
		{name: "negative infinity", in: math.Inf(-1), want: "-inf"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := report.Record(batch.Row{Subject: "P1", Symbol: "TT", MCI: tc.in, Procrustes: tc.in, HasRest: true})
			if rec[3] != tc.want || rec[4] != tc.want {
				t.Fatalf("formatted %v as MCI %q procrustes %q, want %q", tc.in, rec[3], rec[4], tc.want)
			}
		})
	}
}

func TestRecordWithoutRestWritesIntegerSentinel(t *testing.T) {
	rec := report.Record(batch.Row{Subject: "P1", Symbol: "TT", MCI: 1.5})
	if rec[4] != "0" {
		t.Fatalf("procrustes cell = %q, want 0", rec[4])
	}
}

func TestWriteEmitsHeaderOnce(t *testing.T) {
	var buf bytes.Buffer
	w := report.NewWriter(&buf)
	for _, row := range sampleRows() {
		if err := w.Write(row); err != nil {
			t.Fatalf("Write returned error: %v", err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush returned error: %v", err)
	}
	if got := strings.Count(buf.String(), "ID,symbol"); got != 1 {
		t.Fatalf("header written %d times", got)
	}
}

func TestWriteAllEmptyStillHasHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := report.NewWriter(&buf).WriteAll(nil); err != nil {
		t.Fatalf("WriteAll returned error: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != strings.Join(report.Header, ",") {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestWriteFileReplacesOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "shape_analysis_data_out.csv")
	if err := report.WriteFile(path, sampleRows()[:1]); err != nil {
		t.Fatalf("first WriteFile returned error: %v", err)
	}
	if err := report.WriteFile(path, sampleRows()); err != nil {
		t.Fatalf("second WriteFile returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if lines := strings.Count(string(data), "\n"); lines != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", lines, data)
	}
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			t.Fatalf("temporary file %s left behind", e.Name())
		}
	}
}

func TestWriteFileFailsWhileLocked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	held := flock.New(path + ".lock")
	ok, err := held.TryLock()
	if err != nil || !ok {
		t.Fatalf("TryLock = %v, %v", ok, err)
	}
	t.Cleanup(func() { _ = held.Unlock() })

	err = report.WriteFile(path, sampleRows())
	if !errors.Is(err, report.ErrOutputLocked) {
		t.Fatalf("WriteFile error = %v, want ErrOutputLocked", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Fatalf("output should not exist, stat err = %v", statErr)
	}
}
