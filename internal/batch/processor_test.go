package batch_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"tshape/internal/batch"
	"tshape/internal/curvature"
	"tshape/internal/logging"
	"tshape/internal/procrustes"
	"tshape/internal/shape"
	"tshape/internal/testsupport"
)

func newProcessor(loader batch.Loader) *batch.Processor {
	return &batch.Processor{Loader: loader, Logger: logging.NewNop()}
}

func rowsFor(rows []batch.Row, subject string) []batch.Row {
	var out []batch.Row
	for _, r := range rows {
		if r.Subject == subject {
			out = append(out, r)
		}
	}
	return out
}

func TestRunRestPairedWithCleanRepetition(t *testing.T) {
	loader := testsupport.NewMemoryLoader()
	rest := testsupport.Arc(50, 1.0)
	clean := testsupport.Wave(50, 0.3)
	loader.Add("P1", "rest", testsupport.Table(rest))
	loader.Add("P1", "TT", testsupport.Table(testsupport.WithNaN(testsupport.Arc(50, 2), 7), clean))

	res, err := newProcessor(loader).Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(res.Rows) != 1 {
		t.Fatalf("got %d rows, want 1: %+v", len(res.Rows), res.Rows)
	}
	row := res.Rows[0]
	if row.Subject != "P1" || row.Symbol != "TT" || row.Repetition != 1 {
		t.Fatalf("unexpected row identity: %+v", row)
	}
	want, err := procrustes.Align(rest, clean)
	if err != nil {
		t.Fatalf("Align returned error: %v", err)
	}
	if !row.HasRest || row.Procrustes != want {
		t.Fatalf("procrustes = %v (has rest %v), want %v", row.Procrustes, row.HasRest, want)
	}
	mci, err := curvature.Default().Index(clean)
	if err != nil {
		t.Fatalf("Index returned error: %v", err)
	}
	if row.MCI != mci {
		t.Fatalf("MCI = %v, want %v", row.MCI, mci)
	}
	if res.Skipped != 1 {
		t.Fatalf("skipped = %d, want 1", res.Skipped)
	}
	if len(res.NoRest) != 0 || len(res.Failures) != 0 {
		t.Fatalf("unexpected no-rest %v or failures %v", res.NoRest, res.Failures)
	}
}

func TestRunWithoutRestUsesZeroSentinel(t *testing.T) {
	loader := testsupport.NewMemoryLoader()
	loader.Add("P2", "TT", testsupport.Table(testsupport.Wave(30, 0.2), testsupport.Wave(30, 0.5)))
	loader.Add("P2", "KK", testsupport.Table(testsupport.Arc(30, 1.5)))

	res, err := newProcessor(loader).Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(res.Rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(res.Rows))
	}
	for _, row := range res.Rows {
		if row.Procrustes != 0 || row.HasRest {
			t.Fatalf("row %+v should carry the no-rest sentinel", row)
		}
	}
	if d := cmp.Diff([]string{"P2"}, res.NoRest); d != "" {
		t.Fatalf("no-rest subjects mismatch (-want +got):\n%s", d)
	}
}

func TestRunOddColumnsAbortsOnlyThatSubject(t *testing.T) {
	loader := testsupport.NewMemoryLoader()
	bad := testsupport.Table(testsupport.Wave(20, 0.3))
	for i := range bad {
		bad[i] = append(bad[i], 1)
	}
	loader.Add("P3", "AA", testsupport.Table(testsupport.Wave(20, 0.1)))
	loader.Add("P3", "TT", bad)
	loader.Add("P4", "TT", testsupport.Table(testsupport.Wave(20, 0.3)))

	res, err := newProcessor(loader).Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got := rowsFor(res.Rows, "P3"); len(got) != 0 {
		t.Fatalf("P3 contributed %d rows, want 0", len(got))
	}
	if got := rowsFor(res.Rows, "P4"); len(got) != 1 {
		t.Fatalf("P4 contributed %d rows, want 1", len(got))
	}
	if len(res.Failures) != 1 || res.Failures[0].Subject != "P3" {
		t.Fatalf("unexpected failures: %+v", res.Failures)
	}
	var formatErr *batch.FormatError
	if !errors.As(res.Failures[0].Err, &formatErr) {
		t.Fatalf("failure %v is not a FormatError", res.Failures[0].Err)
	}
	if !errors.Is(formatErr, batch.ErrOddColumns) || formatErr.Source != "P3_TT.csv" {
		t.Fatalf("unexpected format error: %v", formatErr)
	}
	if formatErr.ErrorKind() != "format" {
		t.Fatalf("ErrorKind = %q", formatErr.ErrorKind())
	}
}

func TestRunStrictReturnsFormatError(t *testing.T) {
	loader := testsupport.NewMemoryLoader()
	loader.Add("P5", "rest", testsupport.Table(testsupport.Arc(20, 1), testsupport.Arc(20, 2)))
	loader.Add("P5", "TT", testsupport.Table(testsupport.Wave(20, 0.3)))
	loader.Add("P6", "TT", testsupport.Table(testsupport.Wave(20, 0.3)))

	p := newProcessor(loader)
	p.Strict = true
	_, err := p.Run(context.Background())
	if !errors.Is(err, batch.ErrRestColumns) {
		t.Fatalf("Run error = %v, want ErrRestColumns", err)
	}
}

func TestRunFullyNaNRepetitionIsSkipped(t *testing.T) {
	loader := testsupport.NewMemoryLoader()
	nanShape := make(shape.Shape, 25)
	for i := range nanShape {
		nanShape[i] = shape.Pt(math.NaN(), math.NaN())
	}
	loader.Add("P7", "SS", testsupport.Table(nanShape))
	loader.Add("P7", "TT", testsupport.Table(testsupport.Wave(25, 0.4), nanShape, testsupport.Arc(25, 1)))

	res, err := newProcessor(loader).Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if res.Skipped != 2 {
		t.Fatalf("skipped = %d, want 2", res.Skipped)
	}
	var reps []int
	for _, row := range res.Rows {
		if row.Symbol == "SS" {
			t.Fatalf("fully NaN record produced row %+v", row)
		}
		reps = append(reps, row.Repetition)
	}
	if d := cmp.Diff([]int{0, 2}, reps); d != "" {
		t.Fatalf("repetition order mismatch (-want +got):\n%s", d)
	}
}

func TestRunRestSymbolProducesNoRows(t *testing.T) {
	loader := testsupport.NewMemoryLoader()
	loader.Add("P8", "rest", testsupport.Table(testsupport.Arc(20, 1)))

	res, err := newProcessor(loader).Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(res.Rows) != 0 || res.Subjects != 1 {
		t.Fatalf("rows=%d subjects=%d, want 0 and 1", len(res.Rows), res.Subjects)
	}
}

func TestRunCustomRestSymbol(t *testing.T) {
	loader := testsupport.NewMemoryLoader()
	loader.Add("P9", "neutral", testsupport.Table(testsupport.Arc(20, 1)))
	loader.Add("P9", "TT", testsupport.Table(testsupport.Arc(20, 1)))

	p := newProcessor(loader)
	p.RestSymbol = "neutral"
	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(res.Rows) != 1 || !res.Rows[0].HasRest || math.Abs(res.Rows[0].Procrustes) > 1e-9 {
		t.Fatalf("unexpected rows: %+v", res.Rows)
	}
}

func TestRunPointCountMismatchIsFormatError(t *testing.T) {
	loader := testsupport.NewMemoryLoader()
	loader.Add("P10", "rest", testsupport.Table(testsupport.Arc(20, 1)))
	loader.Add("P10", "TT", testsupport.Table(testsupport.Arc(21, 1)))

	res, err := newProcessor(loader).Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(res.Failures) != 1 || !errors.Is(res.Failures[0].Err, batch.ErrPointCount) {
		t.Fatalf("unexpected failures: %+v", res.Failures)
	}
}

func TestRunTooFewPointsIsFormatError(t *testing.T) {
	loader := testsupport.NewMemoryLoader()
	loader.Add("P11", "TT", testsupport.Table(testsupport.Arc(5, 1)))

	res, err := newProcessor(loader).Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(res.Failures) != 1 || !errors.Is(res.Failures[0].Err, batch.ErrTooFewPoints) {
		t.Fatalf("unexpected failures: %+v", res.Failures)
	}
}

type duplicateRestLoader struct {
	*testsupport.MemoryLoader
}

func (d duplicateRestLoader) Records(ctx context.Context) ([]batch.Record, error) {
	recs, err := d.MemoryLoader.Records(ctx)
	if err != nil {
		return nil, err
	}
	return append(recs, batch.Record{ID: "P12_rest_copy.csv", Subject: "P12", Symbol: "rest"}), nil
}

func TestRunDuplicateRestIsFormatError(t *testing.T) {
	mem := testsupport.NewMemoryLoader()
	mem.Add("P12", "rest", testsupport.Table(testsupport.Arc(20, 1)))
	mem.Add("P12", "TT", testsupport.Table(testsupport.Arc(20, 1)))
	mem.Add("P13", "TT", testsupport.Table(testsupport.Arc(20, 1)))

	res, err := newProcessor(duplicateRestLoader{mem}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(res.Failures) != 1 || !errors.Is(res.Failures[0].Err, batch.ErrDuplicateRest) {
		t.Fatalf("unexpected failures: %+v", res.Failures)
	}
	if len(rowsFor(res.Rows, "P13")) != 1 {
		t.Fatalf("sibling subject not processed: %+v", res.Rows)
	}
}

func TestRunParallelMatchesSequential(t *testing.T) {
	loader := testsupport.NewMemoryLoader()
	for i, subject := range []string{"S1", "S2", "S3", "S4", "S5"} {
		amp := 0.1 * float64(i+1)
		loader.Add(subject, "rest", testsupport.Table(testsupport.Arc(30, 1)))
		loader.Add(subject, "TT", testsupport.Table(testsupport.Wave(30, amp), testsupport.Wave(30, amp/2)))
		loader.Add(subject, "KK", testsupport.Table(testsupport.Arc(30, amp*3)))
	}

	seq, err := newProcessor(loader).Run(context.Background())
	if err != nil {
		t.Fatalf("sequential Run returned error: %v", err)
	}
	p := newProcessor(loader)
	p.Workers = 3
	par, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("parallel Run returned error: %v", err)
	}
	if len(seq.Rows) != 15 {
		t.Fatalf("got %d rows, want 15", len(seq.Rows))
	}
	if d := cmp.Diff(seq, par, cmpopts.EquateNaNs()); d != "" {
		t.Fatalf("parallel result differs (-seq +par):\n%s", d)
	}
}

func TestRunReadsEachTableOnce(t *testing.T) {
	loader := testsupport.NewMemoryLoader()
	var ids []string
	for _, subject := range []string{"S1", "S2"} {
		ids = append(ids,
			loader.Add(subject, "rest", testsupport.Table(testsupport.Arc(30, 1))),
			loader.Add(subject, "TT", testsupport.Table(testsupport.Wave(30, 0.2), testsupport.Wave(30, 0.3))),
			loader.Add(subject, "KK", testsupport.Table(testsupport.Arc(30, 0.5))),
			loader.Add(subject, "SS", testsupport.Table(testsupport.Wave(30, 0.1))),
		)
	}

	p := newProcessor(loader)
	p.Workers = 2
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	for _, id := range ids {
		if got := loader.Reads(id); got != 1 {
			t.Fatalf("table %s read %d times, want 1", id, got)
		}
	}
}

func TestRunCancelledContext(t *testing.T) {
	loader := testsupport.NewMemoryLoader()
	loader.Add("P1", "TT", testsupport.Table(testsupport.Arc(20, 1)))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newProcessor(loader).Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run error = %v, want context.Canceled", err)
	}
}

func TestRunDegenerateRestPropagatesNaN(t *testing.T) {
	loader := testsupport.NewMemoryLoader()
	flat := make(shape.Shape, 20)
	for i := range flat {
		flat[i] = shape.Pt(1, 1)
	}
	loader.Add("P14", "rest", testsupport.Table(flat))
	loader.Add("P14", "TT", testsupport.Table(testsupport.Arc(20, 1)))

	res, err := newProcessor(loader).Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(res.Rows) != 1 || !math.IsNaN(res.Rows[0].Procrustes) {
		t.Fatalf("expected NaN procrustes, got %+v", res.Rows)
	}
}

func TestGroupPartitionsBySubjectAndSymbol(t *testing.T) {
	groups := batch.Group([]batch.Record{
		{ID: "b_TT.csv", Subject: "b", Symbol: "TT"},
		{ID: "a_rest.csv", Subject: "a", Symbol: "rest"},
		{ID: "a_TT.csv", Subject: "a", Symbol: "TT"},
		{ID: "a_AA.csv", Subject: "a", Symbol: "AA"},
	}, "rest")

	if len(groups) != 2 || groups[0].Subject != "a" || groups[1].Subject != "b" {
		t.Fatalf("unexpected groups: %+v", groups)
	}
	a := groups[0]
	if len(a.Rest) != 1 || a.Rest[0].ID != "a_rest.csv" {
		t.Fatalf("unexpected rest records: %+v", a.Rest)
	}
	if d := cmp.Diff([]string{"AA", "TT"}, a.Symbols); d != "" {
		t.Fatalf("symbols mismatch (-want +got):\n%s", d)
	}
	if len(groups[1].Rest) != 0 {
		t.Fatalf("subject b should have no rest record")
	}
}

func TestCollectorMerge(t *testing.T) {
	var a, b batch.Collector
	a.Add(batch.Row{Subject: "x", Repetition: 0})
	b.Add(batch.Row{Subject: "y", Repetition: 1})
	a.Merge(&b)
	a.Merge(nil)
	if a.Len() != 2 || a.Rows()[1].Subject != "y" {
		t.Fatalf("unexpected merged rows: %+v", a.Rows())
	}
}
