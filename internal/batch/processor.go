package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"tshape/internal/curvature"
	"tshape/internal/logging"
	"tshape/internal/procrustes"
	"tshape/internal/shape"
	"tshape/internal/spectrum"
)

// minRecordPoints is the shortest contour whose spectrum has three non-DC bins.
const minRecordPoints = 2 * spectrum.ReportedHarmonics

// Processor runs the analysis over every subject a Loader provides.
type Processor struct {
	Loader    Loader
	Logger    *slog.Logger
	Curvature *curvature.Analyzer
	// RestSymbol defaults to DefaultRestSymbol.
	RestSymbol string
	// Workers bounds how many subjects are analyzed concurrently; values
	// below 2 run subjects one after another.
	Workers int
	// Strict makes the first FormatError abort the whole run.
	Strict bool
}

// SubjectFailure records a subject whose processing was aborted.
type SubjectFailure struct {
	Subject string
	Err     error
}

// Result summarizes a run.
type Result struct {
	Rows []Row
	// Subjects is the number of distinct subjects found.
	Subjects int
	// Skipped counts repetitions dropped for non-finite coordinates.
	Skipped int
	// NoRest lists subjects analyzed without a rest shape.
	NoRest   []string
	Failures []SubjectFailure
}

type subjectOutcome struct {
	rows    Collector
	skipped int
	noRest  bool
	err     error
}

// Run groups the loader's records and analyzes every subject. Subjects that
// hit a FormatError are recorded in Result.Failures and contribute no rows;
// in strict mode the first such error is returned instead. Loader enumeration
// failures and context cancellation are returned as errors.
func (p *Processor) Run(ctx context.Context) (*Result, error) {
	if p.Loader == nil {
		return nil, errors.New("batch processor requires a loader")
	}
	logger := logging.NewComponentLogger(logging.WithContext(ctx, p.Logger), "batch")
	analyzer := p.Curvature
	if analyzer == nil {
		analyzer = curvature.Default()
	}
	restSymbol := p.RestSymbol
	if restSymbol == "" {
		restSymbol = DefaultRestSymbol
	}

	records, err := p.Loader.Records(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	groups := Group(records, restSymbol)
	logger.Info("grouped shape records",
		logging.Int("subjects", len(groups)),
		logging.Int("records", len(records)),
	)

	run := &subjectRun{
		loader:     p.Loader,
		logger:     logger,
		analyzer:   analyzer,
		restSymbol: restSymbol,
	}
	outcomes, err := p.schedule(ctx, groups, run)
	if err != nil {
		return nil, err
	}

	result := &Result{Subjects: len(groups)}
	var merged Collector
	for i, out := range outcomes {
		subject := groups[i].Subject
		if out.err != nil {
			if p.Strict {
				return nil, out.err
			}
			logging.ErrorWithContext(logger, "subject aborted", "subject_failed",
				logging.String(logging.FieldSubject, subject),
				logging.Error(out.err),
				logging.String(logging.FieldErrorHint, "fix the input file named in the error and rerun"),
			)
			result.Failures = append(result.Failures, SubjectFailure{Subject: subject, Err: out.err})
			continue
		}
		if out.noRest {
			result.NoRest = append(result.NoRest, subject)
		}
		result.Skipped += out.skipped
		merged.Merge(&out.rows)
	}
	result.Rows = merged.Rows()
	return result, nil
}

// schedule analyzes every group, sequentially or with a bounded worker pool,
// and returns outcomes indexed like groups.
func (p *Processor) schedule(ctx context.Context, groups []SubjectGroup, run *subjectRun) ([]subjectOutcome, error) {
	outcomes := make([]subjectOutcome, len(groups))
	workers := min(p.Workers, len(groups))

	if workers < 2 {
		for i := range groups {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			outcomes[i] = run.subject(ctx, groups[i])
			if p.Strict && outcomes[i].err != nil {
				return outcomes[:i+1], nil
			}
		}
		return outcomes, nil
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = run.subject(ctx, groups[i])
			}
		}()
	}
	var cancelled error
	for i := range groups {
		if err := ctx.Err(); err != nil {
			cancelled = err
			break
		}
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	if cancelled != nil {
		return nil, cancelled
	}
	return outcomes, nil
}

// subjectRun holds the read-only collaborators shared by every subject.
type subjectRun struct {
	loader     Loader
	logger     *slog.Logger
	analyzer   *curvature.Analyzer
	restSymbol string
}

func (r *subjectRun) subject(ctx context.Context, group SubjectGroup) subjectOutcome {
	var out subjectOutcome
	logger := r.logger.With(logging.String(logging.FieldSubject, group.Subject))
	logger.Info("processing subject")

	rest, err := r.restShape(ctx, group, logger)
	if err != nil {
		out.err = err
		return out
	}
	out.noRest = rest == nil

	for _, symbol := range group.Symbols {
		for _, rec := range group.BySymbol[symbol] {
			skipped, err := r.record(ctx, rec, rest, &out.rows, logger)
			if err != nil {
				out.err = err
				return out
			}
			out.skipped += skipped
		}
	}
	return out
}

// restShape locates and decodes the subject's reference contour. A nil shape
// with a nil error means the subject has no rest record.
func (r *subjectRun) restShape(ctx context.Context, group SubjectGroup, logger *slog.Logger) (shape.Shape, error) {
	switch len(group.Rest) {
	case 0:
		logger.Info("no rest shape found; procrustes analysis not available",
			logging.String(logging.FieldEventType, "rest_missing"),
		)
		return nil, nil
	case 1:
	default:
		sources := make([]string, len(group.Rest))
		for i, rec := range group.Rest {
			sources[i] = sourceName(rec.ID)
		}
		return nil, formatErr(group.Subject, strings.Join(sources, ", "), ErrDuplicateRest)
	}

	rec := group.Rest[0]
	table, err := r.loader.Table(ctx, rec.ID)
	if err != nil {
		return nil, formatErr(group.Subject, sourceName(rec.ID), err)
	}
	if table.Columns() != 2 {
		return nil, formatErr(group.Subject, sourceName(rec.ID),
			fmt.Errorf("%w: found %d columns", ErrRestColumns, table.Columns()))
	}
	if table.Rows() < minRecordPoints {
		return nil, formatErr(group.Subject, sourceName(rec.ID),
			fmt.Errorf("%w: %d rows, need %d", ErrTooFewPoints, table.Rows(), minRecordPoints))
	}
	rest, err := table.Repetition(0)
	if err != nil {
		return nil, formatErr(group.Subject, sourceName(rec.ID), err)
	}
	logger.Info("found rest shape",
		logging.String(logging.FieldSource, sourceName(rec.ID)),
		logging.Int("points", len(rest)),
	)
	return rest, nil
}

// record analyzes every repetition of one measured record and returns how
// many repetitions were skipped.
func (r *subjectRun) record(ctx context.Context, rec Record, rest shape.Shape, rows *Collector, logger *slog.Logger) (int, error) {
	source := sourceName(rec.ID)
	table, err := r.loader.Table(ctx, rec.ID)
	if err != nil {
		return 0, formatErr(rec.Subject, source, err)
	}
	if table.Columns()%2 != 0 {
		return 0, formatErr(rec.Subject, source,
			fmt.Errorf("%w: found %d columns", ErrOddColumns, table.Columns()))
	}
	reps := table.Repetitions()
	if reps > 0 && table.Rows() < minRecordPoints {
		return 0, formatErr(rec.Subject, source,
			fmt.Errorf("%w: %d rows, need %d", ErrTooFewPoints, table.Rows(), minRecordPoints))
	}
	if rest != nil && reps > 0 && table.Rows() != len(rest) {
		return 0, formatErr(rec.Subject, source,
			fmt.Errorf("%w: %d rows, rest shape has %d", ErrPointCount, table.Rows(), len(rest)))
	}
	logger.Info("found shapes for symbol",
		logging.String(logging.FieldSymbol, rec.Symbol),
		logging.String(logging.FieldSource, source),
		logging.Int("repetitions", reps),
	)

	skipped := 0
	for rep := 0; rep < reps; rep++ {
		s, err := table.Repetition(rep)
		if err != nil {
			return 0, formatErr(rec.Subject, source, err)
		}
		attrs := logging.ShapeAttrs(rec.Subject, rec.Symbol, rep)
		if !s.Finite() {
			skipped++
			logging.WarnWithContext(logger, "non-finite value in shape; ignoring repetition", "repetition_skipped",
				append(attrs,
					logging.String(logging.FieldSource, source),
					logging.String(logging.FieldErrorHint, "check the repetition's columns for blank or non-numeric cells"),
					logging.String(logging.FieldImpact, "repetition omitted from output"),
				)...,
			)
			continue
		}

		row, err := Analyze(r.analyzer, rest, s)
		if err != nil {
			return 0, formatErr(rec.Subject, source, err)
		}
		row.Subject = rec.Subject
		row.Symbol = rec.Symbol
		row.Repetition = rep
		row.Source = source
		rows.Add(row)
		logger.Debug("repetition analyzed", logging.Args(append(attrs,
			logging.Float64("mci", row.MCI),
			logging.Float64("procrustes", row.Procrustes),
		)...)...)
	}
	return skipped, nil
}

// Analyze computes the metrics for one contour. rest may be nil, in which
// case the Procrustes distance is left at 0 and HasRest is false. The
// identifying fields of the returned row are left empty.
func Analyze(analyzer *curvature.Analyzer, rest, s shape.Shape) (Row, error) {
	var row Row
	if rest != nil {
		d, err := procrustes.Align(rest, s)
		if err != nil {
			return Row{}, err
		}
		row.Procrustes = d
		row.HasRest = true
	}

	mci, err := analyzer.Index(s)
	if err != nil {
		return Row{}, err
	}
	row.MCI = mci

	harmonics, err := spectrum.Tangent(s).Leading()
	if err != nil {
		return Row{}, err
	}
	row.Harmonics = harmonics
	return row, nil
}

func sourceName(id string) string {
	return filepath.Base(id)
}
