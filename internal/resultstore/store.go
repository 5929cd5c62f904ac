package resultstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"tshape/internal/batch"
	"tshape/internal/spectrum"
)

// Store persists analysis runs in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Run is the archived summary of one analysis.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	InputDir   string
	OutputFile string
	Subjects   int
	Rows       int
	Skipped    int
	Failed     int
}

// Failure is an archived subject abort.
type Failure struct {
	Subject string
	Kind    string
	Message string
}

// ErrorClassifier lets errors declare a kind recorded alongside failures.
type ErrorClassifier interface {
	ErrorKind() string
}

// ErrRunNotFound is returned when a run ID is not in the archive.
var ErrRunNotFound = errors.New("run not found")

// Open creates or connects to the archive at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure archive directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save records run together with the rows and failures of res in one
// transaction. The counts on run are filled in from res.
func (s *Store) Save(ctx context.Context, run *Run, res *batch.Result) error {
	if run == nil || run.ID == "" {
		return errors.New("save run: missing run id")
	}
	if res == nil {
		return errors.New("save run: missing result")
	}
	run.Subjects = res.Subjects
	run.Rows = len(res.Rows)
	run.Skipped = res.Skipped
	run.Failed = len(res.Failures)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (
            id, started_at, finished_at, input_dir, output_file,
            subjects, row_count, skipped, failed
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.FinishedAt.UTC().Format(time.RFC3339Nano),
		run.InputDir,
		run.OutputFile,
		run.Subjects,
		run.Rows,
		run.Skipped,
		run.Failed,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	rowStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO rows (
            run_id, position, subject, symbol, repetition, source,
            mci, procrustes, has_rest,
            real_1, imag_1, mod_1, real_2, imag_2, mod_2, real_3, imag_3, mod_3
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare row insert: %w", err)
	}
	defer rowStmt.Close()

	for i, row := range res.Rows {
		args := []any{
			run.ID, i, row.Subject, row.Symbol, row.Repetition, row.Source,
			nullableFloat(row.MCI), nullableFloat(row.Procrustes), boolToInt(row.HasRest),
		}
		for _, h := range row.Harmonics {
			args = append(args, nullableFloat(h.Real), nullableFloat(h.Imag), nullableFloat(h.Mod))
		}
		if _, err := rowStmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert row %d: %w", i, err)
		}
	}

	for _, f := range res.Failures {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO failures (run_id, subject, kind, message) VALUES (?, ?, ?, ?)",
			run.ID, f.Subject, errorKind(f.Err), f.Err.Error(),
		); err != nil {
			return fmt.Errorf("insert failure for %s: %w", f.Subject, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs first. A limit of zero or less
// returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, started_at, finished_at, input_dir, output_file,
        subjects, row_count, skipped, failed
        FROM runs ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun fetches one run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, started_at, finished_at, input_dir, output_file,
        subjects, row_count, skipped, failed
        FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// Rows returns the archived rows of a run in output order. NULL metrics are
// returned as NaN; Source is populated.
func (s *Store) Rows(ctx context.Context, runID string) ([]batch.Row, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT subject, symbol, repetition, source, mci, procrustes, has_rest,
            real_1, imag_1, mod_1, real_2, imag_2, mod_2, real_3, imag_3, mod_3
        FROM rows WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer rows.Close()

	var out []batch.Row
	for rows.Next() {
		var (
			row     batch.Row
			hasRest int
			metrics [2 + 3*spectrum.ReportedHarmonics]sql.NullFloat64
		)
		dest := []any{&row.Subject, &row.Symbol, &row.Repetition, &row.Source}
		for i := range metrics {
			if i == 2 {
				dest = append(dest, &hasRest)
			}
			dest = append(dest, &metrics[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row.MCI = floatOrNaN(metrics[0])
		row.Procrustes = floatOrNaN(metrics[1])
		row.HasRest = hasRest != 0
		for k := range row.Harmonics {
			base := 2 + 3*k
			row.Harmonics[k] = spectrum.Harmonic{
				Real: floatOrNaN(metrics[base]),
				Imag: floatOrNaN(metrics[base+1]),
				Mod:  floatOrNaN(metrics[base+2]),
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Failures returns the subjects aborted in a run.
func (s *Store) Failures(ctx context.Context, runID string) ([]Failure, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT subject, kind, message FROM failures WHERE run_id = ? ORDER BY rowid", runID)
	if err != nil {
		return nil, fmt.Errorf("query failures: %w", err)
	}
	defer rows.Close()

	var out []Failure
	for rows.Next() {
		var f Failure
		if err := rows.Scan(&f.Subject, &f.Kind, &f.Message); err != nil {
			return nil, fmt.Errorf("scan failure: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		run               Run
		started, finished string
	)
	if err := sc.Scan(
		&run.ID, &started, &finished, &run.InputDir, &run.OutputFile,
		&run.Subjects, &run.Rows, &run.Skipped, &run.Failed,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	var err error
	if run.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return Run{}, fmt.Errorf("parse started_at for %s: %w", run.ID, err)
	}
	if run.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
		return Run{}, fmt.Errorf("parse finished_at for %s: %w", run.ID, err)
	}
	return run, nil
}

func errorKind(err error) string {
	var classifier ErrorClassifier
	if errors.As(err, &classifier) {
		return classifier.ErrorKind()
	}
	return "error"
}

// nullableFloat maps NaN to NULL, which is what SQLite would store anyway.
func nullableFloat(v float64) any {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

func floatOrNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
