package loader

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"tshape/internal/batch"
	"tshape/internal/logging"
	"tshape/internal/shape"
)

// Options configures a Directory loader.
type Options struct {
	Dir         string
	Pattern     string
	Delimiter   rune
	HeaderLines int
	// Exclude lists paths that match Pattern but are not inputs, such as the
	// output table written into the same directory.
	Exclude []string
}

// Directory enumerates and reads shape tables stored as files in one directory.
type Directory struct {
	opts   Options
	logger *slog.Logger
}

// NewDirectory constructs a directory-backed loader.
func NewDirectory(opts Options, logger *slog.Logger) *Directory {
	if opts.Pattern == "" {
		opts.Pattern = "*.csv"
	}
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}
	return &Directory{opts: opts, logger: logging.NewComponentLogger(logger, "loader")}
}

// Records lists every matching file as a record keyed by its path.
func (d *Directory) Records(ctx context.Context) ([]batch.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	matches, err := filepath.Glob(filepath.Join(d.opts.Dir, d.opts.Pattern))
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", d.opts.Dir, err)
	}
	sort.Strings(matches)

	excluded := make(map[string]struct{}, len(d.opts.Exclude))
	for _, path := range d.opts.Exclude {
		if abs, err := filepath.Abs(path); err == nil {
			excluded[abs] = struct{}{}
		}
	}

	records := make([]batch.Record, 0, len(matches))
	for _, path := range matches {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", path, err)
		}
		if _, skip := excluded[abs]; skip {
			continue
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", abs, err)
		}
		if info.IsDir() {
			continue
		}
		subject, symbol, ok := ParseName(abs)
		if !ok {
			logging.WarnWithContext(d.logger, "file name has no subject_symbol separator; ignoring", "input_ignored",
				logging.String(logging.FieldSource, filepath.Base(abs)),
				logging.String(logging.FieldErrorHint, "rename the file to <subject>_<symbol>.csv"),
				logging.String(logging.FieldImpact, "file not analyzed"),
			)
			continue
		}
		records = append(records, batch.Record{ID: abs, Subject: subject, Symbol: symbol})
	}
	return records, nil
}

// Table reads the table stored at id, a path previously returned by Records.
func (d *Directory) Table(ctx context.Context, id string) (shape.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := os.Open(id)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", id, err)
	}
	defer file.Close()

	table, err := ReadTable(file, d.opts.Delimiter, d.opts.HeaderLines)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(id), err)
	}
	return table, nil
}
