package testsupport

import (
	"path/filepath"
	"testing"

	"tshape/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config whose input, output, and log locations live in
// a per-test temporary directory.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.InputDir = filepath.Join(base, "input")
	cfg.Paths.OutputFile = filepath.Join(base, "input", "shape_analysis_data_out.csv")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithResultsDB enables the SQLite results archive inside the test directory.
func WithResultsDB(path string) ConfigOption {
	return func(c *config.Config) {
		c.Paths.ResultsDB = path
	}
}

// WithWorkers sets the number of concurrent subject workers.
func WithWorkers(n int) ConfigOption {
	return func(c *config.Config) {
		c.Analysis.Workers = n
	}
}
