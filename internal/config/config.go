package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains input, output, and log locations.
type Paths struct {
	InputDir   string `toml:"input_dir"`
	OutputFile string `toml:"output_file"`
	ResultsDB  string `toml:"results_db"`
	LogDir     string `toml:"log_dir"`
}

// Input describes how shape tables are discovered and parsed.
type Input struct {
	Pattern     string `toml:"pattern"`
	Delimiter   string `toml:"delimiter"`
	HeaderLines int    `toml:"header_lines"`
	RestSymbol  string `toml:"rest_symbol"`
}

// Analysis contains numerical and scheduling knobs for the batch.
type Analysis struct {
	// FilterOrder and FilterCutoff configure the Butterworth filter used to
	// smooth curvature. The cutoff is a fraction of the Nyquist frequency.
	FilterOrder  int     `toml:"filter_order"`
	FilterCutoff float64 `toml:"filter_cutoff"`
	// Workers is the number of subjects analyzed concurrently.
	Workers int `toml:"workers"`
	// Strict aborts the whole run on the first malformed input instead of
	// skipping the affected subject.
	Strict bool `toml:"strict"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for tshape.
//
// Configuration sections by subsystem:
//   - Paths: input directory, output file, optional results archive, logs
//   - Input: file pattern, delimiter, header lines, rest symbol
//   - Analysis: smoothing filter, worker count, strict mode
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Input    Input    `toml:"input"`
	Analysis Analysis `toml:"analysis"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/tshape/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("tshape.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// Encode renders the configuration as TOML.
func (c *Config) Encode() (string, error) {
	var sb strings.Builder
	enc := toml.NewEncoder(&sb)
	if err := enc.Encode(c); err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return sb.String(), nil
}

// ResultsEnabled reports whether runs should be archived to SQLite.
func (c *Config) ResultsEnabled() bool {
	return strings.TrimSpace(c.Paths.ResultsDB) != ""
}

// DelimiterRune returns the input field separator. Validate guarantees the
// delimiter is a single character.
func (c *Config) DelimiterRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Input.Delimiter)
	return r
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
