package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"unicode/utf8"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateInput(); err != nil {
		return err
	}
	if err := c.validateAnalysis(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateInput() error {
	if _, err := filepath.Match(c.Input.Pattern, "P1_TT.csv"); err != nil {
		return fmt.Errorf("input.pattern %q is not a valid glob: %w", c.Input.Pattern, err)
	}
	if utf8.RuneCountInString(c.Input.Delimiter) != 1 {
		return fmt.Errorf("input.delimiter must be a single character, got %q", c.Input.Delimiter)
	}
	if c.Input.HeaderLines < 0 {
		return errors.New("input.header_lines must not be negative")
	}
	return nil
}

func (c *Config) validateAnalysis() error {
	if c.Analysis.FilterOrder <= 0 {
		return errors.New("analysis.filter_order must be positive")
	}
	if c.Analysis.FilterCutoff <= 0 || c.Analysis.FilterCutoff >= 1 {
		return errors.New("analysis.filter_cutoff must be between 0 and 1 (exclusive)")
	}
	if c.Analysis.Workers <= 0 {
		return errors.New("analysis.workers must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
