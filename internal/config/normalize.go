package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeInput()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.InputDir) == "" {
		c.Paths.InputDir = defaultInputDir
	}
	if c.Paths.InputDir, err = expandPath(c.Paths.InputDir); err != nil {
		return fmt.Errorf("paths.input_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.OutputFile) == "" {
		c.Paths.OutputFile = defaultOutputFile
	}
	// A bare file name lands next to the input tables.
	if !strings.ContainsAny(c.Paths.OutputFile, `/\`) && !strings.HasPrefix(c.Paths.OutputFile, "~") {
		c.Paths.OutputFile = filepath.Join(c.Paths.InputDir, c.Paths.OutputFile)
	}
	if c.Paths.OutputFile, err = expandPath(c.Paths.OutputFile); err != nil {
		return fmt.Errorf("paths.output_file: %w", err)
	}
	if c.Paths.ResultsDB, err = expandPath(strings.TrimSpace(c.Paths.ResultsDB)); err != nil {
		return fmt.Errorf("paths.results_db: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeInput() {
	c.Input.Pattern = strings.TrimSpace(c.Input.Pattern)
	if c.Input.Pattern == "" {
		c.Input.Pattern = defaultPattern
	}
	if c.Input.Delimiter == "" {
		c.Input.Delimiter = defaultDelimiter
	}
	if strings.EqualFold(c.Input.Delimiter, "tab") || c.Input.Delimiter == `\t` {
		c.Input.Delimiter = "\t"
	}
	c.Input.RestSymbol = strings.TrimSpace(c.Input.RestSymbol)
	if c.Input.RestSymbol == "" {
		c.Input.RestSymbol = defaultRestSymbol
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
