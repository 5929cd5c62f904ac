// Package logging assembles structured slog loggers and formatting helpers used
// across tshape.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes helpers so batch code tags log lines with the subject,
// symbol and repetition being analyzed. The package also provides a no-op
// logger for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits data with the same shape and routing.
package logging
