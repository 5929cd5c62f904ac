// Package config loads, normalizes, and validates tshape configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every knob the
// CLI and batch processor need: where shape tables live, how they are parsed,
// the curvature smoothing filter, concurrency, and logging.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
