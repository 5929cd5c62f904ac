// Package report writes analysis rows as a comma-separated table.
//
// The layout is one header line followed by one line per analyzed
// repetition. A subject without a rest shape reports a Procrustes distance
// of 0; downstream tools that need to tell that apart from a perfect match
// should read the SQLite archive, which stores an explicit has_rest flag.
package report
