// Package loader reads shape tables from a directory of delimited text files.
//
// Each file holds one subject's recordings of one symbol and is named
// <subject>_<symbol>.<ext>; the name is split at its last underscore, so
// subjects may themselves contain underscores. Cells that are empty or not
// numeric load as NaN, which the batch processor treats as a data-quality
// signal for the affected repetition.
package loader
