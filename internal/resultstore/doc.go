// Package resultstore archives analysis runs in a SQLite database.
//
// Each run is stored with its identifier, timing, input location and
// counts, the rows it produced, and the subjects it aborted. Rows carry an
// explicit has_rest flag, and NaN metrics are stored as NULL. The schema is
// versioned; opening a database created by an incompatible version fails
// with ErrSchemaMismatch.
package resultstore
