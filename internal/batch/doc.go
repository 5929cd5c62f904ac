// Package batch drives shape analysis over every record a Loader provides.
//
// Records are grouped by subject and then by symbol. Each subject's rest
// record, when present, supplies the reference contour for Procrustes
// alignment; every other record is split into repetitions (consecutive x/y
// column pairs) and each finite repetition yields one Row carrying its
// curvature index, Procrustes distance, and leading tangent-angle harmonics.
//
// Malformed inputs raise a *FormatError that aborts only the affected
// subject unless the Processor runs in strict mode. Repetitions containing
// non-finite coordinates are skipped with a warning. Degenerate geometry
// (coincident points, zero local speed) is not intercepted: the resulting
// NaN or Inf values are written into the row as-is.
package batch
