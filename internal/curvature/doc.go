// Package curvature turns a contour into a single complexity index (MCI).
//
// Signed curvature is estimated from numerical first and second derivatives,
// smoothed with a zero-phase low-pass Butterworth filter over a mirror-padded
// copy of the sequence, and its absolute value is integrated over cumulative
// arc length. Points where the contour does not advance (zero local speed)
// divide by zero; the resulting Inf/NaN values flow through to the index so
// callers can see the data problem.
package curvature
