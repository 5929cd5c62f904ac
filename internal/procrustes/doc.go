// Package procrustes measures how far one contour is from another once
// translation, scale and rotation have been factored out.
//
// Both shapes are centred on their centroids, scaled to unit RMS radius, and
// the candidate is rotated by the closed-form least-squares angle onto the
// reference. Reflections are not corrected: a mirrored contour keeps its
// distance. Swapping the arguments solves the rotation in the opposite
// direction, so the result is symmetric only up to rounding.
package procrustes
