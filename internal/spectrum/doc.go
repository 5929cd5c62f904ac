// Package spectrum computes tangent-angle Fourier descriptors of a contour.
package spectrum
