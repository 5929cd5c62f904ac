// Package signal implements the small amount of digital signal processing the
// curvature analysis needs: Butterworth low-pass design, direct-form IIR
// filtering with steady-state initial conditions, zero-phase forward-backward
// filtering, and composite Simpson quadrature over irregular spacing.
//
// The routines follow the conventions of the common scientific-computing
// toolchains (normalized cutoff relative to Nyquist, odd-extension padding of
// three filter lengths, averaged Simpson estimate for an even sample count) so
// curvature indices line up with values produced by existing analysis scripts.
package signal
