// Package shape holds the contour primitives shared by the analyzers.
//
// A Shape is an ordered run of 2-D points traced along a tongue contour; its
// order encodes arc position and is never rearranged. Tables carry the raw
// wide layout delivered by loaders, where each adjacent pair of columns is one
// repetition's x and y coordinates.
package shape
