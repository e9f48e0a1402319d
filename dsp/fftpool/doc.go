// Package fftpool provides a handle-counted pool of FFT engines.
//
// Spectrum analyzers at the same FFT size can share engine capacity:
// Acquire returns an opaque sequence token alongside the engine, and the
// engine is only reusable once Release has been called with that token.
// The pool does not implement FFT itself; engines wrap plans from the
// external transform backend.
package fftpool
