// Package spectrum implements a real-time spectrum analysis pipeline:
// overlap-save framing of a complex baseband stream, windowed FFT through
// a shared engine pool, power extraction, selectable per-bin averaging,
// and fan-out to display and network sinks.
//
// The package does not implement FFT itself; transforms come from engines
// acquired from a fftpool.Pool.
package spectrum
