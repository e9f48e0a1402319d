// Package ciccomp designs FIR filters that compensate the sinc-like
// droop of a CIC interpolator, using the frequency-sampling method: the
// inverse CIC magnitude is specified at discrete frequency points, shaped
// through a power-law or raised-cosine transition past cutoff, and
// inverse-transformed into windowed linear-phase taps.
//
// Stage pairs a synthesized filter with a block-convolution core and
// rebuilds the whole filter on any parameter change.
package ciccomp
