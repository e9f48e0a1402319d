// Package fir provides complex FIR filters for block processing of
// baseband sample streams. Block is the direct-form implementation;
// OverlapSave offers the same bound-buffer contract through FFT fast
// convolution for long tap sets.
package fir
