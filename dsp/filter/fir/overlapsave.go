package fir

import (
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
)

// OverlapSave implements the same bound-buffer FIR contract as Block with
// FFT fast convolution. Each Execute transforms history plus the input
// block, multiplies by the precomputed tap spectrum and discards the
// circular wrap-around, so consecutive blocks form a continuous stream.
//
// It trades Block's O(N) per sample for O(log N) and pays off for the
// long tap sets compensation filters tend to use.
type OverlapSave struct {
	kernelFFT []complex128
	kernelLen int
	blockSize int
	fftSize   int

	plan *algofft.Plan[complex128]

	work    []complex128
	history []complex128

	in  []complex128
	out []complex128
}

// NewOverlapSave creates a fast convolver from interleaved re/im tap
// pairs bound to the given input and output buffers. The taps are
// consumed at construction; the buffers are referenced and must stay
// valid for the lifetime of the filter.
func NewOverlapSave(taps []float64, in, out []complex128) (*OverlapSave, error) {
	if len(taps) == 0 || len(taps)%2 != 0 {
		return nil, fmt.Errorf("fir: taps must be non-empty re/im pairs, got %d values", len(taps))
	}
	if len(in) == 0 || len(out) < len(in) {
		return nil, fmt.Errorf("fir: output buffer (%d) must cover input buffer (%d)", len(out), len(in))
	}

	kernelLen := len(taps) / 2
	blockSize := len(in)
	fftSize := nextPowerOf2(blockSize + kernelLen - 1)

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("fir: create plan of size %d: %w", fftSize, err)
	}

	o := &OverlapSave{
		kernelFFT: make([]complex128, fftSize),
		kernelLen: kernelLen,
		blockSize: blockSize,
		fftSize:   fftSize,
		plan:      plan,
		work:      make([]complex128, fftSize),
		history:   make([]complex128, kernelLen-1),
		in:        in,
		out:       out,
	}

	padded := make([]complex128, fftSize)
	for i := 0; i < kernelLen; i++ {
		padded[i] = complex(taps[2*i], taps[2*i+1])
	}
	if err := o.plan.Forward(o.kernelFFT, padded); err != nil {
		return nil, fmt.Errorf("fir: transform taps: %w", err)
	}

	return o, nil
}

// Execute filters the bound input buffer into the bound output buffer.
func (o *OverlapSave) Execute() {
	for i := range o.work {
		o.work[i] = 0
	}
	copy(o.work, o.history)
	copy(o.work[o.kernelLen-1:], o.in)

	// plan and buffer sizes are fixed at construction, the transforms
	// cannot fail here
	if err := o.plan.Forward(o.work, o.work); err != nil {
		return
	}

	for i := range o.work {
		o.work[i] *= o.kernelFFT[i]
	}

	if err := o.plan.Inverse(o.work, o.work); err != nil {
		return
	}

	copy(o.out[:o.blockSize], o.work[o.kernelLen-1:o.kernelLen-1+o.blockSize])

	o.updateHistory()
}

func (o *OverlapSave) updateHistory() {
	overlap := o.kernelLen - 1
	if overlap == 0 {
		return
	}

	if o.blockSize >= overlap {
		copy(o.history, o.in[o.blockSize-overlap:])
		return
	}

	copy(o.history, o.history[o.blockSize:])
	copy(o.history[overlap-o.blockSize:], o.in[:o.blockSize])
}

// Flush clears the overlap state, discarding inter-block history.
func (o *OverlapSave) Flush() {
	for i := range o.history {
		o.history[i] = 0
	}
}

// TapCount returns the number of complex taps.
func (o *OverlapSave) TapCount() int {
	return o.kernelLen
}

// FFTSize returns the internal transform length.
func (o *OverlapSave) FFTSize() int {
	return o.fftSize
}

func nextPowerOf2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
