package fir

import "fmt"

// Block implements a direct-form complex FIR filter bound to fixed input
// and output buffers, with a circular-buffer delay line carrying history
// across Execute calls.
//
//	y[n] = sum_{k=0}^{N-1} h[k] * x[n-k]
type Block struct {
	taps  []complex128
	delay []complex128
	pos   int
	in    []complex128
	out   []complex128
}

// NewBlock creates a block filter from interleaved re/im tap pairs bound
// to the given input and output buffers. The taps are copied; the buffers
// are referenced and must stay valid for the lifetime of the filter.
func NewBlock(taps []float64, in, out []complex128) (*Block, error) {
	if len(taps) == 0 || len(taps)%2 != 0 {
		return nil, fmt.Errorf("fir: taps must be non-empty re/im pairs, got %d values", len(taps))
	}
	if len(in) == 0 || len(out) < len(in) {
		return nil, fmt.Errorf("fir: output buffer (%d) must cover input buffer (%d)", len(out), len(in))
	}

	n := len(taps) / 2
	c := make([]complex128, n)
	for i := range c {
		c[i] = complex(taps[2*i], taps[2*i+1])
	}

	return &Block{
		taps:  c,
		delay: make([]complex128, n),
		in:    in,
		out:   out,
	}, nil
}

// Execute filters the bound input buffer into the bound output buffer.
// The delay line carries over between calls so consecutive blocks form a
// continuous stream.
func (b *Block) Execute() {
	n := len(b.taps)
	for i, x := range b.in {
		b.delay[b.pos] = x

		var y complex128
		p := b.pos
		for k := 0; k < n; k++ {
			y += b.taps[k] * b.delay[p]
			p--
			if p < 0 {
				p = n - 1
			}
		}

		b.out[i] = y

		b.pos++
		if b.pos >= n {
			b.pos = 0
		}
	}
}

// Flush clears the delay line, discarding inter-block history.
func (b *Block) Flush() {
	for i := range b.delay {
		b.delay[i] = 0
	}
	b.pos = 0
}

// TapCount returns the number of complex taps.
func (b *Block) TapCount() int {
	return len(b.taps)
}
