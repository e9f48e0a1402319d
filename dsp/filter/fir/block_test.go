package fir

import (
	"math"
	"testing"
)

func approxEqual(a, b complex128) bool {
	return math.Abs(real(a)-real(b)) < 1e-12 && math.Abs(imag(a)-imag(b)) < 1e-12
}

func TestIdentityFilter(t *testing.T) {
	in := []complex128{1 + 2i, -3, 0.5i, 4 - 1i}
	out := make([]complex128, len(in))

	b, err := NewBlock([]float64{1, 0}, in, out)
	if err != nil {
		t.Fatalf("NewBlock error: %v", err)
	}
	if b.TapCount() != 1 {
		t.Fatalf("TapCount=%d want=1", b.TapCount())
	}

	b.Execute()

	for i := range in {
		if !approxEqual(out[i], in[i]) {
			t.Fatalf("out[%d]=%v want=%v", i, out[i], in[i])
		}
	}
}

func TestDelayAcrossBlocks(t *testing.T) {
	in := make([]complex128, 2)
	out := make([]complex128, 2)

	// h = [0, 1]: pure one-sample delay
	b, err := NewBlock([]float64{0, 0, 1, 0}, in, out)
	if err != nil {
		t.Fatalf("NewBlock error: %v", err)
	}

	in[0], in[1] = 1, 2
	b.Execute()
	if !approxEqual(out[0], 0) || !approxEqual(out[1], 1) {
		t.Fatalf("first block out=%v want=[0 1]", out)
	}

	// history carries: the first output of the next block is the last
	// input of the previous one
	in[0], in[1] = 3, 4
	b.Execute()
	if !approxEqual(out[0], 2) || !approxEqual(out[1], 3) {
		t.Fatalf("second block out=%v want=[2 3]", out)
	}
}

func TestFlushClearsHistory(t *testing.T) {
	in := make([]complex128, 2)
	out := make([]complex128, 2)

	b, err := NewBlock([]float64{0, 0, 1, 0}, in, out)
	if err != nil {
		t.Fatalf("NewBlock error: %v", err)
	}

	in[0], in[1] = 1, 2
	b.Execute()

	b.Flush()

	in[0], in[1] = 3, 4
	b.Execute()
	if !approxEqual(out[0], 0) || !approxEqual(out[1], 3) {
		t.Fatalf("post-flush out=%v want=[0 3]", out)
	}
}

func TestComplexTaps(t *testing.T) {
	in := []complex128{1, 1i}
	out := make([]complex128, 2)

	// single tap 1i rotates every sample by 90 degrees
	b, err := NewBlock([]float64{0, 1}, in, out)
	if err != nil {
		t.Fatalf("NewBlock error: %v", err)
	}

	b.Execute()
	if !approxEqual(out[0], 1i) || !approxEqual(out[1], -1) {
		t.Fatalf("out=%v want=[i -1]", out)
	}
}

func TestNewBlockValidation(t *testing.T) {
	in := make([]complex128, 4)
	out := make([]complex128, 4)

	if _, err := NewBlock(nil, in, out); err == nil {
		t.Fatalf("expected error for empty taps")
	}
	if _, err := NewBlock([]float64{1, 0, 1}, in, out); err == nil {
		t.Fatalf("expected error for odd tap value count")
	}
	if _, err := NewBlock([]float64{1, 0}, in, make([]complex128, 2)); err == nil {
		t.Fatalf("expected error for short output buffer")
	}
	if _, err := NewBlock([]float64{1, 0}, nil, out); err == nil {
		t.Fatalf("expected error for empty input buffer")
	}
}
