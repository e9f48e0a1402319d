package fftpool

import (
	"math"
	"testing"
)

func TestAcquireReusesReleasedEngine(t *testing.T) {
	p := NewPool()

	seq, eng, err := p.Acquire(64, false)
	if err != nil {
		t.Fatalf("Acquire error: %v", err)
	}
	if eng.Size() != 64 {
		t.Fatalf("engine size=%d want=64", eng.Size())
	}
	if got := p.Allocated(64, false); got != 1 {
		t.Fatalf("Allocated=%d want=1", got)
	}

	p.Release(64, false, seq)

	seq2, eng2, err := p.Acquire(64, false)
	if err != nil {
		t.Fatalf("second Acquire error: %v", err)
	}
	if seq2 != seq || eng2 != eng {
		t.Fatalf("expected the released engine back, got seq=%d", seq2)
	}
	if got := p.Allocated(64, false); got != 1 {
		t.Fatalf("Allocated=%d want=1 after reuse", got)
	}
}

func TestAcquireInUseAllocatesNew(t *testing.T) {
	p := NewPool()

	seq1, _, err := p.Acquire(128, false)
	if err != nil {
		t.Fatalf("Acquire error: %v", err)
	}

	seq2, _, err := p.Acquire(128, false)
	if err != nil {
		t.Fatalf("Acquire error: %v", err)
	}
	if seq1 == seq2 {
		t.Fatalf("expected distinct engines while both in use")
	}
	if got := p.Allocated(128, false); got != 2 {
		t.Fatalf("Allocated=%d want=2", got)
	}
}

func TestShapesAreDistinct(t *testing.T) {
	p := NewPool()

	if _, _, err := p.Acquire(64, false); err != nil {
		t.Fatalf("forward Acquire error: %v", err)
	}
	if _, _, err := p.Acquire(64, true); err != nil {
		t.Fatalf("inverse Acquire error: %v", err)
	}

	if got := p.Allocated(64, false); got != 1 {
		t.Fatalf("forward Allocated=%d want=1", got)
	}
	if got := p.Allocated(64, true); got != 1 {
		t.Fatalf("inverse Allocated=%d want=1", got)
	}
	if got := p.Allocated(32, false); got != 0 {
		t.Fatalf("unrelated Allocated=%d want=0", got)
	}
}

func TestReleaseUnknownTokenIsNoOp(t *testing.T) {
	p := NewPool()

	p.Release(64, false, 42)

	seq, _, err := p.Acquire(64, false)
	if err != nil {
		t.Fatalf("Acquire error: %v", err)
	}

	// double release must not free the engine twice
	p.Release(64, false, seq)
	p.Release(64, false, seq)

	if got := p.Allocated(64, false); got != 1 {
		t.Fatalf("Allocated=%d want=1", got)
	}
}

func TestAcquireInvalidSize(t *testing.T) {
	p := NewPool()

	if _, _, err := p.Acquire(0, false); err == nil {
		t.Fatalf("expected error for size 0")
	}
	if _, _, err := p.Acquire(-8, false); err == nil {
		t.Fatalf("expected error for negative size")
	}
}

func TestForwardTransformOfImpulse(t *testing.T) {
	p := NewPool()

	_, eng, err := p.Acquire(8, false)
	if err != nil {
		t.Fatalf("Acquire error: %v", err)
	}

	in := eng.In()
	for i := range in {
		in[i] = 0
	}
	in[0] = 1

	if err := eng.Transform(); err != nil {
		t.Fatalf("Transform error: %v", err)
	}

	for i, v := range eng.Out() {
		if math.Abs(real(v)-1) > 1e-12 || math.Abs(imag(v)) > 1e-12 {
			t.Fatalf("out[%d]=%v want=1", i, v)
		}
	}
}

func TestInverseUndoesForward(t *testing.T) {
	p := NewPool()

	_, fwd, err := p.Acquire(16, false)
	if err != nil {
		t.Fatalf("forward Acquire error: %v", err)
	}
	_, inv, err := p.Acquire(16, true)
	if err != nil {
		t.Fatalf("inverse Acquire error: %v", err)
	}

	for i := range fwd.In() {
		fwd.In()[i] = complex(float64(i), -float64(i))
	}
	if err := fwd.Transform(); err != nil {
		t.Fatalf("forward Transform error: %v", err)
	}

	copy(inv.In(), fwd.Out())
	if err := inv.Transform(); err != nil {
		t.Fatalf("inverse Transform error: %v", err)
	}

	for i, v := range inv.Out() {
		if math.Abs(real(v)-float64(i)) > 1e-9 || math.Abs(imag(v)+float64(i)) > 1e-9 {
			t.Fatalf("round trip out[%d]=%v want=(%d,-%d)", i, v, i, i)
		}
	}
}
