package fftpool

import (
	"fmt"
	"sync"

	algofft "github.com/MeKo-Christian/algo-fft"
)

// Engine is a fixed-size transform unit with owned input and output buffers.
//
// Engines are handed out by a [Pool]; callers write samples into In(), call
// Transform, and read bins from Out(). An engine must only be used by one
// holder at a time.
type Engine struct {
	plan    *algofft.Plan[complex128]
	in      []complex128
	out     []complex128
	size    int
	inverse bool
}

// In returns the mutable input buffer of length Size().
func (e *Engine) In() []complex128 {
	return e.in
}

// Out returns the output buffer of length Size(). Valid after Transform.
func (e *Engine) Out() []complex128 {
	return e.out
}

// Size returns the transform length.
func (e *Engine) Size() int {
	return e.size
}

// Transform runs the forward (or inverse, per acquisition) transform from
// In() into Out().
func (e *Engine) Transform() error {
	if e.inverse {
		return e.plan.Inverse(e.out, e.in)
	}

	return e.plan.Forward(e.out, e.in)
}

type poolKey struct {
	size    int
	inverse bool
}

type poolEntry struct {
	seq    int
	engine *Engine
	inUse  bool
}

// Pool hands out transform engines keyed by (size, direction), reusing
// released engines of the same shape. It replaces any notion of a global
// engine registry: construct one and pass it to whoever needs transforms.
type Pool struct {
	mu      sync.Mutex
	entries map[poolKey][]*poolEntry
	nextSeq int
}

// NewPool returns an empty engine pool.
func NewPool() *Pool {
	return &Pool{entries: make(map[poolKey][]*poolEntry)}
}

// Acquire returns a free engine of the requested shape, creating one if
// necessary. The sequence token identifies the engine slot (a reused
// engine keeps its original token) and must be passed back to Release.
// A plan creation failure is fatal for the requested size: no engine can
// be produced and the caller cannot transform at that size.
func (p *Pool) Acquire(size int, inverse bool) (int, *Engine, error) {
	if size <= 0 {
		return 0, nil, fmt.Errorf("fftpool: engine size must be > 0: %d", size)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	key := poolKey{size: size, inverse: inverse}

	for _, ent := range p.entries[key] {
		if !ent.inUse {
			ent.inUse = true
			return ent.seq, ent.engine, nil
		}
	}

	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return 0, nil, fmt.Errorf("fftpool: create plan of size %d: %w", size, err)
	}

	p.nextSeq++
	ent := &poolEntry{
		seq: p.nextSeq,
		engine: &Engine{
			plan:    plan,
			in:      make([]complex128, size),
			out:     make([]complex128, size),
			size:    size,
			inverse: inverse,
		},
		inUse: true,
	}
	p.entries[key] = append(p.entries[key], ent)

	return ent.seq, ent.engine, nil
}

// Release returns the engine identified by seq to the pool. Releasing an
// unknown or already-free token is a no-op.
func (p *Pool) Release(size int, inverse bool, seq int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, ent := range p.entries[poolKey{size: size, inverse: inverse}] {
		if ent.seq == seq {
			ent.inUse = false
			return
		}
	}
}

// Allocated reports how many engines of the given shape exist, in use or not.
func (p *Pool) Allocated(size int, inverse bool) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.entries[poolKey{size: size, inverse: inverse}])
}
