package average

// Moving keeps a per-bin ring of the last depth values and reports their
// running mean. Before depth frames have been stored the mean is taken
// over the frames seen so far, so every frame yields a valid average.
type Moving struct {
	data   []float64
	totals []float64
	width  int
	depth  int
	frames int
	index  int
}

// Resize reallocates state for width bins and a depth-frame ring.
// All accumulated history is discarded. depth values below 1 act as 1.
func (m *Moving) Resize(width, depth int) {
	if width < 0 {
		width = 0
	}
	if depth < 1 {
		depth = 1
	}

	m.width = width
	m.depth = depth
	m.data = make([]float64, width*depth)
	m.totals = make([]float64, width)
	m.frames = 0
	m.index = 0
}

// StoreAndGetAvg stores v for the given bin in the current frame slot and
// returns the mean over the ring.
func (m *Moving) StoreAndGetAvg(v float64, bin int) float64 {
	if m.depth <= 1 {
		return v
	}

	slot := &m.data[m.index*m.width+bin]
	total := m.totals[bin] + v - *slot
	*slot = v
	m.totals[bin] = total

	n := m.frames
	if n < m.depth {
		n++
	}

	return total / float64(n)
}

// NextAverage advances the ring to the next frame slot.
func (m *Moving) NextAverage() {
	if m.depth <= 1 {
		return
	}

	if m.frames < m.depth {
		m.frames++
	}

	m.index++
	if m.index >= m.depth {
		m.index = 0
	}
}

// Fixed accumulates depth frames per bin and emits their mean once per
// cycle. Between emissions StoreAndGetAvg reports not-ready.
type Fixed struct {
	sums  []float64
	width int
	depth int
	fill  int
}

// Resize reallocates state for width bins accumulated over depth frames.
// depth values below 1 act as 1 (passthrough, always ready).
func (f *Fixed) Resize(width, depth int) {
	if width < 0 {
		width = 0
	}
	if depth < 1 {
		depth = 1
	}

	f.width = width
	f.depth = depth
	f.sums = make([]float64, width)
	f.fill = 0
}

// StoreAndGetAvg accumulates v for the given bin. On the depth-th frame of
// the cycle it returns the completed mean and resets the bin accumulator.
func (f *Fixed) StoreAndGetAvg(v float64, bin int) (float64, bool) {
	if f.depth <= 1 {
		return v, true
	}

	if f.fill < f.depth-1 {
		f.sums[bin] += v
		return 0, false
	}

	avg := (f.sums[bin] + v) / float64(f.depth)
	f.sums[bin] = 0

	return avg, true
}

// NextAverage advances the frame counter and reports whether the cycle
// just completed (pipeline-wide readiness).
func (f *Fixed) NextAverage() bool {
	if f.depth <= 1 {
		return true
	}

	if f.fill < f.depth-1 {
		f.fill++
		return false
	}

	f.fill = 0

	return true
}

// PeakHold tracks the per-bin maximum over depth frames and emits it once
// per cycle. Values are expected non-negative (power spectra), so the hold
// resets to zero.
type PeakHold struct {
	maxima []float64
	width  int
	depth  int
	fill   int
}

// Resize reallocates state for width bins held over depth frames.
// depth values below 1 act as 1 (passthrough, always ready).
func (p *PeakHold) Resize(width, depth int) {
	if width < 0 {
		width = 0
	}
	if depth < 1 {
		depth = 1
	}

	p.width = width
	p.depth = depth
	p.maxima = make([]float64, width)
	p.fill = 0
}

// StoreAndGetMax folds v into the hold for the given bin. On the depth-th
// frame of the cycle it returns the completed maximum and resets the bin.
func (p *PeakHold) StoreAndGetMax(v float64, bin int) (float64, bool) {
	if p.depth <= 1 {
		return v, true
	}

	if p.fill < p.depth-1 {
		if v > p.maxima[bin] {
			p.maxima[bin] = v
		}

		return 0, false
	}

	max := p.maxima[bin]
	if v > max {
		max = v
	}
	p.maxima[bin] = 0

	return max, true
}

// NextMax advances the frame counter and reports whether the cycle just
// completed.
func (p *PeakHold) NextMax() bool {
	if p.depth <= 1 {
		return true
	}

	if p.fill < p.depth-1 {
		p.fill++
		return false
	}

	p.fill = 0

	return true
}
