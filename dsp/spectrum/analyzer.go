package spectrum

import (
	"fmt"
	"math"
	"sync"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-sdr/dsp/average"
	"github.com/cwbudde/algo-sdr/dsp/fftpool"
	"github.com/cwbudde/algo-sdr/dsp/window"
)

// logMult converts log2 power to dB: 10*log10(v) == logMult*log2(v).
var logMult = 10 / math.Log2(10)

// Sink receives published power spectra for display.
type Sink interface {
	NewSpectrum(power []float64, fftSize int)
}

// RemoteSink receives published power spectra with their signal context.
// It mirrors the websocket spectrum server surface; publication is
// best-effort and gated on SocketOpened.
type RemoteSink interface {
	SocketOpened() bool
	SetListeningAddress(address string)
	SetPort(port uint16)
	OpenSocket() error
	CloseSocket()
	NewSpectrum(power []float64, fftSize int, centerFrequency uint64, sampleRate int, linear, ssb, usb bool)
}

// Analyzer converts a stream of complex baseband samples into published
// power spectra under a selectable averaging policy.
//
// A single mutex guards configuration and the feed path. Feed uses a
// non-blocking acquire and drops the chunk when configuration is in
// progress, so the sample producer is never stalled by reconfiguration.
type Analyzer struct {
	mu      sync.Mutex
	running bool

	pool      *fftpool.Pool
	engine    *fftpool.Engine
	engineSeq int

	settings Settings
	win      *window.Window

	fftBuffer     []complex128
	fill          int
	overlapSize   int
	refillSize    int
	powerSpectrum []float64

	// scratch for bulk power computation
	re    []float64
	im    []float64
	power []float64

	scale           float64
	ofs             float64
	powFFTDiv       float64
	centerFrequency uint64
	sampleRate      int

	display Sink
	remote  RemoteSink

	moving average.Moving
	fixed  average.Fixed
	peak   average.PeakHold
}

// NewAnalyzer creates a running analyzer over the given engine pool with
// default settings. scale divides incoming sample values before framing
// (full-scale normalization of the sample source).
func NewAnalyzer(pool *fftpool.Pool, scale float64) (*Analyzer, error) {
	a := &Analyzer{
		running:       true,
		pool:          pool,
		scale:         scale,
		fftBuffer:     make([]complex128, MaxFFTSize),
		powerSpectrum: make([]float64, MaxFFTSize),
		re:            make([]float64, MaxFFTSize),
		im:            make([]float64, MaxFFTSize),
		power:         make([]float64, MaxFFTSize),
		sampleRate:    48000,
	}

	if err := a.ApplySettings(DefaultSettings(), true); err != nil {
		return nil, err
	}

	return a, nil
}

// SetDisplaySink attaches (or detaches, with nil) the display sink.
func (a *Analyzer) SetDisplaySink(s Sink) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.display = s
}

// SetRemoteSink attaches (or detaches, with nil) the network sink. The
// sink is configured with the current remote address and port.
func (a *Analyzer) SetRemoteSink(r RemoteSink) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.remote = r
	if r != nil {
		r.SetListeningAddress(a.settings.RemoteAddress)
		r.SetPort(a.settings.RemotePort)
	}
}

// Settings returns the active configuration with clamped values.
func (a *Analyzer) Settings() Settings {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.settings
}

// ApplySettings reconfigures the analyzer. Out-of-range FFT size and
// overlap are clamped. Resources are only rebuilt for the parts of the
// configuration that actually changed, unless force is set; applying an
// unchanged configuration without force performs no rebuild at all.
func (a *Analyzer) ApplySettings(settings Settings, force bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	settings.FFTSize = clampFFTSize(settings.FFTSize)
	settings.OverlapPercent = clampOverlap(settings.OverlapPercent)
	fftSize := settings.FFTSize

	if fftSize != a.settings.FFTSize || force {
		if a.engine != nil {
			a.pool.Release(a.settings.FFTSize, false, a.engineSeq)
			a.engine = nil
		}

		seq, eng, err := a.pool.Acquire(fftSize, false)
		if err != nil {
			return fmt.Errorf("spectrum: acquire engine: %w", err)
		}

		a.engineSeq = seq
		a.engine = eng
		a.ofs = 20 * math.Log10(1/float64(fftSize))
		a.powFFTDiv = float64(fftSize) * float64(fftSize)
	}

	if fftSize != a.settings.FFTSize || settings.Window != a.settings.Window || force {
		a.win = window.New(settings.Window, fftSize)
	}

	if fftSize != a.settings.FFTSize || settings.OverlapPercent != a.settings.OverlapPercent || force {
		a.overlapSize = (fftSize * settings.OverlapPercent) / 100
		// every frame must consume at least one new sample or Feed
		// would spin without draining its input
		if a.overlapSize >= fftSize {
			a.overlapSize = fftSize - 1
		}
		a.refillSize = fftSize - a.overlapSize
		a.fill = a.overlapSize
	}

	if fftSize != a.settings.FFTSize ||
		settings.AveragingIndex != a.settings.AveragingIndex ||
		settings.AveragingMode != a.settings.AveragingMode || force {
		amount := AveragingValue(settings.AveragingIndex, settings.AveragingMode)

		movingDepth := amount
		if movingDepth > maxMovingDepth {
			movingDepth = maxMovingDepth
		}

		a.moving.Resize(fftSize, movingDepth)
		a.fixed.Resize(fftSize, amount)
		a.peak.Resize(fftSize, amount)
	}

	if settings.RemoteAddress != a.settings.RemoteAddress ||
		settings.RemotePort != a.settings.RemotePort || force {
		a.configureRemote(settings.RemoteAddress, settings.RemotePort)
	}

	a.settings = settings

	return nil
}

func (a *Analyzer) configureRemote(address string, port uint16) {
	if a.remote == nil {
		return
	}

	a.remote.SetListeningAddress(address)
	a.remote.SetPort(port)

	if a.remote.SocketOpened() {
		a.remote.CloseSocket()
		if err := a.remote.OpenSocket(); err != nil {
			// sink unavailability surfaces through SocketOpened
			return
		}
	}
}

// Start resumes feeding. Idempotent.
func (a *Analyzer) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.running = true
}

// Stop pauses feeding without losing configuration or accumulator state.
// Idempotent.
func (a *Analyzer) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.running = false
}

// SetScale updates the sample normalization divisor.
func (a *Analyzer) SetScale(scale float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.scale = scale
}

// SetSignalInfo updates the signal context attached to published frames.
func (a *Analyzer) SetSignalInfo(centerFrequency uint64, sampleRate int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.centerFrequency = centerFrequency
	a.sampleRate = sampleRate
}

// Close releases the transform engine. The analyzer must not be fed
// afterwards.
func (a *Analyzer) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.engine != nil {
		a.pool.Release(a.settings.FFTSize, false, a.engineSeq)
		a.engine = nil
	}
}

// Feed ingests a chunk of complex baseband samples. When positiveOnly is
// set only the lower half-spectrum is meaningful and is mirrored across
// the full display width; otherwise bins are FFT-shifted so negative
// frequencies come first.
//
// Feed never blocks: if a reconfiguration holds the lock the chunk is
// silently dropped. With no sink attached samples are discarded.
func (a *Analyzer) Feed(samples []complex128, positiveOnly bool) {
	if !a.mu.TryLock() {
		return
	}
	defer a.mu.Unlock()

	if !a.running || a.engine == nil {
		return
	}
	if a.display == nil && (a.remote == nil || !a.remote.SocketOpened()) {
		return
	}

	fftSize := a.settings.FFTSize

	for len(samples) > 0 {
		needed := fftSize - a.fill

		if len(samples) < needed {
			// not enough for a frame, stage what we have
			a.stage(samples)
			return
		}

		a.stage(samples[:needed])
		samples = samples[needed:]

		a.win.Apply(a.engine.In(), a.fftBuffer[:fftSize])
		if err := a.engine.Transform(); err != nil {
			return
		}

		a.processFrame(a.engine.Out()[:fftSize], positiveOnly)

		// retain the overlap tail, resume accumulation behind it
		copy(a.fftBuffer, a.fftBuffer[a.refillSize:fftSize])
		a.fill = a.overlapSize
	}
}

// stage scales samples into the staging buffer at the fill position.
func (a *Analyzer) stage(samples []complex128) {
	inv := 1 / a.scale
	for i, s := range samples {
		a.fftBuffer[a.fill+i] = complex(real(s)*inv, imag(s)*inv)
	}
	a.fill += len(samples)
}

// FeedTransformed ingests already-transformed FFT bins, bypassing
// windowing and frequency reordering. Bins beyond len(bins) up to the
// configured FFT size are taken as zero.
func (a *Analyzer) FeedTransformed(bins []complex128) {
	if !a.mu.TryLock() {
		return
	}
	defer a.mu.Unlock()

	if a.display == nil && (a.remote == nil || !a.remote.SocketOpened()) {
		return
	}

	fftSize := a.settings.FFTSize
	n := len(bins)
	if n > fftSize {
		n = fftSize
	}

	for i := 0; i < n; i++ {
		a.re[i] = real(bins[i])
		a.im[i] = imag(bins[i])
	}
	for i := n; i < fftSize; i++ {
		a.re[i] = 0
		a.im[i] = 0
	}
	vecmath.Power(a.power[:fftSize], a.re[:fftSize], a.im[:fftSize])

	ps := a.powerSpectrum

	switch a.settings.AveragingMode {
	case AvgModeNone:
		for i := 0; i < fftSize; i++ {
			ps[i] = a.toDisplay(a.power[i])
		}
		a.publish(fftSize)
	case AvgModeMoving:
		for i := 0; i < fftSize; i++ {
			ps[i] = a.toDisplay(a.moving.StoreAndGetAvg(a.power[i], i))
		}
		a.publish(fftSize)
		a.moving.NextAverage()
	case AvgModeFixed:
		for i := 0; i < fftSize; i++ {
			if avg, ok := a.fixed.StoreAndGetAvg(a.power[i], i); ok {
				ps[i] = a.toDisplay(avg)
			}
		}
		if a.fixed.NextAverage() {
			a.publish(fftSize)
		}
	case AvgModeMax:
		for i := 0; i < fftSize; i++ {
			if max, ok := a.peak.StoreAndGetMax(a.power[i], i); ok {
				ps[i] = a.toDisplay(max)
			}
		}
		if a.peak.NextMax() {
			a.publish(fftSize)
		}
	}
}

// processFrame converts transformed bins to display power values with
// FFT-shift reordering (or half-spectrum mirroring) and the active
// averaging policy, publishing when the policy reports a result.
func (a *Analyzer) processFrame(bins []complex128, positiveOnly bool) {
	fftSize := len(bins)
	halfSize := fftSize / 2

	for i, c := range bins {
		a.re[i] = real(c)
		a.im[i] = imag(c)
	}
	vecmath.Power(a.power[:fftSize], a.re[:fftSize], a.im[:fftSize])

	ps := a.powerSpectrum

	switch a.settings.AveragingMode {
	case AvgModeNone:
		if positiveOnly {
			for i := 0; i < halfSize; i++ {
				v := a.toDisplay(a.power[i])
				ps[2*i] = v
				ps[2*i+1] = v
			}
		} else {
			for i := 0; i < halfSize; i++ {
				ps[i] = a.toDisplay(a.power[i+halfSize])
				ps[i+halfSize] = a.toDisplay(a.power[i])
			}
		}
		a.publish(fftSize)

	case AvgModeMoving:
		if positiveOnly {
			for i := 0; i < halfSize; i++ {
				v := a.toDisplay(a.moving.StoreAndGetAvg(a.power[i], i))
				ps[2*i] = v
				ps[2*i+1] = v
			}
		} else {
			for i := 0; i < halfSize; i++ {
				ps[i] = a.toDisplay(a.moving.StoreAndGetAvg(a.power[i+halfSize], i+halfSize))
				ps[i+halfSize] = a.toDisplay(a.moving.StoreAndGetAvg(a.power[i], i))
			}
		}
		a.publish(fftSize)
		a.moving.NextAverage()

	case AvgModeFixed:
		if positiveOnly {
			for i := 0; i < halfSize; i++ {
				if avg, ok := a.fixed.StoreAndGetAvg(a.power[i], i); ok {
					v := a.toDisplay(avg)
					ps[2*i] = v
					ps[2*i+1] = v
				}
			}
		} else {
			for i := 0; i < halfSize; i++ {
				if avg, ok := a.fixed.StoreAndGetAvg(a.power[i+halfSize], i+halfSize); ok {
					ps[i] = a.toDisplay(avg)
				}
				if avg, ok := a.fixed.StoreAndGetAvg(a.power[i], i); ok {
					ps[i+halfSize] = a.toDisplay(avg)
				}
			}
		}
		if a.fixed.NextAverage() {
			a.publish(fftSize)
		}

	case AvgModeMax:
		if positiveOnly {
			for i := 0; i < halfSize; i++ {
				if max, ok := a.peak.StoreAndGetMax(a.power[i], i); ok {
					v := a.toDisplay(max)
					ps[2*i] = v
					ps[2*i+1] = v
				}
			}
		} else {
			for i := 0; i < halfSize; i++ {
				if max, ok := a.peak.StoreAndGetMax(a.power[i+halfSize], i+halfSize); ok {
					ps[i] = a.toDisplay(max)
				}
				if max, ok := a.peak.StoreAndGetMax(a.power[i], i); ok {
					ps[i+halfSize] = a.toDisplay(max)
				}
			}
		}
		if a.peak.NextMax() {
			a.publish(fftSize)
		}
	}
}

// toDisplay converts raw bin power to the displayed value: linear power
// normalized by fftSize², or dB relative to full scale.
func (a *Analyzer) toDisplay(v float64) float64 {
	if a.settings.Linear {
		return v / a.powFFTDiv
	}

	return logMult*math.Log2(v) + a.ofs
}

func (a *Analyzer) publish(fftSize int) {
	ps := a.powerSpectrum[:fftSize]

	if a.display != nil {
		a.display.NewSpectrum(ps, fftSize)
	}

	if a.remote != nil && a.remote.SocketOpened() {
		a.remote.NewSpectrum(
			ps,
			fftSize,
			a.centerFrequency,
			a.sampleRate,
			a.settings.Linear,
			a.settings.SSB,
			a.settings.USB,
		)
	}
}
