package ciccomp

import (
	"fmt"

	"github.com/cwbudde/algo-sdr/dsp/filter/fir"
	"github.com/cwbudde/algo-sdr/dsp/window"
)

// Core executes a block convolution over the buffers it was built with.
type Core interface {
	Execute()
	Flush()
}

// CoreFactory builds a convolution core from freshly synthesized taps
// (interleaved re/im pairs) bound to the given input and output buffers.
// minPhase is a hint for cores that resynthesize minimum-phase taps; the
// default direct-form core uses the linear-phase taps as given.
type CoreFactory func(taps []float64, in, out []complex128, minPhase bool) (Core, error)

// DefaultCoreFactory backs stages with the direct-form complex FIR.
func DefaultCoreFactory(taps []float64, in, out []complex128, minPhase bool) (Core, error) {
	return fir.NewBlock(taps, in, out)
}

// FastCoreFactory backs stages with overlap-save fast convolution, which
// wins for long tap sets at larger block sizes.
func FastCoreFactory(taps []float64, in, out []complex128, minPhase bool) (Core, error) {
	return fir.NewOverlapSave(taps, in, out)
}

// StageConfig is the full parameter set of a compensation stage. Any
// change to it rebuilds the filter from scratch.
type StageConfig struct {
	Run          bool         // when false Execute bypasses the filter
	Size         int          // complex samples per block
	Taps         int          // impulse response length
	MinPhase     bool         // minimum-phase hint for the core
	In           []complex128 // input buffer, at least Size long
	Out          []complex128 // output buffer, at least Size long
	RunRate      int
	CICRate      int
	DiffDelay    int
	Interp       int
	Pairs        int
	Cutoff       float64
	Transition   TransitionType
	TransitionBW float64
	Window       window.Type
}

// Stage owns a synthesized compensation filter and its convolution core.
//
// It is either idle (no core, after a failed rebuild) or active. Every
// parameter change tears the core down and rebuilds it from a fresh
// impulse response; there is no incremental coefficient update.
type Stage struct {
	cfg     StageConfig
	factory CoreFactory
	core    Core
}

// NewStage builds a stage in the active state. A nil factory selects
// DefaultCoreFactory. Construction failure returns the design or core
// error and no stage.
func NewStage(cfg StageConfig, factory CoreFactory) (*Stage, error) {
	if factory == nil {
		factory = DefaultCoreFactory
	}

	s := &Stage{cfg: cfg, factory: factory}
	if err := s.rebuild(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Stage) rebuild() error {
	s.core = nil

	if s.cfg.Size <= 0 {
		return fmt.Errorf("ciccomp: stage block size must be > 0: %d", s.cfg.Size)
	}
	if len(s.cfg.In) < s.cfg.Size || len(s.cfg.Out) < s.cfg.Size {
		return fmt.Errorf("ciccomp: stage buffers (%d/%d) must cover block size %d",
			len(s.cfg.In), len(s.cfg.Out), s.cfg.Size)
	}

	spec := Spec{
		Taps:         s.cfg.Taps,
		DiffDelay:    s.cfg.DiffDelay,
		Interp:       s.cfg.Interp,
		Pairs:        s.cfg.Pairs,
		RunRate:      float64(s.cfg.RunRate),
		CICRate:      float64(s.cfg.CICRate),
		Cutoff:       s.cfg.Cutoff,
		Transition:   s.cfg.Transition,
		TransitionBW: s.cfg.TransitionBW,
		Window:       s.cfg.Window,
	}

	// overlap-save FFT normalization of the consuming core
	scale := 1.0 / float64(2*s.cfg.Size)

	taps, err := Impulse(spec, scale)
	if err != nil {
		return err
	}

	core, err := s.factory(taps, s.cfg.In[:s.cfg.Size], s.cfg.Out[:s.cfg.Size], s.cfg.MinPhase)
	if err != nil {
		return fmt.Errorf("ciccomp: build core: %w", err)
	}

	s.core = core

	return nil
}

// Active reports whether the stage holds a built core.
func (s *Stage) Active() bool {
	return s.core != nil
}

// Execute runs one block. With the run flag set it convolves through the
// core; otherwise it copies input to output, or does nothing when both
// buffers are the same.
func (s *Stage) Execute() {
	if s.cfg.Run && s.core != nil {
		s.core.Execute()
		return
	}

	if len(s.cfg.In) == 0 || len(s.cfg.Out) == 0 || &s.cfg.In[0] == &s.cfg.Out[0] {
		return
	}

	copy(s.cfg.Out[:s.cfg.Size], s.cfg.In[:s.cfg.Size])
}

// Flush clears the core's convolution history, e.g. on a stream
// discontinuity.
func (s *Stage) Flush() {
	if s.core != nil {
		s.core.Flush()
	}
}

// SetRun toggles the operate flag without rebuilding the filter.
func (s *Stage) SetRun(run bool) {
	s.cfg.Run = run
}

// SetBuffers rebinds the input and output buffers and rebuilds.
func (s *Stage) SetBuffers(in, out []complex128) error {
	s.cfg.In = in
	s.cfg.Out = out
	return s.rebuild()
}

// SetSampleRate changes the running sample rate and rebuilds.
func (s *Stage) SetSampleRate(rate int) error {
	s.cfg.RunRate = rate
	return s.rebuild()
}

// SetOutputRate changes the CIC-interface sample rate and rebuilds.
func (s *Stage) SetOutputRate(rate int) error {
	s.cfg.CICRate = rate
	return s.rebuild()
}

// SetSize changes the block size and rebuilds.
func (s *Stage) SetSize(n int) error {
	s.cfg.Size = n
	return s.rebuild()
}

// SetTaps changes the impulse response length and rebuilds.
func (s *Stage) SetTaps(n int) error {
	s.cfg.Taps = n
	return s.rebuild()
}

// Config returns the current stage configuration.
func (s *Stage) Config() StageConfig {
	return s.cfg
}
