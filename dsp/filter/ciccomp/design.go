package ciccomp

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/algo-sdr/dsp/window"
)

// TransitionType selects how the compensation magnitude behaves past the
// cutoff frequency.
type TransitionType int

const (
	// TransitionPowerLaw rolls the magnitude off as (ft/fn)^4 past cutoff.
	TransitionPowerLaw TransitionType = iota
	// TransitionRaisedCosine tapers the magnitude with a half-cosine over
	// TransitionBW and zeroes it beyond.
	TransitionRaisedCosine
)

// Spec describes a CIC-compensation FIR design.
//
// The filter runs at RunRate; CICRate is the sample rate at the interface
// to the CIC interpolator being compensated (flat interpolation stages may
// sit between the two).
type Spec struct {
	Taps         int     // impulse response length N
	DiffDelay    int     // CIC differential delay, usually 1 or 2
	Interp       int     // CIC interpolation factor R
	Pairs        int     // number of comb-integrator pairs
	RunRate      float64 // rate this filter runs at
	CICRate      float64 // rate at the CIC interface
	Cutoff       float64 // passband edge in Hz
	Transition   TransitionType
	TransitionBW float64 // raised-cosine transition width in Hz
	Window       window.Type
}

func (s Spec) validate() error {
	if s.Taps <= 0 {
		return fmt.Errorf("ciccomp: tap count must be > 0: %d", s.Taps)
	}
	if s.DiffDelay <= 0 || s.Interp <= 0 || s.Pairs <= 0 {
		return fmt.Errorf("ciccomp: CIC parameters must be > 0: DD=%d R=%d pairs=%d",
			s.DiffDelay, s.Interp, s.Pairs)
	}
	if s.RunRate <= 0 || s.CICRate <= 0 {
		return fmt.Errorf("ciccomp: rates must be > 0: run=%f cic=%f", s.RunRate, s.CICRate)
	}
	if s.Cutoff <= 0 || s.Cutoff >= s.CICRate/2 {
		return fmt.Errorf("ciccomp: cutoff must be in (0, cicRate/2): %f", s.Cutoff)
	}
	if s.Transition == TransitionRaisedCosine && s.TransitionBW < 0 {
		return fmt.Errorf("ciccomp: transition bandwidth must be >= 0: %f", s.TransitionBW)
	}

	return nil
}

// Magnitudes synthesizes the N-point discrete-frequency magnitude samples
// of the CIC-inverse compensation filter, mirrored into full length per
// the odd/even symmetry of the design. scale is folded into every in-band
// magnitude.
func Magnitudes(spec Spec, scale float64) ([]float64, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}

	n := spec.Taps
	dd := float64(spec.DiffDelay)
	r := float64(spec.Interp)

	a := make([]float64, n)
	ft := spec.Cutoff / spec.CICRate
	uSamps := (n + 1) / 2
	cSamps := int(spec.Cutoff/spec.RunRate*float64(n)) + (n+1)/2 - n/2
	xSamps := int(spec.TransitionBW / spec.RunRate * float64(n))
	offset := 0.5 - 0.5*float64((n+1)/2-n/2)
	l := spec.CICRate / spec.RunRate

	// normalize by the CIC gain at the passband edge
	tmp := dd * r * math.Sin(math.Pi*ft/r) / math.Sin(math.Pi*dd*ft)
	if tmp < 0 {
		tmp = -tmp
	}
	localScale := scale / math.Pow(tmp, float64(spec.Pairs))

	switch spec.Transition {
	case TransitionPowerLaw:
		mag := 0.0
		ri := offset
		for i := 0; i < uSamps; i++ {
			fn := ri / (l * float64(n))
			if fn <= ft {
				mag = inverseMag(fn, dd, r, spec.Pairs) * localScale
			} else {
				// fourth-order rolloff as a sample-to-sample recurrence,
				// propagated multiplicatively from the last in-band value
				mag *= (ft * ft * ft * ft) / (fn * fn * fn * fn)
			}
			a[i] = mag
			ri++
		}
	case TransitionRaisedCosine:
		taper := make([]float64, xSamps+1)
		taper[0] = 1
		if xSamps > 0 {
			delta := math.Pi / float64(xSamps)
			phs := 0.0
			for i := range taper {
				taper[i] = 0.5 * (math.Cos(phs) + 1)
				phs += delta
			}
		}

		mag := 0.0
		ri := offset
		for i := 0; i < uSamps; i++ {
			fn := ri / (l * float64(n))
			switch {
			case i < cSamps:
				mag = inverseMag(fn, dd, r, spec.Pairs) * localScale
				a[i] = mag
			case i <= cSamps+xSamps:
				a[i] = mag * taper[i-cSamps]
			default:
				a[i] = 0
			}
			ri++
		}
	default:
		return nil, fmt.Errorf("ciccomp: unknown transition type %d", spec.Transition)
	}

	// mirror the unique half; odd and even N index differently
	if n&1 == 1 {
		for i, j := uSamps, 2; i < n; i, j = i+1, j+1 {
			a[i] = a[uSamps-j]
		}
	} else {
		for i, j := uSamps, 1; i < n; i, j = i+1, j+1 {
			a[i] = a[uSamps-j]
		}
	}

	return a, nil
}

// inverseMag evaluates the CIC-inverse magnitude at normalized frequency
// fn, raised to the comb-pair count. fn == 0 is the sin(0)/0 limit, 1.
func inverseMag(fn, dd, r float64, pairs int) float64 {
	if fn == 0 {
		return 1
	}

	tmp := math.Sin(math.Pi*dd*fn) / (dd * r * math.Sin(math.Pi*fn/r))
	if tmp < 0 {
		tmp = -tmp
	}

	return math.Pow(tmp, float64(pairs))
}

// Impulse synthesizes the compensation filter impulse response by
// frequency sampling: Magnitudes, a linear-phase inverse transform, and
// window weighting. The result has exactly 2*Taps values, interleaved
// re/im pairs with zero imaginary parts.
func Impulse(spec Spec, scale float64) ([]float64, error) {
	a, err := Magnitudes(spec, scale)
	if err != nil {
		return nil, err
	}

	h, err := frequencySample(a, spec.Window)
	if err != nil {
		return nil, err
	}

	out := make([]float64, 2*len(h))
	for i, v := range h {
		out[2*i] = v
	}

	return out, nil
}

// frequencySample converts symmetric magnitude samples into linear-phase
// time-domain taps via an inverse FFT with a group delay of (N-1)/2
// samples, weighted by the given window.
func frequencySample(mags []float64, wt window.Type) ([]float64, error) {
	n := len(mags)

	plan, err := algofft.NewPlan64(n)
	if err != nil {
		return nil, fmt.Errorf("ciccomp: create inverse plan of size %d: %w", n, err)
	}

	mid := float64(n-1) / 2
	freq := make([]complex128, n)
	for k := range freq {
		phase := -2 * math.Pi * float64(k) * mid / float64(n)
		freq[k] = complex(mags[k]*math.Cos(phase), mags[k]*math.Sin(phase))
	}

	taps := make([]complex128, n)
	if err := plan.Inverse(taps, freq); err != nil {
		return nil, fmt.Errorf("ciccomp: inverse transform failed: %w", err)
	}

	coeffs := window.Generate(wt, n)
	h := make([]float64, n)
	for i := range h {
		h[i] = real(taps[i]) * coeffs[i]
	}

	return h, nil
}
