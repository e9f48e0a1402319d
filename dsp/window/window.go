package window

import (
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// Type identifies a window function.
type Type int

const (
	TypeRectangular Type = iota
	TypeBartlett
	TypeHann
	TypeHamming
	TypeBlackman
	TypeBlackmanHarris4Term
	TypeBlackmanHarris7Term
	TypeFlatTop
	TypeKaiser
)

var (
	hannCoeffs            = []float64{0.5, -0.5}
	hammingCoeffs         = []float64{0.54, -0.46}
	blackmanCoeffs        = []float64{0.42, -0.5, 0.08}
	blackmanHarris4Coeffs = []float64{0.35875, -0.48829, 0.14128, -0.01168}
	blackmanHarris7Coeffs = []float64{
		0.27105140069342, -0.43329793923448, 0.21812299954311,
		-0.06592544638803, 0.01081174209837, -0.00077658482522,
		0.00001388721735,
	}
	flatTopCoeffs = []float64{0.21557895, -0.41663158, 0.277263158, -0.083578947, 0.006947368}
)

// Option configures window generation.
type Option func(*config)

type config struct {
	beta     float64
	periodic bool
}

func defaultConfig() config {
	return config{beta: 2.36}
}

// WithBeta configures the Kaiser beta parameter.
func WithBeta(v float64) Option {
	return func(c *config) {
		if v >= 0 {
			c.beta = v
		}
	}
}

// WithPeriodic configures periodic form (FFT framing) instead of symmetric form.
func WithPeriodic() Option {
	return func(c *config) {
		c.periodic = true
	}
}

// Generate returns window coefficients of the given length.
// Unknown types fall back to rectangular.
func Generate(t Type, length int, opts ...Option) []float64 {
	if length <= 0 {
		return nil
	}

	cfg := defaultConfig()

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	out := make([]float64, length)
	for i := range out {
		x := samplePosition(i, length, cfg.periodic)
		out[i] = evalWindow(t, x, cfg)
	}

	return out
}

// Window holds precomputed coefficients for repeated frame weighting.
type Window struct {
	coeffs []float64
}

// New precomputes a window of the given type and size.
func New(t Type, size int, opts ...Option) *Window {
	return &Window{coeffs: Generate(t, size, opts...)}
}

// Size returns the window length.
func (w *Window) Size() int {
	return len(w.coeffs)
}

// Coefficients returns a copy of the window coefficients.
func (w *Window) Coefficients() []float64 {
	c := make([]float64, len(w.coeffs))
	copy(c, w.coeffs)
	return c
}

// Apply multiplies src elementwise by the window into dst.
// Both slices must be at least Size() long; extra elements are ignored.
func (w *Window) Apply(dst, src []complex128) {
	n := len(w.coeffs)
	if len(dst) < n || len(src) < n {
		return
	}
	for i := 0; i < n; i++ {
		c := w.coeffs[i]
		dst[i] = complex(real(src[i])*c, imag(src[i])*c)
	}
}

// ApplyReal multiplies src elementwise by the window into dst.
// All three lengths must match exactly.
func (w *Window) ApplyReal(dst, src []float64) error {
	if len(dst) != len(w.coeffs) || len(src) != len(w.coeffs) {
		return errMismatchedLength
	}

	vecmath.MulBlock(dst, src, w.coeffs)

	return nil
}

func evalWindow(t Type, x float64, cfg config) float64 {
	if x < 0 {
		x = 0
	}

	if x > 1 {
		x = 1
	}

	switch t {
	case TypeRectangular:
		return 1
	case TypeBartlett:
		return 1 - math.Abs(2*x-1)
	case TypeHann:
		return cosineFromCoeffs(x, hannCoeffs)
	case TypeHamming:
		return cosineFromCoeffs(x, hammingCoeffs)
	case TypeBlackman:
		return cosineFromCoeffs(x, blackmanCoeffs)
	case TypeBlackmanHarris4Term:
		return cosineFromCoeffs(x, blackmanHarris4Coeffs)
	case TypeBlackmanHarris7Term:
		return cosineFromCoeffs(x, blackmanHarris7Coeffs)
	case TypeFlatTop:
		return cosineFromCoeffs(x, flatTopCoeffs)
	case TypeKaiser:
		return kaiserAt(x, cfg.beta)
	default:
		return 1
	}
}

func cosineFromCoeffs(x float64, coeffs []float64) float64 {
	phase := 2 * math.Pi * x

	sum := 0.0
	for k, c := range coeffs {
		sum += c * math.Cos(float64(k)*phase)
	}

	return sum
}

func samplePosition(n, size int, periodic bool) float64 {
	if size <= 1 {
		return 0
	}

	den := float64(size - 1)
	if periodic {
		den = float64(size)
	}

	return float64(n) / den
}

func kaiserAt(x, beta float64) float64 {
	if beta <= 0 {
		return 1
	}

	r := 2*x - 1
	term := math.Sqrt(math.Max(0, 1-r*r))

	return besselI0(beta*term) / besselI0(beta)
}

// besselI0 returns a numerical approximation of the modified Bessel function I0.
func besselI0(x float64) float64 {
	ax := math.Abs(x)
	if ax < 3.75 {
		y := x / 3.75
		y *= y

		return 1.0 + y*(3.5156229+y*(3.0899424+y*(1.2067492+y*(0.2659732+y*(0.0360768+y*0.0045813)))))
	}

	y := 3.75 / ax

	return (math.Exp(ax) / math.Sqrt(ax)) *
		(0.39894228 + y*(0.01328592+y*(0.00225319+y*(-0.00157565+y*(0.00916281+y*(-0.02057706+y*(0.02635537+y*(-0.01647633+y*0.00392377))))))))
}
