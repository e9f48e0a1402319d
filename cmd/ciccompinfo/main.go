// Command ciccompinfo prints a CIC-compensation FIR design.
//
// It synthesizes the compensation filter for the given CIC parameters and
// prints the designed magnitude samples alongside the frequency response
// actually achieved by the windowed taps.
//
// Examples:
//
//	ciccompinfo -taps 129 -interp 8 -pairs 4 -runrate 192000 -cicrate 1536000 -cutoff 80000
//	ciccompinfo -taps 128 -transition cosine -xbw 20000 -printtaps
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"strings"
	"text/tabwriter"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/cwbudde/algo-sdr/dsp/filter/ciccomp"
	"github.com/cwbudde/algo-sdr/dsp/window"
)

func main() {
	taps := flag.Int("taps", 129, "impulse response length")
	diffDelay := flag.Int("dd", 1, "CIC differential delay")
	interp := flag.Int("interp", 8, "CIC interpolation factor")
	pairs := flag.Int("pairs", 4, "CIC comb-integrator pairs")
	runRate := flag.Float64("runrate", 192000, "sample rate the filter runs at")
	cicRate := flag.Float64("cicrate", 1536000, "sample rate at the CIC interface")
	cutoff := flag.Float64("cutoff", 80000, "passband edge in Hz")
	transition := flag.String("transition", "power", "transition shape: power, cosine")
	xbw := flag.Float64("xbw", 20000, "raised-cosine transition width in Hz")
	winName := flag.String("window", "blackman-harris-4t", "window applied to the taps")
	points := flag.Int("points", 512, "evaluation points for the achieved response")
	printTaps := flag.Bool("printtaps", false, "print the tap values")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ciccompinfo [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Prints a CIC-compensation FIR design and its achieved response.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	spec := ciccomp.Spec{
		Taps:         *taps,
		DiffDelay:    *diffDelay,
		Interp:       *interp,
		Pairs:        *pairs,
		RunRate:      *runRate,
		CICRate:      *cicRate,
		Cutoff:       *cutoff,
		TransitionBW: *xbw,
	}

	switch strings.ToLower(*transition) {
	case "power":
		spec.Transition = ciccomp.TransitionPowerLaw
	case "cosine":
		spec.Transition = ciccomp.TransitionRaisedCosine
	default:
		fmt.Fprintf(os.Stderr, "error: unknown transition %q (use power or cosine)\n", *transition)
		os.Exit(1)
	}

	wt, ok := parseWindow(*winName)
	if !ok {
		fmt.Fprintf(os.Stderr, "error: unknown window %q\n", *winName)
		os.Exit(1)
	}
	spec.Window = wt

	mags, err := ciccomp.Magnitudes(spec, 1)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	impulse, err := ciccomp.Impulse(spec, 1)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("CIC compensation design: N=%d DD=%d R=%d pairs=%d run=%.0f cic=%.0f cutoff=%.0f\n\n",
		spec.Taps, spec.DiffDelay, spec.Interp, spec.Pairs, spec.RunRate, spec.CICRate, spec.Cutoff)

	printDesign(spec, mags, achievedResponse(impulse, *points), *points)

	if *printTaps {
		fmt.Println()
		printTapTable(impulse)
	}
}

// achievedResponse evaluates the magnitude response of the interleaved
// taps on a dense grid via a zero-padded transform.
func achievedResponse(impulse []float64, points int) []float64 {
	data := make([]complex128, points)
	for i := 0; i < len(impulse)/2 && i < points; i++ {
		data[i] = complex(impulse[2*i], impulse[2*i+1])
	}

	fft := fourier.NewCmplxFFT(points)
	coeff := fft.Coefficients(nil, data)

	mags := make([]float64, points)
	for i, c := range coeff {
		mags[i] = math.Hypot(real(c), imag(c))
	}

	return mags
}

func printDesign(spec ciccomp.Spec, mags, achieved []float64, points int) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Bin\tFreq [Hz]\tDesigned\tDesigned [dB]\tAchieved [dB]\n")
	fmt.Fprintf(tw, "---\t---------\t--------\t-------------\t-------------\n")

	n := spec.Taps
	for k := 0; k < (n+1)/2; k++ {
		freq := float64(k) / float64(n) * spec.RunRate

		// nearest dense-grid bin for the same normalized frequency
		j := int(math.Round(float64(k) / float64(n) * float64(points)))
		if j >= points {
			j = points - 1
		}

		fmt.Fprintf(tw, "%d\t%.1f\t%.6f\t%s\t%s\n",
			k, freq, mags[k], formatDB(mags[k]), formatDB(achieved[j]))
	}

	if err := tw.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to flush output: %v\n", err)
	}
}

func printTapTable(impulse []float64) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Tap\tRe\tIm\n")
	fmt.Fprintf(tw, "---\t--\t--\n")
	for i := 0; i < len(impulse)/2; i++ {
		fmt.Fprintf(tw, "%d\t%+.9f\t%+.9f\n", i, impulse[2*i], impulse[2*i+1])
	}
	if err := tw.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to flush output: %v\n", err)
	}
}

func formatDB(v float64) string {
	if v <= 0 {
		return "-inf"
	}
	return fmt.Sprintf("%.2f", 20*math.Log10(v))
}

func parseWindow(name string) (window.Type, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "rectangular":
		return window.TypeRectangular, true
	case "bartlett":
		return window.TypeBartlett, true
	case "hann":
		return window.TypeHann, true
	case "hamming":
		return window.TypeHamming, true
	case "blackman":
		return window.TypeBlackman, true
	case "blackman-harris-4t":
		return window.TypeBlackmanHarris4Term, true
	case "blackman-harris-7t":
		return window.TypeBlackmanHarris7Term, true
	case "flat-top":
		return window.TypeFlatTop, true
	case "kaiser":
		return window.TypeKaiser, true
	default:
		return window.TypeRectangular, false
	}
}
