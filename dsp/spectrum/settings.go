package spectrum

import "github.com/cwbudde/algo-sdr/dsp/window"

// FFT size bounds enforced by clamping, never by rejection.
const (
	MinFFTSize = 64
	MaxFFTSize = 4096
)

// maxMovingDepth caps the moving-average ring to bound memory.
const maxMovingDepth = 1000

// AveragingMode selects the power averaging policy.
type AveragingMode int

const (
	AvgModeNone AveragingMode = iota
	AvgModeMoving
	AvgModeFixed
	AvgModeMax
)

// Settings is the full spectrum analyzer configuration. Zero values are
// not useful; start from DefaultSettings.
type Settings struct {
	FFTSize        int
	Window         window.Type
	OverlapPercent int
	AveragingMode  AveragingMode
	AveragingIndex int
	Linear         bool // linear power scale instead of dB
	SSB            bool // single-sideband display
	USB            bool // upper sideband when SSB
	RefLevel       float64
	PowerRange     float64
	RemoteAddress  string
	RemotePort     uint16
}

// DefaultSettings returns the analyzer defaults.
func DefaultSettings() Settings {
	return Settings{
		FFTSize:        1024,
		Window:         window.TypeHann,
		OverlapPercent: 0,
		AveragingMode:  AvgModeNone,
		AveragingIndex: 0,
		RefLevel:       0,
		PowerRange:     100,
		RemoteAddress:  "127.0.0.1",
		RemotePort:     8887,
	}
}

func clampFFTSize(size int) int {
	if size < MinFFTSize {
		return MinFFTSize
	}
	if size > MaxFFTSize {
		return MaxFFTSize
	}
	return size
}

func clampOverlap(percent int) int {
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}

// AveragingValue maps an averaging index to the frame count of the
// 1-2-5 ladder: 1, 2, 5, 10, 20, 50, 100, ...
func AveragingValue(index int, mode AveragingMode) int {
	if mode == AvgModeNone || index <= 0 {
		return 1
	}

	v := index - 1
	m := 1
	for i := 0; i < v/3; i++ {
		m *= 10
	}

	switch v % 3 {
	case 0:
		return 2 * m
	case 1:
		return 5 * m
	default:
		return 10 * m
	}
}

// AveragingIndex is the inverse of AveragingValue: the smallest index
// whose ladder value covers the requested frame count.
func AveragingIndex(value int, mode AveragingMode) int {
	if mode == AvgModeNone || value <= 1 {
		return 0
	}

	for index := 1; ; index++ {
		if AveragingValue(index, mode) >= value {
			return index
		}
	}
}
