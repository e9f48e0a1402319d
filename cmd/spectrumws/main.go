// Command spectrumws serves live power spectra over websocket.
//
// It feeds a spectrum analyzer either from an IQ WAV recording (two
// channels, I and Q) or from a built-in two-tone synthesizer, and fans
// the resulting frames out to connected websocket clients.
//
// Examples:
//
//	spectrumws -wav capture.wav -center 145000000
//	spectrumws -rate 96000 -fft 2048 -window blackman -avgmode moving -avgvalue 10
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/golang/glog"

	"github.com/cwbudde/algo-sdr/dsp/fftpool"
	"github.com/cwbudde/algo-sdr/dsp/spectrum"
	"github.com/cwbudde/algo-sdr/dsp/window"
	"github.com/cwbudde/algo-sdr/export/webspectrum"
)

var (
	listenAddr = flag.String("addr", "127.0.0.1", "websocket listening address")
	listenPort = flag.Uint("port", 8887, "websocket listening port")

	fftSize  = flag.Int("fft", 1024, "FFT size (clamped to 64..4096)")
	winName  = flag.String("window", "hann", "FFT window: rectangular, bartlett, hann, hamming, blackman, blackman-harris, blackman-harris-7t, flat-top, kaiser")
	overlap  = flag.Int("overlap", 0, "FFT overlap percent (0..100)")
	avgMode  = flag.String("avgmode", "none", "averaging mode: none, moving, fixed, max")
	avgValue = flag.Int("avgvalue", 1, "averaging frame count (rounded up the 1-2-5 ladder)")
	linear   = flag.Bool("linear", false, "publish linear power instead of dB")
	ssb      = flag.Bool("ssb", false, "single-sideband display (mirrored half spectrum)")
	usb      = flag.Bool("usb", true, "upper sideband when -ssb is set")

	wavPath    = flag.String("wav", "", "IQ WAV recording to replay (2 channels: I, Q)")
	synthRate  = flag.Int("rate", 48000, "sample rate for the built-in synthesizer")
	centerFreq = flag.Uint64("center", 0, "center frequency reported with each frame")
	chunkSize  = flag.Int("chunk", 4096, "samples fed per iteration")
	loop       = flag.Bool("loop", true, "restart the WAV recording when it ends")
)

// sampleSource produces complex baseband chunks at a fixed rate.
type sampleSource interface {
	next(out []complex128) (int, error)
	rate() int
	scale() float64
}

func main() {
	flag.Parse()

	source, err := openSource()
	if err != nil {
		glog.Exitf("spectrumws: %v", err)
	}

	pool := fftpool.NewPool()

	analyzer, err := spectrum.NewAnalyzer(pool, source.scale())
	if err != nil {
		glog.Exitf("spectrumws: %v", err)
	}
	defer analyzer.Close()

	server := webspectrum.NewServer()
	analyzer.SetRemoteSink(server)

	settings := spectrum.DefaultSettings()
	settings.FFTSize = *fftSize
	settings.Window = parseWindow(*winName)
	settings.OverlapPercent = *overlap
	settings.AveragingMode = parseAvgMode(*avgMode)
	settings.AveragingIndex = spectrum.AveragingIndex(*avgValue, settings.AveragingMode)
	settings.Linear = *linear
	settings.SSB = *ssb
	settings.USB = *usb
	settings.RemoteAddress = *listenAddr
	settings.RemotePort = uint16(*listenPort)

	if err := analyzer.ApplySettings(settings, false); err != nil {
		glog.Exitf("spectrumws: %v", err)
	}

	if err := server.OpenSocket(); err != nil {
		glog.Exitf("spectrumws: %v", err)
	}
	defer server.CloseSocket()

	analyzer.SetSignalInfo(*centerFreq, source.rate())

	applied := analyzer.Settings()
	glog.Infof("spectrumws: fft=%d window=%s overlap=%d%% rate=%d",
		applied.FFTSize, *winName, applied.OverlapPercent, source.rate())

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	chunk := make([]complex128, *chunkSize)
	interval := time.Duration(float64(*chunkSize) / float64(source.rate()) * float64(time.Second))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			glog.Info("spectrumws: shutting down")
			return
		case <-ticker.C:
			n, err := source.next(chunk)
			if err != nil {
				glog.Exitf("spectrumws: source: %v", err)
			}
			if n == 0 {
				glog.Info("spectrumws: recording finished")
				return
			}
			analyzer.Feed(chunk[:n], *ssb)
		}
	}
}

func openSource() (sampleSource, error) {
	if *wavPath == "" {
		return newToneSource(*synthRate), nil
	}

	return newWAVSource(*wavPath, *loop)
}

// wavSource replays an IQ WAV recording.
type wavSource struct {
	path       string
	file       *os.File
	decoder    *wav.Decoder
	buf        *audio.IntBuffer
	sampleRate int
	fullScale  float64
	rewind     bool
}

func newWAVSource(path string, rewind bool) (*wavSource, error) {
	s := &wavSource{path: path, rewind: rewind}
	if err := s.open(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *wavSource) open() error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("open recording: %w", err)
	}

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		f.Close()
		return fmt.Errorf("invalid WAV file: %s", s.path)
	}

	format := decoder.Format()
	if format.NumChannels != 2 {
		f.Close()
		return fmt.Errorf("IQ recording must have 2 channels, got %d", format.NumChannels)
	}

	s.file = f
	s.decoder = decoder
	s.sampleRate = format.SampleRate
	s.fullScale = float64(int(1) << (decoder.BitDepth - 1))

	return nil
}

func (s *wavSource) rate() int {
	return s.sampleRate
}

func (s *wavSource) scale() float64 {
	return s.fullScale
}

func (s *wavSource) next(out []complex128) (int, error) {
	if s.buf == nil || len(s.buf.Data) != 2*len(out) {
		s.buf = &audio.IntBuffer{
			Format: s.decoder.Format(),
			Data:   make([]int, 2*len(out)),
		}
	}

	n, err := s.decoder.PCMBuffer(s.buf)
	if err != nil {
		return 0, fmt.Errorf("read recording: %w", err)
	}

	if n == 0 && s.rewind {
		s.file.Close()
		if err := s.open(); err != nil {
			return 0, err
		}
		n, err = s.decoder.PCMBuffer(s.buf)
		if err != nil {
			return 0, fmt.Errorf("read recording: %w", err)
		}
	}

	frames := n / 2
	for i := 0; i < frames; i++ {
		out[i] = complex(float64(s.buf.Data[2*i]), float64(s.buf.Data[2*i+1]))
	}

	return frames, nil
}

// toneSource synthesizes two complex tones at -20 and -40 dBFS.
type toneSource struct {
	sampleRate int
	phase1     float64
	phase2     float64
}

func newToneSource(rate int) *toneSource {
	return &toneSource{sampleRate: rate}
}

func (s *toneSource) rate() int {
	return s.sampleRate
}

func (s *toneSource) scale() float64 {
	return 1
}

func (s *toneSource) next(out []complex128) (int, error) {
	d1 := 2 * math.Pi * 0.1  // +0.1 of sample rate
	d2 := -2 * math.Pi * 0.2 // -0.2 of sample rate

	for i := range out {
		out[i] = complex(
			0.1*math.Cos(s.phase1)+0.01*math.Cos(s.phase2),
			0.1*math.Sin(s.phase1)+0.01*math.Sin(s.phase2),
		)
		s.phase1 += d1
		s.phase2 += d2
	}

	s.phase1 = math.Mod(s.phase1, 2*math.Pi)
	s.phase2 = math.Mod(s.phase2, 2*math.Pi)

	return len(out), nil
}

func parseWindow(name string) window.Type {
	switch strings.ToLower(name) {
	case "rectangular":
		return window.TypeRectangular
	case "bartlett":
		return window.TypeBartlett
	case "hann":
		return window.TypeHann
	case "hamming":
		return window.TypeHamming
	case "blackman":
		return window.TypeBlackman
	case "blackman-harris":
		return window.TypeBlackmanHarris4Term
	case "blackman-harris-7t":
		return window.TypeBlackmanHarris7Term
	case "flat-top":
		return window.TypeFlatTop
	case "kaiser":
		return window.TypeKaiser
	default:
		glog.Warningf("spectrumws: unknown window %q, using hann", name)
		return window.TypeHann
	}
}

func parseAvgMode(name string) spectrum.AveragingMode {
	switch strings.ToLower(name) {
	case "none":
		return spectrum.AvgModeNone
	case "moving":
		return spectrum.AvgModeMoving
	case "fixed":
		return spectrum.AvgModeFixed
	case "max":
		return spectrum.AvgModeMax
	default:
		glog.Warningf("spectrumws: unknown averaging mode %q, using none", name)
		return spectrum.AvgModeNone
	}
}
