package webspectrum

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Frame flag bits.
const (
	flagLinear = 1 << iota
	flagSSB
	flagUSB
)

const headerLen = 8 + 4 + 4 + 1 + 8

// Frame is one published power spectrum with its signal context, as it
// travels over the wire: a fixed little-endian header followed by
// float32 bins.
type Frame struct {
	CenterFrequency uint64
	SampleRate      uint32
	Linear          bool
	SSB             bool
	USB             bool
	Timestamp       int64 // milliseconds since the Unix epoch
	Power           []float32
}

// Encode serializes the frame.
func (f *Frame) Encode() []byte {
	buf := make([]byte, headerLen+4*len(f.Power))

	binary.LittleEndian.PutUint64(buf[0:], f.CenterFrequency)
	binary.LittleEndian.PutUint32(buf[8:], f.SampleRate)
	binary.LittleEndian.PutUint32(buf[12:], uint32(len(f.Power)))

	var flags byte
	if f.Linear {
		flags |= flagLinear
	}
	if f.SSB {
		flags |= flagSSB
	}
	if f.USB {
		flags |= flagUSB
	}
	buf[16] = flags

	binary.LittleEndian.PutUint64(buf[17:], uint64(f.Timestamp))

	for i, v := range f.Power {
		binary.LittleEndian.PutUint32(buf[headerLen+4*i:], math.Float32bits(v))
	}

	return buf
}

// DecodeFrame parses a serialized frame.
func DecodeFrame(b []byte) (*Frame, error) {
	if len(b) < headerLen {
		return nil, fmt.Errorf("webspectrum: frame too short: %d bytes", len(b))
	}

	binCount := binary.LittleEndian.Uint32(b[12:])
	if len(b) != headerLen+4*int(binCount) {
		return nil, fmt.Errorf("webspectrum: frame length %d does not match %d bins", len(b), binCount)
	}

	flags := b[16]
	f := &Frame{
		CenterFrequency: binary.LittleEndian.Uint64(b[0:]),
		SampleRate:      binary.LittleEndian.Uint32(b[8:]),
		Linear:          flags&flagLinear != 0,
		SSB:             flags&flagSSB != 0,
		USB:             flags&flagUSB != 0,
		Timestamp:       int64(binary.LittleEndian.Uint64(b[17:])),
		Power:           make([]float32, binCount),
	}

	for i := range f.Power {
		f.Power[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[headerLen+4*i:]))
	}

	return f, nil
}
