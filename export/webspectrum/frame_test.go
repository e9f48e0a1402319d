package webspectrum

import "testing"

func TestFrameRoundTrip(t *testing.T) {
	in := Frame{
		CenterFrequency: 145_000_000,
		SampleRate:      96000,
		Linear:          true,
		USB:             true,
		Timestamp:       1724918400123,
		Power:           []float32{-120.5, -90.25, 0, 3.75},
	}

	out, err := DecodeFrame(in.Encode())
	if err != nil {
		t.Fatalf("DecodeFrame error: %v", err)
	}

	if out.CenterFrequency != in.CenterFrequency {
		t.Fatalf("CenterFrequency=%d want=%d", out.CenterFrequency, in.CenterFrequency)
	}
	if out.SampleRate != in.SampleRate {
		t.Fatalf("SampleRate=%d want=%d", out.SampleRate, in.SampleRate)
	}
	if out.Linear != in.Linear || out.SSB != in.SSB || out.USB != in.USB {
		t.Fatalf("flags mismatch: %+v", out)
	}
	if out.Timestamp != in.Timestamp {
		t.Fatalf("Timestamp=%d want=%d", out.Timestamp, in.Timestamp)
	}
	if len(out.Power) != len(in.Power) {
		t.Fatalf("bins=%d want=%d", len(out.Power), len(in.Power))
	}
	for i := range in.Power {
		if out.Power[i] != in.Power[i] {
			t.Fatalf("Power[%d]=%f want=%f", i, out.Power[i], in.Power[i])
		}
	}
}

func TestFrameRoundTripEmpty(t *testing.T) {
	in := Frame{SSB: true}

	out, err := DecodeFrame(in.Encode())
	if err != nil {
		t.Fatalf("DecodeFrame error: %v", err)
	}
	if len(out.Power) != 0 {
		t.Fatalf("bins=%d want=0", len(out.Power))
	}
	if !out.SSB || out.Linear || out.USB {
		t.Fatalf("flags mismatch: %+v", out)
	}
}

func TestDecodeFrameErrors(t *testing.T) {
	if _, err := DecodeFrame(make([]byte, headerLen-1)); err == nil {
		t.Fatalf("expected error for short frame")
	}

	f := Frame{Power: []float32{1, 2, 3}}
	payload := f.Encode()
	if _, err := DecodeFrame(payload[:len(payload)-4]); err == nil {
		t.Fatalf("expected error for truncated bins")
	}
}
