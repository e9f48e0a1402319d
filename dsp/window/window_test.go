package window

import (
	"math"
	"testing"
)

func TestGenerateRectangular(t *testing.T) {
	coeffs := Generate(TypeRectangular, 16)
	if len(coeffs) != 16 {
		t.Fatalf("length mismatch: got=%d want=16", len(coeffs))
	}

	for i, v := range coeffs {
		if v != 1 {
			t.Fatalf("coeffs[%d]=%f want=1", i, v)
		}
	}
}

func TestGenerateHannShape(t *testing.T) {
	coeffs := Generate(TypeHann, 9)

	if math.Abs(coeffs[0]) > 1e-12 || math.Abs(coeffs[8]) > 1e-12 {
		t.Fatalf("hann endpoints not zero: %f %f", coeffs[0], coeffs[8])
	}

	if math.Abs(coeffs[4]-1) > 1e-12 {
		t.Fatalf("hann peak=%f want=1", coeffs[4])
	}
}

func TestGenerateSymmetry(t *testing.T) {
	types := []Type{
		TypeBartlett, TypeHann, TypeHamming, TypeBlackman,
		TypeBlackmanHarris4Term, TypeBlackmanHarris7Term, TypeFlatTop, TypeKaiser,
	}

	for _, typ := range types {
		coeffs := Generate(typ, 64)
		for i := 0; i < 32; i++ {
			if math.Abs(coeffs[i]-coeffs[63-i]) > 1e-12 {
				t.Fatalf("type %d not symmetric at %d: %f vs %f", typ, i, coeffs[i], coeffs[63-i])
			}
		}
	}
}

func TestGeneratePeriodic(t *testing.T) {
	coeffs := Generate(TypeHann, 8, WithPeriodic())

	if math.Abs(coeffs[0]) > 1e-12 {
		t.Fatalf("periodic hann start=%f want=0", coeffs[0])
	}

	// position 4/8 is the exact peak in periodic form
	if math.Abs(coeffs[4]-1) > 1e-12 {
		t.Fatalf("periodic hann midpoint=%f want=1", coeffs[4])
	}
}

func TestGenerateDegenerateLengths(t *testing.T) {
	if out := Generate(TypeHann, 0); out != nil {
		t.Fatalf("expected nil for zero length, got %v", out)
	}

	if out := Generate(TypeHann, -3); out != nil {
		t.Fatalf("expected nil for negative length, got %v", out)
	}

	out := Generate(TypeHann, 1)
	if len(out) != 1 || math.Abs(out[0]) > 1e-12 {
		t.Fatalf("unexpected single-sample hann: %v", out)
	}
}

func TestKaiserCenterAndZeroBeta(t *testing.T) {
	coeffs := Generate(TypeKaiser, 33, WithBeta(8.6))
	if math.Abs(coeffs[16]-1) > 1e-12 {
		t.Fatalf("kaiser center=%f want=1", coeffs[16])
	}

	flat := Generate(TypeKaiser, 8, WithBeta(0))
	for i, v := range flat {
		if v != 1 {
			t.Fatalf("beta=0 kaiser[%d]=%f want=1", i, v)
		}
	}
}

func TestWindowApply(t *testing.T) {
	w := New(TypeHamming, 4)
	coeffs := w.Coefficients()

	src := []complex128{1 + 1i, 2, 3i, -1 - 2i}
	dst := make([]complex128, 4)
	w.Apply(dst, src)

	for i := range src {
		want := complex(real(src[i])*coeffs[i], imag(src[i])*coeffs[i])
		if dst[i] != want {
			t.Fatalf("dst[%d]=%v want=%v", i, dst[i], want)
		}
	}
}

func TestWindowApplyRealLengthCheck(t *testing.T) {
	w := New(TypeHann, 8)

	dst := make([]float64, 8)
	if err := w.ApplyReal(dst, make([]float64, 7)); err == nil {
		t.Fatalf("expected error for mismatched source length")
	}

	src := make([]float64, 8)
	for i := range src {
		src[i] = 2
	}
	if err := w.ApplyReal(dst, src); err != nil {
		t.Fatalf("ApplyReal error: %v", err)
	}

	coeffs := w.Coefficients()
	for i := range dst {
		if math.Abs(dst[i]-2*coeffs[i]) > 1e-12 {
			t.Fatalf("dst[%d]=%f want=%f", i, dst[i], 2*coeffs[i])
		}
	}
}
