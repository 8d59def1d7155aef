package capture

import (
	"math"
	"testing"
)

func TestRMSEmpty(t *testing.T) {
	if got := RMS(nil); got != 0 {
		t.Fatalf("expected 0 for empty input, got %f", got)
	}
}

func TestRMSConstant(t *testing.T) {
	samples := []float32{0.5, 0.5, 0.5, 0.5}
	if got := RMS(samples); math.Abs(got-0.5) > 1e-6 {
		t.Fatalf("expected 0.5, got %f", got)
	}
}

func TestRMSMixedSigns(t *testing.T) {
	// Sign must not matter: RMS of (-1, 1) is 1.
	samples := []float32{-1.0, 1.0}
	if got := RMS(samples); math.Abs(got-1.0) > 1e-6 {
		t.Fatalf("expected 1.0, got %f", got)
	}
}

func TestRMSFullScaleBounded(t *testing.T) {
	samples := make([]float32, 4096)
	for i := range samples {
		samples[i] = 1.0
	}
	got := RMS(samples)
	if got < 0 || got > 1.0+1e-6 {
		t.Fatalf("expected level in [0,1], got %f", got)
	}
}
