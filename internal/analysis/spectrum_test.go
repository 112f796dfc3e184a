package analysis

import (
	"math"
	"testing"
)

func TestFFTConstantSignal(t *testing.T) {
	data := []float64{1, 1, 1, 1}
	result := FFT(data)

	// All energy in the DC bin.
	if math.Abs(real(result[0])-4.0) > 1e-9 {
		t.Errorf("expected DC bin 4, got %f", real(result[0]))
	}
	for i := 1; i < len(result); i++ {
		if math.Abs(real(result[i])) > 1e-9 || math.Abs(imag(result[i])) > 1e-9 {
			t.Errorf("bin %d: expected zero, got %v", i, result[i])
		}
	}
}

func TestFFTOddLengthPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for odd length")
		}
	}()
	FFT([]float64{1, 2, 3})
}

func TestDominantFrequency(t *testing.T) {
	// 2 Hz sine sampled at 64 Hz for 2 seconds.
	dt := 1.0 / 64.0
	data := make([]float64, 128)
	for i := range data {
		data[i] = math.Sin(2 * math.Pi * 2.0 * float64(i) * dt)
	}

	f := DominantFrequency(data, dt)
	if math.Abs(f-2.0) > 0.5 {
		t.Errorf("expected dominant frequency near 2 Hz, got %f", f)
	}
}

func TestSpectrumRemovesMean(t *testing.T) {
	dt := 1.0 / 32.0
	data := make([]float64, 140)
	for i := range data {
		data[i] = 5.0 + math.Sin(2*math.Pi*4.0*float64(i)*dt)
	}

	// 140 samples truncate to 128; the offset must not leak into DC.
	power, freqs := Spectrum(data, dt)
	if len(power) != 64 {
		t.Fatalf("expected 64 bins, got %d", len(power))
	}
	if power[0] > 1e-6 {
		t.Errorf("expected empty DC bin, got %f", power[0])
	}
	if freqs[1] != 1.0/(128.0*dt) {
		t.Errorf("unexpected bin spacing: %f", freqs[1])
	}
}

func TestSpectrumTooShort(t *testing.T) {
	power, freqs := Spectrum([]float64{1}, 0.1)
	if power != nil || freqs != nil {
		t.Error("expected nil spectrum for a one-sample series")
	}
}
