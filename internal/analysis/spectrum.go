// Package analysis extracts frequency content from recorded motion
// series, for spotting oscillation modes in joint coordinates.
package analysis

import (
	"math"
	"math/cmplx"
)

// FFT computes the discrete Fourier transform of the series with a
// recursive radix-2 split. The input length must be a power of two; use
// [Spectrum] for arbitrary-length series.
func FFT(data []float64) []complex128 {
	n := len(data)
	if n <= 1 {
		result := make([]complex128, n)
		for i := range data {
			result[i] = complex(data[i], 0)
		}
		return result
	}

	if n%2 != 0 {
		panic("fft requires power of 2 length")
	}

	even := make([]float64, n/2)
	odd := make([]float64, n/2)
	for i := 0; i < n/2; i++ {
		even[i] = data[2*i]
		odd[i] = data[2*i+1]
	}

	feven := FFT(even)
	fodd := FFT(odd)

	result := make([]complex128, n)
	for k := 0; k < n/2; k++ {
		w := cmplx.Exp(complex(0, -2*math.Pi*float64(k)/float64(n)))
		result[k] = feven[k] + w*fodd[k]
		result[k+n/2] = feven[k] - w*fodd[k]
	}

	return result
}

// Spectrum returns the one-sided power spectrum of the series together
// with the frequency of each bin. The mean is removed and the series is
// truncated to the largest power-of-two length, so any recording
// straight off a run works.
func Spectrum(data []float64, dt float64) (power, freqs []float64) {
	n := 1
	for n*2 <= len(data) {
		n *= 2
	}
	if n < 2 || dt <= 0 {
		return nil, nil
	}

	var mean float64
	for _, v := range data[:n] {
		mean += v
	}
	mean /= float64(n)

	centered := make([]float64, n)
	for i, v := range data[:n] {
		centered[i] = v - mean
	}

	fft := FFT(centered)
	power = make([]float64, n/2)
	freqs = make([]float64, n/2)
	for i := range power {
		power[i] = cmplx.Abs(fft[i])
		freqs[i] = float64(i) / (float64(n) * dt)
	}
	return power, freqs
}

// DominantFrequency picks the strongest non-DC bin of the spectrum.
// It returns 0 for series too short to analyze.
func DominantFrequency(data []float64, dt float64) float64 {
	power, freqs := Spectrum(data, dt)
	if len(power) < 2 {
		return 0
	}

	best := 1
	for i := 2; i < len(power); i++ {
		if power[i] > power[best] {
			best = i
		}
	}
	return freqs[best]
}
