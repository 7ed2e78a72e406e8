// Package dsp holds the per-buffer signal measurements and the small
// statistics helpers used when reducing them into windows.
package dsp

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// DefaultFFTSize is the analysis length used for the spectral centroid.
const DefaultFFTSize = 1024

// RMS returns the root-mean-square amplitude of samples.
func RMS(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}

	var sum float64
	for _, s := range samples {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// ZCR returns the fraction of adjacent sample pairs whose sign differs.
// Zero counts as non-negative.
func ZCR(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}

	crossings := 0
	for i := 1; i < len(samples); i++ {
		if (samples[i-1] >= 0) != (samples[i] >= 0) {
			crossings++
		}
	}
	return float64(crossings) / float64(len(samples))
}

// SpectralCentroid returns the magnitude-weighted mean bin index of the
// first size samples. Buffers shorter than size and silent spectra give 0.
//
// Only the lower half of the spectrum is used; the upper half mirrors it
// for real input.
func SpectralCentroid(samples []float64, size int) float64 {
	if size <= 0 || len(samples) < size {
		return 0
	}

	spectrum := fft.FFTReal(samples[:size])

	var weighted, total float64
	for i := 0; i < len(spectrum)/2; i++ {
		mag := cmplx.Abs(spectrum[i])
		weighted += float64(i) * mag
		total += mag
	}

	if total == 0 {
		return 0
	}
	return weighted / total
}
