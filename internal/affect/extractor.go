package affect

import (
	"time"

	"github.com/emmett/affect/internal/dsp"
)

// BufferFeatures are the measurements taken from one delivered buffer.
type BufferFeatures struct {
	Amplitude float64
	ZCR       float64

	// Frequency is only set when HasFrequency is true
	Frequency    float64
	HasFrequency bool
}

// Extractor measures buffers. RMS and ZCR run on every buffer, the spectral
// centroid at most once per interval.
type Extractor struct {
	fftInterval time.Duration
	fftSize     int
	lastFFT     time.Time
}

// NewExtractor creates an extractor that has never run the transform.
func NewExtractor(fftInterval time.Duration, fftSize int) *Extractor {
	return &Extractor{
		fftInterval: fftInterval,
		fftSize:     fftSize,
	}
}

// Extract measures samples received at now.
func (e *Extractor) Extract(samples []float64, now time.Time) BufferFeatures {
	f := BufferFeatures{
		Amplitude: dsp.RMS(samples),
		ZCR:       dsp.ZCR(samples),
	}

	if e.lastFFT.IsZero() || now.Sub(e.lastFFT) >= e.fftInterval {
		f.Frequency = dsp.SpectralCentroid(samples, e.fftSize)
		f.HasFrequency = true
		e.lastFFT = now
	}

	return f
}
