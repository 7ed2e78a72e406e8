package affect

import (
	"time"

	"github.com/emmett/affect/internal/dsp"
)

// Accumulator collects buffer features until the window duration has
// elapsed and then reduces them into a WindowFeatures.
type Accumulator struct {
	duration    time.Duration
	start       time.Time
	amplitudes  []float64
	frequencies []float64
	zcrs        []float64
}

// NewAccumulator opens the first window at start.
func NewAccumulator(duration time.Duration, start time.Time) *Accumulator {
	return &Accumulator{
		duration: duration,
		start:    start,
	}
}

// Add appends the features of one buffer to the open window.
func (a *Accumulator) Add(f BufferFeatures) {
	a.amplitudes = append(a.amplitudes, f.Amplitude)
	a.zcrs = append(a.zcrs, f.ZCR)
	if f.HasFrequency {
		a.frequencies = append(a.frequencies, f.Frequency)
	}
}

// Pending returns the number of buffers in the open window.
func (a *Accumulator) Pending() int {
	return len(a.amplitudes)
}

// Start returns when the open window began.
func (a *Accumulator) Start() time.Time {
	return a.start
}

// Close reduces the open window if its duration has elapsed at now, starts
// a new window at now and reports whether a window was closed.
func (a *Accumulator) Close(now time.Time) (WindowFeatures, bool) {
	if now.Sub(a.start) < a.duration {
		return WindowFeatures{}, false
	}

	w := WindowFeatures{
		AvgAmplitude: dsp.Mean(a.amplitudes),
		VarAmplitude: dsp.PopVariance(a.amplitudes),
		AvgFrequency: dsp.Mean(a.frequencies),
		VarFrequency: dsp.PopVariance(a.frequencies),
		AvgZCR:       dsp.Mean(a.zcrs),
		Timestamp:    now,
	}

	a.start = now
	a.reset()
	return w, true
}

// reset empties all three lists together, keeping their storage.
func (a *Accumulator) reset() {
	a.amplitudes = a.amplitudes[:0]
	a.frequencies = a.frequencies[:0]
	a.zcrs = a.zcrs[:0]
}
