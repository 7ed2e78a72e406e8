package affect

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestExtractor_Throttle(t *testing.T) {
	e := NewExtractor(100*time.Millisecond, 4)
	samples := []float64{0.1, -0.1, 0.1, -0.1}

	var computed []time.Duration
	for _, at := range []time.Duration{0, 50, 99, 100, 150, 199, 200, 450} {
		f := e.Extract(samples, epoch.Add(at*time.Millisecond))
		assert.InDelta(t, 0.1, f.Amplitude, 1e-12)
		assert.InDelta(t, 0.75, f.ZCR, 1e-12)
		if f.HasFrequency {
			computed = append(computed, at)
		}
	}

	assert.Equal(t, []time.Duration{0, 100, 200, 450}, computed)
}

func TestAccumulator_ClosesAfterDuration(t *testing.T) {
	a := NewAccumulator(8*time.Second, epoch)

	a.Add(BufferFeatures{Amplitude: 0.1, ZCR: 0.1, Frequency: 10, HasFrequency: true})
	_, closed := a.Close(epoch.Add(7999 * time.Millisecond))
	require.False(t, closed)

	a.Add(BufferFeatures{Amplitude: 0.3, ZCR: 0.3})
	a.Add(BufferFeatures{Amplitude: 0.2, ZCR: 0.2, Frequency: 30, HasFrequency: true})
	assert.Equal(t, 3, a.Pending())

	end := epoch.Add(8 * time.Second)
	w, closed := a.Close(end)
	require.True(t, closed)

	assert.InDelta(t, 0.2, w.AvgAmplitude, 1e-12)
	assert.InDelta(t, 0.02/3, w.VarAmplitude, 1e-12)
	assert.InDelta(t, 20, w.AvgFrequency, 1e-12)
	assert.InDelta(t, 100, w.VarFrequency, 1e-12)
	assert.InDelta(t, 0.2, w.AvgZCR, 1e-12)
	assert.Equal(t, end, w.Timestamp)

	assert.Zero(t, a.Pending())
	assert.Equal(t, end, a.Start())
}

func TestAccumulator_EmptyWindow(t *testing.T) {
	a := NewAccumulator(8*time.Second, epoch)

	w, closed := a.Close(epoch.Add(9 * time.Second))
	require.True(t, closed)
	assert.Zero(t, w.AvgAmplitude)
	assert.Zero(t, w.VarAmplitude)
	assert.Zero(t, w.AvgFrequency)
	assert.Zero(t, w.VarFrequency)
	assert.Zero(t, w.AvgZCR)
}

func TestAccumulator_ListsClearedTogether(t *testing.T) {
	a := NewAccumulator(time.Second, epoch)
	a.Add(BufferFeatures{Amplitude: 1, ZCR: 1, Frequency: 1, HasFrequency: true})
	_, closed := a.Close(epoch.Add(time.Second))
	require.True(t, closed)

	a.Add(BufferFeatures{Amplitude: 0.5, ZCR: 0.5})
	w, closed := a.Close(epoch.Add(2 * time.Second))
	require.True(t, closed)

	assert.InDelta(t, 0.5, w.AvgAmplitude, 1e-12)
	assert.InDelta(t, 0.5, w.AvgZCR, 1e-12)
	assert.Zero(t, w.AvgFrequency, "no centroid carried over from the previous window")
}
