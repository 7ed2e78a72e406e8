package affect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func window(avgAmplitude float64) WindowFeatures {
	return WindowFeatures{AvgAmplitude: avgAmplitude}
}

func amplitudes(ws []WindowFeatures) []float64 {
	out := make([]float64, len(ws))
	for i, w := range ws {
		out[i] = w.AvgAmplitude
	}
	return out
}

func TestHistory_Fill(t *testing.T) {
	h := NewHistory()
	assert.Zero(t, h.Len())
	assert.Empty(t, h.Windows())

	h.Push(window(1))
	h.Push(window(2))
	assert.Equal(t, 2, h.Len())
	assert.False(t, h.IsFull())
	assert.Equal(t, []float64{1, 2}, amplitudes(h.Windows()))

	h.Push(window(3))
	assert.True(t, h.IsFull())
	assert.Equal(t, []float64{1, 2, 3}, amplitudes(h.Windows()))
}

func TestHistory_EvictsOldest(t *testing.T) {
	h := NewHistory()
	for i := 1; i <= 10; i++ {
		h.Push(window(float64(i)))
		require.LessOrEqual(t, h.Len(), HistorySize)

		if i >= HistorySize {
			want := []float64{float64(i - 2), float64(i - 1), float64(i)}
			assert.Equal(t, want, amplitudes(h.Windows()), "after push %d", i)
		}
	}
}

func TestHistory_WindowsIsACopy(t *testing.T) {
	h := NewHistory()
	h.Push(window(1))

	ws := h.Windows()
	ws[0].AvgAmplitude = 42
	assert.Equal(t, []float64{1}, amplitudes(h.Windows()))
}
