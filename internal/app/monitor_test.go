package app

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/emmett/affect/internal/affect"
	"github.com/emmett/affect/internal/audio"
	"github.com/emmett/affect/internal/dsp"
	"github.com/emmett/affect/internal/logging"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type fakeCapturer struct {
	samples chan audio.AudioSample
	errors  chan error
}

func newFakeCapturer() *fakeCapturer {
	return &fakeCapturer{
		samples: make(chan audio.AudioSample, 16),
		errors:  make(chan error, 16),
	}
}

func (f *fakeCapturer) Start(context.Context) error       { return nil }
func (f *fakeCapturer) Stop() error                       { return nil }
func (f *fakeCapturer) Samples() <-chan audio.AudioSample { return f.samples }
func (f *fakeCapturer) Errors() <-chan error              { return f.errors }
func (f *fakeCapturer) IsRunning() bool                   { return true }

// toneInts returns a 16-bit sine centred on the given bin of a 1024-point transform
func toneInts(n int, rms float64, bin int) []int {
	data := make([]int, n)
	for i := range data {
		data[i] = int(math.Round(32767 * rms * math.Sqrt2 * math.Sin(2*math.Pi*float64(bin)*float64(i)/1024)))
	}
	return data
}

func newTestPipeline(t *testing.T, sink affect.Sink) *affect.Pipeline {
	t.Helper()

	p, err := affect.NewPipeline(affect.DefaultConfig(), affect.FixedChildState(affect.ChildState{}),
		affect.WithStart(epoch), affect.WithSink(sink))
	require.NoError(t, err)
	return p
}

func TestMonitor_ConsumeSkipsCaptureErrors(t *testing.T) {
	t.Cleanup(func() { goleak.VerifyNone(t) })

	m := NewMonitor(MonitorConfig{}, logging.Discard())
	p := newTestPipeline(t, m.Hub())
	c := newFakeCapturer()

	c.errors <- errors.New("device hiccup")
	c.samples <- audio.AudioSample{Data: dsp.EncodePCM16(toneInts(1024, 0.1, 40)), Timestamp: epoch.Add(time.Second)}
	c.errors <- audio.ErrOverflow
	c.samples <- audio.AudioSample{Data: nil, Timestamp: epoch.Add(2 * time.Second)}
	c.samples <- audio.AudioSample{Data: dsp.EncodePCM16(toneInts(1024, 0.1, 40)), Timestamp: epoch.Add(9 * time.Second)}
	close(c.errors)
	close(c.samples)

	stats := m.Consume(context.Background(), c, p)
	assert.Equal(t, 3, stats.Buffers)
	assert.Equal(t, 1, stats.Windows)
	assert.Zero(t, stats.Results)

	hist := p.History()
	require.Len(t, hist, 1)
	assert.InDelta(t, 0.1, hist[0].AvgAmplitude, 1e-3)
}

func TestMonitor_ConsumeCountsFinalCaptureError(t *testing.T) {
	t.Cleanup(func() { goleak.VerifyNone(t) })

	// A capturer that fails sends its error and then closes both channels.
	// Run many times because select picks between ready cases at random.
	for i := 0; i < 50; i++ {
		m := NewMonitor(MonitorConfig{}, logging.Discard())
		p := newTestPipeline(t, m.Hub())
		c := newFakeCapturer()

		c.errors <- errors.New("failed to decode wav data")
		close(c.samples)
		close(c.errors)

		stats := m.Consume(context.Background(), c, p)
		require.Equal(t, 1, stats.Errors, "run %d", i)
	}
}

func TestMonitor_ConsumeDrainsQueuedErrorsWithoutWaiting(t *testing.T) {
	t.Cleanup(func() { goleak.VerifyNone(t) })

	m := NewMonitor(MonitorConfig{}, logging.Discard())
	p := newTestPipeline(t, m.Hub())
	c := newFakeCapturer()

	c.errors <- errors.New("first")
	c.errors <- errors.New("second")
	close(c.samples)

	stats := m.Consume(context.Background(), c, p)
	assert.Equal(t, 2, stats.Errors)
}

func TestMonitor_PauseEventsRunOnCaptureLoop(t *testing.T) {
	t.Cleanup(func() { goleak.VerifyNone(t) })

	m := NewMonitor(MonitorConfig{}, logging.Discard())
	p := newTestPipeline(t, m.Hub())
	c := newFakeCapturer()

	events := make(chan bool, 2)
	m.onPause = func(paused bool) { events <- paused }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan SessionStats, 1)
	go func() { done <- m.Consume(ctx, c, p) }()

	m.SetPaused(true)
	assert.True(t, <-events)
	m.SetPaused(false)
	assert.False(t, <-events)

	cancel()
	<-done
}

func TestMonitor_ConsumePaused(t *testing.T) {
	t.Cleanup(func() { goleak.VerifyNone(t) })

	m := NewMonitor(MonitorConfig{}, logging.Discard())
	p := newTestPipeline(t, m.Hub())
	c := newFakeCapturer()

	m.SetPaused(true)
	for i := 1; i <= 3; i++ {
		c.samples <- audio.AudioSample{Data: dsp.EncodePCM16(toneInts(1024, 0.1, 40)), Timestamp: epoch.Add(time.Duration(i) * 9 * time.Second)}
	}
	close(c.samples)

	stats := m.Consume(context.Background(), c, p)
	assert.Equal(t, 3, stats.Dropped)
	assert.Zero(t, stats.Buffers)
	assert.Zero(t, p.Windows())
}

func TestMonitor_ConsumeStopsOnCancel(t *testing.T) {
	t.Cleanup(func() { goleak.VerifyNone(t) })

	m := NewMonitor(MonitorConfig{}, logging.Discard())
	p := newTestPipeline(t, m.Hub())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	stats := m.Consume(ctx, newFakeCapturer(), p)
	assert.Zero(t, stats.Buffers)
}

func TestMonitor_ConsumePublishesToHub(t *testing.T) {
	t.Cleanup(func() { goleak.VerifyNone(t) })

	m := NewMonitor(MonitorConfig{}, logging.Discard())
	p := newTestPipeline(t, m.Hub())
	results, unsubscribe := m.Hub().Subscribe(4)
	defer unsubscribe()

	c := newFakeCapturer()
	for i := 1; i <= 4; i++ {
		c.samples <- audio.AudioSample{Data: dsp.EncodePCM16(toneInts(1024, 0.1, 40)), Timestamp: epoch.Add(time.Duration(i) * 8 * time.Second)}
	}
	close(c.samples)

	stats := m.Consume(context.Background(), c, p)
	assert.Equal(t, 4, stats.Windows)
	assert.Equal(t, 2, stats.Results)

	latest, ok := m.Hub().Latest()
	require.True(t, ok)
	assert.Equal(t, 2, latest.Index)
	assert.Equal(t, 1, (<-results).Index)
	assert.Equal(t, 2, (<-results).Index)
}

func writeWav(t *testing.T, path string, data []int) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, 44100, 16, 1, 1)
	require.NoError(t, enc.Write(&goaudio.IntBuffer{
		Data:           data,
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: 44100},
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
}

func TestMonitor_RunReplaysWav(t *testing.T) {
	t.Cleanup(func() { goleak.VerifyNone(t) })

	dir := t.TempDir()
	window := 8 * 44100

	var data []int
	data = append(data, toneInts(window+1024, 0.01, 50)...)
	data = append(data, toneInts(window, 0.01, 50)...)
	data = append(data, toneInts(window+8192, 0.013, 52)...)
	wavPath := filepath.Join(dir, "session.wav")
	writeWav(t, wavPath, data)

	outPath := filepath.Join(dir, "results.jsonl")
	m := NewMonitor(MonitorConfig{
		Analysis:     affect.DefaultConfig(),
		Child:        affect.ChildState{EmotionalRigidity: 0.3, Distraction: 1},
		BufferFrames: 1024,
		OutputFormat: "json",
		OutputFile:   outPath,
		InputFile:    wavPath,
	}, logging.Discard())

	require.NoError(t, m.Run(context.Background()))

	f, err := os.Open(outPath)
	require.NoError(t, err)
	defer f.Close()

	var lines []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var line map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
		lines = append(lines, line)
	}
	require.NoError(t, scanner.Err())

	require.Len(t, lines, 1)
	assert.Equal(t, "moderate", lines[0]["noise_level"])
	assert.Equal(t, "speech_or_normal", lines[0]["audio_context"])

	metrics := lines[0]["metrics"].(map[string]any)
	assert.InDelta(t, 30, metrics["amp_pct"], 1)
	assert.InDelta(t, 4, metrics["freq_pct"], 1)
}

func TestMonitor_RunRejectsInvalidChild(t *testing.T) {
	m := NewMonitor(MonitorConfig{
		Analysis: affect.DefaultConfig(),
		Child:    affect.ChildState{Distraction: 6},
	}, logging.Discard())

	assert.ErrorContains(t, m.Run(context.Background()), "invalid child state")
}
