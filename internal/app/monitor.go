package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/emmett/affect/internal/affect"
	"github.com/emmett/affect/internal/audio"
	"github.com/emmett/affect/internal/output"
)

// MonitorConfig holds configuration for a monitoring session
type MonitorConfig struct {
	Analysis     affect.Config
	Child        affect.ChildState
	BufferFrames uint32
	OutputFormat string
	OutputFile   string
	AudioDevice  string
	InputFile    string // replay a WAV file instead of the microphone
	Realtime     bool   // pace file replay at recording speed
}

// SessionStats summarizes a finished session
type SessionStats struct {
	Buffers int
	Dropped int
	Windows int
	Results int
	Errors  int
}

// Monitor runs audio capture through the analysis pipeline
type Monitor struct {
	config MonitorConfig
	log    logrus.FieldLogger
	hub    *Hub
	paused atomic.Bool

	// pauses carries toggles to the capture loop so that pause events
	// are written by the same goroutine as results
	pauses  chan bool
	onPause func(paused bool)
}

// NewMonitor creates a new Monitor instance
func NewMonitor(config MonitorConfig, log logrus.FieldLogger) *Monitor {
	return &Monitor{
		config: config,
		log:    log,
		hub:    NewHub(),
		pauses: make(chan bool, 8),
	}
}

// Hub returns the hub receiving every result of this monitor
func (m *Monitor) Hub() *Hub {
	return m.hub
}

// SetPaused stops or resumes feeding buffers to the pipeline. It is safe
// to call from any goroutine.
func (m *Monitor) SetPaused(paused bool) {
	m.paused.Store(paused)
	select {
	case m.pauses <- paused:
	default:
	}
}

// Run captures until ctx is done or the input is exhausted
func (m *Monitor) Run(ctx context.Context) (err error) {
	if err := m.config.Child.Validate(); err != nil {
		return fmt.Errorf("invalid child state: %w", err)
	}

	// Determine output writer
	writer := io.Writer(os.Stdout)
	if m.config.OutputFile != "" {
		outFile, fileErr := os.Create(m.config.OutputFile)
		if fileErr != nil {
			return fmt.Errorf("failed to create output file: %w", fileErr)
		}
		defer func() {
			err = multierr.Append(err, outFile.Close())
		}()
		writer = outFile
	}

	formatter, err := output.NewFormatter(m.config.OutputFormat, writer)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, formatter.Close())
	}()

	// Status messages go to stderr unless the console report owns stdout
	statusOut := output.DefaultConsoleOutput()
	if m.config.OutputFile != "" || !strings.EqualFold(m.config.OutputFormat, "console") {
		statusOut = output.NewConsoleOutput(output.ConsoleConfig{
			ShowTimestamp: true,
			Writer:        os.Stderr,
		})
	}

	start := time.Now()
	capturer, source, err := m.openCapturer(start)
	if err != nil {
		return err
	}

	pipeline, err := affect.NewPipeline(m.config.Analysis, affect.FixedChildState(m.config.Child),
		affect.WithStart(start),
		affect.WithLogger(m.log),
		affect.WithSink(affect.MultiSink{output.AsSink(formatter), m.hub}),
	)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}

	m.onPause = func(paused bool) {
		state := "resumed"
		if paused {
			state = "paused"
		}
		statusOut.Info("Analysis " + state)
		if err := formatter.WriteEvent("pause", state); err != nil {
			m.log.WithError(err).Warn("failed to write pause event")
		}
	}

	statusOut.Info(fmt.Sprintf("Analyzing %s (sample rate: %d Hz, window: %s, budget per buffer: %s)",
		source, m.config.Analysis.SampleRate, m.config.Analysis.WindowDuration,
		m.config.Analysis.BufferBudget(int(m.config.BufferFrames))))
	statusOut.Info(fmt.Sprintf("First estimate after %d windows. Press Ctrl+C to stop.", affect.HistorySize))

	if err := capturer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start capture: %w", err)
	}
	defer func() {
		err = multierr.Append(err, capturer.Stop())
	}()

	stats := m.Consume(ctx, capturer, pipeline)

	if flushErr := formatter.Flush(); flushErr != nil {
		return flushErr
	}
	statusOut.Info(fmt.Sprintf("Analysis stopped: %d buffers, %d windows, %d estimates",
		stats.Buffers, stats.Windows, stats.Results))
	if stats.Errors > 0 {
		statusOut.Error(fmt.Sprintf("%d capture errors during the session (see log)", stats.Errors))
	}
	return nil
}

func (m *Monitor) openCapturer(origin time.Time) (audio.Capturer, string, error) {
	captureConfig := audio.DefaultConfig()
	captureConfig.SampleRate = m.config.Analysis.SampleRate
	if m.config.BufferFrames > 0 {
		captureConfig.BufferFrames = m.config.BufferFrames
	}

	if m.config.InputFile != "" {
		c, err := audio.NewWavCapturer(m.config.InputFile, captureConfig, m.config.Realtime)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create capturer: %w", err)
		}
		c.SetOrigin(origin)
		return c, m.config.InputFile, nil
	}

	deviceMgr := NewDeviceManager()
	device, err := deviceMgr.SelectDevice(m.config.AudioDevice)
	if err != nil {
		return nil, "", err
	}
	captureConfig.DeviceID = device.ID

	c, err := audio.NewCapturer(captureConfig)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create capturer: %w", err)
	}
	return c, device.Name, nil
}

// Consume feeds buffers to the pipeline until ctx is done or the capturer
// closes its sample channel. Capture errors are logged and skipped.
func (m *Monitor) Consume(ctx context.Context, capturer audio.Capturer, pipeline *affect.Pipeline) SessionStats {
	var stats SessionStats
	samples, errs := capturer.Samples(), capturer.Errors()

	for {
		select {
		case <-ctx.Done():
			stats.Windows = pipeline.Windows()
			return stats

		case sample, ok := <-samples:
			if !ok {
				// The last error is sent before the sample channel closes
				m.drainErrors(errs, &stats)
				stats.Windows = pipeline.Windows()
				return stats
			}
			if m.paused.Load() {
				stats.Dropped++
				continue
			}

			stats.Buffers++
			if _, ok := pipeline.ProcessAt(sample.Samples(), sample.Timestamp); ok {
				stats.Results++
			}

		case paused := <-m.pauses:
			if m.onPause != nil {
				m.onPause(paused)
			}

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			m.captureError(err, &stats)
		}
	}
}

// drainErrors takes the errors already queued on errs without waiting for more
func (m *Monitor) drainErrors(errs <-chan error, stats *SessionStats) {
	for errs != nil {
		select {
		case err, ok := <-errs:
			if !ok {
				return
			}
			m.captureError(err, stats)
		default:
			return
		}
	}
}

func (m *Monitor) captureError(err error, stats *SessionStats) {
	stats.Errors++
	m.log.WithError(err).Warn("capture error")
}
