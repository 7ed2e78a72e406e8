package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"go.uber.org/multierr"

	"github.com/emmett/affect/internal/dsp"
)

// WavCapturer replays a mono 16-bit WAV file as if it were a capture device.
// Buffers are timestamped by audio time starting at Origin, so a recording
// is analysed identically whether it is replayed in real time or not.
type WavCapturer struct {
	path     string
	config   CaptureConfig
	realtime bool
	origin   time.Time

	samples  chan AudioSample
	errors   chan error
	running  bool
	started  bool
	mu       sync.RWMutex
	stopOnce sync.Once
	stopChan chan struct{}
	done     chan struct{}
}

// NewWavCapturer creates a replay capturer for path. With realtime set,
// buffers are paced at the rate they were recorded.
func NewWavCapturer(path string, config CaptureConfig, realtime bool) (*WavCapturer, error) {
	if config.BufferFrames == 0 {
		return nil, fmt.Errorf("invalid capture config: buffer frames must be positive")
	}
	bufferSize := config.SampleBufferSize
	if bufferSize <= 0 {
		bufferSize = DefaultConfig().SampleBufferSize
	}

	return &WavCapturer{
		path:     path,
		config:   config,
		realtime: realtime,
		origin:   time.Now(),
		samples:  make(chan AudioSample, bufferSize),
		errors:   make(chan error, 10),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// SetOrigin sets the timestamp of the start of the recording
func (w *WavCapturer) SetOrigin(origin time.Time) {
	w.origin = origin
}

// Start opens the file, checks its format and begins delivering buffers.
// Both channels are closed once the file is exhausted or capture stops.
func (w *WavCapturer) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("capturer is already running")
	}
	w.running = true
	w.mu.Unlock()

	f, decoder, err := w.open()
	if err != nil {
		w.setRunning(false)
		return err
	}

	w.mu.Lock()
	w.started = true
	w.mu.Unlock()

	go w.replay(ctx, f, decoder)
	return nil
}

func (w *WavCapturer) open() (*os.File, *wav.Decoder, error) {
	f, err := os.Open(w.path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open wav file: %w", err)
	}

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		_ = f.Close()
		return nil, nil, fmt.Errorf("invalid wav file: %s", w.path)
	}

	switch {
	case decoder.NumChans != 1:
		err = fmt.Errorf("unsupported channel count %d: analysis requires mono input", decoder.NumChans)
	case decoder.BitDepth != 16:
		err = fmt.Errorf("unsupported bit depth %d: expected 16-bit PCM", decoder.BitDepth)
	case decoder.SampleRate != w.config.SampleRate:
		err = fmt.Errorf("sample rate mismatch: file is %d Hz, analysis expects %d Hz",
			decoder.SampleRate, w.config.SampleRate)
	}
	if err == nil {
		err = decoder.FwdToPCM()
	}
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}

	return f, decoder, nil
}

func (w *WavCapturer) replay(ctx context.Context, f *os.File, decoder *wav.Decoder) {
	var err error
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			err = multierr.Append(err, fmt.Errorf("failed to close wav file: %w", closeErr))
		}
		if err != nil {
			select {
			case w.errors <- err:
			default:
			}
		}
		w.setRunning(false)
		close(w.samples)
		close(w.errors)
		close(w.done)
	}()

	buf := &goaudio.IntBuffer{
		Data:   make([]int, w.config.BufferFrames),
		Format: &goaudio.Format{NumChannels: 1, SampleRate: int(w.config.SampleRate)},
	}
	interval := time.Duration(w.config.BufferFrames) * time.Second / time.Duration(w.config.SampleRate)

	var ticker *time.Ticker
	if w.realtime {
		ticker = time.NewTicker(interval)
		defer ticker.Stop()
	}

	var frames int64
	for {
		n, readErr := decoder.PCMBuffer(buf)
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			err = fmt.Errorf("failed to decode wav data: %w", readErr)
			return
		}
		if n == 0 {
			return
		}

		frames += int64(n)
		sample := AudioSample{
			Data:      dsp.EncodePCM16(buf.Data[:n]),
			Timestamp: w.origin.Add(time.Duration(frames) * time.Second / time.Duration(w.config.SampleRate)),
			Frames:    uint32(n),
		}

		if ticker != nil {
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			case <-w.stopChan:
				return
			}
		}

		select {
		case w.samples <- sample:
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		}
	}
}

// Stop ends the replay and waits for delivery to finish
func (w *WavCapturer) Stop() error {
	w.stopOnce.Do(func() { close(w.stopChan) })

	w.mu.RLock()
	started := w.started
	w.mu.RUnlock()
	if started {
		<-w.done
	}
	return nil
}

// Samples returns a channel that receives audio samples
func (w *WavCapturer) Samples() <-chan AudioSample {
	return w.samples
}

// Errors returns a channel that receives replay errors
func (w *WavCapturer) Errors() <-chan error {
	return w.errors
}

// IsRunning returns true while buffers are being delivered
func (w *WavCapturer) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

func (w *WavCapturer) setRunning(running bool) {
	w.mu.Lock()
	w.running = running
	w.mu.Unlock()
}
