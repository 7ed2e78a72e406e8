package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gen2brain/malgo"
	"go.uber.org/multierr"
)

// MalgoCapturer implements the Capturer interface using malgo
type MalgoCapturer struct {
	config       CaptureConfig
	device       *malgo.Device
	malgoContext *malgo.AllocatedContext
	samples      chan AudioSample
	errors       chan error
	running      bool
	mu           sync.RWMutex
	stopChan     chan struct{}
}

// ErrOverflow is reported when buffers arrive faster than they are consumed
var ErrOverflow = errors.New("sample buffer overflow, dropping frames")

// NewMalgoCapturer creates a new malgo-based audio capturer
func NewMalgoCapturer(config CaptureConfig) (*MalgoCapturer, error) {
	if config.Channels != 1 {
		return nil, fmt.Errorf("unsupported channel count %d: analysis requires mono input", config.Channels)
	}
	if config.SampleRate == 0 || config.BufferFrames == 0 {
		return nil, fmt.Errorf("invalid capture config: sample rate %d, buffer frames %d",
			config.SampleRate, config.BufferFrames)
	}
	bufferSize := config.SampleBufferSize
	if bufferSize <= 0 {
		bufferSize = DefaultConfig().SampleBufferSize
	}

	return &MalgoCapturer{
		config:   config,
		samples:  make(chan AudioSample, bufferSize),
		errors:   make(chan error, 10),
		stopChan: make(chan struct{}),
	}, nil
}

// Start begins audio capture
func (m *MalgoCapturer) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return fmt.Errorf("capturer is already running")
	}
	m.running = true
	m.mu.Unlock()

	// Initialize malgo context
	malgoCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		m.mu.Lock()
		m.running = false
		m.mu.Unlock()
		return fmt.Errorf("failed to initialize malgo context: %w", err)
	}
	m.malgoContext = malgoCtx

	// Configure device
	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16 // 16-bit signed integer
	deviceConfig.Capture.Channels = m.config.Channels
	if m.config.DeviceID != "" {
		id, err := m.findDeviceID(m.config.DeviceID)
		if err != nil {
			m.releaseContext()
			return err
		}
		deviceConfig.Capture.DeviceID = id.Pointer()
	}
	deviceConfig.SampleRate = m.config.SampleRate
	deviceConfig.PeriodSizeInFrames = m.config.BufferFrames

	// Data callback - called when audio data is available
	var dataCallback malgo.DeviceCallbacks
	dataCallback.Data = func(pOutputSample, pInputSamples []byte, framecount uint32) {
		// Copy the input samples to avoid data races
		dataCopy := make([]byte, len(pInputSamples))
		copy(dataCopy, pInputSamples)

		sample := AudioSample{
			Data:      dataCopy,
			Timestamp: time.Now(),
			Frames:    framecount,
		}

		// Non-blocking send to samples channel
		select {
		case m.samples <- sample:
		default:
			// Channel is full, log or handle overflow
			select {
			case m.errors <- ErrOverflow:
			default:
			}
		}
	}

	// Initialize device
	device, err := malgo.InitDevice(m.malgoContext.Context, deviceConfig, dataCallback)
	if err != nil {
		m.releaseContext()
		return fmt.Errorf("failed to initialize device: %w", err)
	}
	m.device = device

	// Start the device
	err = device.Start()
	if err != nil {
		device.Uninit()
		m.releaseContext()
		return fmt.Errorf("failed to start device: %w", err)
	}

	// Stop when the context ends; Stop itself never waits on this goroutine
	go func() {
		select {
		case <-ctx.Done():
			_ = m.Stop()
		case <-m.stopChan:
		}
	}()

	return nil
}

// Stop stops audio capture
func (m *MalgoCapturer) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = false
	m.mu.Unlock()

	// Signal stop
	close(m.stopChan)

	var err error

	// Stop the device
	if m.device != nil {
		if stopErr := m.device.Stop(); stopErr != nil {
			err = multierr.Append(err, fmt.Errorf("failed to stop device: %w", stopErr))
		}
		m.device.Uninit()
	}

	// Uninitialize malgo context
	if m.malgoContext != nil {
		if uninitErr := m.malgoContext.Uninit(); uninitErr != nil {
			err = multierr.Append(err, fmt.Errorf("failed to release audio context: %w", uninitErr))
		}
		m.malgoContext.Free()
	}

	// Close channels
	close(m.samples)
	close(m.errors)

	return err
}

// Samples returns a channel that receives audio samples
func (m *MalgoCapturer) Samples() <-chan AudioSample {
	return m.samples
}

// Errors returns a channel that receives capture errors
func (m *MalgoCapturer) Errors() <-chan error {
	return m.errors
}

// IsRunning returns true if capture is currently active
func (m *MalgoCapturer) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

// findDeviceID resolves a device ID ("capture-N") or name to a malgo device ID
func (m *MalgoCapturer) findDeviceID(idOrName string) (malgo.DeviceID, error) {
	infos, err := m.malgoContext.Devices(malgo.Capture)
	if err != nil {
		return malgo.DeviceID{}, fmt.Errorf("failed to enumerate devices: %w", err)
	}

	for i, info := range infos {
		if deviceID(i) == idOrName || info.Name() == idOrName {
			return info.ID, nil
		}
	}
	return malgo.DeviceID{}, fmt.Errorf("device not found: %s", idOrName)
}

// releaseContext frees the malgo context after a failed start
func (m *MalgoCapturer) releaseContext() {
	_ = m.malgoContext.Uninit()
	m.malgoContext.Free()
	m.malgoContext = nil

	m.mu.Lock()
	m.running = false
	m.mu.Unlock()
}
