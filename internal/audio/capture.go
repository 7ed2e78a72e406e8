package audio

import (
	"context"
	"time"

	"github.com/emmett/affect/internal/dsp"
)

// CaptureConfig holds configuration for audio capture
type CaptureConfig struct {
	// SampleRate is the number of samples per second (Hz)
	SampleRate uint32

	// Channels is the number of audio channels; analysis requires mono
	Channels uint32

	// BufferFrames is the number of frames per delivered buffer
	// It must cover the spectral analysis size for the centroid to be computed
	BufferFrames uint32

	// SampleBufferSize is the size of the channel buffer for audio samples
	SampleBufferSize int

	// DeviceID is the audio device identifier
	// Empty string = use default device
	DeviceID string
}

// DefaultConfig returns the 44.1kHz mono configuration used for analysis
func DefaultConfig() CaptureConfig {
	return CaptureConfig{
		SampleRate:       44100, // 44.1kHz
		Channels:         1,     // Mono
		BufferFrames:     1024,  // ~23ms at 44.1kHz
		SampleBufferSize: 64,    // ~1.5 seconds of buffers
		DeviceID:         "",    // Default device
	}
}

// AudioSample represents a chunk of captured audio data
type AudioSample struct {
	Data      []byte    // Raw S16LE audio data
	Timestamp time.Time // When the sample was captured
	Frames    uint32    // Number of audio frames in this sample
}

// Samples decodes the chunk into normalized samples
func (s AudioSample) Samples() []float64 {
	return dsp.DecodePCM16(s.Data)
}

// Capturer is the interface for audio capture implementations
type Capturer interface {
	// Start begins audio capture
	Start(ctx context.Context) error

	// Stop stops audio capture
	Stop() error

	// Samples returns a channel that receives audio samples
	Samples() <-chan AudioSample

	// Errors returns a channel that receives capture errors
	Errors() <-chan error

	// IsRunning returns true if capture is currently active
	IsRunning() bool
}

// NewCapturer creates a new microphone capturer with the given configuration
func NewCapturer(config CaptureConfig) (Capturer, error) {
	return NewMalgoCapturer(config)
}
