package affect

import (
	"time"

	"github.com/pkg/errors"
)

// HistorySize is the number of windows compared by the trend stage.
const HistorySize = 3

// Window duration bounds accepted by Validate.
const (
	MinWindowDuration = 7 * time.Second
	MaxWindowDuration = 10 * time.Second
)

// Config holds the fixed analysis parameters of a pipeline.
type Config struct {
	// SampleRate of the mono input stream in Hz
	SampleRate uint32

	// WindowDuration is the wall-clock span reduced into one WindowFeatures
	WindowDuration time.Duration

	// FFTInterval is the minimum spacing between spectral centroid computations
	FFTInterval time.Duration

	// FFTSize is the number of leading samples analysed for the centroid
	FFTSize int

	Thresholds Thresholds
}

// Thresholds are the classifier cut-offs.
type Thresholds struct {
	// StablePct and ModeratePct bound |ampPct| and |freqPct| for the noise levels
	StablePct   float64 `json:"stable_pct"`
	ModeratePct float64 `json:"moderate_pct"`

	// Agitation requires all three values to be exceeded
	AgitationVarAmplitude float64 `json:"agitation_var_amplitude"`
	AgitationVarFrequency float64 `json:"agitation_var_frequency"`
	AgitationZCR          float64 `json:"agitation_zcr"`

	// Speech requires both values to be undercut
	SpeechZCR          float64 `json:"speech_zcr"`
	SpeechVarAmplitude float64 `json:"speech_var_amplitude"`
}

// DefaultThresholds returns the calibrated classifier cut-offs.
func DefaultThresholds() Thresholds {
	return Thresholds{
		StablePct:             10,
		ModeratePct:           30,
		AgitationVarAmplitude: 0.002,
		AgitationVarFrequency: 150,
		AgitationZCR:          0.15,
		SpeechZCR:             0.12,
		SpeechVarAmplitude:    0.002,
	}
}

// DefaultConfig returns the configuration used for live microphone input.
func DefaultConfig() Config {
	return Config{
		SampleRate:     44100,
		WindowDuration: 8 * time.Second,
		FFTInterval:    100 * time.Millisecond,
		FFTSize:        1024,
		Thresholds:     DefaultThresholds(),
	}
}

// Validate reports the first invalid parameter.
func (c Config) Validate() error {
	if c.SampleRate == 0 {
		return errors.New("sample rate must be positive")
	}
	if c.WindowDuration < MinWindowDuration || c.WindowDuration > MaxWindowDuration {
		return errors.Errorf("invalid window duration %s: must be between %s and %s",
			c.WindowDuration, MinWindowDuration, MaxWindowDuration)
	}
	if c.FFTInterval < 0 {
		return errors.Errorf("invalid fft interval %s", c.FFTInterval)
	}
	if c.FFTSize <= 0 {
		return errors.Errorf("invalid fft size %d", c.FFTSize)
	}
	t := c.Thresholds
	if t.StablePct < 0 || t.ModeratePct < t.StablePct {
		return errors.Errorf("invalid noise thresholds: stable %.2f, moderate %.2f", t.StablePct, t.ModeratePct)
	}
	return nil
}

// BufferBudget is the time available to process a buffer of the given
// number of frames before the next one arrives.
func (c Config) BufferBudget(frames int) time.Duration {
	if c.SampleRate == 0 || frames <= 0 {
		return 0
	}
	return time.Duration(frames) * time.Second / time.Duration(c.SampleRate)
}
