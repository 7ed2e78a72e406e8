package affect

import (
	"fmt"
	"time"

	"go.uber.org/multierr"
)

// WindowFeatures is the reduction of one analysis window.
type WindowFeatures struct {
	AvgAmplitude float64   `json:"avg_amplitude"`
	VarAmplitude float64   `json:"var_amplitude"`
	AvgFrequency float64   `json:"avg_frequency"`
	VarFrequency float64   `json:"var_frequency"`
	AvgZCR       float64   `json:"avg_zcr"`
	Timestamp    time.Time `json:"timestamp"`
}

// ComparisonMetrics are percentage deltas of the newest window against the
// mean of the two before it.
type ComparisonMetrics struct {
	AmpPct     float64 `json:"amp_pct"`
	FreqPct    float64 `json:"freq_pct"`
	VarAmpPct  float64 `json:"var_amp_pct"`
	VarFreqPct float64 `json:"var_freq_pct"`
}

// NoiseLevel grades how much the acoustic trend moved.
type NoiseLevel int

const (
	NoiseStable NoiseLevel = iota
	NoiseModerate
	NoiseHigh
)

func (n NoiseLevel) String() string {
	switch n {
	case NoiseStable:
		return "stable"
	case NoiseModerate:
		return "moderate"
	case NoiseHigh:
		return "high"
	default:
		return fmt.Sprintf("NoiseLevel(%d)", int(n))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (n NoiseLevel) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

// AudioContext is the acoustic setting inferred from a single window.
type AudioContext int

const (
	ContextUncertain AudioContext = iota
	ContextAgitationNoise
	ContextSpeechOrNormal
)

func (c AudioContext) String() string {
	switch c {
	case ContextUncertain:
		return "uncertain"
	case ContextAgitationNoise:
		return "agitation_noise"
	case ContextSpeechOrNormal:
		return "speech_or_normal"
	default:
		return fmt.Sprintf("AudioContext(%d)", int(c))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c AudioContext) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// ChildState carries the externally known parameters of the monitored child.
type ChildState struct {
	// EmotionalRigidity in [0, 1]; higher values flatten the estimate
	EmotionalRigidity float64 `json:"emotional_rigidity"`

	// Distraction level in [0, 4]
	Distraction int `json:"distraction"`
}

// Validate checks both parameters are in range.
func (s ChildState) Validate() error {
	if s.EmotionalRigidity < 0 || s.EmotionalRigidity > 1 {
		return fmt.Errorf("emotional rigidity %.3f out of range [0, 1]", s.EmotionalRigidity)
	}
	if s.Distraction < 0 || s.Distraction > 4 {
		return fmt.Errorf("distraction %d out of range [0, 4]", s.Distraction)
	}
	return nil
}

// ChildStateSource is read once per estimate.
type ChildStateSource func() ChildState

// FixedChildState returns a source that always reports s.
func FixedChildState(s ChildState) ChildStateSource {
	return func() ChildState { return s }
}

// EmotionEstimate is a probability distribution over the five labels.
type EmotionEstimate struct {
	Neutral float64 `json:"neutral"`
	Angry   float64 `json:"angry"`
	Happy   float64 `json:"happy"`
	Sad     float64 `json:"sad"`
	Anxious float64 `json:"anxious"`
}

// EmotionLabels lists the estimate fields in vector order.
var EmotionLabels = [5]string{"neutral", "angry", "happy", "sad", "anxious"}

// Vector returns the probabilities in EmotionLabels order.
func (e EmotionEstimate) Vector() [5]float64 {
	return [5]float64{e.Neutral, e.Angry, e.Happy, e.Sad, e.Anxious}
}

// Dominant returns the label with the highest probability. Ties resolve to
// the earlier label.
func (e EmotionEstimate) Dominant() string {
	v := e.Vector()
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return EmotionLabels[best]
}

// Result is emitted once per window once the history is full.
type Result struct {
	Index   int               `json:"index"`
	Window  WindowFeatures    `json:"window"`
	Metrics ComparisonMetrics `json:"metrics"`
	Noise   NoiseLevel        `json:"noise_level"`
	Context AudioContext      `json:"audio_context"`
	Child   ChildState        `json:"child"`
	Emotion EmotionEstimate   `json:"emotion"`
}

// Sink receives pipeline results.
type Sink interface {
	Emit(Result) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Result) error

// Emit calls f(r).
func (f SinkFunc) Emit(r Result) error {
	return f(r)
}

// MultiSink emits to every sink and combines their errors.
type MultiSink []Sink

// Emit delivers r to all sinks even if some fail.
func (m MultiSink) Emit(r Result) error {
	var err error
	for _, s := range m {
		err = multierr.Append(err, s.Emit(r))
	}
	return err
}
