// Package affect turns a stream of audio buffers into windowed acoustic
// features and, once three windows are available, a heuristic emotion
// estimate per window.
//
// A Pipeline is not safe for concurrent use. It is meant to be driven by a
// single capture loop that finishes Process before reading the next buffer.
package affect

import (
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Clock returns the current time.
type Clock func() time.Time

// Pipeline owns the streaming state of one audio source.
type Pipeline struct {
	cfg   Config
	clock Clock
	child ChildStateSource
	sink  Sink
	log   logrus.FieldLogger

	extractor *Extractor
	acc       *Accumulator
	history   *History

	start   time.Time
	windows int
	results int
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock replaces the wall clock.
func WithClock(clock Clock) Option {
	return func(p *Pipeline) { p.clock = clock }
}

// WithStart opens the first window at start instead of the clock's now.
func WithStart(start time.Time) Option {
	return func(p *Pipeline) { p.start = start }
}

// WithSink sets where results are emitted.
func WithSink(sink Sink) Option {
	return func(p *Pipeline) { p.sink = sink }
}

// WithLogger sets the logger used for window and sink events.
func WithLogger(log logrus.FieldLogger) Option {
	return func(p *Pipeline) { p.log = log }
}

// NewPipeline validates cfg and opens the first window.
func NewPipeline(cfg Config, child ChildStateSource, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid pipeline config")
	}
	if child == nil {
		return nil, errors.New("child state source is nil")
	}

	p := &Pipeline{
		cfg:   cfg,
		clock: time.Now,
		child: child,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		p.log = l
	}

	p.extractor = NewExtractor(cfg.FFTInterval, cfg.FFTSize)
	if p.start.IsZero() {
		p.start = p.clock()
	}
	p.acc = NewAccumulator(cfg.WindowDuration, p.start)
	p.history = NewHistory()
	return p, nil
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config {
	return p.cfg
}

// Process handles one buffer at the clock's current time. See ProcessAt.
func (p *Pipeline) Process(samples []float64) (Result, bool) {
	return p.ProcessAt(samples, p.clock())
}

// ProcessAt handles one buffer received at now. Empty buffers are ignored.
// When the buffer closes a window and the history holds exactly HistorySize
// windows, the estimate is emitted to the sink and returned.
func (p *Pipeline) ProcessAt(samples []float64, now time.Time) (Result, bool) {
	if len(samples) == 0 {
		return Result{}, false
	}

	p.acc.Add(p.extractor.Extract(samples, now))

	w, closed := p.acc.Close(now)
	if !closed {
		return Result{}, false
	}
	return p.closeWindow(w)
}

func (p *Pipeline) closeWindow(w WindowFeatures) (Result, bool) {
	p.windows++
	p.history.Push(w)

	p.log.WithFields(logrus.Fields{
		"window":        p.windows,
		"avg_amplitude": w.AvgAmplitude,
		"var_amplitude": w.VarAmplitude,
		"avg_frequency": w.AvgFrequency,
		"var_frequency": w.VarFrequency,
		"avg_zcr":       w.AvgZCR,
		"history":       p.history.Len(),
	}).Debug("window closed")

	if !p.history.IsFull() {
		return Result{}, false
	}

	hist := p.history.Windows()
	metrics := Compare(hist[0], hist[1], hist[2])
	child := p.child()

	p.results++
	r := Result{
		Index:   p.results,
		Window:  w,
		Metrics: metrics,
		Noise:   p.cfg.Thresholds.ClassifyNoise(metrics.AmpPct, metrics.FreqPct),
		Context: p.cfg.Thresholds.ClassifyContext(w),
		Child:   child,
	}
	r.Emotion = EstimateEmotion(r.Noise, r.Context, child)

	if p.sink != nil {
		if err := p.sink.Emit(r); err != nil {
			p.log.WithError(err).WithField("result", r.Index).Warn("failed to emit result")
		}
	}
	return r, true
}

// Windows returns the number of windows closed so far.
func (p *Pipeline) Windows() int {
	return p.windows
}

// History returns the stored windows, oldest first.
func (p *Pipeline) History() []WindowFeatures {
	return p.history.Windows()
}

// Pending returns the number of buffers in the open window.
func (p *Pipeline) Pending() int {
	return p.acc.Pending()
}
