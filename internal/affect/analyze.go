package affect

import (
	"time"

	"github.com/pkg/errors"
)

// Analyze runs a fresh pipeline over a complete recording, feeding it in
// buffers of bufferFrames samples on a sample-derived clock, and returns
// every result produced.
func Analyze(samples []float64, cfg Config, child ChildState, bufferFrames int, opts ...Option) ([]Result, error) {
	if bufferFrames <= 0 {
		return nil, errors.Errorf("invalid buffer size %d", bufferFrames)
	}
	if err := child.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid child state")
	}

	clock := NewSampleClock(time.Unix(0, 0).UTC(), cfg.SampleRate)
	opts = append(opts, WithClock(clock.Now))

	p, err := NewPipeline(cfg, FixedChildState(child), opts...)
	if err != nil {
		return nil, err
	}

	var results []Result
	for off := 0; off < len(samples); off += bufferFrames {
		end := min(off+bufferFrames, len(samples))
		buf := samples[off:end]
		if r, ok := p.ProcessAt(buf, clock.Advance(len(buf))); ok {
			results = append(results, r)
		}
	}
	return results, nil
}
