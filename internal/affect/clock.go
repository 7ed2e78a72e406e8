package affect

import "time"

// SampleClock derives time from the number of frames consumed, so recorded
// audio closes windows by audio time rather than by how fast it is read.
type SampleClock struct {
	origin     time.Time
	sampleRate uint32
	frames     int64
}

// NewSampleClock starts a clock at origin.
func NewSampleClock(origin time.Time, sampleRate uint32) *SampleClock {
	return &SampleClock{origin: origin, sampleRate: sampleRate}
}

// Advance moves the clock forward by frames and returns the new time.
func (c *SampleClock) Advance(frames int) time.Time {
	c.frames += int64(frames)
	return c.Now()
}

// Now returns the time after all consumed frames.
func (c *SampleClock) Now() time.Time {
	if c.sampleRate == 0 {
		return c.origin
	}
	return c.origin.Add(time.Duration(c.frames) * time.Second / time.Duration(c.sampleRate))
}
