package affect

import (
	"math"

	"github.com/emmett/affect/internal/dsp"
)

// uniformFloor is the value every probability is pulled towards by rigidity.
const uniformFloor = 0.2

// emotionPrior is the neutral-biased starting point, in EmotionLabels order.
var emotionPrior = [5]float64{0.4, 0.1, 0.2, 0.1, 0.2}

const (
	idxNeutral = iota
	idxAngry
	idxHappy
	idxSad
	idxAnxious
)

// EstimateEmotion scores the five labels from the classified trend and the
// child's state and returns a normalised distribution.
func EstimateEmotion(noise NoiseLevel, ctx AudioContext, child ChildState) EmotionEstimate {
	p := emotionPrior

	switch noise {
	case NoiseModerate:
		p[idxAnxious] += 0.15
		p[idxSad] += 0.05
	case NoiseHigh:
		p[idxAnxious] += 0.3
		p[idxAngry] += 0.15
	}

	if ctx == ContextAgitationNoise {
		p[idxAnxious] += 0.2
	}

	if child.Distraction >= 3 {
		p[idxSad] += 0.1
		p[idxAnxious] += 0.1
	}

	r := clamp01(child.EmotionalRigidity)
	for i := range p {
		p[i] = p[i]*(1-r) + uniformFloor*r
	}

	dsp.Normalize(p[:])

	return EmotionEstimate{
		Neutral: p[idxNeutral],
		Angry:   p[idxAngry],
		Happy:   p[idxHappy],
		Sad:     p[idxSad],
		Anxious: p[idxAnxious],
	}
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
