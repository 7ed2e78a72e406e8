package affect

import (
	"math"

	"github.com/emmett/affect/internal/dsp"
)

// Compare measures the newest window w3 against the mean of w1 and w2.
func Compare(w1, w2, w3 WindowFeatures) ComparisonMetrics {
	baseline := func(a, b float64) float64 { return dsp.Mean([]float64{a, b}) }

	return ComparisonMetrics{
		AmpPct:     dsp.PercentDiff(baseline(w1.AvgAmplitude, w2.AvgAmplitude), w3.AvgAmplitude),
		FreqPct:    dsp.PercentDiff(baseline(w1.AvgFrequency, w2.AvgFrequency), w3.AvgFrequency),
		VarAmpPct:  dsp.PercentDiff(baseline(w1.VarAmplitude, w2.VarAmplitude), w3.VarAmplitude),
		VarFreqPct: dsp.PercentDiff(baseline(w1.VarFrequency, w2.VarFrequency), w3.VarFrequency),
	}
}

// ClassifyNoise grades the amplitude and frequency trend.
func (t Thresholds) ClassifyNoise(ampPct, freqPct float64) NoiseLevel {
	amp, freq := math.Abs(ampPct), math.Abs(freqPct)

	if amp < t.StablePct && freq < t.StablePct {
		return NoiseStable
	}
	if amp < t.ModeratePct || freq < t.ModeratePct {
		return NoiseModerate
	}
	return NoiseHigh
}

// ClassifyContext infers the acoustic setting of a single window. Rules are
// checked in order; anything unmatched, NaN included, is uncertain.
func (t Thresholds) ClassifyContext(w WindowFeatures) AudioContext {
	if w.VarAmplitude > t.AgitationVarAmplitude &&
		w.VarFrequency > t.AgitationVarFrequency &&
		w.AvgZCR > t.AgitationZCR {
		return ContextAgitationNoise
	}
	if w.AvgZCR < t.SpeechZCR && w.VarAmplitude < t.SpeechVarAmplitude {
		return ContextSpeechOrNormal
	}
	return ContextUncertain
}

// ClassifyNoise grades a trend with the default thresholds.
func ClassifyNoise(ampPct, freqPct float64) NoiseLevel {
	return DefaultThresholds().ClassifyNoise(ampPct, freqPct)
}

// ClassifyContext classifies a window with the default thresholds.
func ClassifyContext(w WindowFeatures) AudioContext {
	return DefaultThresholds().ClassifyContext(w)
}
