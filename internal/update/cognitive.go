package update

import (
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/features"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/state"
)

// CognitiveSignal derives the instantaneous memory/speed/stability reading for one event.
func CognitiveSignal(f features.Vector) state.CognitiveProfile {
	p := f.WindowAccuracy
	consistency := 1 - 4*p*(1-p)
	return state.CognitiveProfile{
		Memory:    unit(0.5*f.Correct + 0.5*f.WindowAccuracy),
		Speed:     unit(f.Speed),
		Stability: unit(0.5*consistency + 0.5*(1-f.RTVariability)),
	}
}

// Cognitive advances the short- and long-term estimates and returns the
// blended profile together with both components.
func Cognitive(short, long state.CognitiveProfile, f features.Vector, c CognitiveConfig) (blended, nextShort, nextLong state.CognitiveProfile) {
	sig := CognitiveSignal(f)
	nextShort = ema(short, sig, c.ShortAlpha)
	nextLong = ema(long, sig, c.LongAlpha)

	w := c.ShortWeight
	blended = state.CognitiveProfile{
		Memory:    unit(w*nextShort.Memory + (1-w)*nextLong.Memory),
		Speed:     unit(w*nextShort.Speed + (1-w)*nextLong.Speed),
		Stability: unit(w*nextShort.Stability + (1-w)*nextLong.Stability),
	}
	return blended, nextShort, nextLong
}

func ema(prev, sig state.CognitiveProfile, alpha float64) state.CognitiveProfile {
	return state.CognitiveProfile{
		Memory:    unit(alpha*sig.Memory + (1-alpha)*prev.Memory),
		Speed:     unit(alpha*sig.Speed + (1-alpha)*prev.Speed),
		Stability: unit(alpha*sig.Stability + (1-alpha)*prev.Stability),
	}
}
