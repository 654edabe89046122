package engine

import (
	"math"

	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/features"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/state"
)

// #region reward-types

// RewardInput is what a reward function sees: the state before and after the
// event that followed the credited action, and that event's features.
type RewardInput struct {
	Prior    state.UserState
	Next     state.UserState
	Features features.Vector
}

// RewardFunc scores the previous action. Results are clamped to [-1,1].
type RewardFunc func(in RewardInput) float64

// RewardWeights weight the components of the default reward.
type RewardWeights struct {
	Accuracy  float64 `mapstructure:"accuracy"`
	Speed     float64 `mapstructure:"speed"`
	Fatigue   float64 `mapstructure:"fatigue"`
	Stability float64 `mapstructure:"stability"`
}

// DefaultRewardWeights returns 0.5/0.2/0.15/0.15.
func DefaultRewardWeights() RewardWeights {
	return RewardWeights{
		Accuracy:  0.5,
		Speed:     0.2,
		Fatigue:   0.15,
		Stability: 0.15,
	}
}

// #endregion

// #region default-reward

// fatigueReliefGain scales a fatigue drop into [-1,1]; a 0.2 change saturates.
const fatigueReliefGain = 5.0

// WeightedReward builds the default reward: a weighted mix of correctness,
// speed, fatigue relief and stability, rescaled from [0,1] to [-1,1].
func WeightedReward(w RewardWeights) RewardFunc {
	total := w.Accuracy + w.Speed + w.Fatigue + w.Stability
	return func(in RewardInput) float64 {
		if total <= 0 {
			return 0
		}
		relief := 0.5 + 0.5*clamp(fatigueReliefGain*(in.Prior.Fatigue-in.Next.Fatigue), -1, 1)
		score := w.Accuracy*in.Features.Correct +
			w.Speed*in.Features.Speed +
			w.Fatigue*relief +
			w.Stability*in.Next.Cognitive.Stability
		return clamp(2*score/total-1, -1, 1)
	}
}

// #endregion

// #region helpers

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(lo, math.Min(hi, v))
}

// #endregion
