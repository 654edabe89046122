package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/features"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/state"
)

func TestWeightedReward(t *testing.T) {
	reward := WeightedReward(DefaultRewardWeights())

	rested := state.Default()
	rested.Fatigue = 0.3
	recovered := rested
	recovered.Fatigue = 0.1
	recovered.Cognitive.Stability = 0.9

	tired := rested
	tired.Fatigue = 0.5
	tired.Cognitive.Stability = 0.2

	tests := []struct {
		name string
		in   RewardInput
		sign int
	}{
		{"fast correct answer with recovery", RewardInput{
			Prior: rested, Next: recovered,
			Features: features.Vector{Correct: 1, Speed: 0.9},
		}, 1},
		{"slow error with fatigue spike", RewardInput{
			Prior: rested, Next: tired,
			Features: features.Vector{Correct: 0, Speed: 0.1},
		}, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := reward(tt.in)
			assert.GreaterOrEqual(t, r, -1.0)
			assert.LessOrEqual(t, r, 1.0)
			if tt.sign > 0 {
				assert.Greater(t, r, 0.5)
			} else {
				assert.Less(t, r, -0.5)
			}
		})
	}
}

func TestWeightedReward_Extremes(t *testing.T) {
	reward := WeightedReward(DefaultRewardWeights())
	s := state.Default()
	best := s
	best.Fatigue = 0
	best.Cognitive.Stability = 1
	prior := s
	prior.Fatigue = 0.5

	assert.InDelta(t, 1.0, reward(RewardInput{Prior: prior, Next: best, Features: features.Vector{Correct: 1, Speed: 1}}), 1e-12)
	assert.Zero(t, WeightedReward(RewardWeights{})(RewardInput{}))
}
