package update

import (
	"math"

	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/features"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/state"
)

// #region update-function
// Update is a pure function computing the next user state from the prior
// state and one feature vector. The four estimators run independently on
// the prior values; streaks, the rolling window and the interaction count
// are advanced afterwards. The prior is never modified. LastUpdated is
// carried over unchanged; the caller stamps it.
func Update(prior state.UserState, f features.Vector, config Config) Result {
	prior = prior.Clamp()
	hist := prior.History

	correct := f.Correct > 0.5
	if correct {
		hist.CorrectStreak++
		hist.ErrorStreak = 0
	} else {
		hist.ErrorStreak++
		hist.CorrectStreak = 0
	}

	blended, short, long := Cognitive(hist.ShortTerm, hist.LongTerm, f, config.Cognitive)
	hist.ShortTerm = short
	hist.LongTerm = long
	hist = hist.Push(f.Outcome(), config.WindowSize)

	next := state.UserState{
		Attention:        Attention(prior.Attention, f, config.Attention),
		Fatigue:          Fatigue(prior.Fatigue, f, hist.ErrorStreak, config.Fatigue),
		Cognitive:        blended,
		Motivation:       Motivation(prior.Motivation, f, hist.CorrectStreak, hist.ErrorStreak, config.Motivation),
		InteractionCount: prior.InteractionCount + 1,
		LastUpdated:      prior.LastUpdated,
		History:          hist,
	}.Clamp()

	return Result{
		State: next,
		Deltas: Deltas{
			Attention:  next.Attention - prior.Attention,
			Fatigue:    next.Fatigue - prior.Fatigue,
			Memory:     next.Cognitive.Memory - prior.Cognitive.Memory,
			Speed:      next.Cognitive.Speed - prior.Cognitive.Speed,
			Stability:  next.Cognitive.Stability - prior.Cognitive.Stability,
			Motivation: next.Motivation - prior.Motivation,
		},
	}
}

// #endregion update-function

// #region helpers
func unit(x float64) float64 { return bounded(x, 0, 1) }

func bounded(x, lo, hi float64) float64 {
	if math.IsNaN(x) {
		return lo
	}
	return math.Max(lo, math.Min(hi, x))
}

// #endregion helpers
