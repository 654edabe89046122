package update

import (
	"math"
	"time"

	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/features"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/state"
)

// Fatigue accumulates load from errors, slow responses and error streaks.
// Growth is scaled by the remaining headroom (1-F), so it saturates below 1.
// Recovery is an exponential decay applied only on stable events: correct and
// no slower than StableRTDeviation.
func Fatigue(prior float64, f features.Vector, errorStreak int, c FatigueConfig) float64 {
	errTerm := 1 - f.Correct
	rtTerm := math.Max(f.RTDeviation, 0)
	streakTerm := 0.0
	if c.StreakSaturation > 0 {
		streakTerm = math.Min(float64(errorStreak)/c.StreakSaturation, 1)
	}

	base := prior
	if f.Correct > 0.5 && f.RTDeviation < c.StableRTDeviation {
		base = prior * math.Exp(-c.DecayRate)
	}

	rise := (c.ErrorWeight*errTerm + c.RTWeight*rtTerm + c.StreakWeight*streakTerm) * (1 - prior)
	return unit(base + rise)
}

// Rest decays fatigue for the idle time between the prior state's last event
// and at, as F·e^{-k·minutes}. Gaps up to RestMinMinutes change nothing and
// gaps beyond RestMaxMinutes are capped, so rest lowers fatigue without
// resetting it. Only Fatigue is touched.
func Rest(prior state.UserState, at time.Time, c FatigueConfig) state.UserState {
	if prior.LastUpdated.IsZero() || at.IsZero() {
		return prior
	}
	minutes := at.Sub(prior.LastUpdated).Minutes()
	if minutes <= c.RestMinMinutes {
		return prior
	}
	minutes = math.Min(minutes, c.RestMaxMinutes)
	prior.Fatigue = unit(prior.Fatigue * math.Exp(-c.RestDecayRate*minutes))
	return prior
}
