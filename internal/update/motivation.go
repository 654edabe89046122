package update

import (
	"math"

	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/features"
)

// Motivation applies retention, a streak-boosted success gain or a
// streak-weighted failure penalty, and a hesitation penalty.
func Motivation(prior float64, f features.Vector, correctStreak, errorStreak int, c MotivationConfig) float64 {
	m := c.Retention * prior

	if f.Correct > 0.5 {
		bonus := 0.0
		if c.StreakScale > 0 {
			bonus = math.Min(float64(correctStreak)/c.StreakScale, c.StreakBonusCap)
		}
		m += c.SuccessGain * (1 + bonus)
	} else {
		weight := 0.0
		if c.ErrorStreakScale > 0 {
			weight = math.Min(float64(errorStreak)/c.ErrorStreakScale, 1)
		}
		m -= c.FailurePenalty * (1 + 0.5*weight)
	}

	m -= c.HesitationPenalty * (0.5*f.RetryNorm + 0.5*f.PauseRate)
	return bounded(m, -1, 1)
}
