package update

import (
	"math"

	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/features"
)

// Attention blends a logistic distraction signal into the prior estimate.
// Only slower-than-expected responses count against attention.
func Attention(prior float64, f features.Vector, c AttentionConfig) float64 {
	z := c.Bias -
		c.WeightRT*math.Max(f.RTDeviation, 0) -
		c.WeightPause*f.PauseRate -
		c.WeightSwitch*f.SwitchRate -
		c.WeightFocus*f.FocusLoss -
		c.WeightVariability*f.RTVariability +
		c.WeightAccuracy*(f.WindowAccuracy-0.5)

	signal := 1 / (1 + math.Exp(-z))
	return unit(c.Smoothing*signal + (1-c.Smoothing)*prior)
}
