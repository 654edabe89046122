package bandit

import (
	"gonum.org/v1/gonum/mat"

	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/catalog"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/state"
)

// Normalizers for the action part of the context.
const (
	maxInterval = 2.0
	maxRatio    = 0.4
)

// BuildContext assembles the d=12 context vector for a (state, action) pair:
//
//	[attention, fatigue, memory, speed, stability, motivation01 |
//	 interval, ratio | (1-fatigue)·ratio, memory·interval | attention·ratio | 1]
//
// Action fields are scaled to [0,1] by the catalog maxima.
func BuildContext(s state.UserState, a catalog.Action) *mat.VecDense {
	interval := a.IntervalScale / maxInterval
	ratio := a.NewRatio / maxRatio
	motivation := (s.Motivation + 1) / 2

	return mat.NewVecDense(Dim, []float64{
		s.Attention,
		s.Fatigue,
		s.Cognitive.Memory,
		s.Cognitive.Speed,
		s.Cognitive.Stability,
		motivation,
		interval,
		ratio,
		(1 - s.Fatigue) * ratio,
		s.Cognitive.Memory * interval,
		s.Attention * ratio,
		1,
	})
}
