package bandit

import (
	"errors"
	"math"

	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/catalog"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/state"
)

// #region selection
// Selection is the outcome of one action choice.
type Selection struct {
	Action    catalog.Action
	Phase     state.Phase
	Alpha     float64 // effective exploration weight; 0 for heuristic picks
	Mean      float64 // θᵗx
	Width     float64 // √(xᵗA⁻¹x)
	Score     float64 // Mean + Alpha·Width
	Heuristic bool    // chosen by the classification heuristic, not by UCB
}

// #endregion selection

// #region learner
// Learner applies the LinUCB policy over a fixed catalog. It holds no
// per-user data; models are passed in by the caller.
type Learner struct {
	config  Config
	catalog *catalog.Catalog
}

// NewLearner creates a learner for the given catalog.
func NewLearner(config Config, cat *catalog.Catalog) *Learner {
	return &Learner{config: config, catalog: cat}
}

// NewModel returns a prior model with the learner's regularization.
func (l *Learner) NewModel() *Model { return NewModel(l.config.Lambda) }

// Select picks the action for s. During classification the choice comes from
// the safe-subset heuristic; afterwards it is the UCB argmax over the whole
// catalog with ties broken toward the lowest index.
func (l *Learner) Select(m *Model, s state.UserState, phase state.Phase) Selection {
	if phase == state.PhaseClassification {
		return l.heuristic(m, s, phase)
	}

	alpha := l.config.Alpha
	if phase == state.PhaseExploration {
		alpha *= l.config.ExploreMultiplier
	}

	theta := m.Theta()
	actions := l.catalog.Actions()
	scores := make([]float64, len(actions))
	means := make([]float64, len(actions))
	widths := make([]float64, len(actions))
	for i, a := range actions {
		x := BuildContext(s, a)
		means[i] = dot(theta.RawVector().Data, x.RawVector().Data)
		widths[i] = m.Width(x)
		scores[i] = means[i] + alpha*widths[i]
	}

	best := argmax(scores)
	if best < 0 {
		return l.heuristic(m, s, phase)
	}
	return Selection{
		Action: actions[best],
		Phase:  phase,
		Alpha:  alpha,
		Mean:   means[best],
		Width:  widths[best],
		Score:  scores[best],
	}
}

// heuristic maps the state to the nearest safe-subset action: fewer new words
// when attention, fatigue or motivation look poor, longer intervals for
// stronger memory.
func (l *Learner) heuristic(m *Model, s state.UserState, phase state.Phase) Selection {
	ratio := 0.2
	if s.Attention < 0.5 || s.Fatigue >= 0.4 || s.Motivation < 0 {
		ratio = 0.1
	}
	interval := 1.0
	switch {
	case s.Cognitive.Memory >= 0.6:
		interval = 1.2
	case s.Cognitive.Memory < 0.4:
		interval = 0.8
	}

	var chosen catalog.Action
	bestDist := math.Inf(1)
	for _, a := range l.catalog.SafeSubset() {
		d := math.Abs(a.IntervalScale-interval) + math.Abs(a.NewRatio-ratio)
		if d < bestDist {
			bestDist = d
			chosen = a
		}
	}

	x := BuildContext(s, chosen)
	mean := m.Mean(x)
	return Selection{
		Action:    chosen,
		Phase:     phase,
		Mean:      mean,
		Width:     m.Width(x),
		Score:     mean,
		Heuristic: true,
	}
}

// Update credits reward to action a taken in state s. The boolean reports
// whether the model had to be reset after a failed factorization.
func (l *Learner) Update(m *Model, s state.UserState, a catalog.Action, reward float64) (bool, error) {
	err := m.Observe(BuildContext(s, a), reward)
	if errors.Is(err, ErrNotPositiveDefinite) {
		return true, err
	}
	return false, err
}

// #endregion learner

// #region helpers
// argmax returns the index of the largest non-NaN score, the lowest index on
// ties, or -1 if there is none.
func argmax(scores []float64) int {
	best := -1
	for i, s := range scores {
		if math.IsNaN(s) {
			continue
		}
		if best < 0 || s > scores[best] {
			best = i
		}
	}
	return best
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// #endregion helpers
