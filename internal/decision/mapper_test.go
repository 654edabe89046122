package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/catalog"
)

func action(t *testing.T, interval, ratio float64) catalog.Action {
	t.Helper()
	a, ok := catalog.Default().Find(interval, ratio)
	require.True(t, ok)
	return a
}

func TestMap_FromUnsetPrevious(t *testing.T) {
	m := NewMapper(DefaultConfig())
	got := m.Map(action(t, 1.0, 0.2), catalog.StrategyParams{})
	assert.Equal(t, catalog.DefaultStrategy(), got)
}

func TestMap_BoundedStep(t *testing.T) {
	m := NewMapper(DefaultConfig())
	prev := catalog.StrategyParams{IntervalScale: 0.5, NewRatio: 0.1, Difficulty: catalog.DifficultyEasy, BatchSize: 5, HintLevel: 2}
	got := m.Map(action(t, 2.0, 0.4), prev)

	assert.InDelta(t, 1.25, got.IntervalScale, 1e-9)
	assert.InDelta(t, 0.25, got.NewRatio, 1e-9)
	assert.Equal(t, catalog.DifficultyMid, got.Difficulty, "easy→hard must pass through mid")
	assert.Equal(t, 11, got.BatchSize)
	assert.Equal(t, 1, got.HintLevel)
}

func TestMap_ConvergesToTarget(t *testing.T) {
	m := NewMapper(DefaultConfig())
	target := action(t, 0.5, 0.1)
	s := catalog.StrategyParams{IntervalScale: 2.0, NewRatio: 0.4, Difficulty: catalog.DifficultyHard, BatchSize: 16, HintLevel: 0}

	prev := s
	for i := 0; i < 12; i++ {
		s = m.Map(target, s)
		assert.LessOrEqual(t, absRank(s.Difficulty, prev.Difficulty), 1)
		prev = s
	}
	assert.Equal(t, target.Strategy(), s)
}

func TestMap_Deterministic(t *testing.T) {
	m := NewMapper(DefaultConfig())
	prev := catalog.DefaultStrategy()
	a := action(t, 1.5, 0.3)
	assert.Equal(t, m.Map(a, prev), m.Map(a, prev))
}

func TestApproachInt(t *testing.T) {
	assert.Equal(t, 8, approachInt(8, 8, 0.5))
	assert.Equal(t, 9, approachInt(8, 9, 0.5))
	assert.Equal(t, 7, approachInt(8, 7, 0.1))
	assert.Equal(t, 12, approachInt(8, 16, 0.5))
}

func absRank(a, b catalog.Difficulty) int {
	d := a.Rank() - b.Rank()
	if d < 0 {
		return -d
	}
	return d
}
