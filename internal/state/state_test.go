package state

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_InBounds(t *testing.T) {
	s := Default()
	require.NoError(t, s.Check())
	assert.Equal(t, 0.7, s.Attention)
	assert.Equal(t, 0.0, s.Fatigue)
	assert.Equal(t, 0.5, s.Motivation)
	assert.Equal(t, 0, s.InteractionCount)
}

func TestClamp(t *testing.T) {
	s := Default()
	s.Attention = 1.7
	s.Fatigue = -0.2
	s.Motivation = math.NaN()
	s.Cognitive.Speed = 3
	s.InteractionCount = -4

	c := s.Clamp()
	require.NoError(t, c.Check())
	assert.Equal(t, 1.0, c.Attention)
	assert.Equal(t, 0.0, c.Fatigue)
	assert.Equal(t, 0.5, c.Motivation)
	assert.Equal(t, 1.0, c.Cognitive.Speed)
	assert.Equal(t, 0, c.InteractionCount)
}

func TestCheck_Reports(t *testing.T) {
	s := Default()
	s.Motivation = -1.5
	assert.ErrorContains(t, s.Check(), "motivation")

	s = Default()
	s.Cognitive.Memory = math.Inf(1)
	assert.ErrorContains(t, s.Check(), "memory")
}

func TestHistoryPush_BoundedAndImmutable(t *testing.T) {
	var h History
	for i := 0; i < 5; i++ {
		h = h.Push(Outcome{Correct: i%2 == 0, RTNorm: float64(i)}, 3)
	}
	require.Len(t, h.Recent, 3)
	assert.Equal(t, 2.0, h.Recent[0].RTNorm)
	assert.Equal(t, 4.0, h.Recent[2].RTNorm)

	before := h.Recent[0]
	next := h.Push(Outcome{RTNorm: 9}, 3)
	assert.Equal(t, before, h.Recent[0])
	assert.Equal(t, 9.0, next.Recent[2].RTNorm)
}

func TestPhaseFor(t *testing.T) {
	tests := []struct {
		count int
		want  Phase
	}{
		{0, PhaseClassification},
		{14, PhaseClassification},
		{15, PhaseExploration},
		{49, PhaseExploration},
		{50, PhaseNormal},
		{1000, PhaseNormal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PhaseFor(tt.count), "count=%d", tt.count)
	}
}
