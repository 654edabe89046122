package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/state"
)

func newBuilder() *Builder { return NewBuilder(DefaultConfig()) }

func assertBounded(t *testing.T, v Vector) {
	t.Helper()
	vals := v.Slice()
	require.Len(t, vals, Dim)
	for i, x := range vals {
		require.False(t, math.IsNaN(x) || math.IsInf(x, 0), "feature %d not finite", i)
		assert.GreaterOrEqual(t, x, -1.0, "feature %d", i)
		assert.LessOrEqual(t, x, 1.0, "feature %d", i)
	}
}

func TestBuild_TypicalEvent(t *testing.T) {
	v := newBuilder().Build(RawEvent{Correct: true, ResponseTimeMs: 3000, DwellTimeMs: 6000}, nil)
	assertBounded(t, v)
	assert.Equal(t, 1.0, v.Correct)
	assert.Equal(t, 1.0, v.WindowAccuracy)
	assert.InDelta(t, 0.0, v.RTDeviation, 1e-9)
	assert.InDelta(t, 0.1, v.RTNorm, 1e-9)
	assert.InDelta(t, 2.0/3.0, v.Speed, 1e-9)
	assert.Empty(t, v.Anomalies)
}

func TestBuild_RepairsMalformed(t *testing.T) {
	tests := []struct {
		name    string
		ev      RawEvent
		anomaly string
	}{
		{"zero rt", RawEvent{ResponseTimeMs: 0}, "response_time_missing"},
		{"negative rt", RawEvent{ResponseTimeMs: -50}, "response_time_missing"},
		{"sentinel rt", RawEvent{ResponseTimeMs: 999999999}, "response_time_clamped"},
		{"negative dwell", RawEvent{ResponseTimeMs: 1000, DwellTimeMs: -1}, "dwell_time_negative"},
		{"negative pauses", RawEvent{ResponseTimeMs: 1000, PauseCount: -3}, "pause_count_negative"},
		{"huge counts", RawEvent{ResponseTimeMs: 1000, PauseCount: 500, SwitchCount: 500, RetryCount: 500}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newBuilder().Build(tt.ev, nil)
			assertBounded(t, v)
			if tt.anomaly != "" {
				assert.Contains(t, v.Anomalies, tt.anomaly)
			}
		})
	}
}

func TestBuild_ImputedRTIsNeutral(t *testing.T) {
	v := newBuilder().Build(RawEvent{ResponseTimeMs: -1, Correct: true}, nil)
	assert.InDelta(t, 0.0, v.RTDeviation, 1e-9)
}

func TestBuild_WindowStats(t *testing.T) {
	window := []state.Outcome{
		{Correct: true, RTNorm: 0.1},
		{Correct: false, RTNorm: 0.1},
		{Correct: true, RTNorm: 0.1},
	}
	v := newBuilder().Build(RawEvent{Correct: false, ResponseTimeMs: 6000}, window)
	assertBounded(t, v)
	assert.InDelta(t, 0.5, v.WindowAccuracy, 1e-9)
	assert.InDelta(t, 1.0, v.RTTrend, 1e-9)
	assert.Greater(t, v.RTVariability, 0.0)
}

func TestBuild_Deterministic(t *testing.T) {
	ev := RawEvent{Correct: true, ResponseTimeMs: 4200, PauseCount: 2, SwitchCount: 1, FocusLossMs: 300}
	window := []state.Outcome{{Correct: true, RTNorm: 0.12}}
	assert.Equal(t, newBuilder().Build(ev, window), newBuilder().Build(ev, window))
}
