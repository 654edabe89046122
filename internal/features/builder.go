package features

import (
	"math"

	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/state"
)

// #region builder

// Builder turns raw events into normalized feature vectors.
type Builder struct {
	config Config
}

// NewBuilder creates a Builder with the given normalization constants.
func NewBuilder(config Config) *Builder {
	return &Builder{config: config}
}

// Config returns the builder's configuration.
func (b *Builder) Config() Config { return b.config }

// #endregion builder

// #region build

// Build cleans ev and computes its feature vector against the window of prior
// outcomes. It never fails: malformed fields are repaired and reported in
// Vector.Anomalies.
func (b *Builder) Build(ev RawEvent, window []state.Outcome) Vector {
	clean, anomalies := b.Clean(ev)
	c := b.config

	rt := float64(clean.ResponseTimeMs)
	v := Vector{
		RTNorm:      unit(rt / c.MaxRTMs),
		RTDeviation: bounded((rt-c.ExpectedRTMs)/c.RTStdMs/3, -1, 1),
		Speed:       1 - unit(rt/(3*c.ExpectedRTMs)),
		PauseRate:   unit(float64(clean.PauseCount) / c.MaxPauseCount),
		SwitchRate:  unit(float64(clean.SwitchCount) / c.MaxSwitchCount),
		DwellNorm:   unit(float64(clean.DwellTimeMs) / c.MaxDwellMs),
		RetryNorm:   unit(float64(clean.RetryCount) / c.MaxRetryCount),
		FocusLoss:   unit(float64(clean.FocusLossMs) / c.MaxFocusLossMs),
		Anomalies:   anomalies,
	}
	if clean.Correct {
		v.Correct = 1
	}

	v.WindowAccuracy = windowAccuracy(window, clean.Correct)
	v.RTTrend = rtTrend(window, v.RTNorm)
	v.RTVariability = rtVariability(window, v.RTNorm)
	return v
}

// Outcome is the window entry recorded for a built vector.
func (v Vector) Outcome() state.Outcome {
	return state.Outcome{Correct: v.Correct > 0.5, RTNorm: v.RTNorm}
}

// #endregion build

// #region clean

// Clean repairs out-of-range raw fields. Missing or negative response times are
// imputed with the expected response time; oversized ones are clamped.
func (b *Builder) Clean(ev RawEvent) (RawEvent, []string) {
	var anomalies []string
	c := b.config

	switch {
	case ev.ResponseTimeMs <= 0:
		ev.ResponseTimeMs = int64(c.ExpectedRTMs)
		anomalies = append(anomalies, "response_time_missing")
	case float64(ev.ResponseTimeMs) > c.MaxRTMs:
		ev.ResponseTimeMs = int64(c.MaxRTMs)
		anomalies = append(anomalies, "response_time_clamped")
	}
	if ev.DwellTimeMs < 0 {
		ev.DwellTimeMs = 0
		anomalies = append(anomalies, "dwell_time_negative")
	}
	if ev.FocusLossMs < 0 {
		ev.FocusLossMs = 0
		anomalies = append(anomalies, "focus_loss_negative")
	}
	if ev.PauseCount < 0 {
		ev.PauseCount = 0
		anomalies = append(anomalies, "pause_count_negative")
	}
	if ev.SwitchCount < 0 {
		ev.SwitchCount = 0
		anomalies = append(anomalies, "switch_count_negative")
	}
	if ev.RetryCount < 0 {
		ev.RetryCount = 0
		anomalies = append(anomalies, "retry_count_negative")
	}
	return ev, anomalies
}

// #endregion clean

// #region window-stats

func windowAccuracy(window []state.Outcome, current bool) float64 {
	n, correct := 1.0, 0.0
	if current {
		correct = 1
	}
	for _, o := range window {
		n++
		if o.Correct {
			correct++
		}
	}
	return correct / n
}

// rtTrend is the relative change of the current RT against the window mean.
func rtTrend(window []state.Outcome, rtNorm float64) float64 {
	if len(window) == 0 {
		return 0
	}
	mean := 0.0
	for _, o := range window {
		mean += o.RTNorm
	}
	mean /= float64(len(window))
	if mean <= 1e-9 {
		return 0
	}
	return bounded((rtNorm-mean)/mean, -1, 1)
}

// rtVariability is the coefficient of variation over window plus current.
func rtVariability(window []state.Outcome, rtNorm float64) float64 {
	if len(window) == 0 {
		return 0
	}
	values := make([]float64, 0, len(window)+1)
	for _, o := range window {
		values = append(values, o.RTNorm)
	}
	values = append(values, rtNorm)

	var mean float64
	for _, x := range values {
		mean += x
	}
	mean /= float64(len(values))
	if mean <= 1e-9 {
		return 0
	}
	var ss float64
	for _, x := range values {
		ss += (x - mean) * (x - mean)
	}
	return unit(math.Sqrt(ss/float64(len(values))) / mean)
}

// #endregion window-stats

// #region helpers

func unit(x float64) float64 { return bounded(x, 0, 1) }

func bounded(x, lo, hi float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// #endregion helpers
