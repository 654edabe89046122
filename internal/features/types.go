package features

import "time"

// #region raw-event

// RawEvent is one answer interaction as reported by the client.
type RawEvent struct {
	WordID         string    `json:"word_id"`
	Correct        bool      `json:"correct"`
	ResponseTimeMs int64     `json:"response_time_ms"`
	DwellTimeMs    int64     `json:"dwell_time_ms"`
	PauseCount     int       `json:"pause_count"`
	SwitchCount    int       `json:"switch_count"`
	RetryCount     int       `json:"retry_count"`
	FocusLossMs    int64     `json:"focus_loss_ms"`
	Timestamp      time.Time `json:"timestamp"`
}

// #endregion raw-event

// #region vector

// Dim is the length of Vector.Slice.
const Dim = 12

// Vector is the normalized feature vector for one event. Every field is finite;
// RTDeviation and RTTrend lie in [-1,1], all others in [0,1].
type Vector struct {
	RTNorm         float64 `json:"rt_norm"`
	RTDeviation    float64 `json:"rt_deviation"`
	Speed          float64 `json:"speed"`
	Correct        float64 `json:"correct"`
	WindowAccuracy float64 `json:"window_accuracy"`
	PauseRate      float64 `json:"pause_rate"`
	SwitchRate     float64 `json:"switch_rate"`
	DwellNorm      float64 `json:"dwell_norm"`
	RetryNorm      float64 `json:"retry_norm"`
	FocusLoss      float64 `json:"focus_loss"`
	RTTrend        float64 `json:"rt_trend"`
	RTVariability  float64 `json:"rt_variability"`

	// Anomalies lists the raw fields that had to be repaired. Not part of Slice.
	Anomalies []string `json:"anomalies,omitempty"`
}

// Slice returns the fixed-order numeric form of v.
func (v Vector) Slice() []float64 {
	return []float64{
		v.RTNorm, v.RTDeviation, v.Speed, v.Correct, v.WindowAccuracy, v.PauseRate,
		v.SwitchRate, v.DwellNorm, v.RetryNorm, v.FocusLoss, v.RTTrend, v.RTVariability,
	}
}

// #endregion vector

// #region config

// Config holds the normalization constants for the builder.
type Config struct {
	ExpectedRTMs   float64 `mapstructure:"expected_rt_ms"` // population mean response time
	RTStdMs        float64 `mapstructure:"rt_std_ms"`      // population std of response time
	MaxRTMs        float64 `mapstructure:"max_rt_ms"`      // responses above this are clamped
	MaxDwellMs     float64 `mapstructure:"max_dwell_ms"`
	MaxFocusLossMs float64 `mapstructure:"max_focus_loss_ms"`
	MaxPauseCount  float64 `mapstructure:"max_pause_count"`
	MaxSwitchCount float64 `mapstructure:"max_switch_count"`
	MaxRetryCount  float64 `mapstructure:"max_retry_count"`
	WindowSize     int     `mapstructure:"window_size"`
}

// DefaultConfig returns the standard normalization constants.
func DefaultConfig() Config {
	return Config{
		ExpectedRTMs:   3000,
		RTStdMs:        1500,
		MaxRTMs:        30000,
		MaxDwellMs:     60000,
		MaxFocusLossMs: 10000,
		MaxPauseCount:  10,
		MaxSwitchCount: 5,
		MaxRetryCount:  5,
		WindowSize:     10,
	}
}

// #endregion config
