package update

import "github.com/danielpatrickdp/adaptive-learning/go-engine/internal/state"

// #region estimator-configs
// AttentionConfig weights the logistic attention signal.
type AttentionConfig struct {
	Smoothing         float64 `mapstructure:"smoothing"` // EMA weight of the new signal
	Bias              float64 `mapstructure:"bias"`
	WeightRT          float64 `mapstructure:"weight_rt"`
	WeightPause       float64 `mapstructure:"weight_pause"`
	WeightSwitch      float64 `mapstructure:"weight_switch"`
	WeightFocus       float64 `mapstructure:"weight_focus"`
	WeightVariability float64 `mapstructure:"weight_variability"`
	WeightAccuracy    float64 `mapstructure:"weight_accuracy"`
}

// FatigueConfig drives cumulative fatigue growth and recovery.
type FatigueConfig struct {
	ErrorWeight       float64 `mapstructure:"error_weight"`
	RTWeight          float64 `mapstructure:"rt_weight"`
	StreakWeight      float64 `mapstructure:"streak_weight"`
	StreakSaturation  float64 `mapstructure:"streak_saturation"` // error streak at which the streak term maxes out
	DecayRate         float64 `mapstructure:"decay_rate"`        // k in F·e^{-k}
	StableRTDeviation float64 `mapstructure:"stable_rt_deviation"`
	RestDecayRate     float64 `mapstructure:"rest_decay_rate"`  // per idle minute
	RestMinMinutes    float64 `mapstructure:"rest_min_minutes"` // shorter gaps do not count as rest
	RestMaxMinutes    float64 `mapstructure:"rest_max_minutes"` // longer gaps count as this many minutes
}

// CognitiveConfig controls the short/long-term fusion.
type CognitiveConfig struct {
	ShortAlpha  float64 `mapstructure:"short_alpha"`
	LongAlpha   float64 `mapstructure:"long_alpha"`
	ShortWeight float64 `mapstructure:"short_weight"`
}

// MotivationConfig controls the reinforcement-style motivation tracker.
type MotivationConfig struct {
	Retention         float64 `mapstructure:"retention"`
	SuccessGain       float64 `mapstructure:"success_gain"`
	FailurePenalty    float64 `mapstructure:"failure_penalty"`
	HesitationPenalty float64 `mapstructure:"hesitation_penalty"`
	StreakScale       float64 `mapstructure:"streak_scale"`
	StreakBonusCap    float64 `mapstructure:"streak_bonus_cap"`
	ErrorStreakScale  float64 `mapstructure:"error_streak_scale"`
}

// Config bundles all estimator parameters.
type Config struct {
	Attention  AttentionConfig  `mapstructure:"attention"`
	Fatigue    FatigueConfig    `mapstructure:"fatigue"`
	Cognitive  CognitiveConfig  `mapstructure:"cognitive"`
	Motivation MotivationConfig `mapstructure:"motivation"`
	WindowSize int              `mapstructure:"window_size"`
}

// DefaultConfig returns the standard estimator parameters.
func DefaultConfig() Config {
	return Config{
		Attention: AttentionConfig{
			Smoothing:         0.3,
			Bias:              1.0,
			WeightRT:          1.2,
			WeightPause:       1.5,
			WeightSwitch:      2.0,
			WeightFocus:       1.5,
			WeightVariability: 0.8,
			WeightAccuracy:    1.0,
		},
		Fatigue: FatigueConfig{
			ErrorWeight:       0.04,
			RTWeight:          0.03,
			StreakWeight:      0.05,
			StreakSaturation:  5,
			DecayRate:         0.05,
			StableRTDeviation: 0.34,
			RestDecayRate:     0.05,
			RestMinMinutes:    5,
			RestMaxMinutes:    30,
		},
		Cognitive: CognitiveConfig{
			ShortAlpha:  0.3,
			LongAlpha:   0.02,
			ShortWeight: 0.4,
		},
		Motivation: MotivationConfig{
			Retention:         0.9,
			SuccessGain:       0.1,
			FailurePenalty:    0.15,
			HesitationPenalty: 0.05,
			StreakScale:       10,
			StreakBonusCap:    0.5,
			ErrorStreakScale:  5,
		},
		WindowSize: 10,
	}
}

// #endregion estimator-configs

// #region result
// Deltas records the change of each estimated dimension for one event.
type Deltas struct {
	Attention  float64 `json:"attention"`
	Fatigue    float64 `json:"fatigue"`
	Memory     float64 `json:"memory"`
	Speed      float64 `json:"speed"`
	Stability  float64 `json:"stability"`
	Motivation float64 `json:"motivation"`
}

// Result bundles everything returned by Update.
type Result struct {
	State  state.UserState
	Deltas Deltas
}

// #endregion result
