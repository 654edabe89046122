package gate

import "github.com/danielpatrickdp/adaptive-learning/go-engine/internal/catalog"

// #region trigger-type
// TriggerType enumerates guardrail categories, in priority order.
type TriggerType string

const (
	TriggerFatigue       TriggerType = "fatigue"
	TriggerLowMotivation TriggerType = "low_motivation"
	TriggerLowAttention  TriggerType = "low_attention"
)

// #endregion trigger-type

// #region trigger
// Trigger records one guardrail that fired.
type Trigger struct {
	Type   TriggerType `json:"type"`
	Reason string      `json:"reason"`
}

// #endregion trigger

// #region patch
// Patch is a partial strategy override. Zero fields leave the strategy alone.
type Patch struct {
	EasierDifficulty bool
	BatchDelta       int
	HintDelta        int
	NewRatioDelta    float64
	Break            bool
}

// #endregion patch

// #region gate-config
// Config holds guardrail thresholds and patch sizes.
type Config struct {
	FatigueThreshold    float64 `mapstructure:"fatigue_threshold"`    // fires when fatigue > this
	MotivationThreshold float64 `mapstructure:"motivation_threshold"` // fires when motivation < this
	AttentionThreshold  float64 `mapstructure:"attention_threshold"`  // fires when attention < this

	FatigueBatchDelta    int     `mapstructure:"fatigue_batch_delta"`
	MotivationRatioDelta float64 `mapstructure:"motivation_ratio_delta"`
	AttentionBatchDelta  int     `mapstructure:"attention_batch_delta"`

	MinBatchSize int     `mapstructure:"min_batch_size"`
	MinNewRatio  float64 `mapstructure:"min_new_ratio"`
}

// DefaultConfig returns the standard guardrail settings.
func DefaultConfig() Config {
	return Config{
		FatigueThreshold:     0.6,
		MotivationThreshold:  -0.3,
		AttentionThreshold:   0.3,
		FatigueBatchDelta:    -2,
		MotivationRatioDelta: -0.1,
		AttentionBatchDelta:  -1,
		MinBatchSize:         5,
		MinNewRatio:          0.05,
	}
}

// #endregion gate-config

// #region gate-decision
// Decision is the output of the guardrail pass.
type Decision struct {
	Strategy    catalog.StrategyParams
	ShouldBreak bool
	Triggered   []Trigger // in priority order; empty when nothing fired
	Reason      string
}

// Overridden reports whether any guardrail fired.
func (d Decision) Overridden() bool { return len(d.Triggered) > 0 }

// #endregion gate-decision
