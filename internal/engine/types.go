package engine

// #region imports
import (
	"context"
	"time"

	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/bandit"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/catalog"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/decision"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/eval"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/explain"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/features"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/gate"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/logging"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/state"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/update"
)

// #endregion

// #region config

// Config bundles the parameters of every pipeline stage. It is read once at
// construction and never mutated afterwards.
type Config struct {
	Features   features.Config `mapstructure:"features"`
	Estimators update.Config   `mapstructure:"estimators"`
	Bandit     bandit.Config   `mapstructure:"bandit"`
	Mapper     decision.Config `mapstructure:"mapper"`
	Guardrails gate.Config     `mapstructure:"guardrails"`
	Eval       eval.EvalConfig `mapstructure:"eval"`
	Reward     RewardWeights   `mapstructure:"reward"`
}

// DefaultConfig returns the standard engine configuration.
func DefaultConfig() Config {
	return Config{
		Features:   features.DefaultConfig(),
		Estimators: update.DefaultConfig(),
		Bandit:     bandit.DefaultConfig(),
		Mapper:     decision.DefaultConfig(),
		Guardrails: gate.DefaultConfig(),
		Eval:       eval.DefaultEvalConfig(),
		Reward:     DefaultRewardWeights(),
	}
}

// #endregion

// #region response

// Response is the engine's answer to one interaction event.
type Response struct {
	UserID      string                 `json:"user_id"`
	Strategy    catalog.StrategyParams `json:"strategy"`
	Explanation explain.Explanation    `json:"explanation"`
	State       state.UserState        `json:"state"`
	ShouldBreak bool                   `json:"should_break"`
	Phase       state.Phase            `json:"phase"`
	Action      *catalog.Action        `json:"action,omitempty"` // nil when degraded
	Reward      *float64               `json:"reward,omitempty"` // credited to the previous action
	Guardrails  []gate.Trigger         `json:"guardrails,omitempty"`
	Degraded    bool                   `json:"degraded,omitempty"`
	VersionID   string                 `json:"version_id,omitempty"`
	DecidedAt   time.Time              `json:"decided_at"`
}

// #endregion

// #region hooks

// Observer receives per-event telemetry. metrics.Metrics satisfies it.
type Observer interface {
	EventProcessed(phase string, degraded bool, d time.Duration)
	GuardrailTriggered(kind string)
	ModelReset()
	RewardObserved(r float64)
}

// Recorder persists decision provenance. logging.Recorder satisfies it.
type Recorder interface {
	Record(ctx context.Context, entry logging.DecisionEntry) error
}

type nopObserver struct{}

func (nopObserver) EventProcessed(string, bool, time.Duration) {}
func (nopObserver) GuardrailTriggered(string)                  {}
func (nopObserver) ModelReset()                                {}
func (nopObserver) RewardObserved(float64)                     {}

// #endregion
