package explain

import (
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/catalog"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/gate"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/state"
)

// Factor tags the single reason that dominates a decision.
type Factor string

const (
	FactorFatigueGuard    Factor = "fatigue_guard"
	FactorMotivationGuard Factor = "motivation_guard"
	FactorAttentionGuard  Factor = "attention_guard"
	FactorAttention       Factor = "attention"
	FactorFatigue         Factor = "fatigue"
	FactorMotivation      Factor = "motivation"
	FactorMemory          Factor = "memory"
	FactorSpeed           Factor = "speed"
	FactorStability       Factor = "stability"
	FactorColdStart       Factor = "cold_start"
	FactorSteady          Factor = "steady"
	FactorDegraded        Factor = "degraded"
)

// Input is everything the explainer looks at. It is assembled by the engine
// after guardrails have run.
type Input struct {
	Prior        state.UserState
	Next         state.UserState
	Phase        state.Phase
	Action       catalog.Action
	PrevStrategy catalog.StrategyParams
	NewStrategy  catalog.StrategyParams
	Triggered    []gate.Trigger
}

// FactorScore is one state dimension's contribution to the explanation.
type FactorScore struct {
	Name       Factor  `json:"name"`
	Value      float64 `json:"value"`
	Delta      float64 `json:"delta"`
	Percentage float64 `json:"percentage"` // share of total absolute change, 0-100
}

// Change is one strategy field rendered for display.
type Change struct {
	Field   string `json:"field"`
	From    string `json:"from"`
	To      string `json:"to"`
	Changed bool   `json:"changed"`
}

// String renders "field from→to", or "field value" when unchanged.
func (c Change) String() string {
	if !c.Changed {
		return c.Field + " " + c.To
	}
	return c.Field + " " + c.From + "→" + c.To
}

// Explanation is the human-readable account of a decision.
type Explanation struct {
	Dominant Factor        `json:"dominant"`
	Action   string        `json:"action,omitempty"` // id of the catalog action the bandit chose
	Text     string        `json:"text"`
	Factors  []FactorScore `json:"factors"`
	Changes  []Change      `json:"changes"`
	Degraded bool          `json:"degraded,omitempty"`
}
