package gate

import (
	"fmt"
	"math"
	"strings"

	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/catalog"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/state"
)

// #region gate
// Gate applies protective overrides to a mapped strategy.
type Gate struct {
	config Config
	rules  []rule
}

// rule inspects the state and optionally returns a patch.
type rule func(s state.UserState) (Patch, Trigger, bool)

// NewGate creates a gate with the given configuration.
func NewGate(config Config) *Gate {
	g := &Gate{config: config}
	// Order is the fold priority.
	g.rules = []rule{g.fatigueRule, g.motivationRule, g.attentionRule}
	return g
}

// Evaluate runs every rule against s and folds the resulting patches onto
// proposed in priority order. Rules never see each other's output.
func (g *Gate) Evaluate(s state.UserState, proposed catalog.StrategyParams) Decision {
	out := Decision{Strategy: proposed}
	var reasons []string

	for _, r := range g.rules {
		p, trig, ok := r(s)
		if !ok {
			continue
		}
		out.Strategy = g.apply(out.Strategy, p)
		out.ShouldBreak = out.ShouldBreak || p.Break
		out.Triggered = append(out.Triggered, trig)
		reasons = append(reasons, trig.Reason)
	}

	if len(reasons) == 0 {
		out.Reason = "no guardrail triggered"
	} else {
		out.Reason = "guardrail: " + strings.Join(reasons, "; ")
	}
	return out
}

// #endregion gate

// #region rules
func (g *Gate) fatigueRule(s state.UserState) (Patch, Trigger, bool) {
	if s.Fatigue <= g.config.FatigueThreshold {
		return Patch{}, Trigger{}, false
	}
	p := Patch{EasierDifficulty: true, BatchDelta: g.config.FatigueBatchDelta, Break: true}
	t := Trigger{
		Type:   TriggerFatigue,
		Reason: fmt.Sprintf("fatigue %.2f exceeds %.2f", s.Fatigue, g.config.FatigueThreshold),
	}
	return p, t, true
}

func (g *Gate) motivationRule(s state.UserState) (Patch, Trigger, bool) {
	if s.Motivation >= g.config.MotivationThreshold {
		return Patch{}, Trigger{}, false
	}
	p := Patch{HintDelta: 1, NewRatioDelta: g.config.MotivationRatioDelta}
	t := Trigger{
		Type:   TriggerLowMotivation,
		Reason: fmt.Sprintf("motivation %.2f below %.2f", s.Motivation, g.config.MotivationThreshold),
	}
	return p, t, true
}

func (g *Gate) attentionRule(s state.UserState) (Patch, Trigger, bool) {
	if s.Attention >= g.config.AttentionThreshold {
		return Patch{}, Trigger{}, false
	}
	p := Patch{HintDelta: 1, BatchDelta: g.config.AttentionBatchDelta}
	t := Trigger{
		Type:   TriggerLowAttention,
		Reason: fmt.Sprintf("attention %.2f below %.2f", s.Attention, g.config.AttentionThreshold),
	}
	return p, t, true
}

// #endregion rules

// #region apply
// apply folds one patch onto sp. Overrides only ever make the session
// easier, so floors are applied without raising values already below them.
func (g *Gate) apply(sp catalog.StrategyParams, p Patch) catalog.StrategyParams {
	if p.EasierDifficulty {
		sp.Difficulty = sp.Difficulty.Easier()
	}
	if p.BatchDelta != 0 && sp.BatchSize > g.config.MinBatchSize {
		sp.BatchSize = max(sp.BatchSize+p.BatchDelta, g.config.MinBatchSize)
	}
	if p.NewRatioDelta != 0 && sp.NewRatio > g.config.MinNewRatio {
		sp.NewRatio = math.Max(sp.NewRatio+p.NewRatioDelta, g.config.MinNewRatio)
		sp.NewRatio = math.Round(sp.NewRatio*1000) / 1000
	}
	if p.HintDelta != 0 {
		sp.HintLevel = min(sp.HintLevel+p.HintDelta, catalog.MaxHintLevel)
	}
	return sp
}

// #endregion apply
