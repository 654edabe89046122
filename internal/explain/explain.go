package explain

import (
	"fmt"
	"math"
	"strings"

	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/catalog"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/gate"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/state"
)

// noticeableDelta is the smallest state change worth naming as a reason.
const noticeableDelta = 0.02

// #region explain

// Explain is a pure function from a decision's inputs to its explanation.
func Explain(in Input) Explanation {
	factors := scoreFactors(in.Prior, in.Next)
	changes := Changes(in.PrevStrategy, in.NewStrategy)
	dominant := dominantFactor(in, factors)

	text := headline(dominant, in)
	if in.Action.ID != "" {
		text += " Plan: " + in.Action.ID + "."
	}
	if changed := changedOnly(changes); len(changed) > 0 {
		text += " Changes: " + strings.Join(changed, ", ") + "."
	}

	return Explanation{
		Dominant: dominant,
		Action:   in.Action.ID,
		Text:     text,
		Factors:  factors,
		Changes:  changes,
	}
}

// Degraded explains a fallback to the previous strategy.
func Degraded(prev catalog.StrategyParams) Explanation {
	return Explanation{
		Dominant: FactorDegraded,
		Text:     "Keeping the previous plan while the engine recovers.",
		Changes:  Changes(prev, prev),
		Degraded: true,
	}
}

// #endregion explain

// #region dominant

func dominantFactor(in Input, factors []FactorScore) Factor {
	if len(in.Triggered) > 0 {
		switch in.Triggered[0].Type {
		case gate.TriggerFatigue:
			return FactorFatigueGuard
		case gate.TriggerLowMotivation:
			return FactorMotivationGuard
		case gate.TriggerLowAttention:
			return FactorAttentionGuard
		}
	}

	best := -1
	for i, f := range factors {
		if math.Abs(f.Delta) < noticeableDelta {
			continue
		}
		if best < 0 || math.Abs(f.Delta) > math.Abs(factors[best].Delta) {
			best = i
		}
	}
	if best >= 0 {
		return factors[best].Name
	}
	if in.Phase == state.PhaseClassification {
		return FactorColdStart
	}
	return FactorSteady
}

// scoreFactors lists the six state dimensions with their change. Motivation
// spans [-1,1], so its delta is halved to compare with the unit dimensions.
func scoreFactors(prior, next state.UserState) []FactorScore {
	out := []FactorScore{
		{Name: FactorAttention, Value: next.Attention, Delta: next.Attention - prior.Attention},
		{Name: FactorFatigue, Value: next.Fatigue, Delta: next.Fatigue - prior.Fatigue},
		{Name: FactorMemory, Value: next.Cognitive.Memory, Delta: next.Cognitive.Memory - prior.Cognitive.Memory},
		{Name: FactorSpeed, Value: next.Cognitive.Speed, Delta: next.Cognitive.Speed - prior.Cognitive.Speed},
		{Name: FactorStability, Value: next.Cognitive.Stability, Delta: next.Cognitive.Stability - prior.Cognitive.Stability},
		{Name: FactorMotivation, Value: next.Motivation, Delta: (next.Motivation - prior.Motivation) / 2},
	}
	var total float64
	for _, f := range out {
		total += math.Abs(f.Delta)
	}
	if total > 0 {
		for i := range out {
			out[i].Percentage = math.Round(math.Abs(out[i].Delta)/total*1000) / 10
		}
	}
	return out
}

// #endregion dominant

// #region text

func headline(f Factor, in Input) string {
	n := in.Next
	switch f {
	case FactorFatigueGuard:
		return fmt.Sprintf("Fatigue is high (%s): easing difficulty and shortening the batch. Time for a break.", pct(n.Fatigue))
	case FactorMotivationGuard:
		return fmt.Sprintf("Motivation is low (%.2f): adding hints and introducing fewer new words.", n.Motivation)
	case FactorAttentionGuard:
		return fmt.Sprintf("Attention is low (%s): adding hints and shrinking the batch.", pct(n.Attention))
	case FactorAttention:
		return fmt.Sprintf("Attention %s to %s.", direction(n.Attention-in.Prior.Attention), pct(n.Attention))
	case FactorFatigue:
		return fmt.Sprintf("Fatigue %s to %s.", direction(n.Fatigue-in.Prior.Fatigue), pct(n.Fatigue))
	case FactorMotivation:
		return fmt.Sprintf("Motivation %s to %.2f.", direction(n.Motivation-in.Prior.Motivation), n.Motivation)
	case FactorMemory:
		return fmt.Sprintf("Recall strength %s to %s.", direction(n.Cognitive.Memory-in.Prior.Cognitive.Memory), pct(n.Cognitive.Memory))
	case FactorSpeed:
		return fmt.Sprintf("Response speed %s to %s.", direction(n.Cognitive.Speed-in.Prior.Cognitive.Speed), pct(n.Cognitive.Speed))
	case FactorStability:
		return fmt.Sprintf("Answer consistency %s to %s.", direction(n.Cognitive.Stability-in.Prior.Cognitive.Stability), pct(n.Cognitive.Stability))
	case FactorColdStart:
		return fmt.Sprintf("Still learning your profile (%d answers so far): using a conservative plan.", n.InteractionCount)
	case FactorDegraded:
		return "Keeping the previous plan while the engine recovers."
	default:
		return "Performance is steady: keeping the plan on course."
	}
}

func direction(d float64) string {
	if d < 0 {
		return "dropped"
	}
	return "rose"
}

func pct(v float64) string { return fmt.Sprintf("%.0f%%", v*100) }

// #endregion text

// #region changes

// Changes renders every strategy field of prev→next in a fixed order.
func Changes(prev, next catalog.StrategyParams) []Change {
	return []Change{
		change("interval_scale", fmt.Sprintf("%.2f", prev.IntervalScale), fmt.Sprintf("%.2f", next.IntervalScale)),
		change("new_ratio", pct(prev.NewRatio), pct(next.NewRatio)),
		change("difficulty", string(prev.Difficulty), string(next.Difficulty)),
		change("batch_size", fmt.Sprintf("%d", prev.BatchSize), fmt.Sprintf("%d", next.BatchSize)),
		change("hint_level", fmt.Sprintf("%d", prev.HintLevel), fmt.Sprintf("%d", next.HintLevel)),
	}
}

func change(field, from, to string) Change {
	return Change{Field: field, From: from, To: to, Changed: from != to}
}

func changedOnly(cs []Change) []string {
	var out []string
	for _, c := range cs {
		if c.Changed {
			out = append(out, c.String())
		}
	}
	return out
}

// #endregion changes
