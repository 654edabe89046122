package gate

import (
	"testing"

	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/catalog"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/state"
)

// #region helpers
func baseStrategy() catalog.StrategyParams {
	return catalog.StrategyParams{
		IntervalScale: 1.0,
		NewRatio:      0.3,
		Difficulty:    catalog.DifficultyMid,
		BatchSize:     12,
		HintLevel:     0,
	}
}

func healthyState() state.UserState {
	return state.Default()
}

// #endregion helpers

// #region pass-through
func TestEvaluate_NoTrigger(t *testing.T) {
	g := NewGate(DefaultConfig())
	d := g.Evaluate(healthyState(), baseStrategy())

	if d.Overridden() || d.ShouldBreak {
		t.Fatalf("expected no override, got %+v", d)
	}
	if d.Strategy != baseStrategy() {
		t.Fatalf("strategy changed: %+v", d.Strategy)
	}
	if d.Reason != "no guardrail triggered" {
		t.Fatalf("unexpected reason %q", d.Reason)
	}
}

func TestEvaluate_ThresholdsAreStrict(t *testing.T) {
	g := NewGate(DefaultConfig())
	s := healthyState()
	s.Fatigue = 0.6
	s.Motivation = -0.3
	s.Attention = 0.3
	if d := g.Evaluate(s, baseStrategy()); d.Overridden() {
		t.Fatalf("values exactly at thresholds should not trigger: %+v", d.Triggered)
	}
}

// #endregion pass-through

// #region single-rules
func TestEvaluate_Fatigue(t *testing.T) {
	g := NewGate(DefaultConfig())
	s := healthyState()
	s.Fatigue = 0.7

	d := g.Evaluate(s, baseStrategy())
	if !d.ShouldBreak {
		t.Fatal("expected shouldBreak")
	}
	if d.Strategy.Difficulty != catalog.DifficultyEasy {
		t.Fatalf("expected easier difficulty, got %s", d.Strategy.Difficulty)
	}
	if d.Strategy.BatchSize != 10 {
		t.Fatalf("expected batch 10, got %d", d.Strategy.BatchSize)
	}
	if len(d.Triggered) != 1 || d.Triggered[0].Type != TriggerFatigue {
		t.Fatalf("unexpected triggers %+v", d.Triggered)
	}
}

func TestEvaluate_LowMotivation(t *testing.T) {
	g := NewGate(DefaultConfig())
	s := healthyState()
	s.Motivation = -0.5

	d := g.Evaluate(s, baseStrategy())
	if d.ShouldBreak {
		t.Fatal("motivation alone must not request a break")
	}
	if d.Strategy.HintLevel != 1 {
		t.Fatalf("expected hint 1, got %d", d.Strategy.HintLevel)
	}
	if d.Strategy.NewRatio != 0.2 {
		t.Fatalf("expected new_ratio 0.2, got %v", d.Strategy.NewRatio)
	}
	if d.Strategy.Difficulty != catalog.DifficultyMid {
		t.Fatalf("difficulty should be untouched, got %s", d.Strategy.Difficulty)
	}
}

func TestEvaluate_LowAttention(t *testing.T) {
	g := NewGate(DefaultConfig())
	s := healthyState()
	s.Attention = 0.1

	d := g.Evaluate(s, baseStrategy())
	if d.Strategy.HintLevel != 1 || d.Strategy.BatchSize != 11 {
		t.Fatalf("expected hint 1 batch 11, got %+v", d.Strategy)
	}
}

// #endregion single-rules

// #region composition
func TestEvaluate_ComposesInPriorityOrder(t *testing.T) {
	g := NewGate(DefaultConfig())
	s := healthyState()
	s.Fatigue = 0.7
	s.Motivation = -0.4
	s.Attention = 0.2

	d := g.Evaluate(s, baseStrategy())

	want := []TriggerType{TriggerFatigue, TriggerLowMotivation, TriggerLowAttention}
	if len(d.Triggered) != len(want) {
		t.Fatalf("expected %d triggers, got %+v", len(want), d.Triggered)
	}
	for i, w := range want {
		if d.Triggered[i].Type != w {
			t.Fatalf("trigger %d: expected %s, got %s", i, w, d.Triggered[i].Type)
		}
	}
	if !d.ShouldBreak {
		t.Fatal("expected shouldBreak")
	}
	// difficulty down (fatigue), hint +1 twice capped at 2, batch 12-2-1, ratio -0.1
	got := d.Strategy
	if got.Difficulty != catalog.DifficultyEasy || got.HintLevel != 2 || got.BatchSize != 9 || got.NewRatio != 0.2 {
		t.Fatalf("unexpected composed strategy %+v", got)
	}
}

func TestEvaluate_FloorsAndCaps(t *testing.T) {
	g := NewGate(DefaultConfig())
	s := healthyState()
	s.Fatigue = 0.9
	s.Motivation = -0.9
	s.Attention = 0.0

	sp := catalog.StrategyParams{IntervalScale: 1, NewRatio: 0.1, Difficulty: catalog.DifficultyEasy, BatchSize: 6, HintLevel: 2}
	d := g.Evaluate(s, sp)
	if d.Strategy.BatchSize != 5 {
		t.Fatalf("expected batch floor 5, got %d", d.Strategy.BatchSize)
	}
	if d.Strategy.NewRatio != 0.05 {
		t.Fatalf("expected ratio floor 0.05, got %v", d.Strategy.NewRatio)
	}
	if d.Strategy.HintLevel != 2 || d.Strategy.Difficulty != catalog.DifficultyEasy {
		t.Fatalf("expected caps to hold, got %+v", d.Strategy)
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	g := NewGate(DefaultConfig())
	s := healthyState()
	s.Fatigue = 0.65
	s.Attention = 0.25
	a := g.Evaluate(s, baseStrategy())
	b := g.Evaluate(s, baseStrategy())
	if a.Strategy != b.Strategy || a.Reason != b.Reason || a.ShouldBreak != b.ShouldBreak {
		t.Fatal("same input produced different decisions")
	}
}

// #endregion composition
