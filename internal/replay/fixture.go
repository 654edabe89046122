package replay

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/catalog"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/engine"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/explain"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/features"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/gate"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/logging"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/state"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description string        `json:"description"`
	Config      FixtureConfig `json:"config"`
	Users       []FixtureUser `json:"users"`
}

// FixtureUser is one learner's event stream and the checks to run on it.
type FixtureUser struct {
	UserID string               `json:"user_id"`
	Events []FixtureEvent       `json:"events"`
	Expect []FixtureExpectation `json:"expect"`
}

// FixtureEvent is a raw event, optionally repeated.
type FixtureEvent struct {
	features.RawEvent
	Repeat int `json:"repeat,omitempty"` // 0 and 1 both mean once
}

// FixtureExpectation checks the response to the Event-th event (1-based,
// after repeats are expanded). Zero-valued fields are not checked.
type FixtureExpectation struct {
	Event         int                `json:"event"`
	Phase         state.Phase        `json:"phase,omitempty"`
	ActionID      string             `json:"action_id,omitempty"`
	ShouldBreak   *bool              `json:"should_break,omitempty"`
	Dominant      explain.Factor     `json:"dominant,omitempty"`
	Guardrails    []gate.TriggerType `json:"guardrails,omitempty"` // must all be present
	Difficulty    catalog.Difficulty `json:"difficulty,omitempty"`
	MaxBatchSize  int                `json:"max_batch_size,omitempty"`
	MinFatigue    *float64           `json:"min_fatigue,omitempty"`
	MaxAttention  *float64           `json:"max_attention,omitempty"`
	MaxMotivation *float64           `json:"max_motivation,omitempty"`
	Degraded      *bool              `json:"degraded,omitempty"`
	Rewarded      *bool              `json:"rewarded,omitempty"`
}

// FixtureConfig overrides selected engine parameters for a run.
type FixtureConfig struct {
	Alpha               *float64 `json:"alpha,omitempty"`
	Lambda              *float64 `json:"lambda,omitempty"`
	ExploreMultiplier   *float64 `json:"explore_multiplier,omitempty"`
	FatigueThreshold    *float64 `json:"fatigue_threshold,omitempty"`
	MotivationThreshold *float64 `json:"motivation_threshold,omitempty"`
	AttentionThreshold  *float64 `json:"attention_threshold,omitempty"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	for _, u := range f.Users {
		if u.UserID == "" {
			return nil, fmt.Errorf("parse fixture %s: user without user_id", path)
		}
	}
	return &f, nil
}

// Expand returns the user's events with repeats unrolled.
func (u FixtureUser) Expand() []features.RawEvent {
	var out []features.RawEvent
	for _, ev := range u.Events {
		n := ev.Repeat
		if n < 1 {
			n = 1
		}
		for i := 0; i < n; i++ {
			out = append(out, ev.RawEvent)
		}
	}
	return out
}

// Apply returns base with the fixture's overrides.
func (fc FixtureConfig) Apply(base engine.Config) engine.Config {
	set := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	set(&base.Bandit.Alpha, fc.Alpha)
	set(&base.Bandit.Lambda, fc.Lambda)
	set(&base.Bandit.ExploreMultiplier, fc.ExploreMultiplier)
	set(&base.Guardrails.FatigueThreshold, fc.FatigueThreshold)
	set(&base.Guardrails.MotivationThreshold, fc.MotivationThreshold)
	set(&base.Guardrails.AttentionThreshold, fc.AttentionThreshold)
	return base
}

// #endregion fixture-loader

// #region decision-log

// FromDecisionLog rebuilds a fixture from recorded decisions. Each logged
// event becomes an event with its recorded phase and action as expectations.
// Degraded decisions were never persisted, so they are left out.
func FromDecisionLog(ctx context.Context, db *sql.DB) (*Fixture, error) {
	users, err := logging.DecisionUsers(ctx, db)
	if err != nil {
		return nil, err
	}

	f := &Fixture{Description: "decision log"}
	for _, userID := range users {
		entries, err := logging.DecisionHistory(ctx, db, userID)
		if err != nil {
			return nil, err
		}
		u := FixtureUser{UserID: userID}
		for _, e := range entries {
			if e.Degraded || e.EventJSON == "" {
				continue
			}
			var ev features.RawEvent
			if err := json.Unmarshal([]byte(e.EventJSON), &ev); err != nil {
				return nil, fmt.Errorf("decision %s: parse event: %w", e.DecisionID, err)
			}
			u.Events = append(u.Events, FixtureEvent{RawEvent: ev})
			u.Expect = append(u.Expect, FixtureExpectation{
				Event:    len(u.Events),
				Phase:    state.Phase(e.Phase),
				ActionID: e.ActionID,
			})
		}
		if len(u.Events) > 0 {
			f.Users = append(f.Users, u)
		}
	}
	return f, nil
}

// #endregion decision-log
