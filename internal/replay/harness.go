package replay

import (
	"context"
	"fmt"
	"slices"

	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/catalog"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/engine"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/features"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/gate"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/state"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/store"
)

// #region types

// ReplayResult is the engine's response to one fixture event and the
// expectation failures found on it.
type ReplayResult struct {
	UserID   string
	Event    int // 1-based
	Response engine.Response
	Failures []string
}

// ReplaySummary provides aggregate stats from a replay run.
type ReplaySummary struct {
	Users       int
	TotalEvents int
	Checked     int
	Failed      int
	Degraded    int
	Breaks      int
	Phases      map[state.Phase]int
	Guardrails  map[gate.TriggerType]int
}

// #endregion types

// #region replay

// Replay runs every fixture user through a fresh in-memory engine. Users run
// in parallel with at most workers at once; events within a user stay in
// order. Results come back in fixture order.
func Replay(ctx context.Context, f *Fixture, base engine.Config, cat *catalog.Catalog, workers int, opts ...engine.Option) ([]ReplayResult, error) {
	eng, err := engine.New(f.Config.Apply(base), cat, store.NewMemoryStore(), opts...)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}

	streams := make(map[string][]features.RawEvent, len(f.Users))
	for _, u := range f.Users {
		if _, dup := streams[u.UserID]; dup {
			return nil, fmt.Errorf("replay: duplicate user %s", u.UserID)
		}
		streams[u.UserID] = u.Expand()
	}

	responses, err := eng.ReplayUsers(ctx, streams, workers)
	if err != nil {
		return nil, err
	}

	var results []ReplayResult
	for _, u := range f.Users {
		resps := responses[u.UserID]
		byEvent := make(map[int][]FixtureExpectation, len(u.Expect))
		for _, exp := range u.Expect {
			byEvent[exp.Event] = append(byEvent[exp.Event], exp)
		}
		for i, resp := range resps {
			r := ReplayResult{UserID: u.UserID, Event: i + 1, Response: resp}
			for _, exp := range byEvent[i+1] {
				r.Failures = append(r.Failures, exp.Check(resp)...)
			}
			results = append(results, r)
		}
		for _, exp := range u.Expect {
			if exp.Event < 1 || exp.Event > len(resps) {
				results = append(results, ReplayResult{
					UserID:   u.UserID,
					Event:    exp.Event,
					Failures: []string{fmt.Sprintf("expectation for event %d but user has %d events", exp.Event, len(resps))},
				})
			}
		}
	}
	return results, nil
}

// Check compares resp against the expectation and describes every mismatch.
func (e FixtureExpectation) Check(resp engine.Response) []string {
	var fails []string
	if e.Phase != "" && resp.Phase != e.Phase {
		fails = append(fails, fmt.Sprintf("phase: want %s, got %s", e.Phase, resp.Phase))
	}
	if e.ActionID != "" {
		got := ""
		if resp.Action != nil {
			got = resp.Action.ID
		}
		if got != e.ActionID {
			fails = append(fails, fmt.Sprintf("action: want %s, got %s", e.ActionID, got))
		}
	}
	if e.ShouldBreak != nil && resp.ShouldBreak != *e.ShouldBreak {
		fails = append(fails, fmt.Sprintf("should_break: want %v, got %v", *e.ShouldBreak, resp.ShouldBreak))
	}
	if e.Dominant != "" && resp.Explanation.Dominant != e.Dominant {
		fails = append(fails, fmt.Sprintf("dominant: want %s, got %s", e.Dominant, resp.Explanation.Dominant))
	}
	for _, want := range e.Guardrails {
		if !slices.ContainsFunc(resp.Guardrails, func(t gate.Trigger) bool { return t.Type == want }) {
			fails = append(fails, fmt.Sprintf("guardrail %s did not fire", want))
		}
	}
	if e.Difficulty != "" && resp.Strategy.Difficulty != e.Difficulty {
		fails = append(fails, fmt.Sprintf("difficulty: want %s, got %s", e.Difficulty, resp.Strategy.Difficulty))
	}
	if e.MaxBatchSize > 0 && resp.Strategy.BatchSize > e.MaxBatchSize {
		fails = append(fails, fmt.Sprintf("batch_size: want <= %d, got %d", e.MaxBatchSize, resp.Strategy.BatchSize))
	}
	if e.MinFatigue != nil && resp.State.Fatigue < *e.MinFatigue {
		fails = append(fails, fmt.Sprintf("fatigue: want >= %.3f, got %.3f", *e.MinFatigue, resp.State.Fatigue))
	}
	if e.MaxAttention != nil && resp.State.Attention > *e.MaxAttention {
		fails = append(fails, fmt.Sprintf("attention: want <= %.3f, got %.3f", *e.MaxAttention, resp.State.Attention))
	}
	if e.MaxMotivation != nil && resp.State.Motivation > *e.MaxMotivation {
		fails = append(fails, fmt.Sprintf("motivation: want <= %.3f, got %.3f", *e.MaxMotivation, resp.State.Motivation))
	}
	if e.Degraded != nil && resp.Degraded != *e.Degraded {
		fails = append(fails, fmt.Sprintf("degraded: want %v, got %v", *e.Degraded, resp.Degraded))
	}
	if e.Rewarded != nil && (resp.Reward != nil) != *e.Rewarded {
		fails = append(fails, fmt.Sprintf("rewarded: want %v, got %v", *e.Rewarded, resp.Reward != nil))
	}
	return fails
}

// Summarize computes aggregate stats from replay results.
func Summarize(f *Fixture, results []ReplayResult) ReplaySummary {
	s := ReplaySummary{
		Users:      len(f.Users),
		Phases:     make(map[state.Phase]int),
		Guardrails: make(map[gate.TriggerType]int),
	}
	for _, u := range f.Users {
		s.Checked += len(u.Expect)
	}
	for _, r := range results {
		if len(r.Failures) > 0 {
			s.Failed++
		}
		if r.Response.UserID == "" {
			continue
		}
		s.TotalEvents++
		s.Phases[r.Response.Phase]++
		if r.Response.Degraded {
			s.Degraded++
		}
		if r.Response.ShouldBreak {
			s.Breaks++
		}
		for _, t := range r.Response.Guardrails {
			s.Guardrails[t.Type]++
		}
	}
	return s
}

// #endregion replay
