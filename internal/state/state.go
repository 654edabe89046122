package state

import (
	"fmt"
	"math"
)

// #region clamp
// Clamp forces every dimension back into its valid range. NaN collapses to
// the default value of that dimension.
func (s UserState) Clamp() UserState {
	d := Default()
	s.Attention = clamp(s.Attention, 0, 1, d.Attention)
	s.Fatigue = clamp(s.Fatigue, 0, 1, d.Fatigue)
	s.Motivation = clamp(s.Motivation, -1, 1, d.Motivation)
	s.Cognitive = s.Cognitive.clamp()
	s.History.ShortTerm = s.History.ShortTerm.clamp()
	s.History.LongTerm = s.History.LongTerm.clamp()
	if s.InteractionCount < 0 {
		s.InteractionCount = 0
	}
	return s
}

func (c CognitiveProfile) clamp() CognitiveProfile {
	return CognitiveProfile{
		Memory:    clamp(c.Memory, 0, 1, 0.5),
		Speed:     clamp(c.Speed, 0, 1, 0.5),
		Stability: clamp(c.Stability, 0, 1, 0.5),
	}
}

func clamp(v, lo, hi, fallback float64) float64 {
	if math.IsNaN(v) {
		return fallback
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// #endregion clamp

// #region check
// Check reports the first dimension that is non-finite or out of range.
func (s UserState) Check() error {
	dims := []struct {
		name   string
		v      float64
		lo, hi float64
	}{
		{"attention", s.Attention, 0, 1},
		{"fatigue", s.Fatigue, 0, 1},
		{"memory", s.Cognitive.Memory, 0, 1},
		{"speed", s.Cognitive.Speed, 0, 1},
		{"stability", s.Cognitive.Stability, 0, 1},
		{"motivation", s.Motivation, -1, 1},
	}
	for _, d := range dims {
		if math.IsNaN(d.v) || math.IsInf(d.v, 0) {
			return fmt.Errorf("%s is not finite", d.name)
		}
		if d.v < d.lo || d.v > d.hi {
			return fmt.Errorf("%s %.4f outside [%g, %g]", d.name, d.v, d.lo, d.hi)
		}
	}
	if s.InteractionCount < 0 {
		return fmt.Errorf("interaction count %d is negative", s.InteractionCount)
	}
	return nil
}

// #endregion check

// #region window
// Push appends o to the rolling window, dropping the oldest entries beyond size.
// The receiver's slice is never modified.
func (h History) Push(o Outcome, size int) History {
	if size <= 0 {
		size = 1
	}
	start := 0
	if len(h.Recent)+1 > size {
		start = len(h.Recent) + 1 - size
	}
	recent := make([]Outcome, 0, size)
	recent = append(recent, h.Recent[start:]...)
	recent = append(recent, o)
	h.Recent = recent
	return h
}

// Clone returns a deep copy of s.
func (s UserState) Clone() UserState {
	if s.History.Recent != nil {
		recent := make([]Outcome, len(s.History.Recent))
		copy(recent, s.History.Recent)
		s.History.Recent = recent
	}
	return s
}

// #endregion window
