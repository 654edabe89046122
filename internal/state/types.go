package state

import "time"

// #region user-state
// UserState is the latent learner state maintained by the estimators.
// Attention, fatigue and the cognitive dimensions live in [0,1]; motivation in [-1,1].
type UserState struct {
	Attention        float64          `json:"attention"`
	Fatigue          float64          `json:"fatigue"`
	Cognitive        CognitiveProfile `json:"cognitive"`
	Motivation       float64          `json:"motivation"`
	InteractionCount int              `json:"interaction_count"`
	LastUpdated      time.Time        `json:"last_updated"` // time of the last applied event; zero before the first
	History          History          `json:"history"`
}

// CognitiveProfile describes memory, processing speed and response stability.
type CognitiveProfile struct {
	Memory    float64 `json:"memory"`
	Speed     float64 `json:"speed"`
	Stability float64 `json:"stability"`
}

// History carries the rolling context the estimators need between events.
type History struct {
	Recent        []Outcome        `json:"recent"`
	CorrectStreak int              `json:"correct_streak"`
	ErrorStreak   int              `json:"error_streak"`
	ShortTerm     CognitiveProfile `json:"short_term"`
	LongTerm      CognitiveProfile `json:"long_term"`
}

// Outcome is the compact record of one past event kept in the rolling window.
type Outcome struct {
	Correct bool    `json:"correct"`
	RTNorm  float64 `json:"rt_norm"`
}

// #endregion user-state

// #region defaults
// Default returns the state of a user with no history.
func Default() UserState {
	neutral := CognitiveProfile{Memory: 0.5, Speed: 0.5, Stability: 0.5}
	return UserState{
		Attention:  0.7,
		Fatigue:    0,
		Cognitive:  neutral,
		Motivation: 0.5,
		History: History{
			ShortTerm: neutral,
			LongTerm:  neutral,
		},
	}
}

// #endregion defaults
