package logging

import "time"

// #region decision-entry
// DecisionEntry is a single row in the decision_log table.
type DecisionEntry struct {
	DecisionID  string
	UserID      string
	VersionID   string
	Phase       string
	ActionID    string
	Reward      *float64 // nil when no previous action was credited
	Guardrails  string   // comma-separated trigger types
	Dominant    string
	Explanation string
	EventJSON   string // raw event that produced the decision, for replay
	Degraded    bool
	CreatedAt   time.Time
}

// #endregion decision-entry

// #region logger-config
// LoggerConfig controls the process logger.
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"` // empty logs to stderr
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// DefaultLoggerConfig returns stderr logging at info level.
func DefaultLoggerConfig() LoggerConfig {
	return LoggerConfig{
		Level:      "info",
		MaxSizeMB:  100,
		MaxBackups: 10,
		MaxAgeDays: 30,
		Compress:   true,
	}
}

// #endregion logger-config
