package logging

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// #region log-decision
// LogDecision writes a decision entry to the decision_log table.
func LogDecision(ctx context.Context, db *sql.DB, entry DecisionEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.DecisionID == "" {
		entry.DecisionID = uuid.New().String()
	}

	var reward interface{}
	if entry.Reward != nil {
		reward = *entry.Reward
	}
	degraded := 0
	if entry.Degraded {
		degraded = 1
	}

	_, err := db.ExecContext(ctx,
		`INSERT INTO decision_log (decision_id, user_id, version_id, phase, action_id, reward, guardrails, dominant, explanation, event_json, degraded, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.DecisionID,
		entry.UserID,
		nullIfEmpty(entry.VersionID),
		entry.Phase,
		entry.ActionID,
		reward,
		nullIfEmpty(entry.Guardrails),
		entry.Dominant,
		nullIfEmpty(entry.Explanation),
		nullIfEmpty(entry.EventJSON),
		degraded,
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log decision: %w", err)
	}
	return nil
}

// #endregion log-decision

// #region recorder
// Recorder adapts LogDecision to the engine's recorder hook.
type Recorder struct {
	db *sql.DB
}

// NewRecorder creates a recorder writing to db. The decision_log table must exist.
func NewRecorder(db *sql.DB) *Recorder {
	return &Recorder{db: db}
}

// Record writes one entry.
func (r *Recorder) Record(ctx context.Context, entry DecisionEntry) error {
	return LogDecision(ctx, r.db, entry)
}

// #endregion recorder

// #region read-decisions
const decisionColumns = `decision_id, user_id, version_id, phase, action_id, reward, guardrails, dominant, explanation, event_json, degraded, created_at`

// RecentDecisions returns the latest entries for userID, newest first.
func RecentDecisions(ctx context.Context, db *sql.DB, userID string, limit int) ([]DecisionEntry, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+decisionColumns+` FROM decision_log WHERE user_id = ? ORDER BY id DESC LIMIT ?`, userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	return scanDecisions(rows)
}

// DecisionHistory returns every entry for userID in the order it was logged.
func DecisionHistory(ctx context.Context, db *sql.DB, userID string) ([]DecisionEntry, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+decisionColumns+` FROM decision_log WHERE user_id = ? ORDER BY id ASC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query decision history: %w", err)
	}
	return scanDecisions(rows)
}

// DecisionUsers lists users with logged decisions in order of first appearance.
func DecisionUsers(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT user_id FROM decision_log GROUP BY user_id ORDER BY MIN(id)`,
	)
	if err != nil {
		return nil, fmt.Errorf("query decision users: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func scanDecisions(rows *sql.Rows) ([]DecisionEntry, error) {
	defer rows.Close()

	var out []DecisionEntry
	for rows.Next() {
		var e DecisionEntry
		var versionID, guardrails, explanation, eventJSON sql.NullString
		var reward sql.NullFloat64
		var degraded int
		var createdStr string
		if err := rows.Scan(&e.DecisionID, &e.UserID, &versionID, &e.Phase, &e.ActionID, &reward,
			&guardrails, &e.Dominant, &explanation, &eventJSON, &degraded, &createdStr); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		e.VersionID = versionID.String
		e.Guardrails = guardrails.String
		e.Explanation = explanation.String
		e.EventJSON = eventJSON.String
		if reward.Valid {
			r := reward.Float64
			e.Reward = &r
		}
		e.Degraded = degraded == 1
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		out = append(out, e)
	}
	return out, rows.Err()
}

// #endregion read-decisions

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
