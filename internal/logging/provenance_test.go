package logging

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

// #region helpers
func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	_, err = db.Exec(`CREATE TABLE decision_log (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		decision_id TEXT NOT NULL,
		user_id     TEXT NOT NULL,
		version_id  TEXT,
		phase       TEXT NOT NULL,
		action_id   TEXT NOT NULL,
		reward      REAL,
		guardrails  TEXT,
		dominant    TEXT NOT NULL,
		explanation TEXT,
		event_json  TEXT,
		degraded    INTEGER NOT NULL DEFAULT 0,
		created_at  TEXT NOT NULL
	)`)
	if err != nil {
		t.Fatalf("create table: %v", err)
	}
	return db
}

func reward(v float64) *float64 { return &v }

// #endregion helpers

// #region log-decision-tests
func TestLogDecision_Success(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	entry := DecisionEntry{
		DecisionID:  "d1",
		UserID:      "u1",
		VersionID:   "v1",
		Phase:       "normal",
		ActionID:    "i1.0-r0.2",
		Reward:      reward(0.42),
		Guardrails:  "fatigue",
		Dominant:    "fatigue_guard",
		Explanation: "Fatigue is high",
		CreatedAt:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	if err := LogDecision(context.Background(), db, entry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := RecentDecisions(context.Background(), db, "u1", 10)
	if err != nil {
		t.Fatalf("RecentDecisions: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 row, got %d", len(got))
	}
	if got[0].DecisionID != "d1" || got[0].Guardrails != "fatigue" || got[0].Reward == nil || *got[0].Reward != 0.42 {
		t.Errorf("unexpected entry %+v", got[0])
	}
	if !got[0].CreatedAt.Equal(entry.CreatedAt) {
		t.Errorf("expected created_at %v, got %v", entry.CreatedAt, got[0].CreatedAt)
	}
}

func TestLogDecision_Defaults(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	before := time.Now().UTC()
	err := LogDecision(context.Background(), db, DecisionEntry{UserID: "u2", Phase: "classification", ActionID: "a", Dominant: "cold_start", Degraded: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, _ := RecentDecisions(context.Background(), db, "u2", 1)
	if len(got) != 1 {
		t.Fatalf("expected 1 row, got %d", len(got))
	}
	if got[0].DecisionID == "" {
		t.Error("expected generated decision id")
	}
	if got[0].CreatedAt.Before(before) {
		t.Error("expected auto-filled created_at to be >= test start time")
	}
	if !got[0].Degraded || got[0].Reward != nil {
		t.Errorf("unexpected entry %+v", got[0])
	}
}

func TestLogDecision_EmptyOptionalFields(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	entry := DecisionEntry{UserID: "u3", Phase: "normal", ActionID: "a", Dominant: "steady"}
	if err := LogDecision(context.Background(), db, entry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var versionID, guardrails, explanation sql.NullString
	var rw sql.NullFloat64
	db.QueryRow("SELECT version_id, guardrails, explanation, reward FROM decision_log").Scan(
		&versionID, &guardrails, &explanation, &rw,
	)
	if versionID.Valid || guardrails.Valid || explanation.Valid || rw.Valid {
		t.Error("expected NULL for empty optional fields")
	}
}

func TestLogDecision_Error(t *testing.T) {
	db := setupDB(t)
	db.Close() // close to force error

	err := NewRecorder(db).Record(context.Background(), DecisionEntry{UserID: "u4", Phase: "normal", ActionID: "a", Dominant: "steady"})
	if err == nil {
		t.Fatal("expected error on closed db")
	}
}

func TestRecentDecisions_NewestFirst(t *testing.T) {
	db := setupDB(t)
	defer db.Close()
	rec := NewRecorder(db)
	for _, id := range []string{"a", "b", "c"} {
		if err := rec.Record(context.Background(), DecisionEntry{UserID: "u5", Phase: "normal", ActionID: id, Dominant: "steady"}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	got, err := RecentDecisions(context.Background(), db, "u5", 2)
	if err != nil {
		t.Fatalf("RecentDecisions: %v", err)
	}
	if len(got) != 2 || got[0].ActionID != "c" || got[1].ActionID != "b" {
		t.Fatalf("unexpected order %+v", got)
	}
}

func TestDecisionHistory_OldestFirst(t *testing.T) {
	db := setupDB(t)
	defer db.Close()
	rec := NewRecorder(db)
	entries := []DecisionEntry{
		{UserID: "late", Phase: "normal", ActionID: "x", Dominant: "steady"},
		{UserID: "u6", Phase: "classification", ActionID: "a", Dominant: "cold_start", EventJSON: `{"correct":true}`},
		{UserID: "u6", Phase: "classification", ActionID: "b", Dominant: "cold_start"},
	}
	for _, e := range entries {
		if err := rec.Record(context.Background(), e); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	got, err := DecisionHistory(context.Background(), db, "u6")
	if err != nil {
		t.Fatalf("DecisionHistory: %v", err)
	}
	if len(got) != 2 || got[0].ActionID != "a" || got[1].ActionID != "b" {
		t.Fatalf("unexpected order %+v", got)
	}
	if got[0].EventJSON != `{"correct":true}` || got[1].EventJSON != "" {
		t.Errorf("event json not round-tripped: %q %q", got[0].EventJSON, got[1].EventJSON)
	}

	users, err := DecisionUsers(context.Background(), db)
	if err != nil {
		t.Fatalf("DecisionUsers: %v", err)
	}
	if len(users) != 2 || users[0] != "late" || users[1] != "u6" {
		t.Fatalf("unexpected users %v", users)
	}
}

// #endregion log-decision-tests

// #region logger-tests
func TestNewLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.log")
	cfg := DefaultLoggerConfig()
	cfg.File = path

	logger, err := NewLogger(cfg)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	logger.Info("hello")
	logger.Debug("hidden")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), `"message":"hello"`) {
		t.Errorf("expected info line, got %s", data)
	}
	if strings.Contains(string(data), "hidden") {
		t.Error("debug line should be filtered at info level")
	}
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	cfg := DefaultLoggerConfig()
	cfg.Level = "loud"
	if _, err := NewLogger(cfg); err == nil {
		t.Fatal("expected error for invalid level")
	}
}

// #endregion logger-tests

// #region null-if-empty-tests
func TestNullIfEmpty(t *testing.T) {
	if nullIfEmpty("") != nil {
		t.Error("expected nil for empty string")
	}
	if nullIfEmpty("hello") != "hello" {
		t.Error("expected passthrough for non-empty string")
	}
}

// #endregion null-if-empty-tests
