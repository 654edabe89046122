package replay

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/engine"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/logging"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/state"
)

// #region fixture-tests

func TestLoadFixture_Fatigue(t *testing.T) {
	f, err := LoadFixture(filepath.Join("testdata", "fatigue.json"))
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	if len(f.Users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(f.Users))
	}
	tired := f.Users[0]
	if tired.UserID != "tired" {
		t.Fatalf("expected first user tired, got %s", tired.UserID)
	}
	evs := tired.Expand()
	if len(evs) != 10 {
		t.Fatalf("expected 10 expanded events, got %d", len(evs))
	}
	if evs[9].ResponseTimeMs != 9000 || evs[9].Correct {
		t.Errorf("unexpected expanded event %+v", evs[9])
	}
	last := tired.Expect[len(tired.Expect)-1]
	if last.ShouldBreak == nil || !*last.ShouldBreak || last.MinFatigue == nil {
		t.Errorf("pointer expectations not parsed: %+v", last)
	}
}

func TestLoadFixture_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadFixture(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.json")
	os.WriteFile(bad, []byte("{not json"), 0o644)
	if _, err := LoadFixture(bad); err == nil {
		t.Error("expected error for malformed json")
	}

	anon := filepath.Join(dir, "anon.json")
	os.WriteFile(anon, []byte(`{"users":[{"events":[]}]}`), 0o644)
	if _, err := LoadFixture(anon); err == nil {
		t.Error("expected error for user without id")
	}
}

func TestFixtureConfig_Apply(t *testing.T) {
	alpha, fatigue := 2.5, 0.9
	base := engine.DefaultConfig()
	got := FixtureConfig{Alpha: &alpha, FatigueThreshold: &fatigue}.Apply(base)

	if got.Bandit.Alpha != 2.5 || got.Guardrails.FatigueThreshold != 0.9 {
		t.Errorf("overrides not applied: %+v %+v", got.Bandit, got.Guardrails)
	}
	if got.Bandit.Lambda != base.Bandit.Lambda || got.Guardrails.MotivationThreshold != base.Guardrails.MotivationThreshold {
		t.Error("unset fields should keep base values")
	}
}

// #endregion fixture-tests

// #region decision-log-tests

func TestFromDecisionLog(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`CREATE TABLE decision_log (
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
	)`); err != nil {
		t.Fatalf("create table: %v", err)
	}

	ctx := context.Background()
	rec := logging.NewRecorder(db)
	entries := []logging.DecisionEntry{
		{UserID: "u1", Phase: "classification", ActionID: "a1", Dominant: "cold_start", EventJSON: `{"word_id":"w","correct":true,"response_time_ms":2500}`},
		{UserID: "u1", Phase: "classification", ActionID: "a2", Dominant: "cold_start", EventJSON: `{"word_id":"w","correct":false}`, Degraded: true},
		{UserID: "u1", Phase: "classification", ActionID: "a3", Dominant: "cold_start", EventJSON: `{"word_id":"w","correct":false,"response_time_ms":7000}`},
		{UserID: "u2", Phase: "classification", ActionID: "b1", Dominant: "cold_start"},
	}
	for _, e := range entries {
		if err := rec.Record(ctx, e); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	f, err := FromDecisionLog(ctx, db)
	if err != nil {
		t.Fatalf("FromDecisionLog: %v", err)
	}
	if len(f.Users) != 1 {
		t.Fatalf("expected only u1 (u2 has no events), got %d users", len(f.Users))
	}
	u := f.Users[0]
	if len(u.Events) != 2 {
		t.Fatalf("expected degraded entry skipped, got %d events", len(u.Events))
	}
	if u.Events[1].ResponseTimeMs != 7000 {
		t.Errorf("unexpected second event %+v", u.Events[1])
	}
	if u.Expect[1].Event != 2 || u.Expect[1].ActionID != "a3" || u.Expect[1].Phase != state.PhaseClassification {
		t.Errorf("unexpected expectation %+v", u.Expect[1])
	}
}

// #endregion decision-log-tests
