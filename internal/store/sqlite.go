package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS state_versions (
	version_id        TEXT PRIMARY KEY,
	parent_id         TEXT,
	user_id           TEXT NOT NULL,
	snapshot_json     TEXT NOT NULL,
	interaction_count INTEGER NOT NULL,
	created_at        TEXT NOT NULL,
	FOREIGN KEY (parent_id) REFERENCES state_versions(version_id)
);

CREATE INDEX IF NOT EXISTS idx_state_versions_user ON state_versions(user_id, created_at);

CREATE TABLE IF NOT EXISTS active_state (
	user_id       TEXT PRIMARY KEY,
	version_id    TEXT NOT NULL,
	FOREIGN KEY (version_id) REFERENCES state_versions(version_id)
);

CREATE TABLE IF NOT EXISTS decision_log (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	decision_id   TEXT NOT NULL,
	user_id       TEXT NOT NULL,
	version_id    TEXT,
	phase         TEXT NOT NULL,
	action_id     TEXT NOT NULL,
	reward        REAL,
	guardrails    TEXT,
	dominant      TEXT NOT NULL,
	explanation   TEXT,
	event_json    TEXT,
	degraded      INTEGER NOT NULL DEFAULT 0,
	created_at    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_decision_log_user ON decision_log(user_id, id);
`

// #endregion schema

// #region store-struct
// SQLiteStore keeps every saved snapshot as an immutable version and points
// each user at the active one. Reset drops the pointer; history is kept.
type SQLiteStore struct {
	db *sql.DB
}

// VersionRecord is the listing view of one stored version.
type VersionRecord struct {
	VersionID        string
	ParentID         string
	UserID           string
	InteractionCount int
	CreatedAt        time.Time
	Active           bool
}

// #endregion store-struct

// #region constructor
// NewSQLiteStore opens a SQLite database and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One connection serializes writers; per-user ordering is enforced upstream.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use by other packages (e.g. logging).
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// #endregion constructor

// #region load
// Load reads the active snapshot for userID.
func (s *SQLiteStore) Load(ctx context.Context, userID string) (Snapshot, bool, error) {
	var versionID string
	err := s.db.QueryRowContext(ctx,
		`SELECT version_id FROM active_state WHERE user_id = ?`, userID,
	).Scan(&versionID)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("get active %s: %w", userID, err)
	}
	snap, err := s.GetVersion(ctx, versionID)
	if err != nil {
		return Snapshot{}, false, err
	}
	return snap, true, nil
}

// GetVersion retrieves a specific snapshot version by ID.
func (s *SQLiteStore) GetVersion(ctx context.Context, versionID string) (Snapshot, error) {
	var data, createdStr string
	err := s.db.QueryRowContext(ctx,
		`SELECT snapshot_json, created_at FROM state_versions WHERE version_id = ?`, versionID,
	).Scan(&data, &createdStr)
	if err != nil {
		return Snapshot{}, fmt.Errorf("get version %s: %w", versionID, err)
	}
	snap, err := decodeSnapshot([]byte(data))
	if err != nil {
		return Snapshot{}, fmt.Errorf("version %s: %w", versionID, err)
	}
	snap.VersionID = versionID
	snap.UpdatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return snap, nil
}

// #endregion load

// #region save
// Save inserts a new version parented on the current active one and moves
// the active pointer atomically. An empty VersionID gets a fresh uuid.
func (s *SQLiteStore) Save(ctx context.Context, snap Snapshot) error {
	if snap.UpdatedAt.IsZero() {
		snap.UpdatedAt = time.Now().UTC()
	}
	if snap.VersionID == "" {
		snap.VersionID = uuid.New().String()
	}
	data, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var parent interface{}
	var parentID string
	err = tx.QueryRowContext(ctx, `SELECT version_id FROM active_state WHERE user_id = ?`, snap.UserID).Scan(&parentID)
	switch {
	case err == nil:
		parent = parentID
	case errors.Is(err, sql.ErrNoRows):
	default:
		return fmt.Errorf("get parent: %w", err)
	}

	id := snap.VersionID
	_, err = tx.ExecContext(ctx,
		`INSERT INTO state_versions (version_id, parent_id, user_id, snapshot_json, interaction_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, parent, snap.UserID, string(data), snap.State.InteractionCount,
		snap.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert version: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO active_state (user_id, version_id) VALUES (?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET version_id = excluded.version_id`,
		snap.UserID, id,
	)
	if err != nil {
		return fmt.Errorf("set active: %w", err)
	}

	return tx.Commit()
}

// #endregion save

// #region reset
// Reset detaches the user's active version so the next Load starts fresh.
func (s *SQLiteStore) Reset(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM active_state WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("reset %s: %w", userID, err)
	}
	return nil
}

// #endregion reset

// #region rollback
// Rollback points userID at one of its earlier versions.
func (s *SQLiteStore) Rollback(ctx context.Context, userID, targetVersionID string) error {
	var owner string
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id FROM state_versions WHERE version_id = ?`, targetVersionID,
	).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("version %s not found", targetVersionID)
	}
	if err != nil {
		return fmt.Errorf("check version: %w", err)
	}
	if owner != userID {
		return fmt.Errorf("version %s belongs to %s, not %s", targetVersionID, owner, userID)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO active_state (user_id, version_id) VALUES (?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET version_id = excluded.version_id`,
		userID, targetVersionID,
	)
	if err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

// #endregion rollback

// #region list-versions
// ListVersions returns the most recent versions for userID, newest first.
func (s *SQLiteStore) ListVersions(ctx context.Context, userID string, limit int) ([]VersionRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT v.version_id, v.parent_id, v.user_id, v.interaction_count, v.created_at,
		        a.version_id IS NOT NULL
		 FROM state_versions v
		 LEFT JOIN active_state a ON a.version_id = v.version_id
		 WHERE v.user_id = ?
		 ORDER BY v.rowid DESC LIMIT ?`, userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var records []VersionRecord
	for rows.Next() {
		var rec VersionRecord
		var parentID sql.NullString
		var createdStr string
		if err := rows.Scan(&rec.VersionID, &parentID, &rec.UserID, &rec.InteractionCount, &createdStr, &rec.Active); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if parentID.Valid {
			rec.ParentID = parentID.String
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ListUsers returns every user that currently has an active version.
func (s *SQLiteStore) ListUsers(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT user_id FROM active_state ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// #endregion list-versions
