package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/bandit"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/catalog"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/state"
)

// ErrCorruptState is returned when a persisted snapshot cannot be decoded.
var ErrCorruptState = errors.New("corrupt user snapshot")

// #region snapshot
// Snapshot is everything the engine persists per user.
type Snapshot struct {
	UserID    string                 `json:"user_id"`
	State     state.UserState        `json:"state"`
	Model     *bandit.Model          `json:"model"`
	Strategy  catalog.StrategyParams `json:"strategy"`
	Last      *LastDecision          `json:"last,omitempty"`
	VersionID string                 `json:"version_id,omitempty"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// LastDecision remembers the action taken on the previous event and the
// state it was chosen in, so the next event can credit its reward.
type LastDecision struct {
	ActionIndex int             `json:"action_index"`
	ActionID    string          `json:"action_id"`
	State       state.UserState `json:"state"`
	Phase       state.Phase     `json:"phase"`
	DecidedAt   time.Time       `json:"decided_at"`
}

// #endregion snapshot

// #region store-interface
// Store persists per-user snapshots. Load reports found=false for unknown
// or reset users.
type Store interface {
	Load(ctx context.Context, userID string) (Snapshot, bool, error)
	Save(ctx context.Context, snap Snapshot) error
	Reset(ctx context.Context, userID string) error
	Close() error
}

// #endregion store-interface

// #region encoding
func encodeSnapshot(snap Snapshot) ([]byte, error) {
	if snap.UserID == "" {
		return nil, errors.New("snapshot has no user id")
	}
	if snap.Model == nil {
		return nil, fmt.Errorf("snapshot for %s has no model", snap.UserID)
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return data, nil
}

func decodeSnapshot(data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	if snap.Model == nil {
		return Snapshot{}, fmt.Errorf("%w: missing model", ErrCorruptState)
	}
	return snap, nil
}

// #endregion encoding
