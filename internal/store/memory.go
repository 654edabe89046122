package store

import (
	"context"
	"sync"
)

// MemoryStore keeps encoded snapshots in a map. Round-tripping through the
// encoding keeps callers from sharing mutable model state.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string][]byte
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string][]byte)}
}

func (s *MemoryStore) Load(_ context.Context, userID string) (Snapshot, bool, error) {
	s.mu.RLock()
	data, ok := s.users[userID]
	s.mu.RUnlock()
	if !ok {
		return Snapshot{}, false, nil
	}
	snap, err := decodeSnapshot(data)
	if err != nil {
		return Snapshot{}, false, err
	}
	return snap, true, nil
}

func (s *MemoryStore) Save(_ context.Context, snap Snapshot) error {
	data, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.users[snap.UserID] = data
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Reset(_ context.Context, userID string) error {
	s.mu.Lock()
	delete(s.users, userID)
	s.mu.Unlock()
	return nil
}

// Put stores raw bytes for userID. Used to simulate corrupt persisted data.
func (s *MemoryStore) Put(userID string, data []byte) {
	s.mu.Lock()
	s.users[userID] = data
	s.mu.Unlock()
}

func (s *MemoryStore) Close() error { return nil }
