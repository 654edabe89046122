package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/bandit"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/catalog"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/state"
	"gonum.org/v1/gonum/mat"
)

// #region helpers
func tempDB(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleSnapshot(userID string, count int) Snapshot {
	st := state.Default()
	st.InteractionCount = count
	st.Fatigue = 0.25
	st.History = st.History.Push(state.Outcome{Correct: true, RTNorm: 0.1}, 10)

	m := bandit.NewModel(1.0)
	x := mat.NewVecDense(bandit.Dim, nil)
	x.SetVec(0, 0.4)
	x.SetVec(bandit.Dim-1, 1)
	_ = m.Observe(x, 0.5)

	return Snapshot{
		UserID:   userID,
		State:    st,
		Model:    m,
		Strategy: catalog.DefaultStrategy(),
		Last: &LastDecision{
			ActionIndex: 9,
			ActionID:    "i1.0-r0.2",
			State:       st,
			Phase:       state.PhaseClassification,
			DecidedAt:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		},
	}
}

// storeContract runs the behavior every Store implementation shares.
func storeContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, found, err := s.Load(ctx, "nobody"); err != nil || found {
		t.Fatalf("expected not found for unknown user, got found=%v err=%v", found, err)
	}

	want := sampleSnapshot("u1", 3)
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, found, err := s.Load(ctx, "u1")
	if err != nil || !found {
		t.Fatalf("Load: found=%v err=%v", found, err)
	}
	if got.State.InteractionCount != 3 || got.State.Fatigue != 0.25 {
		t.Fatalf("state mismatch: %+v", got.State)
	}
	if len(got.State.History.Recent) != 1 {
		t.Fatalf("window not persisted: %+v", got.State.History)
	}
	if got.Strategy != want.Strategy {
		t.Fatalf("strategy mismatch: %+v", got.Strategy)
	}
	if got.Last == nil || got.Last.ActionIndex != 9 || got.Last.Phase != state.PhaseClassification {
		t.Fatalf("last decision mismatch: %+v", got.Last)
	}
	if got.Model.UpdateCount() != 1 || !mat.EqualApprox(got.Model.L(), want.Model.L(), 1e-12) {
		t.Fatal("model factor not restored")
	}

	// Saved copies are independent of the caller's model.
	_ = want.Model.Observe(mat.NewVecDense(bandit.Dim, nil), 1)
	again, _, _ := s.Load(ctx, "u1")
	if again.Model.UpdateCount() != 1 {
		t.Fatalf("stored model aliased caller model: %d updates", again.Model.UpdateCount())
	}

	if err := s.Reset(ctx, "u1"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if _, found, _ := s.Load(ctx, "u1"); found {
		t.Fatal("expected not found after reset")
	}

	if err := s.Save(ctx, Snapshot{UserID: "u2"}); err == nil {
		t.Fatal("expected error saving snapshot without model")
	}
}

// #endregion helpers

// #region contract-tests
func TestMemoryStore_Contract(t *testing.T) {
	storeContract(t, NewMemoryStore())
}

func TestSQLiteStore_Contract(t *testing.T) {
	storeContract(t, tempDB(t))
}

func TestRedisStore_Contract(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	s, err := NewRedisStore(context.Background(), RedisOptions{Addr: addr, Prefix: "amas:test:" + t.Name() + ":"})
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	defer s.Close()
	storeContract(t, s)
}

// #endregion contract-tests

// #region corrupt
func TestMemoryStore_CorruptSnapshot(t *testing.T) {
	s := NewMemoryStore()
	s.Put("u1", []byte(`{"user_id":"u1","model":{"dim":3}}`))

	_, found, err := s.Load(context.Background(), "u1")
	if found {
		t.Fatal("corrupt snapshot should not be reported as found")
	}
	if !errors.Is(err, ErrCorruptState) {
		t.Fatalf("expected ErrCorruptState, got %v", err)
	}

	s.Put("u2", []byte(`{"user_id":"u2"}`))
	if _, _, err := s.Load(context.Background(), "u2"); !errors.Is(err, ErrCorruptState) {
		t.Fatalf("expected ErrCorruptState for missing model, got %v", err)
	}
}

// #endregion corrupt

// #region versioning
func TestSQLiteStore_VersionChain(t *testing.T) {
	s := tempDB(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		if err := s.Save(ctx, sampleSnapshot("u1", i)); err != nil {
			t.Fatalf("Save %d: %v", i, err)
		}
	}
	if err := s.Save(ctx, sampleSnapshot("u2", 1)); err != nil {
		t.Fatalf("Save u2: %v", err)
	}

	versions, err := s.ListVersions(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("ListVersions: %v", err)
	}
	if len(versions) != 3 {
		t.Fatalf("expected 3 versions, got %d", len(versions))
	}
	if !versions[0].Active || versions[0].InteractionCount != 3 {
		t.Fatalf("newest version should be active with count 3: %+v", versions[0])
	}
	if versions[0].ParentID != versions[1].VersionID || versions[1].ParentID != versions[2].VersionID {
		t.Fatal("parent chain broken")
	}
	if versions[2].ParentID != "" {
		t.Fatalf("first version should have no parent, got %s", versions[2].ParentID)
	}

	users, err := s.ListUsers(ctx)
	if err != nil || len(users) != 2 {
		t.Fatalf("expected 2 users, got %v (%v)", users, err)
	}
}

func TestSQLiteStore_Rollback(t *testing.T) {
	s := tempDB(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		if err := s.Save(ctx, sampleSnapshot("u1", i)); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	versions, _ := s.ListVersions(ctx, "u1", 10)
	first := versions[2].VersionID

	if err := s.Rollback(ctx, "u1", first); err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	snap, found, err := s.Load(ctx, "u1")
	if err != nil || !found {
		t.Fatalf("Load: %v", err)
	}
	if snap.VersionID != first || snap.State.InteractionCount != 1 {
		t.Fatalf("expected rolled back to %s (count 1), got %s (count %d)", first, snap.VersionID, snap.State.InteractionCount)
	}

	if err := s.Rollback(ctx, "u1", "missing"); err == nil {
		t.Fatal("expected error for unknown version")
	}
	if err := s.Save(ctx, sampleSnapshot("u2", 1)); err != nil {
		t.Fatalf("Save u2: %v", err)
	}
	other, _ := s.ListVersions(ctx, "u2", 1)
	if err := s.Rollback(ctx, "u1", other[0].VersionID); err == nil {
		t.Fatal("expected error rolling back to another user's version")
	}
}

func TestSQLiteStore_ResetKeepsHistory(t *testing.T) {
	s := tempDB(t)
	ctx := context.Background()
	if err := s.Save(ctx, sampleSnapshot("u1", 1)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Reset(ctx, "u1"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	versions, _ := s.ListVersions(ctx, "u1", 10)
	if len(versions) != 1 || versions[0].Active {
		t.Fatalf("expected one inactive version, got %+v", versions)
	}

	// A save after reset starts a new chain.
	if err := s.Save(ctx, sampleSnapshot("u1", 1)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	versions, _ = s.ListVersions(ctx, "u1", 10)
	if versions[0].ParentID != "" {
		t.Fatalf("expected fresh chain after reset, parent=%s", versions[0].ParentID)
	}
}

func TestSQLiteStore_ReopenPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persist.db")
	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	if err := s.Save(context.Background(), sampleSnapshot("u1", 7)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	s.Close()

	s2, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	snap, found, err := s2.Load(context.Background(), "u1")
	if err != nil || !found || snap.State.InteractionCount != 7 {
		t.Fatalf("expected persisted snapshot, got found=%v err=%v", found, err)
	}
}

// #endregion versioning
