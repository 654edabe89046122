package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"

	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/bandit"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/logging"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/state"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/store"
)

// #region main

func main() {
	dbPath := flag.String("db", envOr("AMAS_STORE_SQLITE_PATH", ""), "path to amas.db")
	user := flag.String("user", "", "user to inspect (omit to list users)")
	last := flag.Int("last", 20, "show N most recent versions or decisions")
	version := flag.String("version", "", "show single version detail")
	decisions := flag.Bool("decisions", false, "show the user's recent decisions instead of versions")
	rollback := flag.String("rollback", "", "make this version the user's active snapshot")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/amas.db [--user id] [--last N] [--version id] [--decisions] [--rollback id] [--json]")
		os.Exit(2)
	}
	if *rollback != "" && *user == "" {
		fmt.Fprintln(os.Stderr, "--rollback needs --user")
		os.Exit(2)
	}

	st, err := store.NewSQLiteStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	ctx := context.Background()
	switch {
	case *rollback != "":
		err = runRollback(ctx, st, *user, *rollback)
	case *version != "":
		err = runDetailMode(ctx, st, *version, *jsonOut)
	case *user == "":
		err = runUsersMode(ctx, st, *jsonOut)
	case *decisions:
		err = runDecisionsMode(ctx, st, *user, *last, *jsonOut)
	default:
		err = runListMode(ctx, st, *user, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

func runUsersMode(ctx context.Context, st *store.SQLiteStore, jsonOut bool) error {
	users, err := st.ListUsers(ctx)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(users)
	}
	if len(users) == 0 {
		fmt.Fprintln(os.Stderr, "no users found")
		return nil
	}
	for _, u := range users {
		fmt.Println(u)
	}
	return nil
}

type listRow struct {
	VersionID        string `json:"version_id"`
	ParentID         string `json:"parent_id,omitempty"`
	InteractionCount int    `json:"interaction_count"`
	Phase            string `json:"phase"`
	Active           bool   `json:"active"`
	CreatedAt        string `json:"created_at"`
}

func runListMode(ctx context.Context, st *store.SQLiteStore, userID string, last int, jsonOut bool) error {
	versions, err := st.ListVersions(ctx, userID, last)
	if err != nil {
		return err
	}
	if len(versions) == 0 {
		fmt.Fprintln(os.Stderr, "no versions found")
		return nil
	}

	rows := make([]listRow, len(versions))
	for i, v := range versions {
		rows[i] = listRow{
			VersionID:        v.VersionID,
			ParentID:         v.ParentID,
			InteractionCount: v.InteractionCount,
			Phase:            string(state.PhaseFor(v.InteractionCount)),
			Active:           v.Active,
			CreatedAt:        v.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
	}

	if jsonOut {
		return printJSON(rows)
	}
	fmt.Printf("%-10s  %-10s  %6s  %-15s  %-6s  %s\n", "Version", "Parent", "Count", "Phase", "Active", "Time")
	fmt.Printf("%-10s+-%-10s+-%6s+-%-15s+-%-6s+-%s\n",
		"----------", "----------", "------", "---------------", "------", "--------------------")
	for _, r := range rows {
		active := ""
		if r.Active {
			active = "*"
		}
		fmt.Printf("%-10s  %-10s  %6d  %-15s  %-6s  %s\n",
			shortID(r.VersionID), shortID(r.ParentID), r.InteractionCount, r.Phase, active, r.CreatedAt)
	}
	return nil
}

func runDecisionsMode(ctx context.Context, st *store.SQLiteStore, userID string, last int, jsonOut bool) error {
	entries, err := logging.RecentDecisions(ctx, st.DB(), userID, last)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "no decisions found")
		return nil
	}
	fmt.Printf("%-10s  %-15s  %-18s  %7s  %-16s  %s\n", "Version", "Phase", "Action", "Reward", "Dominant", "Guardrails")
	for _, e := range entries {
		rw := "-"
		if e.Reward != nil {
			rw = fmt.Sprintf("%+.3f", *e.Reward)
		}
		dom := e.Dominant
		if e.Degraded {
			dom += " (degraded)"
		}
		fmt.Printf("%-10s  %-15s  %-18s  %7s  %-16s  %s\n", shortID(e.VersionID), e.Phase, e.ActionID, rw, dom, e.Guardrails)
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

type detailOut struct {
	store.Snapshot
	Phase       state.Phase `json:"phase"`
	Diagnostics diagOut     `json:"diagnostics"`
}

// diagOut is bandit.Diagnostics with non-finite values dropped so the JSON
// encoder accepts it.
type diagOut struct {
	UpdateCount int      `json:"update_count"`
	Residual    float64  `json:"residual"`
	MinEigen    float64  `json:"min_eigen"`
	MaxEigen    float64  `json:"max_eigen"`
	Condition   *float64 `json:"condition,omitempty"`
	ThetaNorm   float64  `json:"theta_norm"`
}

func runDetailMode(ctx context.Context, st *store.SQLiteStore, versionID string, jsonOut bool) error {
	snap, err := st.GetVersion(ctx, versionID)
	if err != nil {
		return err
	}

	var d bandit.Diagnostics
	if snap.Model != nil {
		d = bandit.Diagnose(snap.Model)
	}
	out := detailOut{
		Snapshot: snap,
		Phase:    state.PhaseFor(snap.State.InteractionCount),
		Diagnostics: diagOut{
			UpdateCount: d.UpdateCount,
			Residual:    d.Residual,
			MinEigen:    d.MinEigen,
			MaxEigen:    d.MaxEigen,
			ThetaNorm:   d.ThetaNorm,
		},
	}
	if !math.IsInf(d.Condition, 0) && !math.IsNaN(d.Condition) {
		out.Diagnostics.Condition = &d.Condition
	}

	if jsonOut {
		return printJSON(out)
	}

	s := snap.State
	fmt.Printf("Version:   %s\n", snap.VersionID)
	fmt.Printf("User:      %s\n", snap.UserID)
	fmt.Printf("Updated:   %s\n", snap.UpdatedAt.Format("2006-01-02T15:04:05Z"))
	fmt.Printf("Phase:     %s (%d interactions)\n", out.Phase, s.InteractionCount)
	fmt.Println("\nState:")
	fmt.Printf("  attention   %.4f\n", s.Attention)
	fmt.Printf("  fatigue     %.4f\n", s.Fatigue)
	fmt.Printf("  motivation  %+.4f\n", s.Motivation)
	fmt.Printf("  memory      %.4f\n", s.Cognitive.Memory)
	fmt.Printf("  speed       %.4f\n", s.Cognitive.Speed)
	fmt.Printf("  stability   %.4f\n", s.Cognitive.Stability)

	sp := snap.Strategy
	fmt.Println("\nStrategy:")
	fmt.Printf("  interval x%.2f  new %.2f  %s  batch %d  hints %d\n",
		sp.IntervalScale, sp.NewRatio, sp.Difficulty, sp.BatchSize, sp.HintLevel)

	if snap.Last != nil {
		fmt.Printf("\nLast action: %s (#%d, %s)\n", snap.Last.ActionID, snap.Last.ActionIndex, snap.Last.Phase)
	}

	fmt.Println("\nModel:")
	fmt.Printf("  updates     %d\n", d.UpdateCount)
	fmt.Printf("  residual    %.3g\n", d.Residual)
	fmt.Printf("  eigen       [%.4g, %.4g]\n", d.MinEigen, d.MaxEigen)
	fmt.Printf("  condition   %.4g\n", d.Condition)
	fmt.Printf("  |theta|     %.4f\n", d.ThetaNorm)
	return nil
}

func runRollback(ctx context.Context, st *store.SQLiteStore, userID, versionID string) error {
	if err := st.Rollback(ctx, userID, versionID); err != nil {
		return err
	}
	fmt.Printf("user %s rolled back to %s\n", userID, shortID(versionID))
	return nil
}

// #endregion detail-mode

// #region output

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion output
