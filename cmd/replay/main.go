package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/config"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/replay"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/store"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to amas.db (DB mode)")
	fixturePath := flag.String("fixture", "", "path to fixture JSON (fixture mode)")
	configPath := flag.String("config", "", "engine config file (optional)")
	workers := flag.Int("workers", 4, "users replayed in parallel")
	verbose := flag.Bool("v", false, "print every event, not just checked ones")
	flag.Parse()

	if (*dbPath == "" && *fixturePath == "") || (*dbPath != "" && *fixturePath != "") {
		fmt.Fprintln(os.Stderr, "usage: replay --db path/to/amas.db")
		fmt.Fprintln(os.Stderr, "       replay --fixture path/to/fixture.json")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(2)
	}

	var f *replay.Fixture
	if *fixturePath != "" {
		f, err = replay.LoadFixture(*fixturePath)
	} else {
		f, err = loadDecisionLog(*dbPath)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}
	if len(f.Users) == 0 {
		fmt.Fprintln(os.Stderr, "no replayable events found")
		os.Exit(2)
	}

	os.Exit(run(f, cfg, *workers, *verbose))
}

// #endregion main

// #region db-extract

// loadDecisionLog turns a decision log into a fixture whose expectations are
// the phase and action recorded at the time.
func loadDecisionLog(dbPath string) (*replay.Fixture, error) {
	st, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	defer st.Close()

	f, err := replay.FromDecisionLog(context.Background(), st.DB())
	if err != nil {
		return nil, fmt.Errorf("read decision log: %w", err)
	}
	return f, nil
}

// #endregion db-extract

// #region output

func run(f *replay.Fixture, cfg config.Config, workers int, verbose bool) int {
	cat, err := cfg.BuildCatalog()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build catalog: %v\n", err)
		return 2
	}

	results, err := replay.Replay(context.Background(), f, cfg.Engine(), cat, workers)
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		return 2
	}

	checked := make(map[string]map[int]bool, len(f.Users))
	for _, u := range f.Users {
		checked[u.UserID] = make(map[int]bool, len(u.Expect))
		for _, e := range u.Expect {
			checked[u.UserID][e.Event] = true
		}
	}

	return printComparison(results, checked, verbose, replay.Summarize(f, results))
}

// printComparison outputs a per-event table and returns the exit code.
func printComparison(results []replay.ReplayResult, checked map[string]map[int]bool, verbose bool, s replay.ReplaySummary) int {
	fmt.Printf("%-12s| %-6s| %-15s| %-18s| %-6s| %s\n", "User", "Event", "Phase", "Action", "Break", "Match")
	fmt.Printf("%-12s+%-7s+%-16s+%-19s+%-7s+%s\n",
		"------------", "-------", "----------------", "-------------------", "-------", "------")

	for _, r := range results {
		if !verbose && !checked[r.UserID][r.Event] {
			continue
		}
		action := "-"
		if r.Response.Action != nil {
			action = r.Response.Action.ID
		}
		match := "OK"
		if len(r.Failures) > 0 {
			match = "DIFF " + strings.Join(r.Failures, "; ")
		}
		fmt.Printf("%-12s| %-6d| %-15s| %-18s| %-6v| %s\n",
			r.UserID, r.Event, r.Response.Phase, action, r.Response.ShouldBreak, match)
	}

	fmt.Printf("\nSummary: %d users, %d events, %d checked, %d diverge\n", s.Users, s.TotalEvents, s.Checked, s.Failed)
	fmt.Printf("Breaks: %d  Degraded: %d\n", s.Breaks, s.Degraded)
	if len(s.Guardrails) > 0 {
		kinds := make([]string, 0, len(s.Guardrails))
		for k, n := range s.Guardrails {
			kinds = append(kinds, fmt.Sprintf("%s=%d", k, n))
		}
		sort.Strings(kinds)
		fmt.Printf("Guardrails: %s\n", strings.Join(kinds, " "))
	}

	if s.Failed > 0 {
		return 1
	}
	return 0
}

// #endregion output
