package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/replay"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/store"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to amas.db")
	users := flag.String("users", "", "comma-separated user ids to export (default all)")
	last := flag.Int("last", 0, "keep only the N most recent events per user (0 = all)")
	outPath := flag.String("out", "", "output fixture JSON path")
	flag.Parse()

	if *dbPath == "" || *outPath == "" {
		fmt.Fprintln(os.Stderr, "usage: fixture-export --db path/to/amas.db --out path/to/fixture.json [--users a,b] [--last N]")
		os.Exit(2)
	}

	if err := run(*dbPath, *users, *last, *outPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region extract

func run(dbPath, users string, last int, outPath string) error {
	st, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer st.Close()

	f, err := replay.FromDecisionLog(context.Background(), st.DB())
	if err != nil {
		return fmt.Errorf("read decision log: %w", err)
	}

	if users != "" {
		keep := make(map[string]bool)
		for _, u := range strings.Split(users, ",") {
			keep[strings.TrimSpace(u)] = true
		}
		filtered := f.Users[:0]
		for _, u := range f.Users {
			if keep[u.UserID] {
				filtered = append(filtered, u)
			}
		}
		f.Users = filtered
	}
	if last > 0 {
		for i := range f.Users {
			f.Users[i] = tail(f.Users[i], last)
		}
	}
	if len(f.Users) == 0 {
		return errors.New("no replayable decisions found")
	}
	f.Description = fmt.Sprintf("exported from %s", dbPath)

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(outPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write fixture: %w", err)
	}

	events := 0
	for _, u := range f.Users {
		events += len(u.Events)
	}
	fmt.Printf("Exported %d users, %d events to %s\n", len(f.Users), events, outPath)
	return nil
}

// tail keeps the last n events. A truncated stream replays from a fresh
// state, so the recorded expectations no longer apply and are dropped.
func tail(u replay.FixtureUser, n int) replay.FixtureUser {
	if len(u.Events) <= n {
		return u
	}
	u.Events = u.Events[len(u.Events)-n:]
	u.Expect = nil
	return u
}

// #endregion extract
