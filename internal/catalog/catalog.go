package catalog

import (
	"errors"
	"fmt"
	"math"
)

// Size is the number of actions every catalog must contain.
const Size = 24

// ErrInvalidCatalog is returned for any malformed catalog.
var ErrInvalidCatalog = errors.New("invalid action catalog")

// Intervals and Ratios span the default catalog grid.
var (
	Intervals = []float64{0.5, 0.8, 1.0, 1.2, 1.5, 2.0}
	Ratios    = []float64{0.1, 0.2, 0.3, 0.4}
)

// Safe subset used while a user is still being classified.
var (
	SafeIntervals = []float64{0.8, 1.0, 1.2}
	SafeRatios    = []float64{0.1, 0.2}
)

// #region catalog
// Catalog is the validated, immutable list of actions.
type Catalog struct {
	actions []Action
	safe    []int
}

// Default builds the standard interval × new_ratio grid.
func Default() *Catalog {
	actions := make([]Action, 0, Size)
	for _, interval := range Intervals {
		for _, ratio := range Ratios {
			diff := difficultyForRatio(ratio)
			actions = append(actions, Action{
				IntervalScale: interval,
				NewRatio:      ratio,
				Difficulty:    diff,
				BatchSize:     batchForRatio(ratio),
				HintLevel:     hintForDifficulty(diff),
			})
		}
	}
	c, err := New(actions)
	if err != nil {
		panic(fmt.Sprintf("default catalog: %v", err))
	}
	return c
}

// New validates the entries and assigns indices and IDs in the given order.
func New(actions []Action) (*Catalog, error) {
	if len(actions) != Size {
		return nil, fmt.Errorf("%w: expected %d actions, got %d", ErrInvalidCatalog, Size, len(actions))
	}
	seen := make(map[string]int, len(actions))
	out := make([]Action, len(actions))
	for i, a := range actions {
		if err := validateAction(a); err != nil {
			return nil, fmt.Errorf("%w: action %d: %v", ErrInvalidCatalog, i, err)
		}
		a.Index = i
		a.ID = actionID(a.IntervalScale, a.NewRatio)
		if prev, dup := seen[a.ID]; dup {
			return nil, fmt.Errorf("%w: action %d duplicates action %d (%s)", ErrInvalidCatalog, i, prev, a.ID)
		}
		seen[a.ID] = i
		out[i] = a
	}

	c := &Catalog{actions: out}
	for _, a := range out {
		if containsFloat(SafeIntervals, a.IntervalScale) && containsFloat(SafeRatios, a.NewRatio) {
			c.safe = append(c.safe, a.Index)
		}
	}
	if len(c.safe) == 0 {
		return nil, fmt.Errorf("%w: no action falls in the classification safe subset", ErrInvalidCatalog)
	}
	return c, nil
}

func validateAction(a Action) error {
	switch {
	case !finite(a.IntervalScale) || a.IntervalScale <= 0:
		return fmt.Errorf("interval_scale %v must be positive", a.IntervalScale)
	case !finite(a.NewRatio) || a.NewRatio <= 0 || a.NewRatio > 1:
		return fmt.Errorf("new_ratio %v must be in (0, 1]", a.NewRatio)
	case !a.Difficulty.Valid():
		return fmt.Errorf("unknown difficulty %q", a.Difficulty)
	case a.BatchSize < MinBatchSize:
		return fmt.Errorf("batch_size %d must be >= %d", a.BatchSize, MinBatchSize)
	case a.HintLevel < 0 || a.HintLevel > MaxHintLevel:
		return fmt.Errorf("hint_level %d must be in [0, %d]", a.HintLevel, MaxHintLevel)
	}
	return nil
}

// #endregion catalog

// #region accessors
// Len returns the number of actions.
func (c *Catalog) Len() int { return len(c.actions) }

// Actions returns a copy of all actions in index order.
func (c *Catalog) Actions() []Action {
	out := make([]Action, len(c.actions))
	copy(out, c.actions)
	return out
}

// At returns the action at index i.
func (c *Catalog) At(i int) (Action, bool) {
	if i < 0 || i >= len(c.actions) {
		return Action{}, false
	}
	return c.actions[i], true
}

// Find looks up the action with the given interval scale and new ratio.
func (c *Catalog) Find(interval, ratio float64) (Action, bool) {
	id := actionID(interval, ratio)
	for _, a := range c.actions {
		if a.ID == id {
			return a, true
		}
	}
	return Action{}, false
}

// SafeSubset returns the actions eligible during classification, in index order.
func (c *Catalog) SafeSubset() []Action {
	out := make([]Action, 0, len(c.safe))
	for _, i := range c.safe {
		out = append(out, c.actions[i])
	}
	return out
}

// #endregion accessors

// #region derivation
func difficultyForRatio(ratio float64) Difficulty {
	switch {
	case ratio <= 0.1:
		return DifficultyEasy
	case ratio >= 0.4:
		return DifficultyHard
	default:
		return DifficultyMid
	}
}

func batchForRatio(ratio float64) int {
	switch {
	case ratio <= 0.1:
		return 5
	case ratio <= 0.2:
		return 8
	case ratio <= 0.3:
		return 12
	default:
		return 16
	}
}

func hintForDifficulty(d Difficulty) int {
	switch d {
	case DifficultyEasy:
		return 2
	case DifficultyHard:
		return 0
	default:
		return 1
	}
}

func containsFloat(set []float64, v float64) bool {
	for _, s := range set {
		if math.Abs(s-v) < 1e-9 {
			return true
		}
	}
	return false
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// #endregion derivation
