package catalog

import "fmt"

// #region difficulty
// Difficulty is the coarse content difficulty level of a session strategy.
type Difficulty string

const (
	DifficultyEasy Difficulty = "easy"
	DifficultyMid  Difficulty = "mid"
	DifficultyHard Difficulty = "hard"
)

var difficultyOrder = []Difficulty{DifficultyEasy, DifficultyMid, DifficultyHard}

// Rank returns 0 for easy, 1 for mid, 2 for hard and -1 for unknown values.
func (d Difficulty) Rank() int {
	for i, v := range difficultyOrder {
		if v == d {
			return i
		}
	}
	return -1
}

// Valid reports whether d is one of the three known levels.
func (d Difficulty) Valid() bool { return d.Rank() >= 0 }

// Easier returns the next easier level, saturating at easy.
func (d Difficulty) Easier() Difficulty {
	r := d.Rank()
	if r <= 0 {
		return DifficultyEasy
	}
	return difficultyOrder[r-1]
}

// Harder returns the next harder level, saturating at hard.
func (d Difficulty) Harder() Difficulty {
	r := d.Rank()
	if r < 0 {
		return DifficultyMid
	}
	if r >= len(difficultyOrder)-1 {
		return DifficultyHard
	}
	return difficultyOrder[r+1]
}

// StepToward moves one level from d toward target.
func (d Difficulty) StepToward(target Difficulty) Difficulty {
	switch {
	case !d.Valid():
		return target
	case target.Rank() > d.Rank():
		return d.Harder()
	case target.Rank() < d.Rank():
		return d.Easier()
	default:
		return d
	}
}

// #endregion difficulty

// #region strategy
// StrategyParams is the concrete session configuration handed to the learning UI.
type StrategyParams struct {
	IntervalScale float64    `json:"interval_scale"`
	NewRatio      float64    `json:"new_ratio"`
	Difficulty    Difficulty `json:"difficulty"`
	BatchSize     int        `json:"batch_size"`
	HintLevel     int        `json:"hint_level"`
}

// DefaultStrategy is the strategy a user starts from before any decision exists.
func DefaultStrategy() StrategyParams {
	return StrategyParams{
		IntervalScale: 1.0,
		NewRatio:      0.2,
		Difficulty:    DifficultyMid,
		BatchSize:     8,
		HintLevel:     1,
	}
}

const (
	MinBatchSize = 1
	MaxHintLevel = 2
)

// #endregion strategy

// #region action
// Action is one entry of the fixed action catalog. Index is its position in the
// catalog and doubles as the bandit arm identifier.
type Action struct {
	Index         int        `json:"index"`
	ID            string     `json:"id"`
	IntervalScale float64    `json:"interval_scale" mapstructure:"interval_scale"`
	NewRatio      float64    `json:"new_ratio" mapstructure:"new_ratio"`
	Difficulty    Difficulty `json:"difficulty" mapstructure:"difficulty"`
	BatchSize     int        `json:"batch_size" mapstructure:"batch_size"`
	HintLevel     int        `json:"hint_level" mapstructure:"hint_level"`
}

// Strategy returns the action's target strategy.
func (a Action) Strategy() StrategyParams {
	return StrategyParams{
		IntervalScale: a.IntervalScale,
		NewRatio:      a.NewRatio,
		Difficulty:    a.Difficulty,
		BatchSize:     a.BatchSize,
		HintLevel:     a.HintLevel,
	}
}

func actionID(interval, ratio float64) string {
	return fmt.Sprintf("i%.1f-r%.1f", interval, ratio)
}

// #endregion action
