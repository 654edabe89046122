package decision

import (
	"math"

	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/catalog"
)

// Config controls how far a strategy may move per decision.
type Config struct {
	// Smoothing is the fraction of the gap to the target covered per event.
	Smoothing float64 `mapstructure:"smoothing"`
}

// DefaultConfig returns the standard smoothing.
func DefaultConfig() Config {
	return Config{Smoothing: 0.5}
}

// Mapper turns bandit actions into smoothed strategies.
type Mapper struct {
	config Config
}

// NewMapper creates a mapper.
func NewMapper(config Config) *Mapper {
	return &Mapper{config: config}
}

// Map moves previous toward the action's target strategy. Numeric fields
// cover a bounded fraction of the gap (integers at least one unit), hint
// level and difficulty move one step. An unset previous strategy starts from
// catalog.DefaultStrategy.
func (m *Mapper) Map(action catalog.Action, previous catalog.StrategyParams) catalog.StrategyParams {
	if !previous.Difficulty.Valid() {
		previous = catalog.DefaultStrategy()
	}
	target := action.Strategy()
	eta := m.config.Smoothing

	return catalog.StrategyParams{
		IntervalScale: approach(previous.IntervalScale, target.IntervalScale, eta),
		NewRatio:      approach(previous.NewRatio, target.NewRatio, eta),
		Difficulty:    previous.Difficulty.StepToward(target.Difficulty),
		BatchSize:     approachInt(previous.BatchSize, target.BatchSize, eta),
		HintLevel:     stepInt(previous.HintLevel, target.HintLevel),
	}
}

func approach(from, to, eta float64) float64 {
	next := from + eta*(to-from)
	next = math.Round(next*1000) / 1000
	if math.Abs(to-next) < 0.005 {
		return to
	}
	return next
}

func approachInt(from, to int, eta float64) int {
	if from == to {
		return to
	}
	step := int(math.Round(eta * float64(to-from)))
	if step == 0 {
		step = 1
		if to < from {
			step = -1
		}
	}
	return from + step
}

func stepInt(from, to int) int {
	switch {
	case to > from:
		return from + 1
	case to < from:
		return from - 1
	default:
		return from
	}
}
