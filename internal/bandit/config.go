package bandit

// Dim is the length of the context vector.
const Dim = 12

// Config holds the LinUCB hyperparameters.
type Config struct {
	Alpha             float64 `mapstructure:"alpha"`              // exploration weight
	Lambda            float64 `mapstructure:"lambda"`             // ridge regularization, A starts as λI
	ExploreMultiplier float64 `mapstructure:"explore_multiplier"` // alpha multiplier during the exploration phase
}

// DefaultConfig returns the standard hyperparameters.
func DefaultConfig() Config {
	return Config{
		Alpha:             0.3,
		Lambda:            1.0,
		ExploreMultiplier: 2.0,
	}
}
