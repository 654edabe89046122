package eval

// #region eval-config
// EvalConfig holds thresholds for post-update validation.
type EvalConfig struct {
	MaxRelativeResidual float64 `mapstructure:"max_relative_residual"` // max |L·Lᵗ−A| / max(1, max|A|)
	MaxThetaNorm        float64 `mapstructure:"max_theta_norm"`        // reject runaway coefficient growth
}

// DefaultEvalConfig returns the standard thresholds.
func DefaultEvalConfig() EvalConfig {
	return EvalConfig{
		MaxRelativeResidual: 1e-8,
		MaxThetaNorm:        1e3,
	}
}

// #endregion eval-config

// #region eval-metric
// EvalMetric captures a single validation check result.
type EvalMetric struct {
	Name  string
	Value float64
	Pass  bool
}

// #endregion eval-metric

// #region eval-result
// EvalResult is the output of post-update validation.
type EvalResult struct {
	Passed  bool
	Metrics []EvalMetric
	Reason  string
}

// #endregion eval-result
