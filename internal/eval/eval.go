package eval

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/bandit"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/catalog"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/state"
)

// #region eval-harness
// EvalHarness validates a candidate (state, model, strategy) triple before it
// is persisted. A failure makes the engine fall back to the last known-good
// strategy.
type EvalHarness struct {
	config EvalConfig
}

// NewEvalHarness creates an eval harness with the given configuration.
func NewEvalHarness(config EvalConfig) *EvalHarness {
	return &EvalHarness{config: config}
}

// Run performs the checks. Every check is recorded in Metrics whether it
// passes or not.
func (h *EvalHarness) Run(s state.UserState, m *bandit.Model, sp catalog.StrategyParams) EvalResult {
	var metrics []EvalMetric
	var failReasons []string

	// 1. State bounds
	stateErr := s.Check()
	metrics = append(metrics, EvalMetric{Name: "state_bounds", Value: boolValue(stateErr == nil), Pass: stateErr == nil})
	if stateErr != nil {
		failReasons = append(failReasons, fmt.Sprintf("state: %v", stateErr))
	}

	// 2. Factor consistency: L·Lᵗ must reproduce A
	rel := m.Residual() / math.Max(1, maxAbs(m.A()))
	relPass := rel <= h.config.MaxRelativeResidual
	metrics = append(metrics, EvalMetric{Name: "cholesky_residual", Value: rel, Pass: relPass})
	if !relPass {
		failReasons = append(failReasons, fmt.Sprintf("cholesky residual %.3g exceeds %.3g", rel, h.config.MaxRelativeResidual))
	}

	// 3. Coefficients finite and bounded
	thetaNorm := mat.Norm(m.Theta(), 2)
	thetaPass := !math.IsNaN(thetaNorm) && !math.IsInf(thetaNorm, 0) && thetaNorm <= h.config.MaxThetaNorm
	metrics = append(metrics, EvalMetric{Name: "theta_norm", Value: thetaNorm, Pass: thetaPass})
	if !thetaPass {
		failReasons = append(failReasons, fmt.Sprintf("theta norm %.4g out of range", thetaNorm))
	}

	// 4. Strategy is well-formed
	spErr := checkStrategy(sp)
	metrics = append(metrics, EvalMetric{Name: "strategy", Value: boolValue(spErr == nil), Pass: spErr == nil})
	if spErr != nil {
		failReasons = append(failReasons, fmt.Sprintf("strategy: %v", spErr))
	}

	reason := "all checks passed"
	if len(failReasons) == 1 {
		reason = fmt.Sprintf("eval failed: %s", failReasons[0])
	} else if len(failReasons) > 1 {
		reason = fmt.Sprintf("eval failed: %d checks: %s", len(failReasons), failReasons[0])
	}

	return EvalResult{
		Passed:  len(failReasons) == 0,
		Metrics: metrics,
		Reason:  reason,
	}
}

// #endregion eval-harness

// #region helpers
func checkStrategy(sp catalog.StrategyParams) error {
	switch {
	case math.IsNaN(sp.IntervalScale) || sp.IntervalScale <= 0:
		return fmt.Errorf("interval_scale %v", sp.IntervalScale)
	case math.IsNaN(sp.NewRatio) || sp.NewRatio <= 0 || sp.NewRatio > 1:
		return fmt.Errorf("new_ratio %v", sp.NewRatio)
	case !sp.Difficulty.Valid():
		return fmt.Errorf("difficulty %q", sp.Difficulty)
	case sp.BatchSize < catalog.MinBatchSize:
		return fmt.Errorf("batch_size %d", sp.BatchSize)
	case sp.HintLevel < 0 || sp.HintLevel > catalog.MaxHintLevel:
		return fmt.Errorf("hint_level %d", sp.HintLevel)
	}
	return nil
}

func maxAbs(a mat.Matrix) float64 {
	r, c := a.Dims()
	worst := 0.0
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			worst = math.Max(worst, math.Abs(a.At(i, j)))
		}
	}
	return worst
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// #endregion helpers
