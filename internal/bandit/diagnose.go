package bandit

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Diagnostics summarizes the numerical health of a model.
type Diagnostics struct {
	UpdateCount int     `json:"update_count"`
	Residual    float64 `json:"residual"` // max |L·Lᵗ − A|
	MinEigen    float64 `json:"min_eigen"`
	MaxEigen    float64 `json:"max_eigen"`
	Condition   float64 `json:"condition"`
	ThetaNorm   float64 `json:"theta_norm"`
}

// Diagnose runs an eigen decomposition of A. It is meant for inspection
// tooling and tests, not for the per-event path.
func Diagnose(m *Model) Diagnostics {
	d := Diagnostics{
		UpdateCount: m.UpdateCount(),
		Residual:    m.Residual(),
		ThetaNorm:   mat.Norm(m.Theta(), 2),
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(m.A(), false); !ok {
		d.Condition = math.Inf(1)
		return d
	}
	vals := eig.Values(nil)
	d.MinEigen, d.MaxEigen = vals[0], vals[0]
	for _, v := range vals[1:] {
		d.MinEigen = math.Min(d.MinEigen, v)
		d.MaxEigen = math.Max(d.MaxEigen, v)
	}
	if d.MinEigen > 0 {
		d.Condition = d.MaxEigen / d.MinEigen
	} else {
		d.Condition = math.Inf(1)
	}
	return d
}
