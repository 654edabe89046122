package bandit

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrNotPositiveDefinite is returned when A can no longer be factorized.
	// The model has already been reset when this is returned.
	ErrNotPositiveDefinite = errors.New("design matrix is not positive definite")
	// ErrInvalidObservation rejects non-finite contexts or rewards.
	ErrInvalidObservation = errors.New("non-finite observation")
	// ErrCorruptModel is returned when a serialized model cannot be restored.
	ErrCorruptModel = errors.New("corrupt bandit model")
)

// #region model
// Model is a single shared LinUCB model over all actions. A is the d×d design
// matrix, b the reward-weighted context sum, and chol the Cholesky factor of A,
// refreshed after every change to A.
type Model struct {
	lambda  float64
	updates int
	a       *mat.SymDense
	b       *mat.VecDense
	chol    mat.Cholesky
}

// NewModel returns the prior model A = λI, b = 0.
func NewModel(lambda float64) *Model {
	m := &Model{lambda: lambda}
	m.reset()
	return m
}

func (m *Model) reset() {
	m.a = mat.NewSymDense(Dim, nil)
	for i := 0; i < Dim; i++ {
		m.a.SetSym(i, i, m.lambda)
	}
	m.b = mat.NewVecDense(Dim, nil)
	m.updates = 0
	// λI with λ > 0 always factorizes.
	m.chol.Factorize(m.a)
}

// Lambda returns the regularization the model was created with.
func (m *Model) Lambda() float64 { return m.lambda }

// UpdateCount returns the number of observations folded into the model.
func (m *Model) UpdateCount() int { return m.updates }

// A returns a copy of the design matrix.
func (m *Model) A() *mat.SymDense {
	out := mat.NewSymDense(Dim, nil)
	out.CopySym(m.a)
	return out
}

// B returns a copy of the reward vector.
func (m *Model) B() *mat.VecDense {
	return mat.VecDenseCopyOf(m.b)
}

// L returns a copy of the lower Cholesky factor.
func (m *Model) L() *mat.TriDense {
	var l mat.TriDense
	m.chol.LTo(&l)
	return &l
}

// Clone returns an independent copy of m.
func (m *Model) Clone() *Model {
	c := &Model{lambda: m.lambda, updates: m.updates, a: m.A(), b: m.B()}
	c.chol.Clone(&m.chol)
	return c
}

// #endregion model

// #region estimates
// Theta solves A·θ = b through the factor (forward then back substitution).
func (m *Model) Theta() *mat.VecDense {
	var theta mat.VecDense
	// SolveVecTo only errors on ill-conditioning; the solution is still written.
	_ = m.chol.SolveVecTo(&theta, m.b)
	return &theta
}

// Mean returns θᵗx.
func (m *Model) Mean(x mat.Vector) float64 {
	return mat.Dot(m.Theta(), x)
}

// Width returns √(xᵗA⁻¹x), computed by solving A·z = x.
func (m *Model) Width(x mat.Vector) float64 {
	var z mat.VecDense
	_ = m.chol.SolveVecTo(&z, x)
	q := mat.Dot(x, &z)
	if q < 0 {
		q = 0
	}
	return math.Sqrt(q)
}

// #endregion estimates

// #region observe
// Observe folds (x, reward) into the model: A += xxᵗ, b += r·x, then
// refactorizes A. If the factorization fails the model is reset to its prior
// and ErrNotPositiveDefinite is returned.
func (m *Model) Observe(x mat.Vector, reward float64) error {
	if x.Len() != Dim {
		return fmt.Errorf("%w: context length %d, want %d", ErrInvalidObservation, x.Len(), Dim)
	}
	if !finite(reward) {
		return fmt.Errorf("%w: reward %v", ErrInvalidObservation, reward)
	}
	for i := 0; i < Dim; i++ {
		if !finite(x.AtVec(i)) {
			return fmt.Errorf("%w: context[%d] = %v", ErrInvalidObservation, i, x.AtVec(i))
		}
	}

	m.a.SymRankOne(m.a, 1, x)
	m.b.AddScaledVec(m.b, reward, x)
	m.updates++

	if ok := m.chol.Factorize(m.a); !ok {
		n := m.updates
		m.reset()
		return fmt.Errorf("%w after %d updates", ErrNotPositiveDefinite, n)
	}
	return nil
}

// Reset restores the prior A = λI, b = 0.
func (m *Model) Reset() { m.reset() }

// #endregion observe

// #region residual
// Residual returns max |(L·Lᵗ − A)ij|.
func (m *Model) Residual() float64 {
	var rebuilt mat.SymDense
	m.chol.ToSym(&rebuilt)
	worst := 0.0
	for i := 0; i < Dim; i++ {
		for j := 0; j <= i; j++ {
			d := math.Abs(rebuilt.At(i, j) - m.a.At(i, j))
			if math.IsNaN(d) {
				return math.Inf(1)
			}
			worst = math.Max(worst, d)
		}
	}
	return worst
}

// #endregion residual

// #region serialization
type modelJSON struct {
	Dim         int       `json:"dim"`
	Lambda      float64   `json:"lambda"`
	UpdateCount int       `json:"update_count"`
	A           []float64 `json:"a"` // row-major d×d
	B           []float64 `json:"b"`
}

// MarshalJSON persists A and b only; the factor is rebuilt on load.
func (m *Model) MarshalJSON() ([]byte, error) {
	out := modelJSON{
		Dim:         Dim,
		Lambda:      m.lambda,
		UpdateCount: m.updates,
		A:           make([]float64, 0, Dim*Dim),
		B:           make([]float64, Dim),
	}
	for i := 0; i < Dim; i++ {
		for j := 0; j < Dim; j++ {
			out.A = append(out.A, m.a.At(i, j))
		}
		out.B[i] = m.b.AtVec(i)
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores A and b and refactorizes. Dimension mismatches,
// asymmetric or non-positive-definite matrices yield ErrCorruptModel.
func (m *Model) UnmarshalJSON(data []byte) error {
	var in modelJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptModel, err)
	}
	if in.Dim != Dim || len(in.A) != Dim*Dim || len(in.B) != Dim {
		return fmt.Errorf("%w: dimension mismatch (dim=%d, |A|=%d, |b|=%d)", ErrCorruptModel, in.Dim, len(in.A), len(in.B))
	}
	if !finite(in.Lambda) || in.Lambda <= 0 {
		return fmt.Errorf("%w: lambda %v", ErrCorruptModel, in.Lambda)
	}

	a := mat.NewSymDense(Dim, nil)
	for i := 0; i < Dim; i++ {
		for j := i; j < Dim; j++ {
			v, w := in.A[i*Dim+j], in.A[j*Dim+i]
			if !finite(v) || math.Abs(v-w) > 1e-9*math.Max(1, math.Abs(v)) {
				return fmt.Errorf("%w: A[%d][%d] invalid or asymmetric", ErrCorruptModel, i, j)
			}
			a.SetSym(i, j, v)
		}
	}
	for i, v := range in.B {
		if !finite(v) {
			return fmt.Errorf("%w: b[%d] = %v", ErrCorruptModel, i, v)
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(a); !ok {
		return fmt.Errorf("%w: %v", ErrCorruptModel, ErrNotPositiveDefinite)
	}
	m.lambda = in.Lambda
	m.updates = in.UpdateCount
	m.a = a
	m.b = mat.NewVecDense(Dim, in.B)
	m.chol = chol
	return nil
}

// #endregion serialization

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
