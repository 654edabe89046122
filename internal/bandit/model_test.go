package bandit

import (
	"encoding/json"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func randomContext(rng *rand.Rand) *mat.VecDense {
	data := make([]float64, Dim)
	for i := range data {
		data[i] = rng.Float64()
	}
	data[Dim-1] = 1
	return mat.NewVecDense(Dim, data)
}

func trainedModel(t *testing.T, n int) *Model {
	t.Helper()
	rng := rand.New(rand.NewSource(42))
	m := NewModel(1.0)
	for i := 0; i < n; i++ {
		require.NoError(t, m.Observe(randomContext(rng), rng.Float64()*2-1))
	}
	return m
}

func TestNewModel_Prior(t *testing.T) {
	m := NewModel(2.0)
	x := mat.NewVecDense(Dim, nil)
	x.SetVec(0, 3)
	x.SetVec(1, 4)

	assert.Equal(t, 0.0, mat.Norm(m.Theta(), 2))
	assert.InDelta(t, 5/math.Sqrt(2), m.Width(x), 1e-12)
	assert.InDelta(t, math.Sqrt(2), m.L().At(3, 3), 1e-12)
	assert.Equal(t, 0, m.UpdateCount())
}

func TestObserve_FactorMatchesA(t *testing.T) {
	m := trainedModel(t, 200)
	assert.Equal(t, 200, m.UpdateCount())
	assert.Less(t, m.Residual(), 1e-9)

	// Cross-check θ against an independent dense solve.
	var want mat.VecDense
	require.NoError(t, want.SolveVec(m.A(), m.B()))
	got := m.Theta()
	for i := 0; i < Dim; i++ {
		assert.InDelta(t, want.AtVec(i), got.AtVec(i), 1e-8)
	}

	// Width² equals xᵗA⁻¹x from an explicit inverse.
	var inv mat.Dense
	require.NoError(t, inv.Inverse(m.A()))
	x := randomContext(rand.New(rand.NewSource(1)))
	var tmp mat.VecDense
	tmp.MulVec(&inv, x)
	assert.InDelta(t, mat.Dot(x, &tmp), m.Width(x)*m.Width(x), 1e-9)
}

func TestObserve_RejectsNonFinite(t *testing.T) {
	m := NewModel(1.0)
	x := mat.NewVecDense(Dim, nil)
	assert.ErrorIs(t, m.Observe(x, math.NaN()), ErrInvalidObservation)

	x.SetVec(2, math.Inf(1))
	assert.ErrorIs(t, m.Observe(x, 0.5), ErrInvalidObservation)
	assert.ErrorIs(t, m.Observe(mat.NewVecDense(3, nil), 0.5), ErrInvalidObservation)
	assert.Equal(t, 0, m.UpdateCount())
}

func TestObserve_FactorizationFailureResets(t *testing.T) {
	m := trainedModel(t, 20)
	m.a.SetSym(0, 0, -1e6)

	err := m.Observe(randomContext(rand.New(rand.NewSource(3))), 0.4)
	require.ErrorIs(t, err, ErrNotPositiveDefinite)

	assert.Equal(t, 0, m.UpdateCount())
	assert.Equal(t, 0.0, mat.Norm(m.B(), 2))
	for i := 0; i < Dim; i++ {
		assert.Equal(t, 1.0, m.A().At(i, i))
		assert.Equal(t, 1.0, m.L().At(i, i))
	}
	assert.Less(t, m.Residual(), 1e-12)
}

func TestModel_JSONRoundTrip(t *testing.T) {
	m := trainedModel(t, 75)
	data, err := json.Marshal(m)
	require.NoError(t, err)

	var restored Model
	require.NoError(t, json.Unmarshal(data, &restored))

	assert.Equal(t, m.UpdateCount(), restored.UpdateCount())
	assert.Equal(t, m.Lambda(), restored.Lambda())
	assert.True(t, mat.EqualApprox(m.A(), restored.A(), 1e-12))
	assert.True(t, mat.EqualApprox(m.L(), restored.L(), 1e-10))
	assert.True(t, mat.EqualApprox(m.Theta(), restored.Theta(), 1e-10))
}

func TestModel_UnmarshalRejectsCorrupt(t *testing.T) {
	good, err := json.Marshal(NewModel(1.0))
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(good, &raw))

	tests := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{"short b", func(r map[string]any) { r["b"] = []float64{1, 2} }},
		{"wrong dim", func(r map[string]any) { r["dim"] = 5 }},
		{"zero lambda", func(r map[string]any) { r["lambda"] = 0 }},
		{"not positive definite", func(r map[string]any) {
			a := make([]float64, Dim*Dim)
			r["a"] = a
		}},
		{"asymmetric", func(r map[string]any) {
			a := make([]float64, Dim*Dim)
			for i := 0; i < Dim; i++ {
				a[i*Dim+i] = 1
			}
			a[1] = 0.5
			r["a"] = a
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cp := map[string]any{}
			for k, v := range raw {
				cp[k] = v
			}
			tt.mutate(cp)
			data, err := json.Marshal(cp)
			require.NoError(t, err)

			var m Model
			assert.ErrorIs(t, json.Unmarshal(data, &m), ErrCorruptModel)
		})
	}

	// truncated input never reaches UnmarshalJSON through json.Unmarshal
	var m Model
	assert.ErrorIs(t, m.UnmarshalJSON([]byte(`{"a":`)), ErrCorruptModel)
	assert.Error(t, json.Unmarshal([]byte(`{"a":`), &m))
}

func TestModel_CloneIsIndependent(t *testing.T) {
	m := trainedModel(t, 10)
	c := m.Clone()
	require.NoError(t, c.Observe(randomContext(rand.New(rand.NewSource(9))), 1))

	assert.Equal(t, 10, m.UpdateCount())
	assert.Equal(t, 11, c.UpdateCount())
	assert.Less(t, m.Residual(), 1e-9)
	assert.False(t, mat.EqualApprox(m.A(), c.A(), 1e-12))
}

func TestDiagnose(t *testing.T) {
	d := Diagnose(NewModel(1.0))
	assert.InDelta(t, 1.0, d.Condition, 1e-12)
	assert.InDelta(t, 1.0, d.MinEigen, 1e-12)

	d = Diagnose(trainedModel(t, 50))
	assert.Greater(t, d.Condition, 1.0)
	assert.GreaterOrEqual(t, d.MinEigen, 1.0-1e-9)
	assert.Less(t, d.Residual, 1e-9)
	assert.Equal(t, 50, d.UpdateCount)
}
