package model

import (
	"fmt"

	ssf "github.com/jdemetra/jdemetra-core-sub001"
	gomatrix "github.com/milosgajdos/matrix"
	"gonum.org/v1/gonum/mat"
)

// Regression augments a model with regression coefficients.
//
//	y[t] = Z*a[t] + X[t,:]*b[t] + e[t]
//	b[t+1] = b[t] + v[t], var(v) = diag(vars)
//
// Coefficients with zero variance are fixed, the others follow random walks.
// All the coefficients are diffuse. The base model is not modified.
type Regression struct {
	base ssf.Model
	x    *mat.Dense
	vars []float64
	// rw holds indices of the random walk coefficients
	rw []int
	// eye is the coefficient transition block
	eye *mat.Dense
}

// NewRegression creates new Regression decorator of base with regressors x [n x k].
// vars holds coefficient variances; nil means fixed coefficients.
// It returns error if vars length differs from the number of regressors or if any variance is negative.
func NewRegression(base ssf.Model, x *mat.Dense, vars []float64) (*Regression, error) {
	if base == nil || x == nil {
		return nil, fmt.Errorf("invalid regression model: base and regressors must be defined")
	}

	_, k := x.Dims()
	if k == 0 {
		return nil, fmt.Errorf("invalid number of regressors: %d", k)
	}
	if vars == nil {
		vars = make([]float64, k)
	}
	if len(vars) != k {
		return nil, fmt.Errorf("invalid coefficient variances length: %d != %d", len(vars), k)
	}

	var rw []int
	for i, v := range vars {
		if v < 0 {
			return nil, fmt.Errorf("invalid coefficient variance: %g", v)
		}
		if v > 0 {
			rw = append(rw, i)
		}
	}

	eye, err := gomatrix.NewDenseValIdentity(k, 1.0)
	if err != nil {
		return nil, err
	}

	v := make([]float64, k)
	copy(v, vars)

	return &Regression{
		base: base,
		x:    mat.DenseCopyOf(x),
		vars: v,
		rw:   rw,
		eye:  eye,
	}, nil
}

// Base returns the decorated model
func (m *Regression) Base() ssf.Model {
	return m.base
}

func (m *Regression) nx() int {
	_, k := m.x.Dims()
	return k
}

// xAt returns regressor i at pos; zero beyond the regression data
func (m *Regression) xAt(pos, i int) float64 {
	n, _ := m.x.Dims()
	if pos >= n {
		return 0
	}

	return m.x.At(pos, i)
}

// StateDim returns base state dimension plus the number of regressors
func (m *Regression) StateDim() int {
	return m.base.StateDim() + m.nx()
}

// IsTimeInvariant returns false: regressors vary in time
func (m *Regression) IsTimeInvariant() bool { return false }

// IsMeasurementTimeInvariant returns false
func (m *Regression) IsMeasurementTimeInvariant() bool { return false }

// IsTransitionTimeInvariant delegates to the base model
func (m *Regression) IsTransitionTimeInvariant() bool {
	return m.base.IsTransitionTimeInvariant()
}

// IsTransitionResidualTimeInvariant delegates to the base model
func (m *Regression) IsTransitionResidualTimeInvariant() bool {
	return m.base.IsTransitionResidualTimeInvariant()
}

// Z adds [Z(pos) X(pos,:)] into z
func (m *Regression) Z(pos int, z *mat.VecDense) {
	r := m.base.StateDim()
	m.base.Z(pos, z.SliceVec(0, r).(*mat.VecDense))
	for i := 0; i < m.nx(); i++ {
		z.SetVec(r+i, z.AtVec(r+i)+m.xAt(pos, i))
	}
}

// ZX returns Z(pos)*a + X(pos,:)*b
func (m *Regression) ZX(pos int, x mat.Vector) float64 {
	r := m.base.StateDim()
	s := ZX(m.base, pos, subVector(x, 0, r))
	for i := 0; i < m.nx(); i++ {
		s += m.xAt(pos, i) * x.AtVec(r+i)
	}

	return s
}

// H delegates to the base model
func (m *Regression) H(pos int) float64 {
	return m.base.H(pos)
}

// T adds blockdiag(T(pos), I) into t
func (m *Regression) T(pos int, t *mat.Dense) {
	r, k := m.base.StateDim(), m.nx()
	m.base.T(pos, t.Slice(0, r, 0, r).(*mat.Dense))
	blk := t.Slice(r, r+k, r, r+k).(*mat.Dense)
	blk.Add(blk, m.eye)
}

// TX applies the base transition to the base states; coefficients are unchanged
func (m *Regression) TX(pos int, x *mat.VecDense) {
	TX(m.base, pos, x.SliceVec(0, m.base.StateDim()).(*mat.VecDense))
}

// XT applies the transposed base transition to the base states
func (m *Regression) XT(pos int, x *mat.VecDense) {
	XT(m.base, pos, x.SliceVec(0, m.base.StateDim()).(*mat.VecDense))
}

// ResDim returns the state dimension: the noise is given by its full loading
func (m *Regression) ResDim() int {
	return m.StateDim()
}

// ResCount returns base noise count plus the number of random walk coefficients
func (m *Regression) ResCount() int {
	return m.base.ResCount() + len(m.rw)
}

// Q adds blockdiag(Q(pos), diag(vars)) into q
func (m *Regression) Q(pos int, q *mat.SymDense) {
	nb := m.base.ResCount()
	if nb > 0 {
		bq := mat.NewSymDense(nb, nil)
		m.base.Q(pos, bq)
		addSymBlock(q, 0, bq)
	}
	for j, i := range m.rw {
		q.SetSym(nb+j, nb+j, q.At(nb+j, nb+j)+m.vars[i])
	}
}

// HasR returns false
func (m *Regression) HasR() bool { return false }

// R returns nil
func (m *Regression) R(pos int) []int { return nil }

// HasW returns true
func (m *Regression) HasW() bool { return true }

// W adds blockdiag(R(pos)*W(pos), S) into w where S selects the random walk coefficients
func (m *Regression) W(pos int, w *mat.Dense) {
	r, nb := m.base.StateDim(), m.base.ResCount()
	if nb > 0 {
		Loading(m.base, pos, w.Slice(0, r, 0, nb).(*mat.Dense))
	}
	for j, i := range m.rw {
		w.Set(r+i, nb+j, w.At(r+i, nb+j)+1)
	}
}

// Pf0 adds the base initial covariance; coefficients have no proper variance
func (m *Regression) Pf0(p *mat.SymDense) {
	r := m.base.StateDim()
	bp := mat.NewSymDense(r, nil)
	m.base.Pf0(bp)
	addSymBlock(p, 0, bp)
}

// DiffuseDim returns base diffuse dimension plus the number of regressors
func (m *Regression) DiffuseDim() int {
	return m.base.DiffuseDim() + m.nx()
}

// DiffuseConstraints adds blockdiag(B, I) into b
func (m *Regression) DiffuseConstraints(b *mat.Dense) {
	r, d, k := m.base.StateDim(), m.base.DiffuseDim(), m.nx()
	if d > 0 {
		m.base.DiffuseConstraints(b.Slice(0, r, 0, d).(*mat.Dense))
	}
	blk := b.Slice(r, r+k, d, d+k).(*mat.Dense)
	blk.Add(blk, m.eye)
}
