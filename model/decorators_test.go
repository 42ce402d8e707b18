package model

import (
	"errors"
	"math"
	"testing"

	ssf "github.com/jdemetra/jdemetra-core-sub001"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

// dense returns the dense system matrices of m at pos
func dense(m ssf.Model, pos int) (*mat.VecDense, *mat.Dense, *mat.SymDense) {
	r := m.StateDim()
	z := mat.NewVecDense(r, nil)
	m.Z(pos, z)
	t := mat.NewDense(r, r, nil)
	m.T(pos, t)

	full := mat.NewSymDense(r, nil)
	if n := m.ResCount(); n > 0 {
		q := mat.NewSymDense(n, nil)
		m.Q(pos, q)
		g := mat.NewDense(r, n, nil)
		Loading(m, pos, g)
		var gqg mat.Dense
		gqg.Product(g, q, g.T())
		for i := 0; i < r; i++ {
			for j := i; j < r; j++ {
				full.SetSym(i, j, gqg.At(i, j))
			}
		}
	}

	return z, t, full
}

// checkOperators compares the workspace operators of m with their dense counterparts
func checkOperators(t *testing.T, m ssf.Model, positions ...int) {
	assert := assert.New(t)

	r := m.StateDim()
	x := mat.NewVecDense(r, nil)
	v := mat.NewSymDense(r, nil)
	for i := 0; i < r; i++ {
		x.SetVec(i, math.Sin(float64(i+1)))
		for j := i; j < r; j++ {
			v.SetSym(i, j, 1/float64(i+j+1))
		}
	}

	ws := NewWorkspace(m)
	for _, pos := range positions {
		ws.Move(pos)
		assert.Equal(pos, ws.Pos())
		z, tm, full := dense(m, pos)

		assert.InDelta(mat.Dot(z, x), ws.ZX(x), 1e-12)
		assert.InDelta(mat.Inner(z, v, z), ws.ZVZ(v), 1e-12)

		exp := mat.NewVecDense(r, nil)
		exp.MulVec(tm, x)
		act := mat.VecDenseCopyOf(x)
		ws.TX(act)
		assert.True(mat.EqualApprox(exp, act, 1e-12))

		exp.MulVec(tm.T(), x)
		act.CopyVec(x)
		ws.XT(act)
		assert.True(mat.EqualApprox(exp, act, 1e-12))

		var tvt mat.Dense
		tvt.Product(tm, v, tm.T())
		sv := mat.NewSymDense(r, nil)
		sv.CopySym(v)
		ws.TVT(sv)
		assert.True(mat.EqualApprox(&tvt, sv, 1e-12))

		assert.True(mat.EqualApprox(full, ws.FullQ(), 1e-12))

		mz := mat.NewVecDense(r, nil)
		ws.ZM(v, mz)
		exp.MulVec(v, z)
		assert.True(mat.EqualApprox(exp, mz, 1e-12))
	}
}

func regressors(n, k int) *mat.Dense {
	x := mat.NewDense(n, k, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < k; j++ {
			x.Set(i, j, math.Cos(float64(i*(j+1))))
		}
	}

	return x
}

func TestOperators(t *testing.T) {
	assert := assert.New(t)

	llt, err := NewLocalLinearTrend(0.1, 0.01, 1.0)
	assert.NoError(err)
	seas, err := NewSeasonal(5, 0.3, 0)
	assert.NoError(err)
	ar, err := NewAR([]float64{0.4, 0.2}, 1.0, 0.5)
	assert.NoError(err)

	reg, err := NewRegression(llt, regressors(10, 2), []float64{0, 0.2})
	assert.NoError(err)
	cmp, err := NewComposite(llt, seas, ar)
	assert.NoError(err)
	wgt, err := NewWeighted(ar, func(pos int) float64 { return 1 + 0.5*float64(pos) })
	assert.NoError(err)

	for _, m := range []ssf.Model{llt, seas, ar, reg, cmp, wgt} {
		assert.NoError(Validate(m))
		checkOperators(t, m, 0, 1, 3, 2)
	}
}

func TestRegression(t *testing.T) {
	assert := assert.New(t)

	ll, err := NewLocalLevel(1.0, 2.0)
	assert.NoError(err)

	_, err = NewRegression(ll, regressors(5, 2), []float64{1})
	assert.Error(err)
	_, err = NewRegression(ll, regressors(5, 2), []float64{1, -1})
	assert.Error(err)
	_, err = NewRegression(nil, regressors(5, 2), nil)
	assert.Error(err)

	x := regressors(5, 2)
	reg, err := NewRegression(ll, x, []float64{0, 0.3})
	assert.NoError(err)
	assert.Equal(ll, reg.Base())
	assert.Equal(3, reg.StateDim())
	assert.Equal(3, reg.DiffuseDim())
	assert.Equal(2, reg.ResCount())
	assert.False(reg.IsTimeInvariant())

	z := mat.NewVecDense(3, nil)
	reg.Z(2, z)
	assert.Equal([]float64{1, x.At(2, 0), x.At(2, 1)}, z.RawVector().Data)

	// beyond the regression data the coefficients do not contribute
	z.Zero()
	reg.Z(7, z)
	assert.Equal([]float64{1, 0, 0}, z.RawVector().Data)

	full := mat.NewSymDense(3, nil)
	FullQ(reg, 0, full)
	assert.Equal(1.0, full.At(0, 0))
	assert.Equal(0.0, full.At(1, 1))
	assert.Equal(0.3, full.At(2, 2))

	pi := mat.NewSymDense(3, nil)
	Pi0(reg, pi)
	assert.True(mat.Equal(mat.NewSymDense(3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}), pi))
}

func TestWeighted(t *testing.T) {
	assert := assert.New(t)

	_, err := NewWeighted(nil, func(int) float64 { return 1 })
	assert.Error(err)

	llt, err := NewLocalLinearTrend(0.1, 0.01, 1.0)
	assert.NoError(err)
	w, err := NewWeighted(llt, func(pos int) float64 { return float64(pos + 1) })
	assert.NoError(err)
	assert.Equal(llt, w.Base())
	assert.Equal(3.0, w.Weight(2))
	assert.False(w.IsTimeInvariant())
	assert.True(w.IsTransitionTimeInvariant())

	ws := NewWorkspace(w)
	assert.Equal(1.0, ws.Z().AtVec(0))
	ws.Move(4)
	assert.Equal(5.0, ws.Z().AtVec(0))
	assert.Equal(1.0, ws.H())

	// wrapping a decorated model
	ww, err := NewWeighted(w, func(pos int) float64 { return 2 })
	assert.NoError(err)
	assert.InDelta(10.0, ZX(ww, 4, mat.NewVecDense(2, []float64{1, 0})), 1e-12)
}

func TestCompositeAssociativity(t *testing.T) {
	assert := assert.New(t)

	llt, err := NewLocalLinearTrend(0.1, 0.01, 1.0)
	assert.NoError(err)
	seas, err := NewSeasonal(4, 0.3, 0.2)
	assert.NoError(err)
	ar, err := NewAR([]float64{0.6}, 1.0, 0.5)
	assert.NoError(err)

	ab, err := NewComposite(llt, seas)
	assert.NoError(err)
	left, err := NewComposite(ab, ar)
	assert.NoError(err)
	bc, err := NewComposite(seas, ar)
	assert.NoError(err)
	right, err := NewComposite(llt, bc)
	assert.NoError(err)

	assert.Equal(left.StateDim(), right.StateDim())
	assert.Equal(left.DiffuseDim(), right.DiffuseDim())
	assert.Equal(left.ResCount(), right.ResCount())
	assert.Equal(2, right.Offset(1))
	assert.Len(right.Models(), 2)

	for _, pos := range []int{0, 3} {
		assert.InDelta(1.7, left.H(pos), 1e-12)
		assert.InDelta(left.H(pos), right.H(pos), 1e-12)

		lz, lt, lq := dense(left, pos)
		rz, rt, rq := dense(right, pos)
		assert.True(mat.Equal(lz, rz))
		assert.True(mat.Equal(lt, rt))
		assert.True(mat.EqualApprox(lq, rq, 1e-12))
	}

	r := left.StateDim()
	lp, rp := mat.NewSymDense(r, nil), mat.NewSymDense(r, nil)
	Pi0(left, lp)
	Pi0(right, rp)
	assert.True(mat.Equal(lp, rp))

	lp.Zero()
	rp.Zero()
	left.Pf0(lp)
	right.Pf0(rp)
	assert.True(mat.Equal(lp, rp))
	assert.InDelta(1/(1-0.36), lp.At(r-1, r-1), 1e-10)

	_, err = NewComposite()
	assert.Error(err)
	_, err = NewComposite(llt, nil)
	assert.Error(err)
}

// badSelection reports noise selection indices out of range
type badSelection struct {
	*Base
}

func (b *badSelection) R(pos int) []int { return []int{5} }

func TestValidate(t *testing.T) {
	assert := assert.New(t)

	ar, err := NewAR([]float64{0.6}, 1.0, 0.5)
	assert.NoError(err)

	err = Validate(&badSelection{Base: ar})
	assert.Error(err)
	assert.True(errors.Is(err, ssf.ErrInvalidModel))

	rankDeficient, err := NewBase(System{
		T: mat.NewDense(2, 2, []float64{1, 0, 0, 1}),
		Z: mat.NewVecDense(2, []float64{1, 1}),
		B: mat.NewDense(2, 2, []float64{1, 1, 1, 1}),
	})
	assert.NoError(err)
	err = Validate(rankDeficient)
	assert.Error(err)
	assert.True(errors.Is(err, ssf.ErrInvalidModel))
}
