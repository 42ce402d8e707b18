package fast

import (
	"errors"
	"math"
	"os"
	"testing"

	ssf "github.com/jdemetra/jdemetra-core-sub001"
	"github.com/jdemetra/jdemetra-core-sub001/data"
	"github.com/jdemetra/jdemetra-core-sub001/kalman"
	"github.com/jdemetra/jdemetra-core-sub001/kalman/kf"
	"github.com/jdemetra/jdemetra-core-sub001/model"
	"github.com/jdemetra/jdemetra-core-sub001/results"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

var (
	y          []float64
	localLevel ssf.Model
	ar2        ssf.Model
)

func setup() {
	y = make([]float64, 120)
	for i := range y {
		y[i] = math.Sin(0.2*float64(i)) + 0.5*math.Cos(1.3*float64(i)) + 0.01*float64(i)
	}

	localLevel, _ = model.NewLocalLevel(1.0, 2.0)
	ar2, _ = model.NewAR([]float64{0.6, 0.25}, 1.0, 0.3)
}

func TestMain(m *testing.M) {
	// set up tests
	setup()
	// run the tests
	os.Exit(m.Run())
}

func filter(t *testing.T, f kalman.Filter, d ssf.Data) *results.Filtering {
	res := results.NewFiltering(results.All)
	assert.NoError(t, f.Process(d, res))

	return res
}

func reference(t *testing.T, m ssf.Model, d ssf.Data) *results.Filtering {
	f, err := kf.New(m, nil)
	assert.NoError(t, err)

	return filter(t, f, d)
}

func same(t *testing.T, exp, act *results.Filtering, cov bool) {
	assert := assert.New(t)

	assert.Equal(exp.Len(), act.Len())
	assert.Equal(exp.DiffuseEnd(), act.DiffuseEnd())
	for pos := 0; pos < exp.Len(); pos++ {
		if math.IsNaN(exp.E(pos)) {
			assert.True(math.IsNaN(act.E(pos)))
		} else {
			assert.InDelta(exp.E(pos), act.E(pos), 1e-9)
		}
		assert.InDelta(exp.F(pos), act.F(pos), 1e-9)
		assert.True(mat.EqualApprox(exp.C(pos), act.C(pos), 1e-9))
		if cov {
			assert.True(mat.EqualApprox(exp.P(pos), act.P(pos), 1e-9))
		}
	}
}

func TestNew(t *testing.T) {
	assert := assert.New(t)

	f, err := New(nil, nil)
	assert.Error(err)
	assert.Nil(f)

	w, err := model.NewWeighted(localLevel, func(pos int) float64 { return 1 + float64(pos%2) })
	assert.NoError(err)
	f, err = New(w, nil)
	assert.Error(err)
	assert.Nil(f)

	a, err := NewArray(w, nil)
	assert.NoError(err)
	assert.Equal(w, a.Model())

	f, err = New(ar2, &Config{Epsilon: 1e-10})
	assert.NoError(err)
	assert.Nil(f.init)
	assert.Equal(1e-10, f.eps)
}

func TestFastLocalLevel(t *testing.T) {
	assert := assert.New(t)

	f, err := New(localLevel, nil)
	assert.NoError(err)

	d := data.NewSeries(y)
	act := filter(t, f, d)
	same(t, reference(t, localLevel, d), act, false)

	// covariance is not tracked without missing values
	assert.Nil(act.P(act.Len() - 1))
}

func TestFastAR(t *testing.T) {
	f, err := New(ar2, &Config{Covariance: true})
	assert.NoError(t, err)

	d := data.NewSeries(y)
	same(t, reference(t, ar2, d), filter(t, f, d), true)
}

func TestFastMissing(t *testing.T) {
	assert := assert.New(t)

	s := data.NewSeries(y)
	assert.NoError(s.SetMissing(10, 11, 50))

	f, err := New(localLevel, nil)
	assert.NoError(err)
	same(t, reference(t, localLevel, s), filter(t, f, s), true)

	ar1, err := model.NewAR([]float64{0.8}, 1.0, 0.5)
	assert.NoError(err)
	f, err = New(ar1, nil)
	assert.NoError(err)
	same(t, reference(t, ar1, s), filter(t, f, s), true)
}

func TestFastDeterministic(t *testing.T) {
	assert := assert.New(t)

	// noiseless rotation: two observations pin the state down and F vanishes
	c, sn := math.Cos(0.7), math.Sin(0.7)
	rot := mat.NewDense(2, 2, []float64{c, -sn, sn, c})
	m, err := model.NewBase(model.System{
		T:   rot,
		Z:   mat.NewVecDense(2, []float64{1, 0}),
		Pf0: mat.NewSymDense(2, []float64{1, 0, 0, 1}),
	})
	assert.NoError(err)

	obs := make([]float64, 20)
	a := mat.NewVecDense(2, []float64{1.0, 0.5})
	next := mat.NewVecDense(2, nil)
	for i := range obs {
		obs[i] = a.AtVec(0)
		next.MulVec(rot, a)
		a.CopyVec(next)
	}
	d := data.NewSeries(obs)

	exp := reference(t, m, d)
	for pos := 2; pos < exp.Len(); pos++ {
		assert.Equal(0.0, exp.F(pos))
	}

	fast, err := New(m, nil)
	assert.NoError(err)
	same(t, exp, filter(t, fast, d), false)

	tracked, err := New(m, &Config{Covariance: true})
	assert.NoError(err)
	same(t, exp, filter(t, tracked, d), true)

	array, err := NewArray(m, nil)
	assert.NoError(err)
	same(t, exp, filter(t, array, d), true)
}

func TestFastInit(t *testing.T) {
	assert := assert.New(t)

	// a zero initial covariance makes the covariance grow
	m, err := model.NewBase(model.System{
		T: mat.NewDense(1, 1, []float64{1}),
		Z: mat.NewVecDense(1, []float64{1}),
		H: 1.0,
		Q: mat.NewSymDense(1, []float64{1}),
	})
	assert.NoError(err)

	f, err := New(m, nil)
	assert.NoError(err)

	err = f.Process(data.NewSeries(y), results.NewFiltering(results.All))
	assert.Error(err)
	assert.True(errors.Is(err, ssf.ErrFastInit))
}

func TestArray(t *testing.T) {
	assert := assert.New(t)

	llt, err := model.NewLocalLinearTrend(0.1, 0.01, 0.5)
	assert.NoError(err)
	seas, err := model.NewSeasonal(4, 0.2, 0)
	assert.NoError(err)
	bsm, err := model.NewComposite(llt, seas)
	assert.NoError(err)

	s := data.NewSeries(y)
	assert.NoError(s.SetMissing(20, 21))

	for _, m := range []ssf.Model{localLevel, ar2, bsm} {
		f, err := NewArray(m, nil)
		assert.NoError(err)

		act := filter(t, f, s)
		same(t, reference(t, m, s), act, true)

		// the factor reproduces the covariance
		pos := act.Len() - 1
		p := &mat.SymDense{}
		p.SymOuterK(1, act.S(pos))
		assert.True(mat.EqualApprox(act.P(pos), p, 1e-12))
	}
}

func TestArrayTimeVarying(t *testing.T) {
	assert := assert.New(t)

	w, err := model.NewWeighted(localLevel, func(pos int) float64 { return 1 + float64(pos%3) })
	assert.NoError(err)

	f, err := NewArray(w, nil)
	assert.NoError(err)

	d := data.NewSeries(y)
	same(t, reference(t, w, d), filter(t, f, d), true)
}
