package diffuse_test

import (
	"errors"
	"math"
	"os"
	"testing"

	ssf "github.com/jdemetra/jdemetra-core-sub001"
	"github.com/jdemetra/jdemetra-core-sub001/data"
	"github.com/jdemetra/jdemetra-core-sub001/kalman/diffuse"
	"github.com/jdemetra/jdemetra-core-sub001/kalman/kf"
	"github.com/jdemetra/jdemetra-core-sub001/likelihood"
	"github.com/jdemetra/jdemetra-core-sub001/model"
	"github.com/jdemetra/jdemetra-core-sub001/results"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

var (
	y []float64
)

func setup() {
	y = make([]float64, 60)
	for i := range y {
		y[i] = 0.05*float64(i) + math.Sin(math.Pi*float64(i)/2) + 0.3*math.Cos(1.7*float64(i))
	}
}

func TestMain(m *testing.M) {
	// set up tests
	setup()
	// run the tests
	os.Exit(m.Run())
}

// basis records the number of diffuse basis columns
type basis struct {
	*results.Filtering
	cols []int
}

func (b *basis) SaveDiffuse(pos int, st *ssf.DiffuseState) error {
	if st.B != nil {
		_, c := st.B.Dims()
		b.cols = append(b.cols, c)
	}
	return b.Filtering.SaveDiffuse(pos, st)
}

func process(t *testing.T, m ssf.Model, init ssf.Initializer, d ssf.Data) (*basis, *likelihood.Likelihood) {
	f, err := kf.New(m, &kf.Config{Initializer: init})
	assert.NoError(t, err)

	res := &basis{Filtering: results.NewFiltering(results.All)}
	acc := likelihood.NewAccumulator()
	assert.NoError(t, f.Process(d, results.NewMulti(res, acc)))

	ll, err := acc.Likelihood()
	assert.NoError(t, err)

	return res, ll
}

func compare(t *testing.T, m ssf.Model, d ssf.Data) (*basis, *basis) {
	assert := assert.New(t)

	direct, err := diffuse.NewDirect(m, nil)
	assert.NoError(err)
	sqrt, err := diffuse.NewSquareRoot(m, nil)
	assert.NoError(err)

	r1, ll1 := process(t, m, direct, d)
	r2, ll2 := process(t, m, sqrt, d)

	assert.Equal(r1.DiffuseEnd(), r2.DiffuseEnd())
	assert.Equal(ll1.ND, ll2.ND)
	assert.InDelta(ll1.DiffuseLogDet, ll2.DiffuseLogDet, 1e-8)
	assert.InDelta(ll1.LogLikelihood(), ll2.LogLikelihood(), 1e-8)

	for pos := 0; pos < r1.DiffuseEnd(); pos++ {
		assert.InDelta(r1.Fi(pos), r2.Fi(pos), 1e-8)
	}
	end := r1.DiffuseEnd()
	assert.True(mat.EqualApprox(r1.A(end), r2.A(end), 1e-8))
	assert.True(mat.EqualApprox(r1.P(end), r2.P(end), 1e-8))
	for pos := end; pos < r1.Len(); pos++ {
		assert.InDelta(r1.F(pos), r2.F(pos), 1e-8)
	}

	return r1, r2
}

func TestNewInitializer(t *testing.T) {
	assert := assert.New(t)

	ar, err := model.NewAR([]float64{0.5}, 1.0, 1.0)
	assert.NoError(err)

	d, err := diffuse.NewDirect(ar, nil)
	assert.Error(err)
	assert.Nil(d)

	s, err := diffuse.NewSquareRoot(nil, nil)
	assert.Error(err)
	assert.Nil(s)

	ll, err := model.NewLocalLevel(1.0, 1.0)
	assert.NoError(err)
	d, err = diffuse.NewDirect(ll, &diffuse.Config{Epsilon: 1e-10})
	assert.NoError(err)
	assert.Equal(ll, d.Model())
}

func TestInitializersAgreeStructural(t *testing.T) {
	assert := assert.New(t)

	llt, err := model.NewLocalLinearTrend(0.1, 0.01, 0.5)
	assert.NoError(err)
	seas, err := model.NewSeasonal(4, 0.2, 0)
	assert.NoError(err)
	m, err := model.NewComposite(llt, seas)
	assert.NoError(err)

	direct, sqrt := compare(t, m, data.NewSeries(y))
	assert.Equal(5, direct.DiffuseEnd())
	assert.Empty(direct.cols)
	assert.Equal([]int{5, 4, 3, 2, 1}, sqrt.cols)
}

func TestInitializersAgreeMissing(t *testing.T) {
	assert := assert.New(t)

	llt, err := model.NewLocalLinearTrend(0.1, 0.01, 0.5)
	assert.NoError(err)

	s := data.NewSeries(y)
	assert.NoError(s.SetMissing(1, 2))

	direct, sqrt := compare(t, llt, s)
	assert.Equal(4, direct.DiffuseEnd())
	// missing observations keep the basis
	assert.Equal([]int{2, 1, 1, 1}, sqrt.cols)
}

func TestInitializersAgreeRegression(t *testing.T) {
	assert := assert.New(t)

	ll, err := model.NewLocalLevel(0.3, 1.0)
	assert.NoError(err)

	x := mat.NewDense(len(y), 2, nil)
	for i := range y {
		x.Set(i, 0, float64(i)/10)
		x.Set(i, 1, math.Cos(0.5*float64(i)))
	}
	m, err := model.NewRegression(ll, x, nil)
	assert.NoError(err)

	direct, _ := compare(t, m, data.NewSeries(y))
	assert.Equal(3, direct.DiffuseEnd())
}

func TestDiffuseUnresolved(t *testing.T) {
	assert := assert.New(t)

	llt, err := model.NewLocalLinearTrend(0.1, 0.01, 0.5)
	assert.NoError(err)

	direct, err := diffuse.NewDirect(llt, nil)
	assert.NoError(err)
	sqrt, err := diffuse.NewSquareRoot(llt, nil)
	assert.NoError(err)

	for _, init := range []ssf.Initializer{direct, sqrt} {
		pos, st, err := init.Initialize(data.NewSeries([]float64{1.0, math.NaN(), math.NaN()}), nil)
		assert.Error(err)
		assert.True(errors.Is(err, ssf.ErrDiffuseUnresolved))
		assert.Equal(0, pos)
		assert.Nil(st)
	}
}

func TestInitialState(t *testing.T) {
	assert := assert.New(t)

	ll, err := model.NewLocalLevel(1.0, 1.0)
	assert.NoError(err)
	direct, err := diffuse.NewDirect(ll, nil)
	assert.NoError(err)

	d, err := data.NewSeriesWithState([]float64{2.0, 3.0}, mat.NewVecDense(2, nil))
	assert.NoError(err)
	_, _, err = direct.Initialize(d, nil)
	assert.Error(err)

	d, err = data.NewSeriesWithState([]float64{2.0, 3.0}, mat.NewVecDense(1, []float64{1.0}))
	assert.NoError(err)
	pos, st, err := direct.Initialize(d, nil)
	assert.NoError(err)
	assert.Equal(1, pos)
	// the diffuse update discards the prior mean
	assert.InDelta(2.0, st.A.AtVec(0), 1e-12)
}
