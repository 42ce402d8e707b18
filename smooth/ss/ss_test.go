package ss

import (
	"math"
	"os"
	"testing"

	ssf "github.com/jdemetra/jdemetra-core-sub001"
	"github.com/jdemetra/jdemetra-core-sub001/data"
	"github.com/jdemetra/jdemetra-core-sub001/kalman/diffuse"
	"github.com/jdemetra/jdemetra-core-sub001/kalman/kf"
	"github.com/jdemetra/jdemetra-core-sub001/model"
	"github.com/jdemetra/jdemetra-core-sub001/results"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	y []float64
)

func setup() {
	y = make([]float64, 80)
	for i := range y {
		y[i] = 0.1*float64(i) + math.Sin(math.Pi*float64(i)/2) + 0.4*math.Cos(2.1*float64(i))
	}
}

func TestMain(m *testing.M) {
	// set up tests
	setup()
	// run the tests
	os.Exit(m.Run())
}

func filtering(t *testing.T, m ssf.Model, c *kf.Config, d ssf.Data) *results.Filtering {
	f, err := kf.New(m, c)
	assert.NoError(t, err)

	res := results.NewFiltering(results.All)
	assert.NoError(t, f.Process(d, res))

	return res
}

func TestNew(t *testing.T) {
	assert := assert.New(t)

	s, err := New(nil, nil)
	assert.Error(err)
	assert.Nil(s)

	m, err := model.NewLocalLevel(1.0, 1.0)
	assert.NoError(err)
	s, err = New(m, &Config{SkipVariances: true})
	assert.NoError(err)
	assert.False(s.cov)
	assert.Equal(m, s.Model())
}

func TestSmoothInvalid(t *testing.T) {
	assert := assert.New(t)

	m, err := model.NewLocalLevel(1.0, 1.0)
	assert.NoError(err)
	s, err := New(m, nil)
	assert.NoError(err)

	f, err := kf.New(m, nil)
	assert.NoError(err)
	src := results.NewFiltering(results.Options{})
	assert.NoError(f.Process(data.NewSeries(y), src))

	res, err := s.Smooth(src, 0)
	assert.Error(err)
	assert.Nil(res)

	res, err = s.Smooth(filtering(t, m, nil, data.NewSeries(y)), len(y)+1)
	assert.Error(err)
	assert.Nil(res)
}

func TestSmoothLastIsFiltered(t *testing.T) {
	assert := assert.New(t)

	ar, err := model.NewAR([]float64{0.5, 0.3}, 1.0, 0.5)
	assert.NoError(err)
	ll, err := model.NewLocalLevel(0.5, 1.0)
	assert.NoError(err)

	for _, m := range []ssf.Model{ar, ll} {
		src := filtering(t, m, nil, data.NewSeries(y))
		s, err := New(m, nil)
		assert.NoError(err)

		res, err := s.Smooth(src, 0)
		assert.NoError(err)

		last := src.Len() - 1
		filtered, err := src.Filtered(last)
		assert.NoError(err)
		smoothed, err := res.Estimate(last)
		assert.NoError(err)

		assert.True(mat.EqualApprox(filtered.Val(), smoothed.Val(), 1e-10))
		assert.True(mat.EqualApprox(filtered.Cov(), smoothed.Cov(), 1e-10))
	}
}

// rts is the classical fixed interval smoother of the local level model
func rts(t *testing.T, src *results.Filtering) ([]float64, []float64) {
	n := src.Len()
	a := make([]float64, n)
	v := make([]float64, n)

	last, err := src.Filtered(n - 1)
	assert.NoError(t, err)
	a[n-1] = last.Val().AtVec(0)
	v[n-1] = last.Cov().At(0, 0)

	for pos := n - 2; pos >= 0; pos-- {
		upd, err := src.Filtered(pos)
		assert.NoError(t, err)
		at, pt := upd.Val().AtVec(0), upd.Cov().At(0, 0)
		pn := src.P(pos + 1).At(0, 0)
		g := pt / pn
		a[pos] = at + g*(a[pos+1]-src.A(pos+1).AtVec(0))
		v[pos] = pt + g*g*(v[pos+1]-pn)
	}

	return a, v
}

func TestSmoothLocalLevel(t *testing.T) {
	assert := assert.New(t)

	m, err := model.NewLocalLevel(0.5, 2.0)
	assert.NoError(err)

	s := data.NewSeries(y)
	assert.NoError(s.SetMissing(10, 11, 40))

	src := filtering(t, m, nil, s)
	res, err := Run(m, s, nil)
	assert.NoError(err)
	assert.Equal(len(y), res.Len())
	assert.Equal(0, res.Start())

	a, v := rts(t, src)
	sa, sv := res.Component(0)
	assert.True(floats.EqualApprox(a, sa, 1e-9))
	assert.True(floats.EqualApprox(v, sv, 1e-9))
}

func TestSmoothStructural(t *testing.T) {
	assert := assert.New(t)

	llt, err := model.NewLocalLinearTrend(0.1, 0.01, 0.5)
	assert.NoError(err)
	seas, err := model.NewSeasonal(4, 0.2, 0)
	assert.NoError(err)
	bsm, err := model.NewComposite(llt, seas)
	assert.NoError(err)

	sqrt, err := diffuse.NewSquareRoot(bsm, nil)
	assert.NoError(err)

	d := data.NewSeries(y)
	direct, err := Run(bsm, d, nil)
	assert.NoError(err)
	other, err := Run(bsm, d, &Config{Filter: &kf.Config{Initializer: sqrt}})
	assert.NoError(err)

	for pos := 0; pos < direct.Len(); pos++ {
		assert.True(mat.EqualApprox(direct.A(pos), other.A(pos), 1e-7))
		assert.True(mat.EqualApprox(direct.P(pos), other.P(pos), 1e-7))
		for i := 0; i < bsm.StateDim(); i++ {
			assert.True(direct.P(pos).At(i, i) > -1e-9)
		}
	}
}

func TestSmoothLargeVariance(t *testing.T) {
	assert := assert.New(t)

	llt, err := model.NewLocalLinearTrend(0.1, 0.01, 0.5)
	assert.NoError(err)

	sys := llt.System()
	kappa := 1e6
	sys.Pf0 = mat.NewSymDense(2, []float64{kappa, 0, 0, kappa})
	sys.B = nil
	approx, err := model.NewBase(sys)
	assert.NoError(err)

	d := data.NewSeries(y)
	exact, err := Run(llt, d, nil)
	assert.NoError(err)
	big, err := Run(approx, d, nil)
	assert.NoError(err)

	for pos := 0; pos < exact.Len(); pos++ {
		assert.True(mat.EqualApprox(exact.A(pos), big.A(pos), 1e-3))
		assert.True(mat.EqualApprox(exact.P(pos), big.P(pos), 1e-3))
	}
}

func TestSmoothNoVariance(t *testing.T) {
	assert := assert.New(t)

	m, err := model.NewLocalLevel(0.5, 2.0)
	assert.NoError(err)

	d := data.NewSeries(y)
	full, err := Run(m, d, nil)
	assert.NoError(err)
	part, err := Run(m, d, &Config{SkipVariances: true})
	assert.NoError(err)

	fa, _ := full.Component(0)
	pa, pv := part.Component(0)
	assert.Nil(pv)
	assert.True(floats.EqualApprox(fa, pa, 1e-12))
}

func TestSmoothPartial(t *testing.T) {
	assert := assert.New(t)

	m, err := model.NewAR([]float64{0.7}, 1.0, 1.0)
	assert.NoError(err)

	stop := 30
	src := filtering(t, m, nil, data.NewSeries(y))
	s, err := New(m, nil)
	assert.NoError(err)

	res, err := s.Smooth(src, stop)
	assert.NoError(err)
	assert.Equal(stop, res.Start())
	assert.Equal(len(y), res.Len())
	assert.Nil(res.A(stop - 1))
	assert.Nil(res.P(stop - 1))

	// the stop position only truncates the backward recursion
	full, err := s.Smooth(src, 0)
	assert.NoError(err)
	for pos := stop; pos < len(y); pos++ {
		assert.True(mat.EqualApprox(full.A(pos), res.A(pos), 1e-12))
		assert.True(mat.EqualApprox(full.P(pos), res.P(pos), 1e-12))
	}

	// later observations matter: smoothing a truncated series differs
	short, err := Run(m, data.NewSeries(y[:stop]), nil)
	assert.NoError(err)
	assert.False(mat.EqualApprox(short.A(stop-1), full.A(stop-1), 1e-6))

	res, err = s.Smooth(src, -1)
	assert.Error(err)
	assert.Nil(res)
}
