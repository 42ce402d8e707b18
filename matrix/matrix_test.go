package matrix

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestSymmetrize(t *testing.T) {
	assert := assert.New(t)

	a := mat.NewDense(2, 2, []float64{1, 2, 4, 3})
	dst := mat.NewSymDense(2, nil)
	Symmetrize(dst, a)
	assert.Equal(1.0, dst.At(0, 0))
	assert.Equal(3.0, dst.At(0, 1))
	assert.Equal(3.0, dst.At(1, 0))
	assert.Equal(3.0, dst.At(1, 1))

	assert.Panics(func() { Symmetrize(dst, mat.NewDense(2, 3, nil)) })
}

func TestMaxAbs(t *testing.T) {
	assert := assert.New(t)

	a := mat.NewDense(2, 3, []float64{1, -7.5, 2, 0, 3, -1})
	assert.Equal(7.5, MaxAbs(a))
	assert.False(IsZero(a, 1))
	assert.True(IsZero(a, 7.5))
	assert.True(IsZero(mat.NewDense(2, 2, []float64{1e-12, 0, 0, -1e-13}), 1e-11))
}

func TestLyapunov(t *testing.T) {
	assert := assert.New(t)

	// AR(1): P = v/(1-phi^2)
	p, err := Lyapunov(mat.NewDense(1, 1, []float64{0.8}), mat.NewSymDense(1, []float64{2}))
	assert.NoError(err)
	assert.InDelta(2/(1-0.64), p.At(0, 0), 1e-12)

	tm := mat.NewDense(2, 2, []float64{0.5, 0.3, 1, 0})
	q := mat.NewSymDense(2, []float64{1, 0, 0, 0})
	p, err = Lyapunov(tm, q)
	assert.NoError(err)

	var tpt mat.Dense
	tpt.Product(tm, p, tm.T())
	tpt.Add(&tpt, q)
	assert.True(mat.EqualApprox(p, &tpt, 1e-10))

	// unit root
	_, err = Lyapunov(mat.NewDense(1, 1, []float64{1}), mat.NewSymDense(1, []float64{1}))
	assert.Error(err)

	// explosive roots
	p, err = Lyapunov(mat.NewDense(1, 1, []float64{1.2}), mat.NewSymDense(1, []float64{1}))
	assert.Error(err)
	assert.Nil(p)
	p, err = Lyapunov(mat.NewDense(2, 2, []float64{0.5, 0.8, 1, 0}), q)
	assert.Error(err)
	assert.Nil(p)

	_, err = Lyapunov(mat.NewDense(2, 2, nil), mat.NewSymDense(1, []float64{1}))
	assert.Error(err)
}

func TestPSDFactor(t *testing.T) {
	assert := assert.New(t)

	a := mat.NewSymDense(3, []float64{
		4, 2, 0,
		2, 2, 0,
		0, 0, 0,
	})
	s, err := PSDFactor(a)
	assert.NoError(err)

	var ss mat.Dense
	ss.Mul(s, s.T())
	assert.True(mat.EqualApprox(a, &ss, 1e-12))

	_, err = PSDFactor(mat.NewSymDense(2, []float64{1, 2, 2, 1}))
	assert.Error(err)
}

func TestGivens(t *testing.T) {
	assert := assert.New(t)

	a := mat.NewDense(3, 3, []float64{
		3, 4, 0,
		1, 2, 3,
		0, 1, 1,
	})
	var aa mat.Dense
	aa.Mul(a, a.T())

	v := Givens(a, 0, 0)
	assert.InDelta(5.0, math.Abs(v), 1e-12)
	assert.Equal(0.0, a.At(0, 1))
	assert.Equal(0.0, a.At(0, 2))

	// column rotations preserve A*A'
	var rr mat.Dense
	rr.Mul(a, a.T())
	assert.True(mat.EqualApprox(&aa, &rr, 1e-12))
}

func TestLowerTriangularize(t *testing.T) {
	assert := assert.New(t)

	a := mat.NewDense(2, 3, []float64{
		1, 2, 2,
		0, 1, 3,
	})
	l, err := LowerTriangularize(a)
	assert.NoError(err)
	assert.Equal(0.0, l.At(0, 1))
	assert.True(l.At(0, 0) >= 0)
	assert.True(l.At(1, 1) >= 0)

	var ll, aa mat.Dense
	ll.Mul(l, l.T())
	aa.Mul(a, a.T())
	assert.True(mat.EqualApprox(&aa, &ll, 1e-12))

	_, err = LowerTriangularize(mat.NewDense(3, 2, nil))
	assert.Error(err)
}
