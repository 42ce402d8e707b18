package ss

import (
	"fmt"

	ssf "github.com/jdemetra/jdemetra-core-sub001"
	"github.com/jdemetra/jdemetra-core-sub001/kalman/kf"
	"github.com/jdemetra/jdemetra-core-sub001/model"
	"github.com/jdemetra/jdemetra-core-sub001/results"
	"github.com/jdemetra/jdemetra-core-sub001/smooth"
	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

// Config contains state smoother configuration parameters
type Config struct {
	// SkipVariances disables the computation of the smoothed covariances
	SkipVariances bool
	// Filter configures the forward filter used by Run
	Filter *kf.Config
}

// Smoother is the fixed interval state smoother
type Smoother struct {
	m   ssf.Model
	cov bool
	fc  *kf.Config
}

// New creates new state smoother for model m and returns it.
// It returns error if the model is invalid.
func New(m ssf.Model, c *Config) (*Smoother, error) {
	if m == nil {
		return nil, fmt.Errorf("invalid model: %v", m)
	}
	if err := model.Validate(m); err != nil {
		return nil, err
	}

	s := &Smoother{m: m, cov: true}
	if c != nil {
		s.cov = !c.SkipVariances
		s.fc = c.Filter
	}

	return s, nil
}

// Model returns the smoothed model
func (s *Smoother) Model() ssf.Model {
	return s.m
}

// Smooth runs the backward recursion over the filtering results src from the last position
// down to stop and returns the smoothed states of positions [stop, n).
// A zero stop smooths every filtered position.
// It returns error if src does not retain the covariances and gains or if stop is out of range.
func (s *Smoother) Smooth(src smooth.Filtered, stop int) (*results.Smoothing, error) {
	if err := smooth.Check(s.m, src); err != nil {
		return nil, err
	}
	if stop < 0 || stop >= src.Len() {
		return nil, fmt.Errorf("invalid smoothing stop: %d not in [0, %d)", stop, src.Len())
	}

	r := s.m.StateDim()
	rec := smooth.NewRecursion(s.m, src, s.cov)
	res := results.NewSmoothing(r, s.cov)
	end := src.DiffuseEnd()

	a := mat.NewVecDense(r, nil)
	tmp := mat.NewVecDense(r, nil)
	var v *mat.SymDense
	if s.cov {
		v = mat.NewSymDense(r, nil)
	}

	for pos := src.Len() - 1; pos >= stop; pos-- {
		rec.Step(pos)

		p := src.P(pos)
		a.CopyVec(src.A(pos))
		tmp.MulVec(p, rec.R0)
		a.AddVec(a, tmp)
		if pos < end {
			pi := src.Pi(pos)
			tmp.MulVec(pi, rec.R1)
			a.AddVec(a, tmp)
		}

		if s.cov {
			variance(v, p, rec.N0)
			if pos < end {
				diffuseVariance(v, p, src.Pi(pos), rec.N1, rec.N2)
			}
		}

		res.Save(pos, a, v)
	}
	res.SetStart(stop)

	log.WithFields(log.Fields{
		"stop":    stop,
		"diffuse": end,
	}).Debug("state smoothing completed")

	return res, nil
}

// variance sets v to P - P*N*P
func variance(v, p, n *mat.SymDense) {
	var pnp mat.Dense
	pnp.Product(p, n, p)
	v.CopySym(p)
	r := v.SymmetricDim()
	for i := 0; i < r; i++ {
		for j := i; j < r; j++ {
			v.SetSym(i, j, v.At(i, j)-0.5*(pnp.At(i, j)+pnp.At(j, i)))
		}
	}
}

// diffuseVariance subtracts Pi*N1*Pf + (Pi*N1*Pf)' + Pi*N2*Pi from v
func diffuseVariance(v, pf, pi *mat.SymDense, n1 *mat.Dense, n2 *mat.SymDense) {
	var c, d mat.Dense
	c.Product(pi, n1, pf)
	d.Product(pi, n2, pi)
	r := v.SymmetricDim()
	for i := 0; i < r; i++ {
		for j := i; j < r; j++ {
			x := c.At(i, j) + c.At(j, i) + 0.5*(d.At(i, j)+d.At(j, i))
			v.SetSym(i, j, v.At(i, j)-x)
		}
	}
}

// Run filters d with the ordinary Kalman filter and smooths every position.
func Run(m ssf.Model, d ssf.Data, c *Config) (*results.Smoothing, error) {
	s, err := New(m, c)
	if err != nil {
		return nil, err
	}

	f, err := kf.New(m, s.fc)
	if err != nil {
		return nil, err
	}

	src := results.NewFiltering(results.All)
	if err := f.Process(d, src); err != nil {
		return nil, err
	}

	return s.Smooth(src, 0)
}
