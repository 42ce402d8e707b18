package ds

import (
	"fmt"
	"math"

	ssf "github.com/jdemetra/jdemetra-core-sub001"
	"github.com/jdemetra/jdemetra-core-sub001/model"
	"github.com/jdemetra/jdemetra-core-sub001/results"
	"github.com/jdemetra/jdemetra-core-sub001/smooth"
	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

// Config contains disturbance smoother configuration parameters
type Config struct {
	// SkipVariances disables the computation of the variances of the smoothed disturbances
	SkipVariances bool
}

// Smoother is the disturbance smoother. It computes the smoothed transition
// innovations u and measurement noises of a model from its filtering results.
type Smoother struct {
	m   ssf.Model
	cov bool
}

// New creates new disturbance smoother for model m and returns it.
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
	}

	return s, nil
}

// Model returns the smoothed model
func (s *Smoother) Model() ssf.Model {
	return s.m
}

// Smooth computes the smoothed disturbances of every filtered position of src.
// The scores reached before position 0 are recorded for state reconstruction.
// It returns error if src does not retain the covariances and gains.
func (s *Smoother) Smooth(src smooth.Filtered) (*results.Disturbances, error) {
	if err := smooth.Check(s.m, src); err != nil {
		return nil, err
	}

	r, ncount := s.m.StateDim(), s.m.ResCount()
	rec := smooth.NewRecursion(s.m, src, s.cov)
	ws := rec.Workspace()
	res := results.NewDisturbances(ncount)
	end := src.DiffuseEnd()

	var u, qg *mat.VecDense
	var uvar *mat.SymDense
	var gq *mat.Dense
	if ncount > 0 {
		u = mat.NewVecDense(ncount, nil)
		qg = mat.NewVecDense(ncount, nil)
		uvar = mat.NewSymDense(ncount, nil)
		gq = mat.NewDense(r, ncount, nil)
	}
	k := mat.NewVecDense(r, nil)
	nk := mat.NewVecDense(r, nil)

	for pos := src.Len() - 1; pos >= 0; pos-- {
		ws.Move(pos)
		h := ws.H()

		// measurement noise
		eps, epsvar := 0.0, h
		if rec.Informative(pos) {
			e, f := src.E(pos), src.F(pos)
			if pos < end && src.Fi(pos) > 0 {
				k.ScaleVec(1/src.Fi(pos), src.Ci(pos))
				eps = -h * mat.Dot(k, rec.R0)
				if s.cov {
					nk.MulVec(rec.N0, k)
					epsvar = h - h*h*mat.Dot(k, nk)
				}
			} else {
				k.ScaleVec(1/f, src.C(pos))
				eps = h * (e/f - mat.Dot(k, rec.R0))
				if s.cov {
					nk.MulVec(rec.N0, k)
					epsvar = h - h*h*(1/f+mat.Dot(k, nk))
				}
			}
		}
		if !s.cov {
			epsvar = math.NaN()
		}

		// transition innovations u = Q*G'*r, var(u) = Q - Q*G'*N*G*Q
		if ncount > 0 {
			q, g := ws.Q(), ws.Loading()
			qg.MulVec(g.T(), rec.R0)
			u.MulVec(q, qg)
			if s.cov {
				gq.Mul(g, q)
				var qgngq mat.Dense
				qgngq.Product(gq.T(), rec.N0, gq)
				uvar.CopySym(q)
				for i := 0; i < ncount; i++ {
					for j := i; j < ncount; j++ {
						uvar.SetSym(i, j, uvar.At(i, j)-0.5*(qgngq.At(i, j)+qgngq.At(j, i)))
					}
				}
			}
		}

		var uu mat.Vector
		var uv mat.Symmetric
		if u != nil {
			uu = u
			if s.cov {
				uv = uvar
			}
		}
		res.Save(pos, uu, uv, eps, epsvar)
		rec.Step(pos)
	}

	r0 := mat.VecDenseCopyOf(rec.R0)
	var r1 *mat.VecDense
	if end > 0 {
		r1 = mat.VecDenseCopyOf(rec.R1)
	}
	res.SetScores(r0, r1)

	log.WithFields(log.Fields{
		"n":       src.Len(),
		"diffuse": end,
	}).Debug("disturbance smoothing completed")

	return res, nil
}

// Reconstruct rebuilds the smoothed states of m forward from the disturbances dist:
//
//	a(0) = a0 + Pf0*r0 + Pi0*r1
//	a(t+1) = T*a(t) + R*W*u(t)
//
// It returns error if src or dist are inconsistent with m.
func Reconstruct(m ssf.Model, src smooth.Filtered, dist *results.Disturbances) (*results.Smoothing, error) {
	if err := smooth.Check(m, src); err != nil {
		return nil, err
	}
	if dist == nil || dist.Len() != src.Len() {
		return nil, fmt.Errorf("invalid disturbances: %v", dist)
	}

	r0, r1 := dist.Scores()
	if r0 == nil {
		return nil, fmt.Errorf("disturbances do not contain scores")
	}

	r := m.StateDim()
	a := mat.VecDenseCopyOf(src.A(0))
	tmp := mat.NewVecDense(r, nil)
	tmp.MulVec(src.P(0), r0)
	a.AddVec(a, tmp)
	if src.DiffuseEnd() > 0 && r1 != nil {
		tmp.MulVec(src.Pi(0), r1)
		a.AddVec(a, tmp)
	}

	ws := model.NewWorkspace(m)
	res := results.NewSmoothing(r, false)
	for pos := 0; pos < src.Len(); pos++ {
		res.Save(pos, a, nil)
		if pos == src.Len()-1 {
			break
		}

		ws.Move(pos)
		ws.TX(a)
		if u := dist.U(pos); u != nil {
			tmp.MulVec(ws.Loading(), u)
			a.AddVec(a, tmp)
		}
	}
	res.SetStart(0)

	return res, nil
}
