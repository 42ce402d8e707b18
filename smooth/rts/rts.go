package rts

import (
	"fmt"

	ssf "github.com/jdemetra/jdemetra-core-sub001"
	"github.com/jdemetra/jdemetra-core-sub001/estimate"
	"github.com/jdemetra/jdemetra-core-sub001/matrix"
	"github.com/jdemetra/jdemetra-core-sub001/model"
	"github.com/jdemetra/jdemetra-core-sub001/results"
	"github.com/jdemetra/jdemetra-core-sub001/smooth"
	"gonum.org/v1/gonum/mat"
)

// Source is forward filter output which also provides the updated estimates a(t|t), P(t|t).
// It is implemented by results.Filtering.
type Source interface {
	smooth.Filtered
	// Filtered returns the updated estimate at pos
	Filtered(pos int) (*estimate.Base, error)
}

// RTS is Rauch-Tung-Striebel smoother
type RTS struct {
	// m is state space model
	m ssf.Model
}

// New creates new RTS and returns it.
// It returns error if the model is invalid.
func New(m ssf.Model) (*RTS, error) {
	if m == nil {
		return nil, fmt.Errorf("invalid model: %v", m)
	}
	if err := model.Validate(m); err != nil {
		return nil, err
	}

	return &RTS{m: m}, nil
}

// Smooth implements Rauch-Tung-Striebel smoothing algorithm:
//
//	J[t] = P(t|t)*T'*P(t+1|t)^-1
//	a[t] = a(t|t) + J[t]*(a[t+1] - a(t+1|t))
//	V[t] = P(t|t) + J[t]*(V[t+1] - P(t+1|t))*J[t]'
//
// Only the positions following the diffuse phase are smoothed.
// It returns error if src does not retain the covariances or if a predicted covariance is singular.
func (s *RTS) Smooth(src Source) (*results.Smoothing, error) {
	if err := smooth.Check(s.m, src); err != nil {
		return nil, err
	}

	r, n, end := s.m.StateDim(), src.Len(), src.DiffuseEnd()
	res := results.NewSmoothing(r, true)
	res.SetStart(end)

	// create initial estimate to work from recursively
	e, err := src.Filtered(n - 1)
	if err != nil {
		return nil, err
	}
	res.Save(n-1, e.Val(), e.Cov())

	ws := model.NewWorkspace(s.m)
	x := &mat.VecDense{}
	dx := &mat.VecDense{}
	c := &mat.Dense{}
	pinv := &mat.Dense{}
	cov := &mat.Dense{}
	pk := &mat.Dense{}
	pSmooth := mat.NewSymDense(r, nil)
	for pos := n - 2; pos >= end; pos-- {
		ws.Move(pos)
		est, err := src.Filtered(pos)
		if err != nil {
			return nil, err
		}

		// Pk*Tk'
		c.Mul(est.Cov(), ws.T().T())
		// invert predicted P_k+1 covariance
		if err := pinv.Inverse(src.P(pos + 1)); err != nil {
			return nil, fmt.Errorf("position %d: singular predicted covariance: %v", pos, err)
		}
		// Pk*Tk'*P_(k+1)^-1
		c.Mul(c, pinv)

		// smooth the state
		dx.SubVec(res.A(pos+1), src.A(pos+1))
		x.MulVec(c, dx)
		x.AddVec(est.Val(), x)

		// smooth covariance
		cov.Sub(res.P(pos+1), src.P(pos+1))
		pk.Product(c, cov, c.T())
		pk.Add(est.Cov(), pk)
		matrix.Symmetrize(pSmooth, pk)

		res.Save(pos, x, pSmooth)
	}

	return res, nil
}
