package results

import (
	"gonum.org/v1/gonum/mat"
)

// Disturbances stores smoothed transition innovations and measurement noises
type Disturbances struct {
	n      int
	u      *VectorStore
	uvar   *SymStore
	eps    *ScalarStore
	epsvar *ScalarStore
	// r0 and r1 are the backward scores at the first smoothed position
	r0 *mat.VecDense
	r1 *mat.VecDense
}

// NewDisturbances creates new Disturbances for ncount innovations
func NewDisturbances(ncount int) *Disturbances {
	return &Disturbances{
		u:      NewVectorStore(ncount),
		uvar:   NewSymStore(ncount),
		eps:    NewScalarStore(),
		epsvar: NewScalarStore(),
	}
}

// Save stores smoothed innovation u with covariance uvar and smoothed
// measurement noise eps with variance epsvar at pos. u and uvar may be nil.
func (d *Disturbances) Save(pos int, u mat.Vector, uvar mat.Symmetric, eps, epsvar float64) {
	if u != nil && d.u.Dim() > 0 {
		d.u.Save(pos, u)
		if uvar != nil {
			d.uvar.Save(pos, uvar)
		}
	}
	d.eps.Save(pos, eps)
	d.epsvar.Save(pos, epsvar)
	if pos+1 > d.n {
		d.n = pos + 1
	}
}

// SetScores records the backward scores r0 (proper) and r1 (diffuse) reached
// before the first smoothed position. r1 may be nil.
func (d *Disturbances) SetScores(r0, r1 *mat.VecDense) {
	d.r0 = r0
	d.r1 = r1
}

// Scores returns the backward scores reached before the first smoothed position
func (d *Disturbances) Scores() (*mat.VecDense, *mat.VecDense) {
	return d.r0, d.r1
}

// Len returns the number of covered positions
func (d *Disturbances) Len() int {
	return d.n
}

// U returns smoothed transition innovations at pos
func (d *Disturbances) U(pos int) *mat.VecDense {
	return d.u.At(pos)
}

// UVar returns covariance of smoothed transition innovations at pos
func (d *Disturbances) UVar(pos int) *mat.SymDense {
	return d.uvar.At(pos)
}

// Eps returns smoothed measurement noise at pos
func (d *Disturbances) Eps(pos int) float64 {
	return d.eps.At(pos)
}

// EpsVar returns variance of smoothed measurement noise at pos
func (d *Disturbances) EpsVar(pos int) float64 {
	return d.epsvar.At(pos)
}
