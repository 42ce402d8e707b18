package likelihood

import (
	"fmt"
	"math"

	ssf "github.com/jdemetra/jdemetra-core-sub001"
	"github.com/jdemetra/jdemetra-core-sub001/kalman"
)

// Likelihood is the Gaussian likelihood of a state space model computed from the
// prediction error decomposition
type Likelihood struct {
	// N is number of informative observations (diffuse ones included)
	N int
	// ND is number of observations used to resolve the diffuse part
	ND int
	// SSQ is sum of squared standardized prediction errors
	SSQ float64
	// LogDet is sum of log prediction error variances
	LogDet float64
	// DiffuseLogDet is sum of log diffuse prediction error variances
	DiffuseLogDet float64
}

// Dof returns the effective number of observations, N - ND
func (l *Likelihood) Dof() int {
	return l.N - l.ND
}

// Sigma2 returns the maximum likelihood estimate of the scaling factor
func (l *Likelihood) Sigma2() float64 {
	m := l.Dof()
	if m <= 0 {
		return 0
	}

	return l.SSQ / float64(m)
}

// LogLikelihood returns the log-likelihood with scaling factor 1
func (l *Likelihood) LogLikelihood() float64 {
	m := float64(l.Dof())

	return -0.5 * (m*math.Log(2*math.Pi) + l.SSQ + l.LogDet + l.DiffuseLogDet)
}

// ConcentratedLogLikelihood returns the log-likelihood with the scaling factor concentrated out
func (l *Likelihood) ConcentratedLogLikelihood() float64 {
	m := float64(l.Dof())
	if m <= 0 || l.SSQ <= 0 {
		return -0.5 * (l.LogDet + l.DiffuseLogDet)
	}

	return -0.5 * (m*math.Log(2*math.Pi) + m + m*math.Log(l.SSQ/m) + l.LogDet + l.DiffuseLogDet)
}

// String implements the Stringer interface.
func (l *Likelihood) String() string {
	return fmt.Sprintf("Likelihood{N=%d ND=%d SSQ=%g LogDet=%g DiffuseLogDet=%g}", l.N, l.ND, l.SSQ, l.LogDet, l.DiffuseLogDet)
}

// Accumulator is a filter sink which accumulates the likelihood terms.
// It implements ssf.DiffuseSink.
type Accumulator struct {
	ll     Likelihood
	closed bool
}

// NewAccumulator creates new empty Accumulator
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Prepare clears the accumulated terms
func (a *Accumulator) Prepare(m ssf.Model, d ssf.Data) error {
	a.ll = Likelihood{}
	a.closed = false

	return nil
}

// Save accumulates the prediction error of st
func (a *Accumulator) Save(pos int, st *ssf.State) error {
	if st.IsMissing() || st.F <= 0 {
		return nil
	}

	a.ll.N++
	a.ll.SSQ += st.E * st.E / st.F
	a.ll.LogDet += math.Log(st.F)

	return nil
}

// SaveDiffuse accumulates the diffuse prediction error variance of st.
// Positions with zero diffuse variance contribute as ordinary ones.
func (a *Accumulator) SaveDiffuse(pos int, st *ssf.DiffuseState) error {
	if st.IsMissing() {
		return nil
	}
	if st.Fi <= 0 {
		return a.Save(pos, &st.State)
	}

	a.ll.N++
	a.ll.ND++
	a.ll.DiffuseLogDet += math.Log(st.Fi)

	return nil
}

// CloseDiffuse does nothing
func (a *Accumulator) CloseDiffuse(pos int) error {
	return nil
}

// Close finalizes the accumulation
func (a *Accumulator) Close() error {
	a.closed = true
	return nil
}

// Likelihood returns the accumulated likelihood.
// It returns error if the accumulation was not closed.
func (a *Accumulator) Likelihood() (*Likelihood, error) {
	if !a.closed {
		return nil, fmt.Errorf("likelihood accumulation is not complete")
	}

	ll := a.ll
	return &ll, nil
}

// Compute runs filter f on d and returns the likelihood.
// It returns error if the filter fails.
func Compute(f kalman.Filter, d ssf.Data) (*Likelihood, error) {
	acc := NewAccumulator()
	if err := f.Process(d, acc); err != nil {
		return nil, err
	}

	return acc.Likelihood()
}
