package ssf

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// State is a one step ahead filter state at a given position
type State struct {
	// A is predicted state a(t|t-1)
	A *mat.VecDense
	// P is predicted state covariance P(t|t-1)
	P *mat.SymDense
	// C is unscaled gain T*P*Z'
	C *mat.VecDense
	// S is lower factor of P (P = S*S'); only set by square root filters
	S *mat.Dense
	// E is prediction error; NaN if the observation is missing
	E float64
	// F is prediction error variance
	F float64
}

// NewState creates new State of dimension r with zero mean and covariance.
func NewState(r int) *State {
	return &State{
		A: mat.NewVecDense(r, nil),
		P: mat.NewSymDense(r, nil),
		C: mat.NewVecDense(r, nil),
		E: math.NaN(),
	}
}

// Dim returns state dimension
func (s *State) Dim() int {
	return s.A.Len()
}

// IsMissing reports whether the prediction error is undefined
func (s *State) IsMissing() bool {
	return math.IsNaN(s.E)
}

// Clone returns a deep copy of s
func (s *State) Clone() *State {
	c := &State{
		A: mat.VecDenseCopyOf(s.A),
		C: mat.VecDenseCopyOf(s.C),
		E: s.E,
		F: s.F,
	}
	if s.P != nil {
		c.P = mat.NewSymDense(s.P.SymmetricDim(), nil)
		c.P.CopySym(s.P)
	}
	if s.S != nil {
		c.S = mat.DenseCopyOf(s.S)
	}

	return c
}

// DiffuseState is a filter state during the diffuse phase.
type DiffuseState struct {
	State
	// Pi is the diffuse part of the covariance
	Pi *mat.SymDense
	// Ci is unscaled diffuse gain T*Pi*Z'
	Ci *mat.VecDense
	// B is diffuse basis (Pi = B*B'); only set by the square root initializer
	B *mat.Dense
	// Fi is the diffuse prediction error variance Z*Pi*Z'
	Fi float64
}

// NewDiffuseState creates new DiffuseState of dimension r
func NewDiffuseState(r int) *DiffuseState {
	return &DiffuseState{
		State: *NewState(r),
		Pi:    mat.NewSymDense(r, nil),
		Ci:    mat.NewVecDense(r, nil),
	}
}
