package model

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// System holds the matrices of a time invariant state space model:
//
//	y[t]   = Z*a[t] + e[t],         var(e) = H
//	a[t+1] = T*a[t] + R*W*u[t],     var(u) = Q
//	a[0]   ~ N(0, Pf0 + k*B*B'),    k -> inf
type System struct {
	// T is transition matrix [r x r]
	T *mat.Dense
	// Z is measurement loading [r]
	Z *mat.VecDense
	// H is measurement noise variance
	H float64
	// Q is innovation covariance [n x n]
	Q *mat.SymDense
	// R selects the state elements receiving the noise block; nil loads all of them
	R []int
	// W is noise loading [len(R) x n]; nil means identity
	W *mat.Dense
	// Pf0 is proper initial covariance; nil means zero
	Pf0 *mat.SymDense
	// B is diffuse basis [r x d]; nil means no diffuse part
	B *mat.Dense
}

// Base is a time invariant model backed by dense matrices
type Base struct {
	sys System
}

// NewBase creates new Base model from system matrices and returns it.
// It returns error if the matrices have inconsistent dimensions.
func NewBase(s System) (*Base, error) {
	if s.T == nil || s.Z == nil {
		return nil, fmt.Errorf("transition and measurement must be defined for a model")
	}

	r, c := s.T.Dims()
	if r != c || r <= 0 {
		return nil, fmt.Errorf("invalid transition matrix dimensions: [%d x %d]", r, c)
	}

	if s.Z.Len() != r {
		return nil, fmt.Errorf("invalid measurement dimension: %d != %d", s.Z.Len(), r)
	}

	if s.H < 0 {
		return nil, fmt.Errorf("invalid measurement noise variance: %g", s.H)
	}

	sys := System{
		T: mat.DenseCopyOf(s.T),
		Z: mat.VecDenseCopyOf(s.Z),
		H: s.H,
	}
	if s.R != nil {
		sys.R = make([]int, len(s.R))
		copy(sys.R, s.R)
	}

	nres := r
	if sys.R != nil {
		nres = len(sys.R)
		for _, i := range sys.R {
			if i < 0 || i >= r {
				return nil, fmt.Errorf("invalid noise selection index: %d", i)
			}
		}
	}

	ncount := nres
	if s.W != nil {
		wr, wc := s.W.Dims()
		if wr != nres {
			return nil, fmt.Errorf("invalid noise loading dimensions: [%d x %d]", wr, wc)
		}
		sys.W = mat.DenseCopyOf(s.W)
		ncount = wc
	}

	switch {
	case s.Q != nil && s.Q.SymmetricDim() != ncount:
		return nil, fmt.Errorf("invalid innovation covariance dimension: %d != %d", s.Q.SymmetricDim(), ncount)
	case ncount == 0:
		sys.Q = &mat.SymDense{}
	default:
		sys.Q = mat.NewSymDense(ncount, nil)
		if s.Q != nil {
			sys.Q.CopySym(s.Q)
		}
	}

	sys.Pf0 = mat.NewSymDense(r, nil)
	if s.Pf0 != nil {
		if s.Pf0.SymmetricDim() != r {
			return nil, fmt.Errorf("invalid initial covariance dimension: %d", s.Pf0.SymmetricDim())
		}
		sys.Pf0.CopySym(s.Pf0)
	}

	if s.B != nil {
		br, _ := s.B.Dims()
		if br != r {
			return nil, fmt.Errorf("invalid diffuse basis rows: %d != %d", br, r)
		}
		sys.B = mat.DenseCopyOf(s.B)
	}

	return &Base{sys: sys}, nil
}

// System returns a copy of the model matrices
func (b *Base) System() System {
	s := System{
		T:   mat.DenseCopyOf(b.sys.T),
		Z:   mat.VecDenseCopyOf(b.sys.Z),
		H:   b.sys.H,
		Pf0: mat.NewSymDense(b.sys.Pf0.SymmetricDim(), nil),
	}
	if b.sys.R != nil {
		s.R = make([]int, len(b.sys.R))
		copy(s.R, b.sys.R)
	}
	if n := b.sys.Q.SymmetricDim(); n > 0 {
		s.Q = mat.NewSymDense(n, nil)
		s.Q.CopySym(b.sys.Q)
	}
	s.Pf0.CopySym(b.sys.Pf0)
	if b.sys.W != nil {
		s.W = mat.DenseCopyOf(b.sys.W)
	}
	if b.sys.B != nil {
		s.B = mat.DenseCopyOf(b.sys.B)
	}

	return s
}

// StateDim returns state dimension
func (b *Base) StateDim() int {
	r, _ := b.sys.T.Dims()
	return r
}

// IsTimeInvariant returns true
func (b *Base) IsTimeInvariant() bool { return true }

// IsMeasurementTimeInvariant returns true
func (b *Base) IsMeasurementTimeInvariant() bool { return true }

// IsTransitionTimeInvariant returns true
func (b *Base) IsTransitionTimeInvariant() bool { return true }

// IsTransitionResidualTimeInvariant returns true
func (b *Base) IsTransitionResidualTimeInvariant() bool { return true }

// Z adds measurement loading into z
func (b *Base) Z(pos int, z *mat.VecDense) {
	z.AddVec(z, b.sys.Z)
}

// H returns measurement noise variance
func (b *Base) H(pos int) float64 {
	return b.sys.H
}

// T adds transition matrix into t
func (b *Base) T(pos int, t *mat.Dense) {
	t.Add(t, b.sys.T)
}

// ResDim returns the dimension of the loaded noise block
func (b *Base) ResDim() int {
	if b.sys.R != nil {
		return len(b.sys.R)
	}

	return b.StateDim()
}

// ResCount returns the number of noise processes
func (b *Base) ResCount() int {
	return b.sys.Q.SymmetricDim()
}

// Q adds innovation covariance into q
func (b *Base) Q(pos int, q *mat.SymDense) {
	q.AddSym(q, b.sys.Q)
}

// HasR reports whether the noise loads a selection of the state
func (b *Base) HasR() bool {
	return b.sys.R != nil
}

// R returns the noise selection
func (b *Base) R(pos int) []int {
	return b.sys.R
}

// HasW reports whether the noise has a loading matrix
func (b *Base) HasW() bool {
	return b.sys.W != nil
}

// W adds noise loading into w
func (b *Base) W(pos int, w *mat.Dense) {
	if b.sys.W != nil {
		w.Add(w, b.sys.W)
	}
}

// Pf0 adds proper initial covariance into p
func (b *Base) Pf0(p *mat.SymDense) {
	p.AddSym(p, b.sys.Pf0)
}

// DiffuseDim returns diffuse dimension
func (b *Base) DiffuseDim() int {
	if b.sys.B == nil {
		return 0
	}
	_, d := b.sys.B.Dims()

	return d
}

// DiffuseConstraints adds diffuse basis into m
func (b *Base) DiffuseConstraints(m *mat.Dense) {
	if b.sys.B != nil {
		m.Add(m, b.sys.B)
	}
}
