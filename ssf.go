package ssf

import "gonum.org/v1/gonum/mat"

// Measurement describes the observation equation y = Z*a + e, var(e) = H.
type Measurement interface {
	// Z adds the non-zero elements of the measurement loading at pos into z
	Z(pos int, z *mat.VecDense)
	// H returns measurement noise variance at pos
	H(pos int) float64
	// IsMeasurementTimeInvariant reports whether Z and H do not depend on pos
	IsMeasurementTimeInvariant() bool
}

// Transition describes the state propagation a' = T*a + R*W*u.
type Transition interface {
	// T adds the non-zero elements of the transition matrix at pos into t
	T(pos int, t *mat.Dense)
	// IsTransitionTimeInvariant reports whether T does not depend on pos
	IsTransitionTimeInvariant() bool
}

// Residual describes the transition innovations u ~ N(0, Q) loaded into the state by R*W.
type Residual interface {
	// ResDim returns the dimension of the loaded noise block
	ResDim() int
	// ResCount returns the number of noise processes, i.e. the length of u
	ResCount() int
	// Q adds the innovation covariance at pos into q [ResCount x ResCount]
	Q(pos int, q *mat.SymDense)
	// HasR reports whether the noise loads only a selection of the state
	HasR() bool
	// R returns the state indices receiving the noise block [ResDim]
	R(pos int) []int
	// HasW reports whether a loading matrix W is present
	HasW() bool
	// W adds the loading matrix at pos into w [ResDim x ResCount]
	W(pos int, w *mat.Dense)
	// IsTransitionResidualTimeInvariant reports whether Q, R and W do not depend on pos
	IsTransitionResidualTimeInvariant() bool
}

// Initialization describes the initial state distribution.
// The initial covariance is Pf0 + k*B*B' with k -> inf.
type Initialization interface {
	// Pf0 adds the proper part of the initial covariance into p
	Pf0(p *mat.SymDense)
	// DiffuseDim returns the number of diffuse elements d
	DiffuseDim() int
	// DiffuseConstraints adds the diffuse basis B into b [StateDim x DiffuseDim]
	DiffuseConstraints(b *mat.Dense)
}

// Model is a linear Gaussian state space model with univariate observations.
// All methods must be pure functions of pos and the supplied buffers.
// Callers zero the buffers before passing them in.
type Model interface {
	Measurement
	Transition
	Residual
	Initialization
	// StateDim returns the state dimension r
	StateDim() int
	// IsTimeInvariant reports whether no operator depends on pos
	IsTimeInvariant() bool
}

// ZXer is implemented by models which compute Z*x without materializing Z.
type ZXer interface {
	ZX(pos int, x mat.Vector) float64
}

// ZMer is implemented by models which apply Z to the columns of a matrix.
type ZMer interface {
	ZM(pos int, m mat.Matrix, x *mat.VecDense)
}

// ZVZer is implemented by models which compute the quadratic form Z*V*Z'.
type ZVZer interface {
	ZVZ(pos int, v mat.Symmetric) float64
}

// VpZdZer is implemented by models which add d*Z'*Z to a symmetric matrix.
type VpZdZer interface {
	VpZdZ(pos int, v *mat.SymDense, d float64)
}

// TXer is implemented by models which compute T*x in place.
type TXer interface {
	TX(pos int, x *mat.VecDense)
}

// XTer is implemented by models which compute x*T (i.e. T'*x) in place.
type XTer interface {
	XT(pos int, x *mat.VecDense)
}

// TVTer is implemented by models which compute T*V*T' in place.
type TVTer interface {
	TVT(pos int, v *mat.SymDense)
}

// FullQer is implemented by models which add R*W*Q*W'*R' directly.
type FullQer interface {
	FullQ(pos int, q *mat.SymDense)
}

// Data is a sequence of univariate observations.
// Missing observations are stored as NaN.
type Data interface {
	// Len returns number of observations
	Len() int
	// Get returns observation at pos
	Get(pos int) float64
	// IsMissing reports whether observation at pos is missing
	IsMissing(pos int) bool
	// InitialState returns the known initial state or nil
	InitialState() mat.Vector
}

// Sink receives filter states position by position.
type Sink interface {
	// Prepare is called once before the first state is saved
	Prepare(m Model, d Data) error
	// Save stores state st computed at pos. st is reused by the caller after Save returns.
	Save(pos int, st *State) error
	// Close is called once after the last state is saved
	Close() error
}

// DiffuseSink is a Sink which also records the diffuse part of the filter.
type DiffuseSink interface {
	Sink
	// SaveDiffuse stores diffuse state st computed at pos
	SaveDiffuse(pos int, st *DiffuseState) error
	// CloseDiffuse marks pos as the first position after the diffuse phase
	CloseDiffuse(pos int) error
}

// Initializer resolves the diffuse part of the initial state.
type Initializer interface {
	// Initialize filters d until the diffuse part vanishes. It returns the first
	// non-diffuse position and the proper state at that position.
	Initialize(d Data, sink Sink) (int, *State, error)
}
