package kalman

import (
	"fmt"

	ssf "github.com/jdemetra/jdemetra-core-sub001"
)

// Filter is a univariate Kalman filter of a state space model
type Filter interface {
	// Process filters d from its first position and forwards the states to sink
	Process(d ssf.Data, sink ssf.Sink) error
	// Model returns the filtered model
	Model() ssf.Model
}

// Initialize returns the first proper position of m on d and the predicted state at that position.
// Diffuse models are resolved by init, which passes the diffuse states to sink.
// Proper models start at position 0 from the known initial state of d (zero if none) and Pf0.
func Initialize(init ssf.Initializer, m ssf.Model, d ssf.Data, sink ssf.Sink) (int, *ssf.State, error) {
	if init != nil {
		return init.Initialize(d, sink)
	}

	r := m.StateDim()
	st := ssf.NewState(r)
	if a0 := d.InitialState(); a0 != nil {
		if a0.Len() != r {
			return 0, nil, fmt.Errorf("invalid initial state dimension: %d != %d", a0.Len(), r)
		}
		st.A.CopyVec(a0)
	}
	m.Pf0(st.P)

	return 0, st, nil
}
