package diffuse

import (
	"fmt"
	"math"

	ssf "github.com/jdemetra/jdemetra-core-sub001"
	"github.com/jdemetra/jdemetra-core-sub001/model"
	"gonum.org/v1/gonum/mat"
)

// DefaultEpsilon is the default zero threshold of the diffuse initializers
const DefaultEpsilon = 1e-9

// Config contains diffuse initializer configuration parameters
type Config struct {
	// Epsilon is the zero threshold used for the prediction variances and
	// for the diffuse covariance, relative to the norm of the initial diffuse covariance
	Epsilon float64
}

func epsilon(c *Config) float64 {
	if c == nil || c.Epsilon <= 0 {
		return DefaultEpsilon
	}

	return c.Epsilon
}

// newModel checks model m before its use by an initializer
func newModel(m ssf.Model) error {
	if m == nil {
		return fmt.Errorf("invalid model: %v", m)
	}
	if err := model.Validate(m); err != nil {
		return err
	}
	if !model.IsDiffuse(m) {
		return fmt.Errorf("model has no diffuse part")
	}

	return nil
}

// initState creates the diffuse state at position 0
func initState(m ssf.Model, d ssf.Data) (*ssf.DiffuseState, error) {
	r := m.StateDim()
	st := ssf.NewDiffuseState(r)
	if a0 := d.InitialState(); a0 != nil {
		if a0.Len() != r {
			return nil, fmt.Errorf("invalid initial state dimension: %d != %d", a0.Len(), r)
		}
		st.A.CopyVec(a0)
	}
	m.Pf0(st.P)
	model.Pi0(m, st.Pi)

	return st, nil
}

// predict computes the prediction errors, variances and unscaled gains of the proper part
// of st at the current workspace position. mf is a scratch buffer.
func predict(ws *model.Workspace, st *ssf.DiffuseState, d ssf.Data, pos int, eps float64, mf *mat.VecDense) {
	st.F = ws.ZVZ(st.P) + ws.H()
	if st.F < eps {
		st.F = 0
	}

	ws.ZM(st.P, mf)
	st.C.CopyVec(mf)
	ws.TX(st.C)

	if d.IsMissing(pos) {
		st.E = math.NaN()
	} else {
		st.E = d.Get(pos) - ws.ZX(st.A)
	}
}

// update updates the proper part of st. A and P must have been propagated by T already.
// It returns error if a zero variance prediction meets a non-zero prediction error.
func update(st *ssf.DiffuseState, pos int, eps float64) error {
	switch {
	case st.IsMissing():
	case st.Fi > 0:
		st.A.AddScaledVec(st.A, st.E/st.Fi, st.Ci)
		// P - (Ci*C' + C*Ci')/fi + Ci*Ci'*f/fi^2
		st.P.RankTwo(st.P, -1/st.Fi, st.Ci, st.C)
		st.P.SymRankOne(st.P, st.F/(st.Fi*st.Fi), st.Ci)
	case st.F > 0:
		st.A.AddScaledVec(st.A, st.E/st.F, st.C)
		st.P.SymRankOne(st.P, -1/st.F, st.C)
	case math.Abs(st.E) > eps:
		return fmt.Errorf("%w: zero variance prediction with error %g at position %d", ssf.ErrInconsistentData, st.E, pos)
	}

	return nil
}

// handoff returns the proper state handed to the ordinary filter
func handoff(st *ssf.DiffuseState) *ssf.State {
	r := st.A.Len()
	h := ssf.NewState(r)
	h.A.CopyVec(st.A)
	h.P.CopySym(st.P)

	return h
}

func save(sink ssf.Sink, pos int, st *ssf.DiffuseState) error {
	if sink == nil {
		return nil
	}
	if ds, ok := sink.(ssf.DiffuseSink); ok {
		return ds.SaveDiffuse(pos, st)
	}

	return sink.Save(pos, &st.State)
}

func closeDiffuse(sink ssf.Sink, pos int) error {
	if ds, ok := sink.(ssf.DiffuseSink); ok {
		return ds.CloseDiffuse(pos)
	}

	return nil
}
