package diffuse

import (
	"fmt"
	"math"

	ssf "github.com/jdemetra/jdemetra-core-sub001"
	"github.com/jdemetra/jdemetra-core-sub001/matrix"
	"github.com/jdemetra/jdemetra-core-sub001/model"
	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

// Direct is the diffuse initializer which propagates the diffuse covariance Pi explicitly
type Direct struct {
	m   ssf.Model
	eps float64
}

// NewDirect creates new direct diffuse initializer for model m and returns it.
// It returns error if the model is invalid or has no diffuse part.
func NewDirect(m ssf.Model, c *Config) (*Direct, error) {
	if err := newModel(m); err != nil {
		return nil, err
	}

	return &Direct{m: m, eps: epsilon(c)}, nil
}

// Model returns the initialized model
func (f *Direct) Model() ssf.Model {
	return f.m
}

// Initialize filters d from position 0 until the diffuse covariance vanishes.
// Diffuse states are passed to sink, which must have been prepared by the caller.
// It returns the first non-diffuse position and the proper state at that position.
func (f *Direct) Initialize(d ssf.Data, sink ssf.Sink) (int, *ssf.State, error) {
	st, err := initState(f.m, d)
	if err != nil {
		return 0, nil, err
	}

	ws := model.NewWorkspace(f.m)
	tol := f.eps * math.Max(1, matrix.MaxAbs(st.Pi))
	mf := mat.NewVecDense(f.m.StateDim(), nil)
	mi := mat.NewVecDense(f.m.StateDim(), nil)

	for pos := 0; pos < d.Len(); pos++ {
		ws.Move(pos)

		st.Fi = ws.ZVZ(st.Pi)
		if st.Fi < tol {
			st.Fi = 0
		}
		ws.ZM(st.Pi, mi)
		st.Ci.CopyVec(mi)
		ws.TX(st.Ci)
		predict(ws, st, d, pos, f.eps, mf)

		if err := save(sink, pos, st); err != nil {
			return 0, nil, err
		}

		ws.TX(st.A)
		ws.TVT(st.P)
		ws.TVT(st.Pi)
		if err := update(st, pos, f.eps); err != nil {
			return 0, nil, err
		}
		if !st.IsMissing() && st.Fi > 0 {
			st.Pi.SymRankOne(st.Pi, -1/st.Fi, st.Ci)
		}
		ws.AddFullQ(st.P)

		if matrix.IsZero(st.Pi, tol) {
			log.WithFields(log.Fields{
				"method": "direct",
				"end":    pos + 1,
			}).Debug("diffuse phase completed")
			if err := closeDiffuse(sink, pos+1); err != nil {
				return 0, nil, err
			}
			return pos + 1, handoff(st), nil
		}
	}

	return 0, nil, fmt.Errorf("%w: after %d observations", ssf.ErrDiffuseUnresolved, d.Len())
}
