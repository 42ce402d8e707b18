package kf

import (
	"fmt"
	"math"

	ssf "github.com/jdemetra/jdemetra-core-sub001"
	"github.com/jdemetra/jdemetra-core-sub001/kalman"
	"github.com/jdemetra/jdemetra-core-sub001/kalman/diffuse"
	"github.com/jdemetra/jdemetra-core-sub001/matrix"
	"github.com/jdemetra/jdemetra-core-sub001/model"
	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

// DefaultEpsilon is the default zero threshold for the prediction error variance
const DefaultEpsilon = 1e-9

// SteadyState configures the detection of the steady state of time invariant models.
// Once the predicted covariance changes by less than Tolerance (relative max-abs) during
// Window consecutive observations, the covariance is no longer propagated.
// A missing observation releases the steady state.
type SteadyState struct {
	Tolerance float64
	Window    int
}

// Config contains KF configuration parameters
type Config struct {
	// Epsilon is the zero threshold of the prediction error variance
	Epsilon float64
	// SteadyState enables the steady state shortcut when not nil
	SteadyState *SteadyState
	// Initializer resolves the diffuse part of the model.
	// If nil, diffuse models are initialized by diffuse.Direct.
	Initializer ssf.Initializer
}

// KF is the univariate Kalman filter in prediction form
type KF struct {
	// m is the filtered model
	m ssf.Model
	// eps is zero threshold
	eps float64
	// ss is steady state configuration
	ss *SteadyState
	// init is diffuse initializer
	init ssf.Initializer
}

// New creates new KF for model m and returns it.
// It returns error if either of the following conditions is met:
//  - invalid model is given
//  - invalid steady state configuration is given
//  - the diffuse initializer can not be created
func New(m ssf.Model, c *Config) (*KF, error) {
	if m == nil {
		return nil, fmt.Errorf("invalid model: %v", m)
	}
	if err := model.Validate(m); err != nil {
		return nil, err
	}

	k := &KF{m: m, eps: DefaultEpsilon}
	if c != nil {
		if c.Epsilon > 0 {
			k.eps = c.Epsilon
		}
		if c.SteadyState != nil {
			if c.SteadyState.Tolerance <= 0 || c.SteadyState.Window <= 0 {
				return nil, fmt.Errorf("invalid steady state config: %+v", *c.SteadyState)
			}
			ss := *c.SteadyState
			k.ss = &ss
		}
		k.init = c.Initializer
	}

	if k.init == nil && model.IsDiffuse(m) {
		init, err := diffuse.NewDirect(m, &diffuse.Config{Epsilon: k.eps})
		if err != nil {
			return nil, err
		}
		k.init = init
	}

	return k, nil
}

// Model returns the filtered model
func (k *KF) Model() ssf.Model {
	return k.m
}

// Process filters d from position 0 and passes the states to sink.
// It returns error if the data are inconsistent with the model or if sink fails.
func (k *KF) Process(d ssf.Data, sink ssf.Sink) error {
	if d == nil {
		return fmt.Errorf("invalid data: %v", d)
	}
	if sink == nil {
		return fmt.Errorf("invalid sink: %v", sink)
	}

	if err := sink.Prepare(k.m, d); err != nil {
		return err
	}

	pos, st, err := kalman.Initialize(k.init, k.m, d, sink)
	if err != nil {
		return err
	}

	if err := k.ProcessFrom(pos, st, d, sink); err != nil {
		return err
	}

	return sink.Close()
}

// ProcessFrom filters d from position pos, starting with the predicted state st,
// which is modified in place. sink must have been prepared and is not closed.
func (k *KF) ProcessFrom(pos int, st *ssf.State, d ssf.Data, sink ssf.Sink) error {
	if st == nil || st.Dim() != k.m.StateDim() {
		return fmt.Errorf("invalid filter state: %v", st)
	}

	log.WithFields(log.Fields{
		"start": pos,
		"n":     d.Len(),
		"dim":   k.m.StateDim(),
	}).Debug("kalman filter started")

	ws := model.NewWorkspace(k.m)
	mf := mat.NewVecDense(k.m.StateDim(), nil)

	steady := false
	stable := 0
	var prev, diff *mat.SymDense

	for ; pos < d.Len(); pos++ {
		ws.Move(pos)
		missing := d.IsMissing(pos)

		st.F = ws.ZVZ(st.P) + ws.H()
		if st.F < k.eps {
			st.F = 0
		}
		ws.ZM(st.P, mf)
		st.C.CopyVec(mf)
		ws.TX(st.C)

		if missing {
			st.E = math.NaN()
		} else {
			st.E = d.Get(pos) - ws.ZX(st.A)
		}

		if err := sink.Save(pos, st); err != nil {
			return err
		}

		ws.TX(st.A)
		if !missing {
			if st.F > 0 {
				st.A.AddScaledVec(st.A, st.E/st.F, st.C)
			} else if math.Abs(st.E) > k.eps {
				return fmt.Errorf("%w: zero variance prediction with error %g at position %d", ssf.ErrInconsistentData, st.E, pos)
			}
		}

		if steady {
			if !missing {
				continue
			}
			steady = false
			stable = 0
			log.WithField("pos", pos).Debug("steady state released")
		}

		ws.TVT(st.P)
		if !missing && st.F > 0 {
			st.P.SymRankOne(st.P, -1/st.F, st.C)
		}
		ws.AddFullQ(st.P)

		if k.ss == nil || missing || !k.m.IsTimeInvariant() {
			continue
		}
		if prev == nil {
			prev = mat.NewSymDense(k.m.StateDim(), nil)
			diff = mat.NewSymDense(k.m.StateDim(), nil)
		} else {
			diff.ScaleSym(-1, prev)
			diff.AddSym(diff, st.P)
			if matrix.MaxAbs(diff) <= k.ss.Tolerance*math.Max(1, matrix.MaxAbs(st.P)) {
				stable++
			} else {
				stable = 0
			}
		}
		prev.CopySym(st.P)
		if stable >= k.ss.Window {
			steady = true
			log.WithFields(log.Fields{
				"pos": pos,
				"f":   st.F,
			}).Debug("steady state reached")
		}
	}

	return nil
}
