package fast

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

const (
	// DefaultEpsilon is the default tolerance of the factor initialization residual
	DefaultEpsilon = 1e-12
	// zeroEpsilon is the zero threshold of the prediction error variance. It is also the
	// largest prediction error allowed for a zero variance prediction.
	zeroEpsilon = 1e-9
)

// Config contains fast filter configuration parameters
type Config struct {
	// Epsilon is the relative tolerance of the factor initialization residual
	Epsilon float64
	// Covariance makes the filter save P at every position.
	// Otherwise P is only saved when the data contain missing observations.
	Covariance bool
	// Initializer resolves the diffuse part of the model.
	// If nil, diffuse models are initialized by diffuse.Direct.
	Initializer ssf.Initializer
}

func initializer(m ssf.Model, c *Config) (ssf.Initializer, error) {
	if c != nil && c.Initializer != nil {
		return c.Initializer, nil
	}
	if !model.IsDiffuse(m) {
		return nil, nil
	}

	return diffuse.NewDirect(m, nil)
}

// Fast is the Chandrasekhar filter of time invariant models.
// The covariance increment is kept in the rank one form P[t+1]-P[t] = -L*L'/f[t]
// so that a step costs O(r^2) at most instead of O(r^3).
type Fast struct {
	m    ssf.Model
	eps  float64
	cov  bool
	init ssf.Initializer
}

// New creates new fast filter for model m and returns it.
// It returns error if the model is invalid or is not time invariant.
func New(m ssf.Model, c *Config) (*Fast, error) {
	if m == nil {
		return nil, fmt.Errorf("invalid model: %v", m)
	}
	if err := model.Validate(m); err != nil {
		return nil, err
	}
	if !m.IsTimeInvariant() {
		return nil, fmt.Errorf("fast filter requires a time invariant model")
	}

	init, err := initializer(m, c)
	if err != nil {
		return nil, err
	}

	f := &Fast{m: m, eps: DefaultEpsilon, init: init}
	if c != nil {
		if c.Epsilon > 0 {
			f.eps = c.Epsilon
		}
		f.cov = c.Covariance
	}

	return f, nil
}

// Model returns the filtered model
func (f *Fast) Model() ssf.Model {
	return f.m
}

// Process filters d from position 0 and passes the states to sink.
// It returns error wrapping ssf.ErrFastInit if no rank one factor exists at the first proper position.
func (f *Fast) Process(d ssf.Data, sink ssf.Sink) error {
	if d == nil {
		return fmt.Errorf("invalid data: %v", d)
	}
	if sink == nil {
		return fmt.Errorf("invalid sink: %v", sink)
	}

	if err := sink.Prepare(f.m, d); err != nil {
		return err
	}

	pos, st, err := kalman.Initialize(f.init, f.m, d, sink)
	if err != nil {
		return err
	}

	if err := f.run(pos, st, d, sink); err != nil {
		return err
	}

	return sink.Close()
}

func hasMissing(d ssf.Data, pos int) bool {
	for ; pos < d.Len(); pos++ {
		if d.IsMissing(pos) {
			return true
		}
	}

	return false
}

func (f *Fast) run(pos int, st *ssf.State, d ssf.Data, sink ssf.Sink) error {
	r := f.m.StateDim()
	ws := model.NewWorkspace(f.m)
	ws.Move(pos)

	start := pos
	keep := f.cov || hasMissing(d, pos)
	mf := mat.NewVecDense(r, nil)
	tl := mat.NewVecDense(r, nil)
	cold := mat.NewVecDense(r, nil)

	var l *mat.VecDense
	reinit := true

	for ; pos < d.Len(); pos++ {
		ws.Move(pos)
		missing := d.IsMissing(pos)

		if reinit {
			st.F = ws.ZVZ(st.P) + ws.H()
			if st.F < zeroEpsilon {
				st.F = 0
			}
			ws.ZM(st.P, mf)
			st.C.CopyVec(mf)
			ws.TX(st.C)
			l = nil
			if !missing && st.F > 0 {
				var err error
				if l, err = f.factor(ws, st); err != nil {
					if pos == start {
						return err
					}
					log.WithFields(log.Fields{
						"pos":   pos,
						"error": err,
					}).Debug("fast filter factor unavailable")
				} else {
					reinit = false
					if pos != start {
						log.WithField("pos", pos).Debug("fast filter re-initialized")
					}
				}
			}
		} else if st.F < zeroEpsilon {
			st.F = 0
		}

		if missing {
			st.E = math.NaN()
		} else {
			st.E = d.Get(pos) - ws.ZX(st.A)
		}

		saved := st
		if !keep {
			cp := *st
			cp.P = nil
			saved = &cp
		}
		if err := sink.Save(pos, saved); err != nil {
			return err
		}

		ws.TX(st.A)
		if missing {
			ws.TVT(st.P)
			ws.AddFullQ(st.P)
			reinit = true
			continue
		}

		if st.F > 0 {
			st.A.AddScaledVec(st.A, st.E/st.F, st.C)
		} else if math.Abs(st.E) > zeroEpsilon {
			return fmt.Errorf("%w: zero variance prediction with error %g at position %d", ssf.ErrInconsistentData, st.E, pos)
		}

		if l == nil || st.F == 0 {
			// ordinary step
			ws.TVT(st.P)
			if st.F > 0 {
				st.P.SymRankOne(st.P, -1/st.F, st.C)
			}
			ws.AddFullQ(st.P)
			reinit = true
			continue
		}

		// P is always propagated so that an ordinary step can take over
		st.P.SymRankOne(st.P, -1/st.F, l)

		zl := ws.ZX(l)
		tl.CopyVec(l)
		ws.TX(tl)
		cold.CopyVec(st.C)
		k := zl / st.F

		st.C.AddScaledVec(cold, -k, tl)
		l.AddScaledVec(tl, -k, cold)
		st.F -= zl * k
	}

	return nil
}

// factor returns L such that L*L' = -f*(T*P*T' + Q - C*C'/f - P).
// It returns error wrapping ssf.ErrFastInit if no such vector exists.
func (f *Fast) factor(ws *model.Workspace, st *ssf.State) (*mat.VecDense, error) {
	r := st.Dim()
	if st.F <= 0 {
		return nil, fmt.Errorf("%w: zero prediction variance", ssf.ErrFastInit)
	}

	s := mat.NewSymDense(r, nil)
	s.CopySym(st.P)
	ws.TVT(s)
	ws.AddFullQ(s)
	s.SymRankOne(s, -1/st.F, st.C)
	neg := mat.NewSymDense(r, nil)
	neg.ScaleSym(-1, st.P)
	s.AddSym(s, neg)
	s.ScaleSym(-st.F, s)

	tol := f.eps * math.Max(1, st.F*matrix.MaxAbs(st.P))
	l := mat.NewVecDense(r, nil)
	if matrix.IsZero(s, tol) {
		return l, nil
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(s, true); !ok {
		return nil, fmt.Errorf("%w: eigen decomposition failed", ssf.ErrFastInit)
	}
	vals := eig.Values(nil)
	top := vals[r-1]
	if top <= 0 {
		return nil, fmt.Errorf("%w: no positive eigenvalue: %g", ssf.ErrFastInit, top)
	}

	var vecs mat.Dense
	eig.VectorsTo(&vecs)
	l.ScaleVec(math.Sqrt(top), vecs.ColView(r-1))

	res := mat.NewSymDense(r, nil)
	res.SymRankOne(s, -1, l)
	if !matrix.IsZero(res, tol) {
		return nil, fmt.Errorf("%w: covariance increment is not of rank one (residual %g)", ssf.ErrFastInit, matrix.MaxAbs(res))
	}

	return l, nil
}
