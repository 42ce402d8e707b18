package fast

import (
	"fmt"
	"math"

	ssf "github.com/jdemetra/jdemetra-core-sub001"
	"github.com/jdemetra/jdemetra-core-sub001/kalman"
	"github.com/jdemetra/jdemetra-core-sub001/matrix"
	"github.com/jdemetra/jdemetra-core-sub001/model"
	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

// Array is the square root covariance filter. It propagates a factor S of P (P = S*S')
// by triangularizing the pre-array
//
//	[ sqrt(h)  Z*S  0 ]
//	[ 0        T*S  G ]
//
// where G*G' = R*W*Q*W'*R'.
type Array struct {
	m    ssf.Model
	init ssf.Initializer
}

// NewArray creates new array filter for model m and returns it.
// Time varying models are accepted.
func NewArray(m ssf.Model, c *Config) (*Array, error) {
	if m == nil {
		return nil, fmt.Errorf("invalid model: %v", m)
	}
	if err := model.Validate(m); err != nil {
		return nil, err
	}

	init, err := initializer(m, c)
	if err != nil {
		return nil, err
	}

	return &Array{m: m, init: init}, nil
}

// Model returns the filtered model
func (f *Array) Model() ssf.Model {
	return f.m
}

// Process filters d from position 0 and passes the states to sink.
func (f *Array) Process(d ssf.Data, sink ssf.Sink) error {
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

func (f *Array) run(pos int, st *ssf.State, d ssf.Data, sink ssf.Sink) error {
	r := f.m.StateDim()
	s, err := matrix.PSDFactor(st.P)
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"start": pos,
		"n":     d.Len(),
		"dim":   r,
	}).Debug("array filter started")

	ws := model.NewWorkspace(f.m)
	zs := mat.NewVecDense(r, nil)
	var g *mat.Dense

	for ; pos < d.Len(); pos++ {
		ws.Move(pos)
		if g == nil || !f.m.IsTransitionResidualTimeInvariant() {
			if g, err = matrix.PSDFactor(ws.FullQ()); err != nil {
				return err
			}
		}

		ws.ZM(s, zs)
		ts := mat.DenseCopyOf(s)
		ws.TM(ts)
		missing := d.IsMissing(pos)

		var next *mat.Dense
		if missing {
			st.F = mat.Dot(zs, zs) + ws.H()
			st.C.MulVec(ts, zs)
			st.E = math.NaN()

			pre := mat.NewDense(r, 2*r, nil)
			pre.Slice(0, r, 0, r).(*mat.Dense).Copy(ts)
			pre.Slice(0, r, r, 2*r).(*mat.Dense).Copy(g)
			if next, err = matrix.LowerTriangularize(pre); err != nil {
				return err
			}
		} else {
			pre := mat.NewDense(r+1, 2*r+1, nil)
			pre.Set(0, 0, math.Sqrt(ws.H()))
			pre.Slice(0, 1, 1, r+1).(*mat.Dense).SetRow(0, zs.RawVector().Data)
			pre.Slice(1, r+1, 1, r+1).(*mat.Dense).Copy(ts)
			pre.Slice(1, r+1, r+1, 2*r+1).(*mat.Dense).Copy(g)
			post, err := matrix.LowerTriangularize(pre)
			if err != nil {
				return err
			}

			l00 := post.At(0, 0)
			st.F = l00 * l00
			st.C.ScaleVec(l00, post.Slice(1, r+1, 0, 1).(*mat.Dense).ColView(0))
			next = mat.DenseCopyOf(post.Slice(1, r+1, 1, r+1))
			st.E = d.Get(pos) - ws.ZX(st.A)
		}

		if st.F < zeroEpsilon {
			st.F = 0
		}
		st.S = s
		st.P.SymOuterK(1, s)
		if err := sink.Save(pos, st); err != nil {
			return err
		}

		ws.TX(st.A)
		if !missing {
			if st.F > 0 {
				st.A.AddScaledVec(st.A, st.E/st.F, st.C)
			} else if math.Abs(st.E) > zeroEpsilon {
				return fmt.Errorf("%w: zero variance prediction with error %g at position %d", ssf.ErrInconsistentData, st.E, pos)
			}
		}
		s = next
	}

	st.P.SymOuterK(1, s)
	st.S = s

	return nil
}
