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

// SquareRoot is the diffuse initializer which propagates a basis B of the
// diffuse covariance (Pi = B*B'). Each informative observation removes one column of B.
type SquareRoot struct {
	m   ssf.Model
	eps float64
}

// NewSquareRoot creates new square root diffuse initializer for model m and returns it.
// It returns error if the model is invalid or has no diffuse part.
func NewSquareRoot(m ssf.Model, c *Config) (*SquareRoot, error) {
	if err := newModel(m); err != nil {
		return nil, err
	}

	return &SquareRoot{m: m, eps: epsilon(c)}, nil
}

// Model returns the initialized model
func (f *SquareRoot) Model() ssf.Model {
	return f.m
}

// Initialize filters d from position 0 until the diffuse basis vanishes.
// Diffuse states are passed to sink, which must have been prepared by the caller.
// It returns the first non-diffuse position and the proper state at that position.
func (f *SquareRoot) Initialize(d ssf.Data, sink ssf.Sink) (int, *ssf.State, error) {
	st, err := initState(f.m, d)
	if err != nil {
		return 0, nil, err
	}

	r := f.m.StateDim()
	b := mat.NewDense(r, f.m.DiffuseDim(), nil)
	f.m.DiffuseConstraints(b)

	ws := model.NewWorkspace(f.m)
	tol := f.eps * math.Max(1, matrix.MaxAbs(st.Pi))
	mf := mat.NewVecDense(r, nil)

	for pos := 0; pos < d.Len(); pos++ {
		ws.Move(pos)
		_, cols := b.Dims()

		st.B = b
		st.Pi.SymOuterK(1, b)

		zb := mat.NewVecDense(cols, nil)
		ws.ZM(b, zb)
		tb := mat.DenseCopyOf(b)
		ws.TM(tb)

		st.Ci.MulVec(tb, zb)
		st.Fi = mat.Dot(zb, zb)
		if st.Fi < tol {
			st.Fi = 0
		}
		predict(ws, st, d, pos, f.eps, mf)

		if err := save(sink, pos, st); err != nil {
			return 0, nil, err
		}

		ws.TX(st.A)
		ws.TVT(st.P)
		if err := update(st, pos, f.eps); err != nil {
			return 0, nil, err
		}
		ws.AddFullQ(st.P)

		b = tb
		if !st.IsMissing() && st.Fi > 0 {
			b = reduce(zb, tb)
		}

		if vanished(b, tol) {
			log.WithFields(log.Fields{
				"method": "sqrt",
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

// vanished reports whether the diffuse covariance B*B' is zero within tol.
// The test is applied to B*B' so that it matches the direct initializer.
func vanished(b *mat.Dense, tol float64) bool {
	if b.IsEmpty() {
		return true
	}

	var pi mat.SymDense
	pi.SymOuterK(1, b)

	return matrix.IsZero(&pi, tol)
}

// reduce rotates the pre-array [Z*B; T*B] so that its first row has a single
// non-zero entry and returns the remaining columns of its lower block.
func reduce(zb *mat.VecDense, tb *mat.Dense) *mat.Dense {
	r, cols := tb.Dims()
	pre := mat.NewDense(r+1, cols, nil)
	pre.SetRow(0, zb.RawVector().Data)
	pre.Slice(1, r+1, 0, cols).(*mat.Dense).Copy(tb)
	matrix.Givens(pre, 0, 0)

	if cols == 1 {
		return &mat.Dense{}
	}

	return mat.DenseCopyOf(pre.Slice(1, r+1, 1, cols))
}
