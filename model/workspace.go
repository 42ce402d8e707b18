package model

import (
	ssf "github.com/jdemetra/jdemetra-core-sub001"
	"github.com/jdemetra/jdemetra-core-sub001/matrix"
	"gonum.org/v1/gonum/mat"
)

// Workspace caches operator buffers of a model across positions.
// Each partition (measurement, transition, residual) carries its own validity tag
// and is only refreshed on Move when the model does not flag it as time invariant.
// Workspace is owned by a single filter run and must not be shared between goroutines.
type Workspace struct {
	m   ssf.Model
	pos int
	// measurement partition
	z      *mat.VecDense
	h      float64
	zValid bool
	// transition partition
	t      *mat.Dense
	tValid bool
	// residual partition
	q      *mat.SymDense
	full   *mat.SymDense
	g      *mat.Dense
	qValid bool
	// scratch buffers
	v   *mat.VecDense
	tmp *mat.Dense
}

// NewWorkspace creates new Workspace for model m positioned at 0
func NewWorkspace(m ssf.Model) *Workspace {
	r, nres := m.StateDim(), m.ResCount()
	w := &Workspace{
		m:    m,
		z:    mat.NewVecDense(r, nil),
		t:    mat.NewDense(r, r, nil),
		full: mat.NewSymDense(r, nil),
		v:    mat.NewVecDense(r, nil),
		tmp:  mat.NewDense(r, r, nil),
	}
	if nres > 0 {
		w.q = mat.NewSymDense(nres, nil)
		w.g = mat.NewDense(r, nres, nil)
	}
	w.Move(0)

	return w
}

// Model returns the cached model
func (w *Workspace) Model() ssf.Model {
	return w.m
}

// Pos returns the current position
func (w *Workspace) Pos() int {
	return w.pos
}

// Move positions the workspace at pos and refreshes the partitions which vary in time.
func (w *Workspace) Move(pos int) {
	w.pos = pos
	if !w.zValid || !w.m.IsMeasurementTimeInvariant() {
		w.z.Zero()
		w.m.Z(pos, w.z)
		w.h = w.m.H(pos)
		w.zValid = true
	}
	if !w.tValid || !w.m.IsTransitionTimeInvariant() {
		w.t.Zero()
		w.m.T(pos, w.t)
		w.tValid = true
	}
	if !w.qValid || !w.m.IsTransitionResidualTimeInvariant() {
		w.full.Zero()
		FullQ(w.m, pos, w.full)
		if w.q != nil {
			w.q.Zero()
			w.m.Q(pos, w.q)
			w.g.Zero()
			Loading(w.m, pos, w.g)
		}
		w.qValid = true
	}
}

// Z returns measurement loading at the current position
func (w *Workspace) Z() *mat.VecDense {
	return w.z
}

// H returns measurement noise variance at the current position
func (w *Workspace) H() float64 {
	return w.h
}

// T returns transition matrix at the current position
func (w *Workspace) T() *mat.Dense {
	return w.t
}

// Q returns innovation covariance at the current position; nil if the model has no noise
func (w *Workspace) Q() *mat.SymDense {
	return w.q
}

// Loading returns R*W at the current position; nil if the model has no noise
func (w *Workspace) Loading() *mat.Dense {
	return w.g
}

// FullQ returns R*W*Q*W'*R' at the current position
func (w *Workspace) FullQ() *mat.SymDense {
	return w.full
}

// ZX returns Z*x
func (w *Workspace) ZX(x mat.Vector) float64 {
	if zx, ok := w.m.(ssf.ZXer); ok {
		return zx.ZX(w.pos, x)
	}

	return mat.Dot(w.z, x)
}

// ZM stores Z*M[:,j] into x[j]
func (w *Workspace) ZM(M mat.Matrix, x *mat.VecDense) {
	if zm, ok := w.m.(ssf.ZMer); ok {
		zm.ZM(w.pos, M, x)
		return
	}

	x.MulVec(M.T(), w.z)
}

// ZVZ returns Z*V*Z'
func (w *Workspace) ZVZ(v mat.Symmetric) float64 {
	if zvz, ok := w.m.(ssf.ZVZer); ok {
		return zvz.ZVZ(w.pos, v)
	}

	return mat.Inner(w.z, v, w.z)
}

// VpZdZ adds d*Z'*Z into v
func (w *Workspace) VpZdZ(v *mat.SymDense, d float64) {
	if d == 0 {
		return
	}
	if vp, ok := w.m.(ssf.VpZdZer); ok {
		vp.VpZdZ(w.pos, v, d)
		return
	}

	v.SymRankOne(v, d, w.z)
}

// TX replaces x with T*x
func (w *Workspace) TX(x *mat.VecDense) {
	if tx, ok := w.m.(ssf.TXer); ok {
		tx.TX(w.pos, x)
		return
	}

	w.v.CopyVec(x)
	x.MulVec(w.t, w.v)
}

// XT replaces x with T'*x
func (w *Workspace) XT(x *mat.VecDense) {
	if xt, ok := w.m.(ssf.XTer); ok {
		xt.XT(w.pos, x)
		return
	}

	w.v.CopyVec(x)
	x.MulVec(w.t.T(), w.v)
}

// TM replaces every column of M with T*M[:,j]
func (w *Workspace) TM(M *mat.Dense) {
	_, cols := M.Dims()
	col := mat.NewVecDense(w.m.StateDim(), nil)
	for j := 0; j < cols; j++ {
		col.CopyVec(M.ColView(j))
		w.TX(col)
		M.SetCol(j, col.RawVector().Data)
	}
}

// TVT replaces v with T*V*T'
func (w *Workspace) TVT(v *mat.SymDense) {
	if tvt, ok := w.m.(ssf.TVTer); ok {
		tvt.TVT(w.pos, v)
		return
	}

	w.tmp.Product(w.t, v, w.t.T())
	matrix.Symmetrize(v, w.tmp)
}

// TtVT replaces v with T'*V*T
func (w *Workspace) TtVT(v *mat.SymDense) {
	w.tmp.Product(w.t.T(), v, w.t)
	matrix.Symmetrize(v, w.tmp)
}

// AddFullQ adds R*W*Q*W'*R' into v
func (w *Workspace) AddFullQ(v *mat.SymDense) {
	v.AddSym(v, w.full)
}
