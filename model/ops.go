package model

import (
	ssf "github.com/jdemetra/jdemetra-core-sub001"
	"github.com/jdemetra/jdemetra-core-sub001/matrix"
	"gonum.org/v1/gonum/mat"
)

// ZX returns Z(pos)*x.
// It uses the model implementation when m implements ssf.ZXer.
func ZX(m ssf.Model, pos int, x mat.Vector) float64 {
	if zx, ok := m.(ssf.ZXer); ok {
		return zx.ZX(pos, x)
	}

	z := mat.NewVecDense(m.StateDim(), nil)
	m.Z(pos, z)

	return mat.Dot(z, x)
}

// ZM stores Z(pos)*M[:,j] into x[j] for every column j of M.
func ZM(m ssf.Model, pos int, M mat.Matrix, x *mat.VecDense) {
	if zm, ok := m.(ssf.ZMer); ok {
		zm.ZM(pos, M, x)
		return
	}

	z := mat.NewVecDense(m.StateDim(), nil)
	m.Z(pos, z)
	x.MulVec(M.T(), z)
}

// ZVZ returns Z(pos)*V*Z(pos)'.
func ZVZ(m ssf.Model, pos int, v mat.Symmetric) float64 {
	if zvz, ok := m.(ssf.ZVZer); ok {
		return zvz.ZVZ(pos, v)
	}

	z := mat.NewVecDense(m.StateDim(), nil)
	m.Z(pos, z)

	return mat.Inner(z, v, z)
}

// VpZdZ adds d*Z(pos)'*Z(pos) into v.
func VpZdZ(m ssf.Model, pos int, v *mat.SymDense, d float64) {
	if d == 0 {
		return
	}
	if vp, ok := m.(ssf.VpZdZer); ok {
		vp.VpZdZ(pos, v, d)
		return
	}

	z := mat.NewVecDense(m.StateDim(), nil)
	m.Z(pos, z)
	v.SymRankOne(v, d, z)
}

// TX replaces x with T(pos)*x.
func TX(m ssf.Model, pos int, x *mat.VecDense) {
	if tx, ok := m.(ssf.TXer); ok {
		tx.TX(pos, x)
		return
	}

	r := m.StateDim()
	t := mat.NewDense(r, r, nil)
	m.T(pos, t)
	tmp := mat.VecDenseCopyOf(x)
	x.MulVec(t, tmp)
}

// XT replaces x with x*T(pos), i.e. T(pos)'*x.
func XT(m ssf.Model, pos int, x *mat.VecDense) {
	if xt, ok := m.(ssf.XTer); ok {
		xt.XT(pos, x)
		return
	}

	r := m.StateDim()
	t := mat.NewDense(r, r, nil)
	m.T(pos, t)
	tmp := mat.VecDenseCopyOf(x)
	x.MulVec(t.T(), tmp)
}

// TVT replaces v with T(pos)*v*T(pos)'.
func TVT(m ssf.Model, pos int, v *mat.SymDense) {
	if tvt, ok := m.(ssf.TVTer); ok {
		tvt.TVT(pos, v)
		return
	}

	r := m.StateDim()
	t := mat.NewDense(r, r, nil)
	m.T(pos, t)
	tvt := &mat.Dense{}
	tvt.Product(t, v, t.T())
	matrix.Symmetrize(v, tvt)
}

// Loading stores the dense noise loading R(pos)*W(pos) into g [StateDim x ResCount].
// g must be zeroed by the caller.
func Loading(m ssf.Model, pos int, g *mat.Dense) {
	nres, ncount := m.ResDim(), m.ResCount()
	if nres == 0 || ncount == 0 {
		return
	}

	var w mat.Matrix
	if m.HasW() {
		wd := mat.NewDense(nres, ncount, nil)
		m.W(pos, wd)
		w = wd
	}

	var sel []int
	if m.HasR() {
		sel = m.R(pos)
	}

	for i := 0; i < nres; i++ {
		row := i
		if sel != nil {
			row = sel[i]
		}
		if w == nil {
			g.Set(row, i, g.At(row, i)+1)
			continue
		}
		for j := 0; j < ncount; j++ {
			g.Set(row, j, g.At(row, j)+w.At(i, j))
		}
	}
}

// FullQ adds R(pos)*W(pos)*Q(pos)*W(pos)'*R(pos)' into v [StateDim x StateDim].
func FullQ(m ssf.Model, pos int, v *mat.SymDense) {
	if fq, ok := m.(ssf.FullQer); ok {
		fq.FullQ(pos, v)
		return
	}

	r, ncount := m.StateDim(), m.ResCount()
	if ncount == 0 {
		return
	}

	q := mat.NewSymDense(ncount, nil)
	m.Q(pos, q)
	g := mat.NewDense(r, ncount, nil)
	Loading(m, pos, g)

	gqg := &mat.Dense{}
	gqg.Product(g, q, g.T())
	full := mat.NewSymDense(r, nil)
	matrix.Symmetrize(full, gqg)
	v.AddSym(v, full)
}

// Pi0 adds the diffuse initial covariance B*B' into v
func Pi0(m ssf.Model, v *mat.SymDense) {
	d := m.DiffuseDim()
	if d == 0 {
		return
	}

	b := mat.NewDense(m.StateDim(), d, nil)
	m.DiffuseConstraints(b)
	bb := mat.NewSymDense(m.StateDim(), nil)
	bb.SymOuterK(1, b)
	v.AddSym(v, bb)
}

// IsDiffuse reports whether m has a diffuse initial part
func IsDiffuse(m ssf.Model) bool {
	return m.DiffuseDim() > 0
}
