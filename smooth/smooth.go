package smooth

import (
	"fmt"
	"math"

	ssf "github.com/jdemetra/jdemetra-core-sub001"
	"github.com/jdemetra/jdemetra-core-sub001/matrix"
	"github.com/jdemetra/jdemetra-core-sub001/model"
	"gonum.org/v1/gonum/mat"
)

// Filtered is the stored output of a forward filter run consumed by the backward smoothers.
// It is implemented by results.Filtering.
type Filtered interface {
	// Model returns the filtered model
	Model() ssf.Model
	// Len returns the number of filtered positions
	Len() int
	// DiffuseEnd returns the first position after the diffuse phase
	DiffuseEnd() int
	// A returns predicted state a(t|t-1)
	A(pos int) *mat.VecDense
	// P returns predicted covariance P(t|t-1)
	P(pos int) *mat.SymDense
	// C returns unscaled gain T*P*Z'
	C(pos int) *mat.VecDense
	// E returns prediction error; NaN if missing
	E(pos int) float64
	// F returns prediction error variance
	F(pos int) float64
	// Pi returns diffuse covariance during the diffuse phase
	Pi(pos int) *mat.SymDense
	// Ci returns unscaled diffuse gain during the diffuse phase
	Ci(pos int) *mat.VecDense
	// Fi returns diffuse prediction error variance during the diffuse phase
	Fi(pos int) float64
}

// Check returns error if src can not be smoothed with model m
func Check(m ssf.Model, src Filtered) error {
	if m == nil {
		return fmt.Errorf("invalid model: %v", m)
	}
	if src == nil {
		return fmt.Errorf("invalid filtering results: %v", src)
	}

	n := src.Len()
	if n == 0 {
		return fmt.Errorf("empty filtering results")
	}
	if fm := src.Model(); fm != nil && fm.StateDim() != m.StateDim() {
		return fmt.Errorf("invalid filtering results dimension: %d != %d", fm.StateDim(), m.StateDim())
	}
	if src.P(n-1) == nil || src.C(n-1) == nil {
		return fmt.Errorf("filtering results must retain covariances and gains")
	}
	if end := src.DiffuseEnd(); end > 0 && (src.Pi(end-1) == nil || src.Ci(end-1) == nil) {
		return fmt.Errorf("filtering results must retain diffuse covariances and gains")
	}

	return nil
}

// Recursion is the backward recursion of the smoothing scores r and of their variances N.
// During the diffuse phase the scores are split into a proper part (R0, N0) and the
// diffuse parts (R1, N1, N2). N1 is not symmetric.
type Recursion struct {
	src Filtered
	ws  *model.Workspace
	cov bool
	// R0 is the proper score
	R0 *mat.VecDense
	// R1 is the diffuse score
	R1 *mat.VecDense
	// N0 is the variance of R0
	N0 *mat.SymDense
	// N1 is the diffuse cross term
	N1 *mat.Dense
	// N2 is the diffuse variance term
	N2 *mat.SymDense

	v, w *mat.VecDense
}

// NewRecursion creates new Recursion of model m over src, starting from zero scores.
// Variances are only computed if cov is true.
func NewRecursion(m ssf.Model, src Filtered, cov bool) *Recursion {
	r := m.StateDim()
	rec := &Recursion{
		src: src,
		ws:  model.NewWorkspace(m),
		cov: cov,
		R0:  mat.NewVecDense(r, nil),
		R1:  mat.NewVecDense(r, nil),
		v:   mat.NewVecDense(r, nil),
		w:   mat.NewVecDense(r, nil),
	}
	if cov {
		rec.N0 = mat.NewSymDense(r, nil)
		rec.N1 = mat.NewDense(r, r, nil)
		rec.N2 = mat.NewSymDense(r, nil)
	}

	return rec
}

// Workspace returns the model workspace used by the recursion
func (rec *Recursion) Workspace() *model.Workspace {
	return rec.ws
}

// Covariance reports whether variances are computed
func (rec *Recursion) Covariance() bool {
	return rec.cov
}

// Informative reports whether the observation at pos carries information
func (rec *Recursion) Informative(pos int) bool {
	return !math.IsNaN(rec.src.E(pos)) && (rec.src.F(pos) > 0 || rec.src.Fi(pos) > 0)
}

// Step transforms the scores at pos into the scores at pos-1
func (rec *Recursion) Step(pos int) {
	rec.ws.Move(pos)

	if pos >= rec.src.DiffuseEnd() {
		if rec.Informative(pos) {
			rec.informative(rec.R0, rec.N0, rec.src.E(pos), rec.src.F(pos), rec.src.C(pos))
		} else {
			rec.propagate(rec.R0, rec.N0)
		}
		return
	}

	switch {
	case !rec.Informative(pos):
		rec.propagate(rec.R0, rec.N0)
		rec.propagate(rec.R1, rec.N2)
		if rec.cov {
			rec.transform(rec.N1, rec.ws.T())
		}
	case rec.src.Fi(pos) > 0:
		rec.diffuse(pos)
	default:
		f, c := rec.src.F(pos), rec.src.C(pos)
		if rec.cov {
			// N1 = T'*N1*L with L = T - C*Z/f
			l := mat.DenseCopyOf(rec.ws.T())
			l.RankOne(l, -1/f, c, rec.ws.Z())
			rec.transform(rec.N1, l)
		}
		rec.informative(rec.R0, rec.N0, rec.src.E(pos), f, c)
		rec.propagate(rec.R1, rec.N2)
	}
}

// propagate replaces r with T'*r and n with T'*n*T
func (rec *Recursion) propagate(r *mat.VecDense, n *mat.SymDense) {
	rec.ws.XT(r)
	if rec.cov {
		rec.ws.TtVT(n)
	}
}

// transform replaces n1 with T'*n1*l
func (rec *Recursion) transform(n1 *mat.Dense, l mat.Matrix) {
	var tmp mat.Dense
	tmp.Product(rec.ws.T().T(), n1, l)
	n1.Copy(&tmp)
}

// informative applies L = T - C*Z/f:
//
//	r = Z'*e/f + L'*r
//	n = Z'*Z/f + L'*n*L
func (rec *Recursion) informative(r *mat.VecDense, n *mat.SymDense, e, f float64, c *mat.VecDense) {
	z := rec.ws.Z()
	cr := mat.Dot(c, r)
	rec.ws.XT(r)
	r.AddScaledVec(r, (e-cr)/f, z)

	if !rec.cov {
		return
	}

	rec.v.MulVec(n, c)
	cnc := mat.Dot(c, rec.v)
	rec.w.CopyVec(rec.v)
	rec.ws.XT(rec.w)
	rec.ws.TtVT(n)
	n.RankTwo(n, -1/f, rec.w, z)
	n.SymRankOne(n, cnc/(f*f)+1/f, z)
}

// diffuse applies the diffuse step with K0 = Ci/fi, K1 = (C - Ci*f/fi)/fi,
// L0 = T - K0*Z and L1 = -K1*Z.
func (rec *Recursion) diffuse(pos int) {
	e, f, fi := rec.src.E(pos), rec.src.F(pos), rec.src.Fi(pos)
	c, ci := rec.src.C(pos), rec.src.Ci(pos)
	z := rec.ws.Z()
	r := z.Len()

	k0 := mat.NewVecDense(r, nil)
	k0.ScaleVec(1/fi, ci)
	k1 := mat.NewVecDense(r, nil)
	k1.AddScaledVec(c, -f/fi, ci)
	k1.ScaleVec(1/fi, k1)

	l0 := mat.DenseCopyOf(rec.ws.T())
	l0.RankOne(l0, -1, k0, z)
	l1 := mat.NewDense(r, r, nil)
	l1.RankOne(l1, -1, k1, z)

	// r1 = Z'*e/fi + L0'*r1 + L1'*r0
	r1 := mat.NewVecDense(r, nil)
	r1.MulVec(l0.T(), rec.R1)
	rec.v.MulVec(l1.T(), rec.R0)
	r1.AddVec(r1, rec.v)
	r1.AddScaledVec(r1, e/fi, z)
	// r0 = L0'*r0
	rec.v.MulVec(l0.T(), rec.R0)
	rec.R0.CopyVec(rec.v)
	rec.R1.CopyVec(r1)

	if !rec.cov {
		return
	}

	var n0, n1, n2, tmp mat.Dense
	zz := mat.NewDense(r, r, nil)
	zz.Outer(1, z, z)

	// N2 = -Z'*Z*f/fi^2 + L0'*N2*L0 + L0'*N1*L1 + (L0'*N1*L1)' + L1'*N0*L1
	n2.Product(l0.T(), rec.N2, l0)
	tmp.Product(l0.T(), rec.N1, l1)
	n2.Add(&n2, &tmp)
	n2.Add(&n2, tmp.T())
	tmp.Product(l1.T(), rec.N0, l1)
	n2.Add(&n2, &tmp)
	tmp.Scale(-f/(fi*fi), zz)
	n2.Add(&n2, &tmp)

	// N1 = Z'*Z/fi + L0'*N1*L0 + L1'*N0*L0
	n1.Product(l0.T(), rec.N1, l0)
	tmp.Product(l1.T(), rec.N0, l0)
	n1.Add(&n1, &tmp)
	tmp.Scale(1/fi, zz)
	n1.Add(&n1, &tmp)

	// N0 = L0'*N0*L0
	n0.Product(l0.T(), rec.N0, l0)

	matrix.Symmetrize(rec.N0, &n0)
	matrix.Symmetrize(rec.N2, &n2)
	rec.N1.Copy(&n1)
}
