package results

import (
	"fmt"
	"math"

	ssf "github.com/jdemetra/jdemetra-core-sub001"
	"github.com/jdemetra/jdemetra-core-sub001/estimate"
	"github.com/jdemetra/jdemetra-core-sub001/model"
	"gonum.org/v1/gonum/mat"
)

// Options selects the quantities retained by Filtering on top of the
// predicted states, prediction errors and variances which are always kept.
type Options struct {
	// Covariance retains predicted covariances P (and Pi in the diffuse phase)
	Covariance bool
	// Gain retains unscaled gains C (and Ci in the diffuse phase)
	Gain bool
	// Factor retains covariance factors S when the filter provides them
	Factor bool
}

// All retains every quantity; this is what smoothers require
var All = Options{Covariance: true, Gain: true, Factor: true}

// Filtering stores the output of a filter run position by position.
// It implements ssf.DiffuseSink.
type Filtering struct {
	opts Options
	m    ssf.Model
	n    int
	a    *VectorStore
	p    *SymStore
	c    *VectorStore
	s    *DenseStore
	e    *ScalarStore
	f    *ScalarStore
	// diffuse phase
	pi  *SymStore
	ci  *VectorStore
	fi  *ScalarStore
	end int
}

// NewFiltering creates new Filtering with retention options opts
func NewFiltering(opts Options) *Filtering {
	return &Filtering{opts: opts}
}

// Options returns retention options
func (r *Filtering) Options() Options {
	return r.opts
}

// Prepare allocates the stores for model m
func (r *Filtering) Prepare(m ssf.Model, d ssf.Data) error {
	if m == nil {
		return fmt.Errorf("invalid model: %v", m)
	}

	dim := m.StateDim()
	r.m = m
	r.n = 0
	r.end = 0
	r.a = NewVectorStore(dim)
	r.e = NewScalarStore()
	r.f = NewScalarStore()
	r.fi = NewScalarStore()
	if r.opts.Covariance {
		r.p = NewSymStore(dim)
		r.pi = NewSymStore(dim)
	}
	if r.opts.Gain {
		r.c = NewVectorStore(dim)
		r.ci = NewVectorStore(dim)
	}
	if r.opts.Factor {
		r.s = NewDenseStore(dim, dim)
	}

	return nil
}

// Save stores state st at pos
func (r *Filtering) Save(pos int, st *ssf.State) error {
	if r.a == nil {
		return fmt.Errorf("filtering results are not prepared")
	}

	r.a.Save(pos, st.A)
	r.e.Save(pos, st.E)
	r.f.Save(pos, st.F)
	if r.p != nil && st.P != nil {
		r.p.Save(pos, st.P)
	}
	if r.c != nil && st.C != nil {
		r.c.Save(pos, st.C)
	}
	if r.s != nil && st.S != nil {
		r.s.Save(pos, st.S)
	}
	if pos+1 > r.n {
		r.n = pos + 1
	}

	return nil
}

// SaveDiffuse stores diffuse state st at pos
func (r *Filtering) SaveDiffuse(pos int, st *ssf.DiffuseState) error {
	if err := r.Save(pos, &st.State); err != nil {
		return err
	}

	r.fi.Save(pos, st.Fi)
	if r.pi != nil {
		r.pi.Save(pos, st.Pi)
	}
	if r.ci != nil {
		r.ci.Save(pos, st.Ci)
	}

	return nil
}

// CloseDiffuse records pos as the end of the diffuse phase
func (r *Filtering) CloseDiffuse(pos int) error {
	r.end = pos
	return nil
}

// Close does nothing
func (r *Filtering) Close() error {
	return nil
}

// Model returns the filtered model
func (r *Filtering) Model() ssf.Model {
	return r.m
}

// Len returns the number of stored positions
func (r *Filtering) Len() int {
	return r.n
}

// DiffuseEnd returns the first position after the diffuse phase; 0 without diffuse phase
func (r *Filtering) DiffuseEnd() int {
	return r.end
}

// A returns predicted state a(pos|pos-1)
func (r *Filtering) A(pos int) *mat.VecDense {
	return r.a.At(pos)
}

// P returns predicted covariance P(pos|pos-1) or nil if not retained
func (r *Filtering) P(pos int) *mat.SymDense {
	if r.p == nil {
		return nil
	}

	return r.p.At(pos)
}

// C returns unscaled gain T*P*Z' or nil if not retained
func (r *Filtering) C(pos int) *mat.VecDense {
	if r.c == nil {
		return nil
	}

	return r.c.At(pos)
}

// S returns covariance factor or nil if not retained
func (r *Filtering) S(pos int) *mat.Dense {
	if r.s == nil {
		return nil
	}

	return r.s.At(pos)
}

// E returns prediction error; NaN if the observation is missing
func (r *Filtering) E(pos int) float64 {
	return r.e.At(pos)
}

// F returns prediction error variance
func (r *Filtering) F(pos int) float64 {
	return r.f.At(pos)
}

// Pi returns diffuse covariance or nil if pos is not in the diffuse phase or not retained
func (r *Filtering) Pi(pos int) *mat.SymDense {
	if r.pi == nil || pos >= r.end {
		return nil
	}

	return r.pi.At(pos)
}

// Ci returns unscaled diffuse gain or nil if pos is not in the diffuse phase or not retained
func (r *Filtering) Ci(pos int) *mat.VecDense {
	if r.ci == nil || pos >= r.end {
		return nil
	}

	return r.ci.At(pos)
}

// Fi returns diffuse prediction error variance; 0 outside of the diffuse phase
func (r *Filtering) Fi(pos int) float64 {
	if pos >= r.end {
		return 0
	}

	return r.fi.At(pos)
}

// Errors returns prediction errors
func (r *Filtering) Errors() []float64 {
	return r.e.Values()
}

// Variances returns prediction error variances
func (r *Filtering) Variances() []float64 {
	return r.f.Values()
}

// StandardizedErrors returns prediction errors divided by their standard deviation.
// Missing observations and zero variance predictions are reported as NaN.
func (r *Filtering) StandardizedErrors() []float64 {
	e := r.e.Values()
	for pos := range e {
		f := r.f.At(pos)
		if pos < r.end && r.fi.At(pos) > 0 || f <= 0 {
			e[pos] = math.NaN()
			continue
		}
		e[pos] /= math.Sqrt(f)
	}

	return e
}

// Filtered returns the updated estimate a(pos|pos), P(pos|pos) of the proper part of the state.
// It returns error if the covariances were not retained or pos is out of range.
func (r *Filtering) Filtered(pos int) (*estimate.Base, error) {
	if pos < 0 || pos >= r.n {
		return nil, fmt.Errorf("invalid position: %d", pos)
	}
	if r.p == nil {
		return nil, fmt.Errorf("covariances are not retained")
	}

	a := mat.VecDenseCopyOf(r.a.At(pos))
	p := mat.NewSymDense(a.Len(), nil)
	p.CopySym(r.p.At(pos))

	e := r.e.At(pos)
	if math.IsNaN(e) {
		return estimate.NewBaseWithCov(a, p)
	}

	mf := mat.NewVecDense(a.Len(), nil)
	model.ZM(r.m, pos, p, mf)
	f := r.f.At(pos)

	fi := r.Fi(pos)
	if fi > 0 && r.pi != nil {
		mi := mat.NewVecDense(a.Len(), nil)
		model.ZM(r.m, pos, r.pi.At(pos), mi)
		a.AddScaledVec(a, e/fi, mi)
		// P - (Mi*Mf' + Mf*Mi')/fi + Mi*Mi'*f/fi^2
		p.RankTwo(p, -1/fi, mi, mf)
		p.SymRankOne(p, f/(fi*fi), mi)
		return estimate.NewBaseWithCov(a, p)
	}

	if f > 0 {
		a.AddScaledVec(a, e/f, mf)
		p.SymRankOne(p, -1/f, mf)
	}

	return estimate.NewBaseWithCov(a, p)
}
