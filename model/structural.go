package model

import (
	"fmt"

	"github.com/jdemetra/jdemetra-core-sub001/matrix"
	gomatrix "github.com/milosgajdos/matrix"
	"gonum.org/v1/gonum/mat"
)

// NewLocalLevel creates a random walk plus noise model:
//
//	y[t] = a[t] + e[t],   var(e) = h
//	a[t+1] = a[t] + u[t], var(u) = q
//
// The initial level is diffuse.
func NewLocalLevel(q, h float64) (*Base, error) {
	if q < 0 || h < 0 {
		return nil, fmt.Errorf("invalid variances: q=%g, h=%g", q, h)
	}

	return NewBase(System{
		T: mat.NewDense(1, 1, []float64{1}),
		Z: mat.NewVecDense(1, []float64{1}),
		H: h,
		Q: mat.NewSymDense(1, []float64{q}),
		B: mat.NewDense(1, 1, []float64{1}),
	})
}

// NewLocalLinearTrend creates a local linear trend model with level variance lv,
// slope variance sv and measurement noise variance h. Both states are diffuse.
func NewLocalLinearTrend(lv, sv, h float64) (*Base, error) {
	if lv < 0 || sv < 0 || h < 0 {
		return nil, fmt.Errorf("invalid variances: lv=%g, sv=%g, h=%g", lv, sv, h)
	}

	b, err := gomatrix.NewDenseValIdentity(2, 1.0)
	if err != nil {
		return nil, err
	}

	return NewBase(System{
		T: mat.NewDense(2, 2, []float64{1, 1, 0, 1}),
		Z: mat.NewVecDense(2, []float64{1, 0}),
		H: h,
		Q: mat.NewSymDense(2, []float64{lv, 0, 0, sv}),
		B: b,
	})
}

// NewAR creates a stationary autoregressive model in companion form
//
//	a[t+1] = [phi; I 0]*a[t] + e1*u[t], var(u) = v
//
// observed with noise variance h. The initial covariance is the unconditional one.
// It returns error if the polynomial is not stationary.
func NewAR(phi []float64, v, h float64) (*Base, error) {
	p := len(phi)
	if p == 0 {
		return nil, fmt.Errorf("invalid autoregressive order: %d", p)
	}
	if v < 0 || h < 0 {
		return nil, fmt.Errorf("invalid variances: v=%g, h=%g", v, h)
	}

	t := mat.NewDense(p, p, nil)
	t.SetRow(0, phi)
	for i := 1; i < p; i++ {
		t.Set(i, i-1, 1)
	}

	z := mat.NewVecDense(p, nil)
	z.SetVec(0, 1)

	full := mat.NewSymDense(p, nil)
	full.SetSym(0, 0, v)
	pf0, err := matrix.Lyapunov(t, full)
	if err != nil {
		return nil, fmt.Errorf("non stationary autoregressive polynomial: %w", err)
	}

	return NewBase(System{
		T:   t,
		Z:   z,
		H:   h,
		Q:   mat.NewSymDense(1, []float64{v}),
		R:   []int{0},
		Pf0: pf0,
	})
}

// Seasonal is a dummy seasonal model: the sum of period consecutive
// seasonal effects is a white noise with variance V.
// The state holds the last period-1 effects and is fully diffuse.
type Seasonal struct {
	period int
	v      float64
	h      float64
}

// NewSeasonal creates new dummy seasonal model and returns it.
// It returns error if period is smaller than 2 or if any variance is negative.
func NewSeasonal(period int, v, h float64) (*Seasonal, error) {
	if period < 2 {
		return nil, fmt.Errorf("invalid seasonal period: %d", period)
	}
	if v < 0 || h < 0 {
		return nil, fmt.Errorf("invalid variances: v=%g, h=%g", v, h)
	}

	return &Seasonal{period: period, v: v, h: h}, nil
}

// StateDim returns period-1
func (s *Seasonal) StateDim() int { return s.period - 1 }

// IsTimeInvariant returns true
func (s *Seasonal) IsTimeInvariant() bool { return true }

// IsMeasurementTimeInvariant returns true
func (s *Seasonal) IsMeasurementTimeInvariant() bool { return true }

// IsTransitionTimeInvariant returns true
func (s *Seasonal) IsTransitionTimeInvariant() bool { return true }

// IsTransitionResidualTimeInvariant returns true
func (s *Seasonal) IsTransitionResidualTimeInvariant() bool { return true }

// Z adds e1 into z
func (s *Seasonal) Z(pos int, z *mat.VecDense) {
	z.SetVec(0, z.AtVec(0)+1)
}

// ZX returns the current seasonal effect
func (s *Seasonal) ZX(pos int, x mat.Vector) float64 {
	return x.AtVec(0)
}

// H returns measurement noise variance
func (s *Seasonal) H(pos int) float64 { return s.h }

// T adds the seasonal transition into t
func (s *Seasonal) T(pos int, t *mat.Dense) {
	n := s.period - 1
	for j := 0; j < n; j++ {
		t.Set(0, j, t.At(0, j)-1)
	}
	for i := 1; i < n; i++ {
		t.Set(i, i-1, t.At(i, i-1)+1)
	}
}

// TX replaces x with T*x
func (s *Seasonal) TX(pos int, x *mat.VecDense) {
	n := s.period - 1
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += x.AtVec(i)
	}
	for i := n - 1; i > 0; i-- {
		x.SetVec(i, x.AtVec(i-1))
	}
	x.SetVec(0, -sum)
}

// XT replaces x with T'*x
func (s *Seasonal) XT(pos int, x *mat.VecDense) {
	n := s.period - 1
	x0 := x.AtVec(0)
	for i := 0; i < n-1; i++ {
		x.SetVec(i, x.AtVec(i+1)-x0)
	}
	x.SetVec(n-1, -x0)
}

// ResDim returns 1
func (s *Seasonal) ResDim() int { return 1 }

// ResCount returns 1
func (s *Seasonal) ResCount() int { return 1 }

// Q adds the seasonal variance into q
func (s *Seasonal) Q(pos int, q *mat.SymDense) {
	q.SetSym(0, 0, q.At(0, 0)+s.v)
}

// HasR returns true: only the current effect receives noise
func (s *Seasonal) HasR() bool { return true }

// R returns the noise selection
func (s *Seasonal) R(pos int) []int { return []int{0} }

// HasW returns false
func (s *Seasonal) HasW() bool { return false }

// W does nothing
func (s *Seasonal) W(pos int, w *mat.Dense) {}

// Pf0 does nothing: the initial state is fully diffuse
func (s *Seasonal) Pf0(p *mat.SymDense) {}

// DiffuseDim returns period-1
func (s *Seasonal) DiffuseDim() int { return s.period - 1 }

// DiffuseConstraints adds identity into b
func (s *Seasonal) DiffuseConstraints(b *mat.Dense) {
	for i := 0; i < s.period-1; i++ {
		b.Set(i, i, b.At(i, i)+1)
	}
}
