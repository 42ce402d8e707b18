package model

import (
	"fmt"

	ssf "github.com/jdemetra/jdemetra-core-sub001"
	"gonum.org/v1/gonum/mat"
)

// Weighted scales the measurement loading of a model by a weight depending on position:
//
//	y[t] = w(t)*Z*a[t] + e[t]
//
// All other operators are delegated to the base model.
type Weighted struct {
	ssf.Model
	w func(pos int) float64
}

// NewWeighted creates new Weighted decorator of base and returns it.
// It returns error if either base or w is nil.
func NewWeighted(base ssf.Model, w func(pos int) float64) (*Weighted, error) {
	if base == nil || w == nil {
		return nil, fmt.Errorf("invalid weighted model: base and weights must be defined")
	}

	return &Weighted{Model: base, w: w}, nil
}

// Base returns the decorated model
func (m *Weighted) Base() ssf.Model {
	return m.Model
}

// Weight returns the weight at pos
func (m *Weighted) Weight(pos int) float64 {
	return m.w(pos)
}

// IsTimeInvariant returns false
func (m *Weighted) IsTimeInvariant() bool { return false }

// IsMeasurementTimeInvariant returns false
func (m *Weighted) IsMeasurementTimeInvariant() bool { return false }

// Z adds w(pos)*Z(pos) into z
func (m *Weighted) Z(pos int, z *mat.VecDense) {
	bz := mat.NewVecDense(m.Model.StateDim(), nil)
	m.Model.Z(pos, bz)
	z.AddScaledVec(z, m.w(pos), bz)
}

// ZX returns w(pos)*Z(pos)*x
func (m *Weighted) ZX(pos int, x mat.Vector) float64 {
	return m.w(pos) * ZX(m.Model, pos, x)
}

// ZVZ returns w(pos)^2*Z(pos)*V*Z(pos)'
func (m *Weighted) ZVZ(pos int, v mat.Symmetric) float64 {
	w := m.w(pos)
	return w * w * ZVZ(m.Model, pos, v)
}

// TX delegates to the base model
func (m *Weighted) TX(pos int, x *mat.VecDense) {
	TX(m.Model, pos, x)
}

// XT delegates to the base model
func (m *Weighted) XT(pos int, x *mat.VecDense) {
	XT(m.Model, pos, x)
}

// TVT delegates to the base model
func (m *Weighted) TVT(pos int, v *mat.SymDense) {
	TVT(m.Model, pos, v)
}

// FullQ delegates to the base model
func (m *Weighted) FullQ(pos int, v *mat.SymDense) {
	FullQ(m.Model, pos, v)
}
