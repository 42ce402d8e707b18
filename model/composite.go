package model

import (
	"fmt"

	ssf "github.com/jdemetra/jdemetra-core-sub001"
	"gonum.org/v1/gonum/mat"
)

// Composite sums the measurements of independent models sharing no state:
//
//	y[t] = Z1*a1[t] + Z2*a2[t] + ... + e[t],  var(e) = H1 + H2 + ...
//
// The state is the concatenation of the sub-model states and every operator is block diagonal.
type Composite struct {
	models []ssf.Model
	// offsets of the sub-model states
	off []int
	// offsets of the sub-model innovations
	noff []int
	// offsets of the sub-model diffuse constraints
	doff []int
}

// NewComposite creates new Composite model and returns it.
// It returns error if no model is given.
func NewComposite(models ...ssf.Model) (*Composite, error) {
	if len(models) == 0 {
		return nil, fmt.Errorf("invalid composite model: no sub-model given")
	}

	c := &Composite{
		models: make([]ssf.Model, len(models)),
		off:    make([]int, len(models)+1),
		noff:   make([]int, len(models)+1),
		doff:   make([]int, len(models)+1),
	}
	for i, m := range models {
		if m == nil {
			return nil, fmt.Errorf("invalid composite model: sub-model %d is nil", i)
		}
		c.models[i] = m
		c.off[i+1] = c.off[i] + m.StateDim()
		c.noff[i+1] = c.noff[i] + m.ResCount()
		c.doff[i+1] = c.doff[i] + m.DiffuseDim()
	}

	return c, nil
}

// Models returns the sub-models
func (c *Composite) Models() []ssf.Model {
	return c.models
}

// Offset returns the position of the state of sub-model i in the composite state
func (c *Composite) Offset(i int) int {
	return c.off[i]
}

// StateDim returns the sum of the sub-model state dimensions
func (c *Composite) StateDim() int {
	return c.off[len(c.models)]
}

// IsTimeInvariant reports whether all the sub-models are time invariant
func (c *Composite) IsTimeInvariant() bool {
	for _, m := range c.models {
		if !m.IsTimeInvariant() {
			return false
		}
	}

	return true
}

// IsMeasurementTimeInvariant reports whether all the sub-model measurements are time invariant
func (c *Composite) IsMeasurementTimeInvariant() bool {
	for _, m := range c.models {
		if !m.IsMeasurementTimeInvariant() {
			return false
		}
	}

	return true
}

// IsTransitionTimeInvariant reports whether all the sub-model transitions are time invariant
func (c *Composite) IsTransitionTimeInvariant() bool {
	for _, m := range c.models {
		if !m.IsTransitionTimeInvariant() {
			return false
		}
	}

	return true
}

// IsTransitionResidualTimeInvariant reports whether all the sub-model residuals are time invariant
func (c *Composite) IsTransitionResidualTimeInvariant() bool {
	for _, m := range c.models {
		if !m.IsTransitionResidualTimeInvariant() {
			return false
		}
	}

	return true
}

// Z adds [Z1 Z2 ...] into z
func (c *Composite) Z(pos int, z *mat.VecDense) {
	for i, m := range c.models {
		m.Z(pos, z.SliceVec(c.off[i], c.off[i+1]).(*mat.VecDense))
	}
}

// ZX returns the sum of the sub-model measurements
func (c *Composite) ZX(pos int, x mat.Vector) float64 {
	s := 0.0
	for i, m := range c.models {
		s += ZX(m, pos, subVector(x, c.off[i], c.off[i+1]))
	}

	return s
}

// H returns the sum of the sub-model measurement variances
func (c *Composite) H(pos int) float64 {
	h := 0.0
	for _, m := range c.models {
		h += m.H(pos)
	}

	return h
}

// T adds blockdiag(T1, T2, ...) into t
func (c *Composite) T(pos int, t *mat.Dense) {
	for i, m := range c.models {
		m.T(pos, t.Slice(c.off[i], c.off[i+1], c.off[i], c.off[i+1]).(*mat.Dense))
	}
}

// TX applies every sub-model transition to its own block of x
func (c *Composite) TX(pos int, x *mat.VecDense) {
	for i, m := range c.models {
		TX(m, pos, x.SliceVec(c.off[i], c.off[i+1]).(*mat.VecDense))
	}
}

// XT applies every transposed sub-model transition to its own block of x
func (c *Composite) XT(pos int, x *mat.VecDense) {
	for i, m := range c.models {
		XT(m, pos, x.SliceVec(c.off[i], c.off[i+1]).(*mat.VecDense))
	}
}

// ResDim returns the state dimension: the noise is given by its full loading
func (c *Composite) ResDim() int {
	return c.StateDim()
}

// ResCount returns the sum of the sub-model noise counts
func (c *Composite) ResCount() int {
	return c.noff[len(c.models)]
}

// Q adds blockdiag(Q1, Q2, ...) into q
func (c *Composite) Q(pos int, q *mat.SymDense) {
	for i, m := range c.models {
		n := m.ResCount()
		if n == 0 {
			continue
		}
		mq := mat.NewSymDense(n, nil)
		m.Q(pos, mq)
		addSymBlock(q, c.noff[i], mq)
	}
}

// HasR returns false
func (c *Composite) HasR() bool { return false }

// R returns nil
func (c *Composite) R(pos int) []int { return nil }

// HasW returns true
func (c *Composite) HasW() bool { return true }

// W adds blockdiag(R1*W1, R2*W2, ...) into w
func (c *Composite) W(pos int, w *mat.Dense) {
	for i, m := range c.models {
		if m.ResCount() == 0 {
			continue
		}
		Loading(m, pos, w.Slice(c.off[i], c.off[i+1], c.noff[i], c.noff[i+1]).(*mat.Dense))
	}
}

// Pf0 adds blockdiag(Pf0_1, Pf0_2, ...) into p
func (c *Composite) Pf0(p *mat.SymDense) {
	for i, m := range c.models {
		mp := mat.NewSymDense(m.StateDim(), nil)
		m.Pf0(mp)
		addSymBlock(p, c.off[i], mp)
	}
}

// DiffuseDim returns the sum of the sub-model diffuse dimensions
func (c *Composite) DiffuseDim() int {
	return c.doff[len(c.models)]
}

// DiffuseConstraints adds blockdiag(B1, B2, ...) into b
func (c *Composite) DiffuseConstraints(b *mat.Dense) {
	for i, m := range c.models {
		if m.DiffuseDim() == 0 {
			continue
		}
		m.DiffuseConstraints(b.Slice(c.off[i], c.off[i+1], c.doff[i], c.doff[i+1]).(*mat.Dense))
	}
}
