package results

import (
	"fmt"

	"github.com/jdemetra/jdemetra-core-sub001/estimate"
	"gonum.org/v1/gonum/mat"
)

// Smoothing stores smoothed states and their covariances
type Smoothing struct {
	start int
	n     int
	a     *VectorStore
	p     *SymStore
}

// NewSmoothing creates new Smoothing for states of dimension dim.
// Covariances are only retained if cov is true.
func NewSmoothing(dim int, cov bool) *Smoothing {
	s := &Smoothing{a: NewVectorStore(dim)}
	if cov {
		s.p = NewSymStore(dim)
	}

	return s
}

// Save stores smoothed state a and covariance p at pos; p may be nil
func (s *Smoothing) Save(pos int, a mat.Vector, p mat.Symmetric) {
	s.a.Save(pos, a)
	if s.p != nil && p != nil {
		s.p.Save(pos, p)
	}
	if pos+1 > s.n {
		s.n = pos + 1
	}
}

// SetStart records the first smoothed position
func (s *Smoothing) SetStart(pos int) {
	s.start = pos
}

// Start returns the first smoothed position
func (s *Smoothing) Start() int {
	return s.start
}

// Len returns the number of covered positions
func (s *Smoothing) Len() int {
	return s.n
}

// A returns smoothed state at pos or nil if pos was not smoothed
func (s *Smoothing) A(pos int) *mat.VecDense {
	if pos < s.start {
		return nil
	}

	return s.a.At(pos)
}

// P returns smoothed covariance at pos or nil if not retained
func (s *Smoothing) P(pos int) *mat.SymDense {
	if s.p == nil || pos < s.start {
		return nil
	}

	return s.p.At(pos)
}

// Estimate returns smoothed estimate at pos.
// It returns error if pos was not smoothed or covariances were not retained.
func (s *Smoothing) Estimate(pos int) (*estimate.Base, error) {
	if pos < s.start || pos >= s.n {
		return nil, fmt.Errorf("invalid position: %d", pos)
	}
	if s.p == nil {
		return nil, fmt.Errorf("covariances are not retained")
	}

	return estimate.NewBaseWithCov(s.a.At(pos), s.p.At(pos))
}

// Component returns the smoothed values of state element i and their variances.
// Variances are nil if covariances were not retained.
func (s *Smoothing) Component(i int) ([]float64, []float64) {
	vals := s.a.Item(i)
	if s.p == nil {
		return vals, nil
	}

	return vals, s.p.Diag(i)
}
