package data

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Series is a sequence of univariate observations. Missing values are NaN.
type Series struct {
	y  []float64
	a0 *mat.VecDense
}

// NewSeries creates new Series from the values in y and returns it.
// The values are copied.
func NewSeries(y []float64) *Series {
	v := make([]float64, len(y))
	copy(v, y)

	return &Series{y: v}
}

// NewSeriesWithState creates new Series with known initial state a0 and returns it.
// It returns error if a0 is nil or empty.
func NewSeriesWithState(y []float64, a0 mat.Vector) (*Series, error) {
	if a0 == nil || a0.Len() == 0 {
		return nil, fmt.Errorf("invalid initial state: %v", a0)
	}

	s := NewSeries(y)
	s.a0 = mat.VecDenseCopyOf(a0)

	return s, nil
}

// Len returns number of observations
func (s *Series) Len() int {
	return len(s.y)
}

// Get returns observation at pos
func (s *Series) Get(pos int) float64 {
	return s.y[pos]
}

// IsMissing reports whether the observation at pos is missing
func (s *Series) IsMissing(pos int) bool {
	return math.IsNaN(s.y[pos])
}

// InitialState returns the known initial state or nil
func (s *Series) InitialState() mat.Vector {
	if s.a0 == nil {
		return nil
	}

	return s.a0
}

// Values returns a copy of the observations
func (s *Series) Values() []float64 {
	v := make([]float64, len(s.y))
	copy(v, s.y)

	return v
}

// MissingCount returns number of missing observations
func (s *Series) MissingCount() int {
	n := 0
	for _, v := range s.y {
		if math.IsNaN(v) {
			n++
		}
	}

	return n
}

// SetMissing marks the observations at the given positions as missing.
// It returns error if any position is out of range.
func (s *Series) SetMissing(pos ...int) error {
	for _, p := range pos {
		if p < 0 || p >= len(s.y) {
			return fmt.Errorf("invalid position: %d", p)
		}
		s.y[p] = math.NaN()
	}

	return nil
}
