package noise

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Zero is degenerate noise whose samples are always zero vectors.
// Zero of size 0 has empty samples and stands for models without transition noise.
type Zero struct {
	size int
}

// NewZero creates new Zero noise of dimension size.
// It returns error if size is negative.
func NewZero(size int) (*Zero, error) {
	if size < 0 {
		return nil, fmt.Errorf("invalid noise dimension: %d", size)
	}

	return &Zero{size: size}, nil
}

// Sample returns a zero vector; an empty vector if the noise has no dimension
func (e *Zero) Sample() mat.Vector {
	if e.size == 0 {
		return &mat.VecDense{}
	}

	return mat.NewVecDense(e.size, nil)
}

// Cov returns a zero covariance matrix; an empty matrix if the noise has no dimension
func (e *Zero) Cov() mat.Symmetric {
	if e.size == 0 {
		return &mat.SymDense{}
	}

	return mat.NewSymDense(e.size, nil)
}

// Mean returns zero mean
func (e *Zero) Mean() []float64 {
	return make([]float64, e.size)
}

// Reset does nothing: Zero noise has no random source
func (e *Zero) Reset() {}

// String implements the Stringer interface.
func (e *Zero) String() string {
	if e.size == 0 {
		return "Zero{}"
	}

	return fmt.Sprintf("Zero{\nMean=%v\nCov=%v\n}", e.Mean(), mat.Formatted(e.Cov(), mat.Prefix("    "), mat.Squeeze()))
}
