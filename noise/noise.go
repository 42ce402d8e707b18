package noise

import (
	"fmt"

	"github.com/jdemetra/jdemetra-core-sub001/matrix"
	"gonum.org/v1/gonum/mat"
)

// Noise is a source of random vectors with known mean and covariance
type Noise interface {
	// Sample returns a sample of the noise
	Sample() mat.Vector
	// Cov returns noise covariance
	Cov() mat.Symmetric
	// Mean returns noise mean
	Mean() []float64
	// Reset restarts the noise sequence
	Reset()
}

// New creates zero-mean noise with covariance cov drawing its samples from a source seeded with seed.
// It returns Zero noise if cov is nil, empty or has no non-zero element.
func New(cov mat.Symmetric, seed uint64) (Noise, error) {
	if cov == nil || cov.SymmetricDim() == 0 {
		return NewZero(0)
	}

	n := cov.SymmetricDim()
	if matrix.IsZero(cov, 0) {
		return NewZero(n)
	}

	g, err := NewGaussian(make([]float64, n), cov, seed)
	if err != nil {
		return nil, fmt.Errorf("failed to create noise: %w", err)
	}

	return g, nil
}
