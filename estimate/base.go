package estimate

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Base is a state estimate: a mean and its covariance
type Base struct {
	// val is estimated value
	val *mat.VecDense
	// cov is estimated covariance
	cov *mat.SymDense
}

// NewBase returns base estimate given val with zero covariance
func NewBase(val mat.Vector) (*Base, error) {
	if val == nil || val.Len() == 0 {
		return nil, fmt.Errorf("invalid estimate value: %v", val)
	}

	v := mat.VecDenseCopyOf(val)
	c := mat.NewSymDense(v.Len(), nil)

	return &Base{
		val: v,
		cov: c,
	}, nil
}

// NewBaseWithCov returns base estimate given value and covariance
func NewBaseWithCov(val mat.Vector, cov mat.Symmetric) (*Base, error) {
	if val == nil || cov == nil {
		return nil, fmt.Errorf("invalid estimate: value and covariance must be defined")
	}

	rv, rc := val.Len(), cov.SymmetricDim()
	if rv != rc {
		return nil, fmt.Errorf("invalid dimensions. Val: %d, Cov: %d x %d", rv, rc, rc)
	}

	v := mat.VecDenseCopyOf(val)
	c := mat.NewSymDense(rc, nil)
	c.CopySym(cov)

	return &Base{
		val: v,
		cov: c,
	}, nil
}

// Val returns estimated value
func (b *Base) Val() mat.Vector {
	return mat.VecDenseCopyOf(b.val)
}

// Cov returns covariance estimate
func (b *Base) Cov() mat.Symmetric {
	cov := mat.NewSymDense(b.cov.SymmetricDim(), nil)
	cov.CopySym(b.cov)

	return cov
}

// Std returns standard deviations of the estimated value.
// Negative variances caused by rounding are reported as zero.
func (b *Base) Std() []float64 {
	n := b.cov.SymmetricDim()
	std := make([]float64, n)
	for i := 0; i < n; i++ {
		if v := b.cov.At(i, i); v > 0 {
			std[i] = math.Sqrt(v)
		}
	}

	return std
}

// String implements the Stringer interface.
func (b *Base) String() string {
	return fmt.Sprintf("Estimate{\nVal=%v\nCov=%v\n}", mat.Formatted(b.val.T(), mat.Prefix("    "), mat.Squeeze()),
		mat.Formatted(b.cov, mat.Prefix("    "), mat.Squeeze()))
}
