package rand

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// CovFactor returns a matrix U*sqrt(S) such that cov = U*S*U'.
// It returns error if cov can not be factorized or if it is not positive semidefinite.
func CovFactor(cov mat.Symmetric) (*mat.Dense, error) {
	// Use SVD instead of Cholesky as Cholesky fails on singular covariances
	var svd mat.SVD
	ok := svd.Factorize(cov, mat.SVDFull)
	if !ok {
		return nil, fmt.Errorf("SVD factorization failed")
	}

	U := new(mat.Dense)
	svd.UTo(U)
	vals := svd.Values(nil)
	for i := range vals {
		vals[i] = math.Sqrt(vals[i])
	}
	U.Mul(U, mat.NewDiagDense(len(vals), vals))

	// SVD of a symmetric matrix with negative eigenvalues does not reproduce it
	var check mat.Dense
	check.Mul(U, U.T())
	if !mat.EqualApprox(&check, cov, 1e-8*math.Max(1, vals[0]*vals[0])) {
		return nil, fmt.Errorf("covariance is not positive semidefinite")
	}

	return U, nil
}

// WithCovN draws n random samples from a zero-mean Normal (aka Gaussian) distribution with covariance cov
// using the random source src. A nil src uses the global source.
// It returns matrix which contains the randomly generated samples stored in its columns.
// It fails with error if n is non-positive or if cov can not be factorized.
func WithCovN(cov mat.Symmetric, n int, src rand.Source) (*mat.Dense, error) {
	if n <= 0 {
		return nil, fmt.Errorf("invalid number of samples requested: %d", n)
	}

	U, err := CovFactor(cov)
	if err != nil {
		return nil, err
	}

	rows := cov.SymmetricDim()
	samples := mat.NewDense(rows, n, NormalN(rows*n, src))
	samples.Mul(U, samples)

	return samples, nil
}

// NormalN draws n independent standard normal numbers using the random source src
func NormalN(n int, src rand.Source) []float64 {
	norm := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	data := make([]float64, n)
	for i := range data {
		data[i] = norm.Rand()
	}

	return data
}
