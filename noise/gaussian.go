package noise

import (
	"fmt"

	"golang.org/x/exp/rand"

	erand "github.com/jdemetra/jdemetra-core-sub001/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
)

// Gaussian is gaussian noise
type Gaussian struct {
	// dist is a multivariate normal distribution; nil if cov is singular
	dist *distmv.Normal
	// factor is used instead of dist for singular covariances
	factor *mat.Dense
	src    rand.Source
	seed   uint64
	// mean is Gaussian mean
	mean []float64
	// cov is Gaussian covariance
	cov *mat.SymDense
}

// NewGaussian creates new Gaussian noise with given mean and covariance drawing from a source seeded with seed.
// Singular covariances are supported.
// It returns error if the dimensions do not match or if cov is not positive semidefinite.
func NewGaussian(mean []float64, cov mat.Symmetric, seed uint64) (*Gaussian, error) {
	if cov == nil || len(mean) != cov.SymmetricDim() {
		return nil, fmt.Errorf("invalid Gaussian dimensions: mean %d", len(mean))
	}

	m := make([]float64, len(mean))
	copy(m, mean)
	c := mat.NewSymDense(len(mean), nil)
	c.CopySym(cov)

	g := &Gaussian{
		mean: m,
		cov:  c,
		seed: seed,
	}
	if err := g.init(); err != nil {
		return nil, err
	}

	return g, nil
}

func (g *Gaussian) init() error {
	g.src = rand.NewSource(g.seed)
	if dist, ok := distmv.NewNormal(g.mean, g.cov, g.src); ok {
		g.dist = dist
		return nil
	}

	factor, err := erand.CovFactor(g.cov)
	if err != nil {
		return fmt.Errorf("failed to create Gaussian noise: %w", err)
	}
	g.factor = factor

	return nil
}

// Sample generates a sample from Gaussian noise and returns it.
func (g *Gaussian) Sample() mat.Vector {
	if g.dist != nil {
		r := g.dist.Rand(nil)
		return mat.NewVecDense(len(r), r)
	}

	n := len(g.mean)
	z := mat.NewVecDense(n, erand.NormalN(n, g.src))
	s := mat.NewVecDense(n, nil)
	s.MulVec(g.factor, z)
	s.AddVec(s, mat.NewVecDense(n, g.mean))

	return s
}

// Cov returns covariance matrix of Gaussian noise.
func (g *Gaussian) Cov() mat.Symmetric {
	cov := mat.NewSymDense(g.cov.SymmetricDim(), nil)
	cov.CopySym(g.cov)

	return cov
}

// Mean returns Gaussian mean.
func (g *Gaussian) Mean() []float64 {
	mean := make([]float64, len(g.mean))
	copy(mean, g.mean)

	return mean
}

// Reset restarts the noise sequence from its seed.
func (g *Gaussian) Reset() {
	// init can not fail once the noise has been created
	_ = g.init()
}

// String implements the Stringer interface.
func (g *Gaussian) String() string {
	return fmt.Sprintf("Gaussian{\nMean=%v\nCov=%v\n}", g.mean, mat.Formatted(g.cov, mat.Prefix("    "), mat.Squeeze()))
}
