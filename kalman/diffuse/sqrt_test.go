package diffuse

import (
	"testing"

	"github.com/jdemetra/jdemetra-core-sub001/matrix"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestVanished(t *testing.T) {
	assert := assert.New(t)

	tol := 1e-9
	assert.True(vanished(&mat.Dense{}, tol))

	// max|B|^2 is below tol while max|B*B'| is not
	x := 2.5e-5
	b := mat.NewDense(2, 2, []float64{x, x, x, x})
	var pi mat.SymDense
	pi.SymOuterK(1, b)
	assert.True(x*x < tol)
	assert.False(matrix.IsZero(&pi, tol))
	assert.False(vanished(b, tol))

	b.Scale(0.1, b)
	assert.True(vanished(b, tol))
}
