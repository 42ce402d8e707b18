package matrix

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/mat"
)

// Symmetrize stores (a + a')/2 into dst.
// It panics if a is not square or if its dimension differs from dst.
func Symmetrize(dst *mat.SymDense, a mat.Matrix) {
	n := dst.SymmetricDim()
	rows, cols := a.Dims()
	if rows != n || cols != n {
		panic(mat.ErrShape)
	}

	for i := 0; i < n; i++ {
		dst.SetSym(i, i, a.At(i, i))
		for j := i + 1; j < n; j++ {
			dst.SetSym(i, j, 0.5*(a.At(i, j)+a.At(j, i)))
		}
	}
}

// MaxAbs returns the largest absolute value stored in a
func MaxAbs(a mat.Matrix) float64 {
	rows, cols := a.Dims()
	max := 0.0
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if v := math.Abs(a.At(i, j)); v > max {
				max = v
			}
		}
	}

	return max
}

// IsZero reports whether all elements of a are within eps of zero
func IsZero(a mat.Matrix, eps float64) bool {
	return MaxAbs(a) <= eps
}

// Lyapunov solves P = T*P*T' + Q for stable T using the doubling algorithm.
// It returns error if the iteration does not converge, i.e. T has unit or explosive roots.
func Lyapunov(t mat.Matrix, q mat.Symmetric) (*mat.SymDense, error) {
	n := q.SymmetricDim()
	rows, cols := t.Dims()
	if rows != n || cols != n {
		return nil, fmt.Errorf("invalid transition dimensions: [%d x %d]", rows, cols)
	}

	var eig mat.Eigen
	if ok := eig.Factorize(t, mat.EigenNone); !ok {
		return nil, fmt.Errorf("eigen decomposition of transition failed")
	}
	for _, v := range eig.Values(nil) {
		if cmplx.Abs(v) >= 1 {
			return nil, fmt.Errorf("transition is not stable: eigenvalue %v", v)
		}
	}

	p := mat.NewSymDense(n, nil)
	p.CopySym(q)

	a := mat.DenseCopyOf(t)
	apa := &mat.Dense{}
	aa := &mat.Dense{}
	for iter := 0; iter < 64; iter++ {
		apa.Product(a, p, a.T())
		delta := MaxAbs(apa)
		if math.IsInf(delta, 0) || math.IsNaN(delta) {
			return nil, fmt.Errorf("lyapunov iteration diverged")
		}
		for i := 0; i < n; i++ {
			for j := i; j < n; j++ {
				p.SetSym(i, j, p.At(i, j)+0.5*(apa.At(i, j)+apa.At(j, i)))
			}
		}
		if delta <= 1e-15*math.Max(1, MaxAbs(p)) {
			return p, nil
		}
		aa.Mul(a, a)
		a.Copy(aa)
	}

	return nil, fmt.Errorf("lyapunov iteration failed to converge")
}

// PSDFactor returns a square matrix S such that a = S*S'.
// Small negative eigenvalues caused by rounding are treated as zeros.
// It returns error if a is not positive semidefinite.
func PSDFactor(a mat.Symmetric) (*mat.Dense, error) {
	n := a.SymmetricDim()
	var es mat.EigenSym
	if ok := es.Factorize(a, true); !ok {
		return nil, fmt.Errorf("eigen decomposition failed")
	}

	vals := es.Values(nil)
	tol := 1e-12 * math.Max(1, math.Abs(vals[n-1]))
	s := &mat.Dense{}
	es.VectorsTo(s)
	for j, v := range vals {
		if v < -tol {
			return nil, fmt.Errorf("matrix is not positive semidefinite: eigenvalue %g", v)
		}
		scale := 0.0
		if v > 0 {
			scale = math.Sqrt(v)
		}
		for i := 0; i < n; i++ {
			s.Set(i, j, s.At(i, j)*scale)
		}
	}

	return s, nil
}

// Givens zeroes a[row, col+1:] by applying Givens rotations to the columns of a,
// each column being rotated against column col. It returns the resulting a[row, col].
func Givens(a *mat.Dense, row, col int) float64 {
	raw := a.RawMatrix()
	x := blas64.Vector{N: raw.Rows, Inc: raw.Stride, Data: raw.Data[col:]}
	for j := col + 1; j < raw.Cols; j++ {
		b := a.At(row, j)
		if b == 0 {
			continue
		}
		c, s, _, _ := blas64.Rotg(a.At(row, col), b)
		y := blas64.Vector{N: raw.Rows, Inc: raw.Stride, Data: raw.Data[j:]}
		blas64.Rot(x, y, c, s)
		// remove rounding residue
		a.Set(row, j, 0)
	}

	return a.At(row, col)
}

// LowerTriangularize returns the lower triangular matrix L with non-negative diagonal
// such that a = [L 0]*Q' for some orthogonal Q. a must have at least as many columns as rows.
func LowerTriangularize(a mat.Matrix) (*mat.Dense, error) {
	rows, cols := a.Dims()
	if cols < rows {
		return nil, fmt.Errorf("invalid pre-array dimensions: [%d x %d]", rows, cols)
	}

	var qr mat.QR
	qr.Factorize(a.T())
	r := &mat.Dense{}
	qr.RTo(r)

	l := mat.NewDense(rows, rows, nil)
	for i := 0; i < rows; i++ {
		sign := 1.0
		if r.At(i, i) < 0 {
			sign = -1.0
		}
		for j := i; j < rows; j++ {
			l.Set(j, i, sign*r.At(i, j))
		}
	}

	return l, nil
}
