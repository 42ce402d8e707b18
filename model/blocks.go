package model

import "gonum.org/v1/gonum/mat"

// subVector returns the view x[i:k] when possible, a copy otherwise
func subVector(x mat.Vector, i, k int) mat.Vector {
	if v, ok := x.(*mat.VecDense); ok {
		return v.SliceVec(i, k)
	}

	s := mat.NewVecDense(k-i, nil)
	for j := i; j < k; j++ {
		s.SetVec(j-i, x.AtVec(j))
	}

	return s
}

// addSymBlock adds src into the diagonal block of dst starting at off
func addSymBlock(dst *mat.SymDense, off int, src mat.Symmetric) {
	n := src.SymmetricDim()
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			dst.SetSym(off+i, off+j, dst.At(off+i, off+j)+src.At(i, j))
		}
	}
}

// symBlock copies the diagonal block of src starting at off into dst
func symBlock(dst *mat.SymDense, off int, src mat.Symmetric) {
	n := dst.SymmetricDim()
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			dst.SetSym(i, j, src.At(off+i, off+j))
		}
	}
}

// setSymBlock overwrites the diagonal block of dst starting at off with src
func setSymBlock(dst *mat.SymDense, off int, src mat.Symmetric) {
	n := src.SymmetricDim()
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			dst.SetSym(off+i, off+j, src.At(i, j))
		}
	}
}
