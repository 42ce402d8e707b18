package results

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// minCapacity is the number of positions allocated by the first save
const minCapacity = 16

// grow returns a slice holding at least need elements, doubling the capacity of s if required.
// New elements are filled with NaN.
func grow(s []float64, need int) []float64 {
	if need <= len(s) {
		return s
	}
	if need <= cap(s) {
		old := len(s)
		s = s[:need]
		for i := old; i < need; i++ {
			s[i] = math.NaN()
		}
		return s
	}

	c := 2 * cap(s)
	if c < need {
		c = need
	}
	n := make([]float64, need, c)
	copy(n, s)
	for i := len(s); i < need; i++ {
		n[i] = math.NaN()
	}

	return n
}

// ScalarStore is a growable time indexed sequence of scalars
type ScalarStore struct {
	data []float64
}

// NewScalarStore creates new empty ScalarStore
func NewScalarStore() *ScalarStore {
	return &ScalarStore{data: make([]float64, 0, minCapacity)}
}

// Save stores v at pos
func (s *ScalarStore) Save(pos int, v float64) {
	s.data = grow(s.data, pos+1)
	s.data[pos] = v
}

// At returns the value stored at pos; NaN if nothing was stored
func (s *ScalarStore) At(pos int) float64 {
	if pos < 0 || pos >= len(s.data) {
		return math.NaN()
	}

	return s.data[pos]
}

// Len returns the number of positions covered by the store
func (s *ScalarStore) Len() int {
	return len(s.data)
}

// Values returns a copy of the stored values
func (s *ScalarStore) Values() []float64 {
	v := make([]float64, len(s.data))
	copy(v, s.data)

	return v
}

// Clear removes all the stored values, keeping the capacity
func (s *ScalarStore) Clear() {
	s.data = s.data[:0]
}

// VectorStore is a growable time indexed sequence of vectors of fixed dimension
type VectorStore struct {
	dim  int
	data []float64
}

// NewVectorStore creates new empty VectorStore for vectors of length dim
func NewVectorStore(dim int) *VectorStore {
	return &VectorStore{dim: dim, data: make([]float64, 0, minCapacity*dim)}
}

// Save copies v at pos
func (s *VectorStore) Save(pos int, v mat.Vector) {
	s.data = grow(s.data, (pos+1)*s.dim)
	off := pos * s.dim
	for i := 0; i < s.dim; i++ {
		s.data[off+i] = v.AtVec(i)
	}
}

// At returns the vector stored at pos or nil if the position is not covered.
// The returned vector is a view which becomes invalid after the next Save.
func (s *VectorStore) At(pos int) *mat.VecDense {
	if pos < 0 || pos >= s.Len() || s.dim == 0 {
		return nil
	}

	return mat.NewVecDense(s.dim, s.data[pos*s.dim:(pos+1)*s.dim])
}

// Item returns element i of every stored vector
func (s *VectorStore) Item(i int) []float64 {
	n := s.Len()
	v := make([]float64, n)
	for pos := 0; pos < n; pos++ {
		v[pos] = s.data[pos*s.dim+i]
	}

	return v
}

// Len returns the number of positions covered by the store
func (s *VectorStore) Len() int {
	if s.dim == 0 {
		return 0
	}

	return len(s.data) / s.dim
}

// Dim returns the vector dimension
func (s *VectorStore) Dim() int {
	return s.dim
}

// Clear removes all the stored vectors, keeping the capacity
func (s *VectorStore) Clear() {
	s.data = s.data[:0]
}

// SymStore is a growable time indexed sequence of symmetric matrices of fixed dimension
type SymStore struct {
	dim  int
	data []float64
}

// NewSymStore creates new empty SymStore for matrices of dimension dim
func NewSymStore(dim int) *SymStore {
	return &SymStore{dim: dim, data: make([]float64, 0, minCapacity*dim*dim)}
}

// Save copies m at pos
func (s *SymStore) Save(pos int, m mat.Symmetric) {
	n := s.dim * s.dim
	s.data = grow(s.data, (pos+1)*n)
	off := pos * n
	for i := 0; i < s.dim; i++ {
		for j := 0; j < s.dim; j++ {
			s.data[off+i*s.dim+j] = m.At(i, j)
		}
	}
}

// At returns the matrix stored at pos or nil if the position is not covered.
// The returned matrix is a view which becomes invalid after the next Save.
func (s *SymStore) At(pos int) *mat.SymDense {
	n := s.dim * s.dim
	if pos < 0 || pos >= s.Len() || n == 0 {
		return nil
	}

	return mat.NewSymDense(s.dim, s.data[pos*n:(pos+1)*n])
}

// Diag returns diagonal element i of every stored matrix
func (s *SymStore) Diag(i int) []float64 {
	n := s.Len()
	v := make([]float64, n)
	for pos := 0; pos < n; pos++ {
		v[pos] = s.data[pos*s.dim*s.dim+i*s.dim+i]
	}

	return v
}

// Len returns the number of positions covered by the store
func (s *SymStore) Len() int {
	if s.dim == 0 {
		return 0
	}

	return len(s.data) / (s.dim * s.dim)
}

// Clear removes all the stored matrices, keeping the capacity
func (s *SymStore) Clear() {
	s.data = s.data[:0]
}

// DenseStore is a growable time indexed sequence of matrices of fixed dimensions
type DenseStore struct {
	rows, cols int
	data       []float64
}

// NewDenseStore creates new empty DenseStore for [rows x cols] matrices
func NewDenseStore(rows, cols int) *DenseStore {
	return &DenseStore{rows: rows, cols: cols, data: make([]float64, 0, minCapacity*rows*cols)}
}

// Save copies m at pos
func (s *DenseStore) Save(pos int, m mat.Matrix) {
	n := s.rows * s.cols
	s.data = grow(s.data, (pos+1)*n)
	off := pos * n
	for i := 0; i < s.rows; i++ {
		for j := 0; j < s.cols; j++ {
			s.data[off+i*s.cols+j] = m.At(i, j)
		}
	}
}

// At returns the matrix stored at pos or nil if the position is not covered.
// The returned matrix is a view which becomes invalid after the next Save.
func (s *DenseStore) At(pos int) *mat.Dense {
	n := s.rows * s.cols
	if pos < 0 || n == 0 || pos >= len(s.data)/n {
		return nil
	}

	return mat.NewDense(s.rows, s.cols, s.data[pos*n:(pos+1)*n])
}

// Clear removes all the stored matrices, keeping the capacity
func (s *DenseStore) Clear() {
	s.data = s.data[:0]
}
