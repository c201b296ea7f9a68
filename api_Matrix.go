package submatrix

import (
	"fmt"

	"github.com/intel/forGoParallel/parallel"
)

// Matrix is a square sparse matrix in compressed sparse column form. Row
// indices within each column are strictly ascending. A Matrix is not mutated
// once it has been handed to a round.
type Matrix struct {
	N        int
	ColPtr   []int
	RowIndex []int
	Value    []float64

	SymmetricStructure Boolean
	SymmetricValues    Boolean
	NDiag              int
}

func New(n int, colPtr, rowIndex []int, value []float64) *Matrix {
	return &Matrix{
		N:                  n,
		ColPtr:             colPtr,
		RowIndex:           rowIndex,
		Value:              value,
		SymmetricStructure: Unknown,
		SymmetricValues:    Unknown,
		NDiag:              -1,
	}
}

// NNZ is recovered from the column pointers, never stored separately.
func (A *Matrix) NNZ() int {
	if len(A.ColPtr) == 0 {
		return 0
	}
	return A.ColPtr[A.N]
}

func (A *Matrix) ColumnSize(j int) int {
	return A.ColPtr[j+1] - A.ColPtr[j]
}

func (A *Matrix) Rows(j int) []int {
	return A.RowIndex[A.ColPtr[j]:A.ColPtr[j+1]]
}

func (A *Matrix) Values(j int) []float64 {
	return A.Value[A.ColPtr[j]:A.ColPtr[j+1]]
}

// At returns the entry at (i, j) and whether it is structurally present.
func (A *Matrix) At(i, j int) (float64, bool) {
	k := FindElem(i, A.Rows(j))
	if k < 0 {
		return 0, false
	}
	return A.Value[A.ColPtr[j]+k], true
}

// WithValues returns a matrix sharing the sparsity pattern of A.
func (A *Matrix) WithValues(value []float64) *Matrix {
	B := New(A.N, A.ColPtr, A.RowIndex, value)
	B.SymmetricStructure = A.SymmetricStructure
	B.NDiag = A.NDiag
	return B
}

func (A *Matrix) Check() error {
	n := A.N
	if n < 0 {
		return fmt.Errorf("%w: negative size %v", ErrInvalidMatrix, n)
	}
	if len(A.ColPtr) != n+1 {
		return fmt.Errorf("%w: column pointer length %v, expected %v", ErrInvalidMatrix, len(A.ColPtr), n+1)
	}
	if A.ColPtr[0] != 0 {
		return fmt.Errorf("%w: first column pointer is %v", ErrInvalidMatrix, A.ColPtr[0])
	}
	nnz := A.ColPtr[n]
	if len(A.RowIndex) != nnz || len(A.Value) != nnz {
		return fmt.Errorf("%w: %v row indices and %v values for %v nonzeros", ErrInvalidMatrix, len(A.RowIndex), len(A.Value), nnz)
	}
	for j := 0; j < n; j++ {
		if A.ColPtr[j] > A.ColPtr[j+1] {
			return fmt.Errorf("%w: column pointers decrease at column %v", ErrInvalidMatrix, j)
		}
	}
	ok := parallel.RangeAnd(0, n, 0, func(low, high int) bool {
		for j := low; j < high; j++ {
			rows := A.Rows(j)
			for k, r := range rows {
				if r < 0 || r >= n {
					return false
				}
				if k > 0 && rows[k-1] >= r {
					return false
				}
			}
		}
		return true
	})
	if !ok {
		return fmt.Errorf("%w: row indices out of range or not strictly ascending", ErrInvalidMatrix)
	}
	return nil
}

// FromTriplets builds a Matrix from coordinate entries. Duplicate entries
// keep the first occurrence.
func FromTriplets(n int, rows, cols []int, vals []float64) (*Matrix, error) {
	if len(rows) != len(cols) || len(rows) != len(vals) {
		return nil, fmt.Errorf("%w: triplet slices differ in length", ErrInvalidMatrix)
	}
	r := append([]int(nil), rows...)
	c := append([]int(nil), cols...)
	v := append([]float64(nil), vals...)
	for k := range r {
		if r[k] < 0 || r[k] >= n || c[k] < 0 || c[k] >= n {
			return nil, fmt.Errorf("%w: entry (%v, %v) outside %vx%v", ErrInvalidMatrix, r[k], c[k], n, n)
		}
	}
	tripletSort(c, r, v)

	colPtr := make([]int, n+1)
	rowIndex := make([]int, 0, len(r))
	value := make([]float64, 0, len(v))
	for k := range r {
		if k > 0 && r[k] == r[k-1] && c[k] == c[k-1] {
			continue
		}
		rowIndex = append(rowIndex, r[k])
		value = append(value, v[k])
		colPtr[c[k]+1]++
	}
	for j := 0; j < n; j++ {
		colPtr[j+1] += colPtr[j]
	}
	return New(n, colPtr, rowIndex, value), nil
}

// FromDense keeps the non-zero entries of a row-major n×n matrix.
func FromDense(n int, a []float64) *Matrix {
	colPtr := make([]int, n+1)
	var rowIndex []int
	var value []float64
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			if x := a[i*n+j]; x != 0 {
				rowIndex = append(rowIndex, i)
				value = append(value, x)
			}
		}
		colPtr[j+1] = len(rowIndex)
	}
	return New(n, colPtr, rowIndex, value)
}

// Dense expands A into a row-major n×n slice.
func (A *Matrix) Dense() []float64 {
	n := A.N
	a := make([]float64, n*n)
	parallel.Range(0, n, 0, func(low, high int) {
		for j := low; j < high; j++ {
			vals := A.Values(j)
			for k, i := range A.Rows(j) {
				a[i*n+j] = vals[k]
			}
		}
	})
	return a
}
