package submatrix

import (
	"math"

	"github.com/intel/forGoParallel/parallel"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/lapack/lapack64"
)

// Inverter replaces a dense row-major m×m matrix by its inverse. threads is
// the number of goroutines the call may use internally. An error means the
// contents of a are not meaningful.
type Inverter interface {
	Invert(a []float64, m, threads int) error
}

// minColumnsPerThread keeps tiny inversions on a single goroutine.
const minColumnsPerThread = 16

// LUInverter inverts via an LU factorization with partial pivoting followed by
// reconstruction of the inverse from the factors.
type LUInverter struct{}

func (LUInverter) Invert(a []float64, m, threads int) error {
	if m == 0 {
		return nil
	}
	A := blas64.General{Rows: m, Cols: m, Stride: m, Data: a[:m*m]}
	ipiv := make([]int, m)
	if !lapack64.Getrf(A, ipiv) {
		return ErrSingular
	}
	nb := min(threads, m/minColumnsPerThread)
	if nb <= 1 {
		work := make([]float64, m)
		if !lapack64.Getri(A, ipiv, work, m) {
			return ErrSingular
		}
		return checkFinite(a[:m*m])
	}

	// Solve A X = I, one block of right-hand-side columns per goroutine.
	x := make([]float64, m*m)
	for i := 0; i < m; i++ {
		x[i*m+i] = 1
	}
	thunks := make([]func(), nb)
	for t := range thunks {
		low, high := t*m/nb, (t+1)*m/nb
		thunks[t] = func() {
			B := blas64.General{Rows: m, Cols: high - low, Stride: m, Data: x[low:]}
			lapack64.Getrs(blas.NoTrans, A, B, ipiv)
		}
	}
	parallel.Do(thunks...)
	copy(a, x)
	return checkFinite(a[:m*m])
}

func checkFinite(a []float64) error {
	for _, x := range a {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return ErrSingular
		}
	}
	return nil
}
