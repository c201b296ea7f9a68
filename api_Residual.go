package submatrix

import (
	"math"
	"sync"

	"github.com/intel/forGoParallel/parallel"
)

// Residual measures how far R is from the inverse of A: it returns the
// Frobenius norm and the largest absolute entry of R·A - I. R must have the
// same size as A. NaN entries of R propagate into both results.
func Residual(A, R *Matrix) (frobenius, maxAbs float64) {
	n := A.N
	var mutex sync.Mutex
	var sumSquares float64
	parallel.Range(0, n, 0, func(low, high int) {
		acc := make([]float64, n)
		touched := make([]bool, n)
		var rows []int
		var localSum, localMax float64
		for j := low; j < high; j++ {
			// column j of R·A is the sum of A[k][j] times column k of R
			aVals := A.Values(j)
			for ka, k := range A.Rows(j) {
				a := aVals[ka]
				rVals := R.Values(k)
				for kr, i := range R.Rows(k) {
					if !touched[i] {
						touched[i] = true
						rows = append(rows, i)
					}
					acc[i] += rVals[kr] * a
				}
			}
			if !touched[j] {
				touched[j] = true
				rows = append(rows, j)
			}
			acc[j] -= 1
			for _, i := range rows {
				x := acc[i]
				localSum += x * x
				if ax := math.Abs(x); ax > localMax || math.IsNaN(ax) {
					localMax = ax
				}
				acc[i] = 0
				touched[i] = false
			}
			rows = rows[:0]
		}
		mutex.Lock()
		defer mutex.Unlock()
		sumSquares += localSum
		if localMax > maxAbs || math.IsNaN(localMax) {
			maxAbs = localMax
		}
	})
	return math.Sqrt(sumSquares), maxAbs
}
