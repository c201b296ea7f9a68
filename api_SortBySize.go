package submatrix

import (
	"github.com/intel/forGoParallel/parallel"
	"github.com/intel/forGoParallel/psort"
)

// SortBySize returns the columns of r ordered by neighborhood size. Columns of
// equal size keep their natural order.
func (A *Matrix) SortBySize(r ColumnRange, ascending bool) []int {
	k := r.Len()
	P := make([]int, k)
	D := make([]int, k)
	parallel.Range(0, k, 0, func(low, high int) {
		for i := low; i < high; i++ {
			P[i] = r.First + i
			if ascending {
				D[i] = A.ColumnSize(r.First + i)
			} else {
				D[i] = -A.ColumnSize(r.First + i)
			}
		}
	})
	psort.StableSort(keySorter{keys: D, perm: P})
	return P
}
