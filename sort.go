package submatrix

import (
	"sort"

	"github.com/intel/forGoParallel/parallel"
	"github.com/intel/forGoParallel/psort"
)

// tripletSorter orders coordinate entries by column, then row. vals rides along.
type tripletSorter struct {
	cols, rows []int
	vals       []float64
}

func (s tripletSorter) Assign(source psort.StableSorter) func(i, j, len int) {
	src := source.(tripletSorter)
	return func(i, j, len int) {
		parallel.Do(func() {
			copy(s.cols[i:i+len], src.cols[j:j+len])
		}, func() {
			copy(s.rows[i:i+len], src.rows[j:j+len])
		}, func() {
			copy(s.vals[i:i+len], src.vals[j:j+len])
		})
	}
}

func (s tripletSorter) Len() int {
	return len(s.cols)
}

func (s tripletSorter) Less(i, j int) bool {
	ci := s.cols[i]
	cj := s.cols[j]
	if ci < cj {
		return true
	}
	if ci > cj {
		return false
	}
	return s.rows[i] < s.rows[j]
}

func (s tripletSorter) NewTemp() psort.StableSorter {
	return tripletSorter{
		cols: make([]int, len(s.cols)),
		rows: make([]int, len(s.rows)),
		vals: make([]float64, len(s.vals)),
	}
}

func (s tripletSorter) SequentialSort(i, j int) {
	sort.Stable(tripletSorter{
		cols: s.cols[i:j],
		rows: s.rows[i:j],
		vals: s.vals[i:j],
	})
}

func (s tripletSorter) Swap(i, j int) {
	s.cols[i], s.cols[j] = s.cols[j], s.cols[i]
	s.rows[i], s.rows[j] = s.rows[j], s.rows[i]
	s.vals[i], s.vals[j] = s.vals[j], s.vals[i]
}

func tripletSort(cols, rows []int, vals []float64) {
	psort.StableSort(tripletSorter{cols: cols, rows: rows, vals: vals})
}

// keySorter orders a permutation by its keys.
type keySorter struct {
	keys, perm []int
}

func (s keySorter) Assign(source psort.StableSorter) func(i, j, len int) {
	src := source.(keySorter)
	return func(i, j, len int) {
		parallel.Do(func() {
			copy(s.keys[i:i+len], src.keys[j:j+len])
		}, func() {
			copy(s.perm[i:i+len], src.perm[j:j+len])
		})
	}
}

func (s keySorter) Len() int {
	return len(s.keys)
}

func (s keySorter) Less(i, j int) bool {
	return s.keys[i] < s.keys[j]
}

func (s keySorter) NewTemp() psort.StableSorter {
	return keySorter{
		keys: make([]int, len(s.keys)),
		perm: make([]int, len(s.perm)),
	}
}

func (s keySorter) SequentialSort(i, j int) {
	sort.Stable(keySorter{keys: s.keys[i:j], perm: s.perm[i:j]})
}

func (s keySorter) Swap(i, j int) {
	s.keys[i], s.keys[j] = s.keys[j], s.keys[i]
	s.perm[i], s.perm[j] = s.perm[j], s.perm[i]
}
