package submatrix

import "sort"

// SampleColumnSize estimates the mean and median neighborhood size of A from
// nSamples columns drawn with the given seed.
func (A *Matrix) SampleColumnSize(nSamples int, seed uint64) (sampleMean, sampleMedian float64) {
	if A.N == 0 {
		return 0, 0
	}
	if nSamples < 1 {
		nSamples = 1
	}
	rnd := NewRandom(seed)
	samples := make([]int, nSamples)
	sum := 0
	for k := range samples {
		d := A.ColumnSize(rnd.Intn(A.N))
		samples[k] = d
		sum += d
	}
	sampleMean = float64(sum) / float64(nSamples)
	sort.Ints(samples)
	sampleMedian = float64(samples[nSamples/2])
	return
}

// MaxColumnSize is the size of the largest neighborhood of A.
func (A *Matrix) MaxColumnSize() (m int) {
	for j := 0; j < A.N; j++ {
		m = max(m, A.ColumnSize(j))
	}
	return
}
