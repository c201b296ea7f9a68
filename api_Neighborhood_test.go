package submatrix_test

import (
	"testing"

	SM "github.com/pc2/SubmatrixMethod"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindElem(t *testing.T) {
	tests := []struct {
		name     string
		needle   int
		haystack []int
		want     int
	}{
		{"empty", 3, nil, -1},
		{"single present", 3, []int{3}, 0},
		{"single absent below", 2, []int{3}, -1},
		{"single absent above", 4, []int{3}, -1},
		{"first", 1, []int{1, 4, 9, 16}, 0},
		{"last", 16, []int{1, 4, 9, 16}, 3},
		{"middle", 9, []int{1, 4, 9, 16, 25}, 2},
		{"gap", 5, []int{1, 4, 9, 16, 25}, -1},
		{"beyond", 30, []int{1, 4, 9, 16, 25}, -1},
		{"before", 0, []int{1, 4, 9, 16, 25}, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SM.FindElem(tt.needle, tt.haystack))
		})
	}
}

func TestFindElemMatchesLinearSearch(t *testing.T) {
	for length := 0; length < 12; length++ {
		haystack := make([]int, length)
		for k := range haystack {
			haystack[k] = 3*k + 1
		}
		for needle := -1; needle < 3*length+2; needle++ {
			want := -1
			for k, x := range haystack {
				if x == needle {
					want = k
				}
			}
			require.Equal(t, want, SM.FindElem(needle, haystack), "needle %v in %v", needle, haystack)
		}
	}
}

func TestNeighborhoodBlocks(t *testing.T) {
	A := blockMatrix()
	assert.Equal(t, []float64{2, 1, 1, 2}, A.Neighborhood(0, nil))
	assert.Equal(t, []float64{3, 1, 1, 2}, A.Neighborhood(3, nil))
	assert.Equal(t, 0, A.SelfPosition(0))
	assert.Equal(t, 1, A.SelfPosition(3))
}

func TestNeighborhoodFillsAbsentEntriesWithZero(t *testing.T) {
	// arrow matrix: column 0 touches every row, the others only row 0 and themselves
	A, err := SM.FromTriplets(3,
		[]int{0, 1, 2, 0, 1, 0, 2},
		[]int{0, 0, 0, 1, 1, 2, 2},
		[]float64{4, 1, 2, 1, 5, 2, 6})
	require.NoError(t, err)
	scratch := make([]float64, 16)
	for k := range scratch {
		scratch[k] = -1
	}
	assert.Equal(t, []float64{
		4, 1, 2,
		1, 5, 0,
		2, 0, 6,
	}, A.Neighborhood(0, scratch))
}

func TestNeighborhoodSymmetric(t *testing.T) {
	A, err := SM.Generate(80, 15, 4, 9)
	require.NoError(t, err)
	var s []float64
	for i := 0; i < A.N; i++ {
		s = A.Neighborhood(i, s)
		m := A.ColumnSize(i)
		require.Len(t, s, m*m)
		for k := 0; k < m; k++ {
			for l := 0; l < k; l++ {
				require.Equal(t, s[k*m+l], s[l*m+k], "column %v entry (%v, %v)", i, k, l)
			}
		}
	}
}
