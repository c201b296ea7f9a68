package submatrix_test

import (
	"testing"

	SM "github.com/pc2/SubmatrixMethod"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockMatrix has two 2×2 diagonal blocks, [[2,1],[1,2]] and [[3,1],[1,2]].
func blockMatrix() *SM.Matrix {
	return SM.New(4,
		[]int{0, 2, 4, 6, 8},
		[]int{0, 1, 0, 1, 2, 3, 2, 3},
		[]float64{2, 1, 1, 2, 3, 1, 1, 2})
}

// blockInverse holds the rows of the block inverses selected for each column.
var blockInverse = []float64{2.0 / 3, -1.0 / 3, -1.0 / 3, 2.0 / 3, 0.4, -0.2, -0.2, 0.6}

func TestMatrixAccessors(t *testing.T) {
	A := blockMatrix()
	require.NoError(t, A.Check())
	assert.Equal(t, 8, A.NNZ())
	assert.Equal(t, 2, A.ColumnSize(2))
	assert.Equal(t, []int{2, 3}, A.Rows(2))
	assert.Equal(t, []float64{3, 1}, A.Values(2))

	v, ok := A.At(3, 2)
	assert.True(t, ok)
	assert.Equal(t, 1.0, v)
	_, ok = A.At(0, 2)
	assert.False(t, ok)
}

func TestMatrixCheck(t *testing.T) {
	tests := []struct {
		name string
		A    *SM.Matrix
	}{
		{"short column pointers", SM.New(2, []int{0, 1}, []int{0}, []float64{1})},
		{"nonzero first pointer", SM.New(1, []int{1, 1}, []int{}, []float64{})},
		{"decreasing pointers", SM.New(2, []int{0, 2, 1}, []int{0}, []float64{1})},
		{"row out of range", SM.New(2, []int{0, 1, 2}, []int{0, 2}, []float64{1, 1})},
		{"rows not ascending", SM.New(2, []int{0, 2, 2}, []int{1, 0}, []float64{1, 1})},
		{"duplicate row", SM.New(2, []int{0, 2, 2}, []int{1, 1}, []float64{1, 1})},
		{"value count", SM.New(2, []int{0, 1, 2}, []int{0, 1}, []float64{1})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.A.Check(), SM.ErrInvalidMatrix)
		})
	}
}

func TestFromTriplets(t *testing.T) {
	A, err := SM.FromTriplets(4,
		[]int{3, 0, 1, 2, 1, 0, 3, 2, 0},
		[]int{3, 0, 0, 2, 1, 1, 2, 3, 0},
		[]float64{2, 2, 1, 3, 2, 1, 1, 1, 99})
	require.NoError(t, err)
	require.NoError(t, A.Check())
	want := blockMatrix()
	assert.Equal(t, want.ColPtr, A.ColPtr)
	assert.Equal(t, want.RowIndex, A.RowIndex)
	assert.Equal(t, want.Value, A.Value)

	_, err = SM.FromTriplets(2, []int{2}, []int{0}, []float64{1})
	assert.ErrorIs(t, err, SM.ErrInvalidMatrix)
}

func TestDenseRoundTrip(t *testing.T) {
	A := blockMatrix()
	a := A.Dense()
	assert.Equal(t, []float64{
		2, 1, 0, 0,
		1, 2, 0, 0,
		0, 0, 3, 1,
		0, 0, 1, 2,
	}, a)
	B := SM.FromDense(4, a)
	assert.Equal(t, A.ColPtr, B.ColPtr)
	assert.Equal(t, A.RowIndex, B.RowIndex)
	assert.Equal(t, A.Value, B.Value)
}

func TestGenerate(t *testing.T) {
	A, err := SM.Generate(50, 10, 10, 42)
	require.NoError(t, err)
	require.NoError(t, A.Check())
	for j := 0; j < A.N; j++ {
		d, ok := A.At(j, j)
		require.True(t, ok, "column %v has no diagonal", j)
		sum := 0.0
		for k, i := range A.Rows(j) {
			v := A.Values(j)[k]
			if i != j {
				sum += max(v, -v)
				w, ok := A.At(j, i)
				require.True(t, ok)
				assert.Equal(t, v, w)
			}
		}
		assert.Greater(t, d, sum)
	}

	B, err := SM.Generate(50, 10, 10, 42)
	require.NoError(t, err)
	assert.Equal(t, A.Value, B.Value)
	assert.Equal(t, A.RowIndex, B.RowIndex)

	_, err = SM.Generate(10, 101, 1, 1)
	assert.ErrorIs(t, err, SM.ErrBadArguments)
}

func TestSampleColumnSize(t *testing.T) {
	mean, median := blockMatrix().SampleColumnSize(10, 3)
	assert.Equal(t, 2.0, mean)
	assert.Equal(t, 2.0, median)
	assert.Equal(t, 2, blockMatrix().MaxColumnSize())
}

func TestSortBySize(t *testing.T) {
	A, err := SM.FromTriplets(4,
		[]int{0, 1, 1, 2, 3, 0, 2, 3, 3},
		[]int{0, 1, 2, 2, 2, 3, 3, 3, 0},
		[]float64{1, 1, 1, 1, 1, 1, 1, 1, 1})
	require.NoError(t, err)
	// column sizes 2, 1, 3, 3
	assert.Equal(t, []int{2, 3, 0, 1}, A.SortBySize(SM.ColumnRange{First: 0, Last: 4}, false))
	assert.Equal(t, []int{1, 2, 3}, A.SortBySize(SM.ColumnRange{First: 1, Last: 4}, true))
}
