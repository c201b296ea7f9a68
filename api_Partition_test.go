package submatrix_test

import (
	"testing"

	SM "github.com/pc2/SubmatrixMethod"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanColumnsCoversAllColumns(t *testing.T) {
	for _, n := range []int{0, 1, 2, 5, 7, 16, 100, 1001} {
		for _, size := range []int{2, 3, 4, 8, 17} {
			ranges, err := SM.PlanColumns(n, size)
			require.NoError(t, err)
			require.Len(t, ranges, size)
			assert.Equal(t, 0, ranges[SM.CoordinatorRank].Len())

			next := 0
			for rank := 1; rank < size; rank++ {
				r := ranges[rank]
				require.Equal(t, next, r.First, "n %v size %v rank %v", n, size, rank)
				require.LessOrEqual(t, r.First, r.Last)
				next = r.Last

				own, err := SM.WorkerRange(n, size, rank)
				require.NoError(t, err)
				require.Equal(t, r, own)
			}
			require.Equal(t, n, next, "n %v size %v", n, size)
		}
	}
}

func TestPlanColumnsRemainderGoesToLastWorker(t *testing.T) {
	ranges, err := SM.PlanColumns(10, 4)
	require.NoError(t, err)
	assert.Equal(t, []SM.ColumnRange{{0, 0}, {0, 3}, {3, 6}, {6, 10}}, ranges)

	// fewer columns than workers
	ranges, err = SM.PlanColumns(2, 4)
	require.NoError(t, err)
	assert.Equal(t, []SM.ColumnRange{{0, 0}, {0, 0}, {0, 0}, {0, 2}}, ranges)
}

func TestPlanColumnsRejectsSingleProcess(t *testing.T) {
	for _, size := range []int{-1, 0, 1} {
		_, err := SM.PlanColumns(10, size)
		assert.ErrorIs(t, err, SM.ErrTooFewProcesses)
		_, err = SM.WorkerRange(10, size, 0)
		assert.ErrorIs(t, err, SM.ErrTooFewProcesses)
	}
	_, err := SM.WorkerRange(10, 3, 3)
	assert.ErrorIs(t, err, SM.ErrInvalidPartition)
}

func TestGatherPlans(t *testing.T) {
	A, err := SM.Generate(97, 8, 2, 13)
	require.NoError(t, err)
	for _, size := range []int{2, 3, 5, 9} {
		ranges, err := SM.PlanColumns(A.N, size)
		require.NoError(t, err)

		values := SM.PlanValues(ranges, A.ColPtr)
		sum := 0
		for rank, c := range values.Counts {
			sum += c
			r := ranges[rank]
			if r.Len() > 0 {
				assert.Equal(t, A.ColPtr[r.First], values.Displs[rank])
			}
		}
		assert.Equal(t, A.NNZ(), sum)
		assert.Equal(t, A.NNZ(), values.Total())
		assert.Equal(t, 0, values.Counts[SM.CoordinatorRank])

		status := SM.PlanColumnStatus(ranges)
		assert.Equal(t, A.N, status.Total())
	}
}

func TestBlockGatherPlan(t *testing.T) {
	A := blockMatrix()
	ranges, err := SM.PlanColumns(A.N, 3)
	require.NoError(t, err)
	p := SM.PlanValues(ranges, A.ColPtr)
	assert.Equal(t, []int{0, 0, 4}, p.Displs)
	assert.Equal(t, []int{0, 4, 4}, p.Counts)
	assert.Equal(t, 1.0, p.Imbalance())

	p = SM.GatherPlan{Displs: []int{0, 0, 2}, Counts: []int{0, 2, 6}}
	assert.Equal(t, 1.5, p.Imbalance())
}

func TestPlanThreads(t *testing.T) {
	tests := []struct {
		threads, columns int
		want             SM.Budget
	}{
		{8, 2, SM.Budget{Threads: 8, Tasks: 2, ThreadsPerInversion: 4}},
		{8, 3, SM.Budget{Threads: 8, Tasks: 3, ThreadsPerInversion: 2}},
		{2, 8, SM.Budget{Threads: 2, Tasks: 2, ThreadsPerInversion: 1}},
		{0, 5, SM.Budget{Threads: 1, Tasks: 1, ThreadsPerInversion: 1}},
		{8, 0, SM.Budget{Threads: 8, Tasks: 8, ThreadsPerInversion: 1}},
	}
	for _, tt := range tests {
		got := SM.PlanThreads(tt.threads, tt.columns)
		assert.Equal(t, tt.want, got, "threads %v columns %v", tt.threads, tt.columns)
		assert.LessOrEqual(t, got.Tasks*got.ThreadsPerInversion, got.Threads)
	}
}
