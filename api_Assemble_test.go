package submatrix_test

import (
	"testing"

	SM "github.com/pc2/SubmatrixMethod"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssembleSliceRoundTrip(t *testing.T) {
	A, err := SM.Generate(31, 20, 2, 4)
	require.NoError(t, err)
	ranges, err := SM.PlanColumns(A.N, 4)
	require.NoError(t, err)
	plan := SM.PlanValues(ranges, A.ColPtr)

	parts := make([][]float64, len(plan.Counts))
	next := 0.0
	for rank, c := range plan.Counts {
		parts[rank] = make([]float64, c)
		for k := range parts[rank] {
			next++
			parts[rank][k] = next
		}
	}
	buf, err := SM.Assemble(plan, parts)
	require.NoError(t, err)
	require.Len(t, buf, A.NNZ())

	back, err := SM.Slice(plan, buf)
	require.NoError(t, err)
	assert.Equal(t, parts, back)
}

func TestAssembleStatus(t *testing.T) {
	ranges, err := SM.PlanColumns(5, 3)
	require.NoError(t, err)
	plan := SM.PlanColumnStatus(ranges)
	status, err := SM.Assemble(plan, [][]SM.Status{
		{},
		{SM.Computed, SM.Singular},
		{SM.Computed, SM.MissingDiagonal, SM.Computed},
	})
	require.NoError(t, err)
	assert.Equal(t, []SM.Status{SM.Computed, SM.Singular, SM.Computed, SM.MissingDiagonal, SM.Computed}, status)

	r := &SM.Result{Status: status}
	assert.Equal(t, []int{1, 3}, r.Failed())
}

func TestAssembleRejectsWrongCounts(t *testing.T) {
	plan := SM.GatherPlan{Displs: []int{0, 0, 4}, Counts: []int{0, 4, 4}}
	_, err := SM.Assemble(plan, [][]float64{{}, {1, 2, 3, 4}, {5, 6, 7}})
	assert.ErrorIs(t, err, SM.ErrInvalidPartition)
	_, err = SM.Assemble(plan, [][]float64{{}, {1, 2, 3, 4}})
	assert.ErrorIs(t, err, SM.ErrInvalidPartition)
	_, err = SM.Slice(plan, make([]float64, 7))
	assert.ErrorIs(t, err, SM.ErrInvalidPartition)
}

func TestMessages(t *testing.T) {
	for _, m := range []SM.Message{
		SM.Shutdown{},
		SM.Work{Properties: SM.Properties{Size: 0}},
		SM.Work{Properties: SM.Properties{Size: 1 << 40, Density: 5, Condition: 100, Choice: 3}},
	} {
		got, err := SM.DecodeMessage(SM.EncodeMessage(m))
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}

	for _, buf := range [][]byte{nil, {7}, {0, 0}, {1, 2, 3}} {
		_, err := SM.DecodeMessage(buf)
		assert.ErrorIs(t, err, SM.ErrBadArguments, "message %v", buf)
	}
}
