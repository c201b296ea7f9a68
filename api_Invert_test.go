package submatrix_test

import (
	"testing"

	SM "github.com/pc2/SubmatrixMethod"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLUInverter(t *testing.T) {
	tests := []struct {
		name string
		m    int
		a    []float64
		want []float64
		err  error
	}{
		{"scalar", 1, []float64{4}, []float64{0.25}, nil},
		{"zero scalar", 1, []float64{0}, nil, SM.ErrSingular},
		{"block", 2, []float64{2, 1, 1, 2}, []float64{2.0 / 3, -1.0 / 3, -1.0 / 3, 2.0 / 3}, nil},
		{"needs pivoting", 2, []float64{0, 1, 1, 0}, []float64{0, 1, 1, 0}, nil},
		{"rank deficient", 2, []float64{1, 2, 2, 4}, nil, SM.ErrSingular},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := append([]float64(nil), tt.a...)
			err := SM.LUInverter{}.Invert(a, tt.m, 1)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.InDeltaSlice(t, tt.want, a, 1e-12)
		})
	}
}

func TestLUInverterEmpty(t *testing.T) {
	assert.NoError(t, SM.LUInverter{}.Invert(nil, 0, 4))
}

func TestLUInverterThreads(t *testing.T) {
	A, err := SM.Generate(64, 30, 3, 5)
	require.NoError(t, err)
	n := A.N
	dense := A.Dense()

	single := append([]float64(nil), dense...)
	require.NoError(t, SM.LUInverter{}.Invert(single, n, 1))
	multi := append([]float64(nil), dense...)
	require.NoError(t, SM.LUInverter{}.Invert(multi, n, 4))
	assert.InDeltaSlice(t, single, multi, 1e-10)

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			sum := 0.0
			for k := 0; k < n; k++ {
				sum += multi[i*n+k] * dense[k*n+j]
			}
			want := 0.0
			if i == j {
				want = 1
			}
			require.InDelta(t, want, sum, 1e-10, "entry (%v, %v)", i, j)
		}
	}
}
