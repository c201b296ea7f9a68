package matrixio_test

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pc2/SubmatrixMethod/matrixio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestName(t *testing.T) {
	assert.Equal(t, "sprandsym-s1000-d5-c10-n2", matrixio.Name("sprandsym", 1000, 5, 10, 2))
	assert.Equal(t, filepath.Join("dir", "m-s1-d2-c3-n0"), matrixio.Base("dir", "m", 1, 2, 3, 0))
}

func TestCSCRoundTrip(t *testing.T) {
	base := filepath.Join(t.TempDir(), "blocks")
	colPtr := []int{0, 2, 4, 6, 8}
	rowIndex := []int{0, 1, 0, 1, 2, 3, 2, 3}
	value := []float64{2, 1, 1, 2, 3, 1, 1, 2}
	require.NoError(t, matrixio.WriteCSC(base, colPtr, rowIndex, value))

	info, err := os.Stat(base + matrixio.ExtColPtr)
	require.NoError(t, err)
	assert.Equal(t, int64(4*5), info.Size())
	info, err = os.Stat(base + matrixio.ExtValue)
	require.NoError(t, err)
	assert.Equal(t, int64(8*8), info.Size())

	cp, ri, val, err := matrixio.ReadCSC(base, 4)
	require.NoError(t, err)
	assert.Equal(t, colPtr, cp)
	assert.Equal(t, rowIndex, ri)
	assert.Equal(t, value, val)
}

func TestReadCSCErrors(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "m")
	_, _, _, err := matrixio.ReadCSC(base, 2)
	var ioErr *matrixio.IoError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "open", ioErr.Op)
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	// a matrix announced larger than stored
	require.NoError(t, matrixio.WriteCSC(base, []int{0, 1}, []int{0}, []float64{1}))
	_, _, _, err = matrixio.ReadCSC(base, 3)
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "read", ioErr.Op)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestStatusRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m"+matrixio.ExtStatus)
	require.NoError(t, matrixio.WriteStatus(path, []uint8{0, 1, 2, 0}))
	st, err := matrixio.ReadStatus(path, 4)
	require.NoError(t, err)
	assert.Equal(t, []uint8{0, 1, 2, 0}, st)
}

func TestDense(t *testing.T) {
	a := []float64{
		2, 0, 0.5,
		0, 3, 0,
		0.5, 0, -1e-7,
	}
	var buf bytes.Buffer
	require.NoError(t, matrixio.WriteDense(&buf, 3, a))
	assert.Equal(t, "2.000000e+00,0.000000e+00,5.000000e-01\n", strings.SplitAfter(buf.String(), "\n")[0])

	got, nnz, err := matrixio.ReadDense[float64](&buf, 3)
	require.NoError(t, err)
	assert.Equal(t, a, got)
	assert.Equal(t, []int{2, 1, 2}, nnz)

	got32, _, err := matrixio.ReadDense[float32](strings.NewReader("1,2\n3,4\n"), 2)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3, 4}, got32)
}

func TestReadDenseErrors(t *testing.T) {
	for _, input := range []string{
		"1,2\n",
		"1,2\n3\n",
		"1,2\n3,x\n",
		"1,2\n3,4\n5,6\n",
	} {
		_, _, err := matrixio.ReadDense[float64](strings.NewReader(input), 2)
		assert.Error(t, err, "input %q", input)
	}
}
