package matrixio

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"golang.org/x/exp/constraints"
)

// Index is the on-disk integer type of column pointers and row indices.
type Index = int32

type element interface {
	constraints.Integer | constraints.Float
}

func readArray[T element](path string, count int) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IoError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()
	out := make([]T, count)
	if err = binary.Read(bufio.NewReader(f), binary.NativeEndian, out); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, &IoError{Op: "read", Path: path, Err: err}
	}
	return out, nil
}

func writeArray[T element](path string, data []T) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return &IoError{Op: "create", Path: path, Err: err}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = &IoError{Op: "close", Path: path, Err: cerr}
		}
	}()
	w := bufio.NewWriter(f)
	if err = binary.Write(w, binary.NativeEndian, data); err != nil {
		return &IoError{Op: "write", Path: path, Err: err}
	}
	if err = w.Flush(); err != nil {
		return &IoError{Op: "write", Path: path, Err: err}
	}
	return nil
}

func toInts(v []Index) []int {
	out := make([]int, len(v))
	for i, x := range v {
		out[i] = int(x)
	}
	return out
}

func toIndices(path string, v []int) ([]Index, error) {
	out := make([]Index, len(v))
	for i, x := range v {
		if x < math.MinInt32 || x > math.MaxInt32 {
			return nil, &IoError{Op: "encode", Path: path, Err: fmt.Errorf("index %v out of range", x)}
		}
		out[i] = Index(x)
	}
	return out, nil
}

// ReadCSC reads the n×n sparse matrix stored under base. The number of
// nonzeros is taken from the last column pointer.
func ReadCSC(base string, n int) (colPtr, rowIndex []int, value []float64, err error) {
	if n < 0 {
		return nil, nil, nil, &IoError{Op: "read", Path: base, Err: fmt.Errorf("negative size %v", n)}
	}
	cp, err := readArray[Index](base+ExtColPtr, n+1)
	if err != nil {
		return
	}
	colPtr = toInts(cp)
	nnz := colPtr[n]
	if nnz < 0 {
		return nil, nil, nil, &IoError{Op: "read", Path: base + ExtColPtr, Err: fmt.Errorf("negative nonzero count %v", nnz)}
	}
	ri, err := readArray[Index](base+ExtRowIndex, nnz)
	if err != nil {
		return nil, nil, nil, err
	}
	rowIndex = toInts(ri)
	if value, err = ReadValues(base+ExtValue, nnz); err != nil {
		return nil, nil, nil, err
	}
	return
}

// WriteCSC stores a sparse matrix as the three files of base.
func WriteCSC(base string, colPtr, rowIndex []int, value []float64) error {
	cp, err := toIndices(base+ExtColPtr, colPtr)
	if err != nil {
		return err
	}
	ri, err := toIndices(base+ExtRowIndex, rowIndex)
	if err != nil {
		return err
	}
	if err = writeArray(base+ExtColPtr, cp); err != nil {
		return err
	}
	if err = writeArray(base+ExtRowIndex, ri); err != nil {
		return err
	}
	return WriteValues(base+ExtValue, value)
}

func ReadValues(path string, nnz int) ([]float64, error) {
	return readArray[float64](path, nnz)
}

func WriteValues(path string, value []float64) error {
	return writeArray(path, value)
}

// ReadStatus reads one status byte per column.
func ReadStatus(path string, n int) ([]uint8, error) {
	return readArray[uint8](path, n)
}

func WriteStatus(path string, status []uint8) error {
	return writeArray(path, status)
}
