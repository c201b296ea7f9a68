package matrixio

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/exp/constraints"
)

// ReadDense parses an n×n matrix written as n lines of comma-separated
// values, row-major. It also returns the number of nonzeros of each column.
func ReadDense[T constraints.Float](r io.Reader, n int) (a []T, nnz []int, err error) {
	a = make([]T, n*n)
	nnz = make([]int, n)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1<<17), 1<<30)
	bits := 64
	var zero T
	if _, ok := any(zero).(float32); ok {
		bits = 32
	}
	i := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if i >= n {
			return nil, nil, fmt.Errorf("matrixio: more than %v rows", n)
		}
		fields := strings.Split(line, ",")
		if len(fields) != n {
			return nil, nil, fmt.Errorf("matrixio: row %v has %v values, expected %v", i, len(fields), n)
		}
		for j, field := range fields {
			x, err := strconv.ParseFloat(strings.TrimSpace(field), bits)
			if err != nil {
				return nil, nil, fmt.Errorf("matrixio: row %v column %v: %w", i, j, err)
			}
			if x != 0 {
				a[i*n+j] = T(x)
				nnz[j]++
			}
		}
		i++
	}
	if err = scanner.Err(); err != nil {
		return nil, nil, err
	}
	if i != n {
		return nil, nil, fmt.Errorf("matrixio: %v rows, expected %v", i, n)
	}
	return a, nnz, nil
}

// WriteDense writes a row-major n×n matrix as n lines of comma-separated
// values in scientific notation.
func WriteDense[T constraints.Float](w io.Writer, n int, a []T) error {
	bw := bufio.NewWriter(w)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			sep := ","
			if j == n-1 {
				sep = "\n"
			}
			if _, err := fmt.Fprintf(bw, "%e%s", a[i*n+j], sep); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}
