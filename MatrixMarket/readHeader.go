// Package MatrixMarket reads real, integer and pattern matrices in the Matrix
// Market exchange format as coordinate triplets.
package MatrixMarket

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

type (
	Format  int
	Type    int
	Storage int
)

const (
	Coordinate Format = iota
	Array
)

const (
	Real Type = iota
	Complex
	Pattern
	Integer
)

const (
	General Storage = iota
	Hermitian
	Symmetric
	SkewSymmetric
)

var (
	formats  = map[string]Format{"coordinate": Coordinate, "array": Array}
	types    = map[string]Type{"real": Real, "complex": Complex, "pattern": Pattern, "integer": Integer}
	storages = map[string]Storage{"general": General, "hermitian": Hermitian, "symmetric": Symmetric, "skew-symmetric": SkewSymmetric}
)

// GraphBLAS type annotations that may follow the banner. Entries are read as
// float64 regardless of the annotated type.
var graphBLASTypes = map[string]bool{
	"GrB_BOOL": true, "GrB_INT8": true, "GrB_INT16": true, "GrB_INT32": true, "GrB_INT64": true,
	"GrB_UINT8": true, "GrB_UINT16": true, "GrB_UINT32": true, "GrB_UINT64": true,
	"GrB_FP32": true, "GrB_FP64": true,
}

var ErrFormat = errors.New("Matrix Market format error")

type Header struct {
	Format              Format
	Type                Type
	Storage             Storage
	NRows, NCols, NVals int
}

func formatErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrFormat, fmt.Sprintf(format, args...))
}

func lookup[T any](table map[string]T, what, s string) (T, error) {
	v, ok := table[strings.ToLower(s)]
	if !ok {
		return v, formatErrorf("unknown %v %q in banner", what, s)
	}
	return v, nil
}

// nextDataLine skips comments and blank lines.
func nextDataLine(s *bufio.Scanner) (string, bool) {
	for s.Scan() {
		text := strings.TrimSpace(s.Text())
		if text == "" || strings.HasPrefix(text, "%") {
			continue
		}
		return text, true
	}
	return "", false
}

func parseSizes(line string, count int) ([]int, error) {
	fields := strings.Fields(line)
	if len(fields) != count {
		return nil, formatErrorf("size line %q has %v entries, expected %v", line, len(fields), count)
	}
	sizes := make([]int, count)
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 0 {
			return nil, formatErrorf("invalid size %q", f)
		}
		sizes[i] = n
	}
	return sizes, nil
}

// ReadHeader parses the banner, an optional %%GraphBLAS annotation and the
// size line. The returned scanner is positioned at the first entry.
func ReadHeader(r io.Reader) (header Header, scanner *bufio.Scanner, err error) {
	s := bufio.NewScanner(r)
	if !s.Scan() {
		err = formatErrorf("banner missing")
		return
	}
	fields := strings.Fields(s.Text())
	if len(fields) != 5 || fields[0] != "%%MatrixMarket" || fields[1] != "matrix" {
		err = formatErrorf("invalid banner %q", s.Text())
		return
	}
	if header.Format, err = lookup(formats, "format", fields[2]); err != nil {
		return
	}
	if header.Type, err = lookup(types, "type", fields[3]); err != nil {
		return
	}
	if header.Storage, err = lookup(storages, "storage", fields[4]); err != nil {
		return
	}
	if header.Type == Complex || header.Storage == Hermitian {
		err = formatErrorf("complex matrices are not supported")
		return
	}
	if header.Format == Array && header.Type == Pattern {
		err = formatErrorf("array format not supported for pattern type")
		return
	}

	var line string
	for s.Scan() {
		text := strings.TrimSpace(s.Text())
		if strings.HasPrefix(text, "%%GraphBLAS") {
			if f := strings.Fields(text); len(f) != 2 || !graphBLASTypes[f[1]] {
				err = formatErrorf("unsupported GraphBLAS annotation %q", text)
				return
			}
			continue
		}
		if text == "" || strings.HasPrefix(text, "%") {
			continue
		}
		line = text
		break
	}
	if line == "" {
		err = formatErrorf("size line missing")
		return
	}

	switch header.Format {
	case Coordinate:
		var sizes []int
		if sizes, err = parseSizes(line, 3); err != nil {
			return
		}
		header.NRows, header.NCols, header.NVals = sizes[0], sizes[1], sizes[2]
	case Array:
		var sizes []int
		if sizes, err = parseSizes(line, 2); err != nil {
			return
		}
		header.NRows, header.NCols = sizes[0], sizes[1]
		header.NVals = header.NRows * header.NCols
	}
	return header, s, nil
}
