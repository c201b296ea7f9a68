package MatrixMarket

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// Triplets is a matrix as parallel row, column and value slices with 0-based
// indices. Entries implied by symmetric storage are expanded.
type Triplets struct {
	NRows, NCols int
	Rows, Cols   []int
	Vals         []float64
}

type tripletBuilder struct {
	Triplets
	add func(row, col int, v float64)
}

func newTripletBuilder(header Header) *tripletBuilder {
	capacity := header.NVals
	if header.Storage != General {
		capacity *= 2
	}
	b := &tripletBuilder{Triplets: Triplets{
		NRows: header.NRows,
		NCols: header.NCols,
		Rows:  make([]int, 0, capacity),
		Cols:  make([]int, 0, capacity),
		Vals:  make([]float64, 0, capacity),
	}}
	switch header.Storage {
	case General:
		b.add = b.addGeneral
	case Symmetric:
		b.add = b.addSymmetric
	case SkewSymmetric:
		b.add = b.addSkewSymmetric
	}
	return b
}

func (b *tripletBuilder) addGeneral(row, col int, v float64) {
	b.Rows = append(b.Rows, row)
	b.Cols = append(b.Cols, col)
	b.Vals = append(b.Vals, v)
}

func (b *tripletBuilder) addSymmetric(row, col int, v float64) {
	b.addGeneral(row, col, v)
	if row != col {
		b.addGeneral(col, row, v)
	}
}

func (b *tripletBuilder) addSkewSymmetric(row, col int, v float64) {
	b.addGeneral(row, col, v)
	if row != col {
		b.addGeneral(col, row, -v)
	}
}

func (b *tripletBuilder) checkIndex(row, col int) error {
	if row < 0 || row >= b.NRows || col < 0 || col >= b.NCols {
		return formatErrorf("entry (%v, %v) outside a %v×%v matrix", row+1, col+1, b.NRows, b.NCols)
	}
	return nil
}

func parseValue(header Header, s string) (float64, error) {
	if header.Type == Integer {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, formatErrorf("invalid integer %q", s)
		}
		return float64(v), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, formatErrorf("invalid value %q", s)
	}
	return v, nil
}

// Read parses the entries following a header.
func Read(header Header, s *bufio.Scanner) (*Triplets, error) {
	b := newTripletBuilder(header)
	switch header.Format {
	case Coordinate:
		want := 3
		if header.Type == Pattern {
			want = 2
		}
		for nvals := 0; ; nvals++ {
			line, ok := nextDataLine(s)
			if !ok {
				if nvals < header.NVals {
					return nil, formatErrorf("%v coordinate lines, expected %v", nvals, header.NVals)
				}
				break
			}
			if nvals == header.NVals {
				return nil, formatErrorf("more than %v coordinate lines", header.NVals)
			}
			fields := strings.Fields(line)
			if len(fields) != want {
				return nil, formatErrorf("coordinate line %q has %v entries, expected %v", line, len(fields), want)
			}
			row, err1 := strconv.Atoi(fields[0])
			col, err2 := strconv.Atoi(fields[1])
			if err1 != nil || err2 != nil {
				return nil, formatErrorf("invalid coordinates in %q", line)
			}
			row, col = row-1, col-1
			if err := b.checkIndex(row, col); err != nil {
				return nil, err
			}
			v := 1.0
			if want == 3 {
				var err error
				if v, err = parseValue(header, fields[2]); err != nil {
					return nil, err
				}
			}
			b.add(row, col, v)
		}

	case Array:
		// Column-major; symmetric storage lists the lower triangle only. Zeros are
		// not stored.
		first := func(col int) int {
			switch header.Storage {
			case Symmetric:
				return col
			case SkewSymmetric:
				return col + 1
			}
			return 0
		}
		row, col := first(0), 0
		for col < header.NCols && row >= header.NRows {
			col++
			row = first(col)
		}
		for {
			line, ok := nextDataLine(s)
			if !ok {
				break
			}
			if col >= header.NCols {
				return nil, formatErrorf("too many array lines")
			}
			v, err := parseValue(header, line)
			if err != nil {
				return nil, err
			}
			if v != 0 {
				b.add(row, col, v)
			}
			for row++; col < header.NCols && row >= header.NRows; {
				col++
				row = first(col)
			}
		}
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return &b.Triplets, nil
}

// ReadAll reads a complete Matrix Market stream.
func ReadAll(r io.Reader) (*Triplets, error) {
	header, s, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	return Read(header, s)
}
