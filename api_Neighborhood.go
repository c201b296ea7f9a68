package submatrix

// FindElem returns the position of needle in the ascending slice haystack,
// or -1 if it is absent.
func FindElem(needle int, haystack []int) int {
	l, r := 0, len(haystack)
	for l < r {
		c := (l + r) / 2
		if haystack[c] == needle {
			return c
		}
		if haystack[c] < needle {
			l = c + 1
		} else {
			r = c
		}
	}
	return -1
}

// SelfPosition is the index of column i's diagonal entry within its own
// nonzero rows, or -1.
func (A *Matrix) SelfPosition(i int) int {
	return FindElem(i, A.Rows(i))
}

// Neighborhood builds the dense m×m submatrix S of the cross entries among the
// nonzero rows R of column i, S[k][l] = A[R[k]][R[l]], stored row-major in s.
// s is reused when it has enough capacity.
func (A *Matrix) Neighborhood(i int, s []float64) []float64 {
	rows := A.Rows(i)
	m := len(rows)
	if cap(s) < m*m {
		s = make([]float64, m*m)
	} else {
		s = s[:m*m]
		clear(s)
	}
	for l, lcal := range rows {
		colRows := A.Rows(lcal)
		colVals := A.Values(lcal)
		for k, kcal := range rows {
			if idx := FindElem(kcal, colRows); idx >= 0 {
				s[k*m+l] = colVals[idx]
			}
		}
	}
	return s
}
