package submatrix

import "math"

// Generate returns a random sparse symmetric n×n matrix. Each column receives
// about density percent off-diagonal nonzeros with values in [-1, 1], and the
// diagonal entry of each column exceeds the absolute sum of its off-diagonal
// entries by a margin of 1/condition of that sum (at least 1/condition), so
// the matrix and every principal submatrix are positive definite. The same
// arguments always yield the same matrix.
func Generate(n, density, condition int, seed uint64) (*Matrix, error) {
	if n < 0 || density < 0 || density > 100 || condition < 1 {
		return nil, ErrBadArguments
	}
	rnd := NewRandom(seed)
	perColumn := int(math.Round(float64(n-1) * float64(density) / 200))
	var rows, cols []int
	var vals []float64
	for j := 0; j < n; j++ {
		for t := 0; t < perColumn; t++ {
			i := rnd.Intn(n)
			if i == j {
				continue
			}
			v := 2*rnd.Float64() - 1
			rows = append(rows, i, j)
			cols = append(cols, j, i)
			vals = append(vals, v, v)
		}
	}
	offDiagonal, err := FromTriplets(n, rows, cols, vals)
	if err != nil {
		return nil, err
	}
	for j := 0; j < n; j++ {
		sum := 0.0
		for _, v := range offDiagonal.Values(j) {
			sum += math.Abs(v)
		}
		rows = append(rows, j)
		cols = append(cols, j)
		vals = append(vals, sum+max(sum, 1)/float64(condition))
	}
	A, err := FromTriplets(n, rows, cols, vals)
	if err != nil {
		return nil, err
	}
	A.SymmetricStructure = True
	A.SymmetricValues = True
	A.NDiag = n
	return A, nil
}
