package submatrix

import "fmt"

// Assemble concatenates the contribution of every rank into one buffer, each
// part at the displacement the plan assigns to its rank.
func Assemble[T any](plan GatherPlan, parts [][]T) ([]T, error) {
	if len(parts) != len(plan.Counts) {
		return nil, fmt.Errorf("%w: %v parts for %v ranks", ErrInvalidPartition, len(parts), len(plan.Counts))
	}
	out := make([]T, plan.Total())
	for rank, part := range parts {
		if len(part) != plan.Counts[rank] {
			return nil, fmt.Errorf("%w: rank %v sent %v elements, expected %v", ErrInvalidPartition, rank, len(part), plan.Counts[rank])
		}
		copy(out[plan.Displs[rank]:], part)
	}
	return out, nil
}

// Slice is the inverse of Assemble: it returns the part of buf that belongs to
// each rank. The parts alias buf.
func Slice[T any](plan GatherPlan, buf []T) ([][]T, error) {
	if plan.Total() > len(buf) {
		return nil, fmt.Errorf("%w: buffer of %v elements, plan needs %v", ErrInvalidPartition, len(buf), plan.Total())
	}
	parts := make([][]T, len(plan.Counts))
	for rank, c := range plan.Counts {
		d := plan.Displs[rank]
		parts[rank] = buf[d : d+c : d+c]
	}
	return parts, nil
}

// Result is the output of one round: the selected inverse in the sparsity
// pattern of the input, together with the outcome of each column.
type Result struct {
	Inverse *Matrix
	Status  []Status
}

// Failed returns the columns whose neighborhood could not be inverted.
func (r *Result) Failed() (columns []int) {
	for j, s := range r.Status {
		if s != Computed {
			columns = append(columns, j)
		}
	}
	return
}
