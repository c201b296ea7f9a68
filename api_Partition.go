package submatrix

import "fmt"

// ColumnRange is the half-open range of columns [First, Last).
type ColumnRange struct {
	First, Last int
}

func (r ColumnRange) Len() int {
	return r.Last - r.First
}

func (r ColumnRange) String() string {
	return fmt.Sprintf("[%v, %v)", r.First, r.Last)
}

// CoordinatorRank is the rank that owns the input and output and computes no
// columns.
const CoordinatorRank = 0

// WorkerRange returns the columns that rank computes in a process group of
// size worldSize over n columns. The n columns are split over the
// worldSize-1 workers in contiguous blocks of n/(worldSize-1) columns, and the
// last worker absorbs the remainder. The coordinator gets an empty range.
func WorkerRange(n, worldSize, rank int) (ColumnRange, error) {
	if worldSize < 2 {
		return ColumnRange{}, fmt.Errorf("%w: group size %v", ErrTooFewProcesses, worldSize)
	}
	if n < 0 || rank < 0 || rank >= worldSize {
		return ColumnRange{}, fmt.Errorf("%w: rank %v of %v over %v columns", ErrInvalidPartition, rank, worldSize, n)
	}
	if rank == CoordinatorRank {
		return ColumnRange{}, nil
	}
	workers := worldSize - 1
	base := n / workers
	r := ColumnRange{First: (rank - 1) * base, Last: rank * base}
	if rank == workers {
		r.Last = n
	}
	return r, nil
}

// PlanColumns returns the column range of every rank, indexed by rank.
func PlanColumns(n, worldSize int) ([]ColumnRange, error) {
	if worldSize < 2 {
		return nil, fmt.Errorf("%w: group size %v", ErrTooFewProcesses, worldSize)
	}
	ranges := make([]ColumnRange, worldSize)
	for rank := range ranges {
		r, err := WorkerRange(n, worldSize, rank)
		if err != nil {
			return nil, err
		}
		ranges[rank] = r
	}
	return ranges, nil
}

// GatherPlan places the contribution of each rank into a receive buffer:
// rank r contributes Counts[r] elements that land at offset Displs[r].
type GatherPlan struct {
	Displs, Counts []int
}

// Total is the length of the receive buffer.
func (p GatherPlan) Total() int {
	total := 0
	for r, c := range p.Counts {
		total = max(total, p.Displs[r]+c)
	}
	return total
}

// PlanValues derives the gather plan for nonzero values from the column
// pointers: a rank owning [First, Last) contributes
// colPtr[Last]-colPtr[First] values at offset colPtr[First].
func PlanValues(ranges []ColumnRange, colPtr []int) GatherPlan {
	p := GatherPlan{Displs: make([]int, len(ranges)), Counts: make([]int, len(ranges))}
	for rank, r := range ranges {
		if r.Len() == 0 {
			continue
		}
		p.Displs[rank] = colPtr[r.First]
		p.Counts[rank] = colPtr[r.Last] - colPtr[r.First]
	}
	return p
}

// PlanColumnStatus derives the gather plan for one element per column.
func PlanColumnStatus(ranges []ColumnRange) GatherPlan {
	p := GatherPlan{Displs: make([]int, len(ranges)), Counts: make([]int, len(ranges))}
	for rank, r := range ranges {
		if r.Len() == 0 {
			continue
		}
		p.Displs[rank] = r.First
		p.Counts[rank] = r.Len()
	}
	return p
}

// Imbalance is the ratio of the largest to the mean worker share of nonzeros.
// It is 1 for a perfectly balanced plan.
func (p GatherPlan) Imbalance() float64 {
	workers := len(p.Counts) - 1
	if workers < 1 {
		return 1
	}
	sum, largest := 0, 0
	for _, c := range p.Counts[1:] {
		sum += c
		largest = max(largest, c)
	}
	if sum == 0 {
		return 1
	}
	return float64(largest) * float64(workers) / float64(sum)
}
