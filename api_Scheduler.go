package submatrix

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Stats summarizes the work of one worker in one round. Build and Calc are
// summed over all column tasks, so they exceed Wall when tasks overlap.
type Stats struct {
	Columns int
	Failed  int
	Budget  Budget
	Wall    time.Duration
	Build   time.Duration
	Calc    time.Duration
}

// RangeResult holds the selected inverse entries of a column range, laid out
// like A.Value[A.ColPtr[First]:A.ColPtr[Last]], and the status of each column.
type RangeResult struct {
	Range  ColumnRange
	Values []float64
	Status []Status
	Stats  Stats
}

// InvertColumn computes column i of the selected inverse into out, which must
// have A.ColumnSize(i) elements. On failure out is filled with NaN.
func (A *Matrix) InvertColumn(i int, out []float64, threads int, inv Inverter) (status Status, build, calc time.Duration) {
	k0 := A.SelfPosition(i)
	if k0 < 0 {
		fillNaN(out)
		return MissingDiagonal, 0, 0
	}
	m := A.ColumnSize(i)
	start := time.Now()
	s := A.Neighborhood(i, nil)
	build = time.Since(start)

	start = time.Now()
	err := inv.Invert(s, m, threads)
	calc = time.Since(start)
	if err != nil {
		fillNaN(out)
		return Singular, build, calc
	}
	copy(out, s[k0*m:(k0+1)*m])
	return Computed, build, calc
}

func fillNaN(out []float64) {
	for k := range out {
		out[k] = math.NaN()
	}
}

// InvertRange computes the columns of r with dynamic scheduling: each column
// is one task, and at most budget.Tasks tasks run at a time. Tasks are started
// largest neighborhood first. A column that fails is recorded in the status
// slice and does not stop the others. Budget fields below 1 count as 1.
func InvertRange(ctx context.Context, A *Matrix, r ColumnRange, budget Budget, inv Inverter) (*RangeResult, error) {
	if r.First < 0 || r.Last > A.N || r.First > r.Last {
		return nil, ErrInvalidPartition
	}
	logger := ctxzap.Extract(ctx)
	base := A.ColPtr[r.First]
	result := &RangeResult{
		Range:  r,
		Values: make([]float64, A.ColPtr[r.Last]-base),
		Status: make([]Status, r.Len()),
	}
	var build, calc atomic.Int64
	var failed atomic.Int32

	start := time.Now()
	var g errgroup.Group
	budget.Tasks = max(1, budget.Tasks)
	budget.ThreadsPerInversion = max(1, budget.ThreadsPerInversion)
	budget.Threads = max(budget.Tasks, budget.Threads)
	g.SetLimit(budget.Tasks)
	for _, i := range A.SortBySize(r, false) {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			out := result.Values[A.ColPtr[i]-base : A.ColPtr[i+1]-base]
			status, b, c := A.InvertColumn(i, out, budget.ThreadsPerInversion, inv)
			result.Status[i-r.First] = status
			build.Add(int64(b))
			calc.Add(int64(c))
			if status != Computed {
				failed.Add(1)
				logger.Warn("column not computed",
					zap.Int("column", i),
					zap.Int("neighborhood", A.ColumnSize(i)),
					zap.Stringer("status", status))
			}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result.Stats = Stats{
		Columns: r.Len(),
		Failed:  int(failed.Load()),
		Budget:  budget,
		Wall:    time.Since(start),
		Build:   time.Duration(build.Load()),
		Calc:    time.Duration(calc.Load()),
	}
	return result, nil
}
