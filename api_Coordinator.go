package submatrix

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/pc2/SubmatrixMethod/collective"
	"github.com/pc2/SubmatrixMethod/metrics"
	"go.uber.org/zap"
)

// TransportError is a failed collective operation. After a TransportError
// the members of the group no longer agree on the next message, so no
// shutdown can be sent.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("submatrix: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func transportError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &TransportError{Op: op, Err: err}
}

// Number of columns sampled for the neighborhood size estimate of a round.
const columnSamples = 64

// Coordinator drives the rounds of a process group from rank 0. It loads each
// matrix, broadcasts it, gathers the selected inverse computed by the workers
// and persists it.
type Coordinator struct {
	Comm    collective.Communicator
	Store   ProblemStore
	Metrics *metrics.Recorder

	// CheckSymmetry verifies the symmetry of each matrix before broadcasting it.
	CheckSymmetry bool
	// Residual logs the residual of each result.
	Residual bool
}

// Run performs one round per element of rounds and then shuts the workers
// down. A group of fewer than two processes is rejected before anything is
// sent.
func (c *Coordinator) Run(ctx context.Context, rounds []Properties) error {
	if c.Comm.Size() < 2 {
		return fmt.Errorf("%w: group size %v", ErrTooFewProcesses, c.Comm.Size())
	}
	if c.Comm.Rank() != CoordinatorRank {
		return fmt.Errorf("%w: coordinator runs on rank %v, not %v", ErrBadArguments, CoordinatorRank, c.Comm.Rank())
	}
	for _, p := range rounds {
		if _, err := c.Round(ctx, p); err != nil {
			var te *TransportError
			if errors.As(err, &te) {
				return err
			}
			return errors.Join(err, c.Shutdown(ctx))
		}
	}
	return c.Shutdown(ctx)
}

// Shutdown tells every worker to leave its loop and waits for all of them at a
// barrier.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	ctxzap.Extract(ctx).Info("shutting down workers")
	if _, err := c.Comm.Bcast(ctx, CoordinatorRank, EncodeMessage(Shutdown{})); err != nil {
		return transportError("broadcast shutdown", err)
	}
	return transportError("barrier", c.Comm.Barrier(ctx))
}

// Round computes the selected inverse of the matrix with properties p.
func (c *Coordinator) Round(ctx context.Context, p Properties) (*Result, error) {
	ctx = ctxzap.ToContext(ctx, ctxzap.Extract(ctx).With(
		zap.String("round", uuid.NewString()),
		zap.Int("size", p.Size),
		zap.Int("density", p.Density),
		zap.Int("condition", p.Condition),
		zap.Int("choice", p.Choice),
	))
	l := ctxzap.Extract(ctx)

	A, err := c.Store.Load(ctx, p)
	if err != nil {
		return nil, err
	}
	if err = A.Check(); err != nil {
		return nil, err
	}
	if c.CheckSymmetry {
		if err = A.CheckSymmetric(); err != nil {
			return nil, err
		}
		if err = A.PropertyNDiag(); err != nil {
			return nil, err
		}
		if A.NDiag < A.N {
			l.Warn("columns without diagonal entry will not be computed", zap.Int("missing", A.N-A.NDiag))
		}
	}
	size := c.Comm.Size()
	ranges, err := PlanColumns(A.N, size)
	if err != nil {
		return nil, err
	}
	valuePlan := PlanValues(ranges, A.ColPtr)
	statusPlan := PlanColumnStatus(ranges)

	workers := size - 1
	mean, median := A.SampleColumnSize(columnSamples, uint64(p.Choice))
	l.Info("starting round",
		zap.Int("nnz", A.NNZ()),
		zap.Int("workers", workers),
		zap.Int("columns_per_worker", A.N/workers),
		zap.Float64("sampled_mean_neighborhood", mean),
		zap.Float64("sampled_median_neighborhood", median))
	if rest := A.N % workers; rest != 0 {
		l.Warn("columns do not divide evenly, last worker takes the remainder",
			zap.Int("extra_columns", rest),
			zap.Stringer("last_range", ranges[workers]))
	}

	start := time.Now()
	if err = c.broadcast(ctx, Work{Properties{Size: A.N, Density: p.Density, Condition: p.Condition, Choice: p.Choice}}, A); err != nil {
		return nil, err
	}
	bcast := time.Since(start)

	start = time.Now()
	valueParts, err := collective.GatherFloat64s(ctx, c.Comm, CoordinatorRank, nil)
	if err != nil {
		return nil, transportError("gather values", err)
	}
	statusParts, err := c.Comm.Gather(ctx, CoordinatorRank, nil)
	if err != nil {
		return nil, transportError("gather status", err)
	}
	gather := time.Since(start)

	value, err := Assemble(valuePlan, valueParts)
	if err != nil {
		return nil, err
	}
	status, err := Assemble(statusPlan, bytesToStatus(statusParts))
	if err != nil {
		return nil, err
	}
	result := &Result{Inverse: A.WithValues(value), Status: status}

	counts := make(map[Status]int)
	for _, st := range status {
		counts[st]++
	}
	for st, n := range counts {
		c.Metrics.CountColumns(st.String(), n)
	}
	c.Metrics.ObservePhase(metrics.PhaseBroadcast, bcast)
	c.Metrics.ObservePhase(metrics.PhaseGather, gather)
	l.Info("round gathered",
		zap.Duration("bcast_duration", bcast),
		zap.Duration("gather_duration", gather),
		zap.Int("failed_columns", A.N-counts[Computed]))

	if c.Residual {
		fro, maxAbs := Residual(A, result.Inverse)
		l.Info("residual", zap.Float64("frobenius", fro), zap.Float64("max_abs", maxAbs))
	}

	start = time.Now()
	if err = c.Store.Store(ctx, p, result); err != nil {
		return nil, err
	}
	c.Metrics.ObservePhase(metrics.PhaseStore, time.Since(start))
	c.Metrics.RoundDone(valuePlan.Imbalance())
	return result, nil
}

func (c *Coordinator) broadcast(ctx context.Context, m Message, A *Matrix) error {
	if _, err := c.Comm.Bcast(ctx, CoordinatorRank, EncodeMessage(m)); err != nil {
		return transportError("broadcast work", err)
	}
	if _, err := collective.BcastInts(ctx, c.Comm, CoordinatorRank, A.ColPtr); err != nil {
		return transportError("broadcast column pointers", err)
	}
	if _, err := collective.BcastInts(ctx, c.Comm, CoordinatorRank, A.RowIndex); err != nil {
		return transportError("broadcast row indices", err)
	}
	if _, err := collective.BcastFloat64s(ctx, c.Comm, CoordinatorRank, A.Value); err != nil {
		return transportError("broadcast values", err)
	}
	return nil
}

func statusToBytes(status []Status) []byte {
	buf := make([]byte, len(status))
	for j, st := range status {
		buf[j] = byte(st)
	}
	return buf
}

func bytesToStatus(parts [][]byte) [][]Status {
	out := make([][]Status, len(parts))
	for rank, part := range parts {
		out[rank] = make([]Status, len(part))
		for j, b := range part {
			out[rank][j] = Status(b)
		}
	}
	return out
}

// Worker computes its share of the columns of every round broadcast by the
// coordinator until it receives Shutdown.
type Worker struct {
	Comm     collective.Communicator
	Threads  int
	Inverter Inverter
	Metrics  *metrics.Recorder
}

func (w *Worker) Run(ctx context.Context) error {
	if w.Comm.Rank() == CoordinatorRank {
		return fmt.Errorf("%w: worker on the coordinator rank", ErrBadArguments)
	}
	l := ctxzap.Extract(ctx)
	for {
		buf, err := w.Comm.Bcast(ctx, CoordinatorRank, nil)
		if err != nil {
			return transportError("receive message", err)
		}
		msg, err := DecodeMessage(buf)
		if err != nil {
			return err
		}
		switch m := msg.(type) {
		case Shutdown:
			l.Debug("received shutdown")
			return transportError("barrier", w.Comm.Barrier(ctx))
		case Work:
			if err = w.round(ctx, m.Properties); err != nil {
				return err
			}
		}
	}
}

func (w *Worker) round(ctx context.Context, p Properties) error {
	l := ctxzap.Extract(ctx)
	colPtr, err := collective.BcastInts(ctx, w.Comm, CoordinatorRank, nil)
	if err != nil {
		return transportError("receive column pointers", err)
	}
	rowIndex, err := collective.BcastInts(ctx, w.Comm, CoordinatorRank, nil)
	if err != nil {
		return transportError("receive row indices", err)
	}
	value, err := collective.BcastFloat64s(ctx, w.Comm, CoordinatorRank, nil)
	if err != nil {
		return transportError("receive values", err)
	}
	A := New(p.Size, colPtr, rowIndex, value)
	if err = A.Check(); err != nil {
		return err
	}

	r, err := WorkerRange(A.N, w.Comm.Size(), w.Comm.Rank())
	if err != nil {
		return err
	}
	inv := w.Inverter
	if inv == nil {
		inv = LUInverter{}
	}
	budget := PlanThreads(w.Threads, r.Len())
	res, err := InvertRange(ctx, A, r, budget, inv)
	if err != nil {
		return err
	}
	st := res.Stats
	l.Info("columns computed",
		zap.Stringer("range", r),
		zap.Int("columns", st.Columns),
		zap.Int("failed", st.Failed),
		zap.Int("threads", budget.Threads),
		zap.Int("tasks", budget.Tasks),
		zap.Int("threads_per_inversion", budget.ThreadsPerInversion),
		zap.Duration("wall", st.Wall),
		zap.Duration("cpu_build", st.Build),
		zap.Duration("cpu_calc", st.Calc))
	w.Metrics.ObservePhase(metrics.PhaseWall, st.Wall)
	w.Metrics.ObservePhase(metrics.PhaseBuild, st.Build)
	w.Metrics.ObservePhase(metrics.PhaseCalc, st.Calc)

	if _, err = collective.GatherFloat64s(ctx, w.Comm, CoordinatorRank, res.Values); err != nil {
		return transportError("send values", err)
	}
	if _, err = w.Comm.Gather(ctx, CoordinatorRank, statusToBytes(res.Status)); err != nil {
		return transportError("send status", err)
	}
	return nil
}
