package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"strconv"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	SM "github.com/pc2/SubmatrixMethod"
	"github.com/pc2/SubmatrixMethod/collective"
	"github.com/pc2/SubmatrixMethod/config"
	"github.com/pc2/SubmatrixMethod/logging"
	"github.com/pc2/SubmatrixMethod/metrics"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cmd := &cobra.Command{
		Use:   "selinv size density condition",
		Short: "Selected inversion of sparse symmetric matrices over a process group",
		Long: `selinv approximates the entries of the inverse of a sparse symmetric matrix
that lie in its sparsity pattern. Rank 0 reads the matrices of an evaluation
set, broadcasts them to the workers, gathers the result and writes it next to
the input. Workers take no positional arguments.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          run,
	}
	config.Flags(cmd.Flags())
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	var cfg config.Config
	if _, err := config.Load(cmd, &cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	opts := []logging.Option{logging.WithLogLevel(cfg.LogLevel), logging.WithLogFormat(cfg.LogFormat)}
	if cfg.Local == 0 {
		opts = append(opts, logging.WithRank(cfg.Rank))
	}
	ctx, err := logging.Init(cmd.Context(), opts...)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.CPUProfile != "" {
		f, err := os.Create(cfg.CPUProfile)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		defer f.Close()
		if err = pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	var rec *metrics.Recorder
	if cfg.MetricsAddr != "" {
		rec = metrics.New()
		go func() {
			if err := rec.Serve(ctx, cfg.MetricsAddr); err != nil {
				ctxzap.Extract(ctx).Error("metrics server failed", zap.Error(err))
			}
		}()
	}

	switch {
	case cfg.Local > 0:
		err = runLocal(ctx, &cfg, args, rec)
	case cfg.Rank == SM.CoordinatorRank:
		err = runCoordinator(ctx, &cfg, args, rec)
	case len(args) > 0:
		err = fmt.Errorf("%w: workers take no arguments, got %v", SM.ErrBadArguments, len(args))
	default:
		err = runWorker(ctx, &cfg, rec)
	}
	if err != nil {
		return err
	}

	if cfg.MemProfile != "" {
		f, err := os.Create(cfg.MemProfile)
		if err != nil {
			return fmt.Errorf("could not create memory profile: %w", err)
		}
		defer f.Close()
		runtime.GC()
		if err = pprof.WriteHeapProfile(f); err != nil {
			return fmt.Errorf("could not write memory profile: %w", err)
		}
	}
	return nil
}

// rounds expands the positional arguments into the evaluation loop.
func rounds(cfg *config.Config, args []string) ([]SM.Properties, error) {
	if len(args) != 3 {
		return nil, fmt.Errorf("%w: expected matrix_size density condition, got %v arguments", SM.ErrBadArguments, len(args))
	}
	var x [3]int
	for i, arg := range args {
		v, err := strconv.Atoi(arg)
		if err != nil || v < 0 {
			return nil, fmt.Errorf("%w: %q is not a non-negative integer", SM.ErrBadArguments, arg)
		}
		x[i] = v
	}
	var ps []SM.Properties
	for rep := 0; rep < cfg.Repetitions; rep++ {
		for choice := 0; choice < cfg.Choices; choice++ {
			ps = append(ps, SM.Properties{Size: x[0], Density: x[1], Condition: x[2], Choice: choice})
		}
	}
	return ps, nil
}

func newCoordinator(comm collective.Communicator, cfg *config.Config, rec *metrics.Recorder) *SM.Coordinator {
	return &SM.Coordinator{
		Comm:          comm,
		Store:         SM.FileStore{Dir: cfg.Dir, Prefix: cfg.Prefix},
		Metrics:       rec,
		CheckSymmetry: true,
		Residual:      cfg.Residual,
	}
}

func runLocal(ctx context.Context, cfg *config.Config, args []string, rec *metrics.Recorder) error {
	ps, err := rounds(cfg, args)
	if err != nil {
		return err
	}
	members := collective.NewLocalGroup(cfg.GroupSize())
	threads := max(1, cfg.ThreadCount()/cfg.Local)
	g, gctx := errgroup.WithContext(ctx)
	for rank := 1; rank < len(members); rank++ {
		w := &SM.Worker{Comm: members[rank], Threads: threads, Metrics: rec}
		g.Go(func() error {
			return w.Run(logging.WithFields(gctx, zap.Int("rank", rank)))
		})
	}
	g.Go(func() error {
		c := newCoordinator(members[SM.CoordinatorRank], cfg, rec)
		return c.Run(logging.WithFields(gctx, zap.Int("rank", SM.CoordinatorRank)), ps)
	})
	return g.Wait()
}

// runCoordinator checks the arguments before listening, so a bad command
// line fails without waiting for workers.
func runCoordinator(ctx context.Context, cfg *config.Config, args []string, rec *metrics.Recorder) error {
	ps, err := rounds(cfg, args)
	if err != nil {
		return err
	}
	l := ctxzap.Extract(ctx)
	server, err := collective.Listen(ctx, cfg.Coordinator, cfg.WorldSize, collective.Options{Compress: cfg.Compress, Session: cfg.Session})
	if err != nil {
		return err
	}
	l.Info("waiting for workers", zap.String("addr", server.Addr()), zap.Int("workers", cfg.WorldSize-1), zap.String("session", server.Session()))
	comm, err := server.Accept(ctx)
	if err != nil {
		return errors.Join(err, server.Close())
	}
	defer comm.Close()

	return newCoordinator(comm, cfg, rec).Run(ctx, ps)
}

func runWorker(ctx context.Context, cfg *config.Config, rec *metrics.Recorder) error {
	comm, err := collective.Dial(ctx, cfg.Coordinator, cfg.Rank, cfg.WorldSize, collective.Options{Compress: cfg.Compress, Session: cfg.Session})
	if err != nil {
		return err
	}
	defer comm.Close()
	w := &SM.Worker{Comm: comm, Threads: cfg.ThreadCount(), Metrics: rec}
	return w.Run(ctx)
}
