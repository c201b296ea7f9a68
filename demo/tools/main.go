package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	SM "github.com/pc2/SubmatrixMethod"
	"github.com/pc2/SubmatrixMethod/config"
	"github.com/pc2/SubmatrixMethod/logging"
	"github.com/pc2/SubmatrixMethod/matrixio"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	root := &cobra.Command{
		Use:           "tools",
		Short:         "Generate, convert and evaluate matrices of the selected inversion runs",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level, _ := cmd.Flags().GetString("log-level")
			ctx, err := logging.Init(cmd.Context(), logging.WithLogLevel(level), logging.WithLogFormat(logging.LogFormatConsole))
			if err != nil {
				return err
			}
			cmd.SetContext(ctx)
			return nil
		},
	}
	root.PersistentFlags().String("log-level", "info", "log level")
	root.AddCommand(generateCmd(), denseToCSCCmd(), cscToDenseCmd(), mtxToCSCCmd(), denseInverseCmd(), residualCmd())
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func atoi(args []string) ([]int, error) {
	out := make([]int, len(args))
	for i, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil || v < 0 {
			return nil, fmt.Errorf("%w: %q is not a non-negative integer", SM.ErrBadArguments, a)
		}
		out[i] = v
	}
	return out, nil
}

func generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate size density condition",
		Short: "Write random sparse symmetric matrices of an evaluation set",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			x, err := atoi(args)
			if err != nil {
				return err
			}
			dir, _ := cmd.Flags().GetString("dir")
			prefix, _ := cmd.Flags().GetString("prefix")
			choices, _ := cmd.Flags().GetInt("choices")
			seed, _ := cmd.Flags().GetUint64("seed")
			if err = os.MkdirAll(dir, 0o755); err != nil {
				return &matrixio.IoError{Op: "mkdir", Path: dir, Err: err}
			}
			store := SM.FileStore{Dir: dir, Prefix: prefix}
			l := ctxzap.Extract(cmd.Context())
			for choice := 0; choice < choices; choice++ {
				p := SM.Properties{Size: x[0], Density: x[1], Condition: x[2], Choice: choice}
				A, err := SM.Generate(p.Size, p.Density, p.Condition, seed+uint64(choice))
				if err != nil {
					return err
				}
				if err = store.Save(p, A); err != nil {
					return err
				}
				l.Info("generated", zap.String("base", store.Base(p)), zap.Int("nnz", A.NNZ()), zap.Int("max_neighborhood", A.MaxColumnSize()))
			}
			return nil
		},
	}
	cmd.Flags().String("dir", "sprandsym", "output directory")
	cmd.Flags().String("prefix", "sprandsym", "file name prefix")
	cmd.Flags().Int("choices", 1, "number of matrices")
	cmd.Flags().Uint64("seed", 1, "seed of the first matrix; matrix n uses seed+n")
	return cmd
}

func readDenseFile(path string, n int) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &matrixio.IoError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()
	a, _, err := matrixio.ReadDense[float64](f, n)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", path, err)
	}
	return a, nil
}

func writeDenseFile(path string, n int, a []float64) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return &matrixio.IoError{Op: "create", Path: path, Err: err}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = &matrixio.IoError{Op: "close", Path: path, Err: cerr}
		}
	}()
	if err = matrixio.WriteDense(f, n, a); err != nil {
		return &matrixio.IoError{Op: "write", Path: path, Err: err}
	}
	return nil
}

func denseToCSCCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dense2csc input.txt size output-base",
		Short: "Convert a dense text matrix to the binary compressed sparse column triple",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			x, err := atoi(args[1:2])
			if err != nil {
				return err
			}
			a, err := readDenseFile(args[0], x[0])
			if err != nil {
				return err
			}
			A := SM.FromDense(x[0], a)
			ctxzap.Extract(cmd.Context()).Info("converted", zap.Int("nnz", A.NNZ()))
			return matrixio.WriteCSC(args[2], A.ColPtr, A.RowIndex, A.Value)
		},
	}
}

func cscToDenseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "csc2dense input-base size output.txt",
		Short: "Convert a binary compressed sparse column triple to a dense text matrix",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			x, err := atoi(args[1:2])
			if err != nil {
				return err
			}
			colPtr, rowIndex, value, err := matrixio.ReadCSC(args[0], x[0])
			if err != nil {
				return err
			}
			A := SM.New(x[0], colPtr, rowIndex, value)
			if err = A.Check(); err != nil {
				return err
			}
			return writeDenseFile(args[2], A.N, A.Dense())
		},
	}
}

func mtxToCSCCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mtx2csc input.mtx output-base",
		Short: "Convert a Matrix Market file to the binary compressed sparse column triple",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			A, err := SM.ReadProblem(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err = A.CheckSymmetric(); err != nil {
				ctxzap.Extract(cmd.Context()).Warn("matrix is not symmetric", zap.Error(err))
			}
			ctxzap.Extract(cmd.Context()).Info("converted", zap.Int("size", A.N), zap.Int("nnz", A.NNZ()))
			return matrixio.WriteCSC(args[1], A.ColPtr, A.RowIndex, A.Value)
		},
	}
}

func denseInverseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dense-inverse input.txt size output.txt",
		Short: "Invert a dense text matrix exactly",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			x, err := atoi(args[1:2])
			if err != nil {
				return err
			}
			n := x[0]
			a, err := readDenseFile(args[0], n)
			if err != nil {
				return err
			}
			if err = (SM.LUInverter{}).Invert(a, n, config.AvailableThreads()); err != nil {
				return err
			}
			return writeDenseFile(args[2], n, a)
		},
	}
}

func residualCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "residual input-base size",
		Short: "Report how far a computed selected inverse is from the inverse",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			x, err := atoi(args[1:2])
			if err != nil {
				return err
			}
			colPtr, rowIndex, value, err := matrixio.ReadCSC(args[0], x[0])
			if err != nil {
				return err
			}
			A := SM.New(x[0], colPtr, rowIndex, value)
			if err = A.Check(); err != nil {
				return err
			}
			inverse, err := matrixio.ReadValues(args[0]+matrixio.ExtOutputValue, A.NNZ())
			if err != nil {
				return err
			}
			fro, maxAbs := SM.Residual(A, A.WithValues(inverse))
			ctxzap.Extract(cmd.Context()).Info("residual", zap.Float64("frobenius", fro), zap.Float64("max_abs", maxAbs))
			fmt.Printf("%e,%e\n", fro, maxAbs)
			return nil
		},
	}
}
