package submatrix

import (
	"context"
	"fmt"
	"os"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/pc2/SubmatrixMethod/MatrixMarket"
	"github.com/pc2/SubmatrixMethod/matrixio"
	"go.uber.org/zap"
)

// ProblemStore provides the input matrix of a round and persists its result.
type ProblemStore interface {
	Load(ctx context.Context, p Properties) (*Matrix, error)
	Store(ctx context.Context, p Properties, r *Result) error
}

// FileStore keeps the evaluation set as binary triples in Dir, named after
// their properties.
type FileStore struct {
	Dir, Prefix string
}

func (s FileStore) Base(p Properties) string {
	return matrixio.Base(s.Dir, s.Prefix, p.Size, p.Density, p.Condition, p.Choice)
}

func (s FileStore) Load(ctx context.Context, p Properties) (*Matrix, error) {
	base := s.Base(p)
	ctxzap.Extract(ctx).Debug("reading matrix", zap.String("base", base), zap.Int("size", p.Size))
	colPtr, rowIndex, value, err := matrixio.ReadCSC(base, p.Size)
	if err != nil {
		return nil, err
	}
	A := New(p.Size, colPtr, rowIndex, value)
	if err = A.Check(); err != nil {
		return nil, fmt.Errorf("%v: %w", base, err)
	}
	return A, nil
}

func (s FileStore) Store(ctx context.Context, p Properties, r *Result) error {
	base := s.Base(p)
	ctxzap.Extract(ctx).Debug("writing result", zap.String("base", base))
	if err := matrixio.WriteValues(base+matrixio.ExtOutputValue, r.Inverse.Value); err != nil {
		return err
	}
	status := make([]uint8, len(r.Status))
	for j, st := range r.Status {
		status[j] = uint8(st)
	}
	return matrixio.WriteStatus(base+matrixio.ExtStatus, status)
}

// Save writes A as the input triple of p.
func (s FileStore) Save(p Properties, A *Matrix) error {
	return matrixio.WriteCSC(s.Base(p), A.ColPtr, A.RowIndex, A.Value)
}

// LoadResult reads back a result written by Store; A supplies the pattern.
func (s FileStore) LoadResult(p Properties, A *Matrix) (*Result, error) {
	base := s.Base(p)
	value, err := matrixio.ReadValues(base+matrixio.ExtOutputValue, A.NNZ())
	if err != nil {
		return nil, err
	}
	raw, err := matrixio.ReadStatus(base+matrixio.ExtStatus, A.N)
	if err != nil {
		return nil, err
	}
	status := make([]Status, len(raw))
	for j, st := range raw {
		status[j] = Status(st)
	}
	return &Result{Inverse: A.WithValues(value), Status: status}, nil
}

// ReadProblem reads a square Matrix Market file.
func ReadProblem(ctx context.Context, filename string) (A *Matrix, functionErr error) {
	ctxzap.Extract(ctx).Info("reading matrix market file", zap.String("file", filename))
	f, err := os.Open(filename)
	if err != nil {
		functionErr = &matrixio.IoError{Op: "open", Path: filename, Err: err}
		return
	}
	defer func() {
		if err := f.Close(); err != nil && functionErr == nil {
			functionErr = &matrixio.IoError{Op: "close", Path: filename, Err: err}
		}
	}()
	t, err := MatrixMarket.ReadAll(f)
	if err != nil {
		functionErr = fmt.Errorf("%v: %w", filename, err)
		return
	}
	if t.NRows != t.NCols {
		functionErr = fmt.Errorf("%w: %v is %v×%v, must be square", ErrInvalidMatrix, filename, t.NRows, t.NCols)
		return
	}
	return FromTriplets(t.NRows, t.Rows, t.Cols, t.Vals)
}
