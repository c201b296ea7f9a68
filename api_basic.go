package submatrix

import "errors"

type Boolean int

const (
	False Boolean = iota
	True
	Unknown
)

func (b Boolean) String() string {
	switch b {
	case False:
		return "false"
	case True:
		return "true"
	case Unknown:
		return "unknown"
	}
	panic("invalid boolean")
}

// Status is the outcome of inverting the neighborhood of one column.
type Status uint8

const (
	Computed Status = iota
	Singular
	MissingDiagonal
)

func (s Status) String() string {
	switch s {
	case Computed:
		return "computed"
	case Singular:
		return "singular"
	case MissingDiagonal:
		return "missing diagonal"
	}
	return "invalid status"
}

var (
	ErrInvalidMatrix    = errors.New("submatrix: invalid compressed sparse column matrix")
	ErrNotSymmetric     = errors.New("submatrix: matrix is not structurally symmetric")
	ErrSingular         = errors.New("submatrix: singular neighborhood matrix")
	ErrMissingDiagonal  = errors.New("submatrix: column does not contain its diagonal entry")
	ErrTooFewProcesses  = errors.New("submatrix: process group needs a coordinator and at least one worker")
	ErrInvalidPartition = errors.New("submatrix: invalid partition")
	ErrBadArguments     = errors.New("submatrix: bad arguments")
)
