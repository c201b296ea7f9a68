// Package matrixio reads and writes the file formats of the selected
// inversion runs: a sparse matrix as three flat binary files in native byte
// order (column pointers, row indices, values) and a dense matrix as
// comma-separated text.
package matrixio

import (
	"fmt"
	"path/filepath"
)

// IoError records a failed file operation.
type IoError struct {
	Op   string
	Path string
	Err  error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("matrixio: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IoError) Unwrap() error {
	return e.Err
}

// File name extensions of the sparse triple and the outputs.
const (
	ExtColPtr      = ".cp"
	ExtRowIndex    = ".ri"
	ExtValue       = ".val"
	ExtOutputValue = ".out.val"
	ExtStatus      = ".out.st"
)

// Name is the base name of one matrix of the evaluation set.
func Name(prefix string, size, density, condition, choice int) string {
	return fmt.Sprintf("%s-s%d-d%d-c%d-n%d", prefix, size, density, condition, choice)
}

// Base joins dir and the base name of one matrix of the evaluation set.
func Base(dir, prefix string, size, density, condition, choice int) string {
	return filepath.Join(dir, Name(prefix, size, density, condition, choice))
}
