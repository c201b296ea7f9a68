package submatrix

import (
	"github.com/intel/forGoParallel/parallel"
	GrB "github.com/intel/forGraphBLASGo/GrB"
)

// GraphBLAS returns A as a GraphBLAS matrix with the same entries.
func (A *Matrix) GraphBLAS() (M *GrB.Matrix[float64], functionErr error) {
	n := A.N
	M, err := GrB.MatrixNew[float64](n, n)
	if err != nil {
		functionErr = err
		return
	}
	cols := make([]int, A.NNZ())
	parallel.Range(0, n, 0, func(low, high int) {
		for j := low; j < high; j++ {
			for k := A.ColPtr[j]; k < A.ColPtr[j+1]; k++ {
				cols[k] = j
			}
		}
	})
	if err = M.Build(A.RowIndex, cols, A.Value, nil); err != nil {
		functionErr = err
		return
	}
	functionErr = M.Wait(GrB.Materialize)
	return
}

func (A *Matrix) PropertySymmetry() error {
	if A.SymmetricStructure != Unknown && A.SymmetricValues != Unknown {
		return nil
	}
	n := A.N
	M, err := A.GraphBLAS()
	if err != nil {
		return err
	}
	MT, err := GrB.MatrixNew[float64](n, n)
	if err != nil {
		return err
	}
	if err = GrB.Transpose(MT, nil, nil, M, nil); err != nil {
		return err
	}
	OK, err := GrB.MatrixNew[bool](n, n)
	if err != nil {
		return err
	}
	if err = GrB.MatrixEWiseMultBinaryOp(OK, nil, nil, GrB.Eq[float64], M, MT, nil); err != nil {
		return err
	}
	if err = OK.Wait(GrB.Materialize); err != nil {
		return err
	}
	oknvals, err := OK.NVals()
	if err != nil {
		return err
	}
	if oknvals != A.NNZ() {
		A.SymmetricStructure = False
		A.SymmetricValues = False
		return nil
	}
	A.SymmetricStructure = True
	sym := true
	if oknvals > 0 {
		if err = GrB.MatrixReduce(&sym, nil, GrB.LAndMonoid, OK, nil); err != nil {
			return err
		}
	}
	if sym {
		A.SymmetricValues = True
	} else {
		A.SymmetricValues = False
	}
	return nil
}

func (A *Matrix) PropertyNDiag() error {
	if A.NDiag >= 0 {
		return nil
	}
	n := A.N
	M, err := A.GraphBLAS()
	if err != nil {
		return err
	}
	Mask, err := GrB.MatrixNew[bool](n, n)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err = Mask.SetElement(true, i, i); err != nil {
			return err
		}
	}
	if err = Mask.Wait(GrB.Materialize); err != nil {
		return err
	}
	D, err := GrB.MatrixNew[float64](n, n)
	if err != nil {
		return err
	}
	if err = GrB.MatrixAssign(D, Mask, nil, M, GrB.All(n), GrB.All(n), GrB.DescS); err != nil {
		return err
	}
	ndiag, err := D.NVals()
	if err != nil {
		return err
	}
	A.NDiag = ndiag
	return nil
}

// CheckSymmetric validates A and requires a symmetric sparsity pattern.
func (A *Matrix) CheckSymmetric() error {
	if err := A.Check(); err != nil {
		return err
	}
	if err := A.PropertySymmetry(); err != nil {
		return err
	}
	if A.SymmetricStructure != True {
		return ErrNotSymmetric
	}
	return nil
}
