// tensor_matrix.go - Matrix-Multiplikation
// Enthaelt: Mulmat (batched ueber fuehrende Dimensionen, via gonum BLAS)
package cpu

import (
	"fmt"

	"github.com/pyrflow/pyrflow/ml"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
)

// Mulmat multipliziert die beiden innersten Dimensionen:
// (..., m, k) x (..., k, n) -> (..., m, n)
// Fuehrende Dimensionen muessen uebereinstimmen, oder t2 ist eine einzelne
// Matrix, die fuer alle Batches wiederverwendet wird
func (t *Tensor) Mulmat(ctx ml.Context, t2 ml.Tensor) ml.Tensor {
	tt := cpuTensor(t2)
	if len(t.shape) < 2 || len(tt.shape) < 2 {
		panic(fmt.Sprintf("cpu: mulmat needs matrices, got %v and %v", t.shape, tt.shape))
	}

	m := t.shape[len(t.shape)-2]
	k := t.shape[len(t.shape)-1]
	k2 := tt.shape[len(tt.shape)-2]
	n := tt.shape[len(tt.shape)-1]
	if k != k2 {
		panic(fmt.Sprintf("cpu: mulmat inner dimensions differ, %v and %v", t.shape, tt.shape))
	}

	batch := t.numel() / (m * k)
	shared := len(tt.shape) == 2
	if !shared && tt.numel()/(k*n) != batch {
		panic(fmt.Sprintf("cpu: mulmat batch dimensions differ, %v and %v", t.shape, tt.shape))
	}

	outShape := append(t.Shape()[:len(t.shape)-2], m, n)
	out := newTensor(outShape...)

	for b := 0; b < batch; b++ {
		a := blas32.General{Rows: m, Cols: k, Stride: k, Data: t.data[b*m*k : (b+1)*m*k]}

		bOff := 0
		if !shared {
			bOff = b * k * n
		}
		bm := blas32.General{Rows: k, Cols: n, Stride: n, Data: tt.data[bOff : bOff+k*n]}

		c := blas32.General{Rows: m, Cols: n, Stride: n, Data: out.data[b*m*n : (b+1)*m*n]}
		blas32.Gemm(blas.NoTrans, blas.NoTrans, 1, a, bm, 0, c)
	}

	return out
}
