// tensor_shape.go - Form-Operationen
// Enthaelt: Reshape, Permute, Contiguous, Concat, Slice
package cpu

import (
	"fmt"

	"github.com/pyrflow/pyrflow/ml"
)

// Reshape aendert die Form bei gleicher Elementanzahl
func (t *Tensor) Reshape(ctx ml.Context, shape ...int) ml.Tensor {
	n := 1
	for _, d := range shape {
		n *= d
	}
	if n != t.numel() {
		panic(fmt.Sprintf("cpu: cannot reshape %v to %v", t.shape, shape))
	}

	out := t.clone()
	out.shape = append([]int(nil), shape...)
	return out
}

// Permute ordnet die Dimensionen um; order enthaelt einen Index pro Dimension
// Das Ergebnis ist materialisiert (dicht gespeichert)
func (t *Tensor) Permute(ctx ml.Context, order ...int) ml.Tensor {
	rank := len(t.shape)
	if len(order) != rank {
		panic(fmt.Sprintf("cpu: permute order %v does not match rank %d", order, rank))
	}

	seen := make([]bool, rank)
	outShape := make([]int, rank)
	for i, o := range order {
		if o < 0 || o >= rank || seen[o] {
			panic(fmt.Sprintf("cpu: invalid permute order %v", order))
		}
		seen[o] = true
		outShape[i] = t.shape[o]
	}

	out := newTensor(outShape...)
	inStrides := t.strides()
	idx := make([]int, rank)
	for i := range out.data {
		j := 0
		for d := range idx {
			j += idx[d] * inStrides[order[d]]
		}
		out.data[i] = t.data[j]

		for d := rank - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < outShape[d] {
				break
			}
			idx[d] = 0
		}
	}

	return out
}

// Contiguous gibt den Tensor dicht gespeichert zurueck
// CPU-Tensoren sind immer dicht, daher Identitaet
func (t *Tensor) Contiguous(ctx ml.Context) ml.Tensor {
	return t
}

// Concat haengt t2 entlang der Dimension dim an
func (t *Tensor) Concat(ctx ml.Context, t2 ml.Tensor, dim int) ml.Tensor {
	tt := cpuTensor(t2)
	if len(t.shape) != len(tt.shape) || dim < 0 || dim >= len(t.shape) {
		panic(fmt.Sprintf("cpu: cannot concat %v and %v along %d", t.shape, tt.shape, dim))
	}
	for i := range t.shape {
		if i != dim && t.shape[i] != tt.shape[i] {
			panic(fmt.Sprintf("cpu: cannot concat %v and %v along %d", t.shape, tt.shape, dim))
		}
	}

	outShape := t.Shape()
	outShape[dim] += tt.shape[dim]
	out := newTensor(outShape...)

	// Bloecke: outer Wiederholungen von (dim..innerste) Segmenten
	outer := 1
	for i := 0; i < dim; i++ {
		outer *= t.shape[i]
	}
	blockA := len(t.data) / outer
	blockB := len(tt.data) / outer

	for i := 0; i < outer; i++ {
		dst := out.data[i*(blockA+blockB):]
		copy(dst[:blockA], t.data[i*blockA:(i+1)*blockA])
		copy(dst[blockA:blockA+blockB], tt.data[i*blockB:(i+1)*blockB])
	}

	return out
}

// Slice schneidet [low, high) mit Schrittweite step entlang dim aus
// Das Ergebnis ist eine Kopie, keine Ansicht
func (t *Tensor) Slice(ctx ml.Context, dim, low, high, step int) ml.Tensor {
	if dim < 0 || dim >= len(t.shape) {
		panic("cpu: invalid dimension")
	}
	if low < 0 || high > t.shape[dim] || low >= high || step < 1 {
		panic("cpu: invalid slice parameters")
	}

	outShape := t.Shape()
	outShape[dim] = (high - low + step - 1) / step
	out := newTensor(outShape...)

	outer := 1
	for i := 0; i < dim; i++ {
		outer *= t.shape[i]
	}
	inner := 1
	for i := dim + 1; i < len(t.shape); i++ {
		inner *= t.shape[i]
	}

	di := 0
	for o := 0; o < outer; o++ {
		base := o * t.shape[dim] * inner
		for s := low; s < high; s += step {
			copy(out.data[di:di+inner], t.data[base+s*inner:base+(s+1)*inner])
			di += inner
		}
	}

	return out
}
