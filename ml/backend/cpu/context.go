// context.go - Eager Compute-Context des CPU-Backends
//
// Der CPU-Backend rechnet jede Operation sofort aus. Forward und Compute
// sind daher Hooks ohne Wirkung; sie existieren, damit Modell-Code gegen
// das ml.Context-Interface geschrieben werden kann.
package cpu

import (
	"fmt"

	"github.com/pyrflow/pyrflow/ml"
)

// Context implementiert ml.Context fuer den CPU-Backend
type Context struct{}

// Empty erzeugt einen uninitialisierten Tensor
// Der CPU-Backend liefert aus Einfachheit Null-initialisierte Daten
func (c *Context) Empty(dtype ml.DType, shape ...int) ml.Tensor {
	return c.Zeros(dtype, shape...)
}

// Zeros erzeugt einen Null-initialisierten Tensor
func (c *Context) Zeros(dtype ml.DType, shape ...int) ml.Tensor {
	if dtype != ml.DTypeF32 {
		panic("cpu: only F32 tensors are supported")
	}
	return newTensor(shape...)
}

// FromFloats erzeugt einen Tensor aus float32-Daten
func (c *Context) FromFloats(s []float32, shape ...int) ml.Tensor {
	t := newTensor(shape...)
	if len(s) != len(t.data) {
		panic(fmt.Sprintf("cpu: %d values do not fit shape %v", len(s), shape))
	}
	copy(t.data, s)
	return t
}

// Forward markiert Tensoren als Graph-Ausgaenge (no-op, eager Backend)
func (c *Context) Forward(...ml.Tensor) ml.Context {
	return c
}

// Compute fuehrt den Graphen aus (no-op, eager Backend)
func (c *Context) Compute(...ml.Tensor) {}

// Close gibt Context-Ressourcen frei
func (c *Context) Close() {}
