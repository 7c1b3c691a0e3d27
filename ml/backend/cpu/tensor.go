// tensor.go - Tensor-Grundstruktur des CPU-Backends
//
// Dieses Modul enthaelt:
// - Tensor: dicht gespeicherter float32-Tensor in NCHW-Reihenfolge
// - Konstruktions- und Zugriffs-Helfer (Shape, Strides, Indexierung)
//
// Alle Operationen arbeiten eager und funktional: jede Operation erzeugt
// einen neuen Tensor, Operanden werden nie veraendert.
package cpu

import (
	"fmt"

	"github.com/pyrflow/pyrflow/ml"
)

// Tensor ist ein dicht gespeicherter float32-Tensor
// Die letzte Dimension liegt dicht im Speicher
type Tensor struct {
	shape []int
	data  []float32
}

// newTensor erzeugt einen Null-initialisierten Tensor
func newTensor(shape ...int) *Tensor {
	n := 1
	for _, d := range shape {
		if d <= 0 {
			panic(fmt.Sprintf("cpu: invalid dimension %d in shape %v", d, shape))
		}
		n *= d
	}

	return &Tensor{
		shape: append([]int(nil), shape...),
		data:  make([]float32, n),
	}
}

// Dim gibt die Groesse der Dimension n zurueck
func (t *Tensor) Dim(n int) int {
	return t.shape[n]
}

// Shape gibt eine Kopie der Tensor-Form zurueck
func (t *Tensor) Shape() []int {
	return append([]int(nil), t.shape...)
}

// DType gibt den Element-Typ zurueck (immer F32)
func (t *Tensor) DType() ml.DType {
	return ml.DTypeF32
}

// Floats gibt eine Kopie der Tensor-Daten zurueck
func (t *Tensor) Floats() []float32 {
	return append([]float32(nil), t.data...)
}

// numel gibt die Anzahl der Elemente zurueck
func (t *Tensor) numel() int {
	return len(t.data)
}

// strides berechnet die Schrittweiten fuer jede Dimension
func (t *Tensor) strides() []int {
	s := make([]int, len(t.shape))
	stride := 1
	for i := len(t.shape) - 1; i >= 0; i-- {
		s[i] = stride
		stride *= t.shape[i]
	}
	return s
}

// clone erzeugt eine tiefe Kopie
func (t *Tensor) clone() *Tensor {
	out := &Tensor{
		shape: append([]int(nil), t.shape...),
		data:  append([]float32(nil), t.data...),
	}
	return out
}

// cpuTensor erzwingt das konkrete Backend-Tensor-Format
func cpuTensor(t ml.Tensor) *Tensor {
	tt, ok := t.(*Tensor)
	if !ok {
		panic("cpu: foreign tensor passed to cpu backend")
	}
	return tt
}

// sameShape prueft zwei Formen auf Gleichheit
func sameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// mapUnary wendet f elementweise an und erzeugt einen neuen Tensor
func (t *Tensor) mapUnary(f func(float32) float32) *Tensor {
	out := newTensor(t.shape...)
	for i, v := range t.data {
		out.data[i] = f(v)
	}
	return out
}
