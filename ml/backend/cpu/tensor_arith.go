// tensor_arith.go - Elementweise Tensor-Operationen
// Enthaelt: Add, Sub, Mul, Div (mit Broadcasting), Scale, Clamp,
// Sigmoid, Tanh, LeakyReLU, PReLU, Softmax
package cpu

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/pyrflow/pyrflow/ml"
)

// broadcastBinary wendet f elementweise an, wobei t2 gegen t gebroadcastet
// wird: fehlende fuehrende Dimensionen und Dimensionen der Groesse 1 in t2
// wiederholen sich entlang der entsprechenden Dimension von t
func (t *Tensor) broadcastBinary(t2 *Tensor, f func(a, b float32) float32) *Tensor {
	rank := len(t.shape)
	if len(t2.shape) > rank {
		panic(fmt.Sprintf("cpu: cannot broadcast %v against %v", t2.shape, t.shape))
	}

	// t2-Form links mit 1en auffuellen
	shape2 := make([]int, rank)
	for i := range shape2 {
		shape2[i] = 1
	}
	copy(shape2[rank-len(t2.shape):], t2.shape)

	strides2 := make([]int, rank)
	stride := 1
	for i := rank - 1; i >= 0; i-- {
		if shape2[i] != 1 && shape2[i] != t.shape[i] {
			panic(fmt.Sprintf("cpu: cannot broadcast %v against %v", t2.shape, t.shape))
		}
		if shape2[i] == 1 {
			strides2[i] = 0
		} else {
			strides2[i] = stride
		}
		stride *= shape2[i]
	}

	out := newTensor(t.shape...)
	idx := make([]int, rank)
	for i := range t.data {
		j := 0
		for d := range idx {
			j += idx[d] * strides2[d]
		}
		out.data[i] = f(t.data[i], t2.data[j])

		for d := rank - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < t.shape[d] {
				break
			}
			idx[d] = 0
		}
	}

	return out
}

// Add addiert zwei Tensoren elementweise
func (t *Tensor) Add(ctx ml.Context, t2 ml.Tensor) ml.Tensor {
	return t.broadcastBinary(cpuTensor(t2), func(a, b float32) float32 { return a + b })
}

// Sub subtrahiert zwei Tensoren elementweise
func (t *Tensor) Sub(ctx ml.Context, t2 ml.Tensor) ml.Tensor {
	return t.broadcastBinary(cpuTensor(t2), func(a, b float32) float32 { return a - b })
}

// Mul multipliziert zwei Tensoren elementweise
func (t *Tensor) Mul(ctx ml.Context, t2 ml.Tensor) ml.Tensor {
	return t.broadcastBinary(cpuTensor(t2), func(a, b float32) float32 { return a * b })
}

// Div dividiert zwei Tensoren elementweise
func (t *Tensor) Div(ctx ml.Context, t2 ml.Tensor) ml.Tensor {
	return t.broadcastBinary(cpuTensor(t2), func(a, b float32) float32 { return a / b })
}

// Scale multipliziert alle Elemente mit einem Skalar
func (t *Tensor) Scale(ctx ml.Context, s float64) ml.Tensor {
	f := float32(s)
	return t.mapUnary(func(v float32) float32 { return v * f })
}

// Clamp begrenzt alle Elemente auf [min, max]
func (t *Tensor) Clamp(ctx ml.Context, min, max float32) ml.Tensor {
	return t.mapUnary(func(v float32) float32 {
		if v < min {
			return min
		}
		if v > max {
			return max
		}
		return v
	})
}

// Sigmoid wendet die logistische Funktion elementweise an
func (t *Tensor) Sigmoid(ctx ml.Context) ml.Tensor {
	return t.mapUnary(func(v float32) float32 {
		return 1 / (1 + math32.Exp(-v))
	})
}

// Tanh wendet den Tangens Hyperbolicus elementweise an
func (t *Tensor) Tanh(ctx ml.Context) ml.Tensor {
	return t.mapUnary(math32.Tanh)
}

// LeakyReLU wendet ReLU mit Steigung negativeSlope fuer negative Werte an
func (t *Tensor) LeakyReLU(ctx ml.Context, negativeSlope float32) ml.Tensor {
	return t.mapUnary(func(v float32) float32 {
		if v < 0 {
			return v * negativeSlope
		}
		return v
	})
}

// PReLU wendet eine parametrische ReLU mit einem Slope pro Kanal an
// weight hat ein Element pro Kanal (Dimension 1 des Tensors)
func (t *Tensor) PReLU(ctx ml.Context, weight ml.Tensor) ml.Tensor {
	w := cpuTensor(weight)
	if len(t.shape) != 4 || w.numel() != t.shape[1] {
		panic(fmt.Sprintf("cpu: prelu weight %v does not match channels of %v", w.shape, t.shape))
	}

	out := newTensor(t.shape...)
	plane := t.shape[2] * t.shape[3]
	i := 0
	for n := 0; n < t.shape[0]; n++ {
		for c := 0; c < t.shape[1]; c++ {
			slope := w.data[c]
			for p := 0; p < plane; p++ {
				v := t.data[i]
				if v < 0 {
					v *= slope
				}
				out.data[i] = v
				i++
			}
		}
	}

	return out
}

// Softmax normalisiert ueber die innerste Dimension
func (t *Tensor) Softmax(ctx ml.Context) ml.Tensor {
	inner := t.shape[len(t.shape)-1]
	out := newTensor(t.shape...)

	for base := 0; base < len(t.data); base += inner {
		row := t.data[base : base+inner]

		max := row[0]
		for _, v := range row[1:] {
			if v > max {
				max = v
			}
		}

		var sum float32
		for i, v := range row {
			e := math32.Exp(v - max)
			out.data[base+i] = e
			sum += e
		}

		for i := range row {
			out.data[base+i] /= sum
		}
	}

	return out
}
