// linear.go - Linear Layer (vollverbundene Schicht)
package nn

import "github.com/pyrflow/pyrflow/ml"

// Linear wendet eine affine Abbildung auf die innerste Dimension an.
// Weight hat die Form (out, in), Bias optional (out).
type Linear struct {
	Weight ml.Tensor `gguf:"weight"`
	Bias   ml.Tensor `gguf:"bias"`
}

// Forward berechnet t * Weight^T + Bias
func (m *Linear) Forward(ctx ml.Context, t ml.Tensor) ml.Tensor {
	out := t.Mulmat(ctx, m.Weight.Permute(ctx, 1, 0).Contiguous(ctx))
	if m.Bias != nil {
		out = out.Add(ctx, m.Bias)
	}

	return out
}
