// activation.go - Aktivierungen mit gelernten Parametern
package nn

import "github.com/pyrflow/pyrflow/ml"

// PReLU ist eine parametrische ReLU mit einem gelernten Slope pro Kanal.
type PReLU struct {
	Weight ml.Tensor `gguf:"weight"`
}

// Forward wendet die Aktivierung kanalweise an
func (m *PReLU) Forward(ctx ml.Context, t ml.Tensor) ml.Tensor {
	return t.PReLU(ctx, m.Weight)
}
