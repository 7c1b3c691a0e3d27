// conv.go - Faltungs-Layer: Conv2D und ConvTranspose2D
package nn

import "github.com/pyrflow/pyrflow/ml"

// Conv2D ist eine 2D-Faltung mit quadratischem Kernel.
// Weight hat die Form (outC, inC, kH, kW), Bias optional (outC).
type Conv2D struct {
	Weight ml.Tensor `gguf:"weight"`
	Bias   ml.Tensor `gguf:"bias"`
}

// Forward faltet t (n, inC, h, w) mit Stride s und Padding p
func (m *Conv2D) Forward(ctx ml.Context, t ml.Tensor, s, p int) ml.Tensor {
	out := t.Conv2D(ctx, m.Weight, s, s, p, p, 1, 1)
	if m.Bias != nil {
		out = out.Add(ctx, m.Bias.Reshape(ctx, m.Bias.Dim(0), 1, 1))
	}

	return out
}

// ConvTranspose2D ist eine transponierte 2D-Faltung (Upsampling).
// Weight hat die Form (inC, outC, kH, kW), Bias optional (outC).
type ConvTranspose2D struct {
	Weight ml.Tensor `gguf:"weight"`
	Bias   ml.Tensor `gguf:"bias"`
}

// Forward wendet die transponierte Faltung mit Stride s und Padding p an
func (m *ConvTranspose2D) Forward(ctx ml.Context, t ml.Tensor, s, p int) ml.Tensor {
	out := t.ConvTranspose2D(ctx, m.Weight, s, s, p, p)
	if m.Bias != nil {
		out = out.Add(ctx, m.Bias.Reshape(ctx, m.Bias.Dim(0), 1, 1))
	}

	return out
}
