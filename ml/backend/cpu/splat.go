// splat.go - Forward-Warping (Splatting)
//
// Splat verteilt jeden Quellpixel bilinear auf die vier Nachbarzellen
// seiner verschobenen Position. Im Average-Modus werden Wert- und
// Gewichtssummen pro Zielpixel akkumuliert und anschliessend dividiert;
// Zielpixel ohne Beitraege bleiben null.
package cpu

import (
	"fmt"

	"github.com/pyrflow/pyrflow/ml"
)

// Splat warpt t (n, c, h, w) vorwaerts mit flow (n, 2, h, w)
// flow-Kanal 0 ist die x-, Kanal 1 die y-Verschiebung in Pixeln
// metric gewichtet optional die Beitraege pro Quellpixel und darf nil sein
func (t *Tensor) Splat(ctx ml.Context, flow, metric ml.Tensor, mode ml.SplatMode) ml.Tensor {
	fl := cpuTensor(flow)
	if len(t.shape) != 4 || len(fl.shape) != 4 || fl.shape[1] != 2 ||
		fl.shape[0] != t.shape[0] || fl.shape[2] != t.shape[2] || fl.shape[3] != t.shape[3] {
		panic(fmt.Sprintf("cpu: splat flow %v does not match input %v", fl.shape, t.shape))
	}

	var met *Tensor
	if metric != nil {
		met = cpuTensor(metric)
		if met.shape[0] != t.shape[0] || met.shape[2] != t.shape[2] || met.shape[3] != t.shape[3] {
			panic(fmt.Sprintf("cpu: splat metric %v does not match input %v", met.shape, t.shape))
		}
	}

	batch, channels, h, w := t.shape[0], t.shape[1], t.shape[2], t.shape[3]
	plane := h * w

	out := newTensor(t.shape...)
	weights := make([]float32, plane)

	for n := 0; n < batch; n++ {
		flowX := fl.data[n*2*plane:]
		flowY := fl.data[n*2*plane+plane:]

		clear(weights)

		// Erst Gewichtssummen, dann gewichtete Werte akkumulieren
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				si := y*w + x

				fx := float32(x) + flowX[si]
				fy := float32(y) + flowY[si]

				x0 := floorInt(fx)
				y0 := floorInt(fy)
				wx := fx - float32(x0)
				wy := fy - float32(y0)

				contribution := float32(1)
				if met != nil {
					contribution = met.data[n*met.shape[1]*plane+si]
				}

				for _, corner := range [4]struct {
					dx, dy int
					weight float32
				}{
					{0, 0, (1 - wx) * (1 - wy)},
					{1, 0, wx * (1 - wy)},
					{0, 1, (1 - wx) * wy},
					{1, 1, wx * wy},
				} {
					dx, dy := x0+corner.dx, y0+corner.dy
					if dx < 0 || dx >= w || dy < 0 || dy >= h || corner.weight == 0 {
						continue
					}

					weight := corner.weight * contribution
					di := dy*w + dx
					weights[di] += weight
					for c := 0; c < channels; c++ {
						out.data[(n*channels+c)*plane+di] += weight * t.data[(n*channels+c)*plane+si]
					}
				}
			}
		}

		if mode == ml.SplatModeAverage {
			for c := 0; c < channels; c++ {
				dst := out.data[(n*channels+c)*plane:]
				for i := 0; i < plane; i++ {
					if weights[i] > 0 {
						dst[i] /= weights[i]
					}
				}
			}
		}
	}

	return out
}
