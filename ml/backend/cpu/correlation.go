// correlation.go - Lokales Korrelations-Volumen
//
// Correlate bildet fuer jedes Pixel das innere Produkt zwischen dem
// Feature-Vektor in t und dem verschobenen Feature-Vektor in t2, fuer
// alle Verschiebungen im Quadrat [-radius, radius]^2. Ein Kanal pro
// Verschiebung; Positionen ausserhalb des Bildes zaehlen als null.
package cpu

import (
	"fmt"

	"github.com/pyrflow/pyrflow/ml"
)

// Correlate berechnet das Kosten-Volumen zwischen t und t2 (beide n, c, h, w)
// Das Ergebnis hat (2*radius+1)^2 Kanaele; jeder Wert ist das ueber die
// Kanaele gemittelte innere Produkt
func (t *Tensor) Correlate(ctx ml.Context, t2 ml.Tensor, radius int) ml.Tensor {
	tt := cpuTensor(t2)
	if !sameShape(t.shape, tt.shape) || len(t.shape) != 4 {
		panic(fmt.Sprintf("cpu: correlate shapes %v and %v do not match", t.shape, tt.shape))
	}
	if radius < 1 {
		panic("cpu: correlate radius must be positive")
	}

	batch, channels, h, w := t.shape[0], t.shape[1], t.shape[2], t.shape[3]
	side := 2*radius + 1
	plane := h * w

	out := newTensor(batch, side*side, h, w)
	norm := float32(channels)

	for n := 0; n < batch; n++ {
		for dy := -radius; dy <= radius; dy++ {
			for dx := -radius; dx <= radius; dx++ {
				d := (dy+radius)*side + (dx + radius)
				dst := out.data[(n*side*side+d)*plane:]

				for y := 0; y < h; y++ {
					sy := y + dy
					if sy < 0 || sy >= h {
						continue
					}
					for x := 0; x < w; x++ {
						sx := x + dx
						if sx < 0 || sx >= w {
							continue
						}

						var sum float32
						for c := 0; c < channels; c++ {
							base := (n*channels + c) * plane
							sum += t.data[base+y*w+x] * tt.data[base+sy*w+sx]
						}
						dst[y*w+x] = sum / norm
					}
				}
			}
		}
	}

	return out
}
