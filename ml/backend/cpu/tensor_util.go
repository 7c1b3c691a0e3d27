// tensor_util.go - Groessenaenderung von Tensoren
// Enthaelt: Interpolate (nearest und bilinear, half-pixel Sampling)
package cpu

import (
	"fmt"

	"github.com/pyrflow/pyrflow/ml"
)

// Interpolate skaliert t auf dims (n, c, h, w)
// Bilineares Sampling nutzt Half-Pixel-Zentren ohne Corner-Alignment
func (t *Tensor) Interpolate(ctx ml.Context, dims [4]int, samplingMode ml.SamplingMode) ml.Tensor {
	if len(t.shape) != 4 {
		panic(fmt.Sprintf("cpu: interpolate needs a 4d tensor, got %v", t.shape))
	}
	if dims[0] != t.shape[0] || dims[1] != t.shape[1] {
		panic(fmt.Sprintf("cpu: interpolate cannot change batch/channels %v to %v", t.shape, dims))
	}

	switch samplingMode {
	case ml.SamplingModeNearest, ml.SamplingModeBilinear:
	default:
		panic("cpu: unsupported interpolate mode")
	}

	batch, channels := t.shape[0], t.shape[1]
	inH, inW := t.shape[2], t.shape[3]
	outH, outW := dims[2], dims[3]

	out := newTensor(dims[0], dims[1], outH, outW)
	scaleY := float32(inH) / float32(outH)
	scaleX := float32(inW) / float32(outW)

	for n := 0; n < batch; n++ {
		for c := 0; c < channels; c++ {
			src := t.data[(n*channels+c)*inH*inW:]
			dst := out.data[(n*channels+c)*outH*outW:]

			for oy := 0; oy < outH; oy++ {
				for ox := 0; ox < outW; ox++ {
					if samplingMode == ml.SamplingModeNearest {
						iy := clampInt(int(float32(oy)*scaleY), 0, inH-1)
						ix := clampInt(int(float32(ox)*scaleX), 0, inW-1)
						dst[oy*outW+ox] = src[iy*inW+ix]
						continue
					}

					// Half-Pixel-Koordinaten der Quellposition
					fy := (float32(oy)+0.5)*scaleY - 0.5
					fx := (float32(ox)+0.5)*scaleX - 0.5

					y0 := floorInt(fy)
					x0 := floorInt(fx)
					wy := fy - float32(y0)
					wx := fx - float32(x0)

					y0c := clampInt(y0, 0, inH-1)
					y1c := clampInt(y0+1, 0, inH-1)
					x0c := clampInt(x0, 0, inW-1)
					x1c := clampInt(x0+1, 0, inW-1)

					top := src[y0c*inW+x0c]*(1-wx) + src[y0c*inW+x1c]*wx
					bottom := src[y1c*inW+x0c]*(1-wx) + src[y1c*inW+x1c]*wx
					dst[oy*outW+ox] = top*(1-wy) + bottom*wy
				}
			}
		}
	}

	return out
}

// clampInt begrenzt v auf [lo, hi]
func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// floorInt rundet gegen minus unendlich ab
func floorInt(f float32) int {
	i := int(f)
	if f < 0 && float32(i) != f {
		i--
	}
	return i
}
