// tensor_nn.go - Faltungs-Operationen
// Enthaelt: Conv2D (im2col + GEMM), ConvTranspose2D
package cpu

import (
	"fmt"
	"runtime"

	"github.com/pyrflow/pyrflow/ml"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
)

// Conv2D faltet t (n, inC, h, w) mit weight (outC, inC, kH, kW)
// s0/s1 sind die Strides, p0/p1 die Paddings, d0/d1 die Dilations,
// jeweils entlang Breite und Hoehe
func (t *Tensor) Conv2D(ctx ml.Context, weight ml.Tensor, s0, s1, p0, p1, d0, d1 int) ml.Tensor {
	w := cpuTensor(weight)
	if len(t.shape) != 4 || len(w.shape) != 4 || t.shape[1] != w.shape[1] {
		panic(fmt.Sprintf("cpu: conv2d shapes %v and %v do not match", t.shape, w.shape))
	}

	batch, inC, h, width := t.shape[0], t.shape[1], t.shape[2], t.shape[3]
	outC, kH, kW := w.shape[0], w.shape[2], w.shape[3]

	outH := (h+2*p1-d1*(kH-1)-1)/s1 + 1
	outW := (width+2*p0-d0*(kW-1)-1)/s0 + 1
	if outH <= 0 || outW <= 0 {
		panic(fmt.Sprintf("cpu: conv2d output would be empty for input %v", t.shape))
	}

	out := newTensor(batch, outC, outH, outW)

	k := inC * kH * kW
	wm := blas32.General{Rows: outC, Cols: k, Stride: k, Data: w.data}

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for n := 0; n < batch; n++ {
		g.Go(func() error {
			// im2col: jede Spalte ist ein entfaltetes Empfangsfeld
			cols := make([]float32, k*outH*outW)
			src := t.data[n*inC*h*width:]

			for c := 0; c < inC; c++ {
				for ky := 0; ky < kH; ky++ {
					for kx := 0; kx < kW; kx++ {
						row := ((c*kH+ky)*kW + kx) * outH * outW
						for oy := 0; oy < outH; oy++ {
							iy := oy*s1 - p1 + ky*d1
							if iy < 0 || iy >= h {
								continue
							}
							for ox := 0; ox < outW; ox++ {
								ix := ox*s0 - p0 + kx*d0
								if ix < 0 || ix >= width {
									continue
								}
								cols[row+oy*outW+ox] = src[(c*h+iy)*width+ix]
							}
						}
					}
				}
			}

			cm := blas32.General{Rows: k, Cols: outH * outW, Stride: outH * outW, Data: cols}
			om := blas32.General{
				Rows: outC, Cols: outH * outW, Stride: outH * outW,
				Data: out.data[n*outC*outH*outW : (n+1)*outC*outH*outW],
			}
			blas32.Gemm(blas.NoTrans, blas.NoTrans, 1, wm, cm, 0, om)
			return nil
		})
	}
	g.Wait() //nolint:errcheck

	return out
}

// ConvTranspose2D wendet weight (inC, outC, kH, kW) als fraktioniert
// gestridete Faltung auf t (n, inC, h, w) an
func (t *Tensor) ConvTranspose2D(ctx ml.Context, weight ml.Tensor, s0, s1, p0, p1 int) ml.Tensor {
	w := cpuTensor(weight)
	if len(t.shape) != 4 || len(w.shape) != 4 || t.shape[1] != w.shape[0] {
		panic(fmt.Sprintf("cpu: conv_transpose2d shapes %v and %v do not match", t.shape, w.shape))
	}

	batch, inC, h, width := t.shape[0], t.shape[1], t.shape[2], t.shape[3]
	outC, kH, kW := w.shape[1], w.shape[2], w.shape[3]

	outH := (h-1)*s1 - 2*p1 + kH
	outW := (width-1)*s0 - 2*p0 + kW
	if outH <= 0 || outW <= 0 {
		panic(fmt.Sprintf("cpu: conv_transpose2d output would be empty for input %v", t.shape))
	}

	out := newTensor(batch, outC, outH, outW)

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for n := 0; n < batch; n++ {
		g.Go(func() error {
			src := t.data[n*inC*h*width:]
			dst := out.data[n*outC*outH*outW:]

			for c := 0; c < inC; c++ {
				for y := 0; y < h; y++ {
					for x := 0; x < width; x++ {
						v := src[(c*h+y)*width+x]
						if v == 0 {
							continue
						}
						for ky := 0; ky < kH; ky++ {
							oy := y*s1 - p1 + ky
							if oy < 0 || oy >= outH {
								continue
							}
							for kx := 0; kx < kW; kx++ {
								ox := x*s0 - p0 + kx
								if ox < 0 || ox >= outW {
									continue
								}
								for oc := 0; oc < outC; oc++ {
									dst[(oc*outH+oy)*outW+ox] += v * w.data[((c*outC+oc)*kH+ky)*kW+kx]
								}
							}
						}
					}
				}
			}
			return nil
		})
	}
	g.Wait() //nolint:errcheck

	return out
}
