// kernels_test.go - Tests fuer die Basis-Operationen des CPU-Backends
package cpu

import (
	"math"
	"testing"

	"github.com/pyrflow/pyrflow/ml"
)

const eps = 1e-5

// almostEqual vergleicht zwei float32-Slices mit Toleranz
func almostEqual(t *testing.T, got, want []float32) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("Laenge = %d, erwartet %d", len(got), len(want))
	}
	for i := range got {
		if math.Abs(float64(got[i]-want[i])) > eps {
			t.Fatalf("Element %d = %f, erwartet %f", i, got[i], want[i])
		}
	}
}

func TestConv2DIdentity(t *testing.T) {
	ctx := &Context{}

	in := ctx.FromFloats([]float32{1, 2, 3, 4, 5, 6, 7, 8, 9}, 1, 1, 3, 3)

	// 3x3 Kernel mit 1 im Zentrum, Padding 1 -> Identitaet
	w := make([]float32, 9)
	w[4] = 1
	weight := ctx.FromFloats(w, 1, 1, 3, 3)

	out := in.Conv2D(ctx, weight, 1, 1, 1, 1, 1, 1)
	almostEqual(t, out.Floats(), in.Floats())
}

func TestConv2DBoxSum(t *testing.T) {
	ctx := &Context{}

	in := ctx.FromFloats([]float32{1, 1, 1, 1, 1, 1, 1, 1, 1}, 1, 1, 3, 3)
	weight := ctx.FromFloats([]float32{1, 1, 1, 1, 1, 1, 1, 1, 1}, 1, 1, 3, 3)

	out := in.Conv2D(ctx, weight, 1, 1, 1, 1, 1, 1)

	// Zentrum sieht 9 Pixel, Ecken 4, Kanten 6
	almostEqual(t, out.Floats(), []float32{4, 6, 4, 6, 9, 6, 4, 6, 4})
}

func TestConv2DStrideShape(t *testing.T) {
	ctx := &Context{}

	in := ctx.Zeros(ml.DTypeF32, 2, 3, 8, 8)
	weight := ctx.Zeros(ml.DTypeF32, 16, 3, 3, 3)

	out := in.Conv2D(ctx, weight, 2, 2, 1, 1, 1, 1)

	want := []int{2, 16, 4, 4}
	if !sameShape(out.Shape(), want) {
		t.Errorf("Shape = %v, erwartet %v", out.Shape(), want)
	}
}

func TestConvTranspose2DScatter(t *testing.T) {
	ctx := &Context{}

	// 2x2 Kernel, Stride 2: jeder Eingabepixel fuellt einen 2x2-Block
	in := ctx.FromFloats([]float32{1, 2, 3, 4}, 1, 1, 2, 2)
	weight := ctx.FromFloats([]float32{1, 1, 1, 1}, 1, 1, 2, 2)

	out := in.ConvTranspose2D(ctx, weight, 2, 2, 0, 0)

	almostEqual(t, out.Floats(), []float32{
		1, 1, 2, 2,
		1, 1, 2, 2,
		3, 3, 4, 4,
		3, 3, 4, 4,
	})
}

func TestConvTranspose2DUpsampleShape(t *testing.T) {
	ctx := &Context{}

	// Kernel 4, Stride 2, Padding 1 verdoppelt die Aufloesung
	in := ctx.Zeros(ml.DTypeF32, 1, 8, 6, 6)
	weight := ctx.Zeros(ml.DTypeF32, 8, 4, 4, 4)

	out := in.ConvTranspose2D(ctx, weight, 2, 2, 1, 1)

	want := []int{1, 4, 12, 12}
	if !sameShape(out.Shape(), want) {
		t.Errorf("Shape = %v, erwartet %v", out.Shape(), want)
	}
}

func TestInterpolateBilinearRamp(t *testing.T) {
	ctx := &Context{}

	in := ctx.FromFloats([]float32{0, 1}, 1, 1, 1, 2)
	out := in.Interpolate(ctx, [4]int{1, 1, 1, 4}, ml.SamplingModeBilinear)

	// Half-Pixel-Sampling: Raender clampen, Innenwerte interpolieren
	almostEqual(t, out.Floats(), []float32{0, 0.25, 0.75, 1})
}

func TestInterpolateConstant(t *testing.T) {
	ctx := &Context{}

	in := ctx.FromFloats([]float32{3, 3, 3, 3}, 1, 1, 2, 2)
	out := in.Interpolate(ctx, [4]int{1, 1, 6, 6}, ml.SamplingModeBilinear)

	for i, v := range out.Floats() {
		if math.Abs(float64(v-3)) > eps {
			t.Fatalf("Element %d = %f, erwartet 3", i, v)
		}
	}
}

func TestInterpolateScaleCommutes(t *testing.T) {
	ctx := &Context{}

	// Skalieren und Resizen eines Flow-Felds vertauschen
	flow := ctx.FromFloats([]float32{1, -2, 0.5, 3, 0, -1, 2, 4}, 1, 2, 2, 2)

	a := flow.Interpolate(ctx, [4]int{1, 2, 4, 4}, ml.SamplingModeBilinear).Scale(ctx, 2)
	b := flow.Scale(ctx, 2).Interpolate(ctx, [4]int{1, 2, 4, 4}, ml.SamplingModeBilinear)

	almostEqual(t, a.Floats(), b.Floats())
}

func TestAddBroadcastBias(t *testing.T) {
	ctx := &Context{}

	in := ctx.Zeros(ml.DTypeF32, 1, 2, 2, 2)
	bias := ctx.FromFloats([]float32{1, 2}, 2, 1, 1)

	out := in.Add(ctx, bias)
	almostEqual(t, out.Floats(), []float32{1, 1, 1, 1, 2, 2, 2, 2})
}

func TestSoftmaxRows(t *testing.T) {
	ctx := &Context{}

	in := ctx.FromFloats([]float32{0, 0, 0, 0, 1, 2, 3, 4}, 2, 4)
	out := in.Softmax(ctx).Floats()

	almostEqual(t, out[:4], []float32{0.25, 0.25, 0.25, 0.25})

	var sum float32
	for _, v := range out[4:] {
		sum += v
	}
	if math.Abs(float64(sum-1)) > eps {
		t.Errorf("Zeilensumme = %f, erwartet 1", sum)
	}
}

func TestPReLU(t *testing.T) {
	ctx := &Context{}

	in := ctx.FromFloats([]float32{-1, 1, -2, 2}, 1, 2, 1, 2)
	weight := ctx.FromFloats([]float32{0.5, 0.25}, 2)

	out := in.PReLU(ctx, weight)
	almostEqual(t, out.Floats(), []float32{-0.5, 1, -0.5, 2})
}

func TestMulmat(t *testing.T) {
	ctx := &Context{}

	a := ctx.FromFloats([]float32{1, 2, 3, 4, 5, 6}, 2, 3)
	b := ctx.FromFloats([]float32{7, 8, 9, 10, 11, 12}, 3, 2)

	out := a.Mulmat(ctx, b)
	almostEqual(t, out.Floats(), []float32{58, 64, 139, 154})
}

func TestMulmatBatchedShared(t *testing.T) {
	ctx := &Context{}

	// Zwei Batches mal geteilter Matrix
	a := ctx.FromFloats([]float32{1, 0, 0, 1, 2, 0, 0, 2}, 2, 2, 2)
	b := ctx.FromFloats([]float32{5, 6, 7, 8}, 2, 2)

	out := a.Mulmat(ctx, b)
	almostEqual(t, out.Floats(), []float32{5, 6, 7, 8, 10, 12, 14, 16})
}

func TestPermuteConcatSlice(t *testing.T) {
	ctx := &Context{}

	in := ctx.FromFloats([]float32{1, 2, 3, 4}, 1, 1, 2, 2)

	tr := in.Permute(ctx, 0, 1, 3, 2)
	almostEqual(t, tr.Floats(), []float32{1, 3, 2, 4})

	cat := in.Concat(ctx, in.Scale(ctx, 10), 1)
	if !sameShape(cat.Shape(), []int{1, 2, 2, 2}) {
		t.Fatalf("Concat Shape = %v", cat.Shape())
	}

	second := cat.Slice(ctx, 1, 1, 2, 1)
	almostEqual(t, second.Floats(), []float32{10, 20, 30, 40})
}

func TestClampSigmoidRange(t *testing.T) {
	ctx := &Context{}

	in := ctx.FromFloats([]float32{-100, -1, 0, 1, 100}, 5)

	for _, v := range in.Sigmoid(ctx).Floats() {
		if v <= 0 || v >= 1 {
			t.Errorf("Sigmoid-Wert %f ausserhalb (0,1)", v)
		}
	}

	clamped := in.Clamp(ctx, 0, 1)
	almostEqual(t, clamped.Floats(), []float32{0, 0, 0, 1, 1})
}
