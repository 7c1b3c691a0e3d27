// model_test.go - Tests der Pyramiden-Interpolation
//
// Die Tests bauen ein Modell mit Null-Gewichten direkt auf: damit ist der
// Fluss exakt Null, das Residuum Null und beide Blend-Masken gleich, sodass
// die Synthese auf die lineare Mischung der Eingabebilder zusammenfaellt.
package rgbd

import (
	"errors"
	"math"
	"testing"

	"github.com/pyrflow/pyrflow/ml"
	"github.com/pyrflow/pyrflow/ml/backend/cpu"
	"github.com/pyrflow/pyrflow/ml/nn"
)

func zeroConv(ctx ml.Context, out, in, k int) *nn.Conv2D {
	return &nn.Conv2D{Weight: ctx.Zeros(ml.DTypeF32, out, in, k, k)}
}

func zeroStage(ctx ml.Context, out, in int) [4]*nn.Conv2D {
	return [4]*nn.Conv2D{
		zeroConv(ctx, out, in, 3),
		zeroConv(ctx, out, out, 3),
		zeroConv(ctx, out, out, 3),
		zeroConv(ctx, out, out, 3),
	}
}

func zeroConvPReLU(ctx ml.Context, out, in int) *convPReLU {
	return &convPReLU{
		Conv: zeroConv(ctx, out, in, 3),
		Act:  &nn.PReLU{Weight: ctx.Zeros(ml.DTypeF32, out)},
	}
}

func zeroDeconv(ctx ml.Context, out, in int) *deconvPReLU {
	return &deconvPReLU{
		Up:      &nn.ConvTranspose2D{Weight: ctx.Zeros(ml.DTypeF32, in, out, 4, 4)},
		UpAct:   &nn.PReLU{Weight: ctx.Zeros(ml.DTypeF32, out)},
		Conv:    zeroConv(ctx, out, out, 3),
		ConvAct: &nn.PReLU{Weight: ctx.Zeros(ml.DTypeF32, out)},
	}
}

func zeroLinear(ctx ml.Context, out, in int) *nn.Linear {
	return &nn.Linear{Weight: ctx.Zeros(ml.DTypeF32, out, in)}
}

// newTestModel baut ein Modell mit Null-Gewichten in allen Schichten
func newTestModel(ctx ml.Context) *Model {
	featPyramid := func() *FeatPyramid {
		return &FeatPyramid{
			Stage0: zeroStage(ctx, 16, 3),
			Stage1: zeroStage(ctx, 32, 16),
			Stage2: zeroStage(ctx, 64, 32),
		}
	}

	return &Model{
		FeatRGB:   featPyramid(),
		FeatDepth: featPyramid(),
		Fusion: &ModalityFusion{
			Proj: [3]*nn.Conv2D{
				zeroConv(ctx, 16, 32, 1),
				zeroConv(ctx, 32, 64, 1),
				zeroConv(ctx, 64, 128, 1),
			},
		},
		Motion: &MotionEstimator{
			Conv: [6]*nn.Conv2D{
				zeroConv(ctx, 160, 277, 1),
				zeroConv(ctx, 128, 160, 3),
				zeroConv(ctx, 112, 128, 3),
				zeroConv(ctx, 96, 112, 3),
				zeroConv(ctx, 64, 96, 3),
				zeroConv(ctx, 4, 64, 3),
			},
		},
		Synthesis: &SynthesisNetwork{
			Attention: &SelfAttention{
				Queries: zeroLinear(ctx, 16, 16),
				Keys:    zeroLinear(ctx, 16, 16),
				Values:  zeroLinear(ctx, 16, 16),
				FCOut:   zeroLinear(ctx, 64, 64),
			},
			EncConv: [2]*convPReLU{
				zeroConvPReLU(ctx, 32, 31),
				zeroConvPReLU(ctx, 32, 32),
			},
			EncDown1: [3]*convPReLU{
				zeroConvPReLU(ctx, 64, 64),
				zeroConvPReLU(ctx, 64, 64),
				zeroConvPReLU(ctx, 64, 64),
			},
			EncDown2: [3]*convPReLU{
				zeroConvPReLU(ctx, 128, 128),
				zeroConvPReLU(ctx, 128, 128),
				zeroConvPReLU(ctx, 128, 128),
			},
			DecUp1: zeroDeconv(ctx, 64, 256),
			DecUp2: zeroDeconv(ctx, 32, 128),
			DecConv: [2]*convPReLU{
				zeroConvPReLU(ctx, 32, 64),
				zeroConvPReLU(ctx, 32, 32),
			},
			Pred: zeroConv(ctx, 5, 32, 3),
		},
		Options: &Options{PyramidLevels: 3, SkippedLevels: 0},
	}
}

// uniformImage erzeugt ein einfarbiges Bild (1, 3, h, w)
func uniformImage(ctx ml.Context, h, w int, v float32) ml.Tensor {
	data := make([]float32, 3*h*w)
	for i := range data {
		data[i] = v
	}
	return ctx.FromFloats(data, 1, 3, h, w)
}

func TestInterpolateGrayPair(t *testing.T) {
	ctx := &cpu.Context{}
	m := newTestModel(ctx)

	gray := uniformImage(ctx, 64, 64, 0.5)
	depth := uniformImage(ctx, 64, 64, 0.5)

	res, err := m.Interpolate(ctx, gray, gray, depth, depth, 0.5, nil)
	if err != nil {
		t.Fatalf("Interpolate fehlgeschlagen: %v", err)
	}

	if !shapesMatch(res.Frame, gray) {
		t.Fatalf("Frame-Shape = %v, erwartet %v", res.Frame.Shape(), gray.Shape())
	}

	for i, v := range res.Frame.Floats() {
		if math.Abs(float64(v-0.5)) > 1e-4 {
			t.Fatalf("Pixel %d = %f, erwartet 0.5", i, v)
		}
	}

	for i, v := range res.Flow.Floats() {
		if v != 0 {
			t.Fatalf("Fluss %d = %f, erwartet 0", i, v)
		}
	}

	if len(res.Levels) != 3 {
		t.Errorf("verarbeitete Stufen = %d, erwartet 3", len(res.Levels))
	}
}

func TestInterpolateOutputRange(t *testing.T) {
	ctx := &cpu.Context{}
	m := newTestModel(ctx)

	// Rampen-Bilder mit unterschiedlichen Intensitaeten
	mk := func(scale float32) ml.Tensor {
		data := make([]float32, 3*32*32)
		for i := range data {
			data[i] = scale * float32(i%97) / 97
		}
		return ctx.FromFloats(data, 1, 3, 32, 32)
	}

	res, err := m.Interpolate(ctx, mk(1), mk(0.3), mk(0.7), mk(0.9), 0.25, nil)
	if err != nil {
		t.Fatalf("Interpolate fehlgeschlagen: %v", err)
	}

	for i, v := range res.Frame.Floats() {
		if v < 0 || v > 1 || math.IsNaN(float64(v)) {
			t.Fatalf("Pixel %d = %f ausserhalb [0, 1]", i, v)
		}
	}
}

func TestInterpolateLinearBlend(t *testing.T) {
	ctx := &cpu.Context{}
	m := newTestModel(ctx)

	// Null-Gewichte: Fluss 0, Residuum 0, Masken gleich -> lineare Mischung
	dark := uniformImage(ctx, 32, 32, 0.2)
	light := uniformImage(ctx, 32, 32, 0.8)
	depth := uniformImage(ctx, 32, 32, 0.5)

	res, err := m.Interpolate(ctx, dark, light, depth, depth, 0.25, nil)
	if err != nil {
		t.Fatalf("Interpolate fehlgeschlagen: %v", err)
	}

	want := float32(0.2*0.75 + 0.8*0.25)
	for i, v := range res.Frame.Floats() {
		if math.Abs(float64(v-want)) > 1e-4 {
			t.Fatalf("Pixel %d = %f, erwartet %f", i, v, want)
		}
	}
}

func TestInterpolateTimeBoundary(t *testing.T) {
	ctx := &cpu.Context{}
	m := newTestModel(ctx)

	dark := uniformImage(ctx, 32, 32, 0.2)
	light := uniformImage(ctx, 32, 32, 0.8)
	depth := uniformImage(ctx, 32, 32, 0.5)

	// nahe den Zeitgrenzen muss das Ergebnis gegen das jeweilige
	// Eingabebild konvergieren
	for _, tp := range []float32{0.01, 0.99} {
		want := 0.2*(1-tp) + 0.8*tp

		res, err := m.Interpolate(ctx, dark, light, depth, depth, tp, nil)
		if err != nil {
			t.Fatalf("Interpolate(t=%f) fehlgeschlagen: %v", tp, err)
		}

		for i, v := range res.Frame.Floats() {
			if math.Abs(float64(v-want)) > 1e-4 {
				t.Fatalf("t=%f: Pixel %d = %f, erwartet %f", tp, i, v, want)
			}
		}
	}
}

func TestInterpolateSkipZeroMatchesDefault(t *testing.T) {
	ctx := &cpu.Context{}
	m := newTestModel(ctx)

	img0 := uniformImage(ctx, 32, 32, 0.3)
	img1 := uniformImage(ctx, 32, 32, 0.6)
	depth := uniformImage(ctx, 32, 32, 0.5)

	def, err := m.Interpolate(ctx, img0, img1, depth, depth, 0.5, nil)
	if err != nil {
		t.Fatalf("Interpolate fehlgeschlagen: %v", err)
	}

	explicit, err := m.Interpolate(ctx, img0, img1, depth, depth, 0.5,
		&Options{PyramidLevels: 3, SkippedLevels: 0})
	if err != nil {
		t.Fatalf("Interpolate fehlgeschlagen: %v", err)
	}

	if len(def.Levels) != len(explicit.Levels) {
		t.Fatalf("Stufen %d vs %d", len(def.Levels), len(explicit.Levels))
	}

	a, b := def.Frame.Floats(), explicit.Frame.Floats()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("Pixel %d: %f vs %f", i, a[i], b[i])
		}
	}
}

func TestInterpolateFullSkipFallback(t *testing.T) {
	ctx := &cpu.Context{}
	m := newTestModel(ctx)

	img0 := uniformImage(ctx, 32, 32, 0.2)
	img1 := uniformImage(ctx, 32, 32, 0.8)
	depth := uniformImage(ctx, 32, 32, 0.5)

	// Motion-Estimation darf nie laufen: ein Estimator ohne Gewichte
	// wuerde beim ersten Forward panicken
	m.Motion = &MotionEstimator{}

	res, err := m.Interpolate(ctx, img0, img1, depth, depth, 0.5,
		&Options{PyramidLevels: 3, SkippedLevels: 3})
	if err != nil {
		t.Fatalf("Interpolate fehlgeschlagen: %v", err)
	}

	if len(res.Levels) != 1 {
		t.Errorf("verarbeitete Stufen = %d, erwartet 1", len(res.Levels))
	}

	want := float32(0.5)
	for i, v := range res.Frame.Floats() {
		if math.IsNaN(float64(v)) || math.Abs(float64(v-want)) > 1e-4 {
			t.Fatalf("Pixel %d = %f, erwartet %f", i, v, want)
		}
	}
}

func TestInterpolatePartialSkip(t *testing.T) {
	ctx := &cpu.Context{}
	m := newTestModel(ctx)

	img0 := uniformImage(ctx, 32, 32, 0.4)
	depth := uniformImage(ctx, 32, 32, 0.5)

	res, err := m.Interpolate(ctx, img0, img0, depth, depth, 0.5,
		&Options{PyramidLevels: 3, SkippedLevels: 2})
	if err != nil {
		t.Fatalf("Interpolate fehlgeschlagen: %v", err)
	}

	// Stufe 2 berechnet, Stufe 1 uebersprungen, Stufe 0 nur Synthese
	if len(res.Levels) != 2 {
		t.Fatalf("verarbeitete Stufen = %d, erwartet 2", len(res.Levels))
	}
	if res.Levels[0].Level != 2 || res.Levels[1].Level != 0 {
		t.Errorf("Stufen-Reihenfolge = %v", []int{res.Levels[0].Level, res.Levels[1].Level})
	}
}

func TestValidate(t *testing.T) {
	ctx := &cpu.Context{}

	m := newTestModel(ctx)
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate() = %v, erwartet nil", err)
	}

	m.Motion = nil
	if err := m.Validate(); !errors.Is(err, ErrPyramidConfig) {
		t.Errorf("Validate() = %v, erwartet %v", err, ErrPyramidConfig)
	}
}

func TestInterpolateValidation(t *testing.T) {
	ctx := &cpu.Context{}
	m := newTestModel(ctx)

	img := uniformImage(ctx, 32, 32, 0.5)
	odd := uniformImage(ctx, 24, 24, 0.5)

	cases := []struct {
		name string
		run  func() error
		want error
	}{
		{
			name: "Aufloesung nicht durch 32 teilbar",
			run: func() error {
				_, err := m.Interpolate(ctx, odd, odd, odd, odd, 0.5, nil)
				return err
			},
			want: ErrShapeViolation,
		},
		{
			name: "Zeit ausserhalb (0,1)",
			run: func() error {
				_, err := m.Interpolate(ctx, img, img, img, img, 1, nil)
				return err
			},
			want: ErrTimePeriod,
		},
		{
			name: "mehr Skips als Stufen",
			run: func() error {
				_, err := m.Interpolate(ctx, img, img, img, img, 0.5,
					&Options{PyramidLevels: 3, SkippedLevels: 4})
				return err
			},
			want: ErrPyramidConfig,
		},
		{
			name: "ungleiche Eingabe-Formen",
			run: func() error {
				small := uniformImage(ctx, 16, 16, 0.5)
				_, err := m.Interpolate(ctx, img, img, small, small, 0.5, nil)
				return err
			},
			want: ErrShapeViolation,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.run()
			if !errors.Is(err, tc.want) {
				t.Errorf("Fehler = %v, erwartet %v", err, tc.want)
			}
		})
	}
}
