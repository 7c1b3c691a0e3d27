// splat_test.go - Tests fuer Forward-Warping und Korrelation
package cpu

import (
	"math"
	"testing"

	"github.com/pyrflow/pyrflow/ml"
)

func TestSplatZeroFlowIdentity(t *testing.T) {
	ctx := &Context{}

	in := ctx.FromFloats([]float32{1, 2, 3, 4}, 1, 1, 2, 2)
	flow := ctx.Zeros(ml.DTypeF32, 1, 2, 2, 2)

	out := in.Splat(ctx, flow, nil, ml.SplatModeAverage)
	almostEqual(t, out.Floats(), in.Floats())
}

func TestSplatShiftRight(t *testing.T) {
	ctx := &Context{}

	// Flow +1 in x verschiebt jede Spalte nach rechts; Spalte 0 bleibt
	// ohne Beitrag und damit Null, die letzte Spalte faellt aus dem Bild
	in := ctx.FromFloats([]float32{1, 2, 3}, 1, 1, 1, 3)
	fl := make([]float32, 6) // Kanal 0: x-Verschiebung, Kanal 1: y
	fl[0], fl[1], fl[2] = 1, 1, 1
	flow := ctx.FromFloats(fl, 1, 2, 1, 3)

	out := in.Splat(ctx, flow, nil, ml.SplatModeAverage)
	almostEqual(t, out.Floats(), []float32{0, 1, 2})
}

func TestSplatAverageCollision(t *testing.T) {
	ctx := &Context{}

	// Beide Pixel landen auf Position 0: Durchschnitt statt Summe
	in := ctx.FromFloats([]float32{2, 6}, 1, 1, 1, 2)
	flow := ctx.FromFloats([]float32{0, -1, 0, 0}, 1, 2, 1, 2)

	out := in.Splat(ctx, flow, nil, ml.SplatModeAverage)
	got := out.Floats()
	if math.Abs(float64(got[0]-4)) > eps {
		t.Errorf("Position 0 = %f, erwartet Durchschnitt 4", got[0])
	}
}

func TestSplatMetricWeighting(t *testing.T) {
	ctx := &Context{}

	// Metrik 3:1 gewichtet die Kollision: (2*3 + 6*1) / (3+1) = 3
	in := ctx.FromFloats([]float32{2, 6}, 1, 1, 1, 2)
	flow := ctx.FromFloats([]float32{0, -1, 0, 0}, 1, 2, 1, 2)
	metric := ctx.FromFloats([]float32{3, 1}, 1, 1, 1, 2)

	out := in.Splat(ctx, flow, metric, ml.SplatModeAverage)
	got := out.Floats()
	if math.Abs(float64(got[0]-3)) > eps {
		t.Errorf("Position 0 = %f, erwartet 3", got[0])
	}
}

func TestSplatSubpixel(t *testing.T) {
	ctx := &Context{}

	// Halbe Pixel-Verschiebung verteilt den Wert auf zwei Nachbarn
	in := ctx.FromFloats([]float32{4, 0, 0}, 1, 1, 1, 3)
	fl := make([]float32, 6)
	fl[0] = 0.5
	flow := ctx.FromFloats(fl, 1, 2, 1, 3)

	out := in.Splat(ctx, flow, nil, ml.SplatModeAverage)
	got := out.Floats()
	// Durchschnittsmodus: jeder getroffene Pixel traegt Wert/Gewicht,
	// der gesplattete Anteil bleibt also 4
	if math.Abs(float64(got[0]-4)) > eps || math.Abs(float64(got[1]-4)) > eps {
		t.Errorf("Subpixel-Splat = %v, erwartet [4 4 0]", got)
	}
}

func TestCorrelateShape(t *testing.T) {
	ctx := &Context{}

	a := ctx.Zeros(ml.DTypeF32, 2, 8, 6, 6)
	b := ctx.Zeros(ml.DTypeF32, 2, 8, 6, 6)

	out := a.Correlate(ctx, b, 4)
	want := []int{2, 81, 6, 6}
	if !sameShape(out.Shape(), want) {
		t.Errorf("Shape = %v, erwartet %v", out.Shape(), want)
	}
}

func TestCorrelateCenterMatch(t *testing.T) {
	ctx := &Context{}

	// Konstante Eingaben: Zentrum liefert den Kanal-Mittelwert v*v
	data := make([]float32, 2*3*3)
	for i := range data {
		data[i] = 2
	}
	a := ctx.FromFloats(data, 1, 2, 3, 3)

	out := cpuTensor(a.Correlate(ctx, a, 1))

	// Kanal-Layout: d = (dy+r)*(2r+1) + (dx+r), Zentrum bei d=4
	center := out.data[4*9 : 5*9]
	for i, v := range center {
		if math.Abs(float64(v-4)) > eps {
			t.Fatalf("Zentrum %d = %f, erwartet 4", i, v)
		}
	}

	// Verschiebung (+1,0) am rechten Rand zeigt aus dem Bild: Null
	right := out.data[5*9 : 6*9]
	if right[2] != 0 || right[5] != 0 || right[8] != 0 {
		t.Errorf("Randwerte = %v, erwartet 0 am rechten Rand", right)
	}
	if math.Abs(float64(right[0]-4)) > eps {
		t.Errorf("Innenwert = %f, erwartet 4", right[0])
	}
}

func TestCorrelateDisplacement(t *testing.T) {
	ctx := &Context{}

	// Einzelkanal-Impuls: Korrelation findet den verschobenen Peak
	a := ctx.FromFloats([]float32{0, 0, 0, 0, 1, 0, 0, 0, 0}, 1, 1, 3, 3)
	b := ctx.FromFloats([]float32{0, 0, 0, 0, 0, 1, 0, 0, 0}, 1, 1, 3, 3)

	out := cpuTensor(a.Correlate(ctx, b, 1))

	// Peak bei dx=+1, dy=0 -> Kanal 5, Position (1,1)
	if math.Abs(float64(out.data[5*9+4]-1)) > eps {
		t.Errorf("Peak-Kanal = %f, erwartet 1", out.data[5*9+4])
	}
	if math.Abs(float64(out.data[4*9+4])) > eps {
		t.Errorf("Zentrums-Kanal = %f, erwartet 0", out.data[4*9+4])
	}
}
