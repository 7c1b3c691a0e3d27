package rgbd

import (
	"github.com/pyrflow/pyrflow/ml"
	"github.com/pyrflow/pyrflow/ml/nn"
)

// ============================================================================
// Motion Estimation - bidirektionale Fluss-Schaetzung auf Stufe 2
// ============================================================================
//
// Dieses Modul enthaelt:
// - MotionEstimator: Verfeinerung des bidirektionalen Flusses aus dem
//   Korrelations-Volumen der vorgewarpten Stufe-2-Features
//
// Der Estimator sieht den Fluss der groeberen Stufe als Eingabe und warpt
// die Features damit vor; nur so bleibt der Suchradius der Korrelation
// beschraenkt.

// MotionEstimator schaetzt den 4-Kanal-Fluss auf 1/4 der Eingabe-Aufloesung.
// Kanal-Schema der Eingabe: 81 (Korrelation) + 64 + 64 (gewarpte Features)
// + 64 (vorheriges Feature) + 4 (vorheriger Fluss) = 277
type MotionEstimator struct {
	Conv [6]*nn.Conv2D `gguf:"conv"`
}

// Forward verfeinert den Fluss: (feat0, feat1, lastFeat, lastFlow) ->
// (flow, feat). feat ist die Ausgabe der vorletzten Faltungsstufe und wird
// als Zustand in die naechste Pyramiden-Stufe getragen.
func (m *MotionEstimator) Forward(ctx ml.Context, feat0, feat1, lastFeat, lastFlow ml.Tensor) (ml.Tensor, ml.Tensor) {
	// Features mit den Fluss-Haelften zur Zielzeit vorwaerts warpen.
	// Faktor 0.25*0.5: Fluss liegt in Pixeln der vollen Aufloesung vor,
	// die Features auf 1/4, und verfeinert wird in Halbschritten.
	warp0 := feat0.Splat(ctx, halfFlow(ctx, lastFlow, 0).Scale(ctx, 0.25*0.5), nil, ml.SplatModeAverage)
	warp1 := feat1.Splat(ctx, halfFlow(ctx, lastFlow, 1).Scale(ctx, 0.25*0.5), nil, ml.SplatModeAverage)

	volume := warp0.Correlate(ctx, warp1, correlationRadius).LeakyReLU(ctx, 0.1)

	t := volume.
		Concat(ctx, warp0, 1).
		Concat(ctx, warp1, 1).
		Concat(ctx, lastFeat, 1).
		Concat(ctx, lastFlow, 1)

	// 1x1-Mischstufe, dann vier 3x3-Stufen, jeweils mit LeakyReLU(0.1)
	t = m.Conv[0].Forward(ctx, t, 1, 0).LeakyReLU(ctx, 0.1)
	for _, conv := range m.Conv[1:5] {
		t = conv.Forward(ctx, t, 1, 1).LeakyReLU(ctx, 0.1)
	}

	// letzte Stufe liefert den verfeinerten Fluss ohne Aktivierung
	flow := m.Conv[5].Forward(ctx, t, 1, 1)

	return flow, t
}

// halfFlow schneidet eine Richtung aus dem bidirektionalen Fluss:
// half 0 = Kanaele [0:2] (Frame0 -> t), half 1 = Kanaele [2:4] (Frame1 -> t)
func halfFlow(ctx ml.Context, flow ml.Tensor, half int) ml.Tensor {
	return flow.Slice(ctx, 1, half*2, half*2+2, 1)
}
