// Package rgbd - Pyramidale RGB-D Frame-Interpolation
//
// Dieses Paket implementiert die Coarse-to-Fine-Inferenz:
//   - Model: der Pyramiden-Scheduler, treibt Motion-Estimation und Synthese
//     ueber die Aufloesungsstufen und verwaltet die Skip-Politik
//   - FeatPyramid / ModalityFusion: geteilte Feature-Extraktion (pyramid.go)
//   - MotionEstimator: bidirektionale Fluss-Verfeinerung (motion.go)
//   - SelfAttention: Kontext-Fusion im Decoder (attention.go)
//   - SynthesisNetwork: Encoder/Decoder-Bildsynthese (synthesis.go)
//
// Alle Tensoren zwischen den Stufen werden funktional getragen: jede
// Stufen-Transition erzeugt neue Tensoren, nichts wird in-place veraendert.
package rgbd

import (
	"errors"
	"fmt"

	"github.com/pyrflow/pyrflow/fs"
	"github.com/pyrflow/pyrflow/ml"
	"github.com/pyrflow/pyrflow/model"
)

// Fehler-Definitionen; alle werden vor jeder Berechnung gemeldet
var (
	ErrShapeViolation = errors.New("input dimensions violate pyramid requirements")
	ErrPyramidConfig  = errors.New("invalid pyramid configuration")
	ErrTimePeriod     = errors.New("time period must lie strictly between 0 and 1")
)

// Model ist der Pyramiden-Scheduler ueber alle Komponenten der Architektur.
// Eine FeatPyramid-Instanz pro Modalitaet wird fuer beide Frames
// wiederverwendet; die gelernten Parameter sind nach dem Laden unveraenderlich.
type Model struct {
	model.Base

	FeatRGB   *FeatPyramid      `gguf:"feat_rgb"`
	FeatDepth *FeatPyramid      `gguf:"feat_depth"`
	Fusion    *ModalityFusion   `gguf:"fuse"`
	Motion    *MotionEstimator  `gguf:"motion"`
	Synthesis *SynthesisNetwork `gguf:"synth"`

	*Options
}

func init() {
	model.Register("rgbd-interp", New)
}

// New erstellt ein unbefuelltes Modell; die Tensoren werden anschliessend
// per Reflection aus dem Backend geladen
func New(c fs.Config) (model.Model, error) {
	return &Model{Options: optionsFromConfig(c)}, nil
}

// Validate prueft nach dem Befuellen, dass alle Teilnetze vorhanden sind.
// Fehlt ein Teilnetz im Checkpoint, bleibt sein Zeiger nil.
func (m *Model) Validate() error {
	missing := ""
	switch {
	case m.FeatRGB == nil:
		missing = "feat_rgb"
	case m.FeatDepth == nil:
		missing = "feat_depth"
	case m.Fusion == nil:
		missing = "fuse"
	case m.Motion == nil:
		missing = "motion"
	case m.Synthesis == nil:
		missing = "synth"
	}
	if missing != "" {
		return fmt.Errorf("%w: missing subnetwork %q", ErrPyramidConfig, missing)
	}
	return nil
}

// LevelOutput ist das Diagnose-Ergebnis einer verarbeiteten Pyramiden-Stufe
type LevelOutput struct {
	Level int
	Frame ml.Tensor
	Flow  ml.Tensor
}

// Result ist das Ergebnis einer Interpolation
type Result struct {
	// Frame ist das interpolierte Bild (n, 3, h, w) mit Werten in [0, 1]
	Frame ml.Tensor

	// Flow ist der bidirektionale Fluss in voller Aufloesung (n, 4, h, w)
	Flow ml.Tensor

	// Levels enthaelt Frame und Fluss jeder verarbeiteten Stufe,
	// von der groebsten zur feinsten
	Levels []LevelOutput
}

// Interpolate synthetisiert das Zwischenbild zur Zeit timePeriod zwischen
// img0 und img1. depth0/depth1 sind die 3-kanaligen Tiefen-Tensoren der
// beiden Frames. opts nil verwendet die Modell-Konfiguration.
func (m *Model) Interpolate(ctx ml.Context, img0, img1, depth0, depth1 ml.Tensor,
	timePeriod float32, opts *Options) (*Result, error) {

	if opts == nil {
		opts = m.Options
	}
	if err := validateInputs(img0, img1, depth0, depth1, timePeriod, opts); err != nil {
		return nil, err
	}

	levels, skipped := opts.PyramidLevels, opts.SkippedLevels
	n, h, w := img0.Dim(0), img0.Dim(2), img0.Dim(3)

	var flow, feat, frame, fullFlow ml.Tensor
	var outputs []LevelOutput

	for level := levels - 1; level >= 0; level-- {
		// uebersprungene Zwischenstufen sind vollstaendige No-ops;
		// die naechste verarbeitete Stufe nutzt den Zustand von davor
		if skipped > 0 && level != 0 && level < skipped {
			continue
		}

		i0, i1 := downsampleTo(ctx, img0, level), downsampleTo(ctx, img1, level)
		d0, d1 := downsampleTo(ctx, depth0, level), downsampleTo(ctx, depth1, level)

		var lastFlow, lastFeat, lastInterp ml.Tensor
		skipMotion := false

		switch {
		case skipped == levels:
			// alles uebersprungen: Stufe 0 synthetisiert direkt aus
			// Null-Fluss, Motion-Estimation laeuft nie
			lastFlow = ctx.Zeros(ml.DTypeF32, n, 4, h/4, w/4)
			lastFeat = ctx.Zeros(ml.DTypeF32, n, 64, h/4, w/4)
			skipMotion = true

		case level == levels-1:
			// groebste Stufe: Null-initialisierter Zustand
			lh, lw := h>>(level+2), w>>(level+2)
			lastFlow = ctx.Zeros(ml.DTypeF32, n, 4, lh, lw)
			lastFeat = ctx.Zeros(ml.DTypeF32, n, 64, lh, lw)

		case level == 0 && skipped > 0:
			// letzter berechneter Fluss um 2^S hochskaliert,
			// Betraege im gleichen Faktor
			factor := 1 << skipped
			lastFlow = resizeBy(ctx, flow, factor, 1).Scale(ctx, float64(factor))
			lastInterp = resizeBy(ctx, frame, factor, 1)
			lastFeat = feat
			skipMotion = true

		default:
			// normale Transition: Fluss und Feature x2 mit verdoppelten
			// Betraegen, Interpolation x2 ohne Betrags-Skalierung
			lastFlow = resizeBy(ctx, flow, 2, 1).Scale(ctx, 2)
			lastFeat = resizeBy(ctx, feat, 2, 1).Scale(ctx, 2)
			lastInterp = resizeBy(ctx, frame, 2, 1)
		}

		flow, feat, frame, fullFlow = m.interpolateLevel(
			ctx, i0, i1, d0, d1, lastFeat, lastFlow, lastInterp, timePeriod, skipMotion)

		outputs = append(outputs, LevelOutput{Level: level, Frame: frame, Flow: fullFlow})
	}

	return &Result{
		Frame:  frame,
		Flow:   resizeBy(ctx, flow, 4, 1),
		Levels: outputs,
	}, nil
}

// interpolateLevel verarbeitet eine Pyramiden-Stufe: Feature-Extraktion
// beider Modalitaeten, Fluss-Verfeinerung (sofern nicht uebersprungen) und
// Frame-Synthese. Rueckgabe: Fluss und Feature auf 1/4 der Stufen-Aufloesung,
// das synthetisierte Bild und der Fluss in Stufen-Aufloesung.
func (m *Model) interpolateLevel(ctx ml.Context, img0, img1, depth0, depth1,
	lastFeat, lastFlow, lastInterp ml.Tensor, timePeriod float32, skipMotion bool) (ml.Tensor, ml.Tensor, ml.Tensor, ml.Tensor) {

	pyr0 := m.Fusion.Forward(ctx, m.FeatRGB.Forward(ctx, img0), m.FeatDepth.Forward(ctx, depth0))
	pyr1 := m.Fusion.Forward(ctx, m.FeatRGB.Forward(ctx, img1), m.FeatDepth.Forward(ctx, depth1))

	flow, feat := lastFlow, lastFeat
	if !skipMotion {
		flow, feat = m.Motion.Forward(ctx, pyr0[2], pyr1[2], lastFeat, lastFlow)
	}

	// Fluss liegt auf 1/4 der Stufen-Aufloesung; fuer die Synthese auf die
	// Stufen-Aufloesung expandieren und die Glaettungs-Pyramide ableiten
	// (sukzessive Halbierung von Aufloesung und Betrag)
	fullFlow := resizeBy(ctx, flow, 4, 1)
	flowPyr := [3]ml.Tensor{fullFlow}
	for i := 1; i < 3; i++ {
		flowPyr[i] = resizeBy(ctx, flowPyr[i-1], 1, 2).Scale(ctx, 0.5)
	}

	// ohne Vor-Interpolation: direkte lineare Warp-Mischung als Startwert
	if lastInterp == nil {
		warped0, warped1 := warpToTime(ctx, fullFlow, img0, img1, timePeriod)
		lastInterp = warped0.Scale(ctx, float64(1-timePeriod)).
			Add(ctx, warped1.Scale(ctx, float64(timePeriod)))
	}

	frame, _ := m.Synthesis.Forward(ctx, lastInterp, img0, img1, depth0, depth1,
		pyr0, pyr1, flowPyr, timePeriod)

	return flow, feat, frame, fullFlow
}

// validateInputs prueft alle Vorbedingungen vor der ersten Berechnung
func validateInputs(img0, img1, depth0, depth1 ml.Tensor, timePeriod float32, opts *Options) error {
	if opts.PyramidLevels < 1 {
		return fmt.Errorf("%w: pyramid levels %d < 1", ErrPyramidConfig, opts.PyramidLevels)
	}
	if opts.SkippedLevels < 0 || opts.SkippedLevels > opts.PyramidLevels {
		return fmt.Errorf("%w: %d levels skipped of %d", ErrPyramidConfig, opts.SkippedLevels, opts.PyramidLevels)
	}
	if timePeriod <= 0 || timePeriod >= 1 {
		return fmt.Errorf("%w: got %f", ErrTimePeriod, timePeriod)
	}

	for _, t := range []ml.Tensor{img0, img1, depth0, depth1} {
		if t == nil || len(t.Shape()) != 4 || t.Dim(1) != 3 {
			return fmt.Errorf("%w: inputs must be 4-D with 3 channels", ErrShapeViolation)
		}
		if !shapesMatch(t, img0) {
			return fmt.Errorf("%w: input shapes differ: %v vs %v", ErrShapeViolation, t.Shape(), img0.Shape())
		}
	}

	divisor := 1 << (opts.PyramidLevels + 2)
	if img0.Dim(2)%divisor != 0 || img0.Dim(3)%divisor != 0 {
		return fmt.Errorf("%w: %dx%d not divisible by %d",
			ErrShapeViolation, img0.Dim(2), img0.Dim(3), divisor)
	}

	return nil
}

// shapesMatch prueft zwei Tensoren auf identische Form
func shapesMatch(a, b ml.Tensor) bool {
	as, bs := a.Shape(), b.Shape()
	if len(as) != len(bs) {
		return false
	}
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

// resizeBy skaliert die raeumlichen Dimensionen bilinear um num/den
func resizeBy(ctx ml.Context, t ml.Tensor, num, den int) ml.Tensor {
	return t.Interpolate(ctx, [4]int{
		t.Dim(0), t.Dim(1), t.Dim(2) * num / den, t.Dim(3) * num / den,
	}, ml.SamplingModeBilinear)
}

// downsampleTo skaliert ein Bild auf die Aufloesung der Pyramiden-Stufe
func downsampleTo(ctx ml.Context, t ml.Tensor, level int) ml.Tensor {
	if level == 0 {
		return t
	}
	return resizeBy(ctx, t, 1, 1<<level)
}
