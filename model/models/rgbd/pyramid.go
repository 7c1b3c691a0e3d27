package rgbd

import (
	"github.com/pyrflow/pyrflow/ml"
	"github.com/pyrflow/pyrflow/ml/nn"
)

// ============================================================================
// Feature-Pyramide - geteilter Extraktor fuer beide Modalitaeten
// ============================================================================
//
// Dieses Modul enthaelt:
// - FeatPyramid: 3-stufige Feature-Pyramide (16/32/64 Kanaele)
// - ModalityFusion: 1x1-Projektion der konkatenierten RGB/Tiefen-Features

// pyramidChannels sind die Kanal-Tiefen der drei Pyramiden-Stufen
var pyramidChannels = [3]int{16, 32, 64}

// FeatPyramid erzeugt eine 3-stufige Feature-Pyramide aus einem Bild.
// Stufe 0 erhaelt die Aufloesung, Stufe 1 und 2 halbieren sie jeweils.
// Eine Instanz wird pro Modalitaet fuer beide Frames wiederverwendet.
type FeatPyramid struct {
	Stage0 [4]*nn.Conv2D `gguf:"stage0"`
	Stage1 [4]*nn.Conv2D `gguf:"stage1"`
	Stage2 [4]*nn.Conv2D `gguf:"stage2"`
}

// runStage faltet eine Stufe: erste Faltung mit gegebenem Stride,
// danach drei aufloesungserhaltende Faltungen, jede mit LeakyReLU(0.1)
func runStage(ctx ml.Context, convs [4]*nn.Conv2D, t ml.Tensor, stride int) ml.Tensor {
	t = convs[0].Forward(ctx, t, stride, 1).LeakyReLU(ctx, 0.1)
	for _, conv := range convs[1:] {
		t = conv.Forward(ctx, t, 1, 1).LeakyReLU(ctx, 0.1)
	}

	return t
}

// Forward extrahiert die Pyramide eines Bildes (n, 3, h, w).
// Rueckgabe: [c0 (16, h, w), c1 (32, h/2, w/2), c2 (64, h/4, w/4)]
func (p *FeatPyramid) Forward(ctx ml.Context, img ml.Tensor) [3]ml.Tensor {
	c0 := runStage(ctx, p.Stage0, img, 1)
	c1 := runStage(ctx, p.Stage1, c0, 2)
	c2 := runStage(ctx, p.Stage2, c1, 2)

	return [3]ml.Tensor{c0, c1, c2}
}

// ModalityFusion projiziert pro Stufe die konkatenierten RGB- und
// Tiefen-Features (32/64/128 Kanaele) zurueck auf die Stufen-Tiefe
// (16/32/64), damit die Kanal-Arithmetik der Folgestufen erhalten bleibt.
type ModalityFusion struct {
	Proj [3]*nn.Conv2D `gguf:"proj"`
}

// Forward fusioniert die beiden Modalitaets-Pyramiden eines Frames
func (f *ModalityFusion) Forward(ctx ml.Context, rgb, depth [3]ml.Tensor) [3]ml.Tensor {
	var fused [3]ml.Tensor
	for level := range fused {
		cat := rgb[level].Concat(ctx, depth[level], 1)
		fused[level] = f.Proj[level].Forward(ctx, cat, 1, 0)
	}

	return fused
}
