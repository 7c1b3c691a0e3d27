package rgbd

import (
	"math"

	"github.com/pyrflow/pyrflow/ml"
	"github.com/pyrflow/pyrflow/ml/nn"
)

// ============================================================================
// Frame Synthesis - Encoder/Decoder mit Attention-Fusion
// ============================================================================
//
// Dieses Modul enthaelt:
// - SynthesisNetwork: warpt Bilder und Kontext-Features zur Zielzeit,
//   kodiert sie ueber drei Skalen und dekodiert das Zwischenbild
// - convPReLU / deconvPReLU: Faltungsstufen mit gelernter Aktivierung
// - warpToTime: Vorwaerts-Warping eines Tensor-Paares zur Zielzeit

// convPReLU ist eine Faltung gefolgt von einer kanalweisen PReLU
type convPReLU struct {
	Conv *nn.Conv2D `gguf:"conv"`
	Act  *nn.PReLU  `gguf:"act"`
}

func (s *convPReLU) Forward(ctx ml.Context, t ml.Tensor, stride int) ml.Tensor {
	return s.Act.Forward(ctx, s.Conv.Forward(ctx, t, stride, 1))
}

// deconvPReLU ist eine Upsampling-Stufe: transponierte Faltung (Kernel 4,
// Stride 2, Padding 1 verdoppelt die Aufloesung) und eine 3x3-Nachfaltung,
// beide mit PReLU
type deconvPReLU struct {
	Up      *nn.ConvTranspose2D `gguf:"up"`
	UpAct   *nn.PReLU           `gguf:"up_act"`
	Conv    *nn.Conv2D          `gguf:"conv"`
	ConvAct *nn.PReLU           `gguf:"conv_act"`
}

func (s *deconvPReLU) Forward(ctx ml.Context, t ml.Tensor) ml.Tensor {
	t = s.UpAct.Forward(ctx, s.Up.Forward(ctx, t, 2, 1))
	return s.ConvAct.Forward(ctx, s.Conv.Forward(ctx, t, 1, 1))
}

// SynthesisNetwork erzeugt das interpolierte Bild aus den gewarpten
// Eingaben, den fusionierten Feature-Pyramiden beider Frames und der
// Fluss-Pyramide. Die Encoder-Eingabe hat 31 Kanaele: Vor-Interpolation (3),
// gewarpte und rohe RGB-Bilder (12), gewarpte und rohe Tiefenbilder (12)
// sowie das Fluss-Paar zur Zielzeit (4).
type SynthesisNetwork struct {
	Attention *SelfAttention `gguf:"attn"`

	EncConv  [2]*convPReLU `gguf:"enc_conv"`
	EncDown1 [3]*convPReLU `gguf:"enc_down1"`
	EncDown2 [3]*convPReLU `gguf:"enc_down2"`

	DecUp1  *deconvPReLU  `gguf:"dec_up1"`
	DecUp2  *deconvPReLU  `gguf:"dec_up2"`
	DecConv [2]*convPReLU `gguf:"dec_conv"`

	Pred *nn.Conv2D `gguf:"pred"`
}

// synthAux sind die Nebenausgaben der Synthese fuer Diagnose-Zwecke
type synthAux struct {
	Residual ml.Tensor
	Warped0  ml.Tensor
	Warped1  ml.Tensor
	Merged   ml.Tensor
}

// warpToTime warpt ein Tensor-Paar mit den Fluss-Haelften zur Zielzeit:
// a mit Kanaelen [0:2] skaliert um t, b mit Kanaelen [2:4] um 1-t
func warpToTime(ctx ml.Context, biFlow, a, b ml.Tensor, t float32) (ml.Tensor, ml.Tensor) {
	flow0t := halfFlow(ctx, biFlow, 0).Scale(ctx, float64(t))
	flow1t := halfFlow(ctx, biFlow, 1).Scale(ctx, float64(1-t))

	warped0 := a.Splat(ctx, flow0t, nil, ml.SplatModeAverage)
	warped1 := b.Splat(ctx, flow1t, nil, ml.SplatModeAverage)

	return warped0, warped1
}

// Forward synthetisiert das Zwischenbild zur Zeit t.
// pyr0/pyr1 sind die fusionierten Feature-Pyramiden beider Frames,
// flowPyr die 3-stufige Fluss-Pyramide in voller bis 1/4-Aufloesung.
func (s *SynthesisNetwork) Forward(ctx ml.Context, lastInterp, img0, img1, depth0, depth1 ml.Tensor,
	pyr0, pyr1, flowPyr [3]ml.Tensor, t float32) (ml.Tensor, *synthAux) {

	warped0, warped1 := warpToTime(ctx, flowPyr[0], img0, img1, t)
	warpedD0, warpedD1 := warpToTime(ctx, flowPyr[0], depth0, depth1, t)
	warpedC0, warpedC1 := warpToTime(ctx, flowPyr[0], pyr0[0], pyr1[0], t)

	flowPair := halfFlow(ctx, flowPyr[0], 0).Scale(ctx, float64(t)).
		Concat(ctx, halfFlow(ctx, flowPyr[0], 1).Scale(ctx, float64(1-t)), 1)

	encIn := lastInterp.
		Concat(ctx, warped0, 1).
		Concat(ctx, warped1, 1).
		Concat(ctx, img0, 1).
		Concat(ctx, img1, 1).
		Concat(ctx, warpedD0, 1).
		Concat(ctx, warpedD1, 1).
		Concat(ctx, depth0, 1).
		Concat(ctx, depth1, 1).
		Concat(ctx, flowPair, 1)

	s0 := s.EncConv[1].Forward(ctx, s.EncConv[0].Forward(ctx, encIn, 1), 1)

	s1 := runEncoderStage(ctx, s.EncDown1, s0.Concat(ctx, warpedC0, 1).Concat(ctx, warpedC1, 1))

	warpedC0, warpedC1 = warpToTime(ctx, flowPyr[1], pyr0[1], pyr1[1], t)
	s2 := runEncoderStage(ctx, s.EncDown2, s1.Concat(ctx, warpedC0, 1).Concat(ctx, warpedC1, 1))

	warpedC0, warpedC1 = warpToTime(ctx, flowPyr[2], pyr0[2], pyr1[2], t)
	d1 := s.DecUp1.Forward(ctx, s2.Concat(ctx, warpedC0, 1).Concat(ctx, warpedC1, 1))

	fused := s.Attention.Forward(ctx, d1)

	d2 := s.DecUp2.Forward(ctx, fused.Concat(ctx, s1, 1))
	out := s.DecConv[1].Forward(ctx, s.DecConv[0].Forward(ctx, d2.Concat(ctx, s0, 1), 1), 1)

	refine := s.Pred.Forward(ctx, out, 1, 1)

	// tanh(x/2) == 2*sigmoid(x) - 1
	residual := refine.Slice(ctx, 1, 0, 3, 1).Scale(ctx, 0.5).Tanh(ctx)
	mask0 := refine.Slice(ctx, 1, 3, 4, 1).Sigmoid(ctx)
	mask1 := refine.Slice(ctx, 1, 4, 5, 1).Sigmoid(ctx)

	weight0 := mask0.Scale(ctx, float64(1-t))
	weight1 := mask1.Scale(ctx, float64(t))
	denom := weight0.Add(ctx, weight1).Clamp(ctx, blendEpsilon, math.MaxFloat32)

	merged := warped0.Mul(ctx, weight0).
		Add(ctx, warped1.Mul(ctx, weight1)).
		Div(ctx, denom)

	frame := merged.Add(ctx, residual).Clamp(ctx, 0, 1)

	return frame, &synthAux{
		Residual: residual,
		Warped0:  warped0,
		Warped1:  warped1,
		Merged:   merged,
	}
}

// runEncoderStage faltet eine Downsampling-Stufe: erste Faltung mit
// Stride 2, danach zwei aufloesungserhaltende Faltungen
func runEncoderStage(ctx ml.Context, convs [3]*convPReLU, t ml.Tensor) ml.Tensor {
	t = convs[0].Forward(ctx, t, 2)
	t = convs[1].Forward(ctx, t, 1)
	return convs[2].Forward(ctx, t, 1)
}
