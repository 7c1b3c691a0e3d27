package rgbd

import (
	"math"

	"github.com/pyrflow/pyrflow/ml"
	"github.com/pyrflow/pyrflow/ml/nn"
)

// ============================================================================
// Self-Attention - Fusion des Decoder-Kontexts vor dem zweiten Upsampling
// ============================================================================

// Attention-Geometrie; embedSize muss durch heads teilbar sein
const (
	attnEmbedSize = 64
	attnHeads     = 4
	attnHeadDim   = attnEmbedSize / attnHeads
)

// SelfAttention fusioniert eine Feature-Karte ueber skalierte
// Skalarprodukt-Attention. Queries, Keys und Values stammen alle aus dem
// einen Eingabe-Tensor; die Projektionen arbeiten pro Kopf auf headDim.
type SelfAttention struct {
	Queries *nn.Linear `gguf:"queries"`
	Keys    *nn.Linear `gguf:"keys"`
	Values  *nn.Linear `gguf:"values"`
	FCOut   *nn.Linear `gguf:"fc_out"`
}

// Forward wendet Self-Attention auf eine Feature-Karte (n, 64, h, w) an.
// Jede Pixel-Position ist ein Token; die Ausgabe hat dieselbe Form.
func (a *SelfAttention) Forward(ctx ml.Context, x ml.Tensor) ml.Tensor {
	n, c, h, w := x.Dim(0), x.Dim(1), x.Dim(2), x.Dim(3)
	tokens := h * w

	// (n, c, h, w) -> (n, heads, tokens, headDim)
	t := x.Reshape(ctx, n, c, tokens).
		Permute(ctx, 0, 2, 1).
		Reshape(ctx, n, tokens, attnHeads, attnHeadDim).
		Permute(ctx, 0, 2, 1, 3)

	q := a.Queries.Forward(ctx, t)
	k := a.Keys.Forward(ctx, t)
	v := a.Values.Forward(ctx, t)

	scale := 1 / math.Sqrt(attnEmbedSize)
	energy := q.Mulmat(ctx, k.Permute(ctx, 0, 1, 3, 2)).Scale(ctx, scale)
	weights := energy.Softmax(ctx)

	// (n, heads, tokens, headDim) -> (n, tokens, embed)
	out := weights.Mulmat(ctx, v).
		Permute(ctx, 0, 2, 1, 3).
		Reshape(ctx, n, tokens, attnEmbedSize)

	return a.FCOut.Forward(ctx, out).
		Permute(ctx, 0, 2, 1).
		Reshape(ctx, n, c, h, w)
}
