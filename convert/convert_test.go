// convert_test.go - Tests der Checkpoint-Konvertierung
package convert

import (
	"testing"

	"github.com/nlpodyssey/gopickle/pytorch"
	"github.com/nlpodyssey/gopickle/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTensorNameMap(t *testing.T) {
	m := tensorNameMap()

	// Stichproben quer durch alle Komponenten
	assert.Equal(t, "feat_rgb.stage0.0.weight", m["feat_pyramid_rgb.conv_stage0.0.weight"])
	assert.Equal(t, "feat_depth.stage2.3.bias", m["feat_pyramid_depth.conv_stage2.6.bias"])
	assert.Equal(t, "fuse.proj.1.weight", m["modality_fusion.proj.1.weight"])
	assert.Equal(t, "motion.conv.0.weight", m["motion_estimator.conv_layer1.0.weight"])
	assert.Equal(t, "motion.conv.5.bias", m["motion_estimator.conv_layer6.0.bias"])
	assert.Equal(t, "synth.enc_conv.1.act.weight", m["synthesis_network.encoder_conv.3.weight"])
	assert.Equal(t, "synth.dec_up1.up.weight", m["synthesis_network.decoder_up1.0.weight"])
	assert.Equal(t, "synth.dec_up2.conv_act.weight", m["synthesis_network.decoder_up2.3.weight"])
	assert.Equal(t, "synth.attn.fc_out.bias", m["synthesis_network.self_attention.fc_out.bias"])
	assert.Equal(t, "synth.pred.weight", m["synthesis_network.pred.weight"])

	// keine doppelten Zielnamen
	seen := make(map[string]string, len(m))
	for src, dst := range m {
		if prev, ok := seen[dst]; ok {
			t.Fatalf("Ziel %q doppelt belegt: %q und %q", dst, prev, src)
		}
		seen[dst] = src
	}
}

func TestStateDictUnwrapsNesting(t *testing.T) {
	tensor := &pytorch.Tensor{
		Size:   []int{2},
		Source: &pytorch.FloatStorage{Data: []float32{1, 2}},
	}

	inner := types.NewDict()
	inner.Set("synthesis_network.pred.weight", tensor)

	outer := types.NewDict()
	outer.Set("state_dict", inner)
	outer.Set("epoch", 17)

	sd, err := stateDict(outer)
	require.NoError(t, err)
	require.Len(t, sd, 1)
	assert.Same(t, tensor, sd["synthesis_network.pred.weight"])
}

func TestStateDictOrderedDict(t *testing.T) {
	tensor := &pytorch.Tensor{
		Size:   []int{1},
		Source: &pytorch.FloatStorage{Data: []float32{3}},
	}

	od := types.NewOrderedDict()
	od.Set("motion_estimator.conv_layer1.0.bias", tensor)

	sd, err := stateDict(od)
	require.NoError(t, err)
	assert.Same(t, tensor, sd["motion_estimator.conv_layer1.0.bias"])
}

func TestStateDictRejectsUnknownType(t *testing.T) {
	_, err := stateDict("kein dict")
	assert.Error(t, err)
}

func TestTensorData(t *testing.T) {
	f32 := &pytorch.Tensor{
		Size:   []int{2, 2},
		Source: &pytorch.FloatStorage{Data: []float32{1, 2, 3, 4}},
	}
	data, err := tensorData(f32)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3, 4}, data)

	f64 := &pytorch.Tensor{
		Size:   []int{2},
		Source: &pytorch.DoubleStorage{Data: []float64{0.5, 1.5}},
	}
	data, err = tensorData(f64)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 1.5}, data)

	short := &pytorch.Tensor{
		Size:   []int{8},
		Source: &pytorch.FloatStorage{Data: []float32{1}},
	}
	_, err = tensorData(short)
	assert.Error(t, err)
}
