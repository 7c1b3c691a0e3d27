// names.go - Abbildung der Checkpoint-Tensornamen auf GGUF-Namen
// Hauptfunktionen: tensorNameMap
package convert

import "fmt"

// addWeightBias traegt weight und bias eines Moduls in die Abbildung ein
func addWeightBias(m map[string]string, src, dst string) {
	m[src+".weight"] = dst + ".weight"
	m[src+".bias"] = dst + ".bias"
}

// addConvPReLUSeq bildet eine Sequential aus n (Conv, PReLU)-Paaren ab:
// Index 2k ist die Faltung, Index 2k+1 die PReLU-Aktivierung
func addConvPReLUSeq(m map[string]string, src, dst string, n int) {
	for k := 0; k < n; k++ {
		addWeightBias(m, fmt.Sprintf("%s.%d", src, 2*k), fmt.Sprintf("%s.%d.conv", dst, k))
		m[fmt.Sprintf("%s.%d.weight", src, 2*k+1)] = fmt.Sprintf("%s.%d.act.weight", dst, k)
	}
}

// tensorNameMap liefert die vollstaendige Abbildung der Trainings-Checkpoint-
// Namen auf die Tensornamen, die das Modell per Reflection erwartet
func tensorNameMap() map[string]string {
	m := make(map[string]string)

	// Feature-Pyramiden beider Modalitaeten: Sequential-Indizes 0/2/4/6
	// sind die Faltungen, dazwischen liegen parameterlose LeakyReLUs
	for _, mod := range []struct{ src, dst string }{
		{"feat_pyramid_rgb", "feat_rgb"},
		{"feat_pyramid_depth", "feat_depth"},
	} {
		for stage := 0; stage < 3; stage++ {
			for k := 0; k < 4; k++ {
				addWeightBias(m,
					fmt.Sprintf("%s.conv_stage%d.%d", mod.src, stage, 2*k),
					fmt.Sprintf("%s.stage%d.%d", mod.dst, stage, k))
			}
		}
	}

	// 1x1-Projektionen der Modalitaets-Fusion
	for level := 0; level < 3; level++ {
		addWeightBias(m,
			fmt.Sprintf("modality_fusion.proj.%d", level),
			fmt.Sprintf("fuse.proj.%d", level))
	}

	// Motion-Estimator: sechs Faltungsstufen
	for k := 0; k < 6; k++ {
		addWeightBias(m,
			fmt.Sprintf("motion_estimator.conv_layer%d.0", k+1),
			fmt.Sprintf("motion.conv.%d", k))
	}

	// Synthese: Encoder- und Decoder-Stufen
	addConvPReLUSeq(m, "synthesis_network.encoder_conv", "synth.enc_conv", 2)
	addConvPReLUSeq(m, "synthesis_network.encoder_down1", "synth.enc_down1", 3)
	addConvPReLUSeq(m, "synthesis_network.encoder_down2", "synth.enc_down2", 3)
	addConvPReLUSeq(m, "synthesis_network.decoder_conv", "synth.dec_conv", 2)

	// Upsampling-Stufen: 0 = transponierte Faltung, 2 = Nachfaltung,
	// 1 und 3 sind die zugehoerigen PReLUs
	for _, up := range []struct{ src, dst string }{
		{"synthesis_network.decoder_up1", "synth.dec_up1"},
		{"synthesis_network.decoder_up2", "synth.dec_up2"},
	} {
		addWeightBias(m, up.src+".0", up.dst+".up")
		m[up.src+".1.weight"] = up.dst + ".up_act.weight"
		addWeightBias(m, up.src+".2", up.dst+".conv")
		m[up.src+".3.weight"] = up.dst + ".conv_act.weight"
	}

	// Self-Attention-Projektionen
	for _, name := range []string{"queries", "keys", "values", "fc_out"} {
		addWeightBias(m, "synthesis_network.self_attention."+name, "synth.attn."+name)
	}

	addWeightBias(m, "synthesis_network.pred", "synth.pred")

	return m
}

// optionalTensors sind Namen, deren Fehlen im Checkpoint kein Fehler ist
// (bias-lose Schichten wie die Attention-Projektionen)
func optionalTensor(name string) bool {
	return len(name) > 5 && name[len(name)-5:] == ".bias"
}
