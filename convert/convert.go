// convert.go - Konvertiert PyTorch-Checkpoints (.pt) zu GGUF
// Hauptfunktionen: Convert, stateDict, tensorData
package convert

import (
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/nlpodyssey/gopickle/pytorch"
	"github.com/nlpodyssey/gopickle/types"

	"github.com/pyrflow/pyrflow/fs/gguf"
)

// Convert liest einen PyTorch-Checkpoint und schreibt ihn als GGUF-Datei.
// Die Tensornamen werden auf das Schema der rgbd-interp-Architektur
// abgebildet; die Pyramiden-Metadaten werden als KV-Paare hinterlegt.
func Convert(srcPath, dstPath string) error {
	obj, err := pytorch.Load(srcPath)
	if err != nil {
		return fmt.Errorf("checkpoint laden fehlgeschlagen: %w", err)
	}

	sd, err := stateDict(obj)
	if err != nil {
		return err
	}

	nameMap := tensorNameMap()

	// deterministische Reihenfolge fuer reproduzierbare Ausgaben
	srcNames := make([]string, 0, len(nameMap))
	for src := range nameMap {
		srcNames = append(srcNames, src)
	}
	sort.Strings(srcNames)

	var tensors []*gguf.Tensor
	for _, src := range srcNames {
		t, ok := sd[src]
		if !ok {
			if optionalTensor(src) {
				continue
			}
			return fmt.Errorf("tensor %q fehlt im checkpoint", src)
		}

		data, err := tensorData(t)
		if err != nil {
			return fmt.Errorf("tensor %q: %w", src, err)
		}

		shape := make([]uint64, len(t.Size))
		for i, d := range t.Size {
			shape[i] = uint64(d)
		}

		slog.Debug("converting tensor", "source", src, "target", nameMap[src], "shape", shape)
		tensors = append(tensors, &gguf.Tensor{
			Name:  nameMap[src],
			Shape: shape,
			Data:  data,
		})
	}

	kv := map[string]any{
		"general.architecture":           "rgbd-interp",
		"rgbd-interp.pyramid_levels":     uint32(3),
		"rgbd-interp.levels_skipped":     uint32(0),
		"rgbd-interp.correlation_radius": uint32(4),
	}

	out, err := os.Create(dstPath)
	if err != nil {
		return err
	}
	defer out.Close()

	if err := gguf.Write(out, kv, tensors); err != nil {
		return fmt.Errorf("gguf schreiben fehlgeschlagen: %w", err)
	}

	slog.Info("checkpoint converted", "tensors", len(tensors), "output", dstPath)
	return nil
}

// stateDict extrahiert das State-Dict aus dem geladenen Checkpoint.
// Unterstuetzt direkte Dicts sowie Checkpoints, die das State-Dict unter
// "state_dict" oder "model" ablegen.
func stateDict(obj any) (map[string]*pytorch.Tensor, error) {
	entries, err := dictEntries(obj)
	if err != nil {
		return nil, err
	}

	// verschachteltes State-Dict auspacken
	for _, key := range []string{"state_dict", "model"} {
		if nested, ok := entries[key]; ok {
			if nestedEntries, err := dictEntries(nested); err == nil {
				entries = nestedEntries
				break
			}
		}
	}

	sd := make(map[string]*pytorch.Tensor, len(entries))
	for name, value := range entries {
		t, ok := value.(*pytorch.Tensor)
		if !ok {
			continue
		}
		sd[name] = t
	}

	if len(sd) == 0 {
		return nil, fmt.Errorf("checkpoint enthaelt keine tensoren")
	}
	return sd, nil
}

// dictEntries liest die Schluessel/Wert-Paare eines Pickle-Dicts
func dictEntries(obj any) (map[string]any, error) {
	out := make(map[string]any)

	switch d := obj.(type) {
	case *types.Dict:
		for _, entry := range *d {
			if key, ok := entry.Key.(string); ok {
				out[key] = entry.Value
			}
		}
	case *types.OrderedDict:
		for key, entry := range d.Map {
			if k, ok := key.(string); ok {
				out[k] = entry.Value
			}
		}
	default:
		return nil, fmt.Errorf("unerwarteter checkpoint-typ %T", obj)
	}

	return out, nil
}

// tensorData liest die float32-Daten eines Torch-Tensors.
// Es werden nur dicht gespeicherte Tensoren unterstuetzt.
func tensorData(t *pytorch.Tensor) ([]float32, error) {
	n := 1
	for _, d := range t.Size {
		n *= d
	}
	offset := int(t.StorageOffset)

	switch s := t.Source.(type) {
	case *pytorch.FloatStorage:
		if offset+n > len(s.Data) {
			return nil, fmt.Errorf("storage zu klein: %d+%d > %d", offset, n, len(s.Data))
		}
		return s.Data[offset : offset+n], nil
	case *pytorch.HalfStorage:
		if offset+n > len(s.Data) {
			return nil, fmt.Errorf("storage zu klein: %d+%d > %d", offset, n, len(s.Data))
		}
		return s.Data[offset : offset+n], nil
	case *pytorch.DoubleStorage:
		if offset+n > len(s.Data) {
			return nil, fmt.Errorf("storage zu klein: %d+%d > %d", offset, n, len(s.Data))
		}
		data := make([]float32, n)
		for i, v := range s.Data[offset : offset+n] {
			data[i] = float32(v)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("nicht unterstuetzter storage-typ %T", t.Source)
	}
}
