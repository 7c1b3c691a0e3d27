// Package gguf - Tests fuer Write/Open Roundtrip
package gguf

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// writeTestFile schreibt eine kleine GGUF-Datei und gibt den Pfad zurueck
func writeTestFile(t *testing.T, kv map[string]any, ts []*Tensor) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "model.gguf")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if err := Write(f, kv, ts); err != nil {
		t.Fatalf("Write fehlgeschlagen: %v", err)
	}

	return path
}

func TestRoundtrip(t *testing.T) {
	kv := map[string]any{
		"general.architecture":       "rgbd-interp",
		"rgbd-interp.pyramid_levels": uint32(3),
		"rgbd-interp.scale":          float32(0.25),
		"rgbd-interp.bidirectional":  true,
	}

	ts := []*Tensor{
		{Name: "me.conv1.weight", Shape: []uint64{160, 277, 1, 1}, Data: make([]float32, 160*277)},
		{Name: "me.conv1.bias", Shape: []uint64{3}, Data: []float32{1, 2, 3}},
	}

	f, err := Open(writeTestFile(t, kv, ts))
	if err != nil {
		t.Fatalf("Open fehlgeschlagen: %v", err)
	}
	defer f.Close()

	if f.Version != 3 {
		t.Errorf("Version = %d, erwartet 3", f.Version)
	}

	if got := f.Architecture(); got != "rgbd-interp" {
		t.Errorf("Architecture = %q, erwartet %q", got, "rgbd-interp")
	}

	// Arch-Prefix wird automatisch ergaenzt
	if got := f.Uint("pyramid_levels"); got != 3 {
		t.Errorf("pyramid_levels = %d, erwartet 3", got)
	}

	if got := f.Float("scale"); got != 0.25 {
		t.Errorf("scale = %f, erwartet 0.25", got)
	}

	if !f.Bool("bidirectional") {
		t.Error("bidirectional = false, erwartet true")
	}

	if f.NumTensors() != 2 {
		t.Fatalf("NumTensors = %d, erwartet 2", f.NumTensors())
	}

	info := f.TensorInfo("me.conv1.weight")
	if diff := cmp.Diff([]int{160, 277, 1, 1}, info.Dims()); diff != "" {
		t.Errorf("unerwartete Shape (-want +got):\n%s", diff)
	}
	if info.Type != TensorTypeF32 {
		t.Errorf("Type = %v, erwartet F32", info.Type)
	}

	_, r, err := f.TensorReader("me.conv1.bias")
	if err != nil {
		t.Fatalf("TensorReader fehlgeschlagen: %v", err)
	}

	data := make([]float32, 3)
	if err := binary.Read(r, binary.LittleEndian, data); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]float32{1, 2, 3}, data); diff != "" {
		t.Errorf("unerwartete Tensor-Daten (-want +got):\n%s", diff)
	}
}

func TestDefaults(t *testing.T) {
	kv := map[string]any{"general.architecture": "rgbd-interp"}
	f, err := Open(writeTestFile(t, kv, nil))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if got := f.Uint("missing", 7); got != 7 {
		t.Errorf("Uint default = %d, erwartet 7", got)
	}
	if got := f.String("missing", "x"); got != "x" {
		t.Errorf("String default = %q, erwartet %q", got, "x")
	}

	if _, _, err := f.TensorReader("nope"); err == nil {
		t.Error("TensorReader fuer fehlenden Tensor sollte fehlschlagen")
	}
}

func TestOpenRejectsBadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.gguf")
	if err := os.WriteFile(path, []byte("nope....."), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Open(path); err == nil {
		t.Error("Open sollte ungueltige Magic ablehnen")
	}
}
