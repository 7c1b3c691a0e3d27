// backend.go - CPU-Backend: Laden von Modell-Gewichten aus GGUF
//
// Dieses Modul enthaelt:
// - Backend: Implementierung von ml.Backend auf Basis einer GGUF-Datei
// - New: Oeffnet die Modell-Datei und registriert sich als "cpu"
// - Get: Liest einen benannten Tensor (F32/F16) und cached ihn
package cpu

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/x448/float16"

	"github.com/pyrflow/pyrflow/fs"
	"github.com/pyrflow/pyrflow/fs/gguf"
	"github.com/pyrflow/pyrflow/logutil"
	"github.com/pyrflow/pyrflow/ml"
)

func init() {
	ml.RegisterBackend("cpu", New)
}

// Backend implementiert ml.Backend auf der CPU
type Backend struct {
	file *gguf.File

	mu      sync.Mutex
	tensors map[string]*Tensor
}

// New oeffnet die GGUF-Datei unter modelPath
func New(modelPath string, params ml.BackendParams) (ml.Backend, error) {
	f, err := gguf.Open(modelPath)
	if err != nil {
		return nil, err
	}

	if f.Architecture() == "" {
		f.Close()
		return nil, fmt.Errorf("model %s has no architecture", modelPath)
	}

	slog.Info("loading model", "path", modelPath, "architecture", f.Architecture(), "tensors", f.NumTensors())

	return &Backend{
		file:    f,
		tensors: make(map[string]*Tensor, f.NumTensors()),
	}, nil
}

// Close gibt die Modell-Datei frei
func (b *Backend) Close() {
	b.file.Close()
}

// Config gibt die Modell-Metadaten zurueck
func (b *Backend) Config() fs.Config {
	return b.file
}

// NewContext erzeugt einen Compute-Context
func (b *Backend) NewContext() ml.Context {
	return &Context{}
}

// Load liest alle Tensor-Daten ein und meldet den Fortschritt in [0,1]
func (b *Backend) Load(ctx context.Context, progress func(float32)) error {
	total := b.file.NumTensors()
	done := 0

	for _, info := range b.file.TensorInfos() {
		if err := ctx.Err(); err != nil {
			return err
		}

		logutil.TraceContext(ctx, "loading tensor", "name", info.Name, "shape", info.Shape)

		if b.Get(info.Name) == nil {
			return fmt.Errorf("failed to load tensor %s", info.Name)
		}

		done++
		if progress != nil {
			progress(float32(done) / float32(total))
		}
	}

	return nil
}

// Get liest einen benannten Tensor, nil wenn er nicht existiert
func (b *Backend) Get(name string) ml.Tensor {
	b.mu.Lock()
	defer b.mu.Unlock()

	if t, ok := b.tensors[name]; ok {
		return t
	}

	info, r, err := b.file.TensorReader(name)
	if err != nil {
		return nil
	}

	t, err := readTensorData(info, r)
	if err != nil {
		slog.Error("failed to read tensor", "name", name, "error", err)
		return nil
	}

	b.tensors[name] = t
	return t
}

// readTensorData dekodiert die Rohdaten eines Tensors zu float32
func readTensorData(info gguf.TensorInfo, r io.Reader) (*Tensor, error) {
	t := newTensor(info.Dims()...)

	switch info.Type {
	case gguf.TensorTypeF32:
		if err := binary.Read(r, binary.LittleEndian, t.data); err != nil {
			return nil, err
		}
	case gguf.TensorTypeF16:
		raw := make([]uint16, len(t.data))
		if err := binary.Read(r, binary.LittleEndian, raw); err != nil {
			return nil, err
		}
		for i, v := range raw {
			t.data[i] = float16.Frombits(v).Float32()
		}
	default:
		return nil, fmt.Errorf("unsupported tensor type %s", info.Type)
	}

	return t, nil
}
