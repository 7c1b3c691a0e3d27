// Package gguf - GGUF Write Operationen
//
// Dieses Modul enthaelt Funktionen zum Schreiben von GGUF-Dateien (V3):
// - Write: Schreibt komplettes GGUF-File mit KV-Paaren und F32-Tensoren
// - writeValue: Generische Write-Funktion fuer Basistypen
// - writeString: String-Serialisierung
// - writeKV: Key-Value Paar Serialisierung
// - writeTensorInfo: Tensor-Metadaten Serialisierung
package gguf

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"runtime"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Tensor beschreibt einen zu schreibenden F32-Tensor
type Tensor struct {
	Name  string
	Shape []uint64
	Data  []float32

	offset uint64
}

// numBytes gibt die Groesse der Tensor-Daten in Bytes zurueck
func (t *Tensor) numBytes() uint64 {
	return uint64(len(t.Data)) * 4
}

// Write schreibt ein GGUF-File mit KV-Paaren und Tensoren (V3 Format)
// Alle Tensoren werden als F32 serialisiert
func Write(f *os.File, kv map[string]any, ts []*Tensor) error {
	arch, _ := kv["general.architecture"].(string)
	if arch == "" {
		return fmt.Errorf("architecture not set")
	}

	if err := binary.Write(f, binary.LittleEndian, ggufMagic); err != nil {
		return err
	}

	if err := binary.Write(f, binary.LittleEndian, uint32(3)); err != nil {
		return err
	}

	if err := binary.Write(f, binary.LittleEndian, uint64(len(ts))); err != nil {
		return err
	}

	if err := binary.Write(f, binary.LittleEndian, uint64(len(kv))); err != nil {
		return err
	}

	keys := make([]string, 0, len(kv))
	for key := range kv {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	for _, key := range keys {
		if err := writeKV(f, key, kv[key]); err != nil {
			return err
		}
	}

	slices.SortStableFunc(ts, func(a, b *Tensor) int {
		return strings.Compare(a.Name, b.Name)
	})

	const alignment = 32

	var s uint64
	for _, t := range ts {
		t.offset = s
		if err := writeTensorInfo(f, t); err != nil {
			return err
		}
		s += t.numBytes()
		s += (alignment - s%alignment) % alignment
	}

	offset, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	offset += (alignment - offset%alignment) % alignment

	// Tensor-Daten parallel schreiben
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, t := range ts {
		w := io.NewOffsetWriter(f, offset+int64(t.offset))
		g.Go(func() error {
			return binary.Write(w, binary.LittleEndian, t.Data)
		})
	}

	return g.Wait()
}

// writeValue schreibt einen typisierten Wert mit Typ-Prefix
func writeValue[V any](w io.Writer, t uint32, v V) error {
	if err := binary.Write(w, binary.LittleEndian, t); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, v)
}

// writeString schreibt einen String mit Typ-Prefix und Laenge
func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, typeString); err != nil {
		return err
	}
	return writeStringData(w, s)
}

// writeStringData schreibt Laenge und Bytes eines Strings
func writeStringData(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint64(len(s))); err != nil {
		return err
	}
	_, err := io.Copy(w, strings.NewReader(s))
	return err
}

// writeKV schreibt ein Key-Value Paar
func writeKV(w io.Writer, key string, value any) error {
	if err := writeStringData(w, key); err != nil {
		return err
	}

	switch v := value.(type) {
	case uint32:
		return writeValue(w, typeUint32, v)
	case int32:
		return writeValue(w, typeInt32, v)
	case uint64:
		return writeValue(w, typeUint64, v)
	case float32:
		return writeValue(w, typeFloat32, v)
	case bool:
		return writeValue(w, typeBool, v)
	case string:
		return writeString(w, v)
	default:
		return fmt.Errorf("%w kv type %T", ErrUnsupported, value)
	}
}

// writeTensorInfo schreibt die Metadaten eines Tensors
func writeTensorInfo(w io.Writer, t *Tensor) error {
	if err := writeStringData(w, t.Name); err != nil {
		return err
	}

	if err := binary.Write(w, binary.LittleEndian, uint32(len(t.Shape))); err != nil {
		return err
	}

	for _, d := range t.Shape {
		if err := binary.Write(w, binary.LittleEndian, d); err != nil {
			return err
		}
	}

	if err := binary.Write(w, binary.LittleEndian, uint32(TensorTypeF32)); err != nil {
		return err
	}

	return binary.Write(w, binary.LittleEndian, t.offset)
}
