// Package gguf - GGUF File Struktur und Open/Close
//
// Dieses Modul enthaelt die File-Hauptstruktur fuer GGUF-Dateien:
// - File: Repraesentiert eine geoeffnete GGUF-Datei
// - Open: Oeffnet und parst eine GGUF-Datei
// - Close: Schliesst die Datei und raeumt Ressourcen auf
// - Accessor-Methoden fuer Key-Values und Tensor-Infos
package gguf

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"slices"
	"strings"
)

// Type-Konstanten fuer GGUF-Datentypen
const (
	typeUint8 uint32 = iota
	typeInt8
	typeUint16
	typeInt16
	typeUint32
	typeInt32
	typeFloat32
	typeBool
	typeString
	typeArray
	typeUint64
	typeInt64
	typeFloat64
)

var ggufMagic = []byte("GGUF")

// ErrUnsupported wird bei nicht unterstuetzten Formaten oder Versionen zurueckgegeben
var ErrUnsupported = errors.New("unsupported")

// File repraesentiert eine geoeffnete GGUF-Datei
type File struct {
	Magic   [4]byte
	Version uint32

	keyValues []KeyValue
	tensors   []TensorInfo
	offset    int64

	file *os.File
}

// Open oeffnet eine GGUF-Datei und parst Header, Key-Values und Tensor-Infos
func Open(path string) (f *File, err error) {
	f = &File{}
	f.file, err = os.Open(path)
	if err != nil {
		return nil, err
	}

	r := &countingReader{r: f.file}

	if err := binary.Read(r, binary.LittleEndian, &f.Magic); err != nil {
		return nil, err
	}

	if !bytes.Equal(f.Magic[:], ggufMagic) {
		return nil, fmt.Errorf("%w file type %v", ErrUnsupported, f.Magic)
	}

	if err := binary.Read(r, binary.LittleEndian, &f.Version); err != nil {
		return nil, err
	}

	if f.Version < 2 {
		return nil, fmt.Errorf("%w version %v", ErrUnsupported, f.Version)
	}

	numTensors, err := read[uint64](r)
	if err != nil {
		return nil, err
	}

	numKeyValues, err := read[uint64](r)
	if err != nil {
		return nil, err
	}

	f.keyValues = make([]KeyValue, 0, numKeyValues)
	for range numKeyValues {
		kv, err := readKeyValue(r)
		if err != nil {
			return nil, err
		}
		f.keyValues = append(f.keyValues, kv)
	}

	f.tensors = make([]TensorInfo, 0, numTensors)
	for range numTensors {
		t, err := readTensor(r)
		if err != nil {
			return nil, err
		}
		f.tensors = append(f.tensors, t)
	}

	alignment := f.KeyValue("general.alignment").Int()
	if alignment == 0 {
		alignment = 32
	}
	f.offset = r.offset + (alignment-r.offset%alignment)%alignment

	return f, nil
}

// Close schliesst die zugrundeliegende Datei
func (f *File) Close() error {
	return f.file.Close()
}

// KeyValue sucht ein Key-Value Paar nach Name
// Wenn der Key nicht mit "general." beginnt, wird der
// Architecture-Prefix automatisch hinzugefuegt
func (f *File) KeyValue(key string) KeyValue {
	if !strings.HasPrefix(key, "general.") {
		key = f.KeyValue("general.architecture").String() + "." + key
	}

	if index := slices.IndexFunc(f.keyValues, func(kv KeyValue) bool {
		return kv.Key == key
	}); index >= 0 {
		return f.keyValues[index]
	}

	return KeyValue{}
}

// NumKeyValues gibt die Anzahl der Key-Value Paare zurueck
func (f *File) NumKeyValues() int {
	return len(f.keyValues)
}

// KeyValues gibt einen Iterator ueber alle Key-Value Paare zurueck
func (f *File) KeyValues() iter.Seq2[int, KeyValue] {
	return func(yield func(int, KeyValue) bool) {
		for i, kv := range f.keyValues {
			if !yield(i, kv) {
				return
			}
		}
	}
}

// TensorInfo sucht Tensor-Info nach Name
func (f *File) TensorInfo(name string) TensorInfo {
	if index := slices.IndexFunc(f.tensors, func(t TensorInfo) bool {
		return t.Name == name
	}); index >= 0 {
		return f.tensors[index]
	}

	return TensorInfo{}
}

// NumTensors gibt die Anzahl der Tensors zurueck
func (f *File) NumTensors() int {
	return len(f.tensors)
}

// TensorInfos gibt einen Iterator ueber alle Tensor-Infos zurueck
func (f *File) TensorInfos() iter.Seq2[int, TensorInfo] {
	return func(yield func(int, TensorInfo) bool) {
		for i, t := range f.tensors {
			if !yield(i, t) {
				return
			}
		}
	}
}

// TensorReader liefert Tensor-Info und einen Reader fuer die Tensor-Daten
func (f *File) TensorReader(name string) (TensorInfo, io.Reader, error) {
	t := f.TensorInfo(name)
	if t.NumBytes() == 0 {
		return TensorInfo{}, nil, fmt.Errorf("tensor %s not found", name)
	}

	return t, io.NewSectionReader(f.file, f.offset+int64(t.Offset), t.NumBytes()), nil
}

// countingReader zaehlt gelesene Bytes fuer die Offset-Berechnung
type countingReader struct {
	r      io.Reader
	offset int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.offset += int64(n)
	return n, err
}
