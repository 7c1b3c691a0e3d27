// Package gguf - Typen fuer Key-Values und Tensor-Infos
//
// Dieses Modul enthaelt:
// - KeyValue/Value: Typisierte Metadaten-Zugriffe
// - TensorInfo: Name, Shape, Typ und Offset eines Tensors
// - TensorType: Unterstuetzte Element-Typen (F32, F16)
// - Config-Implementierung (fs.Config) auf File-Ebene
package gguf

import "slices"

// TensorType beschreibt den Element-Typ eines Tensors
type TensorType uint32

const (
	TensorTypeF32 TensorType = 0
	TensorTypeF16 TensorType = 1
)

// String gibt den Namen des Tensor-Typs zurueck
func (t TensorType) String() string {
	switch t {
	case TensorTypeF32:
		return "F32"
	case TensorTypeF16:
		return "F16"
	default:
		return "unknown"
	}
}

// TypeSize gibt die Groesse eines Elements in Bytes zurueck
func (t TensorType) TypeSize() int64 {
	switch t {
	case TensorTypeF16:
		return 2
	default:
		return 4
	}
}

// TensorInfo enthaelt die Metadaten eines Tensors
type TensorInfo struct {
	Name   string
	Offset uint64
	Shape  []uint64
	Type   TensorType
}

// NumValues gibt die Anzahl der Elemente zurueck
func (t TensorInfo) NumValues() int64 {
	if len(t.Shape) == 0 {
		return 0
	}

	n := int64(1)
	for _, d := range t.Shape {
		n *= int64(d)
	}
	return n
}

// NumBytes gibt die Groesse der Tensor-Daten in Bytes zurueck
func (t TensorInfo) NumBytes() int64 {
	return t.NumValues() * t.Type.TypeSize()
}

// Dims gibt die Shape als int-Slice zurueck
func (t TensorInfo) Dims() []int {
	dims := make([]int, len(t.Shape))
	for i, d := range t.Shape {
		dims[i] = int(d)
	}
	return dims
}

// KeyValue ist ein benanntes Metadaten-Paar
type KeyValue struct {
	Key string
	Value
}

// Value kapselt einen typisierten Metadaten-Wert
type Value struct {
	value any
}

// Any gibt den rohen Wert zurueck
func (v Value) Any() any {
	return v.value
}

// String gibt den Wert als String zurueck
func (v Value) String() string {
	if s, ok := v.value.(string); ok {
		return s
	}
	return ""
}

// Int gibt den Wert als int64 zurueck
// Unterstuetzt alle Integer-Typen des GGUF-Formats
func (v Value) Int() int64 {
	switch n := v.value.(type) {
	case uint8:
		return int64(n)
	case int8:
		return int64(n)
	case uint16:
		return int64(n)
	case int16:
		return int64(n)
	case uint32:
		return int64(n)
	case int32:
		return int64(n)
	case uint64:
		return int64(n)
	case int64:
		return n
	default:
		return 0
	}
}

// Uint gibt den Wert als uint32 zurueck
func (v Value) Uint() uint32 {
	return uint32(v.Int())
}

// Float gibt den Wert als float32 zurueck
func (v Value) Float() float32 {
	switch n := v.value.(type) {
	case float32:
		return n
	case float64:
		return float32(n)
	default:
		return float32(v.Int())
	}
}

// Bool gibt den Wert als bool zurueck
func (v Value) Bool() bool {
	if b, ok := v.value.(bool); ok {
		return b
	}
	return false
}

// Strings gibt den Wert als String-Slice zurueck
func (v Value) Strings() []string {
	if s, ok := v.value.([]string); ok {
		return slices.Clone(s)
	}
	return nil
}

// =============================================================================
// fs.Config Implementierung
// =============================================================================

// Architecture gibt die Modell-Architektur zurueck
func (f *File) Architecture() string {
	return f.KeyValue("general.architecture").String()
}

// String gibt einen String-Wert mit optionalem Default zurueck
func (f *File) String(key string, defaultValue ...string) string {
	if kv := f.KeyValue(key); kv.value != nil {
		return kv.String()
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

// Uint gibt einen uint32-Wert mit optionalem Default zurueck
func (f *File) Uint(key string, defaultValue ...uint32) uint32 {
	if kv := f.KeyValue(key); kv.value != nil {
		return kv.Uint()
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return 0
}

// Float gibt einen float32-Wert mit optionalem Default zurueck
func (f *File) Float(key string, defaultValue ...float32) float32 {
	if kv := f.KeyValue(key); kv.value != nil {
		return kv.Float()
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return 0
}

// Bool gibt einen bool-Wert mit optionalem Default zurueck
func (f *File) Bool(key string, defaultValue ...bool) bool {
	if kv := f.KeyValue(key); kv.value != nil {
		return kv.Bool()
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return false
}
