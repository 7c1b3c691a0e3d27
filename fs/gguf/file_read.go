// Package gguf - GGUF File Read Funktionen
//
// Dieses Modul enthaelt die Low-Level Lese-Funktionen fuer GGUF-Dateien:
// - readTensor: Liest Tensor-Metadaten
// - readKeyValue: Liest ein Key-Value Paar
// - read[T]: Generische Funktion zum Lesen typisierter Werte
// - readString: String-Deserialisierung
// - readArray: Array-Deserialisierung mit Typ-Erkennung
package gguf

import (
	"encoding/binary"
	"fmt"
	"io"
)

// readTensor liest die Metadaten eines einzelnen Tensors
func readTensor(r io.Reader) (TensorInfo, error) {
	name, err := readString(r)
	if err != nil {
		return TensorInfo{}, err
	}

	dims, err := read[uint32](r)
	if err != nil {
		return TensorInfo{}, err
	}

	shape := make([]uint64, dims)
	for i := range dims {
		shape[i], err = read[uint64](r)
		if err != nil {
			return TensorInfo{}, err
		}
	}

	type_, err := read[uint32](r)
	if err != nil {
		return TensorInfo{}, err
	}

	offset, err := read[uint64](r)
	if err != nil {
		return TensorInfo{}, err
	}

	return TensorInfo{
		Name:   name,
		Offset: offset,
		Shape:  shape,
		Type:   TensorType(type_),
	}, nil
}

// readKeyValue liest ein einzelnes Key-Value Paar
func readKeyValue(r io.Reader) (KeyValue, error) {
	key, err := readString(r)
	if err != nil {
		return KeyValue{}, err
	}

	t, err := read[uint32](r)
	if err != nil {
		return KeyValue{}, err
	}

	value, err := func() (any, error) {
		switch t {
		case typeUint8:
			return read[uint8](r)
		case typeInt8:
			return read[int8](r)
		case typeUint16:
			return read[uint16](r)
		case typeInt16:
			return read[int16](r)
		case typeUint32:
			return read[uint32](r)
		case typeInt32:
			return read[int32](r)
		case typeUint64:
			return read[uint64](r)
		case typeInt64:
			return read[int64](r)
		case typeFloat32:
			return read[float32](r)
		case typeFloat64:
			return read[float64](r)
		case typeBool:
			return read[bool](r)
		case typeString:
			return readString(r)
		case typeArray:
			return readArray(r)
		default:
			return nil, fmt.Errorf("%w type %d", ErrUnsupported, t)
		}
	}()
	if err != nil {
		return KeyValue{}, err
	}

	return KeyValue{
		Key:   key,
		Value: Value{value},
	}, nil
}

// read liest einen typisierten Wert aus dem Reader
func read[T any](r io.Reader) (t T, err error) {
	err = binary.Read(r, binary.LittleEndian, &t)
	return t, err
}

// readString liest einen String aus dem Reader
func readString(r io.Reader) (string, error) {
	n, err := read[uint64](r)
	if err != nil {
		return "", err
	}

	bts := make([]byte, n)
	if _, err := io.ReadFull(r, bts); err != nil {
		return "", err
	}

	return string(bts), nil
}

// readArray liest ein typisiertes Array aus dem Reader
func readArray(r io.Reader) (any, error) {
	t, err := read[uint32](r)
	if err != nil {
		return nil, err
	}

	n, err := read[uint64](r)
	if err != nil {
		return nil, err
	}

	switch t {
	case typeUint8:
		return readArrayData[uint8](r, n)
	case typeInt8:
		return readArrayData[int8](r, n)
	case typeUint16:
		return readArrayData[uint16](r, n)
	case typeInt16:
		return readArrayData[int16](r, n)
	case typeUint32:
		return readArrayData[uint32](r, n)
	case typeInt32:
		return readArrayData[int32](r, n)
	case typeUint64:
		return readArrayData[uint64](r, n)
	case typeInt64:
		return readArrayData[int64](r, n)
	case typeFloat32:
		return readArrayData[float32](r, n)
	case typeFloat64:
		return readArrayData[float64](r, n)
	case typeBool:
		return readArrayData[bool](r, n)
	case typeString:
		return readArrayString(r, n)
	default:
		return nil, fmt.Errorf("%w type %d", ErrUnsupported, t)
	}
}

// readArrayData liest typisierte Array-Daten
func readArrayData[T any](r io.Reader, n uint64) (s []T, err error) {
	s = make([]T, n)
	for i := range n {
		e, err := read[T](r)
		if err != nil {
			return nil, err
		}

		s[i] = e
	}

	return s, nil
}

// readArrayString liest ein String-Array
func readArrayString(r io.Reader, n uint64) (s []string, err error) {
	s = make([]string, n)
	for i := range n {
		e, err := readString(r)
		if err != nil {
			return nil, err
		}

		s[i] = e
	}

	return s, nil
}
