// Package model - Reflection-basierte Tensor-Population
//
// Dieses Modul enthält die Reflection-Logik zum automatischen Befüllen
// von Model-Strukturen mit Tensoren aus dem Backend. Der Name eines
// Tensors ergibt sich aus den gguf-Tags entlang des Struct-Pfades und
// den Indizes durchlaufener Arrays, mit "." verbunden.
//
// Hauptkomponenten:
// - populateFields: Befüllt Strukturfelder rekursiv mit Tensoren
// - setPointer: Setzt Pointer-Felder in Strukturen

package model

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/pyrflow/pyrflow/logutil"
	"github.com/pyrflow/pyrflow/ml"
)

// canNil prüft ob ein Typ nil sein kann
func canNil(t reflect.Type) bool {
	return t.Kind() == reflect.Chan ||
		t.Kind() == reflect.Func ||
		t.Kind() == reflect.Interface ||
		t.Kind() == reflect.Map ||
		t.Kind() == reflect.Pointer ||
		t.Kind() == reflect.Slice
}

// populateFields befüllt Strukturfelder rekursiv mit Tensoren aus dem Backend
func populateFields(base Base, v reflect.Value, path ...string) reflect.Value {
	t := v.Type()

	if t.Kind() == reflect.Struct {
		allNil := true
		for i := range t.NumField() {
			tt := t.Field(i).Type
			vv := v.Field(i)
			if !vv.CanSet() {
				continue
			}

			// Kopie erstellen
			fieldPath := path
			if tag := t.Field(i).Tag.Get("gguf"); tag != "" {
				fieldPath = append(fieldPath, tag)
			}

			if tt == reflect.TypeOf((*Base)(nil)).Elem() {
				vv.Set(reflect.ValueOf(base))
			} else if tt == reflect.TypeOf((*ml.Tensor)(nil)).Elem() {
				if name := strings.Join(fieldPath, "."); name != "" {
					if tensor := base.Backend().Get(name); tensor != nil {
						logutil.Trace("found tensor", "name", name)
						vv.Set(reflect.ValueOf(tensor))
					}
				}
			} else if tt.Kind() == reflect.Pointer || tt.Kind() == reflect.Interface {
				setPointer(base, vv, fieldPath)
			} else if tt.Kind() == reflect.Slice || tt.Kind() == reflect.Array {
				for i := range vv.Len() {
					vvv := vv.Index(i)
					elemPath := append(fieldPath, strconv.Itoa(i))
					if vvv.Kind() == reflect.Pointer || vvv.Kind() == reflect.Interface {
						setPointer(base, vvv, elemPath)
					} else {
						vvv.Set(populateFields(base, vvv, elemPath...))
					}
				}
			}

			if !canNil(tt) || !vv.IsNil() {
				allNil = false
			}
		}

		if allNil {
			return reflect.Zero(t)
		}
	}

	return v
}

// setPointer setzt Pointer-Felder in Strukturen
func setPointer(base Base, v reflect.Value, path []string) {
	vv := v
	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return
		}

		vv = vv.Elem()
	}

	vv = reflect.Indirect(vv)
	if v.IsNil() {
		vv = reflect.New(v.Type().Elem()).Elem()
	}

	if f := populateFields(base, vv, path...); f.CanAddr() {
		v.Set(f.Addr())
	}
}
