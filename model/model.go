// Package model - Model-Interface und Initialisierung
//
// Dieses Paket definiert das Model-Interface und stellt Funktionen
// zur Initialisierung und Verwaltung von ML-Modellen bereit.
//
// Hauptkomponenten:
// - Model: Interface für alle Modell-Architekturen
// - Base: Basis-Implementierung für gemeinsame Funktionalität
// - New: Erstellt neue Model-Instanzen
// - Register: Registriert Modell-Konstruktoren

package model

import (
	"errors"
	"reflect"

	"github.com/pyrflow/pyrflow/fs"
	"github.com/pyrflow/pyrflow/ml"
	_ "github.com/pyrflow/pyrflow/ml/backend"
)

// Fehler-Definitionen
var (
	ErrUnsupportedModel = errors.New("model architecture not supported")
)

// Model definiert das Interface für spezifische Modell-Architekturen
type Model interface {
	Backend() ml.Backend
}

// Validator ist ein optionales Interface für Post-Load-Validierung
type Validator interface {
	Validate() error
}

// Base implementiert gemeinsame Felder und Methoden für alle Modelle
type Base struct {
	b ml.Backend
}

// Backend gibt das Backend zurück, das das Modell ausführt
func (m *Base) Backend() ml.Backend {
	return m.b
}

// models speichert registrierte Modell-Konstruktoren
var models = make(map[string]func(fs.Config) (Model, error))

// Register registriert einen Modell-Konstruktor für eine Architektur
func Register(name string, f func(fs.Config) (Model, error)) {
	if _, ok := models[name]; ok {
		panic("model: model already registered")
	}

	models[name] = f
}

// New initialisiert eine neue Model-Instanz basierend auf den Metadaten
func New(modelPath string, params ml.BackendParams) (Model, error) {
	b, err := ml.NewBackend(modelPath, params)
	if err != nil {
		return nil, err
	}

	m, err := modelForArch(b.Config())
	if err != nil {
		b.Close()
		return nil, err
	}

	base := Base{b: b}
	v := reflect.ValueOf(m)
	v.Elem().Set(populateFields(base, v.Elem()))

	if validator, ok := m.(Validator); ok {
		if err := validator.Validate(); err != nil {
			b.Close()
			return nil, err
		}
	}

	return m, nil
}

// modelForArch erstellt ein Model basierend auf der Architektur
func modelForArch(c fs.Config) (Model, error) {
	f, ok := models[c.Architecture()]
	if !ok {
		return nil, ErrUnsupportedModel
	}

	return f(c)
}
