// Package fs - Zugriff auf Modell-Metadaten
//
// Config abstrahiert die Key-Value Metadaten eines Modell-Containers,
// unabhaengig vom Dateiformat. Implementiert von fs/gguf.
package fs

// Config liefert typisierte Metadaten eines geladenen Modells
type Config interface {
	Architecture() string

	String(key string, defaultValue ...string) string
	Uint(key string, defaultValue ...uint32) uint32
	Float(key string, defaultValue ...float32) float32
	Bool(key string, defaultValue ...bool) bool
}
