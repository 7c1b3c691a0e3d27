// config_utils.go - Utility-Funktionen und Export fuer Konfiguration
//
// Dieses Modul enthaelt:
// - String: Getter-Fabrik fuer einfache String-Variablen
// - EnvVar: Struktur fuer Environment-Variablen-Info
// - AsMap: Gibt alle Konfigurationen als Map zurueck
// - Values: Gibt alle Konfigurationswerte als String-Map zurueck
package envconfig

import (
	"log/slog"
)

// String gibt eine Funktion zurueck, die einen String liest
func String(s string) func() string {
	return func() string {
		return Var(s)
	}
}

// EnvVar repraesentiert eine Environment-Variable mit Metadaten
type EnvVar struct {
	Name        string
	Value       any
	Description string
}

// AsMap gibt alle Konfigurationen als Map zurueck
// Enthaelt Namen, aktuelle Werte und Beschreibungen
func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"PYRFLOW_DEBUG":    {"PYRFLOW_DEBUG", LogLevel(), "Show additional debug information (e.g. PYRFLOW_DEBUG=1)"},
		"PYRFLOW_HOST":     {"PYRFLOW_HOST", Host(), "IP Address for the pyrflow server (default 127.0.0.1:11343)"},
		"PYRFLOW_MODELS":   {"PYRFLOW_MODELS", Models(), "The path to the models directory"},
		"PYRFLOW_ORIGINS":  {"PYRFLOW_ORIGINS", AllowedOrigins(), "A comma separated list of allowed origins"},
		"PYRFLOW_LOG_FILE": {"PYRFLOW_LOG_FILE", LogFile(), "Write rotating logs to this directory in addition to stderr"},
	}
}

// Values gibt alle Konfigurationswerte als String-Map zurueck
// Nuetzlich fuer Logging der Server-Konfiguration
func Values() map[string]string {
	vals := make(map[string]string)
	for k, v := range AsMap() {
		vals[k] = v.String()
	}
	return vals
}

// String formatiert den aktuellen Wert der Environment-Variable
func (e EnvVar) String() string {
	switch v := e.Value.(type) {
	case string:
		return v
	default:
		return slog.AnyValue(e.Value).String()
	}
}
