// config.go - Haupt-Konfigurationsfunktionen fuer pyrflow
//
// Dieses Modul enthaelt:
// - Host: Gibt Scheme und Host zurueck (PYRFLOW_HOST)
// - AllowedOrigins: Gibt erlaubte Origins zurueck (PYRFLOW_ORIGINS)
// - Models: Gibt Model-Verzeichnis zurueck (PYRFLOW_MODELS)
// - LogLevel: Gibt Log-Level zurueck (PYRFLOW_DEBUG)
// - LogFile: Gibt Pfad fuer rotierende Log-Dateien zurueck (PYRFLOW_LOG_FILE)
//
// Weitere Konfigurationen sind ausgelagert:
// - config_utils.go: Utility-Funktionen und AsMap/Values
package envconfig

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Host gibt Scheme und Host zurueck
// Konfigurierbar via PYRFLOW_HOST
// Default: http://127.0.0.1:11343
func Host() *url.URL {
	defaultPort := "11343"

	s := strings.TrimSpace(Var("PYRFLOW_HOST"))
	scheme, hostport, ok := strings.Cut(s, "://")
	switch {
	case !ok:
		scheme, hostport = "http", s
	case scheme == "http":
		defaultPort = "80"
	case scheme == "https":
		defaultPort = "443"
	}

	hostport, path, _ := strings.Cut(hostport, "/")
	host, port, err := net.SplitHostPort(hostport)
	if err != nil {
		host, port = "127.0.0.1", defaultPort
		if ip := net.ParseIP(strings.Trim(hostport, "[]")); ip != nil {
			host = ip.String()
		} else if hostport != "" {
			host = hostport
		}
	}

	if n, err := strconv.ParseInt(port, 10, 32); err != nil || n > 65535 || n < 0 {
		slog.Warn("invalid port, using default", "port", port, "default", defaultPort)
		port = defaultPort
	}

	return &url.URL{
		Scheme: scheme,
		Host:   net.JoinHostPort(host, port),
		Path:   path,
	}
}

// AllowedOrigins gibt erlaubte Origins zurueck
// Konfigurierbar via PYRFLOW_ORIGINS (komma-separiert)
// Enthaelt Standard-Origins fuer localhost
func AllowedOrigins() (origins []string) {
	if s := Var("PYRFLOW_ORIGINS"); s != "" {
		origins = strings.Split(s, ",")
	}

	// Standard-Origins fuer localhost
	for _, origin := range []string{"localhost", "127.0.0.1", "0.0.0.0"} {
		origins = append(origins,
			fmt.Sprintf("http://%s", origin),
			fmt.Sprintf("https://%s", origin),
			fmt.Sprintf("http://%s", net.JoinHostPort(origin, "*")),
			fmt.Sprintf("https://%s", net.JoinHostPort(origin, "*")),
		)
	}

	origins = append(origins,
		"app://*",
		"file://*",
	)

	return origins
}

// Models gibt das Model-Verzeichnis zurueck
// Konfigurierbar via PYRFLOW_MODELS
// Default: $HOME/.pyrflow/models
func Models() string {
	if s := Var("PYRFLOW_MODELS"); s != "" {
		return s
	}

	home, err := os.UserHomeDir()
	if err != nil {
		panic(err)
	}

	return filepath.Join(home, ".pyrflow", "models")
}

// LogFile gibt den Pfad fuer rotierende Log-Dateien zurueck
// Konfigurierbar via PYRFLOW_LOG_FILE
// Leer = Logging nur auf Stderr
var LogFile = String("PYRFLOW_LOG_FILE")

// LogLevel gibt das Log-Level zurueck
// Konfigurierbar via PYRFLOW_DEBUG
// Werte: 0/false = INFO (Default), 1/true = DEBUG, 2 = TRACE
func LogLevel() slog.Level {
	level := slog.LevelInfo
	if s := Var("PYRFLOW_DEBUG"); s != "" {
		if b, _ := strconv.ParseBool(s); b {
			level = slog.LevelDebug
		} else if i, _ := strconv.ParseInt(s, 10, 64); i != 0 {
			level = slog.Level(i * -4)
		}
	}

	return level
}

// Var gibt eine Environment-Variable zurueck
// Entfernt fuehrende/trailing Quotes und Leerzeichen
func Var(key string) string {
	return strings.Trim(strings.TrimSpace(os.Getenv(key)), "\"'")
}
