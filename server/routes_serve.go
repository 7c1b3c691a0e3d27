// routes_serve.go - Server-Start und Lifecycle-Management
// Enthaelt: Serve() - Hauptfunktion zum Starten des HTTP-Servers

package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/pyrflow/pyrflow/envconfig"
	"github.com/pyrflow/pyrflow/logutil"
	"github.com/pyrflow/pyrflow/version"
)

// logWriter liefert Stderr, optional ergaenzt um eine rotierende
// Log-Datei unter PYRFLOW_LOG_FILE
func logWriter() io.Writer {
	dir := envconfig.LogFile()
	if dir == "" {
		return os.Stderr
	}

	return io.MultiWriter(os.Stderr, &lumberjack.Logger{
		Filename:   filepath.Join(dir, "server.log"),
		MaxSize:    5, // MB
		MaxBackups: 10,
		MaxAge:     30, // Tage
		Compress:   true,
	})
}

// Serve laedt das Modell und startet den HTTP-Server auf dem Listener.
// SIGINT/SIGTERM beenden den Server geordnet.
func Serve(ln net.Listener, modelPath string) error {
	slog.SetDefault(logutil.NewLogger(logWriter(), envconfig.LogLevel()))
	slog.Info("server config", "env", envconfig.Values())

	s, err := NewServer(modelPath, ln.Addr())
	if err != nil {
		return err
	}
	defer s.model.Backend().Close()

	slog.Info(fmt.Sprintf("Listening on %s (version %s)", ln.Addr(), version.Version))
	srvr := &http.Server{
		Handler: s.GenerateRoutes(),
	}

	// auf ctrl+c reagieren und geordnet herunterfahren
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		slog.Info("shutting down")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srvr.Shutdown(ctx); err != nil {
			srvr.Close()
		}
	}()

	if err := srvr.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
