// cmd_serve.go - Server-Start
// Hauptfunktionen: RunServer, newServeCmd
package cmd

import (
	"errors"
	"net"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/pyrflow/pyrflow/envconfig"
	"github.com/pyrflow/pyrflow/server"
)

// RunServer - Startet den pyrflow-Server mit dem angegebenen Modell
func RunServer(_ *cobra.Command, args []string) error {
	ln, err := net.Listen("tcp", envconfig.Host().Host)
	if err != nil {
		return err
	}

	err = server.Serve(ln, args[0])
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}

	return err
}

// newServeCmd - Erstellt den serve Command
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "serve MODEL",
		Aliases: []string{"start"},
		Short:   "Start the interpolation server",
		Args:    cobra.ExactArgs(1),
		RunE:    RunServer,
	}
}
