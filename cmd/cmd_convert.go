// cmd_convert.go - Konvertierung von PyTorch-Checkpoints
// Hauptfunktionen: ConvertHandler, newConvertCmd
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pyrflow/pyrflow/convert"
	"github.com/pyrflow/pyrflow/envconfig"
	"github.com/pyrflow/pyrflow/logutil"
)

// ConvertHandler - Konvertiert einen Checkpoint in das Modell-Format
func ConvertHandler(_ *cobra.Command, args []string) error {
	slog.SetDefault(logutil.NewLogger(os.Stderr, envconfig.LogLevel()))

	if err := convert.Convert(args[0], args[1]); err != nil {
		return err
	}

	fmt.Printf("wrote %s\n", args[1])
	return nil
}

// newConvertCmd - Erstellt den convert Command
func newConvertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "convert CHECKPOINT DEST",
		Short: "Convert a PyTorch checkpoint to a model file",
		Args:  cobra.ExactArgs(2),
		RunE:  ConvertHandler,
	}
}
