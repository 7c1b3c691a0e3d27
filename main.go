// main.go - Einstiegspunkt des pyrflow CLI
package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/pyrflow/pyrflow/cmd"
)

func main() {
	cobra.CheckErr(cmd.NewCLI().ExecuteContext(context.Background()))
}
