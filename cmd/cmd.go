// cmd.go - Haupt-CLI Setup und Root Command
// Hauptfunktionen: NewCLI, appendEnvDocs
package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/pyrflow/pyrflow/envconfig"
	"github.com/pyrflow/pyrflow/version"
)

// appendEnvDocs - Fuegt Umgebungsvariablen-Dokumentation zum Command hinzu
func appendEnvDocs(cmd *cobra.Command, envs []envconfig.EnvVar) {
	if len(envs) == 0 {
		return
	}

	envUsage := `
Environment Variables:
`
	for _, e := range envs {
		envUsage += fmt.Sprintf("      %-24s   %s\n", e.Name, e.Description)
	}

	cmd.SetUsageTemplate(cmd.UsageTemplate() + envUsage)
}

// versionHandler - Zeigt die Version an
func versionHandler(_ *cobra.Command, _ []string) {
	fmt.Printf("pyrflow version is %s\n", version.Version)
}

// NewCLI - Erstellt das Haupt-CLI mit allen Commands
func NewCLI() *cobra.Command {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	cobra.EnableCommandSorting = false

	rootCmd := &cobra.Command{
		Use:           "pyrflow",
		Short:         "RGB-D video frame interpolation",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		Run: func(cmd *cobra.Command, args []string) {
			if version, _ := cmd.Flags().GetBool("version"); version {
				versionHandler(cmd, args)
				return
			}

			cmd.Print(cmd.UsageString())
		},
	}

	rootCmd.Flags().BoolP("version", "v", false, "Show version information")

	// Commands erstellen
	runCmd := newRunCmd()
	serveCmd := newServeCmd()
	infoCmd := newInfoCmd()
	convertCmd := newConvertCmd()

	// Environment-Dokumentation hinzufuegen
	envVars := envconfig.AsMap()

	for _, cmd := range []*cobra.Command{runCmd, serveCmd} {
		switch cmd {
		case runCmd:
			appendEnvDocs(cmd, []envconfig.EnvVar{
				envVars["PYRFLOW_DEBUG"],
			})
		case serveCmd:
			appendEnvDocs(cmd, []envconfig.EnvVar{
				envVars["PYRFLOW_DEBUG"],
				envVars["PYRFLOW_HOST"],
				envVars["PYRFLOW_ORIGINS"],
				envVars["PYRFLOW_LOG_FILE"],
			})
		}
	}

	rootCmd.AddCommand(
		runCmd,
		serveCmd,
		infoCmd,
		convertCmd,
	)

	return rootCmd
}
