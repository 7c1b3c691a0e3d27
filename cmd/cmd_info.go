// cmd_info.go - Anzeige der Metadaten einer Modell-Datei
// Hauptfunktionen: InfoHandler, newInfoCmd
package cmd

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/pyrflow/pyrflow/fs/gguf"
)

// InfoHandler - Zeigt Metadaten und Tensoren einer Modell-Datei an
func InfoHandler(_ *cobra.Command, args []string) error {
	f, err := gguf.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	fmt.Printf("  architecture    %s\n", f.Architecture())
	fmt.Printf("  tensors         %d\n", f.NumTensors())
	fmt.Println()

	var meta [][]string
	for _, kv := range f.KeyValues() {
		meta = append(meta, []string{kv.Key, fmt.Sprintf("%v", kv.Any())})
	}
	renderTable([]string{"KEY", "VALUE"}, meta)
	fmt.Println()

	var tensors [][]string
	var total int64
	for _, ti := range f.TensorInfos() {
		total += ti.NumBytes()
		tensors = append(tensors, []string{
			ti.Name,
			fmt.Sprintf("%v", ti.Dims()),
			ti.Type.String(),
			humanBytes(ti.NumBytes()),
		})
	}
	renderTable([]string{"TENSOR", "SHAPE", "TYPE", "SIZE"}, tensors)
	fmt.Printf("\n  total           %s\n", humanBytes(total))

	return nil
}

// renderTable gibt eine Tabelle im Listen-Stil auf Stdout aus
func renderTable(header []string, data [][]string) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(header)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()
}

// humanBytes formatiert eine Byte-Anzahl lesbar
func humanBytes(n int64) string {
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%.1f GiB", float64(n)/(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// newInfoCmd - Erstellt den info Command
func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info MODEL",
		Short: "Show metadata and tensors of a model file",
		Args:  cobra.ExactArgs(1),
		RunE:  InfoHandler,
	}
}
