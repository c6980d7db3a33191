package commands

import (
	"encoding/json"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// NewPresetsCommand creates the presets command.
func NewPresetsCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "presets",
		Short: "List available query presets",
		Long: `List the built-in presets plus any user presets from presets.yaml.
User presets with the same id shadow built-ins.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctxc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defs := ctxc.Presets.List()

			if format == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(defs)
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"ID", "Name", "Metrics", "Dimensions", "Limit"})
			for _, def := range defs {
				t.AppendRow(table.Row{
					def.ID,
					def.Name,
					strings.Join(def.Metrics, ","),
					strings.Join(def.Dimensions, ","),
					def.Limit,
				})
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table, json")
	return cmd
}
