package commands

import (
	"encoding/json"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	var (
		limit  int
		format string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently executed queries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctxc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			store, err := ctxc.OpenStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			entries, err := store.History(limit)
			if err != nil {
				return err
			}

			if format == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Executed", "Rows", "Descriptor"})
			for _, e := range entries {
				t.AppendRow(table.Row{
					e.ExecutedAt.Format("2006-01-02 15:04:05"),
					e.RowCount,
					e.Descriptor,
				})
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "Number of entries to show")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table, json")
	return cmd
}
