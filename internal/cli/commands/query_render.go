package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/searchlens-labs/searchlens/internal/shape"
)

// rowCountPrinter formats row counts with thousands separators.
var rowCountPrinter = message.NewPrinter(language.English)

// renderRows writes the full row set in the requested format. Table output
// applies display rounding; JSON and CSV export the raw values so every
// format is backed by the same shaped data.
func renderRows(w io.Writer, rows []shape.Row, fields []string, format string) error {
	switch format {
	case "json":
		return renderJSON(w, rows)
	case "csv":
		return renderCSV(w, rows, fields)
	case "md", "markdown":
		return renderMarkdown(w, rows, fields)
	case "", "table":
		return renderTable(w, rows, fields)
	default:
		return fmt.Errorf("unknown output format %q (want table, json, csv, or md)", format)
	}
}

// renderPage renders a single page in the requested format, with the page
// position appended for table output.
func renderPage(w io.Writer, view shape.PageView, fields []string, format string) error {
	if format == "" || format == "table" {
		if err := renderTable(w, view.Rows, fields); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(w, "page %d/%d\n", view.PageIndex+1, view.TotalPages)
		return nil
	}
	return renderRows(w, view.Rows, fields, format)
}

func renderTable(w io.Writer, rows []shape.Row, fields []string) error {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(fields))
	for i, f := range fields {
		headerRow[i] = f
	}
	t.AppendHeader(headerRow)

	for _, row := range rows {
		out := make(table.Row, len(fields))
		for i, f := range fields {
			out[i] = shape.DisplayValue(row[f])
		}
		t.AppendRow(out)
	}

	t.Render()
	_, _ = rowCountPrinter.Fprintf(w, "(%d rows)\n", len(rows))
	return nil
}

func renderJSON(w io.Writer, rows []shape.Row) error {
	if rows == nil {
		rows = []shape.Row{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

func renderCSV(w io.Writer, rows []shape.Row, fields []string) error {
	_, _ = fmt.Fprintln(w, strings.Join(fields, ","))

	for _, row := range rows {
		values := make([]string, len(fields))
		for i, f := range fields {
			values[i] = escapeCSV(row[f].Text())
		}
		_, _ = fmt.Fprintln(w, strings.Join(values, ","))
	}
	return nil
}

func renderMarkdown(w io.Writer, rows []shape.Row, fields []string) error {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(fields, " | "))
	seps := make([]string, len(fields))
	for i := range seps {
		seps[i] = "---"
	}
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(seps, " | "))

	for _, row := range rows {
		values := make([]string, len(fields))
		for i, f := range fields {
			values[i] = shape.DisplayValue(row[f])
		}
		_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(values, " | "))
	}
	return nil
}

func escapeCSV(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
