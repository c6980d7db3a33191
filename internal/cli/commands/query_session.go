package commands

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/searchlens-labs/searchlens/internal/query"
	"github.com/searchlens-labs/searchlens/internal/shape"
)

// runPagerSession drives the interactive viewing loop over one result set:
// page through, stack filters, re-sort. Filters accumulate for the lifetime
// of the session and are cleared on every way out of it.
func runPagerSession(cmd *cobra.Command, ctxc *CommandContext, session *shape.Session, desc *query.Descriptor) error {
	fields := desc.Fields()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "searchlens> ",
		AutoComplete:    newPagerCompleter(fields),
		InterruptPrompt: "^C",
		EOFPrompt:       "q",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize pager: %w", err)
	}
	defer func() { _ = rl.Close() }()

	// Whatever happens, a finished session leaves no filters behind.
	defer session.ClearFilters()

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(out, ctxc.Styles.Title.Render(descriptorSummary(desc)))

	showPage(out, ctxc, session, fields)

	for {
		rl.SetPrompt(pagerPrompt(session))
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		switch {
		case line == "":
			// Enter advances; the last page ends the session.
			if !session.Advance() {
				_, _ = fmt.Fprintln(out, ctxc.Styles.Muted.Render("end of results"))
				return nil
			}
			showPage(out, ctxc, session, fields)

		case line == "q" || line == "quit":
			return nil

		case line == "c" || line == "clear":
			session.ClearFilters()
			_, _ = fmt.Fprintln(out, ctxc.Styles.Muted.Render("filters cleared"))
			showPage(out, ctxc, session, fields)

		case line == "help" || line == "?":
			printPagerHelp(out)

		case strings.HasPrefix(line, "f "):
			handleStringFilter(out, ctxc, session, fields, line[2:])

		case strings.HasPrefix(line, "n "):
			handleNumericFilter(out, ctxc, session, fields, line[2:])

		case strings.HasPrefix(line, "s "):
			spec, err := shape.ParseSortSpec(line[2:])
			if err != nil {
				_, _ = fmt.Fprintln(out, ctxc.Styles.Error.Render("Error: "+err.Error()))
				continue
			}
			session.Resort(spec)
			showPage(out, ctxc, session, fields)

		default:
			_, _ = fmt.Fprintf(out, "Unknown command %q (type help)\n", line)
		}
	}
}

func pagerPrompt(session *shape.Session) string {
	view := session.Page()
	suffix := ""
	if n := session.Filters.Len(); n > 0 {
		suffix = fmt.Sprintf(" [%d filters]", n)
	}
	return fmt.Sprintf("page %d/%d%s> ", view.PageIndex+1, view.TotalPages, suffix)
}

func showPage(w io.Writer, ctxc *CommandContext, session *shape.Session, fields []string) {
	view := session.Page()
	if len(view.Rows) == 0 {
		_, _ = fmt.Fprintln(w, ctxc.Styles.Warning.Render("no rows match the active filters"))
		return
	}
	if err := renderTable(w, view.Rows, fields); err != nil {
		_, _ = fmt.Fprintf(w, "Error: %v\n", err)
	}
}

// handleStringFilter parses "field op value" and adds a string filter.
// A filter that matches nothing is kept; the user asked for it.
func handleStringFilter(w io.Writer, ctxc *CommandContext, session *shape.Session, fields []string, args string) {
	parts := strings.SplitN(strings.TrimSpace(args), " ", 3)
	if len(parts) != 3 {
		_, _ = fmt.Fprintln(w, "Usage: f <field> <exact|contains|not-exact|not-contains> <value>")
		return
	}
	op, ok := parseStringOp(parts[1])
	if !ok {
		_, _ = fmt.Fprintf(w, "Unknown string operator %q\n", parts[1])
		return
	}

	any, err := session.AddStringFilter(shape.StringFilter{Field: parts[0], Op: op, Value: parts[2]})
	if err != nil {
		_, _ = fmt.Fprintln(w, ctxc.Styles.Error.Render("Error: "+err.Error()))
		return
	}
	if !any {
		_, _ = fmt.Fprintln(w, ctxc.Styles.Warning.Render("warning: no rows match; filter kept"))
	}
	showPage(w, ctxc, session, fields)
}

// handleNumericFilter parses "field op value" and adds a numeric filter.
// Rejection (non-numeric field) leaves the existing filters untouched.
func handleNumericFilter(w io.Writer, ctxc *CommandContext, session *shape.Session, fields []string, args string) {
	parts := strings.Fields(args)
	if len(parts) != 3 {
		_, _ = fmt.Fprintln(w, "Usage: n <field> <>=|<=|>|<|=> <value>")
		return
	}
	value, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		_, _ = fmt.Fprintf(w, "Invalid number %q\n", parts[2])
		return
	}

	any, err := session.AddNumericFilter(shape.NumericFilter{
		Field: parts[0],
		Op:    shape.NumericOp(parts[1]),
		Value: value,
	})
	if err != nil {
		_, _ = fmt.Fprintln(w, ctxc.Styles.Warning.Render("rejected: "+err.Error()))
		return
	}
	if !any {
		_, _ = fmt.Fprintln(w, ctxc.Styles.Warning.Render("warning: no rows match; filter kept"))
	}
	showPage(w, ctxc, session, fields)
}

func parseStringOp(s string) (shape.StringOp, bool) {
	switch strings.ToLower(s) {
	case "exact", "is":
		return shape.OpExact, true
	case "contains", "has":
		return shape.OpContains, true
	case "not-exact", "notexact":
		return shape.OpNotExact, true
	case "not-contains", "notcontains":
		return shape.OpNotContains, true
	}
	return "", false
}

func printPagerHelp(w io.Writer) {
	help := `
Commands:
  <Enter>                     Next page (last page exits)
  f <field> <op> <value>      Add a string filter (exact, contains, not-exact, not-contains)
  n <field> <op> <value>      Add a numeric filter (>=, <=, >, <, =)
  s <col:dir,...>             Re-sort, e.g. s clicks:desc,page
  c                           Clear all filters
  q                           Quit
`
	_, _ = fmt.Fprintln(w, help)
}

// newPagerCompleter completes commands and field names.
func newPagerCompleter(fields []string) *readline.PrefixCompleter {
	fieldItems := make([]readline.PrefixCompleterInterface, 0, len(fields))
	for _, f := range fields {
		fieldItems = append(fieldItems, readline.PcItem(f))
	}
	return readline.NewPrefixCompleter(
		readline.PcItem("f", fieldItems...),
		readline.PcItem("n", fieldItems...),
		readline.PcItem("s", fieldItems...),
		readline.PcItem("c"),
		readline.PcItem("q"),
		readline.PcItem("help"),
	)
}
