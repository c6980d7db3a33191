package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/searchlens-labs/searchlens/internal/auth"
	"github.com/searchlens-labs/searchlens/internal/provider"
	"github.com/searchlens-labs/searchlens/internal/provider/gsc"
	"github.com/searchlens-labs/searchlens/internal/query"
	"github.com/searchlens-labs/searchlens/internal/shape"
	"github.com/searchlens-labs/searchlens/internal/state"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	Preset     string
	Metrics    []string
	Dimensions []string
	Limit      int
	Sort       string
	Range      string
	Start      string
	End        string
	Format     string
	Page       int
	NoInput    bool
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run a search analytics query",
		Long: `Run a Search Console analytics query, either from a preset or ad hoc.

Results are sorted, filtered, and paginated locally: the upstream API's own
ordering is unreliable for preset queries, so the client-side sort is
authoritative. On a terminal with table output the command enters an
interactive pager where filters can be stacked page by page.`,
		Example: `  # Preset query over the last 28 days
  searchlens query --preset top-queries

  # Ad-hoc query
  searchlens query --metrics clicks,impressions --dimensions page,country --range last90

  # Custom date range, exported as JSON
  searchlens query --preset by-date --range custom --start 2026-01-01 --end 2026-03-31 --format json

  # Explicit multi-column sort
  searchlens query --preset top-pages --sort "impressions:desc,page:asc"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runQuery(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Preset, "preset", "p", "", "Preset id (see 'searchlens presets')")
	cmd.Flags().StringSliceVarP(&opts.Metrics, "metrics", "m", nil, "Metrics for an ad-hoc query")
	cmd.Flags().StringSliceVarP(&opts.Dimensions, "dimensions", "d", nil, "Dimensions for an ad-hoc query")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "l", 0, "Row limit (capped by max_row_limit)")
	cmd.Flags().StringVarP(&opts.Sort, "sort", "s", "", "Client-side sort spec, e.g. clicks:desc,page")
	cmd.Flags().StringVarP(&opts.Range, "range", "r", "last28", "Date range: last7, last28, last90, custom")
	cmd.Flags().StringVar(&opts.Start, "start", "", "Start date (YYYY-MM-DD, custom range)")
	cmd.Flags().StringVar(&opts.End, "end", "", "End date (YYYY-MM-DD, custom range)")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: table, json, csv, md")
	cmd.Flags().IntVar(&opts.Page, "page", -1, "Render a single 0-based page instead of everything")
	cmd.Flags().BoolVar(&opts.NoInput, "no-input", false, "Never enter the interactive pager")

	return cmd
}

// buildRequest translates flags into the plain-data request the normalizer
// accepts, the same shape the HTTP API takes.
func buildRequest(opts *QueryOptions) query.Request {
	req := query.Request{
		Range: query.RangeKind(opts.Range),
		Start: opts.Start,
		End:   opts.End,
		Limit: opts.Limit,
	}
	if opts.Preset != "" {
		req.Mode = query.ModePreset
		req.PresetID = opts.Preset
	} else {
		req.Mode = query.ModeAdhoc
		req.Metrics = opts.Metrics
		req.Dimensions = opts.Dimensions
	}
	return req
}

func runQuery(cmd *cobra.Command, opts *QueryOptions) error {
	ctxc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	desc, err := ctxc.Normalizer().Normalize(buildRequest(opts))
	if err != nil {
		return err
	}

	store, err := ctxc.OpenStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	fetcher, err := buildFetcher(cmd.Context(), ctxc, store)
	if err != nil {
		return err
	}

	return executeQuery(cmd, ctxc, store, fetcher, desc, opts)
}

// buildFetcher wires the authenticated Search Console client for the
// configured or persisted site selection.
func buildFetcher(ctx context.Context, ctxc *CommandContext, store state.Store) (provider.Fetcher, error) {
	siteURL := ctxc.Cfg.SiteURL
	if siteURL == "" {
		persisted, err := store.SelectedSite()
		if err == nil {
			siteURL = persisted
		}
	}

	oauthCfg, err := auth.LoadOAuthConfig(ctxc.Cfg.CredentialsPath)
	if err != nil {
		return nil, err
	}
	httpClient, err := auth.Client(ctx, oauthCfg, store, ctxc.Cfg.Account)
	if err != nil {
		return nil, err
	}
	return gsc.New(ctx, httpClient, siteURL)
}

// executeQuery runs the fetch and shaping pipeline and renders the result.
// Split from runQuery so tests can inject a fetcher.
func executeQuery(cmd *cobra.Command, ctxc *CommandContext, store state.Store, fetcher provider.Fetcher, desc *query.Descriptor, opts *QueryOptions) error {
	rows, err := fetcher.Fetch(cmd.Context(), desc)
	if err != nil {
		return provider.Wrap(err)
	}
	if err := shape.ValidateFields(rows, desc.Fields()); err != nil {
		return err
	}
	ctxc.Logger.Debug("query fetched", "rows", len(rows), "limit", desc.Limit)

	if store != nil {
		descJSON, err := json.Marshal(desc)
		if err == nil {
			if _, err := store.RecordQuery(string(descJSON), len(rows)); err != nil {
				ctxc.Logger.Warn("failed to record query history", "error", err)
			}
		}
	}

	spec, err := clientSortSpec(opts.Sort, desc.OrderBys)
	if err != nil {
		return err
	}
	session := shape.NewSession(rows, spec)

	format := opts.Format
	if format == "" {
		format = ctxc.Cfg.OutputFormat
	}

	if format == "table" && opts.Page < 0 && !opts.NoInput && isTerminal(os.Stdin) && isTerminal(os.Stdout) {
		return runPagerSession(cmd, ctxc, session, desc)
	}

	if opts.Page >= 0 {
		view := shape.Paginate(session.Rows(), opts.Page)
		return renderPage(cmd.OutOrStdout(), view, desc.Fields(), format)
	}
	return renderRows(cmd.OutOrStdout(), session.Rows(), desc.Fields(), format)
}

// clientSortSpec derives the authoritative client-side sort: an explicit
// --sort wins, otherwise the descriptor's order-by hints are applied
// locally since the provider may have ignored them.
func clientSortSpec(flag string, orderBys []query.OrderBy) (shape.SortSpec, error) {
	if flag != "" {
		return shape.ParseSortSpec(flag)
	}
	var spec shape.SortSpec
	for _, ob := range orderBys {
		spec = append(spec, shape.SortLevel{Column: ob.Field, Descending: ob.Descending})
	}
	return spec, spec.Validate()
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// descriptorSummary is the one-line header shown above interactive results.
func descriptorSummary(desc *query.Descriptor) string {
	return fmt.Sprintf("%s  %s to %s  limit %d",
		desc.Source,
		query.FormatDate(desc.DateRange.Start),
		query.FormatDate(desc.DateRange.End),
		desc.Limit,
	)
}
