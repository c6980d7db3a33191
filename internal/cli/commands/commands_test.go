package commands

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/searchlens-labs/searchlens/internal/cli/output"
	"github.com/searchlens-labs/searchlens/internal/provider"
	"github.com/searchlens-labs/searchlens/internal/query"
	"github.com/searchlens-labs/searchlens/internal/query/preset"
	"github.com/searchlens-labs/searchlens/internal/shape"
)

type stubFetcher struct {
	rows []shape.Row
	err  error
}

func (f *stubFetcher) Fetch(_ context.Context, _ *query.Descriptor) ([]shape.Row, error) {
	return f.rows, f.err
}

func newTestContext(t *testing.T) *CommandContext {
	t.Helper()
	return &CommandContext{
		Cfg:     GetConfig(context.Background()),
		Logger:  GetLogger(context.Background()),
		Styles:  output.NewStyles(),
		Presets: preset.NewRegistry(),
	}
}

func newTestCommand() (*cobra.Command, *bytes.Buffer) {
	cmd := &cobra.Command{}
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetContext(context.Background())
	return cmd, buf
}

func TestBuildRequestPreset(t *testing.T) {
	req := buildRequest(&QueryOptions{Preset: "top-queries", Range: "last7", Limit: 10})
	assert.Equal(t, query.ModePreset, req.Mode)
	assert.Equal(t, "top-queries", req.PresetID)
	assert.Equal(t, query.RangeKind("last7"), req.Range)
	assert.Equal(t, 10, req.Limit)
}

func TestBuildRequestAdhoc(t *testing.T) {
	req := buildRequest(&QueryOptions{
		Metrics:    []string{"clicks"},
		Dimensions: []string{"page"},
		Range:      "custom",
		Start:      "2026-01-01",
		End:        "2026-01-31",
	})
	assert.Equal(t, query.ModeAdhoc, req.Mode)
	assert.Equal(t, []string{"clicks"}, req.Metrics)
	assert.Equal(t, []string{"page"}, req.Dimensions)
	assert.Equal(t, "2026-01-01", req.Start)
}

func TestClientSortSpecFlagWins(t *testing.T) {
	spec, err := clientSortSpec("clicks:desc,page", []query.OrderBy{{Field: "impressions", Descending: true}})
	require.NoError(t, err)
	require.Len(t, spec, 2)
	assert.Equal(t, "clicks", spec[0].Column)
	assert.True(t, spec[0].Descending)
	assert.Equal(t, "page", spec[1].Column)
	assert.False(t, spec[1].Descending)
}

func TestClientSortSpecFallsBackToOrderBys(t *testing.T) {
	spec, err := clientSortSpec("", []query.OrderBy{{Field: "clicks", Descending: true}})
	require.NoError(t, err)
	require.Len(t, spec, 1)
	assert.Equal(t, "clicks", spec[0].Column)
	assert.True(t, spec[0].Descending)
}

func TestClientSortSpecInvalid(t *testing.T) {
	_, err := clientSortSpec("clicks:sideways", nil)
	assert.Error(t, err)
}

func TestExecuteQueryJSON(t *testing.T) {
	ctxc := newTestContext(t)
	cmd, buf := newTestCommand()

	fetcher := &stubFetcher{rows: []shape.Row{
		{"query": shape.String("golang"), "clicks": shape.Number(42)},
		{"query": shape.String("gopher"), "clicks": shape.Number(7)},
	}}
	desc := &query.Descriptor{
		Source:     query.SourceSearchConsole,
		Metrics:    []string{"clicks"},
		Dimensions: []string{"query"},
		Limit:      100,
	}

	err := executeQuery(cmd, ctxc, nil, fetcher, desc, &QueryOptions{Format: "json", Page: -1})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"golang"`)
	assert.Contains(t, buf.String(), `"clicks": 42`)
}

func TestExecuteQuerySortedCSV(t *testing.T) {
	ctxc := newTestContext(t)
	cmd, buf := newTestCommand()

	fetcher := &stubFetcher{rows: []shape.Row{
		{"query": shape.String("low"), "clicks": shape.Number(1)},
		{"query": shape.String("high"), "clicks": shape.Number(9)},
	}}
	desc := &query.Descriptor{
		Metrics:    []string{"clicks"},
		Dimensions: []string{"query"},
		Limit:      100,
	}

	err := executeQuery(cmd, ctxc, nil, fetcher, desc, &QueryOptions{Format: "csv", Sort: "clicks:desc", Page: -1})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "query,clicks", lines[0])
	assert.Equal(t, "high,9", lines[1])
	assert.Equal(t, "low,1", lines[2])
}

func TestExecuteQuerySinglePage(t *testing.T) {
	ctxc := newTestContext(t)
	cmd, buf := newTestCommand()

	rows := make([]shape.Row, 0, 120)
	for i := 0; i < 120; i++ {
		rows = append(rows, shape.Row{
			"query":  shape.String(fmt.Sprintf("q%03d", i)),
			"clicks": shape.Number(float64(i)),
		})
	}
	desc := &query.Descriptor{
		Metrics:    []string{"clicks"},
		Dimensions: []string{"query"},
		Limit:      1000,
	}

	err := executeQuery(cmd, ctxc, nil, &stubFetcher{rows: rows}, desc, &QueryOptions{Format: "table", Page: 2})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "page 3/3")
	assert.Contains(t, buf.String(), "(20 rows)")
}

func TestExecuteQueryProviderError(t *testing.T) {
	ctxc := newTestContext(t)
	cmd, _ := newTestCommand()

	fetcher := &stubFetcher{err: fmt.Errorf("no property: %w", provider.ErrNotFound)}
	desc := &query.Descriptor{Metrics: []string{"clicks"}, Dimensions: []string{"query"}}

	err := executeQuery(cmd, ctxc, nil, fetcher, desc, &QueryOptions{Format: "json", Page: -1})
	require.Error(t, err)
	assert.ErrorIs(t, err, provider.ErrNotFound)
	assert.Contains(t, err.Error(), "provider has no such resource")
}

func TestExecuteQueryStrayFieldRejected(t *testing.T) {
	ctxc := newTestContext(t)
	cmd, _ := newTestCommand()

	fetcher := &stubFetcher{rows: []shape.Row{
		{"query": shape.String("ok"), "surprise": shape.Number(1)},
	}}
	desc := &query.Descriptor{Metrics: []string{"clicks"}, Dimensions: []string{"query"}}

	err := executeQuery(cmd, ctxc, nil, fetcher, desc, &QueryOptions{Format: "json", Page: -1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected field")
}

func TestParseStringOp(t *testing.T) {
	tests := []struct {
		in   string
		want shape.StringOp
		ok   bool
	}{
		{"exact", shape.OpExact, true},
		{"is", shape.OpExact, true},
		{"contains", shape.OpContains, true},
		{"has", shape.OpContains, true},
		{"not-exact", shape.OpNotExact, true},
		{"not-contains", shape.OpNotContains, true},
		{"regex", "", false},
	}
	for _, tt := range tests {
		got, ok := parseStringOp(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		if ok {
			assert.Equal(t, tt.want, got, tt.in)
		}
	}
}

func TestDescriptorSummary(t *testing.T) {
	desc := &query.Descriptor{
		Source: query.SourceSearchConsole,
		DateRange: query.DateRange{
			Start: mustDate(t, "2026-02-16"),
			End:   mustDate(t, "2026-03-15"),
		},
		Limit: 1000,
	}
	got := descriptorSummary(desc)
	assert.Equal(t, "searchconsole  2026-02-16 to 2026-03-15  limit 1000", got)
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(query.DateLayout, s)
	require.NoError(t, err)
	return d
}
