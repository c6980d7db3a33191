package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/searchlens-labs/searchlens/internal/provider"
	"github.com/searchlens-labs/searchlens/internal/query"
	"github.com/searchlens-labs/searchlens/internal/query/preset"
	"github.com/searchlens-labs/searchlens/internal/shape"
	"github.com/searchlens-labs/searchlens/internal/testutil"
)

type fakeFetcher struct {
	rows []shape.Row
	err  error
}

func (f *fakeFetcher) Fetch(_ context.Context, _ *query.Descriptor) ([]shape.Row, error) {
	return f.rows, f.err
}

type fakeSites struct {
	sites []provider.Site
	err   error
}

func (f *fakeSites) ListSites(_ context.Context) ([]provider.Site, error) {
	return f.sites, f.err
}

func queryRows(n int) []shape.Row {
	rows := make([]shape.Row, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, shape.Row{
			"query":       shape.String(fmt.Sprintf("term %03d", i)),
			"clicks":      shape.Number(float64(n - i)),
			"impressions": shape.Number(float64((n - i) * 10)),
			"ctr":         shape.Number(0.1),
			"position":    shape.Number(3.5),
		})
	}
	return rows
}

func newTestServer(t *testing.T, fetcher provider.Fetcher, sites provider.SiteLister) *Server {
	t.Helper()
	registry := preset.NewRegistry()
	return New(Config{
		Addr:    ":0",
		Fetcher: fetcher,
		Sites:   sites,
		Presets: registry,
		Normalizer: &query.Normalizer{
			Presets: registry,
			Now:     func() time.Time { return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC) },
		},
		Logger: testutil.NewTestLogger(t),
	})
}

func postQuery(t *testing.T, srv *Server, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/query", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	return rec
}

func TestQueryPreset(t *testing.T) {
	srv := newTestServer(t, &fakeFetcher{rows: queryRows(3)}, nil)

	rec := postQuery(t, srv, map[string]any{
		"mode":   "preset",
		"preset": "top-queries",
		"range":  "last28",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp queryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.RowCount)
	assert.Len(t, resp.Rows, 3)
	assert.Equal(t, []string{"query", "clicks", "impressions", "ctr", "position"}, resp.Fields)
	assert.Nil(t, resp.Page)
}

func TestQueryValidationAggregated(t *testing.T) {
	srv := newTestServer(t, &fakeFetcher{}, nil)

	// Ad-hoc with no fields and a broken custom range: all three problems
	// come back in one response.
	rec := postQuery(t, srv, map[string]any{
		"mode":  "adhoc",
		"range": "custom",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Problems, 3)
}

func TestQueryProviderErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"access denied", fmt.Errorf("quota: %w", provider.ErrAccessDenied), http.StatusForbidden},
		{"not found", fmt.Errorf("no property: %w", provider.ErrNotFound), http.StatusNotFound},
		{"bad request", fmt.Errorf("bad dimension: %w", provider.ErrBadRequest), http.StatusBadRequest},
		{"unclassified", fmt.Errorf("connection reset"), http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &fakeFetcher{err: tt.err}, nil)
			rec := postQuery(t, srv, map[string]any{
				"mode":   "preset",
				"preset": "top-queries",
				"range":  "last7",
			})
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestQueryPagination(t *testing.T) {
	srv := newTestServer(t, &fakeFetcher{rows: queryRows(120)}, nil)

	rec := postQuery(t, srv, map[string]any{
		"mode":   "preset",
		"preset": "top-queries",
		"range":  "last28",
		"page":   1,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp queryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Rows, 50)
	assert.Equal(t, 120, resp.RowCount)
	require.NotNil(t, resp.TotalPages)
	assert.Equal(t, 3, *resp.TotalPages)
}

func TestQueryFilters(t *testing.T) {
	srv := newTestServer(t, &fakeFetcher{rows: queryRows(20)}, nil)

	rec := postQuery(t, srv, map[string]any{
		"mode":   "preset",
		"preset": "top-queries",
		"range":  "last28",
		"stringFilters": []map[string]any{
			{"field": "query", "op": "contains", "value": "term 00"},
		},
		"numericFilters": []map[string]any{
			{"field": "clicks", "op": ">=", "value": 12},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp queryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	// "term 00x" matches rows 0-9; clicks >= 12 keeps rows 0-8.
	assert.Equal(t, 9, resp.RowCount)
}

func TestQueryNumericFilterRejected(t *testing.T) {
	srv := newTestServer(t, &fakeFetcher{rows: queryRows(20)}, nil)

	rec := postQuery(t, srv, map[string]any{
		"mode":   "preset",
		"preset": "top-queries",
		"range":  "last28",
		"numericFilters": []map[string]any{
			{"field": "query", "op": ">", "value": 1},
		},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQueryZeroResultFilterKept(t *testing.T) {
	srv := newTestServer(t, &fakeFetcher{rows: queryRows(5)}, nil)

	rec := postQuery(t, srv, map[string]any{
		"mode":   "preset",
		"preset": "top-queries",
		"range":  "last28",
		"stringFilters": []map[string]any{
			{"field": "query", "op": "exact", "value": "nope"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp queryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.RowCount)
	assert.NotNil(t, resp.Rows)
}

func TestQuerySortApplied(t *testing.T) {
	rows := []shape.Row{
		{"query": shape.String("b"), "clicks": shape.Number(1), "impressions": shape.Number(1), "ctr": shape.Number(0), "position": shape.Number(0)},
		{"query": shape.String("a"), "clicks": shape.Number(2), "impressions": shape.Number(1), "ctr": shape.Number(0), "position": shape.Number(0)},
	}
	srv := newTestServer(t, &fakeFetcher{rows: rows}, nil)

	rec := postQuery(t, srv, map[string]any{
		"mode":   "preset",
		"preset": "top-queries",
		"range":  "last28",
		"sort":   []map[string]any{{"column": "clicks", "descending": true}},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp queryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Rows, 2)
	assert.Equal(t, "a", resp.Rows[0]["query"].Text())
}

func TestQueryInvalidSortSpec(t *testing.T) {
	srv := newTestServer(t, &fakeFetcher{rows: queryRows(2)}, nil)

	rec := postQuery(t, srv, map[string]any{
		"mode":   "preset",
		"preset": "top-queries",
		"range":  "last28",
		"sort": []map[string]any{
			{"column": "clicks"},
			{"column": "clicks", "descending": true},
		},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPresetsEndpoint(t *testing.T) {
	srv := newTestServer(t, &fakeFetcher{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/presets", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var defs []preset.Definition
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &defs))

	ids := make([]string, 0, len(defs))
	for _, def := range defs {
		ids = append(ids, def.ID)
	}
	assert.Contains(t, ids, "top-queries")
	assert.Contains(t, ids, "by-date")
}

func TestSitesEndpoint(t *testing.T) {
	sites := &fakeSites{sites: []provider.Site{{URL: "https://example.com/", PermissionLevel: "siteOwner"}}}
	srv := newTestServer(t, &fakeFetcher{}, sites)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sites", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var got []provider.Site
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "https://example.com/", got[0].URL)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, &fakeFetcher{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
