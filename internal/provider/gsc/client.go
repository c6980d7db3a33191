// Package gsc implements the fetcher boundary against the Google Search
// Console Search Analytics API. It performs one request per query and does
// no retrying or quota handling; failures map onto the provider error
// classes and end the request.
package gsc

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	searchconsole "google.golang.org/api/searchconsole/v1"

	"github.com/searchlens-labs/searchlens/internal/provider"
	"github.com/searchlens-labs/searchlens/internal/query"
	"github.com/searchlens-labs/searchlens/internal/shape"
)

// Metric field names the Search Analytics API reports. Requested metrics
// select which of these land in each row.
const (
	MetricClicks      = "clicks"
	MetricImpressions = "impressions"
	MetricCTR         = "ctr"
	MetricPosition    = "position"
)

// Client fetches search analytics rows for one site.
type Client struct {
	svc     *searchconsole.Service
	siteURL string
}

// New builds a client from an OAuth-authenticated HTTP client.
func New(ctx context.Context, httpClient *http.Client, siteURL string) (*Client, error) {
	svc, err := searchconsole.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create search console service: %w", err)
	}
	return &Client{svc: svc, siteURL: siteURL}, nil
}

// Fetch implements provider.Fetcher. Provider-side order hints are not
// forwarded: the API ignores ordering for most dimension combinations, which
// is exactly why the client-side sort engine exists.
func (c *Client) Fetch(ctx context.Context, desc *query.Descriptor) ([]shape.Row, error) {
	if c.siteURL == "" {
		return nil, fmt.Errorf("%w: no site selected (run 'searchlens sites select')", provider.ErrBadRequest)
	}

	req := &searchconsole.SearchAnalyticsQueryRequest{
		StartDate:  query.FormatDate(desc.DateRange.Start),
		EndDate:    query.FormatDate(desc.DateRange.End),
		Dimensions: desc.Dimensions,
		RowLimit:   int64(desc.Limit),
	}
	if len(desc.Filters) > 0 {
		group := &searchconsole.ApiDimensionFilterGroup{GroupType: "and"}
		for _, f := range desc.Filters {
			group.Filters = append(group.Filters, &searchconsole.ApiDimensionFilter{
				Dimension:  f.Dimension,
				Operator:   f.Operator,
				Expression: f.Expr,
			})
		}
		req.DimensionFilterGroups = []*searchconsole.ApiDimensionFilterGroup{group}
	}

	resp, err := c.svc.Searchanalytics.Query(c.siteURL, req).Context(ctx).Do()
	if err != nil {
		return nil, classify(err)
	}

	rows := make([]shape.Row, 0, len(resp.Rows))
	for _, apiRow := range resp.Rows {
		row := make(shape.Row, len(desc.Dimensions)+len(desc.Metrics))
		for i, dim := range desc.Dimensions {
			if i < len(apiRow.Keys) {
				row[dim] = shape.String(apiRow.Keys[i])
			}
		}
		for _, metric := range desc.Metrics {
			switch metric {
			case MetricClicks:
				row[metric] = shape.Number(apiRow.Clicks)
			case MetricImpressions:
				row[metric] = shape.Number(apiRow.Impressions)
			case MetricCTR:
				row[metric] = shape.Number(apiRow.Ctr)
			case MetricPosition:
				row[metric] = shape.Number(apiRow.Position)
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ListSites implements provider.SiteLister.
func (c *Client) ListSites(ctx context.Context) ([]provider.Site, error) {
	resp, err := c.svc.Sites.List().Context(ctx).Do()
	if err != nil {
		return nil, classify(err)
	}
	sites := make([]provider.Site, 0, len(resp.SiteEntry))
	for _, entry := range resp.SiteEntry {
		sites = append(sites, provider.Site{
			URL:             entry.SiteUrl,
			PermissionLevel: entry.PermissionLevel,
		})
	}
	return sites, nil
}

// classify maps API HTTP statuses onto the provider error classes.
func classify(err error) error {
	if apiErr, ok := err.(*googleapi.Error); ok {
		switch apiErr.Code {
		case http.StatusForbidden, http.StatusUnauthorized:
			return fmt.Errorf("%w: %s", provider.ErrAccessDenied, apiErr.Message)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", provider.ErrNotFound, apiErr.Message)
		case http.StatusBadRequest:
			return fmt.Errorf("%w: %s", provider.ErrBadRequest, apiErr.Message)
		}
	}
	return err
}
