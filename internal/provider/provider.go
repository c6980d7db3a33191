// Package provider defines the result-fetcher boundary: given a canonical
// query descriptor, a provider returns flat result rows. The shaping
// pipeline treats providers as opaque and never retries them; provider
// errors are surfaced with a readable prefix and end the request.
package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/searchlens-labs/searchlens/internal/query"
	"github.com/searchlens-labs/searchlens/internal/shape"
)

// Error classes, distinguished so callers can map them to exit codes or
// HTTP statuses. Matched with errors.Is.
var (
	ErrAccessDenied = errors.New("access denied")
	ErrNotFound     = errors.New("not found")
	ErrBadRequest   = errors.New("invalid request")
)

// Fetcher executes a descriptor against a backing data source. The returned
// rows carry only the descriptor's requested fields; provider-side ordering
// is a best-effort hint, client-side sort is authoritative.
type Fetcher interface {
	Fetch(ctx context.Context, desc *query.Descriptor) ([]shape.Row, error)
}

// Site is one property the authenticated account can query.
type Site struct {
	URL             string `json:"url"`
	PermissionLevel string `json:"permissionLevel"`
}

// SiteLister enumerates the account's properties for interactive selection.
type SiteLister interface {
	ListSites(ctx context.Context) ([]Site, error)
}

// Wrap prefixes a provider error for the human operator without changing
// its class.
func Wrap(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrAccessDenied):
		return fmt.Errorf("provider refused the request: %w", err)
	case errors.Is(err, ErrNotFound):
		return fmt.Errorf("provider has no such resource: %w", err)
	case errors.Is(err, ErrBadRequest):
		return fmt.Errorf("provider rejected the request: %w", err)
	default:
		return fmt.Errorf("provider request failed: %w", err)
	}
}
