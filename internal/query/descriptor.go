// Package query builds canonical query descriptors from loosely-specified
// requests: preset references or ad-hoc metric/dimension selections plus a
// date-range shorthand. Normalization validates everything up front and
// reports all problems at once; no partial descriptor ever escapes.
package query

import (
	"strings"
	"time"
)

// Source identifies the backing data provider.
type Source string

// Known sources.
const (
	SourceSearchConsole Source = "searchconsole"
)

// Limits applied during normalization.
const (
	// MaxRowLimit caps every query regardless of what was asked for.
	MaxRowLimit = 100000
	// DefaultRowLimit applies when neither the request nor the preset
	// specifies a limit.
	DefaultRowLimit = 1000
)

// DateRange is a closed calendar-date interval, Start <= End.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// OrderBy is a provider-side ordering hint. The client-side sort spec is
// authoritative; this is best effort only, some providers ignore it.
type OrderBy struct {
	Field      string `json:"field"`
	Descending bool   `json:"descending"`
}

// Filter is a provider-side filter expression, passed through opaquely.
// Client-side filtering is a separate concern (internal/shape).
type Filter struct {
	Dimension string `json:"dimension"`
	Operator  string `json:"operator"`
	Expr      string `json:"expr"`
}

// Descriptor is the canonical, validated form of a query, immutable once
// built and consumed by the fetcher.
type Descriptor struct {
	Source     Source    `json:"source"`
	DateRange  DateRange `json:"dateRange"`
	Metrics    []string  `json:"metrics"`
	Dimensions []string  `json:"dimensions"`
	OrderBys   []OrderBy `json:"orderBys,omitempty"`
	Limit      int       `json:"limit"`
	Filters    []Filter  `json:"filters,omitempty"`
}

// Fields returns metrics union dimensions, the field set rows are validated
// against at ingestion.
func (d *Descriptor) Fields() []string {
	out := make([]string, 0, len(d.Metrics)+len(d.Dimensions))
	out = append(out, d.Dimensions...)
	out = append(out, d.Metrics...)
	return out
}

// ValidationErrors aggregates every problem found while normalizing one
// request so the caller can report all deficiencies at once.
type ValidationErrors struct {
	Problems []string
}

// Error joins all problems into one message.
func (e *ValidationErrors) Error() string {
	return "invalid query: " + strings.Join(e.Problems, "; ")
}

func (e *ValidationErrors) add(problem string) {
	e.Problems = append(e.Problems, problem)
}

func (e *ValidationErrors) empty() bool {
	return len(e.Problems) == 0
}
