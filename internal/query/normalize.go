package query

import (
	"fmt"
	"time"
)

// Mode selects how a request specifies its fields.
type Mode string

// Request modes.
const (
	ModePreset Mode = "preset"
	ModeAdhoc  Mode = "adhoc"
)

// Request is the loosely-specified form accepted from the CLI and the HTTP
// API. It is plain data, serializable to JSON, so both surfaces feed the
// same normalization path.
type Request struct {
	Mode   Mode   `json:"mode"`
	Source Source `json:"source,omitempty"`

	// Preset mode.
	PresetID string `json:"preset,omitempty"`

	// Ad-hoc mode.
	Metrics    []string  `json:"metrics,omitempty"`
	Dimensions []string  `json:"dimensions,omitempty"`
	OrderBys   []OrderBy `json:"orderBys,omitempty"`
	Limit      int       `json:"limit,omitempty"`
	Filters    []Filter  `json:"filters,omitempty"`

	// Date range shorthand, both modes.
	Range RangeKind `json:"range"`
	Start string    `json:"start,omitempty"`
	End   string    `json:"end,omitempty"`
}

// PresetResolver is the registry collaborator consulted in preset mode.
type PresetResolver interface {
	// Resolve returns the preset's field selection for id.
	Resolve(id string) (metrics, dimensions []string, orderBys []OrderBy, limit int, err error)
}

// Normalizer turns requests into canonical descriptors. It is a pure
// transformation over the request, the preset registry, and the clock.
type Normalizer struct {
	Presets PresetResolver
	// MaxRowLimit caps every query; zero means MaxRowLimit (the constant).
	MaxRowLimit int
	// DefaultLimit applies when nothing specifies one; zero means
	// DefaultRowLimit.
	DefaultLimit int
	// Now allows tests to pin the reference date. Nil means time.Now.
	Now func() time.Time
}

// Normalize validates req and builds a Descriptor. On failure it returns a
// *ValidationErrors listing every problem found; no partial descriptor is
// produced.
func (n *Normalizer) Normalize(req Request) (*Descriptor, error) {
	verrs := &ValidationErrors{}

	source := req.Source
	if source == "" {
		source = SourceSearchConsole
	}

	metrics := req.Metrics
	dimensions := req.Dimensions
	orderBys := req.OrderBys
	limit := req.Limit

	switch req.Mode {
	case ModePreset:
		if req.PresetID == "" {
			verrs.add("preset mode requires a preset id")
			break
		}
		m, d, o, l, err := n.Presets.Resolve(req.PresetID)
		if err != nil {
			verrs.add(err.Error())
			break
		}
		metrics, dimensions, orderBys = m, d, o
		if limit == 0 {
			limit = l
		}
	case ModeAdhoc:
		if len(metrics) == 0 {
			verrs.add("at least one metric is required")
		}
		if len(dimensions) == 0 {
			verrs.add("at least one dimension is required")
		}
	default:
		verrs.add(fmt.Sprintf("unknown query mode %q", req.Mode))
	}

	now := time.Now()
	if n.Now != nil {
		now = n.Now()
	}
	dateRange, err := ResolveDateRange(req.Range, req.Start, req.End, now)
	if err != nil {
		verrs.add(err.Error())
	}

	if !verrs.empty() {
		return nil, verrs
	}

	return &Descriptor{
		Source:     source,
		DateRange:  dateRange,
		Metrics:    metrics,
		Dimensions: dimensions,
		OrderBys:   orderBys,
		Limit:      n.capLimit(limit),
		Filters:    req.Filters,
	}, nil
}

func (n *Normalizer) capLimit(limit int) int {
	max := n.MaxRowLimit
	if max <= 0 {
		max = MaxRowLimit
	}
	if limit <= 0 {
		limit = n.DefaultLimit
	}
	if limit <= 0 {
		limit = DefaultRowLimit
	}
	if limit > max {
		limit = max
	}
	return limit
}
