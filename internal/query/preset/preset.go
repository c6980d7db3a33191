// Package preset holds named query templates selectable by id: fixed
// metrics, dimensions, ordering, and row limit. A registry combines the
// built-in presets with user presets loaded from a YAML file.
package preset

import (
	"fmt"
	"sort"
	"sync"

	"github.com/searchlens-labs/searchlens/internal/query"
)

// ErrNotFound is wrapped by Lookup for unknown preset ids.
var ErrNotFound = fmt.Errorf("preset not found")

// Definition is one preset query template.
type Definition struct {
	ID          string          `json:"id" koanf:"id"`
	Name        string          `json:"name" koanf:"name"`
	Description string          `json:"description,omitempty" koanf:"description"`
	Metrics     []string        `json:"metrics" koanf:"metrics"`
	Dimensions  []string        `json:"dimensions" koanf:"dimensions"`
	OrderBys    []query.OrderBy `json:"orderBys,omitempty" koanf:"order_bys"`
	Limit       int             `json:"limit,omitempty" koanf:"limit"`
}

// Registry resolves preset ids. User presets shadow built-ins with the same
// id. Safe for concurrent use; Replace swaps the user set atomically, which
// serve mode uses for hot reload.
type Registry struct {
	mu   sync.RWMutex
	user map[string]Definition
}

// NewRegistry returns a registry with only the built-in presets.
func NewRegistry() *Registry {
	return &Registry{user: map[string]Definition{}}
}

// Lookup resolves an id, returning "preset not found: <id>" on a miss.
func (r *Registry) Lookup(id string) (Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if def, ok := r.user[id]; ok {
		return def, nil
	}
	if def, ok := builtins[id]; ok {
		return def, nil
	}
	return Definition{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// List returns all presets sorted by id.
func (r *Registry) List() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	merged := make(map[string]Definition, len(builtins)+len(r.user))
	for id, def := range builtins {
		merged[id] = def
	}
	for id, def := range r.user {
		merged[id] = def
	}
	out := make([]Definition, 0, len(merged))
	for _, def := range merged {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Resolve implements query.PresetResolver over the registry.
func (r *Registry) Resolve(id string) (metrics, dimensions []string, orderBys []query.OrderBy, limit int, err error) {
	def, err := r.Lookup(id)
	if err != nil {
		return nil, nil, nil, 0, err
	}
	return def.Metrics, def.Dimensions, def.OrderBys, def.Limit, nil
}

// Replace swaps the user preset set.
func (r *Registry) Replace(defs []Definition) {
	user := make(map[string]Definition, len(defs))
	for _, def := range defs {
		user[def.ID] = def
	}
	r.mu.Lock()
	r.user = user
	r.mu.Unlock()
}

// builtins mirror the stock reports of the interactive tool.
var builtins = map[string]Definition{
	"top-queries": {
		ID:          "top-queries",
		Name:        "Top queries",
		Description: "Best performing search queries by clicks",
		Metrics:     []string{"clicks", "impressions", "ctr", "position"},
		Dimensions:  []string{"query"},
		OrderBys:    []query.OrderBy{{Field: "clicks", Descending: true}},
		Limit:       1000,
	},
	"top-pages": {
		ID:          "top-pages",
		Name:        "Top pages",
		Description: "Best performing pages by clicks",
		Metrics:     []string{"clicks", "impressions", "ctr", "position"},
		Dimensions:  []string{"page"},
		OrderBys:    []query.OrderBy{{Field: "clicks", Descending: true}},
		Limit:       1000,
	},
	"by-country": {
		ID:          "by-country",
		Name:        "Traffic by country",
		Metrics:     []string{"clicks", "impressions", "ctr"},
		Dimensions:  []string{"country"},
		OrderBys:    []query.OrderBy{{Field: "clicks", Descending: true}},
		Limit:       250,
	},
	"by-device": {
		ID:          "by-device",
		Name:        "Traffic by device",
		Metrics:     []string{"clicks", "impressions", "ctr"},
		Dimensions:  []string{"device"},
		OrderBys:    []query.OrderBy{{Field: "clicks", Descending: true}},
		Limit:       10,
	},
	"by-date": {
		ID:          "by-date",
		Name:        "Daily trend",
		Description: "Clicks and impressions per day",
		Metrics:     []string{"clicks", "impressions", "ctr", "position"},
		Dimensions:  []string{"date"},
		OrderBys:    []query.OrderBy{{Field: "date"}},
		Limit:       1000,
	},
	"query-page": {
		ID:          "query-page",
		Name:        "Query / page matrix",
		Description: "Which queries land on which pages",
		Metrics:     []string{"clicks", "impressions"},
		Dimensions:  []string{"query", "page"},
		OrderBys:    []query.OrderBy{{Field: "clicks", Descending: true}},
		Limit:       5000,
	},
}
