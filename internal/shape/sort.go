package shape

import (
	"fmt"
	"sort"
	"strings"
)

// SortLevel is one entry of a multi-level sort spec. List position encodes
// priority: the first level dominates, later levels only break ties.
type SortLevel struct {
	Column     string `json:"column"`
	Descending bool   `json:"descending"`
}

// SortSpec is an ordered list of sort levels. A nil or empty spec means
// "no sorting". Invariant: no column appears twice.
type SortSpec []SortLevel

// Validate rejects specs with empty or duplicate columns.
func (s SortSpec) Validate() error {
	seen := make(map[string]struct{}, len(s))
	for _, lvl := range s {
		if lvl.Column == "" {
			return fmt.Errorf("sort level has empty column")
		}
		if _, dup := seen[lvl.Column]; dup {
			return fmt.Errorf("duplicate sort column %q", lvl.Column)
		}
		seen[lvl.Column] = struct{}{}
	}
	return nil
}

// ParseSortSpec parses the CLI form "col:desc,col2:asc". A bare column
// defaults to ascending. Empty input yields a nil spec.
func ParseSortSpec(s string) (SortSpec, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var spec SortSpec
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		col, dir, hasDir := strings.Cut(part, ":")
		lvl := SortLevel{Column: strings.TrimSpace(col)}
		if hasDir {
			switch strings.ToLower(strings.TrimSpace(dir)) {
			case "asc", "ascending":
			case "desc", "descending":
				lvl.Descending = true
			default:
				return nil, fmt.Errorf("invalid sort direction %q (want asc or desc)", dir)
			}
		}
		spec = append(spec, lvl)
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

// Sort orders rows by the spec's levels, evaluated in list order: the first
// level with a non-zero comparison decides, later levels only break ties.
// Missing fields compare as less than any present value since provider rows
// are sparse. The sort is stable, equal-key rows keep their fetched order.
// A nil or empty spec returns the input unchanged.
func Sort(rows []Row, spec SortSpec) []Row {
	if len(spec) == 0 {
		return rows
	}
	out := make([]Row, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		for _, lvl := range spec {
			c := compareField(out[i], out[j], lvl.Column)
			if lvl.Descending {
				c = -c
			}
			if c != 0 {
				return c < 0
			}
		}
		return false
	})
	return out
}

// compareField compares one field across two rows: numeric when both cells
// are numbers, case-folded lexicographic otherwise. An absent field sorts
// before any present value.
func compareField(a, b Row, field string) int {
	av, aok := a[field]
	bv, bok := b[field]
	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return -1
	case !bok:
		return 1
	}
	if av.Kind == KindNumber && bv.Kind == KindNumber {
		switch {
		case av.Num < bv.Num:
			return -1
		case av.Num > bv.Num:
			return 1
		default:
			return 0
		}
	}
	as := strings.ToLower(av.Text())
	bs := strings.ToLower(bv.Text())
	return strings.Compare(as, bs)
}
