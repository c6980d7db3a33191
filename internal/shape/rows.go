// Package shape implements client-side result shaping for search analytics
// rows: multi-level sorting, accumulating string/numeric filters, and
// fixed-size pagination. All operations treat the input row slice as
// immutable and return new slices.
package shape

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Kind discriminates the two value types a row field can hold.
type Kind int

const (
	// KindString is a textual dimension value.
	KindString Kind = iota
	// KindNumber is a numeric metric value.
	KindNumber
)

// Value is a tagged string-or-number cell. Rows carry whatever field set the
// query requested, so cells are dynamically typed rather than struct fields.
type Value struct {
	Kind Kind
	Str  string
	Num  float64
}

// String constructs a string value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Number constructs a numeric value.
func Number(n float64) Value { return Value{Kind: KindNumber, Num: n} }

// Text returns the value stringified, the form used by string filters and
// numeric token extraction.
func (v Value) Text() string {
	if v.Kind == KindNumber {
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	}
	return v.Str
}

// MarshalJSON emits the underlying value, not the tag wrapper, so exported
// rows look like plain JSON objects.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.Kind == KindNumber {
		return json.Marshal(v.Num)
	}
	return json.Marshal(v.Str)
}

// UnmarshalJSON accepts a bare JSON string or number.
func (v *Value) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*v = Number(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("row value must be a string or number: %w", err)
	}
	*v = String(s)
	return nil
}

// Row is a flat record keyed by metric or dimension name. Rows have no
// identity beyond their position in a result slice.
type Row map[string]Value

// Fields returns the row's field names in sorted order.
func (r Row) Fields() []string {
	fields := make([]string, 0, len(r))
	for k := range r {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	return fields
}

// ValidateFields checks each row against the requested field set
// (metrics union dimensions). Providers are not trusted to return only the
// requested fields; a stray field is reported rather than silently carried
// downstream. Missing fields are fine, upstream rows are sparse.
func ValidateFields(rows []Row, requested []string) error {
	allowed := make(map[string]struct{}, len(requested))
	for _, f := range requested {
		allowed[f] = struct{}{}
	}
	for i, row := range rows {
		for field := range row {
			if _, ok := allowed[field]; !ok {
				return fmt.Errorf("row %d: unexpected field %q in provider result", i, field)
			}
		}
	}
	return nil
}
