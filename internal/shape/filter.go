package shape

import (
	"fmt"
	"strings"
)

// StringOp is a case-insensitive string predicate.
type StringOp string

// String filter operators.
const (
	OpExact       StringOp = "exact"
	OpContains    StringOp = "contains"
	OpNotExact    StringOp = "notExact"
	OpNotContains StringOp = "notContains"
)

// NumericOp compares the extracted numeric token of a field against a value.
type NumericOp string

// Numeric filter operators.
const (
	OpGTE NumericOp = ">="
	OpLTE NumericOp = "<="
	OpGT  NumericOp = ">"
	OpLT  NumericOp = "<"
	OpEQ  NumericOp = "="
)

// StringFilter keeps rows whose field matches Value under Op.
type StringFilter struct {
	Field string   `json:"field"`
	Op    StringOp `json:"op"`
	Value string   `json:"value"`
}

// NumericFilter keeps rows whose field parses to a number satisfying Op
// against Value. Fields with no parseable token always fail.
type NumericFilter struct {
	Field string    `json:"field"`
	Op    NumericOp `json:"op"`
	Value float64   `json:"value"`
}

// guardSampleSize is how many rows AddNumeric inspects before accepting a
// numeric filter on a field.
const guardSampleSize = 10

// ErrNonNumericField is wrapped by AddNumeric when the sampled rows yield no
// parseable number for the target field.
var ErrNonNumericField = fmt.Errorf("field is not numeric")

// FilterState is the accumulated set of active filters for one viewing
// session or one API request. It is owned by exactly one caller and must not
// be shared across concurrent sessions. Filters are conjunctive and
// cumulative: every active filter must pass, and adding one never discards
// the rest. Apply always re-filters from the original unfiltered rows.
type FilterState struct {
	Strings  []StringFilter  `json:"strings,omitempty"`
	Numerics []NumericFilter `json:"numerics,omitempty"`
}

// Empty reports whether no filters are active.
func (fs *FilterState) Empty() bool {
	return len(fs.Strings) == 0 && len(fs.Numerics) == 0
}

// Len returns the number of active filters.
func (fs *FilterState) Len() int {
	return len(fs.Strings) + len(fs.Numerics)
}

// Clear drops all filters. Callers reset state on session completion, on an
// explicit clear command, and when returning to the top-level menu.
func (fs *FilterState) Clear() {
	fs.Strings = nil
	fs.Numerics = nil
}

// AddString appends a string filter. Zero-result filters are allowed: the
// caller may warn, but user intent is trusted and the filter is kept.
func (fs *FilterState) AddString(f StringFilter) error {
	if err := validateStringOp(f.Op); err != nil {
		return err
	}
	if f.Field == "" {
		return fmt.Errorf("string filter needs a field")
	}
	fs.Strings = append(fs.Strings, f)
	return nil
}

// AddNumeric appends a numeric filter after a pre-check: the first
// guardSampleSize rows are sampled, and if none of them yields a parseable
// number for the field the filter is rejected and the state left untouched.
// This is an add-time guard, distinct from the zero-result policy.
func (fs *FilterState) AddNumeric(rows []Row, f NumericFilter) error {
	if err := validateNumericOp(f.Op); err != nil {
		return err
	}
	if f.Field == "" {
		return fmt.Errorf("numeric filter needs a field")
	}
	sample := rows
	if len(sample) > guardSampleSize {
		sample = sample[:guardSampleSize]
	}
	parseable := false
	for _, row := range sample {
		if v, ok := row[f.Field]; ok {
			if _, ok := ExtractLeadingNumber(v.Text()); ok {
				parseable = true
				break
			}
		}
	}
	if !parseable {
		return fmt.Errorf("%w: no numeric value for %q in the first %d rows", ErrNonNumericField, f.Field, len(sample))
	}
	fs.Numerics = append(fs.Numerics, f)
	return nil
}

// Apply folds every string filter then every numeric filter, in insertion
// order within each list, over rows. Pass the original unfiltered result set,
// never an already-filtered one.
func (fs *FilterState) Apply(rows []Row) []Row {
	out := rows
	for _, f := range fs.Strings {
		out = ApplyStringFilter(out, f)
	}
	for _, f := range fs.Numerics {
		out = ApplyNumericFilter(out, f)
	}
	return out
}

// ApplyStringFilter returns the subset of rows matching f. Comparison is
// case-insensitive over the stringified field value; a missing field
// stringifies to "".
func ApplyStringFilter(rows []Row, f StringFilter) []Row {
	want := strings.ToLower(f.Value)
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		got := strings.ToLower(row[f.Field].Text())
		var keep bool
		switch f.Op {
		case OpExact:
			keep = got == want
		case OpContains:
			keep = strings.Contains(got, want)
		case OpNotExact:
			keep = got != want
		case OpNotContains:
			keep = !strings.Contains(got, want)
		}
		if keep {
			out = append(out, row)
		}
	}
	return out
}

// ApplyNumericFilter returns the subset of rows whose field's extracted
// numeric token satisfies f. Rows whose field yields no token are dropped
// regardless of operator, including "= 0".
func ApplyNumericFilter(rows []Row, f NumericFilter) []Row {
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		v, ok := row[f.Field]
		if !ok {
			continue
		}
		n, ok := ExtractLeadingNumber(v.Text())
		if !ok {
			continue
		}
		var keep bool
		switch f.Op {
		case OpGTE:
			keep = n >= f.Value
		case OpLTE:
			keep = n <= f.Value
		case OpGT:
			keep = n > f.Value
		case OpLT:
			keep = n < f.Value
		case OpEQ:
			keep = n == f.Value
		}
		if keep {
			out = append(out, row)
		}
	}
	return out
}

func validateStringOp(op StringOp) error {
	switch op {
	case OpExact, OpContains, OpNotExact, OpNotContains:
		return nil
	}
	return fmt.Errorf("unknown string operator %q", op)
}

func validateNumericOp(op NumericOp) error {
	switch op {
	case OpGTE, OpLTE, OpGT, OpLT, OpEQ:
		return nil
	}
	return fmt.Errorf("unknown numeric operator %q", op)
}
