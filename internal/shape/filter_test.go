package shape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyStringFilterExactIsCaseInsensitive(t *testing.T) {
	rows := []Row{
		{"name": String("Acme"), "amt": Number(5)},
		{"name": String("Beta"), "amt": Number(20)},
	}

	got := ApplyStringFilter(rows, StringFilter{Field: "name", Op: OpExact, Value: "acme"})

	require.Len(t, got, 1)
	assert.Equal(t, "Acme", got[0]["name"].Str)
}

func TestApplyStringFilterOperators(t *testing.T) {
	rows := []Row{
		{"page": String("/blog/go-generics")},
		{"page": String("/docs/install")},
		{"page": String("/blog/")},
	}

	tests := []struct {
		name string
		f    StringFilter
		want int
	}{
		{"contains", StringFilter{Field: "page", Op: OpContains, Value: "BLOG"}, 2},
		{"not contains", StringFilter{Field: "page", Op: OpNotContains, Value: "blog"}, 1},
		{"not exact", StringFilter{Field: "page", Op: OpNotExact, Value: "/blog/"}, 2},
		{"exact no match", StringFilter{Field: "page", Op: OpExact, Value: "/blog"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, ApplyStringFilter(rows, tt.f), tt.want)
		})
	}
}

func TestApplyNumericFilterTokenExtraction(t *testing.T) {
	rows := []Row{
		{"amt": Number(5)},
		{"amt": String("20x")},
		{"amt": Number(15)},
	}

	got := ApplyNumericFilter(rows, NumericFilter{Field: "amt", Op: OpGTE, Value: 10})

	// "20x" parses to 20 via leading-token extraction and survives.
	require.Len(t, got, 2)
	assert.Equal(t, "20x", got[0]["amt"].Str)
	assert.Equal(t, float64(15), got[1]["amt"].Num)
}

func TestApplyNumericFilterDropsUnparseableRegardlessOfOperator(t *testing.T) {
	rows := []Row{
		{"amt": String("n/a")},
		{"amt": Number(0)},
	}

	for _, op := range []NumericOp{OpGTE, OpLTE, OpGT, OpLT, OpEQ} {
		got := ApplyNumericFilter(rows, NumericFilter{Field: "amt", Op: op, Value: 0})
		for _, row := range got {
			assert.NotEqual(t, "n/a", row["amt"].Str, "operator %s kept an unparseable row", op)
		}
	}

	// Even "= 0" excludes the unparseable row, it does not coerce to zero.
	got := ApplyNumericFilter(rows, NumericFilter{Field: "amt", Op: OpEQ, Value: 0})
	require.Len(t, got, 1)
	assert.Equal(t, float64(0), got[0]["amt"].Num)
}

func TestApplyNumericFilterMissingFieldDropsRow(t *testing.T) {
	rows := []Row{
		{"clicks": Number(7)},
		{"impressions": Number(100)},
	}

	got := ApplyNumericFilter(rows, NumericFilter{Field: "clicks", Op: OpGTE, Value: 0})

	require.Len(t, got, 1)
}

func TestFilterStateApplyIsConjunctiveAndOrdered(t *testing.T) {
	rows := []Row{
		{"page": String("/blog/a"), "clicks": Number(30)},
		{"page": String("/blog/b"), "clicks": Number(5)},
		{"page": String("/docs/a"), "clicks": Number(50)},
	}

	var fs FilterState
	require.NoError(t, fs.AddString(StringFilter{Field: "page", Op: OpContains, Value: "blog"}))
	require.NoError(t, fs.AddNumeric(rows, NumericFilter{Field: "clicks", Op: OpGTE, Value: 10}))

	got := fs.Apply(rows)

	require.Len(t, got, 1)
	assert.Equal(t, "/blog/a", got[0]["page"].Str)
}

func TestFilterStateApplyIsMonotonic(t *testing.T) {
	rows := []Row{
		{"q": String("go sort"), "clicks": Number(12)},
		{"q": String("go filter"), "clicks": Number(3)},
		{"q": String("rust sort"), "clicks": Number(40)},
	}

	var fs FilterState
	require.NoError(t, fs.AddString(StringFilter{Field: "q", Op: OpContains, Value: "go"}))
	before := len(fs.Apply(rows))

	require.NoError(t, fs.AddNumeric(rows, NumericFilter{Field: "clicks", Op: OpGT, Value: 5}))
	after := len(fs.Apply(rows))

	assert.LessOrEqual(t, after, before)
}

func TestFilterStateZeroResultFilterIsKept(t *testing.T) {
	rows := []Row{{"q": String("golang"), "clicks": Number(3)}}

	var fs FilterState
	require.NoError(t, fs.AddString(StringFilter{Field: "q", Op: OpExact, Value: "nothing matches"}))

	assert.Empty(t, fs.Apply(rows))
	assert.Equal(t, 1, fs.Len(), "zero-result filter must survive, not roll back")
}

func TestAddNumericRejectsNonNumericField(t *testing.T) {
	rows := []Row{
		{"country": String("usa")},
		{"country": String("deu")},
	}

	var fs FilterState
	err := fs.AddNumeric(rows, NumericFilter{Field: "country", Op: OpGTE, Value: 1})

	require.ErrorIs(t, err, ErrNonNumericField)
	assert.True(t, fs.Empty(), "rejected filter must not corrupt state")
}

func TestAddNumericGuardSamplesPrefixOnly(t *testing.T) {
	// Field is numeric only beyond the sampled prefix: the guard rejects.
	rows := make([]Row, 0, guardSampleSize+1)
	for i := 0; i < guardSampleSize; i++ {
		rows = append(rows, Row{"mixed": String("none")})
	}
	rows = append(rows, Row{"mixed": Number(42)})

	var fs FilterState
	err := fs.AddNumeric(rows, NumericFilter{Field: "mixed", Op: OpGT, Value: 0})

	require.ErrorIs(t, err, ErrNonNumericField)
}

func TestFilterStateAddValidatesOperators(t *testing.T) {
	var fs FilterState

	assert.Error(t, fs.AddString(StringFilter{Field: "q", Op: "fuzzy", Value: "x"}))
	assert.Error(t, fs.AddNumeric([]Row{{"n": Number(1)}}, NumericFilter{Field: "n", Op: "!="}))
	assert.True(t, fs.Empty())
}

func TestFilterStateClear(t *testing.T) {
	rows := []Row{{"clicks": Number(9)}}

	var fs FilterState
	require.NoError(t, fs.AddNumeric(rows, NumericFilter{Field: "clicks", Op: OpGT, Value: 100}))
	require.Empty(t, fs.Apply(rows))

	fs.Clear()

	assert.True(t, fs.Empty())
	assert.Len(t, fs.Apply(rows), 1)
}

func TestExtractLeadingNumber(t *testing.T) {
	tests := []struct {
		input string
		want  float64
		ok    bool
	}{
		{"42", 42, true},
		{"-3.5", -3.5, true},
		{"+7", 7, true},
		{"20x", 20, true},
		{"position 3.4e2", 340, true},
		{"v1.2", 1.2, true},
		{".5", 0.5, true},
		{"", 0, false},
		{"n/a", 0, false},
		{"---", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ExtractLeadingNumber(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}
