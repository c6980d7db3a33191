package shape

// RowsPerPage is the fixed page size for interactive display.
const RowsPerPage = 50

// PageView is one display page derived on demand from a sorted+filtered row
// slice. It is never stored.
type PageView struct {
	Rows        []Row `json:"rows"`
	PageIndex   int   `json:"page"`
	TotalPages  int   `json:"totalPages"`
	RowsPerPage int   `json:"rowsPerPage"`
}

// TotalPages returns ceil(rowCount / RowsPerPage). Zero rows is zero pages.
func TotalPages(rowCount int) int {
	return (rowCount + RowsPerPage - 1) / RowsPerPage
}

// Paginate slices rows into the fixed-size page at pageIndex (0-based).
// An out-of-range index yields an empty page with the correct counts.
func Paginate(rows []Row, pageIndex int) PageView {
	total := TotalPages(len(rows))
	view := PageView{
		PageIndex:   pageIndex,
		TotalPages:  total,
		RowsPerPage: RowsPerPage,
	}
	if pageIndex < 0 || pageIndex >= total {
		view.Rows = []Row{}
		return view
	}
	start := pageIndex * RowsPerPage
	end := start + RowsPerPage
	if end > len(rows) {
		end = len(rows)
	}
	view.Rows = rows[start:end]
	return view
}

// Session drives the interactive viewing state machine over one fetched
// result set:
//
//	Viewing(page) -> advance -> Viewing(page+1)
//	Viewing(page) -> quit    -> done
//	Viewing(page) -> filter/sort change -> Viewing(0), pipeline re-run
//
// Filters and sort are always re-applied from the original rows, so filters
// stay independent of each other and of ordering. The caller owns clearing
// Filters on any terminal transition.
type Session struct {
	original []Row
	shaped   []Row
	page     int

	Spec    SortSpec
	Filters FilterState
}

// NewSession starts a viewing session at page 0 with the given sort applied
// and no filters.
func NewSession(rows []Row, spec SortSpec) *Session {
	s := &Session{original: rows, Spec: spec}
	s.reshape()
	return s
}

func (s *Session) reshape() {
	s.shaped = s.Filters.Apply(Sort(s.original, s.Spec))
	s.page = 0
}

// Page returns the current page view.
func (s *Session) Page() PageView {
	return Paginate(s.shaped, s.page)
}

// Rows returns the full sorted+filtered result, the data underlying every
// output format.
func (s *Session) Rows() []Row {
	return s.shaped
}

// Advance moves to the next page. It returns false when the session is done,
// i.e. the current page was the last one.
func (s *Session) Advance() bool {
	if s.page+1 >= TotalPages(len(s.shaped)) {
		return false
	}
	s.page++
	return true
}

// AddStringFilter adds a filter and re-runs the pipeline from the original
// rows, rewinding to page 0. The filter is kept even if it empties the
// result; the boolean reports whether any rows survived.
func (s *Session) AddStringFilter(f StringFilter) (bool, error) {
	if err := s.Filters.AddString(f); err != nil {
		return false, err
	}
	s.reshape()
	return len(s.shaped) > 0, nil
}

// AddNumericFilter adds a numeric filter with the add-time sample guard run
// against the original rows, then re-runs the pipeline.
func (s *Session) AddNumericFilter(f NumericFilter) (bool, error) {
	if err := s.Filters.AddNumeric(s.original, f); err != nil {
		return false, err
	}
	s.reshape()
	return len(s.shaped) > 0, nil
}

// ClearFilters drops all filters and re-runs the pipeline.
func (s *Session) ClearFilters() {
	s.Filters.Clear()
	s.reshape()
}

// Resort replaces the sort spec and re-runs the pipeline.
func (s *Session) Resort(spec SortSpec) {
	s.Spec = spec
	s.reshape()
}
