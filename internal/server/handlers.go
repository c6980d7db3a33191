package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/searchlens-labs/searchlens/internal/provider"
	"github.com/searchlens-labs/searchlens/internal/query"
	"github.com/searchlens-labs/searchlens/internal/shape"
)

// queryRequest is the API body: the normalizer's plain-data request plus the
// client-side shaping directives. Sort and filters are applied server-side
// exactly as the CLI applies them locally.
type queryRequest struct {
	query.Request

	Sort           shape.SortSpec        `json:"sort,omitempty"`
	StringFilters  []shape.StringFilter  `json:"stringFilters,omitempty"`
	NumericFilters []shape.NumericFilter `json:"numericFilters,omitempty"`

	// Page selects one 0-based display page; nil returns all rows.
	Page *int `json:"page,omitempty"`
}

type queryResponse struct {
	Fields     []string    `json:"fields"`
	Rows       []shape.Row `json:"rows"`
	RowCount   int         `json:"rowCount"`
	Page       *int        `json:"page,omitempty"`
	TotalPages *int        `json:"totalPages,omitempty"`
}

type errorResponse struct {
	Error    string   `json:"error"`
	Problems []string `json:"problems,omitempty"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error(), nil)
		return
	}

	desc, err := s.normalizer.Normalize(req.Request)
	if err != nil {
		var verrs *query.ValidationErrors
		if errors.As(err, &verrs) {
			writeError(w, http.StatusBadRequest, verrs.Error(), verrs.Problems)
			return
		}
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	// Shaping directives are validated before the fetch so a bad sort spec
	// costs no provider round trip.
	if err := req.Sort.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	rows, err := s.fetcher.Fetch(r.Context(), desc)
	if err != nil {
		s.writeProviderError(w, err)
		return
	}
	if err := shape.ValidateFields(rows, desc.Fields()); err != nil {
		writeError(w, http.StatusBadGateway, err.Error(), nil)
		return
	}

	s.recordHistory(desc, len(rows))

	// Each request gets its own filter state; nothing is shared between
	// requests or with CLI sessions.
	var filters shape.FilterState
	for _, f := range req.StringFilters {
		if err := filters.AddString(f); err != nil {
			writeError(w, http.StatusBadRequest, err.Error(), nil)
			return
		}
	}
	for _, f := range req.NumericFilters {
		if err := filters.AddNumeric(rows, f); err != nil {
			writeError(w, http.StatusBadRequest, err.Error(), nil)
			return
		}
	}

	shaped := filters.Apply(shape.Sort(rows, req.Sort))

	resp := queryResponse{
		Fields:   desc.Fields(),
		Rows:     shaped,
		RowCount: len(shaped),
	}
	if req.Page != nil {
		view := shape.Paginate(shaped, *req.Page)
		resp.Rows = view.Rows
		resp.Page = req.Page
		resp.TotalPages = &view.TotalPages
	}
	if resp.Rows == nil {
		resp.Rows = []shape.Row{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePresets(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.presets.List())
}

func (s *Server) handleSites(w http.ResponseWriter, r *http.Request) {
	if s.sites == nil {
		writeError(w, http.StatusNotFound, "site listing is not configured", nil)
		return
	}
	sites, err := s.sites.ListSites(r.Context())
	if err != nil {
		s.writeProviderError(w, err)
		return
	}
	if sites == nil {
		sites = []provider.Site{}
	}
	writeJSON(w, http.StatusOK, sites)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// recordHistory is best effort; a history write never fails a query.
func (s *Server) recordHistory(desc *query.Descriptor, rowCount int) {
	if s.store == nil {
		return
	}
	descJSON, err := json.Marshal(desc)
	if err != nil {
		return
	}
	if _, err := s.store.RecordQuery(string(descJSON), rowCount); err != nil {
		s.logger.Warn("failed to record query history", "error", err)
	}
}

// writeProviderError maps provider error classes onto HTTP statuses. Anything
// unclassified is the upstream's fault as far as this facade is concerned.
func (s *Server) writeProviderError(w http.ResponseWriter, err error) {
	err = provider.Wrap(err)
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, provider.ErrAccessDenied):
		status = http.StatusForbidden
	case errors.Is(err, provider.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, provider.ErrBadRequest):
		status = http.StatusBadRequest
	}
	s.logger.Error("provider error", "status", status, "error", err)
	writeError(w, status, err.Error(), nil)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, problems []string) {
	writeJSON(w, status, errorResponse{Error: msg, Problems: problems})
}
