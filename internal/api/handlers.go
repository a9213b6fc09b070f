package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/msrch/mailindex/internal/engine"
)

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// SearchResponse wraps search results with the query that produced
// them.
type SearchResponse struct {
	Query   string          `json:"query"`
	Total   int             `json:"total"`
	Results []engine.Result `json:"results"`
}

// SuggestResponse carries autocomplete suggestions.
type SuggestResponse struct {
	Prefix      string   `json:"prefix"`
	Suggestions []string `json:"suggestions"`
}

// UpsertResponse is returned for single and bulk indexing calls.
type UpsertResponse struct {
	Indexed int      `json:"indexed"`
	IDs     []string `json:"ids,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err string, message string) {
	writeJSON(w, status, ErrorResponse{Error: err, Message: message})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSearch serves GET /search?q=&limit=&fuzzy=&sort=.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")

	opts := engine.DefaultOptions()
	opts.Limit = s.cfg.Index.DefaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			opts.Limit = n
		}
	}
	if v := r.URL.Query().Get("fuzzy"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			opts.Fuzzy = b
		}
	}
	if r.URL.Query().Get("sort") == string(engine.SortByDate) {
		opts.SortBy = engine.SortByDate
	}

	results := s.idx.Search(q, opts)
	if results == nil {
		results = []engine.Result{}
	}

	writeJSON(w, http.StatusOK, SearchResponse{
		Query:   q,
		Total:   len(results),
		Results: results,
	})
}

// handleSuggest serves GET /suggest?prefix=&limit=.
func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	suggestions := s.idx.Suggest(prefix, limit)
	if suggestions == nil {
		suggestions = []string{}
	}

	writeJSON(w, http.StatusOK, SuggestResponse{Prefix: prefix, Suggestions: suggestions})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.idx.Stats())
}

// handleUpsert indexes a single record from the request body. Records
// posted without an id get one assigned.
func (s *Server) handleUpsert(w http.ResponseWriter, r *http.Request) {
	var in engine.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "Request body must be a JSON email record")
		return
	}

	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	s.idx.Add(in)

	writeJSON(w, http.StatusOK, UpsertResponse{Indexed: 1, IDs: []string{in.ID}})
}

// handleBulkUpsert indexes an array of records.
func (s *Server) handleBulkUpsert(w http.ResponseWriter, r *http.Request) {
	var ins []engine.Input
	if err := json.NewDecoder(r.Body).Decode(&ins); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "Request body must be a JSON array of email records")
		return
	}

	ids := make([]string, 0, len(ins))
	for _, in := range ins {
		if in.ID == "" {
			in.ID = uuid.NewString()
		}
		s.idx.Add(in)
		ids = append(ids, in.ID)
	}

	writeJSON(w, http.StatusOK, UpsertResponse{Indexed: len(ids), IDs: ids})
}

// handleRemove deletes a record by id. Unknown ids still return 204;
// removal is idempotent.
func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing_id", "Email id is required")
		return
	}

	s.idx.Remove(id)
	w.WriteHeader(http.StatusNoContent)
}

// handleExport serves the full snapshot as JSON.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.idx.Export())
}

// handleImport replaces the index contents with the posted records.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var snap engine.Snapshot
	if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "Request body must be a JSON snapshot")
		return
	}

	s.idx.Import(snap.Emails)
	writeJSON(w, http.StatusOK, s.idx.Stats())
}
