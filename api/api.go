// Package api exposes the extraction pipeline over HTTP. Handlers are thin:
// they decode a request, call into the engine or store, and map the error
// taxonomy onto status codes. A selector that matches nothing is a 200 with
// zero matches and suggestions, never an error status.
package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	oppex "github.com/kmezzour/oppex"
	"github.com/kmezzour/oppex/export"
	"github.com/kmezzour/oppex/fetch"
	"github.com/kmezzour/oppex/scraper"
	"github.com/kmezzour/oppex/store"
)

// Server is the HTTP API server.
type Server struct {
	engine *oppex.Engine
	store  *store.Store
}

// NewServer creates a server around an engine and an optional config store.
func NewServer(engine *oppex.Engine, st *store.Store) *Server {
	return &Server{engine: engine, store: st}
}

// ErrorResponse is the error envelope on every non-2xx response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a stable code, a human message and, for selector
// failures, concrete alternatives to try.
type ErrorDetail struct {
	Code        string   `json:"code"`
	Message     string   `json:"message"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// ExtractRequest is the body of POST /api/v1/extract.
type ExtractRequest struct {
	URL     string `json:"url"`
	Deep    bool   `json:"deep,omitempty"`
	MaxJobs int    `json:"max_jobs,omitempty"`
}

// ManualExtractRequest is the body of POST /api/v1/manual-extract.
type ManualExtractRequest struct {
	URL      string `json:"url"`
	Selector string `json:"selector"`
}

// ManualExtractResponse carries the matched texts. Zero matches is a
// success with suggestions, not an error.
type ManualExtractResponse struct {
	Selector    string   `json:"selector"`
	Matches     []string `json:"matches"`
	Count       int      `json:"count"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// FieldsExtractRequest is the body of POST /api/v1/extract-fields.
type FieldsExtractRequest struct {
	URL          string                 `json:"url"`
	Fields       []scraper.FieldMapping `json:"fields"`
	ItemSelector string                 `json:"item_selector,omitempty"`
}

// FieldsExtractResponse is the preview surface for a configured extraction:
// the valid items, how many were hidden, the total before validation and
// the container selector that produced them.
type FieldsExtractResponse struct {
	Items        []oppex.ExtractedItem `json:"items"`
	Total        int                   `json:"total"`
	Hidden       int                   `json:"hidden"`
	UsedSelector string                `json:"used_selector"`
}

// HandleExtract handles POST /api/v1/extract: classify a page and return
// either one record or a listing of partial records.
func (s *Server) HandleExtract(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed", nil)
		return
	}

	var req ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body: "+err.Error(), nil)
		return
	}
	if req.URL == "" {
		s.writeError(w, http.StatusBadRequest, "invalid_request", "url is required", nil)
		return
	}

	if req.Deep {
		result, err := s.engine.ScrapeDeep(r.Context(), req.URL, req.MaxJobs)
		if err != nil {
			s.writeFetchError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, result)
		return
	}

	result, err := s.engine.Scrape(r.Context(), req.URL)
	if err != nil {
		s.writeFetchError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

// HandleManualExtract handles POST /api/v1/manual-extract: one selector,
// one page, all matching texts. The three failure shapes get distinct
// treatment: malformed selector is a 400 with syntax suggestions, a fetch
// failure is a 502, and zero matches is a 200 with alternatives.
func (s *Server) HandleManualExtract(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed", nil)
		return
	}

	var req ManualExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body: "+err.Error(), nil)
		return
	}
	if req.URL == "" || req.Selector == "" {
		s.writeError(w, http.StatusBadRequest, "invalid_request", "url and selector are required", nil)
		return
	}

	matches, err := s.engine.ManualExtract(r.Context(), req.URL, req.Selector)
	if err != nil {
		if oppex.IsSelectorSyntax(err) {
			s.writeError(w, http.StatusBadRequest, "invalid_selector", err.Error(),
				oppex.SyntaxSuggestions(req.Selector))
			return
		}
		s.writeFetchError(w, err)
		return
	}

	resp := ManualExtractResponse{
		Selector: req.Selector,
		Matches:  matches,
		Count:    len(matches),
	}
	if len(matches) == 0 {
		resp.Matches = []string{}
		resp.Suggestions = oppex.NoMatchSuggestions(req.Selector)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// HandleExtractFields handles POST /api/v1/extract-fields: run configured
// field mappings against a page and preview the valid items.
func (s *Server) HandleExtractFields(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed", nil)
		return
	}

	var req FieldsExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body: "+err.Error(), nil)
		return
	}
	if req.URL == "" || len(req.Fields) == 0 {
		s.writeError(w, http.StatusBadRequest, "invalid_request", "url and fields are required", nil)
		return
	}

	session := oppex.NewSession(req.URL, req.Fields)
	session.ItemSelector = req.ItemSelector

	used, err := s.engine.ExtractWithFields(r.Context(), session)
	if err != nil {
		if oppex.IsSelectorSyntax(err) {
			s.writeError(w, http.StatusBadRequest, "invalid_selector", err.Error(), nil)
			return
		}
		s.writeFetchError(w, err)
		return
	}

	valid, hidden := session.ValidItems()
	if valid == nil {
		valid = []oppex.ExtractedItem{}
	}
	s.writeJSON(w, http.StatusOK, FieldsExtractResponse{
		Items:        valid,
		Total:        len(session.Items),
		Hidden:       hidden,
		UsedSelector: used,
	})
}

// HandleExport handles GET /api/v1/export?format=json|csv|rss: saved
// opportunity records in the requested format.
func (s *Server) HandleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed", nil)
		return
	}
	if s.store == nil {
		s.writeError(w, http.StatusServiceUnavailable, "no_store", "No store configured", nil)
		return
	}

	jobs, err := s.store.ListOpportunities(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to list opportunities: "+err.Error(), nil)
		return
	}

	format := export.ParseFormat(r.URL.Query().Get("format"))
	var body []byte
	switch format {
	case export.FormatCSV:
		body = []byte(export.JobsCSV(jobs))
	case export.FormatRSS:
		body = []byte(export.JobsRSS(jobs, export.FeedMeta{
			Title:       "Saved Opportunities",
			Link:        "/api/v1/export",
			Description: "Opportunity records saved from scraped pages",
		}))
	default:
		body, err = export.JobsJSON(jobs, "store")
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to encode export: "+err.Error(), nil)
			return
		}
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// HandleConfigs routes /api/v1/configs and /api/v1/configs/{id}.
func (s *Server) HandleConfigs(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, http.StatusServiceUnavailable, "no_store", "No store configured", nil)
		return
	}

	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/configs"), "/")

	switch {
	case id == "" && r.Method == http.MethodGet:
		configs, err := s.store.ListConfigs()
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, "internal_error", err.Error(), nil)
			return
		}
		if configs == nil {
			configs = []scraper.ScrapeConfig{}
		}
		s.writeJSON(w, http.StatusOK, configs)

	case id == "" && r.Method == http.MethodPost:
		var cfg scraper.ScrapeConfig
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body: "+err.Error(), nil)
			return
		}
		if cfg.Name == "" || cfg.URL == "" {
			s.writeError(w, http.StatusBadRequest, "invalid_request", "name and url are required", nil)
			return
		}
		created := scraper.NewScrapeConfig(cfg.Name, cfg.URL, cfg.Fields)
		created.ItemSelector = cfg.ItemSelector
		if err := s.store.CreateConfig(*created); err != nil {
			s.writeError(w, http.StatusInternalServerError, "internal_error", err.Error(), nil)
			return
		}
		s.writeJSON(w, http.StatusCreated, created)

	case id != "" && r.Method == http.MethodGet:
		cfg, err := s.store.GetConfig(id)
		if err != nil {
			s.writeError(w, http.StatusNotFound, "not_found", err.Error(), nil)
			return
		}
		s.writeJSON(w, http.StatusOK, cfg)

	case id != "" && r.Method == http.MethodDelete:
		if err := s.store.DeleteConfig(id); err != nil {
			s.writeError(w, http.StatusNotFound, "not_found", err.Error(), nil)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed", nil)
	}
}

// writeFetchError maps a fetch failure to 502 and anything else to 500.
func (s *Server) writeFetchError(w http.ResponseWriter, err error) {
	if fetch.IsFailure(err) {
		s.writeError(w, http.StatusBadGateway, "fetch_failed", err.Error(), nil)
		return
	}
	s.writeError(w, http.StatusInternalServerError, "internal_error", err.Error(), nil)
}

func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, statusCode int, code, message string, suggestions []string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error: ErrorDetail{Code: code, Message: message, Suggestions: suggestions},
	})
}

// CORSMiddleware adds permissive CORS headers and answers preflights.
func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/extract", s.HandleExtract)
	mux.HandleFunc("/api/v1/manual-extract", s.HandleManualExtract)
	mux.HandleFunc("/api/v1/extract-fields", s.HandleExtractFields)
	mux.HandleFunc("/api/v1/export", s.HandleExport)
	mux.HandleFunc("/api/v1/configs", s.HandleConfigs)
	mux.HandleFunc("/api/v1/configs/", s.HandleConfigs)
	return CORSMiddleware(mux)
}

// Start serves the API on addr, blocking.
func (s *Server) Start(addr string) error {
	logrus.WithField("addr", addr).Info("starting API server")
	return http.ListenAndServe(addr, s.Handler())
}
