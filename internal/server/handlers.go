package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/tcx-health/scanbar/internal/version"
)

// healthHandler reports service liveness. GET /health.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: version.GetVersion(),
		Time:    nowRFC3339(),
	})
}

// searchHandler proxies free-text product search. GET /products/search?q=...
func (s *Server) searchHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.searcher == nil {
		s.writeError(w, http.StatusServiceUnavailable, "search_disabled",
			"product search is not configured on this server", nil)
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		s.writeError(w, http.StatusBadRequest, "missing_query",
			"provide a search term in the \"q\" parameter", nil)
		return
	}
	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "page_size", 20)

	result, err := s.searcher.Search(r.Context(), query, page, pageSize)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, "search_failed",
			"the product database is temporarily unreachable, try again later", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// historyHandler returns recent scan events. GET /scans, optionally filtered
// by the X-User-ID header.
func (s *Server) historyHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.history == nil {
		s.writeError(w, http.StatusServiceUnavailable, "history_disabled",
			"scan history is not configured on this server", nil)
		return
	}

	limit := queryInt(r, "limit", 0)
	events, err := s.history.Recent(r.Context(), r.Header.Get("X-User-ID"), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "history_failed",
			"failed to load scan history", err)
		return
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Scans: events, Count: len(events)})
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// writeError emits the uniform failure payload. The underlying error goes to
// the log always, and to the client only in debug mode.
func (s *Server) writeError(w http.ResponseWriter, status int, category, hint string, err error) {
	resp := ErrorResponse{
		Success: false,
		Error:   category,
		Details: hint,
	}
	if err != nil {
		slog.Warn("request failed", "category", category, "status", status, "error", err)
		if s.debug {
			resp.Debug = err.Error()
		}
	}
	writeJSON(w, status, resp)
}
