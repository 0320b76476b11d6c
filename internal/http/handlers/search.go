// Package handlers implements the HTTP endpoints of the search API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/swyang-dev/opskb/internal/observability/metrics"
	"github.com/swyang-dev/opskb/internal/search"
	"github.com/swyang-dev/opskb/pkg/logging"
)

// Searcher is the slice of the search service the handler needs.
type Searcher interface {
	Search(ctx context.Context, query string) (*search.Result, error)
}

type SearchHandler struct {
	svc     Searcher
	logger  *slog.Logger
	metrics *metrics.PipelineMetrics
}

func NewSearchHandler(svc Searcher, logger *slog.Logger, m *metrics.PipelineMetrics) *SearchHandler {
	if svc == nil {
		panic("handlers: nil search service")
	}
	if logger == nil {
		logger = logging.Default().Logger
	}
	return &SearchHandler{svc: svc, logger: logger, metrics: m}
}

type searchRequest struct {
	Query string `json:"query"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Search handles POST /api/search.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.svc.Search(r.Context(), req.Query)
	if err != nil {
		if errors.Is(err, search.ErrEmptyQuery) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "query is required"})
			return
		}
		h.logger.Error("search failed", "error", err)
		h.metrics.ObserveSearch("error")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "search failed"})
		return
	}

	if result.Found {
		h.metrics.ObserveSearch("found")
	} else {
		h.metrics.ObserveSearch("no_results")
	}
	writeJSON(w, http.StatusOK, result)
}

// Healthz handles GET /healthz.
func (h *SearchHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
