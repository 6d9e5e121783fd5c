// Package api exposes the search engine over HTTP to the record-management
// frontend: search, suggestions, index stats, and an administrative reindex
// trigger.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bambooty57/tunershop-search/internal/engine"
	apperr "github.com/bambooty57/tunershop-search/pkg/errors"
	"github.com/bambooty57/tunershop-search/pkg/metrics"
)

// SearchEngine is the engine surface the handlers consume.
type SearchEngine interface {
	Search(ctx context.Context, query string, opts engine.SearchOptions) *engine.SearchResponse
	Suggest(ctx context.Context, query string, limit int) []string
	Stats() engine.Stats
	RebuildIndex(ctx context.Context) error
}

// Handler serves the search API.
type Handler struct {
	engine  SearchEngine
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates a Handler. metrics may be nil.
func New(eng SearchEngine, m *metrics.Metrics) *Handler {
	return &Handler{
		engine:  eng,
		metrics: m,
		logger:  slog.Default().With("component", "search-handler"),
	}
}

// Routes registers the API endpoints on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/suggest", h.Suggest)
	mux.HandleFunc("GET /api/v1/stats", h.Stats)
	mux.HandleFunc("POST /api/v1/reindex", h.Reindex)
}

// Search handles GET /api/v1/search. An empty query is accepted and simply
// finds nothing; only malformed parameters are rejected.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	query := r.URL.Query().Get("q")

	opts, err := parseSearchOptions(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := h.engine.Search(r.Context(), query, opts)

	h.logger.Info("search completed",
		"query", query,
		"total", resp.Total,
		"returned", len(resp.Results),
		"cache_hit", resp.Cached,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	if h.metrics != nil {
		cacheStatus := "miss"
		if resp.Cached {
			cacheStatus = "hit"
		}
		h.metrics.SearchesTotal.WithLabelValues(strategyLabel(opts), cacheStatus).Inc()
		h.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(time.Since(start).Seconds())
		h.metrics.SearchResultsCount.Observe(float64(len(resp.Results)))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// Suggest handles GET /api/v1/suggest.
func (h *Handler) Suggest(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	suggestions := h.engine.Suggest(r.Context(), query, limit)
	if h.metrics != nil {
		h.metrics.SuggestsTotal.Inc()
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"query":       query,
		"suggestions": suggestions,
	})
}

// Stats handles GET /api/v1/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats := h.engine.Stats()
	if h.metrics != nil {
		h.metrics.ObserveIndex(stats.TotalDocuments, stats.TotalKeywords, stats.TotalNGrams, stats.IndexSizeBytes)
	}
	h.writeJSON(w, http.StatusOK, stats)
}

// Reindex handles POST /api/v1/reindex, the administrative full rebuild.
func (h *Handler) Reindex(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	err := h.engine.RebuildIndex(r.Context())
	if h.metrics != nil {
		status := "success"
		if err != nil {
			status = "failure"
		}
		h.metrics.RebuildsTotal.WithLabelValues(status).Inc()
		h.metrics.RebuildDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		h.logger.Error("index rebuild failed", "error", err)
		h.writeError(w, apperr.HTTPStatusCode(err), "index rebuild failed")
		return
	}
	stats := h.engine.Stats()
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "rebuilt",
		"documents": stats.TotalDocuments,
		"took_ms":   time.Since(start).Milliseconds(),
	})
}

func parseSearchOptions(r *http.Request) (engine.SearchOptions, error) {
	q := r.URL.Query()
	opts := engine.DefaultSearchOptions()

	if v := q.Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			return opts, errBadParam("limit must be a positive integer")
		}
		opts.Limit = parsed
	}
	if v := q.Get("offset"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			return opts, errBadParam("offset must be a non-negative integer")
		}
		opts.Offset = parsed
	}
	if v := q.Get("fields"); v != "" {
		for _, f := range strings.Split(v, ",") {
			if f = strings.TrimSpace(f); f != "" {
				opts.Fields = append(opts.Fields, f)
			}
		}
	}
	if v := q.Get("fuzzy"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errBadParam("fuzzy must be a boolean")
		}
		opts.Fuzzy = parsed
	}
	if v := q.Get("exact"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errBadParam("exact must be a boolean")
		}
		opts.Exact = parsed
	}
	if v := q.Get("from"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			return opts, errBadParam("from must be an RFC3339 timestamp or YYYY-MM-DD date")
		}
		opts.From = t
	}
	if v := q.Get("to"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			return opts, errBadParam("to must be an RFC3339 timestamp or YYYY-MM-DD date")
		}
		// a bare date upper bound means "through the end of that day"
		if len(v) == len("2006-01-02") {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		opts.To = t
	}
	return opts, nil
}

func parseDate(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", v)
}

func strategyLabel(opts engine.SearchOptions) string {
	switch {
	case opts.Exact:
		return "exact"
	case opts.Fuzzy:
		return "fuzzy"
	default:
		return "keyword"
	}
}

type paramError string

func (e paramError) Error() string { return string(e) }

func errBadParam(msg string) error { return paramError(msg) }

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encoding response failed", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
