// Package handler exposes the file search engine as a JSON HTTP API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/filesearch/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/filesearch/internal/history"
	"github.com/Adithya-Monish-Kumar-K/filesearch/internal/model"
	apperrors "github.com/Adithya-Monish-Kumar-K/filesearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/filesearch/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/filesearch/pkg/middleware"
)

const historyWriteTimeout = 5 * time.Second

type FileEngine interface {
	ScanDirectory(ctx context.Context, root string) ([]string, error)
	GetFileStats(ctx context.Context, paths []string) []model.FileStats
	ReadFile(ctx context.Context, path string) (*model.FileContent, error)
	SearchInFiles(ctx context.Context, paths []string, opts model.SearchOptions) ([]model.SearchResult, error)
}

type EventTracker interface {
	Track(event any)
}

type HistoryStore interface {
	Record(ctx context.Context, e *history.Entry) error
	Recent(ctx context.Context, limit int) ([]history.Entry, error)
}

type ScanRequest struct {
	Root string `json:"root"`
}

type StatsRequest struct {
	Paths []string `json:"paths"`
}

// SearchRequest names the files to search either directly or through a root
// directory to scan first. Paths wins when both are given.
type SearchRequest struct {
	Paths   []string            `json:"paths"`
	Root    string              `json:"root"`
	Options model.SearchOptions `json:"options"`
}

type Handler struct {
	engine  FileEngine
	tracker EventTracker
	history HistoryStore
	logger  *slog.Logger
}

// New builds a Handler. tracker and store may be nil to disable analytics and
// history.
func New(engine FileEngine, tracker EventTracker, store HistoryStore) *Handler {
	return &Handler{
		engine:  engine,
		tracker: tracker,
		history: store,
		logger:  logger.WithComponent("api-handler"),
	}
}

// Register mounts the API routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/scan", h.Scan)
	mux.HandleFunc("POST /api/v1/stats", h.Stats)
	mux.HandleFunc("GET /api/v1/file", h.ReadFile)
	mux.HandleFunc("POST /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/history", h.History)
}

func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	var req ScanRequest
	if !h.decode(w, r, &req) {
		return
	}
	files, err := h.engine.ScanDirectory(ctx, req.Root)
	if err != nil {
		h.fail(w, r, "scan failed", err)
		return
	}
	h.track(analytics.FileEvent{
		Type:      analytics.EventScan,
		Root:      req.Root,
		Files:     len(files),
		LatencyMs: time.Since(start).Milliseconds(),
		Timestamp: time.Now().UTC(),
		RequestID: middleware.GetRequestID(ctx),
	})
	if files == nil {
		files = []string{}
	}
	h.writeJSON(w, http.StatusOK, files)
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	var req StatsRequest
	if !h.decode(w, r, &req) {
		return
	}
	stats := h.engine.GetFileStats(ctx, req.Paths)
	h.track(analytics.FileEvent{
		Type:      analytics.EventStats,
		Files:     len(stats),
		LatencyMs: time.Since(start).Milliseconds(),
		Timestamp: time.Now().UTC(),
		RequestID: middleware.GetRequestID(ctx),
	})
	h.writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) ReadFile(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'path' is required")
		return
	}
	fc, err := h.engine.ReadFile(r.Context(), path)
	if err != nil {
		h.fail(w, r, "read failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, fc)
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	var req SearchRequest
	if !h.decode(w, r, &req) {
		return
	}

	paths := req.Paths
	if len(paths) == 0 {
		if req.Root == "" {
			h.writeError(w, http.StatusBadRequest, "either paths or root is required")
			return
		}
		var err error
		paths, err = h.engine.ScanDirectory(ctx, req.Root)
		if err != nil {
			h.fail(w, r, "scan failed", err)
			return
		}
	}

	results, err := h.engine.SearchInFiles(ctx, paths, req.Options)
	if err != nil {
		h.fail(w, r, "search failed", err)
		return
	}
	if results == nil {
		results = []model.SearchResult{}
	}

	matches := 0
	for _, res := range results {
		matches += len(res.Matches)
	}
	latencyMs := time.Since(start).Milliseconds()
	requestID := middleware.GetRequestID(ctx)

	log.Info("search served",
		"query", req.Options.Query,
		"files", len(paths),
		"matched_files", len(results),
		"matches", matches,
		"latency_ms", latencyMs,
	)

	eventType := analytics.EventSearch
	if matches == 0 {
		eventType = analytics.EventZeroResult
	}
	h.track(analytics.SearchEvent{
		Type:          eventType,
		Query:         req.Options.Query,
		CaseSensitive: req.Options.CaseSensitive,
		WholeWord:     req.Options.WholeWord,
		UseRegex:      req.Options.UseRegex,
		FilesSearched: len(paths),
		FilesMatched:  len(results),
		Matches:       matches,
		LatencyMs:     latencyMs,
		Timestamp:     time.Now().UTC(),
		RequestID:     requestID,
	})
	h.recordHistory(ctx, &history.Entry{
		Options:       req.Options,
		FilesSearched: len(paths),
		FilesMatched:  len(results),
		Matches:       matches,
		LatencyMs:     latencyMs,
		RequestID:     requestID,
	})

	h.writeJSON(w, http.StatusOK, results)
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		h.writeError(w, http.StatusServiceUnavailable, "search history is disabled")
		return
	}
	limit := history.DefaultLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = history.ClampLimit(n)
	}
	entries, err := h.history.Recent(r.Context(), limit)
	if err != nil {
		logger.FromContext(r.Context()).Error("listing history failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "listing history failed")
		return
	}
	h.writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) track(event any) {
	if h.tracker != nil {
		h.tracker.Track(event)
	}
}

// recordHistory writes e in the background so a slow or failing database
// never delays or fails the search response.
func (h *Handler) recordHistory(ctx context.Context, e *history.Entry) {
	if h.history == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(ctx, historyWriteTimeout)
		defer cancel()
		if err := h.history.Record(ctx, e); err != nil {
			logger.FromContext(ctx).Warn("recording search history failed", "error", err)
		}
	}()
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := apperrors.HTTPStatusCode(err)
	log := logger.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error(msg, "error", err, "status_code", status)
	} else {
		log.Info(msg, "error", err, "status_code", status)
	}
	h.writeError(w, status, apperrors.Message(err))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
