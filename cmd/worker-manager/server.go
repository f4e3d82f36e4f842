package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"vibe-transmuter/internal/common/errors"
	"vibe-transmuter/internal/history"
)

var errServerClosed = http.ErrServerClosed

// maxPageSize caps limit and size on the history routes.
const maxPageSize = 100

type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

type recentLister interface {
	Recent(ctx context.Context, limit int) ([]*history.Record, error)
}

type specSearcher interface {
	Search(ctx context.Context, query string, size int) ([]history.Document, int64, error)
}

type serverOptions struct {
	Port     int
	Zeebe    healthChecker
	Store    recentLister
	Searcher specSearcher
	Logger   *zap.Logger
}

// newServer serves health, readiness, prometheus metrics and read-only
// history lookups. History routes answer 503 when history is disabled.
func newServer(opts serverOptions) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if opts.Zeebe != nil {
			if err := opts.Zeebe.HealthCheck(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status": "not ready",
					"error":  err.Error(),
				})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ready",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/history/recent", func(w http.ResponseWriter, r *http.Request) {
		if opts.Store == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "history is disabled"})
			return
		}
		limit := pageSize(r, "limit")
		records, err := opts.Store.Recent(r.Context(), limit)
		if err != nil {
			opts.Logger.Error("history lookup failed", zap.Error(err))
			writeError(w, errors.NewStorageFailedError("recent", err))
			return
		}
		if records == nil {
			records = []*history.Record{}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"records": records})
	})

	mux.HandleFunc("/history/search", func(w http.ResponseWriter, r *http.Request) {
		if opts.Searcher == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "spec index is disabled"})
			return
		}
		query := r.URL.Query().Get("q")
		if query == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "q is required"})
			return
		}
		docs, total, err := opts.Searcher.Search(r.Context(), query, pageSize(r, "size"))
		if err != nil {
			opts.Logger.Error("spec search failed", zap.Error(err))
			writeError(w, errors.NewIndexFailedError(err))
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"total": total, "results": docs})
	})

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// pageSize reads a page size query parameter. Missing or invalid values
// yield 0, which the backends replace with their own default.
func pageSize(r *http.Request, name string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || n < 0 {
		return 0
	}
	if n > maxPageSize {
		return maxPageSize
	}
	return n
}

func writeError(w http.ResponseWriter, stdErr *errors.StandardError) {
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"code":  string(stdErr.Code),
		"error": stdErr.Message,
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
