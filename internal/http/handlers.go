package http

import (
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// handleHealth is a liveness probe. It answers without touching the store.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "healthy",
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
		"uptime_seconds": int64(time.Since(s.metrics.startedAt).Seconds()),
	})
}

// handleReady is a readiness probe. It verifies the store answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if _, err := s.ledger.Counts(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":             "ready",
		"cache_entries":      s.summaryCache.Size(),
		"rate_limit_clients": s.rateLimiter.ActiveClients(),
	})
}

// handleMetrics exposes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests handled.\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n", atomic.LoadInt64(&s.metrics.totalRequests))

	fmt.Fprintf(w, "# HELP transactions_created_total Total number of transactions created.\n")
	fmt.Fprintf(w, "# TYPE transactions_created_total counter\n")
	fmt.Fprintf(w, "transactions_created_total %d\n", atomic.LoadInt64(&s.metrics.transactionsCreated))

	fmt.Fprintf(w, "# HELP summary_cache_hits_total Summary requests served from cache.\n")
	fmt.Fprintf(w, "# TYPE summary_cache_hits_total counter\n")
	fmt.Fprintf(w, "summary_cache_hits_total %d\n", atomic.LoadInt64(&s.metrics.cacheHits))

	fmt.Fprintf(w, "# HELP summary_cache_misses_total Summary requests computed from the store.\n")
	fmt.Fprintf(w, "# TYPE summary_cache_misses_total counter\n")
	fmt.Fprintf(w, "summary_cache_misses_total %d\n", atomic.LoadInt64(&s.metrics.cacheMisses))

	fmt.Fprintf(w, "# HELP summary_cache_entries Current number of cached summary responses.\n")
	fmt.Fprintf(w, "# TYPE summary_cache_entries gauge\n")
	fmt.Fprintf(w, "summary_cache_entries %d\n", s.summaryCache.Size())

	fmt.Fprintf(w, "# HELP rate_limit_rejections_total Requests rejected by the rate limiter.\n")
	fmt.Fprintf(w, "# TYPE rate_limit_rejections_total counter\n")
	fmt.Fprintf(w, "rate_limit_rejections_total %d\n", s.rateLimiter.Hits())

	fmt.Fprintf(w, "# HELP rate_limit_clients Active client entries in the rate limiter.\n")
	fmt.Fprintf(w, "# TYPE rate_limit_clients gauge\n")
	fmt.Fprintf(w, "rate_limit_clients %d\n", s.rateLimiter.ActiveClients())

	fmt.Fprintf(w, "# HELP uptime_seconds Time since the server started.\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %d\n", int64(time.Since(s.metrics.startedAt).Seconds()))
}

// handleStatus reports entity counts, proving the store is reachable.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	counts, err := s.ledger.Counts(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"users":        counts.Users,
		"categories":   counts.Categories,
		"transactions": counts.Transactions,
	})
}
