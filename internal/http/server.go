package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"spendtrack/internal/cache"
	"spendtrack/internal/ledger"
	"spendtrack/internal/log"
)

type appMetrics struct {
	startedAt           time.Time
	totalRequests       int64
	transactionsCreated int64
	cacheHits           int64
	cacheMisses         int64
}

// Server exposes the ledger over a JSON API.
type Server struct {
	http.Server
	ledger      *ledger.Service
	rateLimiter *rateLimiter

	// Summary responses are cached and flushed on every write.
	summaryCache *cache.LRUCache[[]byte]
	cacheManager *cache.Manager

	metrics      appMetrics
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, svc *ledger.Service) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		ledger:       svc,
		rateLimiter:  newRateLimiter(),
		summaryCache: cache.NewLRUCache[[]byte](200, 5*time.Minute),
		cacheManager: cache.NewManager(),
		metrics:      appMetrics{startedAt: time.Now()},
	}

	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)

	mux.HandleFunc("/api/status", s.withMiddleware(s.handleStatus))
	mux.HandleFunc("/api/categories", s.withMiddleware(s.handleCategories))
	mux.HandleFunc("/api/categories/", s.withMiddleware(s.handleCategoryByID))
	mux.HandleFunc("/api/transactions", s.withMiddleware(s.handleTransactions))
	mux.HandleFunc("/api/transactions/", s.withMiddleware(s.handleTransactionByID))
	mux.HandleFunc("/api/summary/date", s.withMiddleware(s.handleSummaryDate))
	mux.HandleFunc("/api/summary/month", s.withMiddleware(s.handleSummaryMonth))
	mux.HandleFunc("/api/summary/category", s.withMiddleware(s.handleSummaryCategory))
	mux.HandleFunc("/api/summary/type", s.withMiddleware(s.handleSummaryKind))
	mux.HandleFunc("/api/summary/balance", s.withMiddleware(s.handleSummaryBalance))

	return s
}

// withMiddleware adds security headers, rate limiting on writes, and
// request logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		atomic.AddInt64(&s.metrics.totalRequests, 1)

		ip := clientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldClientIP, ip,
			log.FieldUserAgent, r.Header.Get("User-Agent"))

		if isWrite(r.Method) && !s.rateLimiter.allow(ip) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				log.FieldComponent, log.ComponentRateLimit,
				log.FieldClientIP, ip,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rw.statusCode,
			log.FieldDuration, time.Since(start).Milliseconds(),
			log.FieldClientIP, ip)
	}
}

type requestIDKey struct{}

func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// flushSummaries drops cached summary responses after a write.
func (s *Server) flushSummaries() {
	s.summaryCache.Flush()
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
