package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/categorize"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

// Server is the JSON API server. It wraps http.Server with rate limiting,
// security headers, and request logging.
type Server struct {
	http.Server
	transactions *services.TransactionService
	store        *storage.Repository
	categorizer  *categorize.Service

	uploadDir      string
	maxUploadBytes int64

	rateLimiter  *rateLimiter
	metrics      *securityMetrics
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, transactions *services.TransactionService, store *storage.Repository, categorizer *categorize.Service, uploadDir string, maxUploadBytes int64) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		transactions:   transactions,
		store:          store,
		categorizer:    categorizer,
		uploadDir:      uploadDir,
		maxUploadBytes: maxUploadBytes,
		rateLimiter:    newRateLimiter(),
		metrics:        &securityMetrics{},
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/transactions", s.secured(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.secured(s.handleCreateTransaction))
	mux.HandleFunc("GET /api/transactions/summary/stats", s.secured(s.handleTransactionStats))
	mux.HandleFunc("GET /api/transactions/{id}", s.secured(s.handleGetTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", s.secured(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.secured(s.handleDeleteTransaction))
	mux.HandleFunc("POST /api/transactions/ocr", s.secured(s.handleReceiptUpload))

	mux.HandleFunc("GET /api/categories", s.secured(s.handleListCategories))

	mux.HandleFunc("POST /api/ai/categorize", s.secured(s.handleCategorize))
	mux.HandleFunc("POST /api/ai/feedback", s.secured(s.handleFeedback))
	mux.HandleFunc("GET /api/ai/insights", s.secured(s.handleInsights))

	mux.HandleFunc("GET /api/budgets", s.secured(s.handleListBudgets))
	mux.HandleFunc("POST /api/budgets", s.secured(s.handleCreateBudget))
	mux.HandleFunc("DELETE /api/budgets/{id}", s.secured(s.handleDeleteBudget))

	mux.HandleFunc("GET /api/goals", s.secured(s.handleListGoals))
	mux.HandleFunc("POST /api/goals", s.secured(s.handleCreateGoal))
	mux.HandleFunc("DELETE /api/goals/{id}", s.secured(s.handleDeleteGoal))

	return s
}

// secured adds security headers, rate limiting, and request logging.
func (s *Server) secured(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP,
			"user_agent", r.Header.Get("User-Agent"))

		if detectSuspiciousRequest(r, s.metrics) {
			slog.WarnContext(ctx, "Suspicious request detected",
				"request_id", requestID,
				"client_ip", clientIP,
				"url", r.URL.String())
		}

		// Rate limit mutating requests only.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP, s.metrics) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.store.ActiveCategories(r.Context()); err != nil {
		slog.ErrorContext(r.Context(), "Readiness check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
