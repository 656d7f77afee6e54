// Package server implements the HTTP server that exposes the retrieval
// engine via a REST API: context queries, document ingestion, corpus
// statistics, health/readiness probes, and Prometheus metrics.
// The server is started by the `netdocs serve` CLI command.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/netopslabs/netdocs/internal/logging"
	"github.com/netopslabs/netdocs/internal/retriever"
	"github.com/netopslabs/netdocs/internal/vectorstore"
)

// New constructs a Server from the provided retriever and config.
func New(r *retriever.Retriever, cfg *Config) (*Server, error) {
	if r == nil {
		return nil, fmt.Errorf("server: retriever must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = time.Minute
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = defaultRateLimit
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = defaultRateBurst
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.New()
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}

	s := &Server{
		retriever: r,
		cfg:       cfg,
		log:       cfg.Logger,
		metrics:   newServerMetrics(cfg.Registry),
		pingers:   cfg.Pingers,
	}

	rl, stopRL := newRateLimiter(cfg.RateLimit, cfg.RateBurst, cfg.Logger)
	s.stopRL = stopRL

	if cfg.APIKey == "" {
		cfg.Logger.Warn("server: API key not configured, authentication disabled")
	}

	// protected wraps a handler with auth and rate limiting; every route
	// gets request logging and per-handler metrics.
	protected := func(name string, h http.HandlerFunc) http.Handler {
		return s.instrument(name, authMiddleware(cfg.APIKey, rl.middleware(h)))
	}

	mux := http.NewServeMux()
	mux.Handle("POST /api/query", protected("query", s.handleQuery))
	mux.Handle("POST /api/documents", protected("documents", s.handleAddDocument))
	mux.Handle("GET /api/stats", protected("stats", s.handleStats))
	mux.Handle("GET /api/health", s.instrument("health", http.HandlerFunc(s.handleHealth)))
	mux.Handle("GET /api/ready", s.instrument("ready", http.HandlerFunc(s.handleReady)))
	mux.Handle("GET /metrics", promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{}))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      requestLogger(cfg.Logger, mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s, nil
}

// Start begins listening and serving HTTP requests. It blocks until the
// context is cancelled, then performs a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	defer s.stopRL()

	s.probeDependencies(ctx)

	errCh := make(chan error, 1)

	go func() {
		s.log.Info("server: listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: listen error: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: graceful shutdown failed: %w", err)
		}
		return nil
	}
}

// probeDependencies runs one combined dependency probe so a degraded
// environment is visible in the logs at startup, not only once /api/ready
// is polled. The server starts regardless of the outcome.
func (s *Server) probeDependencies(ctx context.Context) {
	if len(s.pingers) == 0 {
		return
	}
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	if err := NewMultiPinger(s.pingers...).Ping(probeCtx); err != nil {
		s.log.Warn("server: dependency not ready at startup", "error", err)
	}
}

// instrument wraps h to record request counts and latency for the named
// handler.
func (s *Server) instrument(name string, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		h.ServeHTTP(rw, r)
		elapsed := time.Since(start)

		s.metrics.httpRequestsTotal.WithLabelValues(r.Method, name, strconv.Itoa(rw.status)).Inc()
		s.metrics.httpDurationSeconds.WithLabelValues(r.Method, name).Observe(elapsed.Seconds())
	})
}

// handleQuery handles POST /api/query: it retrieves context for the query
// and returns the formatted block.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		http.Error(w, "query is required", http.StatusBadRequest)
		return
	}

	start := time.Now()
	contextBlock, err := s.retriever.Retrieve(r.Context(), req.Query, req.MaxResults)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	s.metrics.queryRequestsTotal.WithLabelValues(outcome).Inc()
	s.metrics.queryDurationSeconds.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	if err != nil {
		log.Error("query failed", "error", err)
		http.Error(w, "retrieval failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, log, queryResponse{
		Query:       req.Query,
		Context:     contextBlock,
		Initialized: s.retriever.IsInitialized(),
	})
}

// handleAddDocument handles POST /api/documents: it chunks and indexes one
// document.
func (s *Server) handleAddDocument(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var req documentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Content == "" {
		http.Error(w, "content is required", http.StatusBadRequest)
		return
	}

	meta := vectorstore.Metadata{
		Title:  req.Title,
		Source: req.Source,
		Extra:  req.Metadata,
	}
	if err := s.retriever.AddDocument(r.Context(), req.Content, meta); err != nil {
		log.Error("add document failed", "error", err)
		http.Error(w, "indexing failed", http.StatusInternalServerError)
		return
	}
	s.metrics.documentsAddedTotal.Inc()

	resp := documentResponse{DocumentCount: s.retriever.Stats(r.Context()).DocumentCount}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Error("response encode error", "error", err)
	}
}

// handleStats handles GET /api/stats with the retriever's statistics.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, logging.FromContext(r.Context()), s.retriever.Stats(r.Context()))
}

// handleHealth handles GET /api/health for liveness checks.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, logging.FromContext(r.Context()), map[string]string{"status": "ok"})
}

// writeJSON encodes v as the JSON response body.
func writeJSON(w http.ResponseWriter, log *slog.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("response encode error", "error", err)
	}
}
