package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/netopslabs/netdocs/internal/retriever"
	"github.com/netopslabs/netdocs/internal/vectorstore"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1).
	Host string
	// Port is the TCP port to listen on (default: 8080).
	Port int
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// Logger is the structured logger used by the server and its handlers.
	// If nil, [logging.New] is used.
	Logger *slog.Logger
	// Pingers is the ordered list of dependency probes run by GET /api/ready.
	// If empty, /api/ready returns 200 with no checks (liveness-only mode).
	Pingers []Pinger
	// RateLimit is the sustained request rate allowed per IP on rate-limited
	// endpoints (requests/second). Defaults to 5 if zero.
	RateLimit float64
	// RateBurst is the maximum instantaneous burst per IP. Defaults to 10 if zero.
	RateBurst int
	// APIKey is the Bearer token required on all protected /api/* routes.
	// If empty, authentication is disabled (development mode).
	APIKey string
	// Registry receives the server's Prometheus metrics and backs GET /metrics.
	// If nil a private registry is created, which keeps unit tests hermetic.
	Registry *prometheus.Registry
}

// contextProvider is the interface the query and document handlers call.
// *retriever.Retriever satisfies it; tests inject a fake.
type contextProvider interface {
	Retrieve(ctx context.Context, query string, k int) (string, error)
	AddDocument(ctx context.Context, content string, meta vectorstore.Metadata) error
	Stats(ctx context.Context) retriever.Stats
	IsInitialized() bool
}

// Server exposes the retriever over a REST API.
type Server struct {
	// retriever answers context queries; set to the real retriever in
	// production, overridden by a fake in tests.
	retriever contextProvider
	// cfg holds the resolved server configuration.
	cfg *Config
	// httpServer is the underlying net/http server.
	httpServer *http.Server
	// log is the structured logger for this server instance.
	log *slog.Logger
	// metrics holds the Prometheus instruments registered for this instance.
	metrics *serverMetrics
	// pingers is the ordered list of dependency probes for GET /api/ready.
	pingers []Pinger
	// stopRL stops the rate limiter's background eviction goroutine on shutdown.
	stopRL func()
}

// queryRequest is the JSON body for POST /api/query.
type queryRequest struct {
	// Query is the natural language question to retrieve context for.
	Query string `json:"query"`
	// MaxResults optionally caps the number of context chunks returned.
	MaxResults int `json:"max_results,omitempty"`
}

// queryResponse is the JSON response for POST /api/query.
type queryResponse struct {
	// Query echoes the question that was asked.
	Query string `json:"query"`
	// Context is the formatted retrieval context, empty when nothing matched.
	Context string `json:"context"`
	// Initialized reports whether the corpus holds any documents.
	Initialized bool `json:"initialized"`
}

// documentRequest is the JSON body for POST /api/documents.
type documentRequest struct {
	// Content is the raw document text to chunk and index.
	Content string `json:"content"`
	// Title is the human-readable document title.
	Title string `json:"title,omitempty"`
	// Source identifies where the document came from.
	Source string `json:"source,omitempty"`
	// Metadata holds additional key/value pairs stored with each chunk.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// documentResponse is the JSON response for POST /api/documents.
type documentResponse struct {
	// DocumentCount is the corpus size after the insert.
	DocumentCount int `json:"document_count"`
}
