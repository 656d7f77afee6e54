// Package retriever turns the vector store into query-time context. It
// owns corpus initialization (built-in docs, remote pages, local files),
// single-document ingestion, and the formatting of search hits into the
// labelled context block handed to callers.
package retriever

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/netopslabs/netdocs/internal/chunk"
	"github.com/netopslabs/netdocs/internal/vectorstore"
)

// Defaults applied by New when the corresponding Config field is zero.
const (
	DefaultMaxResults     = 5
	DefaultScoreThreshold = 0.1
	defaultHTTPTimeout    = 30 * time.Second
	defaultUserAgent      = "netdocs/1.0 (documentation ingestion)"
)

// Config holds retrieval and ingestion settings.
type Config struct {
	// Enabled gates retrieval; when false Retrieve always returns an
	// empty context.
	Enabled bool

	// ChunkSize is the maximum chunk length in bytes. Defaults to
	// chunk.DefaultSize.
	ChunkSize int

	// ChunkOverlap is the byte overlap between consecutive chunks.
	// Defaults to chunk.DefaultOverlap.
	ChunkOverlap int

	// MaxResults caps the number of chunks per retrieval.
	MaxResults int

	// ScoreThreshold is the minimum cosine similarity for a chunk to be
	// included in the context.
	ScoreThreshold float32

	// DocURLs lists remote documentation pages to fetch during
	// initialization. Fetch failures are logged, not fatal.
	DocURLs []string

	// DocsDir optionally points at a local directory of .txt/.md/.rst
	// files to index during initialization.
	DocsDir string

	// HTTPTimeout bounds each remote fetch. Defaults to 30s.
	HTTPTimeout time.Duration

	// UserAgent is sent with remote fetches.
	UserAgent string
}

// Retriever answers context queries against a vector store corpus.
type Retriever struct {
	store       vectorstore.Store
	cfg         *Config
	log         *slog.Logger
	httpClient  *http.Client
	initialized atomic.Bool
}

// New builds a Retriever over store. The retriever considers itself
// initialized when the store already holds documents from a previous run.
func New(store vectorstore.Store, cfg *Config, log *slog.Logger) (*Retriever, error) {
	if store == nil {
		return nil, fmt.Errorf("retriever: store must not be nil")
	}
	if cfg == nil {
		cfg = &Config{Enabled: true}
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = chunk.DefaultSize
	}
	if cfg.ChunkOverlap <= 0 {
		cfg.ChunkOverlap = chunk.DefaultOverlap
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultMaxResults
	}
	if cfg.ScoreThreshold == 0 {
		cfg.ScoreThreshold = DefaultScoreThreshold
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = defaultHTTPTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if log == nil {
		log = slog.Default()
	}

	r := &Retriever{
		store:      store,
		cfg:        cfg,
		log:        log,
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
	}
	r.initialized.Store(store.Count(context.Background()) > 0)
	if !r.initialized.Load() {
		log.Info("retriever: corpus is empty, run initialization to index documentation")
	}
	return r, nil
}

// IsInitialized reports whether the corpus holds any documents.
func (r *Retriever) IsInitialized() bool {
	return r.initialized.Load()
}

// Retrieve returns a formatted context block for query: up to k chunks
// (cfg.MaxResults when k <= 0), each prefixed with its bracketed source
// label, joined by blank lines. Retrieval being disabled, an uninitialized
// corpus, or no hit above the score threshold all yield an empty string.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) (string, error) {
	if !r.cfg.Enabled {
		return "", nil
	}
	if !r.initialized.Load() {
		r.log.Warn("retriever: corpus not initialized, no context available")
		return "", nil
	}
	if k <= 0 {
		k = r.cfg.MaxResults
	}

	results, err := r.store.Search(ctx, query, k, r.cfg.ScoreThreshold)
	if err != nil {
		return "", fmt.Errorf("retriever: search: %w", err)
	}
	if len(results) == 0 {
		return "", nil
	}

	parts := make([]string, 0, len(results))
	for _, res := range results {
		if label := res.Metadata.Label(); label != "" {
			parts = append(parts, fmt.Sprintf("[%s] %s", label, res.Content))
			continue
		}
		parts = append(parts, res.Content)
	}
	return strings.Join(parts, "\n\n"), nil
}

// InitializeDocuments populates the corpus: the built-in documentation
// set always, plus any configured remote pages and local directory.
// Remote and local source failures degrade to a warning so the built-in
// set still lands.
func (r *Retriever) InitializeDocuments(ctx context.Context) error {
	r.log.Info("retriever: initializing documentation corpus")

	docs := r.chunkSampleDocs()

	for _, url := range r.cfg.DocURLs {
		fetched, err := r.fetchURL(ctx, url)
		if err != nil {
			r.log.Warn("retriever: failed to fetch documentation",
				slog.String("url", url), slog.Any("error", err))
			continue
		}
		docs = append(docs, fetched...)
	}

	if r.cfg.DocsDir != "" {
		local, err := r.loadDirectory(r.cfg.DocsDir)
		if err != nil {
			r.log.Warn("retriever: failed to load local documentation",
				slog.String("dir", r.cfg.DocsDir), slog.Any("error", err))
		}
		docs = append(docs, local...)
	}

	if len(docs) == 0 {
		r.log.Warn("retriever: no documentation found to index")
		return nil
	}

	if err := r.store.AddDocuments(ctx, docs, vectorstore.DefaultBatchSize); err != nil {
		return fmt.Errorf("retriever: index documentation: %w", err)
	}
	r.initialized.Store(true)
	r.log.Info("retriever: corpus initialized", slog.Int("chunks", len(docs)))
	return nil
}

// AddDocument chunks content and appends it to the corpus under meta.
// Chunk index fields in meta are overwritten per chunk.
func (r *Retriever) AddDocument(ctx context.Context, content string, meta vectorstore.Metadata) error {
	docs := r.chunkDocument(content, meta)
	if len(docs) == 0 {
		return nil
	}
	if err := r.store.AddDocuments(ctx, docs, vectorstore.DefaultBatchSize); err != nil {
		return fmt.Errorf("retriever: add document: %w", err)
	}
	if r.store.Count(ctx) > 0 {
		r.initialized.Store(true)
	}
	return nil
}

// Stats summarises the retriever and its store for diagnostics.
type Stats struct {
	vectorstore.Stats
	IsInitialized  bool    `json:"is_initialized"`
	MaxResults     int     `json:"max_results"`
	ScoreThreshold float32 `json:"score_threshold"`
	ChunkSize      int     `json:"chunk_size"`
	ChunkOverlap   int     `json:"chunk_overlap"`
}

// Stats returns retrieval statistics including the underlying store's.
func (r *Retriever) Stats(ctx context.Context) Stats {
	return Stats{
		Stats:          r.store.Stats(ctx),
		IsInitialized:  r.initialized.Load(),
		MaxResults:     r.cfg.MaxResults,
		ScoreThreshold: r.cfg.ScoreThreshold,
		ChunkSize:      r.cfg.ChunkSize,
		ChunkOverlap:   r.cfg.ChunkOverlap,
	}
}

// chunkDocument splits content and stamps per-chunk index metadata.
func (r *Retriever) chunkDocument(content string, meta vectorstore.Metadata) []vectorstore.Document {
	chunks := chunk.Split(content, r.cfg.ChunkSize, r.cfg.ChunkOverlap)
	docs := make([]vectorstore.Document, 0, len(chunks))
	for i, c := range chunks {
		m := meta
		m.ChunkID = i
		m.TotalChunks = len(chunks)
		docs = append(docs, vectorstore.Document{Content: c, Metadata: m})
	}
	return docs
}
