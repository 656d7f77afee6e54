package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/netopslabs/netdocs/internal/embedder"
	"github.com/netopslabs/netdocs/internal/retriever"
	"github.com/netopslabs/netdocs/internal/vectorstore"
)

// components bundles the wired retrieval stack for a command invocation.
type components struct {
	// provider is the embedding backend chain.
	provider *embedder.Provider
	// store is the vector store backing the corpus.
	store vectorstore.Store
	// retriever answers context queries against store.
	retriever *retriever.Retriever
}

// close releases the store's resources.
func (c *components) close() {
	_ = c.store.Close()
}

// buildComponents wires the embedding provider, vector store, and retriever
// from the environment. The store backend is selected by
// NETDOCS_STORE_BACKEND: "file" (default, local persistence) or "qdrant".
func buildComponents(ctx context.Context, log *slog.Logger) (*components, error) {
	provider := embedder.NewProvider(ctx, &embedder.Config{
		Provider: getEnvOrDefault("EMBEDDING_PROVIDER", "auto"),
		Model:    os.Getenv("EMBEDDING_MODEL"),
		Endpoint: os.Getenv("EMBEDDING_ENDPOINT"),
		APIKey:   getEnvOrDefault("EMBEDDING_API_KEY", os.Getenv("OPENAI_API_KEY")),
	}, log)
	log.Info("embedding provider ready", slog.String("provider", provider.Info().Provider))

	cache := embedder.NewCache(getEnvInt("EMBEDDING_CACHE_SIZE", embedder.DefaultCacheSize))

	var store vectorstore.Store
	switch backend := getEnvOrDefault("NETDOCS_STORE_BACKEND", "file"); backend {
	case "qdrant":
		qs, err := vectorstore.NewQdrantStore(ctx, &vectorstore.QdrantConfig{
			Host:       getEnvOrDefault("QDRANT_HOST", "localhost"),
			Port:       getEnvInt("QDRANT_PORT", 6334),
			Collection: getEnvOrDefault("QDRANT_COLLECTION", "netdocs"),
			APIKey:     os.Getenv("QDRANT_API_KEY"),
			UseTLS:     os.Getenv("QDRANT_TLS") == "true",
		}, provider, cache, log)
		if err != nil {
			return nil, fmt.Errorf("connect to qdrant: %w", err)
		}
		store = qs
	case "file":
		path := os.Getenv("NETDOCS_STORE_PATH")
		if path == "" {
			var err error
			path, err = defaultStorePath()
			if err != nil {
				return nil, fmt.Errorf("resolve store path: %w", err)
			}
		}
		fs, err := vectorstore.NewFileStore(path, provider, cache, log)
		if err != nil {
			return nil, fmt.Errorf("open vector store at %s: %w", path, err)
		}
		store = fs
	default:
		return nil, fmt.Errorf("unknown store backend %q (expected file or qdrant)", backend)
	}

	r, err := retriever.New(store, retrieverConfigFromEnv(), log)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &components{provider: provider, store: store, retriever: r}, nil
}

// retrieverConfigFromEnv assembles the retrieval settings from RETRIEVAL_*
// and NETDOCS_* environment variables; zero values fall back to the
// retriever's defaults.
func retrieverConfigFromEnv() *retriever.Config {
	return &retriever.Config{
		Enabled:        os.Getenv("RETRIEVAL_DISABLED") != "true",
		ChunkSize:      getEnvInt("RETRIEVAL_CHUNK_SIZE", 0),
		ChunkOverlap:   getEnvInt("RETRIEVAL_CHUNK_OVERLAP", 0),
		MaxResults:     getEnvInt("RETRIEVAL_MAX_RESULTS", 0),
		ScoreThreshold: getEnvFloat32("RETRIEVAL_SCORE_THRESHOLD", 0),
		DocURLs:        splitList(os.Getenv("RETRIEVAL_DOC_URLS")),
		DocsDir:        os.Getenv("NETDOCS_DOCS_DIR"),
	}
}

// defaultStorePath returns ~/.netdocs/vectors.
func defaultStorePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".netdocs", "vectors"), nil
}

// splitList splits a comma-separated env value, dropping empty entries.
func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// getEnvOrDefault returns the env value or def when unset.
func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the env value parsed as int, or def when unset/invalid.
func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// getEnvFloat32 returns the env value parsed as float32, or def when
// unset/invalid.
func getEnvFloat32(key string, def float32) float32 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 32); err == nil {
			return float32(f)
		}
	}
	return def
}
