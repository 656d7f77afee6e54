package embedder

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"
)

// pingTimeout bounds the reachability probe for remote backends during
// provider construction. Kept short so startup never hangs on a missing
// local Ollama server.
const pingTimeout = 3 * time.Second

// Config selects and parameterises the embedding backend chain.
type Config struct {
	// Provider requests a specific backend: "ollama", "openai", "tfidf",
	// or "heuristic". Empty or "auto" tries the full chain best-first.
	Provider string
	// Model overrides the backend's default model name.
	Model string
	// Endpoint overrides the remote backend's base URL.
	Endpoint string
	// APIKey authenticates remote backends that require one (OpenAI).
	APIKey string
}

// Provider is the embedding backend chain. The active backend is chosen
// once at construction — the first candidate that initialises successfully —
// and never swapped afterwards. Encode never fails: a backend error at call
// time degrades to pseudo-random rows so callers always receive a matrix.
type Provider struct {
	backend Backend
	log     *slog.Logger
}

// NewProvider selects the best available backend for cfg.
//
// Candidate order for "auto": Ollama (accepted only when the server answers
// a reachability probe), OpenAI (accepted only when an API key is
// configured), TF-IDF, heuristic. Requesting a specific provider starts the
// chain at that backend and falls through the remaining local candidates on
// failure. Initialisation failures are logged, never returned: the
// heuristic backend always succeeds, so a Provider is always usable.
func NewProvider(ctx context.Context, cfg *Config, log *slog.Logger) *Provider {
	if cfg == nil {
		cfg = &Config{}
	}
	if log == nil {
		log = slog.Default()
	}

	backend := selectBackend(ctx, cfg, log)
	log.Info("embedder: backend selected",
		slog.String("provider", backend.Name()),
		slog.String("model", backend.Model()),
		slog.Int("dimension", Dimension),
	)

	return &Provider{backend: backend, log: log}
}

// selectBackend walks the candidate chain and returns the first backend
// that initialises.
func selectBackend(ctx context.Context, cfg *Config, log *slog.Logger) Backend {
	requested := cfg.Provider
	if requested == "" {
		requested = "auto"
	}

	if requested == "auto" || requested == "ollama" {
		ollama := NewOllama(&OllamaConfig{Host: cfg.Endpoint, Model: cfg.Model})
		probeCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		err := ollama.Ping(probeCtx)
		cancel()
		if err == nil {
			return ollama
		}
		log.Warn("embedder: ollama unavailable, falling back",
			slog.Any("error", err))
	}

	if requested == "auto" || requested == "openai" {
		openai, err := NewOpenAI(&OpenAIConfig{
			BaseURL: openaiEndpoint(requested, cfg),
			APIKey:  cfg.APIKey,
			Model:   openaiModel(requested, cfg),
		})
		if err == nil {
			return openai
		}
		log.Warn("embedder: openai unavailable, falling back",
			slog.Any("error", err))
	}

	if requested != "heuristic" {
		log.Info("embedder: using local tfidf backend")
		return NewTFIDF()
	}

	log.Warn("embedder: using heuristic backend (degraded quality)")
	return NewHeuristic()
}

// openaiEndpoint returns the endpoint override only when OpenAI was asked
// for explicitly; in auto mode the Endpoint field belongs to Ollama.
func openaiEndpoint(requested string, cfg *Config) string {
	if requested == "openai" {
		return cfg.Endpoint
	}
	return ""
}

// openaiModel mirrors openaiEndpoint for the model override.
func openaiModel(requested string, cfg *Config) string {
	if requested == "openai" {
		return cfg.Model
	}
	return ""
}

// Encode converts texts into an len(texts) x Dimension matrix.
//
// Empty input returns an empty matrix. A backend failure is absorbed: the
// call logs the error and returns independently pseudo-random rows rather
// than propagating, so retrieval degrades instead of breaking. Every row is
// adjusted to exactly Dimension components.
func (p *Provider) Encode(ctx context.Context, texts []string) [][]float32 {
	if len(texts) == 0 {
		return [][]float32{}
	}

	rows, err := p.backend.Embed(ctx, texts)
	if err != nil || len(rows) != len(texts) {
		p.log.Error("embedder: encode failed, returning random embeddings",
			slog.String("provider", p.backend.Name()),
			slog.Int("texts", len(texts)),
			slog.Any("error", err),
		)
		return randomMatrix(len(texts))
	}

	for i := range rows {
		rows[i] = fitWidth(rows[i])
	}
	return rows
}

// Info returns the active backend descriptor for diagnostics.
func (p *Provider) Info() ProviderInfo {
	descriptions := map[string]string{
		"ollama":    "Semantic embeddings from a local Ollama model",
		"openai":    "Semantic embeddings from the OpenAI API",
		"tfidf":     "TF-IDF vectorization with keyword matching",
		"heuristic": "Surface text features (degraded quality)",
	}
	name := p.backend.Name()
	return ProviderInfo{
		Provider:    name,
		Model:       p.backend.Model(),
		Dimension:   Dimension,
		Description: descriptions[name],
	}
}

// Name returns the active backend label. Together with Ping this lets a
// Provider act as a server readiness probe.
func (p *Provider) Name() string { return p.backend.Name() }

// Ping probes the active backend's availability. Local backends are always
// ready; remote ones delegate to their reachability check.
func (p *Provider) Ping(ctx context.Context) error {
	type pinger interface {
		Ping(ctx context.Context) error
	}
	if pb, ok := p.backend.(pinger); ok {
		return pb.Ping(ctx)
	}
	return nil
}

// randomMatrix builds n pseudo-random rows in [0, 1), the last-resort
// degraded output when the active backend fails mid-call.
func randomMatrix(n int) [][]float32 {
	rows := make([][]float32, n)
	for i := range rows {
		row := make([]float32, Dimension)
		for j := range row {
			row[j] = rand.Float32()
		}
		rows[i] = row
	}
	return rows
}
