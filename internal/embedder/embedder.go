// Package embedder converts text into fixed-dimension vector embeddings.
//
// A Provider selects the best available backend once at construction time:
// a remote semantic model (Ollama or OpenAI, reached via plain HTTP — no SDK
// dependency) when one is reachable, a local TF-IDF vectorizer otherwise,
// and a deterministic heuristic encoder as the final fallback that can never
// fail to initialise. Callers always get a usable Provider; quality degrades,
// availability does not.
package embedder

import "context"

// Dimension is the store-wide embedding width. Every vector leaving this
// package has exactly Dimension components; backends producing a different
// width are zero-padded or truncated before the caller sees them.
const Dimension = 384

// Backend converts a batch of texts into their embeddings. The returned
// slice is parallel to the input. Implementations must be safe to call from
// multiple goroutines unless noted otherwise.
type Backend interface {
	// Embed converts a batch of texts into their corresponding embeddings.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Name returns the short backend label (e.g. "ollama", "tfidf").
	Name() string

	// Model returns the underlying model identifier for diagnostics.
	Model() string
}

// ProviderInfo describes the active embedding backend. It is read-only
// diagnostic state, exposed through stats endpoints and never persisted as
// authoritative data.
type ProviderInfo struct {
	// Provider is the active backend name.
	Provider string `json:"provider"`
	// Model is the underlying model identifier.
	Model string `json:"model"`
	// Dimension is the vector width produced by the provider.
	Dimension int `json:"dimension"`
	// Description is a human-readable summary of the backend's quality tier.
	Description string `json:"description"`
}

// fitWidth returns v adjusted to exactly Dimension components: longer
// vectors are truncated, shorter ones zero-padded. The input slice is
// reused when it already has capacity.
func fitWidth(v []float32) []float32 {
	switch {
	case len(v) == Dimension:
		return v
	case len(v) > Dimension:
		return v[:Dimension]
	default:
		out := make([]float32, Dimension)
		copy(out, v)
		return out
	}
}
