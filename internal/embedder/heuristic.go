package embedder

import (
	"context"
	"hash/fnv"
	"strings"
)

// heuristicKeywords is the fixed set of domain keywords counted into the
// leading feature dimensions. Occurrence counts of these terms give the
// fallback encoder a minimal notion of topical relevance for network
// infrastructure documentation.
var heuristicKeywords = []string{"network", "device", "circuit", "ip", "api"}

// hashFeatureLimit is the number of leading tokens hashed into the
// remaining dimensions of a heuristic embedding.
const hashFeatureLimit = 50

// Heuristic is the final-fallback embedding backend. It derives a vector
// purely from surface features of the text: token counts, distinct-token
// count, mean token length, domain keyword occurrences, and an FNV-hash
// pseudo-embedding of the leading tokens. It has no external dependencies,
// can never fail, and is exactly reproducible for identical input.
type Heuristic struct{}

// NewHeuristic constructs the heuristic backend.
func NewHeuristic() *Heuristic { return &Heuristic{} }

// Name returns the backend label.
func (h *Heuristic) Name() string { return "heuristic" }

// Model returns the model identifier for diagnostics.
func (h *Heuristic) Model() string { return "surface-features-v1" }

// Embed computes one deterministic feature vector per input text.
// It never returns an error.
func (h *Heuristic) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = h.encode(text)
	}
	return out, nil
}

// encode builds the feature vector for a single text.
//
// Layout: [0] token count, [1] distinct token count, [2] mean token length,
// [3..3+len(keywords)) keyword occurrence counts, then one hash feature per
// leading token in the remaining dimensions.
func (h *Heuristic) encode(text string) []float32 {
	vec := make([]float32, Dimension)

	lower := strings.ToLower(text)
	words := strings.Fields(lower)
	if len(words) == 0 {
		return vec
	}

	distinct := make(map[string]struct{}, len(words))
	var totalLen int
	for _, w := range words {
		distinct[w] = struct{}{}
		totalLen += len(w)
	}

	vec[0] = float32(len(words))
	vec[1] = float32(len(distinct))
	vec[2] = float32(totalLen) / float32(len(words))

	for k, kw := range heuristicKeywords {
		vec[3+k] = float32(strings.Count(lower, kw))
	}

	base := 3 + len(heuristicKeywords)
	for i, w := range words {
		if i >= hashFeatureLimit || base+i >= Dimension {
			break
		}
		vec[base+i] = hashFeature(w)
	}

	return vec
}

// hashFeature maps a token to a stable pseudo-embedding value in [0, 1).
// FNV-1a is used instead of a runtime-seeded hash so the value is identical
// across processes and runs.
func hashFeature(word string) float32 {
	h := fnv.New32a()
	h.Write([]byte(word))
	return float32(h.Sum32()%1000) / 1000.0
}
