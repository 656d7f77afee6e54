// Package vectorstore owns the retrieval corpus: document chunks, their
// embedding vectors, persistence, and top-k cosine similarity search.
// The default implementation persists to local disk ([FileStore]); an
// optional Qdrant-backed implementation ([QdrantStore]) serves deployments
// that outgrow a single-host corpus. Both resolve embeddings through the
// embedding cache and backend chain on insert.
package vectorstore

import (
	"context"

	"github.com/netopslabs/netdocs/internal/embedder"
)

// DefaultBatchSize is the number of documents embedded per batch during
// insertion when the caller passes a non-positive batch size.
const DefaultBatchSize = 32

// Metadata carries the provenance of a document chunk. The fixed fields
// cover the attributes every chunk has; Extra preserves arbitrary
// caller-supplied key/value pairs without losing type safety on the rest.
type Metadata struct {
	// Title is the human-readable document title, preferred for labels.
	Title string `json:"title,omitempty"`
	// Source identifies where the chunk came from (file path, URL, corpus name).
	Source string `json:"source,omitempty"`
	// ChunkID is the zero-based index of this chunk within its document.
	ChunkID int `json:"chunk_id"`
	// TotalChunks is the number of chunks the source document produced.
	TotalChunks int `json:"total_chunks,omitempty"`
	// Extra holds additional caller-supplied metadata.
	Extra map[string]string `json:"extra,omitempty"`
}

// Label returns the bracketed-source label text for this chunk: the title
// when present, otherwise the source, otherwise empty.
func (m Metadata) Label() string {
	if m.Title != "" {
		return m.Title
	}
	return m.Source
}

// Document is one immutable chunk of the corpus. Identity for caching and
// deduplication purposes is the exact Content text, not ID.
type Document struct {
	// ID optionally identifies the chunk (deterministic hash of provenance).
	ID string `json:"id,omitempty"`
	// Content is the chunk text.
	Content string `json:"content"`
	// Metadata records the chunk's provenance.
	Metadata Metadata `json:"metadata"`
}

// ScoredDocument pairs a document with its similarity score from a search.
type ScoredDocument struct {
	Document
	// Score is the cosine similarity to the query, in [-1, 1].
	Score float32 `json:"score"`
}

// Stats summarises a store's state for diagnostics.
type Stats struct {
	// DocumentCount is the number of chunks in the corpus.
	DocumentCount int `json:"document_count"`
	// Dimension is the embedding width, 0 when the corpus is empty.
	Dimension int `json:"embedding_dimension"`
	// StoragePath is the on-disk location (or remote collection) backing
	// the corpus.
	StoragePath string `json:"storage_path"`
	// Provider describes the active embedding backend.
	Provider embedder.ProviderInfo `json:"embedding_provider"`
}

// Store persists document chunks with their embeddings and answers
// similarity queries. A store instance exclusively owns its backing
// corpus; pointing two instances at the same location is unsupported.
type Store interface {
	// AddDocuments embeds and appends docs in batches of batchSize,
	// then persists. Empty input is a no-op.
	AddDocuments(ctx context.Context, docs []Document, batchSize int) error

	// Search returns up to k documents scoring at least scoreThreshold
	// against query, ordered by descending similarity. An empty corpus
	// yields an empty result, not an error.
	Search(ctx context.Context, query string, k int, scoreThreshold float32) ([]ScoredDocument, error)

	// Clear removes every document, vector, and cached embedding, then
	// persists the empty state.
	Clear(ctx context.Context) error

	// Count returns the number of documents in the corpus.
	Count(ctx context.Context) int

	// Stats returns the store's diagnostic summary.
	Stats(ctx context.Context) Stats

	// Close releases any resources held by the store.
	Close() error
}
