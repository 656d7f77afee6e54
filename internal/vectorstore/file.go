package vectorstore

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/netopslabs/netdocs/internal/embedder"
)

// On-disk artifact names under the storage directory. The three artifacts
// are written together on every mutation; absence of any one on load is
// treated as "no prior corpus".
const (
	documentsFile = "documents.json"
	vectorsFile   = "vectors.bin"
	metadataFile  = "metadata.json"
)

// vectorsMagic identifies the dense vector artifact and its layout version.
var vectorsMagic = [4]byte{'N', 'D', 'V', '1'}

// formatVersion is recorded in the metadata artifact.
const formatVersion = "1.0"

// defaultSearchK is the result count used when Search is called with k <= 0.
const defaultSearchK = 5

// FileStore is the default Store: an exact linear-scan vector store persisted
// to a local directory. Suited to corpora in the thousands-of-chunks range.
//
// One mutex serialises add, search, and clear, so a search always runs
// against a corpus snapshot that cannot change mid-scan. The corpus
// invariant len(docs) == len(vectors) holds after every mutation, with
// docs[i] corresponding to vectors[i].
type FileStore struct {
	mu       sync.Mutex
	path     string
	docs     []Document
	vectors  [][]float32
	provider *embedder.Provider
	cache    *embedder.Cache
	log      *slog.Logger
}

// storeMetadata is the JSON shape of the metadata artifact.
type storeMetadata struct {
	DocumentCount int                   `json:"document_count"`
	Provider      embedder.ProviderInfo `json:"embedding_provider"`
	Version       string                `json:"version"`
}

// NewFileStore opens (or creates) a FileStore rooted at path. Existing
// artifacts are loaded; any load failure is logged and the store starts
// from an empty corpus rather than failing construction.
func NewFileStore(path string, provider *embedder.Provider, cache *embedder.Cache, log *slog.Logger) (*FileStore, error) {
	if provider == nil {
		return nil, fmt.Errorf("vectorstore: provider must not be nil")
	}
	if cache == nil {
		cache = embedder.NewCache(0)
	}
	if log == nil {
		log = slog.Default()
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("vectorstore: create storage dir %s: %w", path, err)
	}

	s := &FileStore{
		path:     path,
		provider: provider,
		cache:    cache,
		log:      log,
	}
	s.load()
	return s, nil
}

// AddDocuments embeds docs in batches and appends them to the corpus.
// Cached embeddings are reused; only uncached chunk texts reach the
// embedding backend, and fresh results are written back to the cache.
// The updated corpus is persisted once at the end; a persist failure is
// logged but does not roll back the in-memory state (at-most-once
// persistence).
func (s *FileStore) AddDocuments(ctx context.Context, docs []Document, batchSize int) error {
	if len(docs) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.Info("vectorstore: adding documents",
		slog.Int("count", len(docs)),
		slog.Int("batch_size", batchSize),
	)

	for start := 0; start < len(docs); start += batchSize {
		end := start + batchSize
		if end > len(docs) {
			end = len(docs)
		}
		batch := docs[start:end]

		vectors := s.embedBatch(ctx, batch)
		s.docs = append(s.docs, batch...)
		s.vectors = append(s.vectors, vectors...)
	}

	s.persist()

	s.log.Info("vectorstore: corpus updated", slog.Int("documents", len(s.docs)))
	return nil
}

// embedBatch resolves one embedding per document, consulting the cache
// first and encoding only the misses. Caller holds s.mu.
func (s *FileStore) embedBatch(ctx context.Context, batch []Document) [][]float32 {
	vectors := make([][]float32, len(batch))

	var uncachedTexts []string
	var uncachedIdx []int
	for i, doc := range batch {
		if vec, ok := s.cache.Get(doc.Content); ok {
			vectors[i] = vec
			continue
		}
		uncachedTexts = append(uncachedTexts, doc.Content)
		uncachedIdx = append(uncachedIdx, i)
	}

	if len(uncachedTexts) > 0 {
		fresh := s.provider.Encode(ctx, uncachedTexts)
		for j, idx := range uncachedIdx {
			vectors[idx] = fresh[j]
			s.cache.Put(batch[idx].Content, fresh[j])
		}
	}

	return vectors
}

// Search embeds query and returns up to k documents with cosine similarity
// of at least scoreThreshold, highest first. An empty corpus returns an
// empty result.
func (s *FileStore) Search(ctx context.Context, query string, k int, scoreThreshold float32) ([]ScoredDocument, error) {
	if k <= 0 {
		k = defaultSearchK
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.docs) == 0 {
		return nil, nil
	}
	// k is caller-supplied; cap it so the result allocation below stays
	// bounded by the corpus size.
	if k > len(s.docs) {
		k = len(s.docs)
	}

	queryVec := s.provider.Encode(ctx, []string{query})[0]
	scores := cosineScores(queryVec, s.vectors)

	// Order indices by descending score; equal scores keep insertion order
	// so results are deterministic.
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	results := make([]ScoredDocument, 0, k)
	for _, idx := range order {
		if len(results) == k {
			break
		}
		if scores[idx] < scoreThreshold {
			// Scores are sorted descending; nothing further qualifies.
			break
		}
		results = append(results, ScoredDocument{Document: s.docs[idx], Score: scores[idx]})
	}

	return results, nil
}

// cosineScores computes the cosine similarity between query and every row.
// Rows (or queries) with zero norm are treated as all-zero after
// normalisation, yielding a score of 0 rather than dividing by zero.
func cosineScores(query []float32, rows [][]float32) []float32 {
	qnorm := norm(query)

	scores := make([]float32, len(rows))
	if qnorm == 0 {
		return scores
	}

	for i, row := range rows {
		rnorm := norm(row)
		if rnorm == 0 {
			continue
		}
		var dot float64
		n := len(row)
		if len(query) < n {
			n = len(query)
		}
		for j := 0; j < n; j++ {
			dot += float64(query[j]) * float64(row[j])
		}
		scores[i] = float32(dot / (qnorm * rnorm))
	}
	return scores
}

// norm returns the Euclidean norm of v.
func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// Clear empties the corpus and the embedding cache, then persists the empty
// state.
func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.docs = nil
	s.vectors = nil
	s.cache.Clear()
	s.persist()

	s.log.Info("vectorstore: cleared")
	return nil
}

// Count returns the number of documents in the corpus.
func (s *FileStore) Count(_ context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}

// Stats returns the store's diagnostic summary. Dimension is 0 for an
// empty corpus.
func (s *FileStore) Stats(_ context.Context) Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	dim := 0
	if len(s.vectors) > 0 {
		dim = len(s.vectors[0])
	}
	return Stats{
		DocumentCount: len(s.docs),
		Dimension:     dim,
		StoragePath:   s.path,
		Provider:      s.provider.Info(),
	}
}

// Close is a no-op for FileStore; artifacts are persisted on every mutation.
func (s *FileStore) Close() error { return nil }

// persist writes the three artifacts. Failures are logged, not returned:
// the in-memory corpus stays authoritative and a later mutation retries the
// write. Caller holds s.mu.
func (s *FileStore) persist() {
	if err := s.saveDocuments(); err != nil {
		s.log.Error("vectorstore: failed to save documents", slog.Any("error", err))
		return
	}
	if err := s.saveVectors(); err != nil {
		s.log.Error("vectorstore: failed to save vectors", slog.Any("error", err))
		return
	}
	if err := s.saveMetadata(); err != nil {
		s.log.Error("vectorstore: failed to save metadata", slog.Any("error", err))
	}
}

// saveDocuments serialises the ordered document list as JSON.
func (s *FileStore) saveDocuments() error {
	data, err := json.MarshalIndent(s.docs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal documents: %w", err)
	}
	return atomicWrite(filepath.Join(s.path, documentsFile), data)
}

// saveVectors serialises the dense vector matrix: a fixed header (magic,
// row count, dimension) followed by little-endian float32 rows.
func (s *FileStore) saveVectors() error {
	dim := 0
	if len(s.vectors) > 0 {
		dim = len(s.vectors[0])
	}

	buf := make([]byte, 0, len(vectorsMagic)+8+len(s.vectors)*dim*4)
	buf = append(buf, vectorsMagic[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(s.vectors)))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(dim))
	for _, row := range s.vectors {
		for _, v := range row {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
		}
	}
	return atomicWrite(filepath.Join(s.path, vectorsFile), buf)
}

// saveMetadata serialises the corpus summary.
func (s *FileStore) saveMetadata() error {
	meta := storeMetadata{
		DocumentCount: len(s.docs),
		Provider:      s.provider.Info(),
		Version:       formatVersion,
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	return atomicWrite(filepath.Join(s.path, metadataFile), data)
}

// atomicWrite writes data to path via a temp file and rename, so a crash
// mid-write never leaves a truncated artifact behind.
func atomicWrite(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename to %s: %w", path, err)
	}
	return nil
}

// load restores the corpus from disk. Missing artifacts mean no prior
// corpus; any other failure is logged and the store starts empty.
func (s *FileStore) load() {
	docs, vectors, err := s.loadArtifacts()
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("vectorstore: failed to load, starting with empty corpus",
				slog.Any("error", err))
		}
		return
	}
	if len(docs) != len(vectors) {
		s.log.Warn("vectorstore: artifact mismatch, starting with empty corpus",
			slog.Int("documents", len(docs)),
			slog.Int("vectors", len(vectors)),
		)
		return
	}

	s.docs = docs
	s.vectors = vectors
	s.log.Info("vectorstore: loaded corpus", slog.Int("documents", len(docs)))
}

// loadArtifacts reads and validates the three artifacts. All must be
// present: a missing one means no prior corpus.
func (s *FileStore) loadArtifacts() ([]Document, [][]float32, error) {
	if _, err := os.Stat(filepath.Join(s.path, metadataFile)); err != nil {
		return nil, nil, err
	}

	docData, err := os.ReadFile(filepath.Join(s.path, documentsFile))
	if err != nil {
		return nil, nil, err
	}
	var docs []Document
	if err := json.Unmarshal(docData, &docs); err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", documentsFile, err)
	}

	vecData, err := os.ReadFile(filepath.Join(s.path, vectorsFile))
	if err != nil {
		return nil, nil, err
	}
	vectors, err := decodeVectors(vecData)
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", vectorsFile, err)
	}

	return docs, vectors, nil
}

// decodeVectors parses the binary vector artifact written by saveVectors.
func decodeVectors(data []byte) ([][]float32, error) {
	header := len(vectorsMagic) + 8
	if len(data) < header {
		return nil, fmt.Errorf("truncated header (%d bytes)", len(data))
	}
	if [4]byte(data[:4]) != vectorsMagic {
		return nil, fmt.Errorf("bad magic %q", data[:4])
	}

	rows := binary.LittleEndian.Uint32(data[4:8])
	dim := binary.LittleEndian.Uint32(data[8:12])
	want := header + int(rows)*int(dim)*4
	if len(data) != want {
		return nil, fmt.Errorf("size mismatch: want %d bytes for %dx%d, got %d", want, rows, dim, len(data))
	}

	vectors := make([][]float32, rows)
	off := header
	for i := range vectors {
		row := make([]float32, dim)
		for j := range row {
			row[j] = math.Float32frombits(binary.LittleEndian.Uint32(data[off : off+4]))
			off += 4
		}
		vectors[i] = row
	}
	return vectors, nil
}
