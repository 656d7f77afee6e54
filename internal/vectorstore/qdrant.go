package vectorstore

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/qdrant/go-client/qdrant"

	"github.com/netopslabs/netdocs/internal/embedder"
)

// QdrantConfig holds connection parameters for a Qdrant-backed store.
type QdrantConfig struct {
	// Host is the Qdrant server hostname (default: localhost).
	Host string
	// Port is the Qdrant gRPC port (default: 6334).
	Port int
	// Collection is the collection name (default: netdocs).
	Collection string
	// APIKey is the optional API key for authenticated clusters.
	APIKey string
	// UseTLS enables TLS for the gRPC connection.
	UseTLS bool
}

// QdrantStore implements Store backed by a Qdrant collection with cosine
// distance. It is the opt-in alternative to FileStore for corpora that
// outgrow a single host; embeddings are still resolved locally through the
// cache and backend chain before upsert.
type QdrantStore struct {
	client   *qdrant.Client
	cfg      *QdrantConfig
	provider *embedder.Provider
	cache    *embedder.Cache
	log      *slog.Logger
}

// NewQdrantStore connects to Qdrant, ensures the target collection exists,
// and returns a ready Store. Unlike FileStore, connection failures are
// returned: a configured-but-unreachable Qdrant is an operator error, not a
// degraded mode.
func NewQdrantStore(ctx context.Context, cfg *QdrantConfig, provider *embedder.Provider, cache *embedder.Cache, log *slog.Logger) (*QdrantStore, error) {
	if provider == nil {
		return nil, fmt.Errorf("vectorstore: provider must not be nil")
	}
	if cfg == nil {
		cfg = &QdrantConfig{}
	}
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}
	if cfg.Collection == "" {
		cfg.Collection = "netdocs"
	}
	if cache == nil {
		cache = embedder.NewCache(0)
	}
	if log == nil {
		log = slog.Default()
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("vectorstore: create qdrant client: %w", err)
	}

	s := &QdrantStore{
		client:   client,
		cfg:      cfg,
		provider: provider,
		cache:    cache,
		log:      log,
	}
	if err := s.ensureCollection(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// ensureCollection creates the collection if it does not already exist.
func (s *QdrantStore) ensureCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.cfg.Collection)
	if err != nil {
		return fmt.Errorf("vectorstore: check collection: %w", err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.cfg.Collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(embedder.Dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("vectorstore: create collection %q: %w", s.cfg.Collection, err)
	}
	return nil
}

// AddDocuments embeds docs in batches (cache-first, as FileStore does) and
// upserts them into the collection.
func (s *QdrantStore) AddDocuments(ctx context.Context, docs []Document, batchSize int) error {
	if len(docs) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	for start := 0; start < len(docs); start += batchSize {
		end := start + batchSize
		if end > len(docs) {
			end = len(docs)
		}
		if err := s.upsertBatch(ctx, docs[start:end]); err != nil {
			return err
		}
	}

	s.log.Info("vectorstore: qdrant corpus updated", slog.Int("added", len(docs)))
	return nil
}

// upsertBatch embeds and upserts one batch.
func (s *QdrantStore) upsertBatch(ctx context.Context, batch []Document) error {
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

	points := make([]*qdrant.PointStruct, 0, len(batch))
	for i, doc := range batch {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(pointID(doc)),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(payloadFor(doc)),
		})
	}

	if _, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.cfg.Collection,
		Points:         points,
	}); err != nil {
		return fmt.Errorf("vectorstore: qdrant upsert: %w", err)
	}
	return nil
}

// payloadFor flattens a document into a Qdrant payload map.
func payloadFor(doc Document) map[string]any {
	payload := map[string]any{
		"content":      doc.Content,
		"title":        doc.Metadata.Title,
		"source":       doc.Metadata.Source,
		"chunk_id":     strconv.Itoa(doc.Metadata.ChunkID),
		"total_chunks": strconv.Itoa(doc.Metadata.TotalChunks),
	}
	for k, v := range doc.Metadata.Extra {
		payload[k] = v
	}
	return payload
}

// pointID derives a deterministic UUID for a document from its identity
// (the exact content text), so re-ingesting the same chunk overwrites
// rather than duplicates.
func pointID(doc Document) string {
	if doc.ID != "" {
		return doc.ID
	}
	sum := sha256.Sum256([]byte(doc.Content))
	return fmt.Sprintf("%x-%x-%x-%x-%x", sum[0:4], sum[4:6], sum[6:8], sum[8:10], sum[10:16])
}

// Search embeds query and runs a cosine similarity query against the
// collection, pushing the score threshold down to the server.
func (s *QdrantStore) Search(ctx context.Context, query string, k int, scoreThreshold float32) ([]ScoredDocument, error) {
	if k <= 0 {
		k = defaultSearchK
	}

	queryVec := s.provider.Encode(ctx, []string{query})[0]

	limit := uint64(k)
	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.cfg.Collection,
		Query:          qdrant.NewQuery(queryVec...),
		Limit:          &limit,
		ScoreThreshold: &scoreThreshold,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("vectorstore: qdrant search: %w", err)
	}

	results := make([]ScoredDocument, 0, len(points))
	for _, p := range points {
		results = append(results, ScoredDocument{
			Document: documentFromPayload(p),
			Score:    p.Score,
		})
	}
	return results, nil
}

// documentFromPayload reconstructs a Document from a scored point.
func documentFromPayload(p *qdrant.ScoredPoint) Document {
	doc := Document{ID: p.Id.GetUuid()}
	payload := p.Payload
	if payload == nil {
		return doc
	}

	known := map[string]bool{"content": true, "title": true, "source": true, "chunk_id": true, "total_chunks": true}
	if v, ok := payload["content"]; ok {
		doc.Content = v.GetStringValue()
	}
	if v, ok := payload["title"]; ok {
		doc.Metadata.Title = v.GetStringValue()
	}
	if v, ok := payload["source"]; ok {
		doc.Metadata.Source = v.GetStringValue()
	}
	if v, ok := payload["chunk_id"]; ok {
		doc.Metadata.ChunkID, _ = strconv.Atoi(v.GetStringValue())
	}
	if v, ok := payload["total_chunks"]; ok {
		doc.Metadata.TotalChunks, _ = strconv.Atoi(v.GetStringValue())
	}
	for k, v := range payload {
		if known[k] {
			continue
		}
		if doc.Metadata.Extra == nil {
			doc.Metadata.Extra = make(map[string]string)
		}
		doc.Metadata.Extra[k] = v.GetStringValue()
	}
	return doc
}

// Clear drops and recreates the collection and empties the embedding cache.
func (s *QdrantStore) Clear(ctx context.Context) error {
	if err := s.client.DeleteCollection(ctx, s.cfg.Collection); err != nil {
		return fmt.Errorf("vectorstore: qdrant delete collection: %w", err)
	}
	s.cache.Clear()
	return s.ensureCollection(ctx)
}

// Count returns the number of points in the collection; errors are logged
// and reported as zero.
func (s *QdrantStore) Count(ctx context.Context) int {
	n, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.cfg.Collection,
	})
	if err != nil {
		s.log.Warn("vectorstore: qdrant count failed", slog.Any("error", err))
		return 0
	}
	return int(n)
}

// Stats returns the store's diagnostic summary.
func (s *QdrantStore) Stats(ctx context.Context) Stats {
	count := s.Count(ctx)
	dim := 0
	if count > 0 {
		dim = embedder.Dimension
	}
	return Stats{
		DocumentCount: count,
		Dimension:     dim,
		StoragePath:   fmt.Sprintf("qdrant://%s:%d/%s", s.cfg.Host, s.cfg.Port, s.cfg.Collection),
		Provider:      s.provider.Info(),
	}
}

// Client exposes the underlying Qdrant client for readiness probes.
func (s *QdrantStore) Client() *qdrant.Client {
	return s.client
}

// Close closes the underlying gRPC connection.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}
