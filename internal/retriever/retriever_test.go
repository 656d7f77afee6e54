package retriever

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/netopslabs/netdocs/internal/embedder"
	"github.com/netopslabs/netdocs/internal/vectorstore"
)

func newTestStore(t *testing.T, backend string) vectorstore.Store {
	t.Helper()
	provider := embedder.NewProvider(context.Background(), &embedder.Config{Provider: backend}, slog.Default())
	store, err := vectorstore.NewFileStore(t.TempDir(), provider, embedder.NewCache(0), slog.Default())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return store
}

func newTestRetriever(t *testing.T, backend string, cfg *Config) *Retriever {
	t.Helper()
	if cfg == nil {
		cfg = &Config{Enabled: true}
	}
	r, err := New(newTestStore(t, backend), cfg, slog.Default())
	if err != nil {
		t.Fatalf("new retriever: %v", err)
	}
	return r
}

func Test_Retriever_EndToEnd(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := newTestRetriever(t, "tfidf", nil)

	if r.IsInitialized() {
		t.Fatal("fresh retriever should not be initialized")
	}
	if err := r.InitializeDocuments(ctx); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if !r.IsInitialized() {
		t.Fatal("retriever should be initialized after indexing")
	}

	got, err := r.Retrieve(ctx, "How do I manage IP addresses?", 0)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if got == "" {
		t.Fatal("want non-empty context for an on-topic query")
	}
	if !strings.Contains(strings.ToLower(got), "ip address") {
		t.Errorf("context misses the topic:\n%s", got)
	}
	if !strings.Contains(got, "[") {
		t.Errorf("context chunks should carry bracketed source labels:\n%s", got)
	}
}

func Test_Retriever_DisabledReturnsEmpty(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := newTestRetriever(t, "heuristic", &Config{Enabled: false})

	if err := r.InitializeDocuments(ctx); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	got, err := r.Retrieve(ctx, "devices", 3)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if got != "" {
		t.Errorf("disabled retrieval must return empty context, got %q", got)
	}
}

func Test_Retriever_UninitializedReturnsEmpty(t *testing.T) {
	t.Parallel()

	r := newTestRetriever(t, "heuristic", nil)
	got, err := r.Retrieve(context.Background(), "devices", 3)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if got != "" {
		t.Errorf("uninitialized retrieval must return empty context, got %q", got)
	}
}

func Test_Retriever_AddDocumentMarksInitialized(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := newTestRetriever(t, "heuristic", nil)

	content := "BGP sessions are configured per device interface with peer ASN and address."
	err := r.AddDocument(ctx, content, vectorstore.Metadata{Title: "BGP Guide", Source: "unit"})
	if err != nil {
		t.Fatalf("add document: %v", err)
	}
	if !r.IsInitialized() {
		t.Fatal("adding a document should mark the retriever initialized")
	}

	// The identical text must come back, labelled by its title.
	got, err := r.Retrieve(ctx, content, 1)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if !strings.HasPrefix(got, "[BGP Guide]") {
		t.Errorf("want context labelled with title, got %q", got)
	}
}

func Test_Retriever_AddEmptyDocumentIsNoOp(t *testing.T) {
	t.Parallel()

	r := newTestRetriever(t, "heuristic", nil)
	if err := r.AddDocument(context.Background(), "   ", vectorstore.Metadata{}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if r.IsInitialized() {
		t.Error("empty document must not mark the retriever initialized")
	}
}

func Test_Retriever_InitializeFetchesConfiguredURLs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); !strings.HasPrefix(got, "netdocs/") {
			t.Errorf("unexpected user agent %q", got)
		}
		w.Write([]byte("Webhooks fire on object create, update, and delete events."))
	}))
	defer srv.Close()

	store := newTestStore(t, "heuristic")
	r, err := New(store, &Config{Enabled: true, DocURLs: []string{srv.URL}}, slog.Default())
	if err != nil {
		t.Fatalf("new retriever: %v", err)
	}
	if err := r.InitializeDocuments(ctx); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	// The remote page is indexed alongside the built-in set.
	baseline := len(sampleDocs)
	if got := store.Count(ctx); got <= baseline {
		t.Errorf("want more than %d chunks after fetching remote docs, got %d", baseline, got)
	}
}

func Test_Retriever_InitializeSurvivesUnreachableURL(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := newTestRetriever(t, "heuristic", &Config{
		Enabled: true,
		DocURLs: []string{"http://127.0.0.1:1/missing"},
	})
	if err := r.InitializeDocuments(ctx); err != nil {
		t.Fatalf("initialize should tolerate fetch failures: %v", err)
	}
	if !r.IsInitialized() {
		t.Error("built-in docs should still be indexed after a fetch failure")
	}
}

func Test_Retriever_InitializeIndexesLocalDirectory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()
	files := map[string]string{
		"vlans.md":    "VLANs segment a layer 2 network into broadcast domains.",
		"racking.txt": "Racks are modelled with unit height and device positions.",
		"notes.go":    "package ignored",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}
	}

	store := newTestStore(t, "heuristic")
	r, err := New(store, &Config{Enabled: true, DocsDir: dir}, slog.Default())
	if err != nil {
		t.Fatalf("new retriever: %v", err)
	}
	if err := r.InitializeDocuments(ctx); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	// Two documentation files on top of the built-in set; the .go file
	// is skipped.
	want := len(sampleDocs) + 2
	if got := store.Count(ctx); got < want {
		t.Errorf("want at least %d chunks, got %d", want, got)
	}

	got, err := r.Retrieve(ctx, "VLANs segment a layer 2 network into broadcast domains.", 1)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if !strings.HasPrefix(got, "[vlans.md]") {
		t.Errorf("want local file chunk labelled by filename, got %q", got)
	}
}

func Test_Retriever_StatsReflectCorpus(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := newTestRetriever(t, "heuristic", nil)

	stats := r.Stats(ctx)
	if stats.IsInitialized || stats.DocumentCount != 0 {
		t.Errorf("empty retriever stats: %+v", stats)
	}
	if stats.MaxResults != DefaultMaxResults {
		t.Errorf("want default max results %d, got %d", DefaultMaxResults, stats.MaxResults)
	}
	if stats.ScoreThreshold != DefaultScoreThreshold {
		t.Errorf("want default threshold %v, got %v", DefaultScoreThreshold, stats.ScoreThreshold)
	}

	if err := r.InitializeDocuments(ctx); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	stats = r.Stats(ctx)
	if !stats.IsInitialized || stats.DocumentCount == 0 {
		t.Errorf("initialized retriever stats: %+v", stats)
	}
}
