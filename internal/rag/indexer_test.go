package rag

import (
	"context"
	"strings"
	"testing"

	"github.com/folioqa/folio/internal/vectorstore"
)

// hashEmbedder derives a deterministic unit vector from each text so rebuild
// tests do not need a live embedding backend.
type hashEmbedder struct{}

func (hashEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		if len(t)%2 == 0 {
			out[i] = []float64{1, 0}
		} else {
			out[i] = []float64{0, 1}
		}
	}
	return out, nil
}

func TestBuildIndexStoresChunks(t *testing.T) {
	store, err := vectorstore.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	col, err := store.Collection(context.Background(), "othello", "fake-embedder")
	if err != nil {
		t.Fatalf("open collection: %v", err)
	}

	cfg := testConfig()
	cfg.ChunkWords = 3
	cfg.OverlapWords = 1

	count, err := BuildIndex(context.Background(), cfg, "the quick brown fox jumps", hashEmbedder{}, col)
	if err != nil {
		t.Fatalf("BuildIndex returned error: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 chunks indexed, got %d", count)
	}

	stored, err := col.Count(context.Background())
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if stored != 2 {
		t.Fatalf("expected 2 stored chunks, got %d", stored)
	}
}

func TestBuildIndexIsIdempotent(t *testing.T) {
	store, err := vectorstore.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	col, err := store.Collection(context.Background(), "othello", "fake-embedder")
	if err != nil {
		t.Fatalf("open collection: %v", err)
	}

	cfg := testConfig()
	cfg.ChunkWords = 3
	cfg.OverlapWords = 1
	corpus := "the quick brown fox jumps"

	first, err := BuildIndex(context.Background(), cfg, corpus, hashEmbedder{}, col)
	if err != nil {
		t.Fatalf("first build: %v", err)
	}
	second, err := BuildIndex(context.Background(), cfg, corpus, hashEmbedder{}, col)
	if err != nil {
		t.Fatalf("second build: %v", err)
	}
	if first != second {
		t.Fatalf("chunk count changed across rebuilds: %d then %d", first, second)
	}

	stored, err := col.Count(context.Background())
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if stored != first {
		t.Fatalf("rebuild duplicated rows: indexed %d, stored %d", first, stored)
	}
}

func TestBuildIndexStripsBoilerplate(t *testing.T) {
	store, err := vectorstore.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	col, err := store.Collection(context.Background(), "othello", "fake-embedder")
	if err != nil {
		t.Fatalf("open collection: %v", err)
	}

	cfg := testConfig()
	cfg.ChunkWords = 4
	cfg.OverlapWords = 0

	corpus := strings.Join([]string{
		"header noise",
		"*** START OF THE PROJECT GUTENBERG EBOOK OTHELLO ***",
		"enter iago and roderigo",
		"*** END OF THE PROJECT GUTENBERG EBOOK OTHELLO ***",
		"footer noise",
	}, "\n")

	count, err := BuildIndex(context.Background(), cfg, corpus, hashEmbedder{}, col)
	if err != nil {
		t.Fatalf("BuildIndex returned error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected boilerplate stripped to a single chunk, got %d", count)
	}

	results, err := col.Query(context.Background(), []float64{0, 1}, 1)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(results) != 1 || results[0].Text != "enter iago and roderigo" {
		t.Fatalf("unexpected stored chunk: %+v", results)
	}
}

func TestBuildIndexEmptyCorpus(t *testing.T) {
	store, err := vectorstore.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	col, err := store.Collection(context.Background(), "othello", "fake-embedder")
	if err != nil {
		t.Fatalf("open collection: %v", err)
	}

	count, err := BuildIndex(context.Background(), testConfig(), "   \n\t", hashEmbedder{}, col)
	if err != nil {
		t.Fatalf("BuildIndex returned error: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected zero chunks for empty corpus, got %d", count)
	}
}
