package vectorstore

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)

	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})
	return store
}

func unit(vals ...float64) []float64 {
	sum := 0.0
	for _, v := range vals {
		sum += v * v
	}
	norm := math.Sqrt(sum)
	out := make([]float64, len(vals))
	for i, v := range vals {
		out[i] = v / norm
	}
	return out
}

func TestUpsertAndQuery(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	col, err := store.Collection(ctx, "othello", "all-minilm-l6-v2")
	require.NoError(t, err)

	records := []Record{
		{ID: "chunk_0", Text: "Othello suspects Desdemona", Embedding: unit(1, 0, 0), Source: "Othello", ChunkID: 0},
		{ID: "chunk_1", Text: "Iago manipulates Othello", Embedding: unit(0, 1, 0), Source: "Othello", ChunkID: 1},
	}
	require.NoError(t, col.Upsert(ctx, records))

	results, err := col.Query(ctx, unit(0, 1, 0), 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "chunk_1", results[0].ID)
	assert.Equal(t, "Iago manipulates Othello", results[0].Text)
	assert.Equal(t, "Othello", results[0].Source)
	assert.Equal(t, 1, results[0].ChunkID)
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-9)
}

func TestUpsertIsIdempotent(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	col, err := store.Collection(ctx, "othello", "all-minilm-l6-v2")
	require.NoError(t, err)

	records := []Record{
		{ID: "chunk_0", Text: "first", Embedding: unit(1, 0), Source: "Othello", ChunkID: 0},
		{ID: "chunk_1", Text: "second", Embedding: unit(0, 1), Source: "Othello", ChunkID: 1},
	}
	require.NoError(t, col.Upsert(ctx, records))
	require.NoError(t, col.Upsert(ctx, records))

	count, err := col.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	results, err := col.Query(ctx, unit(1, 0), 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "chunk_0", results[0].ID)
	assert.Equal(t, "first", results[0].Text)
}

func TestUpsertLastWriteWins(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	col, err := store.Collection(ctx, "othello", "all-minilm-l6-v2")
	require.NoError(t, err)

	require.NoError(t, col.Upsert(ctx, []Record{
		{ID: "chunk_0", Text: "old text", Embedding: unit(1, 0), Source: "Othello", ChunkID: 0},
	}))
	require.NoError(t, col.Upsert(ctx, []Record{
		{ID: "chunk_0", Text: "new text", Embedding: unit(0, 1), Source: "Othello", ChunkID: 0},
	}))

	count, err := col.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	results, err := col.Query(ctx, unit(0, 1), 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "new text", results[0].Text)
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-9)
}

func TestQueryTopKCap(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	col, err := store.Collection(ctx, "othello", "all-minilm-l6-v2")
	require.NoError(t, err)

	require.NoError(t, col.Upsert(ctx, []Record{
		{ID: "chunk_0", Text: "a", Embedding: unit(1, 0, 0), Source: "Othello", ChunkID: 0},
		{ID: "chunk_1", Text: "b", Embedding: unit(0, 1, 0), Source: "Othello", ChunkID: 1},
		{ID: "chunk_2", Text: "c", Embedding: unit(0, 0, 1), Source: "Othello", ChunkID: 2},
	}))

	results, err := col.Query(ctx, unit(1, 1, 1), 5)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestQueryEmptyCollection(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	col, err := store.Collection(ctx, "empty", "all-minilm-l6-v2")
	require.NoError(t, err)

	results, err := col.Query(ctx, unit(1, 0), 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestQueryTieBreakInsertionOrder(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	col, err := store.Collection(ctx, "othello", "all-minilm-l6-v2")
	require.NoError(t, err)

	// Identical embeddings score identically; insertion order decides.
	same := unit(1, 1)
	require.NoError(t, col.Upsert(ctx, []Record{
		{ID: "chunk_0", Text: "first in", Embedding: same, Source: "Othello", ChunkID: 0},
		{ID: "chunk_1", Text: "second in", Embedding: same, Source: "Othello", ChunkID: 1},
	}))

	results, err := col.Query(ctx, same, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "chunk_0", results[0].ID)
	assert.Equal(t, "chunk_1", results[1].ID)
}

func TestQueryRanksByDotProduct(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	col, err := store.Collection(ctx, "othello", "all-minilm-l6-v2")
	require.NoError(t, err)

	require.NoError(t, col.Upsert(ctx, []Record{
		{ID: "chunk_0", Text: "far", Embedding: unit(0, 1), Source: "Othello", ChunkID: 0},
		{ID: "chunk_1", Text: "close", Embedding: unit(1, 0.1), Source: "Othello", ChunkID: 1},
	}))

	results, err := col.Query(ctx, unit(1, 0), 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "close", results[0].Text)
	assert.Greater(t, results[0].Similarity, results[1].Similarity)
	for _, r := range results {
		assert.GreaterOrEqual(t, r.Similarity, -1.0)
		assert.LessOrEqual(t, r.Similarity, 1.0+1e-9)
	}
}

func TestCollectionModelMismatch(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.Collection(ctx, "othello", "all-minilm-l6-v2")
	require.NoError(t, err)

	_, err = store.Collection(ctx, "othello", "text-embedding-3-small")
	var mismatch *MismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "othello", mismatch.Collection)
	assert.Equal(t, "embedding model", mismatch.Field)
	assert.Equal(t, "all-minilm-l6-v2", mismatch.Stored)
	assert.Equal(t, "text-embedding-3-small", mismatch.Requested)
}

func TestDimensionMismatch(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	col, err := store.Collection(ctx, "othello", "all-minilm-l6-v2")
	require.NoError(t, err)

	require.NoError(t, col.Upsert(ctx, []Record{
		{ID: "chunk_0", Text: "a", Embedding: unit(1, 0, 0), Source: "Othello", ChunkID: 0},
	}))

	err = col.Upsert(ctx, []Record{
		{ID: "chunk_1", Text: "b", Embedding: unit(1, 0), Source: "Othello", ChunkID: 1},
	})
	var mismatch *MismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "dimension", mismatch.Field)

	_, err = col.Query(ctx, unit(1, 0), 1)
	require.ErrorAs(t, err, &mismatch)
}

func TestPersistenceAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := Open(dir)
	require.NoError(t, err)
	col, err := store.Collection(ctx, "othello", "all-minilm-l6-v2")
	require.NoError(t, err)
	require.NoError(t, col.Upsert(ctx, []Record{
		{ID: "chunk_0", Text: "persisted", Embedding: unit(1, 0), Source: "Othello", ChunkID: 0},
	}))
	require.NoError(t, store.Close())

	reopened, err := Open(dir)
	require.NoError(t, err)
	defer reopened.Close()

	col, err = reopened.Collection(ctx, "othello", "all-minilm-l6-v2")
	require.NoError(t, err)

	results, err := col.Query(ctx, unit(1, 0), 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "persisted", results[0].Text)
}

func TestQueryNonPositiveK(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	col, err := store.Collection(ctx, "othello", "all-minilm-l6-v2")
	require.NoError(t, err)
	require.NoError(t, col.Upsert(ctx, []Record{
		{ID: "chunk_0", Text: "a", Embedding: unit(1, 0), Source: "Othello", ChunkID: 0},
	}))

	results, err := col.Query(ctx, unit(1, 0), 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFloatRoundTrip(t *testing.T) {
	in := []float64{0.5, -0.25, 1e-12, -1}
	out := bytesToFloats(floatsToBytes(in))
	require.Len(t, out, len(in))
	for i := range in {
		assert.Equal(t, in[i], out[i])
	}
}
