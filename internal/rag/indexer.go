package rag

import (
	"context"
	"fmt"
	"time"

	"github.com/folioqa/folio/internal/appconfig"
	"github.com/folioqa/folio/internal/logging"
	"github.com/folioqa/folio/internal/vectorstore"
)

// BatchEmbedder embeds a batch of texts in input order.
type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}

// Upserter persists embedded chunks keyed by id.
type Upserter interface {
	Upsert(ctx context.Context, records []vectorstore.Record) error
}

// BuildIndex chunks the corpus text, embeds every chunk, and upserts the
// results into the collection. Running it again over an unchanged corpus
// produces identical ids and content, so the second run changes nothing.
// Returns the number of chunks indexed.
func BuildIndex(ctx context.Context, cfg *appconfig.Config, text string, embedder BatchEmbedder, col Upserter) (int, error) {
	start := time.Now()
	status := func(format string, args ...any) {
		elapsed := time.Since(start).Truncate(time.Millisecond)
		msg := fmt.Sprintf("[%s] %s", elapsed, fmt.Sprintf(format, args...))
		logging.LogEvent("%s", msg)
		fmt.Println(msg)
	}

	status("[INDEX] Collection: %s", cfg.Collection)
	status("[INDEX] Embedding model: %s", cfg.EmbeddingModel)
	status("[INDEX] Chunk size: %d words, overlap: %d words", cfg.ChunkWords, cfg.OverlapWords)

	clean := StripBoilerplate(text)
	chunks := Split(clean, cfg.ChunkWords, cfg.OverlapWords)
	if len(chunks) == 0 {
		status("[INDEX] Corpus produced no chunks, nothing to store")
		return 0, nil
	}
	status("[INDEX] Chunked corpus into %d chunks", len(chunks))

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed chunks: %w", err)
	}
	status("[INDEX] Embedded %d chunks", len(vectors))

	records := make([]vectorstore.Record, len(chunks))
	for i, c := range chunks {
		records[i] = vectorstore.Record{
			ID:        c.ID(),
			Text:      c.Text,
			Embedding: vectors[i],
			Source:    cfg.Source(),
			ChunkID:   c.Seq,
		}
	}
	if err := col.Upsert(ctx, records); err != nil {
		return 0, fmt.Errorf("upsert chunks: %w", err)
	}

	status("[INDEX] Stored %d chunks in %s", len(records), time.Since(start).Truncate(time.Millisecond))
	return len(records), nil
}
