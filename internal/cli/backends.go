// internal/cli/backends.go
package folio

import (
	"context"
	"fmt"

	"github.com/folioqa/folio/internal/appconfig"
	"github.com/folioqa/folio/internal/embedding"
	"github.com/folioqa/folio/internal/llm"
	"github.com/folioqa/folio/internal/rag"
	"github.com/folioqa/folio/internal/vectorstore"
)

// openCollection opens the vector store and the configured collection, pinned
// to the configured embedding model. The caller closes the returned store.
func openCollection(ctx context.Context, cfg *appconfig.Config) (*vectorstore.Store, *vectorstore.Collection, error) {
	store, err := vectorstore.Open(cfg.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("opening vector store: %w", err)
	}
	col, err := store.Collection(ctx, cfg.Collection, cfg.EmbeddingModel)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return store, col, nil
}

// buildEngine wires the embedding client, vector store, and generation client
// into an Engine. The caller closes the returned store.
func buildEngine(ctx context.Context, cfg *appconfig.Config) (*rag.Engine, *vectorstore.Store, *llm.Client, error) {
	store, col, err := openCollection(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	embedder := embedding.NewClient(cfg.EmbeddingURL, cfg.EmbeddingModel, cfg.RequestTimeout())
	generator := llm.NewClient(cfg.GenerationURL, cfg.RequestTimeout())
	return rag.NewEngine(cfg, embedder, col, generator), store, generator, nil
}
