// internal/cli/preview.go
package folio

import (
	"context"
	"fmt"
	"strings"

	"github.com/folioqa/folio/internal/logging"
	"github.com/folioqa/folio/internal/rag"
	"github.com/spf13/cobra"
)

// previewCmd shows retrieval and context assembly for a query without
// calling the generation backend.
var previewCmd = &cobra.Command{
	Use:   "preview <query>",
	Short: "Preview retrieval and context assembly for a query",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.TrimSpace(strings.Join(args, " "))
		if query == "" {
			return fmt.Errorf("query is required")
		}

		cfg, err := requireConfig()
		if err != nil {
			return err
		}
		ctx := context.Background()

		status := func(format string, args ...any) {
			msg := fmt.Sprintf(format, args...)
			logging.LogEvent("%s", msg)
			fmt.Println(msg)
		}

		status("[RAG] Preview query: %s", query)
		status("[RAG] collection: %s", cfg.Collection)
		status("[RAG] embedding model: %s", cfg.EmbeddingModel)
		status("[RAG] embedding host: %s", cfg.EmbeddingURL)
		status("[RAG] chunk size: %d words, overlap: %d words", cfg.ChunkWords, cfg.OverlapWords)
		status("[RAG] topK: %d", cfg.TopK)

		engine, store, _, err := buildEngine(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		results, err := engine.Retrieve(ctx, query, cfg.TopK)
		if err != nil {
			return err
		}

		status("[RAG] chunks: %d", len(results))
		for i, r := range results {
			status("[RAG] chunk %d score=%.6f source=%s chunk_id=%d", i+1, r.Similarity, r.Source, r.ChunkID)
			status("[RAG] chunk %d text: %s", i+1, r.Text)
		}

		contextBlock, citations := rag.BuildContext(results)
		if contextBlock != "" {
			status("[RAG] context:\n%s", contextBlock)
		}
		for _, c := range citations {
			status("[RAG] citation: %s", c.String())
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(previewCmd)
}
