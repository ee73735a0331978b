// internal/cli/index.go
package folio

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/folioqa/folio/internal/corpus"
	"github.com/folioqa/folio/internal/embedding"
	"github.com/folioqa/folio/internal/rag"
	"github.com/spf13/cobra"
)

// indexCmd builds the vector index from the configured corpus.
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the vector index from the corpus",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := requireConfig()
		if err != nil {
			return err
		}
		ctx := context.Background()

		text, err := corpus.Load(ctx, cfg)
		if err != nil {
			return err
		}

		store, col, err := openCollection(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		embedder := embedding.NewClient(cfg.EmbeddingURL, cfg.EmbeddingModel, cfg.RequestTimeout())
		count, err := rag.BuildIndex(ctx, cfg, text, embedder, col)
		if err != nil {
			return err
		}

		success := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s collection %q now holds %d chunks (model %s)\n",
			success("Indexed:"), cfg.Collection, count, cfg.EmbeddingModel)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
}
