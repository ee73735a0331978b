// internal/cli/status.go
package folio

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/folioqa/folio/internal/llm"
	"github.com/spf13/cobra"
)

var up = color.New(color.FgGreen).SprintFunc()
var down = color.New(color.FgRed).SprintFunc()

// statusCmd reports backend liveness and index state.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check backend liveness and index state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := requireConfig()
		if err != nil {
			return err
		}
		ctx := context.Background()

		generation := llm.NewClient(cfg.GenerationURL, cfg.RequestTimeout())
		if err := generation.Ping(ctx); err != nil {
			fmt.Printf("generation  %s  %s (%v)\n", down("DOWN"), cfg.GenerationURL, err)
		} else {
			fmt.Printf("generation  %s  %s\n", up("UP"), cfg.GenerationURL)
		}

		// The embeddings backend speaks the same /v1/models surface.
		embeddings := llm.NewClient(cfg.EmbeddingURL, cfg.RequestTimeout())
		if err := embeddings.Ping(ctx); err != nil {
			fmt.Printf("embeddings  %s  %s (%v)\n", down("DOWN"), cfg.EmbeddingURL, err)
		} else {
			fmt.Printf("embeddings  %s  %s\n", up("UP"), cfg.EmbeddingURL)
		}

		store, col, err := openCollection(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		count, err := col.Count(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("collection  %q holds %d chunks (model %s)\n", col.Name(), count, col.Model())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
