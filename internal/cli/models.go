// internal/cli/models.go
package folio

import (
	"context"
	"fmt"

	"github.com/folioqa/folio/internal/llm"
	"github.com/spf13/cobra"
)

// modelsCmd lists the models each backend exposes.
var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models exposed by the generation and embedding backends",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := requireConfig()
		if err != nil {
			return err
		}
		ctx := context.Background()

		for _, backend := range []struct {
			label string
			url   string
		}{
			{"generation", cfg.GenerationURL},
			{"embeddings", cfg.EmbeddingURL},
		} {
			ids, err := llm.NewClient(backend.url, cfg.RequestTimeout()).Models(ctx)
			if err != nil {
				fmt.Printf("%s (%s): %v\n", backend.label, backend.url, err)
				continue
			}
			fmt.Printf("%s (%s):\n", backend.label, backend.url)
			for _, id := range ids {
				fmt.Printf("  %s\n", id)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
