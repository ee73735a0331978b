// internal/cli/chat.go
package folio

import (
	"context"

	"github.com/folioqa/folio/internal/tui"
	"github.com/spf13/cobra"
)

// chatCmd starts the interactive chat session.
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session over the indexed corpus",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := requireConfig()
		if err != nil {
			return err
		}

		engine, store, client, err := buildEngine(context.Background(), cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		return tui.Run(cfg, engine, client)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
