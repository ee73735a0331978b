// internal/cli/ask.go
package folio

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// askCmd answers a single question and exits.
var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask one question against the indexed corpus",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.TrimSpace(strings.Join(args, " "))
		if question == "" {
			return fmt.Errorf("question is required")
		}

		cfg, err := requireConfig()
		if err != nil {
			return err
		}
		ctx := context.Background()

		engine, store, _, err := buildEngine(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		answer, citations, err := engine.Answer(ctx, question, nil)
		if err != nil {
			return err
		}

		fmt.Println(answer)
		if len(citations) > 0 {
			dim := color.New(color.FgHiBlack).SprintFunc()
			fmt.Println()
			fmt.Println(dim("Sources:"))
			for _, c := range citations {
				fmt.Println(dim("  " + c.String()))
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
}
