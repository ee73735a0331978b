// internal/cli/show.go
package folio

import "github.com/spf13/cobra"

// showCmd groups inspection subcommands.
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show application state",
}

func init() {
	rootCmd.AddCommand(showCmd)
}
