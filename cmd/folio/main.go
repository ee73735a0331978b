// cmd/folio/main.go
package main

import (
	cmd "github.com/folioqa/folio/internal/cli"
)

// main starts the folio CLI application by delegating to the
// cobra root command defined in the folio package. It does not
// take any arguments and does not return a value.
func main() {
	cmd.Execute()
}
