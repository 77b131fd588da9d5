package main

import (
	"fmt"
	"os"

	"github.com/latticeforge/weave/cmd/weavetest/cmd"

	// Registers the bundled demonstration scenarios against weave's
	// scenario registry via an import-for-side-effects pattern. A real
	// deployment replaces this with its own scenario package import.
	_ "github.com/latticeforge/weave/internal/testscenario"
)

func main() {
	rootCmd := cmd.NewRootCommand()
	exitCode, err := cmd.Execute(rootCmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
	os.Exit(exitCode)
}
