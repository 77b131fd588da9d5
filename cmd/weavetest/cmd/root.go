// Package cmd assembles the weavetest binary's Cobra command tree, split
// between the entry point (construct + Execute) and the commands
// themselves.
package cmd

import (
	"github.com/spf13/cobra"
)

// NewRootCommand builds the weavetest root command and attaches every
// subcommand.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "weavetest",
		Short: "Deterministic concurrency test runner",
		Long: `weavetest drives registered test scenarios through a controlled,
reproducible scheduler, exploring thread interleavings the way a real
concurrent run would, but under the harness's control instead of the Go
runtime's.`,
	}

	rootCmd.AddCommand(NewTestCommand())
	return rootCmd
}

// exitCode is set by a subcommand's RunE just before returning, since
// cobra's Execute only reports success/failure, not weavetest's three-way
// exit status (0 no bug, 1 bug found, 2 usage error). It is package-local
// because only one command runs per process invocation.
var exitCode int

// Execute runs root and returns the process exit code to use, alongside
// any error to print to stderr. An error cobra itself reports before a
// RunE runs (bad flags, too many arguments) is reported as exit code 2;
// runTest sets exit code 2 itself for its own usage errors, such as an
// unknown scenario name.
func Execute(root *cobra.Command) (int, error) {
	exitCode = 0
	root.SilenceUsage = true
	root.SilenceErrors = true
	if err := root.Execute(); err != nil {
		if exitCode == 0 {
			exitCode = 2
		}
		return exitCode, err
	}
	return exitCode, nil
}
