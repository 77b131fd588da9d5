package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/latticeforge/weave"
	"github.com/latticeforge/weave/config"
)

// NewTestCommand builds the "test" subcommand:
// `test [scenario] --method <name> --strategy <random|probabilistic|
// pct|replay|fuzz> [--schedule <file>] --iterations <n> --max-steps <n>
// [--seed <u64>]`. Since weavetest links scenarios in directly via
// weave.Register rather than loading an external assembly, the positional
// argument names the scenario to run, with --method kept as an
// equivalent flag for scripts that prefer named arguments.
func NewTestCommand() *cobra.Command {
	var (
		flags      config.Flags
		configPath string
		methodFlag string
		traceDir   string
		verbose    bool
	)

	testCmd := &cobra.Command{
		Use:   "test [scenario]",
		Short: "Run a registered scenario under a scheduling strategy",
		Long: `Run drives the named scenario through weave's scheduler for the
configured number of iterations, stopping at the first iteration that
finds a bug. It exits 0 if every iteration completed cleanly, 1 if a bug
was found (with a reproduction trace written to --trace-dir), or 2 on a
usage error such as an unresolvable scenario name.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTest(cmd, args, flags, configPath, methodFlag, traceDir, verbose)
		},
	}

	testCmd.Flags().StringVar(&configPath, "config", "", "YAML or TOML config file")
	testCmd.Flags().StringVar(&methodFlag, "method", "", "scenario name (alternative to the positional argument)")
	testCmd.Flags().StringVar(&traceDir, "trace-dir", "traces", "directory a failing iteration's trace is written to")
	testCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "verbose diagnostics on stderr")
	flags.Register(testCmd.Flags())

	return testCmd
}

func runTest(cmd *cobra.Command, args []string, flags config.Flags, configPath, methodFlag, traceDir string, verbose bool) error {
	flags.MarkSeedSet(cmd.Flags())

	method := methodFlag
	if method == "" && len(args) == 1 {
		method = args[0]
	}
	if method == "" {
		exitCode = 2
		return fmt.Errorf("weavetest: no scenario named (pass --method or a positional argument)")
	}

	if _, ok := weave.Lookup(method); !ok {
		exitCode = 2
		return fmt.Errorf("weavetest: no scenario registered as %q", method)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		exitCode = 2
		return fmt.Errorf("weavetest: loading config: %w", err)
	}
	flags.Apply(&cfg)

	if cfg.Strategy == "replay" && cfg.ReplayPath == "" {
		exitCode = 2
		return fmt.Errorf("weavetest: --strategy replay requires --schedule")
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "weavetest: running %q with strategy=%s iterations=%d\n", method, cfg.Strategy, cfg.NumberOfIterations)
	}

	logger := weave.NewSlogLogger()
	runner := weave.NewRunner(cfg, logger)

	result, err := runner.RunIterations(method)
	if err != nil {
		exitCode = 2
		return fmt.Errorf("weavetest: %w", err)
	}

	if result.Failed == nil {
		if verbose {
			fmt.Fprintf(os.Stderr, "weavetest: %d iteration(s), no bug found\n", len(result.Iterations))
		}
		exitCode = 0
		return nil
	}

	failure := result.Failed
	tracePath := ""
	if len(failure.Trace) > 0 {
		if path, err := weave.PersistTrace(traceDir, failure.Iteration, failure.Trace); err == nil {
			tracePath = path
		} else if verbose {
			fmt.Fprintf(os.Stderr, "weavetest: writing trace: %s\n", err)
		}
	}

	fmt.Fprintf(os.Stderr, "weavetest: bug found at iteration %d: %s: %s\n", failure.Iteration, failure.Failure.Kind.String(), failure.Failure.Message)
	if tracePath != "" {
		fmt.Fprintf(os.Stderr, "weavetest: trace written to %s\n", tracePath)
	}
	for _, line := range failure.Failure.Snapshot {
		fmt.Fprintf(os.Stderr, "  %s\n", line)
	}

	exitCode = 1
	return nil
}
