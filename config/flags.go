package config

import (
	"github.com/spf13/pflag"

	"github.com/latticeforge/weave"
)

// Flags binds the Configuration enumeration's fields as pflag flags, for
// cmd/weavetest to register on its command and overlay last (highest
// precedence: file, then env, then flags).
type Flags struct {
	Strategy   string
	Schedule   string
	Iterations int
	MaxSteps   int
	Seed       uint64
	seedSet    bool
}

// Register adds this command's flags to fs.
func (f *Flags) Register(fs *pflag.FlagSet) {
	fs.StringVar(&f.Strategy, "strategy", "", "scheduling strategy: random|probabilistic|pct|replay|fuzz")
	fs.StringVar(&f.Schedule, "schedule", "", "schedule trace file (required for --strategy replay)")
	fs.IntVar(&f.Iterations, "iterations", 0, "number of iterations to run")
	fs.IntVar(&f.MaxSteps, "max-steps", 0, "maximum scheduled steps per iteration")
	fs.Uint64Var(&f.Seed, "seed", 0, "random seed")
}

// MarkSeedSet records that --seed was explicitly passed, since pflag alone
// can't distinguish "seed 0" from "not set".
func (f *Flags) MarkSeedSet(fs *pflag.FlagSet) {
	f.seedSet = fs.Changed("seed")
}

// Apply overlays any flags the user actually set onto cfg, the highest
// layer of the file → env → flags precedence chain.
func (f *Flags) Apply(cfg *weave.Config) {
	if f.Strategy != "" {
		cfg.Strategy = f.Strategy
	}
	if f.Schedule != "" {
		cfg.ReplayPath = f.Schedule
	}
	if f.Iterations > 0 {
		cfg.NumberOfIterations = f.Iterations
	}
	if f.MaxSteps > 0 {
		cfg.MaxScheduledSteps = f.MaxSteps
	}
	if f.seedSet {
		seed := f.Seed
		cfg.RandomSeed = &seed
	}
}
