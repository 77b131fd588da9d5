// Package strategy implements the pluggable scheduling-strategy family:
// Random, ProbabilisticRandom, PCT, Replay, and a Liveness wrapper that
// augments any of the others with fair-cycle detection.
//
// Every strategy method is invoked by scheduler.Scheduler while holding the
// scheduler's single mutex (mirroring registry.Registry's lock), so
// implementations here must be pure with respect to anything but the
// arguments passed in and their own internal state — no goroutines, no I/O
// on the hot path.
package strategy

import (
	"time"

	"github.com/latticeforge/weave/registry"
)

// Strategy decides which runnable operation executes next and which value a
// nondeterministic choice takes.
type Strategy interface {
	// InitializeNextIteration prepares the strategy for iteration number
	// iter (0-based) and reports whether iteration should proceed; PCT uses
	// this to redraw its priority-change points, Replay to refuse every
	// iteration after the first.
	InitializeNextIteration(iter int) bool

	// NextOperation picks an operation from enabled to run next. current is
	// the operation that just called ScheduleNext (nil if none has run
	// yet). isYielding reports whether the calling point was a Yield.
	// Returns nil if the strategy wants to terminate the run (only Replay
	// does this, once its trace is exhausted with no configured suffix
	// strategy).
	NextOperation(enabled []*registry.Operation, current *registry.Operation, isYielding bool) *registry.Operation

	// NextBoolean produces the next boolean choice.
	NextBoolean(current *registry.Operation, max int) bool

	// NextInteger produces the next bounded integer choice in [0, max).
	NextInteger(current *registry.Operation, max int) int

	// StepCount reports how many decisions this strategy has made this
	// iteration.
	StepCount() int

	// IsMaxStepsReached reports whether the strategy itself wants to cut the
	// iteration short (Replay, once its trace is exhausted and no suffix
	// strategy is configured).
	IsMaxStepsReached() bool

	// IsFair reports whether every continually-enabled operation is
	// eventually selected with probability 1. Random and
	// ProbabilisticRandom(p<1) are fair; PCT is not, and neither is Replay
	// without a fair suffix strategy.
	IsFair() bool

	// Description is a short human-readable strategy name, used in trace
	// headers and CLI output.
	Description() string

	// Reset clears per-iteration counters and flags without touching
	// configuration (seed, priority-change count, replay path); Replay's
	// trace cursor is not rewound.
	Reset()
}

// DelayStrategy is an optional extension, implemented by Fuzz and consumed
// by scheduler.Scheduler.ScheduleNext: it produces a nondeterministic,
// nonnegative delay the calling operation sleeps for before the scheduling
// decision is made.
// Strategies that don't implement this interface are assumed to want zero
// delay (the systematic schedulers: Random, ProbabilisticRandom, PCT,
// Replay all favor exact reproducibility over injected timing noise).
type DelayStrategy interface {
	NextDelay(current *registry.Operation) time.Duration
}

// pickByPriority returns the enabled operation with the highest priority,
// breaking ties by ascending operation id. PCT selects through it; the
// other strategies pick by PRNG index into the enabled slice instead.
func pickByPriority(enabled []*registry.Operation, priority map[int]int) *registry.Operation {
	var best *registry.Operation
	bestPrio := -1
	for _, op := range enabled {
		p := priority[op.ID]
		if best == nil || p > bestPrio || (p == bestPrio && op.ID < best.ID) {
			best = op
			bestPrio = p
		}
	}
	return best
}
