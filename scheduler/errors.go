package scheduler

import (
	"errors"
	"fmt"
)

// FailureKind classifies why a run ended in a reported bug.
type FailureKind int

const (
	// AssertionFailure: user code called NotifyAssertionFailure directly (an
	// invariant it checks itself failed).
	AssertionFailure FailureKind = iota
	// Deadlock: the enabled set is empty but at least one operation has not
	// reached a terminal status.
	Deadlock
	// UnhandledException: an operation's goroutine panicked; Scheduler
	// recovers it and reports it as this kind rather than crashing the whole
	// run.
	UnhandledException
	// MaxStepsReached: scheduled_steps exceeded max_scheduled_steps and
	// consider_depth_bound_hit_as_bug was configured true.
	MaxStepsReached
	// LivenessViolation: a strategy.Liveness wrapper's temperature exceeded
	// its threshold.
	LivenessViolation
	// TraceNotReproducible: a Replay strategy's live execution diverged from
	// the recorded trace.
	TraceNotReproducible
)

func (k FailureKind) String() string {
	switch k {
	case AssertionFailure:
		return "AssertionFailure"
	case Deadlock:
		return "Deadlock"
	case UnhandledException:
		return "UnhandledException"
	case MaxStepsReached:
		return "MaxStepsReached"
	case LivenessViolation:
		return "LivenessViolation"
	case TraceNotReproducible:
		return "TraceNotReproducible"
	default:
		return fmt.Sprintf("FailureKind(%d)", int(k))
	}
}

// Failure is the immutable record of why an iteration ended in a bug: kind,
// human-readable message, and a snapshot of the registry at the moment of
// failure for diagnostics.
type Failure struct {
	Kind     FailureKind
	Message  string
	Snapshot []string
}

// ErrExecutionCanceled is returned by every Scheduler method once the
// iteration has detached, whether because a bug was found or the run ended
// normally. Every operation goroutine still alive observes it on its very
// next interaction with the scheduler and is expected to unwind immediately.
var ErrExecutionCanceled = errors.New("weave: execution canceled")
