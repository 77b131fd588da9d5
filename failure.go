package weave

import (
	"github.com/latticeforge/weave/scheduler"
)

// FailureKind classifies why an iteration ended in a reported bug. It is an
// alias of scheduler.FailureKind: the scheduler is what actually detects
// every one of these conditions, so Runtime re-exports its enum rather than
// duplicating it.
type FailureKind = scheduler.FailureKind

// Re-exported FailureKind values.
const (
	AssertionFailure     = scheduler.AssertionFailure
	Deadlock             = scheduler.Deadlock
	UnhandledException   = scheduler.UnhandledException
	MaxStepsReached      = scheduler.MaxStepsReached
	LivenessViolation    = scheduler.LivenessViolation
	TraceNotReproducible = scheduler.TraceNotReproducible
)

// ErrExecutionCanceled is raised from every scheduler interaction once an
// iteration has detached, unwinding every remaining operation. It is the
// exact sentinel scheduler.Scheduler returns, re-exported here so user
// scenario code written against the weave package never imports scheduler
// directly.
var ErrExecutionCanceled = scheduler.ErrExecutionCanceled

// FailureReport is the structured record of one iteration's failure,
// stored by Runner in that iteration's IterationResult.Failure.
type FailureReport struct {
	Kind      FailureKind
	Message   string
	Iteration int
	Snapshot  []string
	TracePath string
}
