// Package scheduler implements the cooperative scheduler loop at the core of
// a systematic test run: it holds the operation registry and the schedule
// recorder, consults a pluggable strategy.Strategy at every declared
// scheduling point, and hands control from one operation's goroutine to
// another via registry.Operation's Wake/Park channel.
//
// Exactly one operation goroutine is ever runnable at a time; every other
// goroutine sits parked on its own Operation.resume channel. Every Scheduler
// method takes the calling operation explicitly rather than reaching for
// thread-local storage, which Go has no safe equivalent of.
package scheduler

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/latticeforge/weave/registry"
	"github.com/latticeforge/weave/strategy"
	"github.com/latticeforge/weave/trace"
)

// Scheduler arbitrates which operation runs next, recording every decision
// to a trace.Recorder and asking a strategy.Strategy to make the actual
// choice. It embeds *registry.Registry so Lock/Unlock/Create/Enabled/All are
// available directly on Scheduler, and reuses the registry's mutex rather
// than layering a second lock on top — every field mutated here (step
// counter, trace, failure) is read from more than one operation's goroutine.
type Scheduler struct {
	*registry.Registry

	strat    strategy.Strategy
	recorder *trace.Recorder

	maxSteps                   int
	considerDepthBoundHitAsBug bool

	steps     int
	currentID int
	hasRun    bool

	detached atomic.Bool
	failure  *Failure

	// OnFailure, if set, is invoked once, on its own goroutine, the moment
	// a run detaches with a non-nil Failure. Nothing in this module sets
	// it; weave.Runner reads Failure after each iteration instead.
	OnFailure func(Failure)
}

// Config bundles the scheduler's tunable limits.
type Config struct {
	MaxScheduledSteps          int
	ConsiderDepthBoundHitAsBug bool
	MaxTraceLength             int
}

// New creates a Scheduler over strat, recording decisions under header.
func New(strat strategy.Strategy, header trace.Header, cfg Config) *Scheduler {
	maxTrace := cfg.MaxTraceLength
	if maxTrace == 0 {
		maxTrace = cfg.MaxScheduledSteps * 4
	}
	return &Scheduler{
		Registry:                   registry.New(),
		strat:                      strat,
		recorder:                   trace.NewRecorder(header, maxTrace),
		maxSteps:                   cfg.MaxScheduledSteps,
		considerDepthBoundHitAsBug: cfg.ConsiderDepthBoundHitAsBug,
		currentID:                  -1,
	}
}

// Strategy returns the strategy this scheduler consults.
func (s *Scheduler) Strategy() strategy.Strategy { return s.strat }

// SetStrategy replaces the strategy this scheduler consults. Used once, at
// setup time, to splice in a strategy.Liveness wrapper once its
// HotStateProvider (spec.Engine) exists — the engine itself is constructed
// from this Scheduler, so the two can't be built in a single step.
func (s *Scheduler) SetStrategy(strat strategy.Strategy) {
	s.Lock()
	defer s.Unlock()
	s.strat = strat
}

// Trace returns the recorded schedule trace so far.
func (s *Scheduler) Trace() trace.Trace { return s.recorder.Trace() }

// Failure returns the failure that ended the run, or nil if the run
// completed cleanly (or hasn't ended yet).
func (s *Scheduler) Failure() *Failure {
	s.Lock()
	defer s.Unlock()
	return s.failure
}

// Steps reports how many scheduling decisions have been made so far.
// scheduler.Fuzzer polls this to detect a hung fuzzing run.
func (s *Scheduler) Steps() int {
	s.Lock()
	defer s.Unlock()
	return s.steps
}

// Canceled reports whether the run has detached, for either reason.
func (s *Scheduler) Canceled() bool { return s.detached.Load() }

// Spawn registers a new operation named name and starts fn running on its
// own goroutine. fn does not begin executing until the scheduler selects
// this operation for the first time — the goroutine parks immediately on
// entry. Callers almost always follow Spawn with a call to
// ScheduleNext(parent, Create) so the new operation's creation is itself a
// scheduling decision.
func (s *Scheduler) Spawn(name string, fn func(op *registry.Operation)) *registry.Operation {
	s.Lock()
	op := s.Create(name)
	s.Unlock()

	go func() {
		op.Park()
		if s.detached.Load() {
			return
		}
		fn(op)
	}()
	return op
}

// ScheduleNext is the heart of the scheduler, invoked by op (the currently
// running operation) at a declared scheduling point of the given kind. If
// the active strategy implements strategy.DelayStrategy, op first sleeps
// for the delay it returns.
//
//  1. Compute the enabled set.
//  2. If empty and not every operation is terminal, report Deadlock.
//  3. If scheduled_steps has exceeded the configured maximum, report
//     MaxStepsReached (if configured as a bug) and detach either way.
//  4. Consult the strategy for the next operation to run.
//  5. If the strategy reports itself past its liveness threshold, report
//     LivenessViolation and detach.
//  6. Append a SchedulingChoice step to the trace.
//  7. Hand off: wake the selected operation (if different from op) and park
//     op until it is itself woken again.
func (s *Scheduler) ScheduleNext(op *registry.Operation, point PointKind) error {
	if s.detached.Load() {
		return ErrExecutionCanceled
	}

	if d, ok := s.strat.(strategy.DelayStrategy); ok {
		s.Lock()
		delay := d.NextDelay(op)
		s.Unlock()
		time.Sleep(delay)
	}

	s.Lock()
	s.steps++
	s.hasRun = true
	enabled := s.Enabled()

	if len(enabled) == 0 {
		if !s.AllTerminal() {
			s.reportFailureLocked(Deadlock, "no enabled operations remain but some have not completed")
			s.detachLocked()
			s.Unlock()
			return ErrExecutionCanceled
		}
		// Every operation finished: a normal, bug-free end of run.
		s.detachLocked()
		s.Unlock()
		return ErrExecutionCanceled
	}

	if s.maxSteps > 0 && s.steps > s.maxSteps {
		if s.considerDepthBoundHitAsBug {
			s.reportFailureLocked(MaxStepsReached, fmt.Sprintf(
				"scheduled_steps (%d) exceeded max_scheduled_steps (%d)", s.steps, s.maxSteps))
		}
		s.detachLocked()
		s.Unlock()
		return ErrExecutionCanceled
	}

	var current *registry.Operation
	if s.currentID >= 0 {
		current, _ = s.Get(s.currentID)
	}
	selected := s.strat.NextOperation(enabled, current, point == Yield)
	if selected == nil {
		if r, ok := s.strat.(interface{ LastError() error }); ok && r.LastError() != nil {
			s.reportFailureLocked(TraceNotReproducible, r.LastError().Error())
		}
		s.detachLocked()
		s.Unlock()
		return ErrExecutionCanceled
	}

	if v, ok := s.strat.(interface{ Violated() bool }); ok && v.Violated() {
		s.reportFailureLocked(LivenessViolation, "liveness temperature exceeded configured threshold")
		s.detachLocked()
		s.Unlock()
		return ErrExecutionCanceled
	}

	if err := s.recorder.Append(trace.Step{Kind: trace.SchedulingChoice, OperationID: selected.ID}); err != nil {
		if s.considerDepthBoundHitAsBug {
			s.reportFailureLocked(MaxStepsReached, err.Error())
		}
		s.detachLocked()
		s.Unlock()
		return ErrExecutionCanceled
	}

	selected.TimesScheduled++
	if selected.ID == s.currentID {
		selected.ConsecutiveScheduled++
	} else {
		selected.ConsecutiveScheduled = 1
	}
	s.currentID = selected.ID

	if selected.ID == op.ID {
		// Continuing to run: no handoff required.
		s.Unlock()
		return nil
	}

	selected.Wake()
	terminal := op.Status.Terminal()
	s.Unlock()

	if terminal {
		// op has nothing left to do regardless of who runs next (it just
		// completed or was canceled); parking here would wait for a wake
		// that will never come, since a terminal operation is excluded
		// from both the enabled set and detachLocked's wake-everyone pass.
		return nil
	}

	op.Park()
	if s.detached.Load() {
		return ErrExecutionCanceled
	}
	return nil
}

// CompleteOperation marks op Completed and invokes ScheduleNext on its
// behalf, so the operation that just finished participates in picking its
// successor one last time.
func (s *Scheduler) CompleteOperation(op *registry.Operation) error {
	s.Lock()
	op.Status = registry.Completed
	s.Unlock()
	return s.ScheduleNext(op, Stop)
}

// Wait marks op blocked on the given operation ids (waitAll selects
// BlockedOnWaitAll semantics, otherwise BlockedOnWaitAny) and yields via
// ScheduleNext. The caller is responsible for re-enabling op (setting its
// Status back to Enabled) once the awaited condition is satisfied, typically
// from another operation's Send/Release call.
func (s *Scheduler) Wait(op *registry.Operation, ids []int, waitAll bool) error {
	s.Lock()
	set := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	op.WaitSet = set
	op.WaitAll = waitAll
	if waitAll {
		op.Status = registry.BlockedOnWaitAll
	} else {
		op.Status = registry.BlockedOnWaitAny
	}
	s.Unlock()
	return s.ScheduleNext(op, Wait)
}

// BlockOnReceive marks op BlockedOnReceive (its inbox is empty and no raised
// or default event is pending) and yields via ScheduleNext. Call sites
// re-enable op with Enable once an event arrives.
func (s *Scheduler) BlockOnReceive(op *registry.Operation) error {
	s.Lock()
	op.Status = registry.BlockedOnReceive
	s.Unlock()
	return s.ScheduleNext(op, Receive)
}

// Enable transitions a blocked operation back to Enabled. Call sites that
// satisfy a wait (Send completing a Receive, Release freeing a resource)
// call this under their own higher-level critical section; Enable itself
// takes the registry lock.
func (s *Scheduler) Enable(op *registry.Operation) {
	s.Lock()
	defer s.Unlock()
	if op.Status.Blocked() {
		op.Status = registry.Enabled
		op.WaitSet = nil
	}
}

// NextBoolean consults the strategy for a nondeterministic boolean choice,
// appends a BooleanChoice step, and returns it without blocking the caller
// or changing which operation is current.
func (s *Scheduler) NextBoolean(op *registry.Operation, max int) bool {
	if s.detached.Load() {
		return false
	}
	s.Lock()
	defer s.Unlock()
	v := s.strat.NextBoolean(op, max)
	_ = s.recorder.Append(trace.Step{Kind: trace.BooleanChoice, Bool: v})
	return v
}

// NextInteger consults the strategy for a nondeterministic bounded integer
// choice in [0, max) and appends an IntegerChoice step.
func (s *Scheduler) NextInteger(op *registry.Operation, max int) int {
	if s.detached.Load() {
		return 0
	}
	s.Lock()
	defer s.Unlock()
	v := s.strat.NextInteger(op, max)
	_ = s.recorder.Append(trace.Step{Kind: trace.IntegerChoice, Int: v})
	return v
}

// NotifyAssertionFailure records an AssertionFailure bug report on behalf of
// op and detaches the run: every other operation's next scheduler call
// observes ErrExecutionCanceled.
func (s *Scheduler) NotifyAssertionFailure(op *registry.Operation, message string) {
	s.Lock()
	s.reportFailureLocked(AssertionFailure, message)
	s.detachLocked()
	s.Unlock()
}

// Recover reports a panic recovered from an operation's goroutine as an
// UnhandledException failure rather than crashing the process.
func (s *Scheduler) Recover(op *registry.Operation, recovered any) {
	s.Lock()
	s.reportFailureLocked(UnhandledException, fmt.Sprintf("operation %q panicked: %v", op.Name, recovered))
	s.detachLocked()
	s.Unlock()
}

// reportFailureLocked records the first failure of the run; subsequent
// calls (e.g. two operations racing to report different bugs as the run
// winds down) are ignored — only the first is ever surfaced.
func (s *Scheduler) reportFailureLocked(kind FailureKind, message string) {
	if s.failure != nil {
		return
	}
	snap := s.Snapshot()
	lines := make([]string, 0, len(snap))
	for _, op := range snap {
		lines = append(lines, fmt.Sprintf("#%d %s: %s", op.ID, op.Name, op.Status))
	}
	s.failure = &Failure{Kind: kind, Message: message, Snapshot: lines}
}

// detachLocked marks the run canceled and wakes every still-alive operation
// so each observes ErrExecutionCanceled the next time it touches the
// scheduler. Must be called with the lock held.
func (s *Scheduler) detachLocked() {
	if s.detached.Load() {
		return
	}
	s.detached.Store(true)
	for _, op := range s.All() {
		if !op.Status.Terminal() {
			op.Wake()
		}
	}
	if s.failure != nil && s.OnFailure != nil {
		f := *s.failure
		go s.OnFailure(f)
	}
}
