package weave

import (
	"math/rand"

	"github.com/latticeforge/weave/actor"
	"github.com/latticeforge/weave/registry"
	"github.com/latticeforge/weave/scheduler"
	"github.com/latticeforge/weave/spec"
	"github.com/latticeforge/weave/strategy"
	"github.com/latticeforge/weave/trace"
)

// OperationHandle is the explicit, per-operation context parameter every
// Runtime method takes, in place of a thread-local "current operation" —
// Go has no safe goroutine-local storage, so the operation identity has to
// be threaded through explicitly. A scenario holds one handle per
// concurrent activity it spawns.
type OperationHandle struct {
	op *registry.Operation
}

// ID returns the operation's numeric id, for logging and diagnostics.
func (h OperationHandle) ID() int { return h.op.ID }

// Runtime is the interception surface user scenario code reaches the
// scheduler through. One Runtime is constructed per test iteration by
// RunIterations; scenario functions registered with Register receive it as
// their first argument, alongside their own OperationHandle.
type Runtime struct {
	sched  *scheduler.Scheduler
	engine *spec.Engine
	arena  *actor.Arena
	logger Logger
}

// Arena exposes the actor layer so a scenario can build state-machine
// actors rather than raw goroutine operations.
func (rt *Runtime) Arena() *actor.Arena { return rt.arena }

// Engine exposes the Specification Engine so a scenario can declare
// monitors.
func (rt *Runtime) Engine() *spec.Engine { return rt.engine }

// Logger returns the structured logger this iteration was configured with.
func (rt *Runtime) Logger() Logger { return rt.logger }

// OnCreateOperation registers fn as a new concurrent operation named name
// and starts it on its own goroutine; fn does not begin running until the
// scheduler selects it for the first time. Callers typically follow this
// with OnSchedulePoint(parent, scheduler.Create) so the creation itself
// participates in the schedule.
func (rt *Runtime) OnCreateOperation(name string, fn func(h OperationHandle)) OperationHandle {
	op := rt.sched.Spawn(name, func(op *registry.Operation) { fn(OperationHandle{op: op}) })
	return OperationHandle{op: op}
}

// OnSchedulePoint declares a scheduling point of the given kind on behalf
// of the currently running operation h. Returns ErrExecutionCanceled once
// the run has detached.
func (rt *Runtime) OnSchedulePoint(h OperationHandle, kind scheduler.PointKind) error {
	return rt.sched.ScheduleNext(h.op, kind)
}

// OnCompleteOperation marks h Completed.
func (rt *Runtime) OnCompleteOperation(h OperationHandle) error {
	return rt.sched.CompleteOperation(h.op)
}

// OnWait blocks h on the given operation ids, BlockedOnWaitAll if waitAll,
// else BlockedOnWaitAny.
func (rt *Runtime) OnWait(h OperationHandle, ids []int, waitAll bool) error {
	return rt.sched.Wait(h.op, ids, waitAll)
}

// OnReceiveEnter marks h BlockedOnReceive and yields.
func (rt *Runtime) OnReceiveEnter(h OperationHandle) error {
	return rt.sched.BlockOnReceive(h.op)
}

// OnReceiveExit re-enables h after a message satisfying its receive has
// arrived.
func (rt *Runtime) OnReceiveExit(h OperationHandle) {
	rt.sched.Enable(h.op)
}

// NextBoolean consults the active strategy for a nondeterministic boolean
// choice.
func (rt *Runtime) NextBoolean(h OperationHandle, max int) bool {
	return rt.sched.NextBoolean(h.op, max)
}

// NextInteger consults the active strategy for a nondeterministic bounded
// integer choice in [0, max).
func (rt *Runtime) NextInteger(h OperationHandle, max int) int {
	return rt.sched.NextInteger(h.op, max)
}

// OnMonitorEvent broadcasts event to every declared monitor synchronously
// on h's goroutine.
func (rt *Runtime) OnMonitorEvent(h OperationHandle, event string, payload any) {
	rt.engine.Broadcast(h.op, event, payload)
}

// Assert reports an AssertionFailure on h's behalf if ok is false. This is
// the entry point user scenario code calls directly (as opposed to
// assertions inside a declared Monitor, which route through
// spec.Monitor.Assert instead).
func (rt *Runtime) Assert(h OperationHandle, ok bool, message string) {
	if !ok {
		rt.sched.NotifyAssertionFailure(h.op, message)
	}
}

// newBaseStrategy builds the strategy.Strategy named by cfg.Strategy.
// Liveness wrapping is applied separately by wrapLiveness once a
// spec.Engine exists to observe, since the engine itself is constructed
// from the scheduler this strategy will drive.
func newBaseStrategy(cfg Config, seed int64) (strategy.Strategy, error) {
	switch cfg.Strategy {
	case "", "random":
		return strategy.NewRandom(seed), nil
	case "probabilistic":
		return strategy.NewProbabilisticRandom(seed, cfg.ProbabilisticStayProbability), nil
	case "pct":
		return strategy.NewPCT(seed, cfg.PCTPriorityChanges, cfg.MaxScheduledSteps), nil
	case "replay":
		f, err := openTraceFile(cfg.ReplayPath)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		t, err := trace.Parse(f)
		if err != nil {
			return nil, err
		}
		return strategy.NewReplay(*t, strategy.NewRandom(seed)), nil
	case "fuzz":
		return strategy.NewFuzz(seed, millisToDuration(cfg.FuzzMaxDelayMillis), cfg.FuzzInjectionRate), nil
	default:
		return nil, &UnknownStrategyError{Name: cfg.Strategy}
	}
}

// wrapLiveness wraps base in strategy.Liveness when cfg.LivenessEnabled.
func wrapLiveness(cfg Config, base strategy.Strategy, hot strategy.HotStateProvider) strategy.Strategy {
	if !cfg.LivenessEnabled {
		return base
	}
	return strategy.NewLiveness(base, hot, cfg.LivenessTemperatureThreshold)
}

// UnknownStrategyError is returned by newBaseStrategy (and therefore
// RunIterations) for an unrecognized Config.Strategy value.
type UnknownStrategyError struct{ Name string }

func (e *UnknownStrategyError) Error() string {
	return "weave: unknown strategy " + e.Name
}

func traceHeader(cfg Config, strat strategy.Strategy, seed uint64) trace.Header {
	return trace.Header{Strategy: strat.Description(), Fair: strat.IsFair(), Seed: seed, HasSeed: cfg.RandomSeed != nil}
}

func drawSeed(cfg Config, iter int) uint64 {
	if cfg.RandomSeed != nil {
		return *cfg.RandomSeed + uint64(iter)
	}
	return uint64(rand.Int63())
}
