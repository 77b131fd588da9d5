package weave

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/latticeforge/weave/actor"
	"github.com/latticeforge/weave/registry"
	"github.com/latticeforge/weave/scheduler"
	"github.com/latticeforge/weave/spec"
)

// ScenarioFunc is a named test scenario: the body the scheduler drives as
// the run's first operation. self is that top-level operation's own
// handle, so the scenario body can declare scheduling points and yield to
// its spawned children the same way any operation does — without it,
// nothing would ever hand control to a freshly spawned child, since a new
// operation only starts running once some other operation's ScheduleNext
// selects it. Scenarios resolve through this in-process registry rather
// than through any kind of bytecode or reflection trick: a package
// registers itself from an init function via Register, the same
// `import _` side-effect-registration pattern used elsewhere for plugin
// style registries.
type ScenarioFunc func(rt *Runtime, self OperationHandle)

var (
	registryMu sync.Mutex
	scenarios  = map[string]ScenarioFunc{}
)

// Register adds a named scenario to the process-wide registry. Scenario
// packages call this from an init function; cmd/weavetest resolves
// --method against it.
func Register(name string, fn ScenarioFunc) {
	registryMu.Lock()
	defer registryMu.Unlock()
	scenarios[name] = fn
}

// Lookup returns the scenario registered under name, if any.
func Lookup(name string) (ScenarioFunc, bool) {
	registryMu.Lock()
	defer registryMu.Unlock()
	fn, ok := scenarios[name]
	return fn, ok
}

// IterationResult is one RunIterations iteration's outcome.
type IterationResult struct {
	Iteration int
	Failure   *FailureReport
	Steps     int
	Trace     []byte // serialized schedule trace, non-nil only on failure
}

// RunResult aggregates every iteration RunIterations ran.
type RunResult struct {
	Iterations []IterationResult
	// Failed is the first failing iteration, or nil if every iteration of
	// the requested budget completed without a bug. cmd/weavetest maps
	// this directly to its exit code.
	Failed *IterationResult
}

// Runner drives named scenarios through scheduler.Scheduler, wiring
// Logger/Observer/CloudEvent publication the same way across every
// iteration.
type Runner struct {
	Config Config
	Logger Logger

	observerHub *observerHub
}

// NewRunner creates a Runner with cfg and logger (NewSlogLogger() if nil).
func NewRunner(cfg Config, logger Logger) *Runner {
	if logger == nil {
		logger = NewSlogLogger()
	}
	return &Runner{Config: cfg, Logger: logger, observerHub: newObserverHub()}
}

// RegisterObserver implements Subject.
func (r *Runner) RegisterObserver(observer Observer, eventTypes ...string) error {
	return r.observerHub.RegisterObserver(observer, eventTypes...)
}

// UnregisterObserver implements Subject.
func (r *Runner) UnregisterObserver(observer Observer) error {
	return r.observerHub.UnregisterObserver(observer)
}

// NotifyObservers implements Subject.
func (r *Runner) NotifyObservers(ctx context.Context, event ObserverEvent) error {
	return r.observerHub.NotifyObservers(ctx, event)
}

// RunIterations runs the scenario registered under name for
// Config.NumberOfIterations iterations (or at least 1), stopping at the
// first iteration that reports a failure, matching cmd/weavetest's
// documented exit-code contract.
func (r *Runner) RunIterations(name string) (*RunResult, error) {
	fn, ok := Lookup(name)
	if !ok {
		return nil, fmt.Errorf("weave: no scenario registered as %q", name)
	}

	n := r.Config.NumberOfIterations
	if n <= 0 {
		n = 1
	}

	result := &RunResult{}
	for i := 0; i < n; i++ {
		ir, err := r.runOne(i, fn)
		if err != nil {
			return result, err
		}
		result.Iterations = append(result.Iterations, ir)
		if ir.Failure != nil {
			f := ir
			result.Failed = &f
			break
		}
	}
	return result, nil
}

func (r *Runner) runOne(iter int, fn ScenarioFunc) (IterationResult, error) {
	seed := drawSeed(r.Config, iter)

	base, err := newBaseStrategy(r.Config, int64(seed))
	if err != nil {
		return IterationResult{}, err
	}

	header := traceHeader(r.Config, base, seed)
	sched := scheduler.New(base, header, scheduler.Config{
		MaxScheduledSteps:          r.Config.MaxScheduledSteps,
		ConsiderDepthBoundHitAsBug: r.Config.ConsiderDepthBoundHitAsBug,
	})
	// The Liveness wrapper needs a spec.Engine to observe, and the engine
	// needs this scheduler to route assertion failures through — so the
	// liveness-wrapped strategy is spliced in only after both exist.
	engine := spec.NewEngine(sched)
	sched.SetStrategy(wrapLiveness(r.Config, base, engine))
	arena := actor.NewArena(sched)

	rt := &Runtime{sched: sched, engine: engine, arena: arena, logger: r.Logger}

	ctx := context.Background()
	_ = r.NotifyObservers(ctx, ObserverEvent{
		Type: EventIterationStarted, Source: "weave.Runner", Timestamp: time.Now(),
		Data: map[string]any{"iteration": iter, "seed": seed},
	})

	var fuzzer *scheduler.Fuzzer
	if r.Config.Strategy == "fuzz" {
		fuzzer = scheduler.NewFuzzer(sched)
		fuzzer.Start()
	}

	done := make(chan struct{})
	op := sched.Spawn("scenario", func(op *registry.Operation) {
		defer close(done)
		defer func() {
			if rec := recover(); rec != nil {
				sched.Recover(op, rec)
			}
		}()
		fn(rt, OperationHandle{op: op})
		_ = sched.CompleteOperation(op)
	})
	op.Wake() // bootstrap: the first operation has no parent to select it
	<-done

	if fuzzer != nil {
		fuzzer.Stop()
	}

	ir := IterationResult{Iteration: iter, Steps: sched.Steps()}
	if f := sched.Failure(); f != nil {
		report := FailureReport{Kind: f.Kind, Message: f.Message, Iteration: iter, Snapshot: f.Snapshot}
		ir.Failure = &report

		var buf fileBuffer
		_ = sched.Trace().WriteTo(&buf)
		ir.Trace = buf.Bytes()

		_ = r.NotifyObservers(ctx, ObserverEvent{
			Type: EventIterationFailed, Source: "weave.Runner", Timestamp: time.Now(),
			Data: map[string]any{"iteration": iter, "kind": f.Kind.String(), "message": f.Message},
		})
	} else {
		_ = r.NotifyObservers(ctx, ObserverEvent{
			Type: EventIterationFinished, Source: "weave.Runner", Timestamp: time.Now(),
			Data: map[string]any{"iteration": iter, "steps": ir.Steps},
		})
	}
	return ir, nil
}

// PersistTrace writes an iteration's trace bytes to dir, named by iteration
// number, and returns the path. Used by cmd/weavetest to emit a trace file
// whenever an iteration finds a bug.
func PersistTrace(dir string, iteration int, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("iteration-%d.trace", iteration))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func openTraceFile(path string) (*os.File, error) {
	return os.Open(path)
}

func millisToDuration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// fileBuffer is a tiny io.Writer sink so runOne doesn't need to import
// bytes just for WriteTo's target; kept local since it's only ever used
// here.
type fileBuffer struct {
	data []byte
}

func (b *fileBuffer) Write(p []byte) (int, error) {
	b.data = append(b.data, p...)
	return len(p), nil
}

func (b *fileBuffer) Bytes() []byte { return b.data }
