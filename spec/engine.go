package spec

import (
	"sync"

	"github.com/latticeforge/weave/registry"
	"github.com/latticeforge/weave/scheduler"
)

// Engine is the Specification Engine: it owns every declared Monitor,
// delivers each event passed to Broadcast (Runtime.OnMonitorEvent) to each
// of them, and
// implements strategy.HotStateProvider so a strategy.Liveness wrapper can
// ask whether any monitor currently sits in a hot state. Events an actor
// sends with actor.Actor.Send are not broadcast.
type Engine struct {
	sched *scheduler.Scheduler

	mu       sync.Mutex
	monitors map[string]*Monitor
	order    []string
	current  *registry.Operation
}

// NewEngine creates an Engine whose assertion failures route through
// sched.
func NewEngine(sched *scheduler.Scheduler) *Engine {
	return &Engine{sched: sched, monitors: make(map[string]*Monitor)}
}

// Declare registers a monitor built from states/start under name and
// returns it.
func (e *Engine) Declare(name string, b *MonitorBuilder) *Monitor {
	e.mu.Lock()
	defer e.mu.Unlock()
	m := newMonitor(name, b.states, b.start, e)
	e.monitors[name] = m
	e.order = append(e.order, name)
	if def := m.states[m.state]; def != nil && def.OnEntry != nil {
		def.OnEntry(m)
	}
	return m
}

// Broadcast delivers event to every declared monitor synchronously, on the
// calling goroutine, before returning — the scheduler does not consult the
// strategy while a monitor handler runs. op identifies the operation on
// whose behalf the event is being broadcast, so a failing Assert inside a
// handler can be attributed to it; Engine itself holds no ambient notion
// of "the current operation", so every call must pass it explicitly.
func (e *Engine) Broadcast(op *registry.Operation, event string, payload any) {
	e.mu.Lock()
	e.current = op
	names := append([]string(nil), e.order...)
	e.mu.Unlock()

	for _, name := range names {
		e.mu.Lock()
		m := e.monitors[name]
		e.mu.Unlock()
		m.deliver(event, payload)
	}
}

// AnyHot reports whether any declared monitor currently sits in a Hot
// state. Implements strategy.HotStateProvider.
func (e *Engine) AnyHot() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, name := range e.order {
		if e.monitors[name].Temperature() == Hot {
			return true
		}
	}
	return false
}

// Monitor looks up a declared monitor by name.
func (e *Engine) Monitor(name string) (*Monitor, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	m, ok := e.monitors[name]
	return m, ok
}

func (e *Engine) reportAssertion(message string) {
	e.mu.Lock()
	op := e.current
	e.mu.Unlock()
	if op == nil {
		return
	}
	e.sched.NotifyAssertionFailure(op, message)
}
