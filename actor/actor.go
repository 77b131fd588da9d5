// Package actor implements the state-machine actor layer: per-actor FIFO
// inboxes, a hierarchical state stack, and handler dispatch, wired to the
// scheduler so each actor's event-processing loop is itself an operation.
package actor

import (
	"fmt"
	"sync"

	"github.com/latticeforge/weave/registry"
	"github.com/latticeforge/weave/scheduler"
)

// Actor is an entity with an identity, a state stack, a FIFO inbox, and a
// reference to the operation the scheduler drives its event loop as. Actors
// are addressed by integer id through an Arena rather than holding direct
// pointers to each other, so the actor layer and the scheduler never form a
// reference cycle.
type Actor struct {
	ID   int
	Name string

	machine *Machine
	sched   *scheduler.Scheduler
	arena   *Arena
	op      *registry.Operation

	mu      sync.Mutex
	stack   []string
	inbox   []Event
	raised  *Event
	halted  bool
	exiting bool
}

// dequeueResult is the outcome of one call to dequeue: Success, Default,
// Raised, or NotAvailable.
type dequeueResult int

const (
	resultRaised dequeueResult = iota
	resultSuccess
	resultDefault
	resultNotAvailable
)

func (a *Actor) currentState() *StateDef {
	return a.machine.States[a.stack[len(a.stack)-1]]
}

// isDeferred reports whether name is deferred by any state currently on the
// stack: events deferred by lower states are still deferred across a Push.
func (a *Actor) isDeferred(name string) bool {
	for _, s := range a.stack {
		if a.machine.States[s].isDeferred(name) {
			return true
		}
	}
	return false
}

// dequeue picks the next event to dispatch: a pending raised event first,
// then the oldest non-deferred inbox entry, then the current state's
// default handler if the inbox is empty. Must be called with a.mu held.
func (a *Actor) dequeue() (Event, dequeueResult) {
	if a.raised != nil {
		ev := *a.raised
		a.raised = nil
		return ev, resultRaised
	}
	for i, ev := range a.inbox {
		if a.isDeferred(ev.Name) {
			continue
		}
		a.inbox = append(a.inbox[:i:i], a.inbox[i+1:]...)
		return ev, resultSuccess
	}
	if len(a.inbox) == 0 {
		if def := a.currentState().Default; def != nil {
			return Event{Category: Default}, resultDefault
		}
	}
	return Event{}, resultNotAvailable
}

// Send enqueues ev on target's inbox, re-enables target's operation if it
// was BlockedOnReceive, and yields a scheduling point on the sending
// actor.
func (a *Actor) Send(target *Actor, ev Event) error {
	ev.Category = Normal
	target.mu.Lock()
	target.inbox = append(target.inbox, ev)
	target.mu.Unlock()
	a.sched.Enable(target.op)
	return a.sched.ScheduleNext(a.op, scheduler.Send)
}

// Raise sets the actor's pending raised event, consumed before the inbox on
// the next dequeue. Calling Raise from an OnExit action is forbidden and
// reported as an assertion failure.
func (a *Actor) Raise(ev Event) {
	a.mu.Lock()
	if a.exiting {
		a.mu.Unlock()
		a.sched.NotifyAssertionFailure(a.op, "performed a 'RaiseEvent' transition from an OnExit action")
		return
	}
	ev.Category = Raised
	a.raised = &ev
	a.mu.Unlock()
}

// Goto pops the current state and pushes target, running the popped
// state's OnExit before the pushed state's OnEntry.
func (a *Actor) Goto(target string) {
	a.mu.Lock()
	from := a.stack[len(a.stack)-1]
	a.mu.Unlock()

	a.runExit(from)

	a.mu.Lock()
	a.stack[len(a.stack)-1] = target
	a.mu.Unlock()

	a.runEntry(target)
}

// Push pushes target onto the state stack without popping, running its
// OnEntry; events deferred by states lower on the stack remain deferred.
func (a *Actor) Push(target string) {
	a.mu.Lock()
	a.stack = append(a.stack, target)
	a.mu.Unlock()
	a.runEntry(target)
}

// Halt terminates the actor; its operation is marked Completed the next
// time the main loop observes a.halted.
func (a *Actor) Halt() {
	a.mu.Lock()
	a.halted = true
	a.mu.Unlock()
}

func (a *Actor) runEntry(state string) {
	def := a.machine.States[state]
	if def == nil || def.OnEntry == nil {
		return
	}
	def.OnEntry(a)
}

func (a *Actor) runExit(state string) {
	def := a.machine.States[state]
	if def == nil {
		return
	}
	a.mu.Lock()
	a.exiting = true
	a.mu.Unlock()
	if def.OnExit != nil {
		def.OnExit(a)
	}
	a.mu.Lock()
	a.exiting = false
	a.mu.Unlock()
}

// lookup walks the state stack from top to bottom looking for a handler
// declared for name, matching the hierarchical-state-machine rule that an
// event unhandled by the innermost state bubbles to the state beneath it.
func (a *Actor) lookup(name string) (Handler, bool) {
	a.mu.Lock()
	stack := append([]string(nil), a.stack...)
	a.mu.Unlock()
	for i := len(stack) - 1; i >= 0; i-- {
		def := a.machine.States[stack[i]]
		if h, ok := def.Handlers[name]; ok && h.Kind != DeferEvent {
			return h, true
		}
	}
	return Handler{}, false
}

func (a *Actor) dispatch(ev Event) {
	if ev.Category == Default {
		def := a.currentState().Default
		if def != nil && def.Action != nil {
			def.Action(a, ev)
		}
		return
	}

	h, ok := a.lookup(ev.Name)
	if !ok {
		return
	}
	switch h.Kind {
	case DoAction:
		if h.Action != nil {
			h.Action(a, ev)
		}
	case GotoState:
		a.Goto(h.Target)
	case PushState:
		a.Push(h.Target)
	case IgnoreEvent:
	case HaltEvent:
		a.Halt()
	}
}

// run is the actor's whole lifetime, scheduled as one operation: run the
// start state's OnEntry, then repeatedly dequeue and dispatch, yielding to
// the scheduler at Continue points between events.
func (a *Actor) run(op *registry.Operation) {
	defer func() {
		if r := recover(); r != nil {
			a.sched.Recover(op, r)
		}
	}()

	a.runEntry(a.machine.Start)

	for {
		a.mu.Lock()
		halted := a.halted
		a.mu.Unlock()
		if halted {
			_ = a.sched.CompleteOperation(op)
			return
		}

		a.mu.Lock()
		ev, result := a.dequeue()
		a.mu.Unlock()

		switch result {
		case resultNotAvailable:
			if err := a.sched.BlockOnReceive(op); err != nil {
				return
			}
			continue
		default:
			a.dispatch(ev)
		}

		a.mu.Lock()
		halted = a.halted
		a.mu.Unlock()
		if halted {
			_ = a.sched.CompleteOperation(op)
			return
		}

		if err := a.sched.ScheduleNext(op, scheduler.Continue); err != nil {
			return
		}
	}
}

// String renders the actor for diagnostics.
func (a *Actor) String() string {
	return fmt.Sprintf("actor#%d(%s)", a.ID, a.Name)
}
