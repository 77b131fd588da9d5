package actor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticeforge/weave/registry"
	"github.com/latticeforge/weave/scheduler"
	"github.com/latticeforge/weave/strategy"
	"github.com/latticeforge/weave/trace"
)

func newBareActor(states ...*StateDef) *Actor {
	m := NewMachine(states[0].Name)
	for _, s := range states {
		m.AddState(s)
	}
	return &Actor{machine: m.Build(), stack: []string{states[0].Name}}
}

func TestDequeuePrefersRaisedOverInbox(t *testing.T) {
	s := NewState("s").Build()
	a := newBareActor(s)
	a.inbox = []Event{{Name: "queued"}}
	a.raised = &Event{Name: "raised"}

	ev, result := a.dequeue()
	assert.Equal(t, resultRaised, result)
	assert.Equal(t, "raised", ev.Name)
	assert.Nil(t, a.raised)
	assert.Len(t, a.inbox, 1) // the queued event is untouched
}

func TestDequeueSkipsDeferredInboxEntries(t *testing.T) {
	s := NewState("s").DeferOn("wait-for-it").Build()
	a := newBareActor(s)
	a.inbox = []Event{{Name: "wait-for-it"}, {Name: "ready"}}

	ev, result := a.dequeue()
	assert.Equal(t, resultSuccess, result)
	assert.Equal(t, "ready", ev.Name)
	require.Len(t, a.inbox, 1)
	assert.Equal(t, "wait-for-it", a.inbox[0].Name)
}

func TestDequeueFallsBackToDefaultWhenInboxEmpty(t *testing.T) {
	s := NewState("s").WithDefault(func(a *Actor, e Event) {}).Build()
	a := newBareActor(s)

	ev, result := a.dequeue()
	assert.Equal(t, resultDefault, result)
	assert.Equal(t, Default, ev.Category)
}

func TestDequeueNotAvailableWhenNothingToDeliver(t *testing.T) {
	s := NewState("s").Build()
	a := newBareActor(s)

	_, result := a.dequeue()
	assert.Equal(t, resultNotAvailable, result)
}

func TestIsDeferredChecksTheWholeStack(t *testing.T) {
	base := NewState("base").DeferOn("later").Build()
	pushed := NewState("pushed").Build()
	a := newBareActor(base, pushed)
	a.stack = []string{"base", "pushed"}

	assert.True(t, a.isDeferred("later"))
	assert.False(t, a.isDeferred("now"))
}

func TestLookupBubblesFromTopOfStackDownward(t *testing.T) {
	base := NewState("base").OnEvent("shared", func(a *Actor, e Event) {}).Build()
	pushed := NewState("pushed").Build()
	a := newBareActor(base, pushed)
	a.stack = []string{"base", "pushed"}

	h, ok := a.lookup("shared")
	require.True(t, ok)
	assert.Equal(t, DoAction, h.Kind)

	_, ok = a.lookup("nonexistent")
	assert.False(t, ok)
}

// TestGotoChainEndToEnd drives an actor through a real scheduler: S1's
// OnEntry raises a unit event that S1 handles with a Goto to S2, whose
// OnEntry sets a sentinel.
func TestGotoChainEndToEnd(t *testing.T) {
	sched := scheduler.New(strategy.NewRandom(1), trace.Header{Strategy: "random"}, scheduler.Config{MaxScheduledSteps: 1000})
	arena := NewArena(sched)

	sentinel := 0
	halted := make(chan struct{})

	s2 := NewState("S2").OnEntry(func(a *Actor) {
		sentinel = 101
		a.Halt()
	}).Build()
	s1 := NewState("S1").
		OnEntry(func(a *Actor) { a.Raise(Event{Name: "advance"}) }).
		GotoOn("advance", "S2").
		Build()
	machine := NewMachine("S1").AddState(s1).AddState(s2).Build()

	driver := sched.Spawn("driver", func(op *registry.Operation) {
		arena.Spawn("chain", machine)
		_ = sched.ScheduleNext(op, scheduler.Create)
		for i := 0; i < 10 && sentinel == 0; i++ {
			_ = sched.ScheduleNext(op, scheduler.Yield)
		}
		close(halted)
		_ = sched.CompleteOperation(op)
	})
	driver.Wake()

	select {
	case <-halted:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the goto chain to run")
	}
	assert.Equal(t, 101, sentinel)
}

// TestRaiseFromOnExitReportsAssertionFailure checks that an OnExit handler
// raising an event is forbidden and reported as an assertion failure.
func TestRaiseFromOnExitReportsAssertionFailure(t *testing.T) {
	sched := scheduler.New(strategy.NewRandom(1), trace.Header{Strategy: "random"}, scheduler.Config{MaxScheduledSteps: 1000})
	arena := NewArena(sched)

	next := NewState("next").Build()
	leaving := NewState("leaving").
		OnEntry(func(a *Actor) { a.Raise(Event{Name: "go"}) }).
		OnExit(func(a *Actor) { a.Raise(Event{Name: "forbidden"}) }).
		GotoOn("go", "next").
		Build()
	machine := NewMachine("leaving").AddState(leaving).AddState(next).Build()

	done := make(chan struct{})
	driver := sched.Spawn("driver", func(op *registry.Operation) {
		arena.Spawn("leaver", machine)
		_ = sched.ScheduleNext(op, scheduler.Create)
		for i := 0; i < 10 && sched.Failure() == nil; i++ {
			_ = sched.ScheduleNext(op, scheduler.Yield)
		}
		close(done)
	})
	driver.Wake()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
	}

	require.NotNil(t, sched.Failure())
	assert.Equal(t, scheduler.AssertionFailure, sched.Failure().Kind)
	assert.Equal(t, "performed a 'RaiseEvent' transition from an OnExit action", sched.Failure().Message)
}
