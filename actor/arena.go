package actor

import (
	"errors"
	"fmt"
	"sync"

	"github.com/latticeforge/weave/registry"
	"github.com/latticeforge/weave/scheduler"
)

// ErrActorNotFound is returned by Arena.Get for an unknown id.
var ErrActorNotFound = errors.New("actor not found")

// Arena is the actor-layer counterpart to registry.Registry: it owns every
// live Actor, addressed by integer id, so actor handlers never hold a
// direct pointer back into code that holds a pointer to them. The
// scheduler's registry.Registry addresses operations the same way; Arena
// addresses actors, and every Actor carries the *registry.Operation the
// scheduler drives its loop as.
type Arena struct {
	sched *scheduler.Scheduler

	mu     sync.Mutex
	actors map[int]*Actor
	nextID int
}

// NewArena creates an Arena whose actors are all scheduled through sched.
func NewArena(sched *scheduler.Scheduler) *Arena {
	return &Arena{sched: sched, actors: make(map[int]*Actor)}
}

// Spawn creates a new Actor running machine, registers it with the
// scheduler as a fresh operation, and starts its event loop. The caller is
// responsible for following Spawn with a scheduling point (typically
// ScheduleNext(parent, scheduler.Create)) on the creating operation.
func (ar *Arena) Spawn(name string, machine *Machine) *Actor {
	ar.mu.Lock()
	id := ar.nextID
	ar.nextID++
	a := &Actor{
		ID:      id,
		Name:    name,
		machine: machine,
		sched:   ar.sched,
		arena:   ar,
		stack:   []string{machine.Start},
	}
	ar.actors[id] = a
	ar.mu.Unlock()

	a.op = ar.sched.Spawn(name, func(op *registry.Operation) { a.run(op) })
	return a
}

// Get looks up a live actor by id.
func (ar *Arena) Get(id int) (*Actor, error) {
	ar.mu.Lock()
	defer ar.mu.Unlock()
	a, ok := ar.actors[id]
	if !ok {
		return nil, fmt.Errorf("%w: id=%d", ErrActorNotFound, id)
	}
	return a, nil
}

// All returns every actor ever spawned in this arena, in id order.
func (ar *Arena) All() []*Actor {
	ar.mu.Lock()
	defer ar.mu.Unlock()
	out := make([]*Actor, 0, len(ar.actors))
	for i := 0; i < ar.nextID; i++ {
		if a, ok := ar.actors[i]; ok {
			out = append(out, a)
		}
	}
	return out
}
