package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Registry errors.
var (
	ErrOperationNotFound  = errors.New("operation not found")
	ErrOperationCanceled  = errors.New("operation already canceled")
	ErrOperationCompleted = errors.New("operation already completed")
)

// Registry is the process-wide arena of Operations. It is guarded by a
// single mutex, the same mutex the Scheduler uses to protect the step
// counter, trace, and bug-report fields — the Scheduler embeds a *Registry
// and reuses its lock rather than layering a second one on top.
type Registry struct {
	mu     sync.Mutex
	nextID int
	ops    map[int]*Operation
	order  []int // insertion order, for deterministic iteration
}

// New creates an empty operation registry.
func New() *Registry {
	return &Registry{ops: make(map[int]*Operation)}
}

// Lock and Unlock expose the registry's mutex so the Scheduler can extend
// the same critical section across registry mutation and strategy
// consultation.
func (r *Registry) Lock()   { r.mu.Lock() }
func (r *Registry) Unlock() { r.mu.Unlock() }

// Create registers a new operation and returns it. Must be called with the
// registry lock held.
func (r *Registry) Create(name string) *Operation {
	id := r.nextID
	r.nextID++
	op := newOperation(id, name)
	r.ops[id] = op
	r.order = append(r.order, id)
	return op
}

// Get looks up an operation by id. Must be called with the registry lock
// held (or not, for read-only diagnostic use after the run has ended).
func (r *Registry) Get(id int) (*Operation, error) {
	op, ok := r.ops[id]
	if !ok {
		return nil, fmt.Errorf("%w: id=%d", ErrOperationNotFound, id)
	}
	return op, nil
}

// Enabled returns the set of currently Enabled operations, ordered by id for
// deterministic iteration (tie-breaking across strategies always proceeds in
// ascending id order).
func (r *Registry) Enabled() []*Operation {
	out := make([]*Operation, 0, len(r.ops))
	for _, id := range r.order {
		op := r.ops[id]
		if op.Status == Enabled {
			out = append(out, op)
		}
	}
	return out
}

// All returns every operation currently known to the registry, ordered by
// id.
func (r *Registry) All() []*Operation {
	out := make([]*Operation, 0, len(r.ops))
	for _, id := range r.order {
		out = append(out, r.ops[id])
	}
	return out
}

// AllTerminal reports whether every registered operation has reached a
// terminal status (Completed or Canceled). Used by the deadlock check: the
// enabled set being empty is only a deadlock if some operation is still
// alive.
func (r *Registry) AllTerminal() bool {
	for _, id := range r.order {
		if !r.ops[id].Status.Terminal() {
			return false
		}
	}
	return true
}

// Count returns the number of operations ever created.
func (r *Registry) Count() int {
	return len(r.ops)
}

// Snapshot returns a point-in-time, sorted-by-id copy of every operation's
// id/name/status, for diagnostics (deadlock reports, CLI --verbose output).
// It copies values, not pointers, so callers can't accidentally mutate live
// scheduler state.
type Snapshot struct {
	ID      int
	Name    string
	Status  Status
	WaitSet []int
}

func (r *Registry) Snapshot() []Snapshot {
	out := make([]Snapshot, 0, len(r.ops))
	for _, id := range r.order {
		op := r.ops[id]
		var wait []int
		for w := range op.WaitSet {
			wait = append(wait, w)
		}
		sort.Ints(wait)
		out = append(out, Snapshot{ID: op.ID, Name: op.Name, Status: op.Status, WaitSet: wait})
	}
	return out
}
