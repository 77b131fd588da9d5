package strategy

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/latticeforge/weave/registry"
)

// PCT implements the priority-change-point scheduler of Musuvathi et al.,
// "A Randomized Scheduler with Probabilistic Guarantees of Finding Bugs."
// Each operation is assigned a priority the first time it is seen (enabled
// for the first time becomes the initial ordering); PriorityChanges
// injection points are chosen upfront, uniformly at random within
// [0, ExpectedLength). At each of those step positions, the currently
// highest-priority operation is demoted to the lowest priority.
//
// PCT is not fair in general: a low-priority operation can be starved for
// an entire run if it's never the demoted one. Wrap with Liveness to catch
// the resulting infinite-unfair-cycle class of bug.
type PCT struct {
	Seed            int64
	PriorityChanges int
	ExpectedLength  int

	rng            *rand.Rand
	steps          int
	priority       map[int]int // operation id -> priority, lower number = higher priority
	nextPriority   int
	injectionSteps map[int]bool
	lowestPriority int
}

// NewPCT creates a PCT strategy that injects priorityChanges priority
// inversions across a run expected to last expectedLength steps.
func NewPCT(seed int64, priorityChanges, expectedLength int) *PCT {
	p := &PCT{Seed: seed, PriorityChanges: priorityChanges, ExpectedLength: expectedLength}
	p.reinit()
	return p
}

func (s *PCT) reinit() {
	s.rng = rand.New(rand.NewSource(s.Seed))
	s.steps = 0
	s.priority = make(map[int]int)
	s.nextPriority = 0
	s.lowestPriority = 0

	length := s.ExpectedLength
	if length <= 0 {
		length = 1
	}
	s.injectionSteps = make(map[int]bool, s.PriorityChanges)
	for len(s.injectionSteps) < s.PriorityChanges {
		s.injectionSteps[s.rng.Intn(length)] = true
	}
}

func (s *PCT) InitializeNextIteration(int) bool {
	s.reinit()
	return true
}

func (s *PCT) assignPriorities(enabled []*registry.Operation) {
	ids := make([]int, 0, len(enabled))
	for _, op := range enabled {
		if _, seen := s.priority[op.ID]; !seen {
			ids = append(ids, op.ID)
		}
	}
	sort.Ints(ids)
	for _, id := range ids {
		s.lowestPriority++
		s.priority[id] = s.lowestPriority
	}
}

func (s *PCT) NextOperation(enabled []*registry.Operation, current *registry.Operation, isYielding bool) *registry.Operation {
	if len(enabled) == 0 {
		return nil
	}
	s.assignPriorities(enabled)

	if s.injectionSteps[s.steps] {
		// Demote the currently highest-priority enabled operation (lowest
		// priority number) to below every other known priority.
		victim := pickByPriority(enabled, s.invert())
		if victim != nil {
			s.lowestPriority++
			s.priority[victim.ID] = s.lowestPriority
		}
	}

	s.steps++
	return pickByPriority(enabled, s.invert())
}

// invert turns the "lower number == higher priority" map into the
// "higher number == higher priority" shape pickByPriority expects.
func (s *PCT) invert() map[int]int {
	out := make(map[int]int, len(s.priority))
	for id, p := range s.priority {
		out[id] = -p
	}
	return out
}

func (s *PCT) NextBoolean(current *registry.Operation, max int) bool {
	s.steps++
	return s.rng.Intn(2) == 1
}

func (s *PCT) NextInteger(current *registry.Operation, max int) int {
	s.steps++
	if max <= 0 {
		return 0
	}
	return s.rng.Intn(max)
}

func (s *PCT) StepCount() int          { return s.steps }
func (s *PCT) IsMaxStepsReached() bool { return false }
func (s *PCT) IsFair() bool            { return false }
func (s *PCT) Description() string {
	return fmt.Sprintf("pct(seed=%d,changes=%d)", s.Seed, s.PriorityChanges)
}
func (s *PCT) Reset() { s.reinit() }
