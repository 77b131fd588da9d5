package strategy

import (
	"github.com/latticeforge/weave/registry"
	"github.com/latticeforge/weave/trace"
)

// Replay walks a previously recorded trace (already parsed by trace.Parse)
// and, on each call, advances a cursor and returns the operation id / boolean /
// integer recorded at that position — reproducing a prior run exactly.
//
// If Suffix is non-nil, Replay switches to it once the recorded trace is
// exhausted, so a user can extend exploration past the point a trace was
// captured; otherwise NextOperation returns nil once exhausted, signaling
// the scheduler to detach.
type Replay struct {
	Suffix Strategy

	replayer *trace.Replayer
	exceeded bool
	steps    int
}

// NewReplay creates a Replay strategy over t, optionally falling back to
// suffix once the trace is exhausted.
func NewReplay(t trace.Trace, suffix Strategy) *Replay {
	return &Replay{Suffix: suffix, replayer: trace.NewReplayer(t)}
}

func (s *Replay) InitializeNextIteration(iter int) bool {
	// Replay only ever drives a single iteration: the recorded trace.
	if iter > 0 {
		return false
	}
	if s.Suffix != nil {
		return s.Suffix.InitializeNextIteration(iter)
	}
	return true
}

func (s *Replay) NextOperation(enabled []*registry.Operation, current *registry.Operation, isYielding bool) *registry.Operation {
	if len(enabled) == 0 {
		return nil
	}
	if s.replayer.Exhausted() {
		if s.Suffix != nil {
			return s.Suffix.NextOperation(enabled, current, isYielding)
		}
		return nil
	}

	byID := make(map[int]*registry.Operation, len(enabled))
	enabledIDs := make(map[int]bool, len(enabled))
	for _, op := range enabled {
		byID[op.ID] = op
		enabledIDs[op.ID] = true
	}

	id, err := s.replayer.NextSchedulingChoice(enabledIDs)
	if err != nil {
		s.exceeded = true
		return nil
	}
	s.steps++
	return byID[id]
}

func (s *Replay) NextBoolean(current *registry.Operation, max int) bool {
	if s.replayer.Exhausted() && s.Suffix != nil {
		return s.Suffix.NextBoolean(current, max)
	}
	v, err := s.replayer.NextBoolean()
	if err != nil {
		s.exceeded = true
		return false
	}
	s.steps++
	return v
}

func (s *Replay) NextInteger(current *registry.Operation, max int) int {
	if s.replayer.Exhausted() && s.Suffix != nil {
		return s.Suffix.NextInteger(current, max)
	}
	v, err := s.replayer.NextInteger()
	if err != nil {
		s.exceeded = true
		return 0
	}
	s.steps++
	return v
}

func (s *Replay) StepCount() int { return s.steps }

func (s *Replay) IsMaxStepsReached() bool {
	return s.exceeded || (s.replayer.Exhausted() && s.Suffix == nil)
}

func (s *Replay) IsFair() bool {
	if s.Suffix != nil {
		return s.Suffix.IsFair()
	}
	return false
}

func (s *Replay) Description() string { return "replay" }

func (s *Replay) Reset() {
	s.exceeded = false
	if s.Suffix != nil {
		s.Suffix.Reset()
	}
}

// LastError returns the reproducibility error from the most recent call, if
// any Next* call failed validation against the recorded trace.
func (s *Replay) LastError() error {
	if !s.exceeded {
		return nil
	}
	return &trace.ErrNotReproducible{Reason: "recorded step did not match live execution"}
}
