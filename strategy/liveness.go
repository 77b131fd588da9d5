package strategy

import (
	"github.com/latticeforge/weave/registry"
)

// HotStateProvider reports the current liveness temperature contribution:
// true when at least one monitor is in a hot state at the moment a decision
// is made. spec.Engine implements this; strategy package stays decoupled
// from spec to avoid an import cycle (spec depends on nothing here, and
// package weave's wrapLiveness wires the two together).
type HotStateProvider interface {
	AnyHot() bool
}

// Liveness wraps any base Strategy and tracks a "temperature" counter,
// incremented whenever the supplied HotStateProvider reports a monitor in a
// hot state at decision time, decremented otherwise (floored at zero). If
// temperature exceeds Threshold, the next scheduling decision reports a
// fair-cycle liveness violation via Violated().
type Liveness struct {
	Base      Strategy
	Hot       HotStateProvider
	Threshold int

	temperature int
	violated    bool
}

// NewLiveness wraps base with liveness-temperature tracking against hot,
// reporting a violation once temperature exceeds threshold.
func NewLiveness(base Strategy, hot HotStateProvider, threshold int) *Liveness {
	return &Liveness{Base: base, Hot: hot, Threshold: threshold}
}

func (s *Liveness) observe() {
	if s.Hot != nil && s.Hot.AnyHot() {
		s.temperature++
	} else if s.temperature > 0 {
		s.temperature--
	}
	if s.temperature > s.Threshold {
		s.violated = true
	}
}

// Violated reports whether temperature has ever exceeded Threshold since the
// last Reset.
func (s *Liveness) Violated() bool { return s.violated }

// Temperature returns the current liveness temperature.
func (s *Liveness) Temperature() int { return s.temperature }

func (s *Liveness) InitializeNextIteration(iter int) bool {
	s.temperature = 0
	s.violated = false
	return s.Base.InitializeNextIteration(iter)
}

func (s *Liveness) NextOperation(enabled []*registry.Operation, current *registry.Operation, isYielding bool) *registry.Operation {
	op := s.Base.NextOperation(enabled, current, isYielding)
	s.observe()
	return op
}

func (s *Liveness) NextBoolean(current *registry.Operation, max int) bool {
	v := s.Base.NextBoolean(current, max)
	s.observe()
	return v
}

func (s *Liveness) NextInteger(current *registry.Operation, max int) int {
	v := s.Base.NextInteger(current, max)
	s.observe()
	return v
}

func (s *Liveness) StepCount() int          { return s.Base.StepCount() }
func (s *Liveness) IsMaxStepsReached() bool { return s.Base.IsMaxStepsReached() }
func (s *Liveness) IsFair() bool            { return s.Base.IsFair() }
func (s *Liveness) Description() string     { return "liveness(" + s.Base.Description() + ")" }
func (s *Liveness) Reset() {
	s.temperature = 0
	s.violated = false
	s.Base.Reset()
}
