package strategy

import (
	"fmt"
	"math/rand"

	"github.com/latticeforge/weave/registry"
)

// ProbabilisticRandom stays on the currently running operation with
// probability P (if it is still enabled), and otherwise picks uniformly
// among the other enabled operations. Fair for any P < 1.
type ProbabilisticRandom struct {
	Seed int64
	P    float64

	rng   *rand.Rand
	steps int
}

// NewProbabilisticRandom creates a ProbabilisticRandom strategy with the
// given stay-probability p and PRNG seed.
func NewProbabilisticRandom(seed int64, p float64) *ProbabilisticRandom {
	return &ProbabilisticRandom{Seed: seed, P: p, rng: rand.New(rand.NewSource(seed))}
}

func (s *ProbabilisticRandom) InitializeNextIteration(int) bool {
	s.rng = rand.New(rand.NewSource(s.Seed))
	s.steps = 0
	return true
}

func (s *ProbabilisticRandom) NextOperation(enabled []*registry.Operation, current *registry.Operation, isYielding bool) *registry.Operation {
	if len(enabled) == 0 {
		return nil
	}
	s.steps++

	currentEnabled := false
	if current != nil {
		for _, op := range enabled {
			if op.ID == current.ID {
				currentEnabled = true
				break
			}
		}
	}

	if currentEnabled && !isYielding && s.rng.Float64() < s.P {
		return current
	}

	others := enabled
	if currentEnabled {
		others = make([]*registry.Operation, 0, len(enabled)-1)
		for _, op := range enabled {
			if op.ID != current.ID {
				others = append(others, op)
			}
		}
		if len(others) == 0 {
			return current
		}
	}
	return others[s.rng.Intn(len(others))]
}

func (s *ProbabilisticRandom) NextBoolean(current *registry.Operation, max int) bool {
	s.steps++
	return s.rng.Intn(2) == 1
}

func (s *ProbabilisticRandom) NextInteger(current *registry.Operation, max int) int {
	s.steps++
	if max <= 0 {
		return 0
	}
	return s.rng.Intn(max)
}

func (s *ProbabilisticRandom) StepCount() int          { return s.steps }
func (s *ProbabilisticRandom) IsMaxStepsReached() bool { return false }
func (s *ProbabilisticRandom) IsFair() bool            { return s.P < 1 }
func (s *ProbabilisticRandom) Description() string {
	return fmt.Sprintf("probabilistic(seed=%d,p=%.3f)", s.Seed, s.P)
}
func (s *ProbabilisticRandom) Reset() { s.steps = 0 }
