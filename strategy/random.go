package strategy

import (
	"fmt"
	"math/rand"

	"github.com/latticeforge/weave/registry"
)

// Random picks uniformly among enabled operations using an injected PRNG
// seeded by Seed. It is fair: every continually-enabled operation is picked
// infinitely often with probability 1.
type Random struct {
	Seed int64

	rng   *rand.Rand
	steps int
}

// NewRandom creates a Random strategy seeded with seed.
func NewRandom(seed int64) *Random {
	return &Random{Seed: seed, rng: rand.New(rand.NewSource(seed))}
}

func (s *Random) InitializeNextIteration(int) bool {
	s.rng = rand.New(rand.NewSource(s.Seed))
	s.steps = 0
	return true
}

func (s *Random) NextOperation(enabled []*registry.Operation, current *registry.Operation, isYielding bool) *registry.Operation {
	if len(enabled) == 0 {
		return nil
	}
	s.steps++
	return enabled[s.rng.Intn(len(enabled))]
}

func (s *Random) NextBoolean(current *registry.Operation, max int) bool {
	s.steps++
	return s.rng.Intn(2) == 1
}

func (s *Random) NextInteger(current *registry.Operation, max int) int {
	s.steps++
	if max <= 0 {
		return 0
	}
	return s.rng.Intn(max)
}

func (s *Random) StepCount() int          { return s.steps }
func (s *Random) IsMaxStepsReached() bool { return false }
func (s *Random) IsFair() bool            { return true }
func (s *Random) Description() string     { return fmt.Sprintf("random(seed=%d)", s.Seed) }
func (s *Random) Reset()                  { s.steps = 0 }
