package strategy

import (
	"math/rand"
	"time"

	"golang.org/x/time/rate"

	"github.com/latticeforge/weave/registry"
)

// Fuzz is a Random-based strategy augmented with a delay contract: at every
// scheduling point, scheduler.Scheduler.ScheduleNext asks the active
// DelayStrategy for a nondeterministic, nonnegative delay and sleeps the
// calling operation for it before making its decision. Fuzz bounds how
// often it injects a nonzero delay with a token-bucket rate.Limiter
// (golang.org/x/time/rate), so long fuzzing runs don't pay delay-injection
// overhead on every single step; when the bucket has a token, the delay
// itself is drawn from an exponential distribution capped at MaxDelay.
type Fuzz struct {
	Seed     int64
	MaxDelay time.Duration
	// InjectionRate bounds how many delays per second Fuzz is willing to
	// inject; defaults to 50/s if zero.
	InjectionRate float64

	rng     *rand.Rand
	limiter *rate.Limiter
	steps   int
}

// NewFuzz creates a Fuzz strategy seeded with seed, injecting delays up to
// maxDelay at most injectionRate times per second.
func NewFuzz(seed int64, maxDelay time.Duration, injectionRate float64) *Fuzz {
	if injectionRate <= 0 {
		injectionRate = 50
	}
	return &Fuzz{
		Seed:          seed,
		MaxDelay:      maxDelay,
		InjectionRate: injectionRate,
		rng:           rand.New(rand.NewSource(seed)),
		limiter:       rate.NewLimiter(rate.Limit(injectionRate), 1),
	}
}

func (s *Fuzz) InitializeNextIteration(int) bool {
	s.rng = rand.New(rand.NewSource(s.Seed))
	s.steps = 0
	s.limiter = rate.NewLimiter(rate.Limit(s.InjectionRate), 1)
	return true
}

func (s *Fuzz) NextOperation(enabled []*registry.Operation, current *registry.Operation, isYielding bool) *registry.Operation {
	if len(enabled) == 0 {
		return nil
	}
	s.steps++
	return enabled[s.rng.Intn(len(enabled))]
}

func (s *Fuzz) NextBoolean(current *registry.Operation, max int) bool {
	s.steps++
	return s.rng.Intn(2) == 1
}

func (s *Fuzz) NextInteger(current *registry.Operation, max int) int {
	s.steps++
	if max <= 0 {
		return 0
	}
	return s.rng.Intn(max)
}

// NextDelay implements DelayStrategy: a nonnegative, exponentially
// distributed delay capped at MaxDelay, injected no more often than
// InjectionRate per second.
func (s *Fuzz) NextDelay(current *registry.Operation) time.Duration {
	if s.MaxDelay <= 0 || !s.limiter.Allow() {
		return 0
	}
	frac := s.rng.ExpFloat64() / 4 // mean ~0.25 * MaxDelay
	if frac > 1 {
		frac = 1
	}
	return time.Duration(frac * float64(s.MaxDelay))
}

func (s *Fuzz) StepCount() int          { return s.steps }
func (s *Fuzz) IsMaxStepsReached() bool { return false }
func (s *Fuzz) IsFair() bool            { return true }
func (s *Fuzz) Description() string     { return "fuzz" }
func (s *Fuzz) Reset()                  { s.steps = 0 }
