package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFuzzNextDelayIsBoundedByMaxDelay(t *testing.T) {
	s := NewFuzz(1, 100*time.Millisecond, 1000) // high rate: never throttled by the limiter
	for i := 0; i < 50; i++ {
		d := s.NextDelay(nil)
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, 100*time.Millisecond)
	}
}

func TestFuzzNextDelayIsZeroWhenMaxDelayUnset(t *testing.T) {
	s := NewFuzz(1, 0, 1000)
	assert.Equal(t, time.Duration(0), s.NextDelay(nil))
}

func TestFuzzDefaultsInjectionRateWhenNonPositive(t *testing.T) {
	s := NewFuzz(1, time.Second, 0)
	assert.Equal(t, 50.0, s.InjectionRate)
}

func TestFuzzIsFairAndPicksAmongEnabled(t *testing.T) {
	ops := enabledOps(0, 1, 2)
	s := NewFuzz(1, 0, 0)
	assert.True(t, s.IsFair())
	op := s.NextOperation(ops, nil, false)
	assert.Contains(t, []int{0, 1, 2}, op.ID)
}
