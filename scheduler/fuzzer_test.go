package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticeforge/weave/registry"
	"github.com/latticeforge/weave/strategy"
	"github.com/latticeforge/weave/trace"
)

// TestFuzzerReportsDeadlockAfterQuiescentWindow checks that a still-alive
// run making no scheduling progress for the configured number of ticks is
// reported the same way a lockstep Deadlock would be.
func TestFuzzerReportsDeadlockAfterQuiescentWindow(t *testing.T) {
	sched := New(strategy.NewFuzz(1, 0, 0), trace.Header{Strategy: "fuzz"}, Config{})
	// Spawn registers the operation but never wakes it, so it sits Enabled
	// forever without ever running: Steps() never advances, and the
	// operation is never terminal either.
	sched.Spawn("stuck", func(op *registry.Operation) {})

	fuzzer := NewFuzzer(sched)
	fuzzer.QuiescentTicks = 2
	fuzzer.Start()
	defer fuzzer.Stop()

	require.Eventually(t, func() bool {
		return sched.Failure() != nil
	}, 3*time.Second, 10*time.Millisecond)

	assert.Equal(t, Deadlock, sched.Failure().Kind)
}

func TestFuzzerStartThenStopReturns(t *testing.T) {
	sched := New(strategy.NewRandom(1), trace.Header{Strategy: "random"}, Config{})
	fuzzer := NewFuzzer(sched)
	fuzzer.Start()
	fuzzer.Stop()
}
