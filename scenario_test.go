package weave

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLookupRoundTrip(t *testing.T) {
	called := false
	Register("scenario_test.trivial", func(rt *Runtime, self OperationHandle) {
		called = true
		_ = rt.OnCompleteOperation(self)
	})

	fn, ok := Lookup("scenario_test.trivial")
	require.True(t, ok)

	cfg := DefaultConfig()
	cfg.NumberOfIterations = 1
	runner := NewRunner(cfg, NopLogger{})
	_, err := runner.RunIterations("scenario_test.trivial")
	require.NoError(t, err)
	_ = fn
	assert.True(t, called)
}

func TestLookupUnknownScenarioReportsNotFound(t *testing.T) {
	_, ok := Lookup("scenario_test.does-not-exist")
	assert.False(t, ok)
}

func TestRunIterationsReturnsErrorForUnregisteredScenario(t *testing.T) {
	runner := NewRunner(DefaultConfig(), NopLogger{})
	_, err := runner.RunIterations("scenario_test.does-not-exist")
	assert.Error(t, err)
}

func TestRunIterationsSucceedsWithNoAssertionFailure(t *testing.T) {
	Register("scenario_test.clean", func(rt *Runtime, self OperationHandle) {
		_ = rt.OnCompleteOperation(self)
	})

	cfg := DefaultConfig()
	result, err := NewRunner(cfg, NopLogger{}).RunIterations("scenario_test.clean")
	require.NoError(t, err)
	require.Len(t, result.Iterations, 1)
	assert.Nil(t, result.Failed)
	assert.Nil(t, result.Iterations[0].Failure)
}

func TestRunIterationsCapturesAssertionFailureAndTrace(t *testing.T) {
	Register("scenario_test.failing", func(rt *Runtime, self OperationHandle) {
		rt.Assert(self, false, "deliberate failure")
		_ = rt.OnCompleteOperation(self)
	})

	cfg := DefaultConfig()
	result, err := NewRunner(cfg, NopLogger{}).RunIterations("scenario_test.failing")
	require.NoError(t, err)
	require.NotNil(t, result.Failed)
	assert.Equal(t, AssertionFailure, result.Failed.Failure.Kind)
	assert.Equal(t, "deliberate failure", result.Failed.Failure.Message)
	assert.NotEmpty(t, result.Failed.Trace)
}

func TestRunIterationsStopsAtFirstFailure(t *testing.T) {
	Register("scenario_test.always-fails", func(rt *Runtime, self OperationHandle) {
		rt.Assert(self, false, "always fails")
		_ = rt.OnCompleteOperation(self)
	})

	cfg := DefaultConfig()
	cfg.NumberOfIterations = 5
	result, err := NewRunner(cfg, NopLogger{}).RunIterations("scenario_test.always-fails")
	require.NoError(t, err)
	assert.Len(t, result.Iterations, 1)
	require.NotNil(t, result.Failed)
}

func TestRunIterationsRejectsUnknownStrategy(t *testing.T) {
	Register("scenario_test.for-bad-strategy", func(rt *Runtime, self OperationHandle) {
		_ = rt.OnCompleteOperation(self)
	})

	cfg := DefaultConfig()
	cfg.Strategy = "not-a-real-strategy"
	_, err := NewRunner(cfg, NopLogger{}).RunIterations("scenario_test.for-bad-strategy")
	assert.Error(t, err)
}

func TestPersistTraceWritesFileNamedByIteration(t *testing.T) {
	dir := t.TempDir()
	path, err := PersistTrace(dir, 7, []byte("# strategy=random\n"))
	require.NoError(t, err)
	assert.Contains(t, path, "iteration-7.trace")
}
