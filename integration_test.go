package weave_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticeforge/weave"
	_ "github.com/latticeforge/weave/internal/testscenario"
)

func TestDeadlockScenarioReportsDeadlockWithinBudget(t *testing.T) {
	cfg := weave.DefaultConfig()
	result, err := weave.NewRunner(cfg, weave.NopLogger{}).RunIterations("deadlock")
	require.NoError(t, err)
	require.NotNil(t, result.Failed)
	assert.Equal(t, weave.Deadlock, result.Failed.Failure.Kind)
}

func TestGotoChainScenarioRunsToCompletionAndAsserts(t *testing.T) {
	cfg := weave.DefaultConfig()
	seed := uint64(7)
	cfg.RandomSeed = &seed
	cfg.NumberOfIterations = 1

	result, err := weave.NewRunner(cfg, weave.NopLogger{}).RunIterations("goto-chain")
	require.NoError(t, err)
	require.Len(t, result.Iterations, 1)
}

func TestRaceScenarioAcrossManyIterationsStaysWithinReportedFailureShape(t *testing.T) {
	cfg := weave.DefaultConfig()
	cfg.NumberOfIterations = 25
	result, err := weave.NewRunner(cfg, weave.NopLogger{}).RunIterations("race")
	require.NoError(t, err)

	if result.Failed != nil {
		assert.Equal(t, weave.AssertionFailure, result.Failed.Failure.Kind)
		assert.NotEmpty(t, result.Failed.Trace)
	}
}
