package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/latticeforge/weave/registry"
)

func enabledOps(ids ...int) []*registry.Operation {
	r := registry.New()
	r.Lock()
	defer r.Unlock()
	ops := make([]*registry.Operation, 0, len(ids))
	for range ids {
		ops = append(ops, r.Create("op"))
	}
	return ops
}

func TestRandomNextOperationIsDeterministicForASeed(t *testing.T) {
	ops := enabledOps(0, 1, 2, 3)

	a := NewRandom(7)
	b := NewRandom(7)

	var seqA, seqB []int
	for i := 0; i < 20; i++ {
		seqA = append(seqA, a.NextOperation(ops, nil, false).ID)
		seqB = append(seqB, b.NextOperation(ops, nil, false).ID)
	}
	assert.Equal(t, seqA, seqB)
}

func TestRandomInitializeNextIterationRewindsTheSequence(t *testing.T) {
	ops := enabledOps(0, 1, 2)
	s := NewRandom(3)

	var first []int
	for i := 0; i < 10; i++ {
		first = append(first, s.NextOperation(ops, nil, false).ID)
	}

	s.InitializeNextIteration(1)
	var second []int
	for i := 0; i < 10; i++ {
		second = append(second, s.NextOperation(ops, nil, false).ID)
	}
	assert.Equal(t, first, second)
}

func TestRandomNextOperationReturnsNilWhenNothingEnabled(t *testing.T) {
	s := NewRandom(1)
	assert.Nil(t, s.NextOperation(nil, nil, false))
}

func TestRandomIsFair(t *testing.T) {
	s := NewRandom(1)
	assert.True(t, s.IsFair())
}
