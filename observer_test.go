package weave

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifyObserversDeliversToEveryRegisteredObserver(t *testing.T) {
	hub := newObserverHub()
	var gotA, gotB ObserverEvent

	a := NewFunctionalObserver("a", func(ctx context.Context, e ObserverEvent) error { gotA = e; return nil })
	b := NewFunctionalObserver("b", func(ctx context.Context, e ObserverEvent) error { gotB = e; return nil })
	require.NoError(t, hub.RegisterObserver(a))
	require.NoError(t, hub.RegisterObserver(b))

	event := ObserverEvent{Type: EventIterationStarted}
	require.NoError(t, hub.NotifyObservers(context.Background(), event))

	assert.Equal(t, EventIterationStarted, gotA.Type)
	assert.Equal(t, EventIterationStarted, gotB.Type)
}

func TestNotifyObserversFiltersByRegisteredEventTypes(t *testing.T) {
	hub := newObserverHub()
	var delivered int

	o := NewFunctionalObserver("only-failed", func(ctx context.Context, e ObserverEvent) error {
		delivered++
		return nil
	})
	require.NoError(t, hub.RegisterObserver(o, EventIterationFailed))

	require.NoError(t, hub.NotifyObservers(context.Background(), ObserverEvent{Type: EventIterationStarted}))
	assert.Equal(t, 0, delivered)

	require.NoError(t, hub.NotifyObservers(context.Background(), ObserverEvent{Type: EventIterationFailed}))
	assert.Equal(t, 1, delivered)
}

func TestUnregisterObserverStopsFurtherDelivery(t *testing.T) {
	hub := newObserverHub()
	var delivered int
	o := NewFunctionalObserver("o", func(ctx context.Context, e ObserverEvent) error { delivered++; return nil })
	require.NoError(t, hub.RegisterObserver(o))
	require.NoError(t, hub.UnregisterObserver(o))

	require.NoError(t, hub.NotifyObservers(context.Background(), ObserverEvent{Type: EventIterationStarted}))
	assert.Equal(t, 0, delivered)
}

func TestNotifyObserversIgnoresOneObserversError(t *testing.T) {
	hub := newObserverHub()
	var secondRan bool

	failing := NewFunctionalObserver("failing", func(ctx context.Context, e ObserverEvent) error {
		return errors.New("boom")
	})
	ok := NewFunctionalObserver("ok", func(ctx context.Context, e ObserverEvent) error {
		secondRan = true
		return nil
	})
	require.NoError(t, hub.RegisterObserver(failing))
	require.NoError(t, hub.RegisterObserver(ok))

	require.NoError(t, hub.NotifyObservers(context.Background(), ObserverEvent{Type: EventIterationStarted}))
	assert.True(t, secondRan)
}
