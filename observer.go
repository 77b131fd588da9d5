// Package weave is the root package: the interception surface rewritten or
// directly authored user code reaches, realized as the method set of
// Runtime, plus the ambient stack (structured logging, failure reporting,
// CloudEvent publication) that goes alongside the core engineering.
package weave

import (
	"context"
	"sync"
	"time"
)

// ObserverEvent is a standardized notification emitted by Runner: iteration
// start/finish, and failure reports.
type ObserverEvent struct {
	Type      string
	Source    string
	Data      any
	Metadata  map[string]any
	Timestamp time.Time
}

// Observer lifecycle event type constants.
const (
	EventIterationStarted  = "weave.iteration.started"
	EventIterationFinished = "weave.iteration.finished"
	EventIterationFailed   = "weave.iteration.failed"
)

// Observer receives ObserverEvents a Subject emits.
type Observer interface {
	OnEvent(ctx context.Context, event ObserverEvent) error
	ObserverID() string
}

// Subject is implemented by Runner: anything that broadcasts lifecycle
// events to registered Observers.
type Subject interface {
	RegisterObserver(observer Observer, eventTypes ...string) error
	UnregisterObserver(observer Observer) error
	NotifyObservers(ctx context.Context, event ObserverEvent) error
}

// FunctionalObserver adapts a plain function to the Observer interface.
type FunctionalObserver struct {
	id      string
	handler func(ctx context.Context, event ObserverEvent) error
}

// NewFunctionalObserver creates an Observer backed by handler.
func NewFunctionalObserver(id string, handler func(ctx context.Context, event ObserverEvent) error) Observer {
	return &FunctionalObserver{id: id, handler: handler}
}

func (f *FunctionalObserver) OnEvent(ctx context.Context, event ObserverEvent) error {
	return f.handler(ctx, event)
}

func (f *FunctionalObserver) ObserverID() string { return f.id }

type observerRegistration struct {
	observer   Observer
	eventTypes map[string]struct{} // nil/empty means "all"
}

// observerHub implements Subject; Runner holds one and delegates to it.
type observerHub struct {
	mu   sync.Mutex
	regs map[string]observerRegistration
}

func newObserverHub() *observerHub {
	return &observerHub{regs: make(map[string]observerRegistration)}
}

func (h *observerHub) RegisterObserver(observer Observer, eventTypes ...string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	var set map[string]struct{}
	if len(eventTypes) > 0 {
		set = make(map[string]struct{}, len(eventTypes))
		for _, t := range eventTypes {
			set[t] = struct{}{}
		}
	}
	h.regs[observer.ObserverID()] = observerRegistration{observer: observer, eventTypes: set}
	return nil
}

func (h *observerHub) UnregisterObserver(observer Observer) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.regs, observer.ObserverID())
	return nil
}

func (h *observerHub) NotifyObservers(ctx context.Context, event ObserverEvent) error {
	h.mu.Lock()
	regs := make([]observerRegistration, 0, len(h.regs))
	for _, r := range h.regs {
		regs = append(regs, r)
	}
	h.mu.Unlock()

	for _, r := range regs {
		if r.eventTypes != nil {
			if _, ok := r.eventTypes[event.Type]; !ok {
				continue
			}
		}
		if err := r.observer.OnEvent(ctx, event); err != nil {
			// One observer's error never blocks the others; the caller of
			// NotifyObservers is Runner's iteration loop, which must not
			// itself fail a test run over a logging sink misbehaving.
			continue
		}
	}
	return nil
}
