package trace

import "fmt"

// ErrNotReproducible is returned by Replayer when the live run diverges from
// the recorded trace: the requested step's kind doesn't match the cursor, or
// the referenced operation id isn't in the enabled set at that moment (spec
// §4.5, §7 "TraceNotReproducible").
type ErrNotReproducible struct {
	Reason string
}

func (e *ErrNotReproducible) Error() string {
	return fmt.Sprintf("trace is not reproducible: %s", e.Reason)
}

// Replayer walks a previously recorded Trace one step at a time, validating
// that each live decision point matches the kind recorded at that position.
// scheduler.Scheduler's Replay strategy wraps a Replayer; Replayer itself
// knows nothing about operations or enabled sets beyond the ids passed to
// its Next* methods.
type Replayer struct {
	trace  Trace
	cursor int
}

// NewReplayer creates a Replayer over trace, starting at the first step.
func NewReplayer(t Trace) *Replayer {
	return &Replayer{trace: t}
}

// Header returns the trace's header (strategy name, fairness, seed).
func (p *Replayer) Header() Header { return p.trace.Header }

// Exhausted reports whether every step has been consumed.
func (p *Replayer) Exhausted() bool { return p.cursor >= len(p.trace.Steps) }

// Remaining reports how many steps are left.
func (p *Replayer) Remaining() int { return len(p.trace.Steps) - p.cursor }

// NextSchedulingChoice advances the cursor and returns the recorded
// operation id, validating that it is present in enabledIDs. It is the
// caller's job to map the id back to a live *registry.Operation.
func (p *Replayer) NextSchedulingChoice(enabledIDs map[int]bool) (int, error) {
	if p.Exhausted() {
		return 0, &ErrNotReproducible{Reason: "trace exhausted but a scheduling choice was requested"}
	}
	step := p.trace.Steps[p.cursor]
	if step.Kind != SchedulingChoice {
		return 0, &ErrNotReproducible{Reason: fmt.Sprintf(
			"step %d recorded kind %s but a scheduling choice was requested", p.cursor, step.Kind)}
	}
	if !enabledIDs[step.OperationID] {
		return 0, &ErrNotReproducible{Reason: fmt.Sprintf(
			"step %d recorded operation id %d is not in the enabled set", p.cursor, step.OperationID)}
	}
	p.cursor++
	return step.OperationID, nil
}

// NextBoolean advances the cursor and returns the recorded boolean.
func (p *Replayer) NextBoolean() (bool, error) {
	if p.Exhausted() {
		return false, &ErrNotReproducible{Reason: "trace exhausted but a boolean choice was requested"}
	}
	step := p.trace.Steps[p.cursor]
	if step.Kind != BooleanChoice {
		return false, &ErrNotReproducible{Reason: fmt.Sprintf(
			"step %d recorded kind %s but a boolean choice was requested", p.cursor, step.Kind)}
	}
	p.cursor++
	return step.Bool, nil
}

// NextInteger advances the cursor and returns the recorded integer.
func (p *Replayer) NextInteger() (int, error) {
	if p.Exhausted() {
		return 0, &ErrNotReproducible{Reason: "trace exhausted but an integer choice was requested"}
	}
	step := p.trace.Steps[p.cursor]
	if step.Kind != IntegerChoice {
		return 0, &ErrNotReproducible{Reason: fmt.Sprintf(
			"step %d recorded kind %s but an integer choice was requested", p.cursor, step.Kind)}
	}
	p.cursor++
	return step.Int, nil
}
