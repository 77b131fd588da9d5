package trace

import (
	"fmt"
	"io"
)

// ErrMaxLengthExceeded is returned by Recorder.Append once the trace has
// grown past the configured maximum trace length.
var ErrMaxLengthExceeded = fmt.Errorf("schedule trace exceeded configured maximum length")

// Recorder builds up a Trace one Step at a time, append-only: no method on
// Recorder ever mutates or removes a previously appended Step.
//
// Accumulation happens entirely in memory; handing the result to a sink is a
// separate step (Persist), so the recorded trace can be inspected or
// replayed before, or instead of, ever being written out.
type Recorder struct {
	trace   Trace
	maxLen  int // 0 = unbounded
	sealed  bool
	sealErr error
}

// NewRecorder creates a Recorder with the given header and maximum trace
// length (0 for unbounded).
func NewRecorder(header Header, maxLen int) *Recorder {
	return &Recorder{trace: Trace{Header: header}, maxLen: maxLen}
}

// Append records one decision. Returns ErrMaxLengthExceeded if the trace has
// already reached its configured maximum; the caller (scheduler.Scheduler)
// is responsible for turning that into a MaxStepsReached failure.
func (r *Recorder) Append(step Step) error {
	if r.sealed {
		return r.sealErr
	}
	if r.maxLen > 0 && len(r.trace.Steps) >= r.maxLen {
		r.sealed = true
		r.sealErr = ErrMaxLengthExceeded
		return ErrMaxLengthExceeded
	}
	r.trace.Steps = append(r.trace.Steps, step)
	return nil
}

// Len reports the number of steps recorded so far.
func (r *Recorder) Len() int { return len(r.trace.Steps) }

// Trace returns the recorded trace so far. The returned value shares no
// backing array mutation path with the Recorder: callers get a snapshot
// struct, though the Steps slice itself is not copied for efficiency — treat
// it as read-only.
func (r *Recorder) Trace() Trace { return r.trace }

// Persist writes the recorded trace to w in the newline-delimited textual
// format Trace.WriteTo produces.
func (r *Recorder) Persist(w io.Writer) error {
	_, err := r.trace.WriteTo(w)
	return err
}
