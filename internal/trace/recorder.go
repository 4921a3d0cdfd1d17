package trace

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/roach88/spindle/internal/executor"
)

// Event operations.
const (
	OpWait    = "wait"
	OpTrigger = "trigger"
	OpTake    = "take"
	OpExecute = "execute"
)

// Event is one recorded dispatch step.
type Event struct {
	// Seq is the event's position in the trace, from the recorder's
	// logical clock.
	Seq int64
	// Cycle counts SpinSome cycles, starting at 1.
	Cycle int64
	// Op is one of the Op constants.
	Op string
	// Kind is the handle kind for take/execute events, empty otherwise.
	Kind string
	// Slot is the handle's table slot for take/execute events.
	Slot int
	// Detail carries the wait outcome ("ready"/"timeout") or the
	// trigger verdict ("fired"/"skipped").
	Detail string
}

// String renders the event as one stable trace line.
func (e Event) String() string {
	switch e.Op {
	case OpWait, OpTrigger:
		return fmt.Sprintf("cycle=%d %s %s", e.Cycle, e.Op, e.Detail)
	default:
		return fmt.Sprintf("cycle=%d %s %s[%d]", e.Cycle, e.Op, e.Kind, e.Slot)
	}
}

// clock is a monotonic logical clock for event ordering. Sequence
// numbers, not wall time: replaying a scenario reproduces the trace
// exactly.
type clock struct {
	seq atomic.Int64
}

func (c *clock) next() int64 { return c.seq.Add(1) }

// Recorder captures dispatch events. Attach with
// executor.WithObserver(rec). The recorder grows its event slice as
// needed and therefore lives outside the executor's zero-allocation
// guarantee.
//
// Thread-safety: none beyond the clock; a recorder observes exactly one
// executor.
type Recorder struct {
	clock  clock
	cycle  int64
	events []Event
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{events: make([]Event, 0, 64)}
}

// CycleStart implements executor.Observer.
func (r *Recorder) CycleStart() { r.cycle++ }

// WaitReturned implements executor.Observer.
func (r *Recorder) WaitReturned(timedOut bool) {
	detail := "ready"
	if timedOut {
		detail = "timeout"
	}
	r.append(Event{Op: OpWait, Detail: detail})
}

// TriggerEvaluated implements executor.Observer.
func (r *Recorder) TriggerEvaluated(fired bool) {
	detail := "fired"
	if !fired {
		detail = "skipped"
	}
	r.append(Event{Op: OpTrigger, Detail: detail})
}

// DataTaken implements executor.Observer.
func (r *Recorder) DataTaken(kind executor.Kind, slot int) {
	r.append(Event{Op: OpTake, Kind: kind.String(), Slot: slot})
}

// CallbackInvoked implements executor.Observer.
func (r *Recorder) CallbackInvoked(kind executor.Kind, slot int) {
	r.append(Event{Op: OpExecute, Kind: kind.String(), Slot: slot})
}

func (r *Recorder) append(e Event) {
	e.Seq = r.clock.next()
	e.Cycle = r.cycle
	r.events = append(r.events, e)
}

// Events returns the recorded events in order. The slice is owned by the
// recorder.
func (r *Recorder) Events() []Event { return r.events }

// Cycles returns the number of cycles observed so far.
func (r *Recorder) Cycles() int64 { return r.cycle }

// Reset drops all recorded events and restarts the cycle count.
func (r *Recorder) Reset() {
	r.events = r.events[:0]
	r.cycle = 0
	r.clock.seq.Store(0)
}

// Render returns the whole trace as newline-separated event lines. This
// is the representation golden files compare against.
func Render(events []Event) string {
	var b strings.Builder
	for _, e := range events {
		b.WriteString(e.String())
		b.WriteByte('\n')
	}
	return b.String()
}
