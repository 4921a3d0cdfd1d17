package executor

// Observer receives dispatch events as a cycle unfolds. Attach one with
// WithObserver to record traces (see internal/trace). Observation runs on
// the executor thread; implementations must not block and must not mutate
// the executor.
type Observer interface {
	// CycleStart marks the beginning of a SpinSome cycle.
	CycleStart()
	// WaitReturned reports the outcome of the blocking wait.
	WaitReturned(timedOut bool)
	// TriggerEvaluated reports the trigger verdict.
	TriggerEvaluated(fired bool)
	// DataTaken reports one completed take for the handle at slot.
	DataTaken(kind Kind, slot int)
	// CallbackInvoked reports one dispatched callback for the handle at
	// slot.
	CallbackInvoked(kind Kind, slot int)
}

// nopObserver is the default when no observer is attached.
type nopObserver struct{}

func (nopObserver) CycleStart()               {}
func (nopObserver) WaitReturned(bool)         {}
func (nopObserver) TriggerEvaluated(bool)     {}
func (nopObserver) DataTaken(Kind, int)       {}
func (nopObserver) CallbackInvoked(Kind, int) {}
