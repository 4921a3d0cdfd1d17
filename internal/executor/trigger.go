package executor

// Trigger is the user-pluggable predicate that gates each dispatch cycle.
// It is evaluated after readiness collection over the live prefix of the
// handle table; obj is the opaque object armed with SetTrigger. Returning
// false skips every take and execute this cycle.
//
// Predicates must be pure over the handle states: they run every cycle on
// the hot path.
type Trigger func(handles []Handle, obj any) bool

// TriggerAll fires only when every live handle has data available.
func TriggerAll(handles []Handle, _ any) bool {
	for i := range handles {
		if !handles[i].initialized {
			break
		}
		if !handles[i].DataAvailable() {
			return false
		}
	}
	return true
}

// TriggerAny fires when at least one live handle has data available.
// This is the default, matching start-processing-anything semantics.
func TriggerAny(handles []Handle, _ any) bool {
	for i := range handles {
		if !handles[i].initialized {
			break
		}
		if handles[i].DataAvailable() {
			return true
		}
	}
	return false
}

// TriggerOne fires when the handle whose middleware reference equals obj
// has data available.
func TriggerOne(handles []Handle, obj any) bool {
	for i := range handles {
		if !handles[i].initialized {
			break
		}
		if handles[i].DataAvailable() && handles[i].Ref() == obj {
			return true
		}
	}
	return false
}

// TriggerAlways fires unconditionally.
func TriggerAlways([]Handle, any) bool { return true }
