// Package middleware defines the boundary between the spindle executor and
// the underlying transport layer.
//
// The executor never talks to a concrete transport. Everything it needs —
// readiness aggregation, non-blocking takes, timer advancement, the action
// protocol primitives — is expressed as the interfaces in this package. A
// transport binds them; internal/mem provides the in-memory reference
// binding used by the CLI, the harness and the tests.
//
// ERROR CONTRACT:
// Three failures are distinguished values, not faults:
//   - ErrTimeout: a wait ran to its deadline with nothing ready
//   - ErrTakeFailed: a take found no data even though the wait-set
//     reported readiness
//   - ErrTimerCanceled: a timer call on a canceled timer
//
// The executor treats these as non-fatal (see internal/executor). Any other
// error from a middleware primitive is fatal for the current cycle.
package middleware
