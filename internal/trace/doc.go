// Package trace records what an executor dispatched, cycle by cycle.
//
// A Recorder implements executor.Observer and appends one Event per wait
// outcome, trigger verdict, take and callback. Events carry a monotonic
// sequence number from a logical clock, never wall-clock timestamps, so
// two runs of the same scenario produce byte-identical traces.
//
// The Store persists recorded traces to SQLite for post-mortem
// inspection through the CLI. Recording and persistence are opt-in
// tooling; the executor's zero-allocation guarantee covers undecorated
// spinning.
package trace
