// Package executor implements the spindle dispatch engine: a
// deterministic, statically-sized callback executor over the
// internal/middleware boundary.
//
// An Executor owns a fixed-capacity table of handles, each binding one
// middleware entity to one user callback and one set of user buffers.
// Every cycle it builds the middleware wait-set from the table, blocks
// until readiness or timeout, evaluates the trigger predicate and — if the
// trigger fires — takes new data and runs callbacks under the selected
// data-communication semantics.
//
// ARCHITECTURE:
//
// Single-threaded cooperative loop. One executor instance is driven by
// exactly one goroutine; nothing in this package is safe for concurrent
// use. The only suspension point is the middleware wait inside SpinSome.
//
// Cycle flow:
//  1. prepare: rebuild the wait-set if registrations changed
//  2. collect: register handles, block on the wait-set, latch readiness
//  3. trigger: evaluate the predicate over the handle table
//  4. dispatch: take and execute per the semantics policy
//
// Under SemanticsRclcppLike, take and execute interleave per handle, so a
// later handle observes outputs published earlier in the same cycle.
// Under SemanticsLET all takes complete before any callback runs, giving
// every callback the same latched input set.
//
// ALLOCATION DISCIPLINE:
//
// The handle table is allocated once in Init. The wait-set is allocated on
// the first prepare and again only after a registration change invalidates
// it. Goal pools are allocated at action-endpoint registration. Steady
// state spinning allocates nothing, which is why registration changes
// while spinning, though tolerated, are forbidden where the zero-heap
// guarantee matters.
//
// INVARIANTS:
//   - handles[0:count) are initialized, in insertion order; the rest are
//     inert
//   - per-kind counters equal the census of live handles at all times
//   - a handle's wait-set index is the slot assigned by the latest
//     collection; a handle that has not been collected since it was
//     reset holds the capacity sentinel
package executor
