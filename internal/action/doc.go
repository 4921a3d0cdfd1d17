// Package action implements the per-goal state machines the executor
// advances on behalf of action clients and servers.
//
// An action endpoint owns a fixed pool of goal handles, allocated once at
// registration. The pool is an arena: a slot array with intrusive free and
// used lists threaded through per-slot indices. No pointers are chased and
// nothing is allocated after construction.
//
// The executor drives an endpoint in three sub-steps per cycle:
//
//  1. RefreshReadiness: latch the per-sub-entity readiness flags reported
//     by the wait-set.
//  2. Take: drain every ready response/request, routing each to its
//     owning goal handle by sequence number or UUID and raising the
//     goal's per-response flag. Aggregate readiness is consumed here;
//     the raised per-goal flags keep the endpoint's data-availability
//     true so the same cycle's execute step still runs.
//  3. Execute: walk the goal list, clear each per-response flag and
//     invoke the matching user callback. Clearing before invoking keeps
//     the walk idempotent across retries.
//
// State machines:
//
// Client goals move Unknown -> Accepted (goal response, result request
// issued) -> released on result response. Rejected goals are released
// immediately.
//
// Server goals move Unknown -> Accepted (user accepts) -> Executing
// (result request arrives) -> Canceling (cancel request arrives; if the
// user's cancel callback rejects it, the goal reverts to Executing) and end
// in Succeeded, Canceled or Aborted via the terminal helpers on GoalHandle.
// Terminated goals are released on the executor's next pass.
package action
