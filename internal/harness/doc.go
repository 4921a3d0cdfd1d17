// Package harness runs conformance scenarios against the executor on the
// in-memory transport.
//
// A scenario declares a topology (subscriptions), a policy (semantics,
// trigger) and a script of cycles, each publishing messages and spinning
// the executor once. The harness records the dispatch trace and the
// callback deliveries; assertions and golden files validate them.
//
// Scenarios live in YAML files next to the tests; golden traces live in
// testdata/golden and are regenerated with:
//
//	go test ./internal/harness -update
package harness
