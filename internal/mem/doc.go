// Package mem is the in-memory reference binding of the
// internal/middleware interfaces.
//
// A Transport is one process-local message domain. Topics fan out through
// a watermill gochannel bus into per-subscription FIFO queues; service,
// guard-condition, timer and action endpoints are plain queue pairs wired
// directly. Every enqueue pokes the transport's registered wait-sets, so
// a blocked executor wakes as soon as anything becomes ready.
//
// The transport exists for the CLI demo, the conformance harness and the
// tests. It favours clarity over throughput: one transport-wide mutex
// guards all queues, and takes copy payloads into the caller's buffers.
//
// Buffers: takes fill *[]byte or *string buffers; sends accept []byte,
// *[]byte, string or *string payloads.
package mem
