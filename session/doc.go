// Package session implements the coordination-context side of the
// protocol: the Bridge that owns the rendering context's lifecycle and
// is the sole writer of control messages, and the Handle that owns the
// module payload until its one-time transfer.
//
// Bootstrap is single-flight. The first EnsureReady caller fetches the
// payload, creates the rendering context, transfers the payload with
// an Init message, and waits for the acknowledgment; concurrent
// callers share that attempt. A failed attempt rejects every waiter
// and clears itself, so the next call starts over — there is no
// permanent poisoning and no cancellation of an attempt in flight.
//
// Ordering: control messages sent before readiness are queued. After
// the acknowledgment the bridge flushes the initial configuration
// (routing matrix first, then per-operator parameters), then the
// queue, then goes direct. The engine therefore never observes a
// partial or out-of-order configuration.
package session
