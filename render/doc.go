// Package render implements the rendering-context side of the session:
// a runtime that owns the audio module instance, applies control
// messages between blocks, and produces a full audio block on every
// callback regardless of state.
//
// The init state machine is Uninitialized → Initializing → Ready, with
// a terminal Errored state reachable from Initializing. Module
// instantiation runs on its own goroutine; the block callback observes
// its completion with a non-blocking receive, so the real-time path
// never waits on compilation. Until Ready the callback emits silence.
//
// Every control message is applied with per-message error capture: a
// failure inside the engine becomes a processing_error event on the
// outbound channel and rendering continues.
package render
