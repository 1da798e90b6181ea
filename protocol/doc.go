// Package protocol defines the closed set of messages exchanged
// between the coordination context and the rendering context, and the
// wire codec for filter/effect descriptor bytes.
//
// Message is a sealed sum type: one struct per tag, dispatch by type
// switch. Payloads are primitives and byte slices only — a message
// never carries a live reference into the engine. Filter and effect
// descriptors cross the boundary as canonical CBOR and are decoded back
// into the typed variants on the far side.
//
// Ordering: the coordination side sends Init exactly once per bootstrap
// attempt and withholds every control message until it has observed
// Initialized and flushed the initial configuration. The rendering side
// ignores unknown or invalid control messages and reports per-message
// engine failures with ProcessingError; neither interrupts rendering.
package protocol
