// Package engine wraps the instantiated audio module behind the
// fmsynth.Synth interface using wazero.
//
// The module is a core WASM binary with a fixed export surface: scalar
// setters for note and operator parameters, ptr/len setters for
// descriptor blobs, an allocator, and a render function that fills a
// guest-side sample buffer. The render buffer is allocated once at
// instantiation; the render path performs no guest allocation and no
// host-side heap allocation per block.
package engine
