// Package fmsynth implements the session protocol for a WASM FM
// synthesizer: booting a pre-built audio module inside a real-time
// rendering context, the coordination-side bridge that owns its
// lifecycle, the control-message vocabulary exchanged between the two,
// and the compact versioned codecs used for share links and patch
// persistence.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct
// responsibilities:
//
//	fmsynth/             Root package with the Synth and BlockSource interfaces
//	├── patch/           Data model: routing matrix, operators, effects, patches
//	├── codec/           Compact matrix strings and compressed patch strings
//	├── protocol/        Control-message sum type and descriptor wire codec
//	├── engine/          wazero-backed Synth over the audio module's exports
//	├── render/          Rendering-context runtime: init state machine, dispatch
//	├── session/         Coordination-context bridge: single-flight bootstrap
//	├── patchstore/      Named patch persistence on SQLite
//	├── config/          TOML + environment configuration for the CLI
//	├── audio/           Portaudio output pump and offline WAV rendering
//	└── errors/          Structured error types with class and stage
//
// # Quick Start
//
// Boot a session and play a note:
//
//	bridge := session.New(session.FileFetcher("synth.wasm"), session.Options{})
//	defer bridge.Close(ctx)
//
//	if err := bridge.EnsureReady(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	bridge.Send(protocol.NoteOn{Note: 60, Velocity: 100})
//
// # Concurrency Model
//
// Two contexts communicate only through messages. The rendering
// context's block callback is synchronous and never suspends: it drains
// pending control messages with non-blocking receives and always
// returns a full block, silence until the module is ready. The
// coordination context's bootstrap is asynchronous and single-flight:
// concurrent EnsureReady callers share one fetch and one module
// transfer. The module payload is handed over exactly once; the
// bridge's reference is nulled at the moment of transfer.
package fmsynth
