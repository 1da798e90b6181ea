package fmsynth

import "context"

// DefaultSampleRate is the sample rate handed to the audio module when
// the configuration does not override it.
const DefaultSampleRate = 44100

// DefaultBlockSize is the number of frames produced per render call.
const DefaultBlockSize = 128

// Synth is the fixed function surface of the audio module. One
// implementation wraps the instantiated WASM module; tests substitute
// an in-process fake. All methods other than Render are control-path
// calls applied between blocks; Render is called on the real-time path
// and must not block or allocate per call.
type Synth interface {
	NoteOn(note, velocity uint8) error
	NoteOff(note uint8) error

	// SetAlgorithm installs the dense routing matrix: rows[i][j] for
	// j<N routes operator j's output into operator i's phase; the
	// final column marks carriers.
	SetAlgorithm(rows [][]uint8) error

	SetOperatorRatio(op int, ratio float64) error
	SetOperatorFixedFrequency(op int, hz float64) error
	SetOperatorDetune(op int, cents float64) error
	SetOperatorModulationIndex(op int, index float64) error
	SetOperatorWaveform(op int, waveform uint8) error
	SetOperatorEnvelope(op int, attack, decay, sustain, release float64) error

	// SetOperatorFilter and SetEffect receive descriptor bytes in the
	// protocol's wire form; the module decodes them on its side.
	SetOperatorFilter(op int, descriptor []byte) error
	RemoveOperatorFilter(op int, filterType []byte) error
	SetEffect(slot int, descriptor []byte) error
	RemoveEffect(slot int) error

	SetMasterVolume(gain float64) error

	// Render fills out with the next len(out) mono samples.
	Render(out []float32) error

	Close(ctx context.Context) error
}

// BlockSource produces fixed-size audio blocks on demand. The rendering
// runtime implements it; output backends (portaudio, WAV export) drive
// it on their own clock.
type BlockSource interface {
	// RenderBlock fills out completely. It never blocks and never
	// fails: when the source is not ready the block is silence.
	RenderBlock(out []float32)
}
