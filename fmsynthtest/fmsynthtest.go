// Package fmsynthtest provides test doubles shared by the package
// tests: an in-process fake Synth that records calls, and canned module
// payloads.
package fmsynthtest

import (
	"context"
	"fmt"
	"sync"
)

// EmptyModule returns the smallest valid core WASM binary: magic and
// version, no sections. It compiles but exports nothing.
func EmptyModule() []byte {
	return []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
}

// Call is one recorded Synth invocation: the method name and its
// arguments in order.
type Call struct {
	Name string
	Args []any
}

// FakeSynth implements fmsynth.Synth in process. It records every call
// and can be scripted to fail a given method, which stands in for a
// trap inside the audio module.
type FakeSynth struct {
	mu     sync.Mutex
	calls  []Call
	failOn map[string]error

	// RenderValue fills every rendered sample; non-zero values let
	// tests distinguish rendered audio from silence.
	RenderValue float32
}

func NewFakeSynth() *FakeSynth {
	return &FakeSynth{failOn: make(map[string]error)}
}

// FailOn makes the named method return err.
func (f *FakeSynth) FailOn(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failOn[name] = err
}

// Calls returns a snapshot of recorded calls.
func (f *FakeSynth) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallNames returns just the method names, in order.
func (f *FakeSynth) CallNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, len(f.calls))
	for i, c := range f.calls {
		names[i] = c.Name
	}
	return names
}

func (f *FakeSynth) record(name string, args ...any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Name: name, Args: args})
	if err := f.failOn[name]; err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func (f *FakeSynth) NoteOn(note, velocity uint8) error {
	return f.record("note_on", note, velocity)
}

func (f *FakeSynth) NoteOff(note uint8) error {
	return f.record("note_off", note)
}

func (f *FakeSynth) SetAlgorithm(rows [][]uint8) error {
	return f.record("set_algorithm", rows)
}

func (f *FakeSynth) SetOperatorRatio(op int, ratio float64) error {
	return f.record("set_operator_ratio", op, ratio)
}

func (f *FakeSynth) SetOperatorFixedFrequency(op int, hz float64) error {
	return f.record("set_operator_fixed_frequency", op, hz)
}

func (f *FakeSynth) SetOperatorDetune(op int, cents float64) error {
	return f.record("set_operator_detune", op, cents)
}

func (f *FakeSynth) SetOperatorModulationIndex(op int, index float64) error {
	return f.record("set_operator_modulation_index", op, index)
}

func (f *FakeSynth) SetOperatorWaveform(op int, waveform uint8) error {
	return f.record("set_operator_waveform", op, waveform)
}

func (f *FakeSynth) SetOperatorEnvelope(op int, attack, decay, sustain, release float64) error {
	return f.record("set_operator_envelope", op, attack, decay, sustain, release)
}

func (f *FakeSynth) SetOperatorFilter(op int, descriptor []byte) error {
	return f.record("set_operator_filter", op, descriptor)
}

func (f *FakeSynth) RemoveOperatorFilter(op int, filterType []byte) error {
	return f.record("remove_operator_filter", op, filterType)
}

func (f *FakeSynth) SetEffect(slot int, descriptor []byte) error {
	return f.record("set_effect", slot, descriptor)
}

func (f *FakeSynth) RemoveEffect(slot int) error {
	return f.record("remove_effect", slot)
}

func (f *FakeSynth) SetMasterVolume(gain float64) error {
	return f.record("set_master_volume", gain)
}

func (f *FakeSynth) Render(out []float32) error {
	if err := f.record("render", len(out)); err != nil {
		return err
	}
	f.mu.Lock()
	v := f.RenderValue
	f.mu.Unlock()
	for i := range out {
		out[i] = v
	}
	return nil
}

func (f *FakeSynth) Close(ctx context.Context) error {
	return f.record("close")
}
