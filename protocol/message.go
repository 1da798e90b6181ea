package protocol

import (
	"github.com/ajbucci/rustfmsynth-sub000/errors"
	"github.com/ajbucci/rustfmsynth-sub000/patch"
)

// Message is the sealed control-message sum type. Every variant is a
// value type carrying only primitives and byte slices.
type Message interface {
	// Tag returns the wire name of the message kind.
	Tag() string

	// Validate checks field ranges. The sender validates before
	// enqueueing; the rendering side validates again and drops
	// failures as protocol errors.
	Validate() error

	isMessage()
}

// Init hands the module payload and sample rate to the rendering
// context. One-shot: the payload buffer is transferred, not copied, and
// the sender's reference is nulled at the moment of send.
type Init struct {
	Payload    []byte
	SampleRate float64
}

// Initialized acknowledges a successful module boot
// (rendering → coordination).
type Initialized struct{}

// InitError reports a failed module boot (rendering → coordination).
// The rendering context stays in its terminal error state until a
// fresh Init arrives.
type InitError struct {
	Diagnostic string
}

// ProcessingError reports a control message whose application failed
// inside the engine (rendering → coordination). Non-fatal.
type ProcessingError struct {
	MessageTag string
	Diagnostic string
}

type NoteOn struct {
	Note     uint8
	Velocity uint8
}

type NoteOff struct {
	Note uint8
}

// SetAlgorithm carries the dense routing matrix. The compact matrix
// string is a share-link format only and never appears on this channel.
type SetAlgorithm struct {
	Rows [][]uint8
}

type SetOperatorRatio struct {
	Op    int
	Ratio float64
}

type SetOperatorFixedFrequency struct {
	Op int
	Hz float64
}

type SetOperatorDetune struct {
	Op    int
	Cents float64
}

type SetOperatorModulationIndex struct {
	Op    int
	Index float64
}

type SetOperatorWaveform struct {
	Op       int
	Waveform uint8
}

type SetOperatorEnvelope struct {
	Op      int
	Attack  float64
	Decay   float64
	Sustain float64
	Release float64
}

// SetOperatorFilter carries one filter descriptor in wire form.
type SetOperatorFilter struct {
	Op         int
	Descriptor []byte
}

// RemoveOperatorFilter carries the filter type tag in wire form.
type RemoveOperatorFilter struct {
	Op         int
	FilterType []byte
}

// SetEffect carries one effect descriptor in wire form.
type SetEffect struct {
	Slot       int
	Descriptor []byte
}

type RemoveEffect struct {
	Slot int
}

type SetMasterVolume struct {
	Gain float64
}

func (Init) Tag() string                       { return "init" }
func (Initialized) Tag() string                { return "initialized" }
func (InitError) Tag() string                  { return "init_error" }
func (ProcessingError) Tag() string            { return "processing_error" }
func (NoteOn) Tag() string                     { return "note_on" }
func (NoteOff) Tag() string                    { return "note_off" }
func (SetAlgorithm) Tag() string               { return "set_algorithm" }
func (SetOperatorRatio) Tag() string           { return "set_operator_ratio" }
func (SetOperatorFixedFrequency) Tag() string  { return "set_operator_fixed_frequency" }
func (SetOperatorDetune) Tag() string          { return "set_operator_detune" }
func (SetOperatorModulationIndex) Tag() string { return "set_operator_modulation_index" }
func (SetOperatorWaveform) Tag() string        { return "set_operator_waveform" }
func (SetOperatorEnvelope) Tag() string        { return "set_operator_envelope" }
func (SetOperatorFilter) Tag() string          { return "set_operator_filter" }
func (RemoveOperatorFilter) Tag() string       { return "remove_operator_filter" }
func (SetEffect) Tag() string                  { return "set_effect" }
func (RemoveEffect) Tag() string               { return "remove_effect" }
func (SetMasterVolume) Tag() string            { return "set_master_volume" }

func (Init) isMessage()                       {}
func (Initialized) isMessage()                {}
func (InitError) isMessage()                  {}
func (ProcessingError) isMessage()            {}
func (NoteOn) isMessage()                     {}
func (NoteOff) isMessage()                    {}
func (SetAlgorithm) isMessage()               {}
func (SetOperatorRatio) isMessage()           {}
func (SetOperatorFixedFrequency) isMessage()  {}
func (SetOperatorDetune) isMessage()          {}
func (SetOperatorModulationIndex) isMessage() {}
func (SetOperatorWaveform) isMessage()        {}
func (SetOperatorEnvelope) isMessage()        {}
func (SetOperatorFilter) isMessage()          {}
func (RemoveOperatorFilter) isMessage()       {}
func (SetEffect) isMessage()                  {}
func (RemoveEffect) isMessage()               {}
func (SetMasterVolume) isMessage()            {}

func opInRange(op int) error {
	if op < 0 || op >= patch.OperatorCount {
		return errors.Protocol(errors.StageApply, "operator index %d out of range", op)
	}
	return nil
}

func slotInRange(slot int) error {
	if slot < 0 || slot >= patch.EffectSlotCount {
		return errors.Protocol(errors.StageApply, "effect slot %d out of range", slot)
	}
	return nil
}

func (m Init) Validate() error {
	if len(m.Payload) == 0 {
		return errors.Protocol(errors.StageInit, "init without payload")
	}
	if m.SampleRate <= 0 {
		return errors.Protocol(errors.StageInit, "sample rate %g must be positive", m.SampleRate)
	}
	return nil
}

func (Initialized) Validate() error { return nil }

func (m InitError) Validate() error { return nil }

func (m ProcessingError) Validate() error { return nil }

func (m NoteOn) Validate() error {
	if m.Note > 127 {
		return errors.Protocol(errors.StageApply, "note %d out of range", m.Note)
	}
	if m.Velocity > 127 {
		return errors.Protocol(errors.StageApply, "velocity %d out of range", m.Velocity)
	}
	return nil
}

func (m NoteOff) Validate() error {
	if m.Note > 127 {
		return errors.Protocol(errors.StageApply, "note %d out of range", m.Note)
	}
	return nil
}

func (m SetAlgorithm) Validate() error {
	return patch.Algorithm(m.Rows).Validate()
}

func (m SetOperatorRatio) Validate() error {
	if err := opInRange(m.Op); err != nil {
		return err
	}
	if m.Ratio < 0 {
		return errors.Protocol(errors.StageApply, "ratio %g must be non-negative", m.Ratio)
	}
	return nil
}

func (m SetOperatorFixedFrequency) Validate() error {
	if err := opInRange(m.Op); err != nil {
		return err
	}
	if m.Hz < 0 {
		return errors.Protocol(errors.StageApply, "fixed frequency %g must be non-negative", m.Hz)
	}
	return nil
}

func (m SetOperatorDetune) Validate() error {
	return opInRange(m.Op)
}

func (m SetOperatorModulationIndex) Validate() error {
	if err := opInRange(m.Op); err != nil {
		return err
	}
	if m.Index < 0 {
		return errors.Protocol(errors.StageApply, "modulation index %g must be non-negative", m.Index)
	}
	return nil
}

func (m SetOperatorWaveform) Validate() error {
	if err := opInRange(m.Op); err != nil {
		return err
	}
	if !patch.Waveform(m.Waveform).Valid() {
		return errors.Protocol(errors.StageApply, "unknown waveform %d", m.Waveform)
	}
	return nil
}

func (m SetOperatorEnvelope) Validate() error {
	if err := opInRange(m.Op); err != nil {
		return err
	}
	env := patch.Envelope{Attack: m.Attack, Decay: m.Decay, Sustain: m.Sustain, Release: m.Release}
	if err := env.Validate(); err != nil {
		return errors.Protocol(errors.StageApply, "envelope: %v", err)
	}
	return nil
}

func (m SetOperatorFilter) Validate() error {
	if err := opInRange(m.Op); err != nil {
		return err
	}
	if _, err := DecodeFilter(m.Descriptor); err != nil {
		return err
	}
	return nil
}

func (m RemoveOperatorFilter) Validate() error {
	if err := opInRange(m.Op); err != nil {
		return err
	}
	if _, err := DecodeFilterType(m.FilterType); err != nil {
		return err
	}
	return nil
}

func (m SetEffect) Validate() error {
	if err := slotInRange(m.Slot); err != nil {
		return err
	}
	if _, err := DecodeEffect(m.Descriptor); err != nil {
		return err
	}
	return nil
}

func (m RemoveEffect) Validate() error {
	return slotInRange(m.Slot)
}

func (m SetMasterVolume) Validate() error {
	if m.Gain < 0 {
		return errors.Protocol(errors.StageApply, "gain %g must be non-negative", m.Gain)
	}
	return nil
}
