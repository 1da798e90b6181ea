package protocol

import "github.com/ajbucci/rustfmsynth-sub000/patch"

// PatchMessages expands a full configuration into the canonical ordered
// message sequence: routing matrix first, then every operator's
// parameters in index order, then effects, then master volume. The
// bridge sends exactly this sequence after the initialized
// acknowledgment, so the engine never observes a partial configuration.
func PatchMessages(p *patch.Patch) ([]Message, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	msgs := []Message{SetAlgorithm{Rows: p.Algorithm}}

	for i, op := range p.Operators {
		if op.FixedMode() {
			msgs = append(msgs, SetOperatorFixedFrequency{Op: i, Hz: op.FixedFrequency})
		} else {
			msgs = append(msgs, SetOperatorRatio{Op: i, Ratio: op.Ratio})
		}
		msgs = append(msgs,
			SetOperatorDetune{Op: i, Cents: op.Detune},
			SetOperatorModulationIndex{Op: i, Index: op.ModulationIndex},
			SetOperatorWaveform{Op: i, Waveform: uint8(op.Waveform)},
			SetOperatorEnvelope{
				Op:      i,
				Attack:  op.Envelope.Attack,
				Decay:   op.Envelope.Decay,
				Sustain: op.Envelope.Sustain,
				Release: op.Envelope.Release,
			},
		)
		for _, f := range op.Filters {
			desc, err := EncodeFilter(f)
			if err != nil {
				return nil, err
			}
			msgs = append(msgs, SetOperatorFilter{Op: i, Descriptor: desc})
		}
	}

	for slot, fx := range p.Effects {
		if fx == nil {
			continue
		}
		desc, err := EncodeEffect(*fx)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, SetEffect{Slot: slot, Descriptor: desc})
	}

	msgs = append(msgs, SetMasterVolume{Gain: p.MasterVolume})
	return msgs, nil
}
