package patch

import "github.com/ajbucci/rustfmsynth-sub000/errors"

// Patch is the full synthesizer configuration: the unit of
// serialization, persistence and cross-context synchronization.
type Patch struct {
	Algorithm    Algorithm
	Operators    []Operator
	MasterVolume float64
	Effects      EffectSlots
}

// Default returns the boot configuration for n operators: operator 0 a
// plain sine carrier, everything else idle, master volume 0.75.
func Default(n int) *Patch {
	ops := make([]Operator, n)
	for i := range ops {
		ops[i] = DefaultOperator()
	}
	return &Patch{
		Algorithm:    DefaultAlgorithm(n),
		Operators:    ops,
		MasterVolume: 0.75,
	}
}

// Validate checks the aggregate: matrix dimensions must agree with the
// operator list, and every component must validate.
func (p *Patch) Validate() error {
	if err := p.Algorithm.Validate(); err != nil {
		return err
	}
	if n := p.Algorithm.Operators(); n != len(p.Operators) {
		return errors.Validation(errors.StageEncode,
			"matrix is %d operators but list has %d", n, len(p.Operators))
	}
	for i, op := range p.Operators {
		if err := op.Validate(); err != nil {
			return errors.New(errors.ClassValidation, errors.StageEncode).
				Op("operator").Detail("index %d: %v", i, err).Build()
		}
	}
	if p.MasterVolume < 0 {
		return errors.Validation(errors.StageEncode, "master volume %g must be non-negative", p.MasterVolume)
	}
	for slot, fx := range p.Effects {
		if fx == nil {
			continue
		}
		if err := fx.Validate(); err != nil {
			return errors.New(errors.ClassValidation, errors.StageEncode).
				Op("effect").Detail("slot %d: %v", slot, err).Build()
		}
	}
	return nil
}

// Resize returns a copy adjusted to n operators, truncating extras or
// padding with defaults. Used when a persisted record was produced
// under a different operator count.
func (p *Patch) Resize(n int) *Patch {
	out := &Patch{
		Algorithm:    p.Algorithm.Resize(n),
		Operators:    make([]Operator, n),
		MasterVolume: p.MasterVolume,
		Effects:      p.Effects,
	}
	for i := 0; i < n; i++ {
		if i < len(p.Operators) {
			out.Operators[i] = p.Operators[i]
		} else {
			out.Operators[i] = DefaultOperator()
		}
	}
	return out
}

// Clone returns a deep copy sharing no state with the receiver.
func (p *Patch) Clone() *Patch {
	out := &Patch{
		Algorithm:    p.Algorithm.Clone(),
		Operators:    make([]Operator, len(p.Operators)),
		MasterVolume: p.MasterVolume,
	}
	for i, op := range p.Operators {
		out.Operators[i] = op
		out.Operators[i].Filters = append([]Filter(nil), op.Filters...)
	}
	for i, fx := range p.Effects {
		if fx != nil {
			copied := *fx
			out.Effects[i] = &copied
		}
	}
	return out
}

// Equal reports deep equality of two patches.
func (p *Patch) Equal(other *Patch) bool {
	if !p.Algorithm.Equal(other.Algorithm) {
		return false
	}
	if len(p.Operators) != len(other.Operators) {
		return false
	}
	for i := range p.Operators {
		if !operatorEqual(p.Operators[i], other.Operators[i]) {
			return false
		}
	}
	if p.MasterVolume != other.MasterVolume {
		return false
	}
	for i := range p.Effects {
		a, b := p.Effects[i], other.Effects[i]
		if (a == nil) != (b == nil) {
			return false
		}
		if a != nil && *a != *b {
			return false
		}
	}
	return true
}

func operatorEqual(a, b Operator) bool {
	if a.Ratio != b.Ratio || a.FixedFrequency != b.FixedFrequency ||
		a.Detune != b.Detune || a.ModulationIndex != b.ModulationIndex ||
		a.Waveform != b.Waveform || a.Envelope != b.Envelope {
		return false
	}
	if len(a.Filters) != len(b.Filters) {
		return false
	}
	for i := range a.Filters {
		if a.Filters[i] != b.Filters[i] {
			return false
		}
	}
	return true
}
