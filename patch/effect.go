package patch

import "github.com/ajbucci/rustfmsynth-sub000/errors"

// EffectSlotCount is the number of global effect slots.
const EffectSlotCount = 4

// EffectType tags a global effect variant.
type EffectType string

const (
	EffectReverb EffectType = "reverb"
	EffectDelay  EffectType = "delay"
	EffectChorus EffectType = "chorus"
)

// Effect is one effect descriptor: a type tag plus the parameters that
// type uses. Mix is the wet/dry balance in [0, 1] for every type.
type Effect struct {
	Type     EffectType `json:"type" cbor:"1,keyasint"`
	Mix      float64    `json:"mix" cbor:"2,keyasint"`
	Size     float64    `json:"size,omitempty" cbor:"3,keyasint,omitempty"`
	Damp     float64    `json:"damp,omitempty" cbor:"4,keyasint,omitempty"`
	Time     float64    `json:"time,omitempty" cbor:"5,keyasint,omitempty"`
	Feedback float64    `json:"feedback,omitempty" cbor:"6,keyasint,omitempty"`
	Rate     float64    `json:"rate,omitempty" cbor:"7,keyasint,omitempty"`
	Depth    float64    `json:"depth,omitempty" cbor:"8,keyasint,omitempty"`
}

// Validate checks the tag and the parameters for that tag.
func (e Effect) Validate() error {
	if e.Mix < 0 || e.Mix > 1 {
		return errors.Validation(errors.StageEncode, "mix %g outside [0,1]", e.Mix)
	}
	switch e.Type {
	case EffectReverb:
		if e.Size < 0 || e.Size > 1 || e.Damp < 0 || e.Damp > 1 {
			return errors.Validation(errors.StageEncode, "reverb size and damp must be in [0,1]")
		}
	case EffectDelay:
		if e.Time <= 0 {
			return errors.Validation(errors.StageEncode, "delay time %g must be positive", e.Time)
		}
		if e.Feedback < 0 || e.Feedback >= 1 {
			return errors.Validation(errors.StageEncode, "delay feedback %g outside [0,1)", e.Feedback)
		}
	case EffectChorus:
		if e.Rate <= 0 || e.Depth < 0 {
			return errors.Validation(errors.StageEncode, "chorus rate must be positive, depth non-negative")
		}
	default:
		return errors.Validation(errors.StageEncode, "unknown effect type %q", e.Type)
	}
	return nil
}

// EffectSlots is the fixed bank of global slots; a nil entry is empty.
type EffectSlots [EffectSlotCount]*Effect
