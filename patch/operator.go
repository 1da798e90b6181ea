package patch

import "github.com/ajbucci/rustfmsynth-sub000/errors"

// Waveform selects the operator's oscillator shape.
type Waveform uint8

const (
	WaveSine Waveform = iota
	WaveSquare
	WaveSaw
	WaveTriangle
	WaveNoise

	waveformCount
)

// Valid reports whether w is a known waveform.
func (w Waveform) Valid() bool {
	return w < waveformCount
}

func (w Waveform) String() string {
	switch w {
	case WaveSine:
		return "sine"
	case WaveSquare:
		return "square"
	case WaveSaw:
		return "saw"
	case WaveTriangle:
		return "triangle"
	case WaveNoise:
		return "noise"
	}
	return "unknown"
}

// Envelope is a four-stage ADSR amplitude contour. Attack, Decay and
// Release are durations in seconds; Sustain is a level in [0, 1].
type Envelope struct {
	Attack  float64 `json:"attack" cbor:"1,keyasint"`
	Decay   float64 `json:"decay" cbor:"2,keyasint"`
	Sustain float64 `json:"sustain" cbor:"3,keyasint"`
	Release float64 `json:"release" cbor:"4,keyasint"`
}

// Validate rejects negative stages and out-of-range sustain.
func (e Envelope) Validate() error {
	if e.Attack < 0 || e.Decay < 0 || e.Release < 0 {
		return errors.Validation(errors.StageEncode, "envelope durations must be non-negative")
	}
	if e.Sustain < 0 || e.Sustain > 1 {
		return errors.Validation(errors.StageEncode, "sustain %g outside [0,1]", e.Sustain)
	}
	return nil
}

// FilterType tags a per-operator filter variant.
type FilterType string

const (
	FilterLowpass  FilterType = "lowpass"
	FilterHighpass FilterType = "highpass"
	FilterBandpass FilterType = "bandpass"
)

// Filter is one active filter on an operator: a type tag plus the
// parameters that type uses. Lowpass and highpass use Cutoff/Resonance;
// bandpass uses Center/Q. At most one filter of each type may be active
// per operator.
type Filter struct {
	Type      FilterType `json:"type" cbor:"1,keyasint"`
	Cutoff    float64    `json:"cutoff,omitempty" cbor:"2,keyasint,omitempty"`
	Resonance float64    `json:"resonance,omitempty" cbor:"3,keyasint,omitempty"`
	Center    float64    `json:"center,omitempty" cbor:"4,keyasint,omitempty"`
	Q         float64    `json:"q,omitempty" cbor:"5,keyasint,omitempty"`
}

// Validate checks the tag and the parameters for that tag.
func (f Filter) Validate() error {
	switch f.Type {
	case FilterLowpass, FilterHighpass:
		if f.Cutoff <= 0 {
			return errors.Validation(errors.StageEncode, "%s cutoff %g must be positive", f.Type, f.Cutoff)
		}
	case FilterBandpass:
		if f.Center <= 0 || f.Q <= 0 {
			return errors.Validation(errors.StageEncode, "bandpass center and q must be positive")
		}
	default:
		return errors.Validation(errors.StageEncode, "unknown filter type %q", f.Type)
	}
	return nil
}

// Operator holds one operator's full parameter set. FixedFrequency of
// exactly 0 means ratio mode is active; any other value pins the
// oscillator to that frequency in Hz regardless of the played note.
type Operator struct {
	Ratio           float64  `json:"ratio"`
	FixedFrequency  float64  `json:"fixedFrequency,omitempty"`
	Detune          float64  `json:"detune,omitempty"`
	ModulationIndex float64  `json:"modulationIndex"`
	Waveform        Waveform `json:"waveform"`
	Envelope        Envelope `json:"envelope"`
	Filters         []Filter `json:"filters,omitempty"`
}

// FixedMode reports whether the operator ignores note pitch.
func (o Operator) FixedMode() bool {
	return o.FixedFrequency != 0
}

// Validate checks every field, including the one-filter-per-type rule.
func (o Operator) Validate() error {
	if o.Ratio < 0 {
		return errors.Validation(errors.StageEncode, "ratio %g must be non-negative", o.Ratio)
	}
	if o.FixedFrequency < 0 {
		return errors.Validation(errors.StageEncode, "fixed frequency %g must be non-negative", o.FixedFrequency)
	}
	if o.ModulationIndex < 0 {
		return errors.Validation(errors.StageEncode, "modulation index %g must be non-negative", o.ModulationIndex)
	}
	if !o.Waveform.Valid() {
		return errors.Validation(errors.StageEncode, "unknown waveform %d", o.Waveform)
	}
	if err := o.Envelope.Validate(); err != nil {
		return err
	}
	seen := make(map[FilterType]bool, len(o.Filters))
	for _, f := range o.Filters {
		if err := f.Validate(); err != nil {
			return err
		}
		if seen[f.Type] {
			return errors.Validation(errors.StageEncode, "duplicate %s filter", f.Type)
		}
		seen[f.Type] = true
	}
	return nil
}

// DefaultOperator returns the boot parameter set: ratio 1, sine, a
// snappy envelope, no filters.
func DefaultOperator() Operator {
	return Operator{
		Ratio:           1,
		ModulationIndex: 1,
		Waveform:        WaveSine,
		Envelope: Envelope{
			Attack:  0.01,
			Decay:   0.1,
			Sustain: 0.7,
			Release: 0.3,
		},
	}
}
