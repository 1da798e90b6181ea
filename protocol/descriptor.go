package protocol

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/ajbucci/rustfmsynth-sub000/errors"
	"github.com/ajbucci/rustfmsynth-sub000/patch"
)

// Descriptors cross the context boundary as canonical CBOR so the
// bytes for a given descriptor are deterministic.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("protocol: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// EncodeFilter serializes a filter descriptor to wire bytes. The
// descriptor must validate.
func EncodeFilter(f patch.Filter) ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	b, err := cborEncMode.Marshal(f)
	if err != nil {
		return nil, errors.Wrap(errors.ClassProtocol, errors.StageEncode, err, "marshal filter")
	}
	return b, nil
}

// DecodeFilter deserializes and validates filter descriptor bytes.
func DecodeFilter(data []byte) (patch.Filter, error) {
	var f patch.Filter
	if err := cbor.Unmarshal(data, &f); err != nil {
		return patch.Filter{}, errors.Wrap(errors.ClassProtocol, errors.StageDecode, err, "unmarshal filter")
	}
	if err := f.Validate(); err != nil {
		return patch.Filter{}, err
	}
	return f, nil
}

// EncodeFilterType serializes just a filter type tag, used by
// RemoveOperatorFilter.
func EncodeFilterType(t patch.FilterType) ([]byte, error) {
	switch t {
	case patch.FilterLowpass, patch.FilterHighpass, patch.FilterBandpass:
	default:
		return nil, errors.Protocol(errors.StageEncode, "unknown filter type %q", t)
	}
	b, err := cborEncMode.Marshal(string(t))
	if err != nil {
		return nil, errors.Wrap(errors.ClassProtocol, errors.StageEncode, err, "marshal filter type")
	}
	return b, nil
}

// DecodeFilterType reverses EncodeFilterType.
func DecodeFilterType(data []byte) (patch.FilterType, error) {
	var s string
	if err := cbor.Unmarshal(data, &s); err != nil {
		return "", errors.Wrap(errors.ClassProtocol, errors.StageDecode, err, "unmarshal filter type")
	}
	t := patch.FilterType(s)
	switch t {
	case patch.FilterLowpass, patch.FilterHighpass, patch.FilterBandpass:
		return t, nil
	}
	return "", errors.Protocol(errors.StageDecode, "unknown filter type %q", s)
}

// EncodeEffect serializes an effect descriptor to wire bytes. The
// descriptor must validate.
func EncodeEffect(e patch.Effect) ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	b, err := cborEncMode.Marshal(e)
	if err != nil {
		return nil, errors.Wrap(errors.ClassProtocol, errors.StageEncode, err, "marshal effect")
	}
	return b, nil
}

// DecodeEffect deserializes and validates effect descriptor bytes.
func DecodeEffect(data []byte) (patch.Effect, error) {
	var e patch.Effect
	if err := cbor.Unmarshal(data, &e); err != nil {
		return patch.Effect{}, errors.Wrap(errors.ClassProtocol, errors.StageDecode, err, "unmarshal effect")
	}
	if err := e.Validate(); err != nil {
		return patch.Effect{}, err
	}
	return e, nil
}
