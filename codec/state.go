package codec

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"strings"

	"github.com/klauspost/compress/zlib"

	"github.com/ajbucci/rustfmsynth-sub000/errors"
	"github.com/ajbucci/rustfmsynth-sub000/patch"
)

// StateVersion tags every serialized patch. Decoding rejects any other
// value; version bumps are the only sanctioned way to change the format.
const StateVersion = "1"

// stateDoc is the structured text form of a patch. Field names are
// frozen: they are the on-wire format for share links and stored
// records.
type stateDoc struct {
	Version      string          `json:"version"`
	Matrix       [][]uint8       `json:"matrix"`
	Operators    []patch.Operator `json:"operators"`
	MasterVolume float64         `json:"masterVolume"`
	Effects      []*patch.Effect `json:"effects,omitempty"`
}

// EncodePatch serializes a full configuration to one opaque URL-safe
// string: JSON, zlib-deflated, raw URL-safe base64.
func EncodePatch(p *patch.Patch) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}

	doc := stateDoc{
		Version:      StateVersion,
		Matrix:       p.Algorithm,
		Operators:    p.Operators,
		MasterVolume: p.MasterVolume,
		Effects:      p.Effects[:],
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", errors.Wrap(errors.ClassValidation, errors.StageEncode, err, "marshal patch")
	}

	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return "", errors.Wrap(errors.ClassValidation, errors.StageEncode, err, "compress patch")
	}
	if err := zw.Close(); err != nil {
		return "", errors.Wrap(errors.ClassValidation, errors.StageEncode, err, "compress patch")
	}

	return base64.RawURLEncoding.EncodeToString(buf.Bytes()), nil
}

// DecodePatch reverses EncodePatch and adjusts the result to n
// operators, truncating or default-padding as needed. Any failure —
// bad base64, bad JSON, version mismatch, missing matrix or operators,
// out-of-range values — yields an error and no patch, never a partial
// one.
//
// If inflation fails the bytes are parsed as plain JSON instead. That
// is a legacy shim for links minted before compression and must not
// grow to cover other ambiguous inputs.
func DecodePatch(s string, n int) (*patch.Patch, error) {
	compressed, err := base64.RawURLEncoding.DecodeString(normalizeBase64(s))
	if err != nil {
		return nil, errors.Wrap(errors.ClassValidation, errors.StageDecode, err, "decode base64")
	}

	raw := compressed
	if zr, zerr := zlib.NewReader(bytes.NewReader(compressed)); zerr == nil {
		inflated, rerr := io.ReadAll(zr)
		zr.Close()
		if rerr != nil {
			return nil, errors.Wrap(errors.ClassValidation, errors.StageDecode, rerr, "inflate patch")
		}
		raw = inflated
	}

	var doc stateDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrap(errors.ClassValidation, errors.StageDecode, err, "parse patch")
	}

	if doc.Version != StateVersion {
		return nil, errors.Validation(errors.StageDecode, "unknown state version %q", doc.Version)
	}
	if len(doc.Operators) == 0 {
		return nil, errors.Validation(errors.StageDecode, "state has no operators")
	}
	m := patch.Algorithm(doc.Matrix)
	if m.Operators() == 0 {
		return nil, errors.Validation(errors.StageDecode, "state has no routing matrix")
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	p := &patch.Patch{
		Algorithm:    m,
		Operators:    doc.Operators,
		MasterVolume: doc.MasterVolume,
	}
	for i, fx := range doc.Effects {
		if i >= patch.EffectSlotCount {
			break
		}
		p.Effects[i] = fx
	}

	// A record produced under a different operator count is usable;
	// anything else malformed is not.
	if len(p.Operators) != m.Operators() {
		return nil, errors.Validation(errors.StageDecode,
			"matrix is %d operators but list has %d", m.Operators(), len(p.Operators))
	}
	if m.Operators() != n {
		p = p.Resize(n)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// normalizeBase64 accepts the standard alphabet and padded forms that
// older links used.
func normalizeBase64(s string) string {
	s = strings.ReplaceAll(s, "+", "-")
	s = strings.ReplaceAll(s, "/", "_")
	return strings.TrimRight(s, "=")
}

// FragmentKey is the URL fragment parameter that carries a patch string.
const FragmentKey = "patch"

// BuildFragment renders a share-link fragment for one encoded patch.
func BuildFragment(state string) string {
	return FragmentKey + "=" + state
}

// ParseFragment extracts the patch string from a URL fragment, with or
// without the leading '#'. Returns "" when no patch parameter exists.
func ParseFragment(fragment string) string {
	fragment = strings.TrimPrefix(fragment, "#")
	for _, part := range strings.Split(fragment, "&") {
		if v, ok := strings.CutPrefix(part, FragmentKey+"="); ok {
			return v
		}
	}
	return ""
}
