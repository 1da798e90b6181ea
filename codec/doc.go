// Package codec implements the two string encodings of synthesizer
// state.
//
// The matrix codec bit-packs the N x (N+1) routing matrix into a
// fixed-length URL-safe string: row-major bits, zero-padded to a
// multiple of six, one base64-alphabet character per sextet. String
// length alone identifies N, so decoding is unambiguous for every
// supported operator count.
//
// The patch codec serializes a full configuration: versioned JSON,
// zlib-compressed, raw URL-safe base64. Decoding falls back to parsing
// the bytes as plain JSON when inflation fails, which keeps old
// uncompressed share links working. Anything that fails shape
// validation decodes to "no state" rather than a partial patch.
package codec
