package codec

import (
	"strings"

	"github.com/ajbucci/rustfmsynth-sub000/errors"
	"github.com/ajbucci/rustfmsynth-sub000/patch"
)

// The URL-safe base64 alphabet. Each character carries one 6-bit group
// directly; there is no padding character, so encoded length is exactly
// ceil(N*(N+1)/6) for operator count N.
const matrixAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

// matrixSize holds the precomputed geometry for one operator count.
type matrixSize struct {
	bits    int // N*(N+1) payload bits
	chars   int // encoded length, ceil(bits/6)
	padBits int // trailing zero bits added by encoding
}

// sizeByOps and opsByLen form the bijective size table for all
// supported operator counts. Encoded lengths are distinct across
// 2..12, so a string's length alone identifies N.
var (
	sizeByOps = map[int]matrixSize{}
	opsByLen  = map[int]int{}

	matrixCharIndex [256]int8
)

func init() {
	for n := patch.MinOperators; n <= patch.MaxOperators; n++ {
		bits := n * (n + 1)
		chars := (bits + 5) / 6
		sizeByOps[n] = matrixSize{bits: bits, chars: chars, padBits: chars*6 - bits}
		opsByLen[chars] = n
	}

	for i := range matrixCharIndex {
		matrixCharIndex[i] = -1
	}
	for i := 0; i < len(matrixAlphabet); i++ {
		matrixCharIndex[matrixAlphabet[i]] = int8(i)
	}
}

// EncodeMatrix packs a routing matrix into its compact string form.
// The matrix must validate: N in the supported range, every row N+1
// cells, every cell binary.
func EncodeMatrix(m patch.Algorithm) (string, error) {
	if err := m.Validate(); err != nil {
		return "", err
	}
	n := len(m)
	size := sizeByOps[n]

	var b strings.Builder
	b.Grow(size.chars)

	// Accumulate row-major bits high-first and emit a character per
	// full sextet; the tail sextet is zero-padded.
	var acc, nbits uint
	flush := func() {
		for nbits >= 6 {
			nbits -= 6
			b.WriteByte(matrixAlphabet[(acc>>nbits)&0x3f])
		}
		acc &= (1 << nbits) - 1
	}
	for _, row := range m {
		for _, cell := range row {
			acc = acc<<1 | uint(cell)
			nbits++
			flush()
		}
	}
	if nbits > 0 {
		b.WriteByte(matrixAlphabet[(acc<<(6-nbits))&0x3f])
	}
	return b.String(), nil
}

// DecodeMatrix reverses EncodeMatrix. The string's length must match a
// supported operator count exactly; trailing pad bits are discarded.
func DecodeMatrix(s string) (patch.Algorithm, error) {
	n, ok := opsByLen[len(s)]
	if !ok {
		return nil, errors.Validation(errors.StageDecode,
			"matrix string length %d matches no supported operator count", len(s))
	}
	size := sizeByOps[n]

	m := patch.NewAlgorithm(n)
	bit := 0
	for i := 0; i < len(s); i++ {
		v := matrixCharIndex[s[i]]
		if v < 0 {
			return nil, errors.Validation(errors.StageDecode,
				"matrix string has invalid character %q at %d", s[i], i)
		}
		for shift := 5; shift >= 0; shift-- {
			if bit >= size.bits {
				break
			}
			row, col := bit/(n+1), bit%(n+1)
			m[row][col] = uint8(v>>shift) & 1
			bit++
		}
	}
	return m, nil
}

// EncodedMatrixLen reports the compact string length for n operators,
// or 0 if n is unsupported.
func EncodedMatrixLen(n int) int {
	return sizeByOps[n].chars
}
