package patch

import "github.com/ajbucci/rustfmsynth-sub000/errors"

// OperatorCount is the fixed number of operators in a live session.
const OperatorCount = 6

// MinOperators and MaxOperators bound the operator counts the codecs
// accept for foreign records.
const (
	MinOperators = 2
	MaxOperators = 12
)

// Algorithm is the N x (N+1) binary routing matrix. Row i describes
// what feeds operator i: cell [i][j] for j<N means operator j modulates
// operator i, and cell [i][N] means operator i is a carrier routed to
// the audio output. An all-zero row and a matrix with no carriers are
// both valid (silence, not an error).
type Algorithm [][]uint8

// NewAlgorithm returns an all-zero n-operator matrix.
func NewAlgorithm(n int) Algorithm {
	m := make(Algorithm, n)
	for i := range m {
		m[i] = make([]uint8, n+1)
	}
	return m
}

// DefaultAlgorithm returns the boot routing: operator 0 is the sole
// carrier, no modulation connections.
func DefaultAlgorithm(n int) Algorithm {
	m := NewAlgorithm(n)
	m[0][n] = 1
	return m
}

// Operators returns the operator count N, or 0 for a malformed matrix.
func (m Algorithm) Operators() int {
	n := len(m)
	if n == 0 {
		return 0
	}
	for _, row := range m {
		if len(row) != n+1 {
			return 0
		}
	}
	return n
}

// Validate checks dimensions and cell values. The matrix must be
// N x (N+1) with N in [MinOperators, MaxOperators] and every cell 0 or 1.
func (m Algorithm) Validate() error {
	n := len(m)
	if n < MinOperators || n > MaxOperators {
		return errors.Validation(errors.StageEncode,
			"unsupported operator count %d (want %d..%d)", n, MinOperators, MaxOperators)
	}
	for i, row := range m {
		if len(row) != n+1 {
			return errors.Validation(errors.StageEncode,
				"row %d has %d cells, want %d", i, len(row), n+1)
		}
		for j, cell := range row {
			if cell > 1 {
				return errors.Validation(errors.StageEncode,
					"cell [%d][%d] = %d is not binary", i, j, cell)
			}
		}
	}
	return nil
}

// Clone returns a deep copy.
func (m Algorithm) Clone() Algorithm {
	out := make(Algorithm, len(m))
	for i, row := range m {
		out[i] = append([]uint8(nil), row...)
	}
	return out
}

// Equal reports whether two matrices have identical dimensions and cells.
func (m Algorithm) Equal(other Algorithm) bool {
	if len(m) != len(other) {
		return false
	}
	for i, row := range m {
		if len(row) != len(other[i]) {
			return false
		}
		for j, cell := range row {
			if cell != other[i][j] {
				return false
			}
		}
	}
	return true
}

// Resize returns a copy adjusted to n operators: rows and columns beyond
// n are dropped, missing ones are zero-filled, and the carrier column
// stays the final column.
func (m Algorithm) Resize(n int) Algorithm {
	src := m.Operators()
	out := NewAlgorithm(n)
	for i := 0; i < n && i < src; i++ {
		for j := 0; j < n && j < src; j++ {
			out[i][j] = m[i][j]
		}
		out[i][n] = m[i][src]
	}
	return out
}
