package codec_test

import (
	"math/rand"
	"testing"

	"github.com/ajbucci/rustfmsynth-sub000/codec"
	"github.com/ajbucci/rustfmsynth-sub000/patch"
)

func TestEncodeMatrixDefaultFour(t *testing.T) {
	// The four-operator boot matrix: operator 0 is the sole carrier.
	m := patch.Algorithm{
		{0, 0, 0, 0, 1},
		{0, 0, 0, 0, 0},
		{0, 0, 0, 0, 0},
		{0, 0, 0, 0, 0},
	}

	s, err := codec.EncodeMatrix(m)
	if err != nil {
		t.Fatalf("EncodeMatrix: %v", err)
	}
	if s != "CAAA" {
		t.Fatalf("encoded = %q, want %q", s, "CAAA")
	}

	back, err := codec.DecodeMatrix(s)
	if err != nil {
		t.Fatalf("DecodeMatrix: %v", err)
	}
	if !m.Equal(back) {
		t.Errorf("round trip mismatch: %v -> %q -> %v", m, s, back)
	}
}

func TestMatrixRoundTripAllSizes(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for n := patch.MinOperators; n <= patch.MaxOperators; n++ {
		for trial := 0; trial < 50; trial++ {
			m := patch.NewAlgorithm(n)
			for i := range m {
				for j := range m[i] {
					m[i][j] = uint8(rng.Intn(2))
				}
			}

			s, err := codec.EncodeMatrix(m)
			if err != nil {
				t.Fatalf("n=%d: EncodeMatrix: %v", n, err)
			}
			if want := codec.EncodedMatrixLen(n); len(s) != want {
				t.Fatalf("n=%d: encoded length = %d, want %d", n, len(s), want)
			}

			back, err := codec.DecodeMatrix(s)
			if err != nil {
				t.Fatalf("n=%d: DecodeMatrix(%q): %v", n, s, err)
			}
			if !m.Equal(back) {
				t.Fatalf("n=%d: round trip mismatch for %q", n, s)
			}
		}
	}
}

func TestEncodedMatrixLenTable(t *testing.T) {
	// Lengths must be distinct or decoding could not infer N.
	seen := map[int]int{}
	for n := patch.MinOperators; n <= patch.MaxOperators; n++ {
		l := codec.EncodedMatrixLen(n)
		if l == 0 {
			t.Fatalf("no table entry for n=%d", n)
		}
		if prev, dup := seen[l]; dup {
			t.Fatalf("length %d ambiguous between n=%d and n=%d", l, prev, n)
		}
		seen[l] = n

		want := (n*(n+1) + 5) / 6
		if l != want {
			t.Errorf("n=%d: length = %d, want ceil(%d/6) = %d", n, l, n*(n+1), want)
		}
	}

	if codec.EncodedMatrixLen(1) != 0 || codec.EncodedMatrixLen(13) != 0 {
		t.Error("out-of-range operator counts should have no table entry")
	}
}

func TestEncodeMatrixRejects(t *testing.T) {
	tests := []struct {
		name  string
		build func() patch.Algorithm
	}{
		{"too few operators", func() patch.Algorithm { return patch.NewAlgorithm(1) }},
		{"too many operators", func() patch.Algorithm { return patch.NewAlgorithm(13) }},
		{
			"non-binary cell",
			func() patch.Algorithm {
				m := patch.NewAlgorithm(4)
				m[0][0] = 7
				return m
			},
		},
		{
			"ragged row",
			func() patch.Algorithm {
				m := patch.NewAlgorithm(4)
				m[3] = append(m[3], 0)
				return m
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := codec.EncodeMatrix(tt.build()); err == nil {
				t.Error("expected encode error")
			}
		})
	}
}

func TestDecodeMatrixRejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"length matches no operator count", "AAA"},
		{"invalid character", "CA!A"},
		{"padding character", "CAA="},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := codec.DecodeMatrix(tt.input); err == nil {
				t.Errorf("DecodeMatrix(%q): expected error", tt.input)
			}
		})
	}
}
