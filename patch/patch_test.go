package patch_test

import (
	"testing"

	"github.com/ajbucci/rustfmsynth-sub000/patch"
)

func TestDefaultAlgorithm(t *testing.T) {
	m := patch.DefaultAlgorithm(4)

	if got := m.Operators(); got != 4 {
		t.Fatalf("Operators() = %d, want 4", got)
	}
	if m[0][4] != 1 {
		t.Error("operator 0 should be a carrier")
	}
	for i, row := range m {
		for j, cell := range row {
			if i == 0 && j == 4 {
				continue
			}
			if cell != 0 {
				t.Errorf("cell [%d][%d] = %d, want 0", i, j, cell)
			}
		}
	}
}

func TestAlgorithmValidate(t *testing.T) {
	tests := []struct {
		name    string
		build   func() patch.Algorithm
		wantErr bool
	}{
		{"default 6", func() patch.Algorithm { return patch.DefaultAlgorithm(6) }, false},
		{"all zero is valid", func() patch.Algorithm { return patch.NewAlgorithm(4) }, false},
		{"min size", func() patch.Algorithm { return patch.NewAlgorithm(2) }, false},
		{"max size", func() patch.Algorithm { return patch.NewAlgorithm(12) }, false},
		{"too small", func() patch.Algorithm { return patch.NewAlgorithm(1) }, true},
		{"too large", func() patch.Algorithm { return patch.NewAlgorithm(13) }, true},
		{
			"ragged row",
			func() patch.Algorithm {
				m := patch.NewAlgorithm(4)
				m[2] = m[2][:3]
				return m
			},
			true,
		},
		{
			"non-binary cell",
			func() patch.Algorithm {
				m := patch.NewAlgorithm(4)
				m[1][2] = 2
				return m
			},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.build().Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAlgorithmResize(t *testing.T) {
	m := patch.NewAlgorithm(4)
	m[0][4] = 1 // carrier
	m[1][0] = 1 // op0 modulates op1
	m[3][2] = 1

	grown := m.Resize(6)
	if got := grown.Operators(); got != 6 {
		t.Fatalf("Operators() = %d, want 6", got)
	}
	if grown[0][6] != 1 {
		t.Error("carrier flag should move to the new final column")
	}
	if grown[1][0] != 1 || grown[3][2] != 1 {
		t.Error("modulation cells should survive growth")
	}

	shrunk := m.Resize(3)
	if got := shrunk.Operators(); got != 3 {
		t.Fatalf("Operators() = %d, want 3", got)
	}
	if shrunk[0][3] != 1 {
		t.Error("carrier flag should move to the new final column")
	}
	if shrunk[1][0] != 1 {
		t.Error("in-range modulation cell should survive shrink")
	}
}

func TestOperatorValidate(t *testing.T) {
	valid := patch.DefaultOperator()
	if err := valid.Validate(); err != nil {
		t.Fatalf("default operator should validate: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*patch.Operator)
	}{
		{"negative ratio", func(o *patch.Operator) { o.Ratio = -1 }},
		{"negative fixed frequency", func(o *patch.Operator) { o.FixedFrequency = -440 }},
		{"negative modulation index", func(o *patch.Operator) { o.ModulationIndex = -0.5 }},
		{"unknown waveform", func(o *patch.Operator) { o.Waveform = 99 }},
		{"negative attack", func(o *patch.Operator) { o.Envelope.Attack = -0.1 }},
		{"sustain above one", func(o *patch.Operator) { o.Envelope.Sustain = 1.5 }},
		{
			"duplicate filter type",
			func(o *patch.Operator) {
				o.Filters = []patch.Filter{
					{Type: patch.FilterLowpass, Cutoff: 1000},
					{Type: patch.FilterLowpass, Cutoff: 2000},
				}
			},
		},
		{
			"unknown filter type",
			func(o *patch.Operator) {
				o.Filters = []patch.Filter{{Type: "comb", Cutoff: 100}}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := patch.DefaultOperator()
			tt.mutate(&op)
			if err := op.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestFixedMode(t *testing.T) {
	op := patch.DefaultOperator()
	if op.FixedMode() {
		t.Error("fixed frequency 0 means ratio mode")
	}
	op.FixedFrequency = 440
	if !op.FixedMode() {
		t.Error("non-zero fixed frequency means fixed mode")
	}
}

func TestEffectValidate(t *testing.T) {
	tests := []struct {
		name    string
		fx      patch.Effect
		wantErr bool
	}{
		{"reverb ok", patch.Effect{Type: patch.EffectReverb, Mix: 0.3, Size: 0.8, Damp: 0.5}, false},
		{"delay ok", patch.Effect{Type: patch.EffectDelay, Mix: 0.2, Time: 0.25, Feedback: 0.4}, false},
		{"chorus ok", patch.Effect{Type: patch.EffectChorus, Mix: 0.5, Rate: 1.2, Depth: 0.01}, false},
		{"unknown type", patch.Effect{Type: "flanger", Mix: 0.5}, true},
		{"mix out of range", patch.Effect{Type: patch.EffectReverb, Mix: 1.5, Size: 0.5}, true},
		{"delay feedback at one", patch.Effect{Type: patch.EffectDelay, Mix: 0.2, Time: 0.25, Feedback: 1}, true},
		{"delay without time", patch.Effect{Type: patch.EffectDelay, Mix: 0.2}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fx.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPatchDefaultValidates(t *testing.T) {
	p := patch.Default(patch.OperatorCount)
	if err := p.Validate(); err != nil {
		t.Fatalf("default patch should validate: %v", err)
	}
	if len(p.Operators) != patch.OperatorCount {
		t.Errorf("operator count = %d, want %d", len(p.Operators), patch.OperatorCount)
	}
}

func TestPatchValidateMismatch(t *testing.T) {
	p := patch.Default(6)
	p.Operators = p.Operators[:4]
	if err := p.Validate(); err == nil {
		t.Error("matrix/operator count mismatch should fail validation")
	}
}

func TestPatchResize(t *testing.T) {
	p := patch.Default(6)
	p.Operators[5].Ratio = 3.5
	p.Operators[1].Detune = 7

	shrunk := p.Resize(4)
	if len(shrunk.Operators) != 4 {
		t.Fatalf("operator count = %d, want 4", len(shrunk.Operators))
	}
	if shrunk.Operators[1].Detune != 7 {
		t.Error("surviving operator should keep its parameters")
	}
	if err := shrunk.Validate(); err != nil {
		t.Errorf("resized patch should validate: %v", err)
	}

	grown := shrunk.Resize(6)
	if len(grown.Operators) != 6 {
		t.Fatalf("operator count = %d, want 6", len(grown.Operators))
	}
	if grown.Operators[5].Ratio != 1 {
		t.Error("padded operator should be the default")
	}
}

func TestPatchEqual(t *testing.T) {
	a := patch.Default(6)
	b := patch.Default(6)
	if !a.Equal(b) {
		t.Fatal("identical defaults should be equal")
	}

	b.Operators[2].Ratio = 2
	if a.Equal(b) {
		t.Error("ratio change should break equality")
	}

	c := patch.Default(6)
	c.Effects[1] = &patch.Effect{Type: patch.EffectReverb, Mix: 0.3, Size: 0.5}
	if a.Equal(c) {
		t.Error("effect slot change should break equality")
	}
}

func TestPatchClone(t *testing.T) {
	orig := patch.Default(6)
	orig.Operators[0].Filters = []patch.Filter{{Type: patch.FilterLowpass, Cutoff: 800, Resonance: 0.5}}
	orig.Effects[0] = &patch.Effect{Type: patch.EffectDelay, Mix: 0.2, Time: 0.3, Feedback: 0.4}

	clone := orig.Clone()
	if !clone.Equal(orig) {
		t.Fatal("clone should equal the original")
	}

	clone.Algorithm[0][1] = 1
	clone.Operators[0].Filters[0].Cutoff = 200
	clone.Effects[0].Mix = 0.9

	if orig.Algorithm[0][1] != 0 {
		t.Error("clone shares the algorithm matrix")
	}
	if orig.Operators[0].Filters[0].Cutoff != 800 {
		t.Error("clone shares operator filters")
	}
	if orig.Effects[0].Mix != 0.2 {
		t.Error("clone shares effect slots")
	}
}
