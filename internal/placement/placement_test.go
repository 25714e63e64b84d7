package placement

import "testing"

func TestPolicy_Decide(t *testing.T) {
	p := Policy{ThresholdBytes: 1024}

	tests := []struct {
		size int
		want Decision
	}{
		{0, Inline},
		{1024, Inline},
		{1025, Pointer},
		{1 << 20, Pointer},
	}

	for _, tt := range tests {
		if got := p.Decide(tt.size); got != tt.want {
			t.Errorf("Decide(%d) = %v, want %v", tt.size, got, tt.want)
		}
	}
}

func TestPolicy_ZeroThresholdDisablesInlining(t *testing.T) {
	p := Policy{ThresholdBytes: 0}

	if got := p.Decide(0); got != Pointer {
		t.Errorf("Decide(0) with zero threshold = %v, want Pointer", got)
	}
}

func TestDecision_String(t *testing.T) {
	if Inline.String() != "INLINE" {
		t.Errorf("Inline.String() = %q, want INLINE", Inline.String())
	}
	if Pointer.String() != "POINTER" {
		t.Errorf("Pointer.String() = %q, want POINTER", Pointer.String())
	}
}
