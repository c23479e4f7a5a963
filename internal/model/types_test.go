package model

import "testing"

func TestNormalizeProb(t *testing.T) {
	tests := []struct {
		name  string
		input float64
		want  float64
	}{
		{"cents", 55, 0.55},
		{"probability", 0.42, 0.42},
		{"exactly one is probability", 1.0, 1.0},
		{"just above one is cents", 1.55, 0.0155},
		{"zero", 0, 0},
		{"hundred cents", 100, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeProb(tt.input)
			if got != tt.want {
				t.Errorf("NormalizeProb(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestStrOrNil(t *testing.T) {
	if StrOrNil("") != nil {
		t.Error("StrOrNil(\"\") should be nil")
	}
	if got := StrOrNil("x"); got == nil || *got != "x" {
		t.Errorf("StrOrNil(\"x\") = %v, want pointer to \"x\"", got)
	}
}
