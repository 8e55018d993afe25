package report

import (
	"testing"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		cell string
		want float64
		ok   bool
	}{
		{"100", 100, true},
		{"1,234.56", 1234.56, true},
		{"$1,234.56", 1234.56, true},
		{"(1,234.56)", -1234.56, true},
		{"($50)", -50, true},
		{"-42.5", -42.5, true},
		{" 7 ", 7, true},
		{"1 000", 1000, true},
		{"0", 0, true},
		{"", 0, false},
		{"   ", 0, false},
		{"-", 0, false},
		{"n/a", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
		{"()", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseAmount(tt.cell)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseAmount(%q) = (%v, %v), want (%v, %v)", tt.cell, got, ok, tt.want, tt.ok)
		}
	}
}

func TestRound2(t *testing.T) {
	if got := round2(0.1 + 0.2); got != 0.3 {
		t.Fatalf("round2 = %v", got)
	}
	if got := round2(-1.005); got != -1 {
		t.Fatalf("round2(-1.005) = %v", got)
	}
}
