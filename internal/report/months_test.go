package report

import (
	"testing"
	"time"
)

func TestParseMonth(t *testing.T) {
	jan := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		label string
		ok    bool
	}{
		{"Jan 2025", true},
		{"January 2025", true},
		{" Jan  2025 ", true},
		{"Jan-2025", true},
		{"Jan-25", true},
		{"2025-01", true},
		{"01/2025", true},
		{"1/2025", true},
		{"Total", false},
		{"", false},
		{"Budget", false},
	}

	for _, tt := range tests {
		got, ok := parseMonth(tt.label)
		if ok != tt.ok {
			t.Errorf("parseMonth(%q) ok = %v, want %v", tt.label, ok, tt.ok)
			continue
		}
		if ok && !got.Equal(jan) {
			t.Errorf("parseMonth(%q) = %v, want %v", tt.label, got, jan)
		}
	}
}

func TestPeriod(t *testing.T) {
	first := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)

	label, start, end := period(first, last)
	if label != "2024" || start != "2024-02-01" || end != "2024-02-29" {
		t.Fatalf("period = %q %q %q", label, start, end)
	}

	last = time.Date(2025, time.November, 1, 0, 0, 0, 0, time.UTC)
	label, _, end = period(first, last)
	if label != "2024-2025" || end != "2025-11-30" {
		t.Fatalf("period spanning years = %q %q", label, end)
	}
}
