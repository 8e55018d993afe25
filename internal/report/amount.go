package report

import (
	"math"
	"strconv"
	"strings"
)

// ParseAmount converts an accounting-formatted cell to a signed amount.
// It accepts currency symbols, thousands separators and parenthesized
// negatives. ok is false for blank or non-numeric cells; those are never
// treated as zero.
func ParseAmount(cell string) (amount float64, ok bool) {
	s := strings.TrimSpace(cell)
	s = strings.NewReplacer("$", "", ",", "", " ", "", "\u00a0", "").Replace(s)
	if s == "" || s == "-" {
		return 0, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	if negative {
		v = -v
	}
	return v, true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
