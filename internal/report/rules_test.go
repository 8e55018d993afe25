package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRules(t *testing.T) {
	r := DefaultRules()
	assert.Equal(t, 3, r.Version)
	assert.Len(t, r.Digest(), 64)
	assert.Equal(t, []string{TotalKeyNetIncome}, r.RequiredTotals)
	assert.Equal(t, r.Digest(), DefaultRules().Digest())
}

func TestClassifyKeywords(t *testing.T) {
	r := DefaultRules()
	tests := map[string]CategoryType{
		"Rental Income":         TypeIncome,
		"Gross Revenue":         TypeIncome,
		"Management Fee Income": TypeIncome,
		"COGS":                  TypeCOGS,
		"Cost of Goods Sold":    TypeCOGS,
		"Leasing Commissions":   TypeCOGS,
		"Payroll":               TypeExpense,
		"Office Supplies":       TypeExpense,
		"Legal Fees":            TypeExpense,
		"Total Expense":         TypeExpense,
	}
	for name, want := range tests {
		assert.Equal(t, want, r.Classify(name, 99, 100), name)
	}
}

func TestClassifyPositionFallback(t *testing.T) {
	r := DefaultRules()
	assert.Equal(t, TypeIncome, r.Classify("Widgets", 0, 100))
	assert.Equal(t, TypeIncome, r.Classify("Widgets", 19, 100))
	assert.Equal(t, TypeCOGS, r.Classify("Widgets", 20, 100))
	assert.Equal(t, TypeExpense, r.Classify("Widgets", 50, 100))
	assert.Equal(t, TypeOther, r.Classify("Widgets", 95, 100))
	assert.Equal(t, TypeOther, r.Classify("Widgets", 0, 0))
	assert.Equal(t, TypeOther, r.Classify("   ", 0, 100))
}

func TestParseRulesRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"bad yaml", "version: [", "decode rules"},
		{"no version", "types: []", "version must be positive"},
		{"unknown type", "version: 1\ntypes:\n  - type: asset\n", "unknown type"},
		{"unknown default", "version: 1\nfallback_default: asset\n", "unknown fallback_default"},
		{"bands not increasing", "version: 1\nposition_fallback:\n  - {below: 0.5, type: income}\n  - {below: 0.4, type: cogs}\n", "bounds must increase"},
		{"band above one", "version: 1\nposition_fallback:\n  - {below: 1.5, type: income}\n", "bounds must increase"},
		{"unknown total", "version: 1\ntotals:\n  - {key: ebitda, pattern: EBITDA}\n", "unknown key"},
		{"derived total", "version: 1\ntotals:\n  - {key: real_revenue, pattern: Real}\n", "unknown key"},
		{"duplicate total", "version: 1\ntotals:\n  - {key: noi, pattern: NOI}\n  - {key: noi, pattern: Net}\n", "duplicate key"},
		{"bad pattern", "version: 1\ntotals:\n  - {key: noi, pattern: '('}\n", "totals[0]"},
		{"unknown required", "version: 1\nrequired_totals: [ebitda]\n", "required_totals"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRules([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseRulesNormalizesKeywords(t *testing.T) {
	r, err := ParseRules([]byte("version: 2\ntypes:\n  - type: cogs\n    keywords: ['  Freight In ']\n"))
	require.NoError(t, err)
	assert.Equal(t, "freight in", r.Types[0].Keywords[0])
	assert.Equal(t, TypeCOGS, r.Classify("FREIGHT IN - ocean", 0, 1))
	assert.Equal(t, TypeOther, r.FallbackDefault)
}

func TestLoadRules(t *testing.T) {
	r, err := LoadRules("")
	require.NoError(t, err)
	assert.Equal(t, DefaultRules().Digest(), r.Digest())

	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: 7\n"), 0o600))
	r, err = LoadRules(path)
	require.NoError(t, err)
	assert.Equal(t, 7, r.Version)
	assert.NotEqual(t, DefaultRules().Digest(), r.Digest())

	_, err = LoadRules(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("version: 0\n"), 0o600))
	_, err = LoadRules(bad)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), bad))
}
