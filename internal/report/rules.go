package report

import (
	_ "embed"
	"encoding/hex"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/zeebo/blake3"
	"gopkg.in/yaml.v3"
)

//go:embed account_types.yaml
var defaultRulesYAML []byte

// Rules is the versioned classification and totals table.
type Rules struct {
	Version         int            `yaml:"version"`
	Types           []TypeRule     `yaml:"types"`
	Fallback        []PositionRule `yaml:"position_fallback"`
	FallbackDefault CategoryType   `yaml:"fallback_default"`
	Totals          []TotalRule    `yaml:"totals"`
	RequiredTotals  []string       `yaml:"required_totals"`

	digest string
}

// TypeRule maps account-name keywords to a category type.
type TypeRule struct {
	Type     CategoryType `yaml:"type"`
	Keywords []string     `yaml:"keywords"`
}

// PositionRule assigns Type to rows whose relative position is below Below.
type PositionRule struct {
	Below float64      `yaml:"below"`
	Type  CategoryType `yaml:"type"`
}

// TotalRule locates the summary row for one total key.
type TotalRule struct {
	Key     string `yaml:"key"`
	Pattern string `yaml:"pattern"`

	re *regexp.Regexp
}

// DefaultRules returns the embedded rule table.
func DefaultRules() *Rules {
	r, err := ParseRules(defaultRulesYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded account rules are invalid: %v", err))
	}
	return r
}

// LoadRules reads a rule table from path. An empty path yields the defaults.
func LoadRules(path string) (*Rules, error) {
	if path == "" {
		return DefaultRules(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read account rules: %w", err)
	}
	r, err := ParseRules(data)
	if err != nil {
		return nil, fmt.Errorf("account rules %s: %w", path, err)
	}
	return r, nil
}

// ParseRules decodes and validates a YAML rule table.
func ParseRules(data []byte) (*Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode rules: %w", err)
	}
	if r.Version <= 0 {
		return nil, fmt.Errorf("rules version must be positive")
	}
	if r.FallbackDefault == "" {
		r.FallbackDefault = TypeOther
	}
	if !r.FallbackDefault.valid() {
		return nil, fmt.Errorf("unknown fallback_default %q", r.FallbackDefault)
	}

	for i, tr := range r.Types {
		if !tr.Type.valid() {
			return nil, fmt.Errorf("types[%d]: unknown type %q", i, tr.Type)
		}
		for j, kw := range tr.Keywords {
			r.Types[i].Keywords[j] = strings.ToLower(strings.TrimSpace(kw))
		}
	}

	prev := 0.0
	for i, pr := range r.Fallback {
		if !pr.Type.valid() {
			return nil, fmt.Errorf("position_fallback[%d]: unknown type %q", i, pr.Type)
		}
		if pr.Below <= prev || pr.Below > 1 {
			return nil, fmt.Errorf("position_fallback[%d]: bounds must increase within (0, 1]", i)
		}
		prev = pr.Below
	}

	var scratch Totals
	seen := make(map[string]bool)
	for i, tr := range r.Totals {
		if scratch.field(tr.Key) == nil || tr.Key == TotalKeyRealRevenue {
			return nil, fmt.Errorf("totals[%d]: unknown key %q", i, tr.Key)
		}
		if seen[tr.Key] {
			return nil, fmt.Errorf("totals[%d]: duplicate key %q", i, tr.Key)
		}
		seen[tr.Key] = true
		re, err := regexp.Compile("(?i)" + tr.Pattern)
		if err != nil {
			return nil, fmt.Errorf("totals[%d]: %w", i, err)
		}
		r.Totals[i].re = re
	}
	for _, key := range r.RequiredTotals {
		if scratch.field(key) == nil {
			return nil, fmt.Errorf("required_totals: unknown key %q", key)
		}
	}

	sum := blake3.Sum256(data)
	r.digest = hex.EncodeToString(sum[:])
	return &r, nil
}

// Digest is the BLAKE3 hex digest of the source YAML.
func (r *Rules) Digest() string { return r.digest }

// Classify returns the type of the account at rowIndex out of totalRows.
func (r *Rules) Classify(accountName string, rowIndex, totalRows int) CategoryType {
	name := strings.ToLower(accountName)
	if strings.TrimSpace(name) == "" {
		return TypeOther
	}
	for _, tr := range r.Types {
		for _, kw := range tr.Keywords {
			if kw != "" && strings.Contains(name, kw) {
				return tr.Type
			}
		}
	}

	if totalRows > 0 {
		pos := float64(rowIndex) / float64(totalRows)
		for _, pr := range r.Fallback {
			if pos < pr.Below {
				return pr.Type
			}
		}
	}
	return r.FallbackDefault
}
