package report

import (
	"regexp"
	"strings"
	"unicode"
)

// Depths above this many leading spaces map to levels 3, 2 and 1.
var indentLevels = []struct {
	spaces int
	level  int
}{
	{12, 3},
	{8, 2},
	{4, 1},
}

var sectionMarkers = []string{
	"Total Income",
	"Total Expense",
	"Net Income",
	"NOI",
	"Net Operating Income",
	"Operating Income & Expense",
}

// DetectDepth infers the hierarchy level (0-3) of an account line from its
// raw cell text, using indentation when present and naming patterns otherwise.
func DetectDepth(raw string) int {
	if spaces := leadingSpaces(raw); spaces >= 4 {
		for _, il := range indentLevels {
			if spaces >= il.spaces {
				return il.level
			}
		}
	}

	name := strings.TrimSpace(raw)
	if name == "" {
		return 0
	}
	for _, marker := range sectionMarkers {
		if strings.Contains(name, marker) {
			return 0
		}
	}
	if isUpper(name) && len(strings.Fields(name)) <= 4 {
		return 1
	}
	if strings.HasPrefix(name, "Total ") {
		return 1
	}
	if strings.Contains(name, " - ") || strings.Contains(name, ": ") {
		return 2
	}
	return 2
}

// leadingSpaces counts indentation, with a tab worth four spaces.
func leadingSpaces(raw string) int {
	n := 0
	for _, r := range raw {
		switch {
		case r == '\t':
			n += 4
		case r == ' ' || r == '\u00a0':
			n++
		default:
			return n
		}
	}
	return n
}

// isUpper reports whether s has at least one letter and no lower-case letters.
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}

var noiWord = regexp.MustCompile(`(?i)\bnoi\b`)

// IsTotalRow reports whether an account line is a subtotal or total.
func IsTotalRow(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	return strings.HasPrefix(lower, "total ") ||
		strings.Contains(lower, "net income") ||
		noiWord.MatchString(lower)
}

// Node is the part of a category that parent inference looks at.
type Node struct {
	Depth   int
	IsTotal bool
}

// AssignParents returns, for every node, the index of its parent or -1.
// A node's parent is the nearest preceding non-total node with a strictly
// smaller depth. Total rows never become parents. Runs in O(n).
func AssignParents(nodes []Node) []int {
	parents := make([]int, len(nodes))
	stack := make([]int, 0, 8)

	for i, n := range nodes {
		for len(stack) > 0 && nodes[stack[len(stack)-1]].Depth >= n.Depth {
			stack = stack[:len(stack)-1]
		}
		parents[i] = -1
		if n.Depth > 0 && len(stack) > 0 {
			parents[i] = stack[len(stack)-1]
		}
		if !n.IsTotal {
			stack = append(stack, i)
		}
	}
	return parents
}
