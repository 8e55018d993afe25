package report

import (
	"testing"
)

func TestDetectDepth(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"            Deep Account", 3},
		{"        Rental Income", 2},
		{"    Income", 1},
		{"\tTabbed", 1},
		{"\t\tTwice Tabbed", 2},
		{"    Hard Spaced", 1},
		{"Net Income", 0},
		{"Total Income", 0},
		{"Operating Income & Expense", 0},
		{"OPERATING EXPENSES", 1},
		{"Total Payroll", 1},
		{"Utilities - Water", 2},
		{"Repairs: Plumbing", 2},
		{"Landscaping", 2},
		{"  Two Spaces", 2},
		{"", 0},
	}

	for _, tt := range tests {
		if got := DetectDepth(tt.raw); got != tt.want {
			t.Errorf("DetectDepth(%q) = %d, want %d", tt.raw, got, tt.want)
		}
	}
}

func TestIsTotalRow(t *testing.T) {
	tests := map[string]bool{
		"Total Operating Income":  true,
		"  total cogs":            true,
		"Net Income":              true,
		"NOI":                     true,
		"Property NOI":            true,
		"Net Operating Income":    false,
		"Totally Awesome Revenue": false,
		"Noise Abatement":         false,
		"Rental Income":           false,
	}
	for name, want := range tests {
		if got := IsTotalRow(name); got != want {
			t.Errorf("IsTotalRow(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestAssignParents(t *testing.T) {
	nodes := []Node{
		{Depth: 0},                // 0
		{Depth: 1},                // 1 -> 0
		{Depth: 2},                // 2 -> 1
		{Depth: 3},                // 3 -> 2
		{Depth: 2},                // 4 -> 1
		{Depth: 1, IsTotal: true}, // 5 -> 0
		{Depth: 2},                // 6 -> 0, total rows are skipped
		{Depth: 0, IsTotal: true}, // 7 root
		{Depth: 1},                // 8 root, the total above is not a parent
	}
	want := []int{-1, 0, 1, 2, 1, 0, 0, -1, -1}

	got := AssignParents(nodes)
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("parent[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestAssignParentsIsAcyclic(t *testing.T) {
	depths := []int{1, 3, 0, 2, 2, 1, 3, 3, 0, 1, 2, 0}
	nodes := make([]Node, len(depths))
	for i, d := range depths {
		nodes[i] = Node{Depth: d, IsTotal: i%5 == 4}
	}

	parents := AssignParents(nodes)
	for i, p := range parents {
		if p >= i {
			t.Fatalf("parent[%d] = %d does not precede its child", i, p)
		}
		if p >= 0 && nodes[p].Depth >= nodes[i].Depth {
			t.Fatalf("parent[%d] depth %d not shallower than %d", i, nodes[p].Depth, nodes[i].Depth)
		}
		if nodes[i].Depth == 0 && p != -1 {
			t.Fatalf("root %d has parent %d", i, p)
		}
	}
}

func TestAssignParentsEmpty(t *testing.T) {
	if got := AssignParents(nil); len(got) != 0 {
		t.Fatalf("AssignParents(nil) = %v", got)
	}
}
