package graph

import (
	"testing"
	"time"
)

func testStates() []string {
	return []string{"pending", "in_progress", "completed", "failed"}
}

func TestBuilderAssemblesValidGraph(t *testing.T) {
	b := NewBuilder()
	b.AddIssue(42, "fix flaky test")
	b.AddIssue(43, "")
	b.AddSpecialist("codegen", "Codegen")
	b.AddSpecialist("review", "Review")
	b.SetStates(testStates())
	b.AddAssignment(42, "codegen")
	b.AddTransition("in_progress", "failed")

	g := b.Build(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	if violations := g.Validate(); len(violations) != 0 {
		t.Fatalf("built graph should validate, got %v", violations)
	}

	// 2 issues + coordinator + 2 specialists + 4 states
	if len(g.Nodes) != 9 {
		t.Errorf("node count = %d, want 9", len(g.Nodes))
	}

	if n := g.NodeByID("issue-43"); n == nil || n.Label != "#43" {
		t.Errorf("untitled issue should get a number label, got %+v", n)
	}
	if n := g.NodeByID("issue-43"); n == nil || n.Index != 1 {
		t.Errorf("issue-43 index = %+v, want 1", n)
	}
}

func TestBuilderEdges(t *testing.T) {
	b := NewBuilder()
	b.AddIssue(1, "a")
	b.AddIssue(2, "b")
	b.AddSpecialist("test", "Test")
	b.SetStates(testStates())
	b.AddAssignment(1, "test")
	b.AddAssignment(1, "test") // duplicate, ignored
	b.AddTransition("in_progress", "failed")
	b.AddTransition("pending", "in_progress") // already in chain

	g := b.Build(time.Now())

	assignments := 0
	dependencies := 0
	transitions := 0
	for _, e := range g.Edges {
		switch e.Kind {
		case EdgeAssignment:
			assignments++
		case EdgeDependency:
			dependencies++
		case EdgeStateTransition:
			transitions++
		}
	}

	if assignments != 1 {
		t.Errorf("assignment edges = %d, want 1", assignments)
	}
	if dependencies != 2 {
		t.Errorf("dependency edges = %d, want 2", dependencies)
	}
	// chain pending->in_progress->completed->failed plus observed in_progress->failed
	if transitions != 4 {
		t.Errorf("state-transition edges = %d, want 4", transitions)
	}
}

func TestBuilderDropsDanglingAssignments(t *testing.T) {
	b := NewBuilder()
	b.AddIssue(1, "a")
	b.AddSpecialist("codegen", "")
	b.SetStates(testStates())
	b.AddAssignment(99, "codegen")    // unknown issue
	b.AddAssignment(1, "necromancer") // unknown role
	b.AddTransition("pending", "ascended")

	g := b.Build(time.Now())

	for _, e := range g.Edges {
		if e.Kind == EdgeAssignment {
			t.Errorf("unexpected assignment edge %+v", e)
		}
	}
	if violations := g.Validate(); len(violations) != 0 {
		t.Fatalf("graph should still validate, got %v", violations)
	}
}

func TestBuilderStableAcrossRebuilds(t *testing.T) {
	b := NewBuilder()
	b.AddIssue(10, "ten")
	b.AddIssue(20, "twenty")
	b.AddSpecialist("codegen", "")
	b.SetStates(testStates())

	first := b.Build(time.Now())

	// new activity must not reorder existing nodes
	b.AddIssue(10, "ten renamed")
	b.AddIssue(30, "thirty")
	second := b.Build(time.Now())

	for _, n := range first.Nodes {
		m := second.NodeByID(n.ID)
		if m == nil {
			t.Fatalf("node %s vanished on rebuild", n.ID)
		}
		if m.Index != n.Index {
			t.Errorf("node %s index changed %d -> %d", n.ID, n.Index, m.Index)
		}
	}
	if n := second.NodeByID("issue-10"); n.Label != "ten renamed" {
		t.Errorf("issue-10 label = %q, want %q", n.Label, "ten renamed")
	}
	if n := second.NodeByID("issue-30"); n.Index != 2 {
		t.Errorf("issue-30 index = %d, want 2", n.Index)
	}
}
