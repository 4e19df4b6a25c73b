package graph

import (
	"strconv"
	"time"
)

// CoordinatorNodeID is the fixed ID of the single coordinator node.
const CoordinatorNodeID = "coordinator"

// IssueNodeID returns the node ID for a tracked issue.
func IssueNodeID(number int) string {
	return "issue-" + strconv.Itoa(number)
}

// SpecialistNodeID returns the node ID for a specialist agent role.
func SpecialistNodeID(role string) string {
	return "specialist-" + role
}

// StateNodeID returns the node ID for a lifecycle state.
func StateNodeID(state string) string {
	return "state-" + state
}

// Builder assembles a dashboard graph from tracked orchestration
// activity: discovered issues, the specialist roster, the lifecycle
// state set, and observed assignments and transitions. Insertion order
// is preserved so node ordinals, and therefore placement, stay stable
// between rebuilds.
type Builder struct {
	issues      []issueRef
	specialists []specialistRef
	states      []string
	assignments []assignmentRef
	transitions []transitionRef
}

type issueRef struct {
	number int
	title  string
}

type specialistRef struct {
	role  string
	label string
}

type assignmentRef struct {
	issue int
	role  string
}

type transitionRef struct {
	from string
	to   string
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// AddIssue registers a discovered issue. Re-adding the same number
// updates its title without changing its position.
func (b *Builder) AddIssue(number int, title string) {
	for i := range b.issues {
		if b.issues[i].number == number {
			if title != "" {
				b.issues[i].title = title
			}
			return
		}
	}
	b.issues = append(b.issues, issueRef{number: number, title: title})
}

// AddSpecialist registers a specialist role. Duplicates are ignored.
func (b *Builder) AddSpecialist(role, label string) {
	for _, s := range b.specialists {
		if s.role == role {
			return
		}
	}
	b.specialists = append(b.specialists, specialistRef{role: role, label: label})
}

// SetStates fixes the lifecycle state column, in display order.
func (b *Builder) SetStates(states []string) {
	b.states = append(b.states[:0], states...)
}

// AddAssignment records that the coordinator assigned a specialist
// role to an issue. Duplicates are ignored.
func (b *Builder) AddAssignment(issue int, role string) {
	for _, a := range b.assignments {
		if a.issue == issue && a.role == role {
			return
		}
	}
	b.assignments = append(b.assignments, assignmentRef{issue: issue, role: role})
}

// AddTransition records an observed lifecycle transition. Duplicates
// are ignored.
func (b *Builder) AddTransition(from, to string) {
	for _, t := range b.transitions {
		if t.from == from && t.to == to {
			return
		}
	}
	b.transitions = append(b.transitions, transitionRef{from: from, to: to})
}

// Build assembles the graph. Node indexes are ordinals within each
// kind group; edges only reference nodes emitted in the same snapshot,
// so assignments and transitions naming unknown endpoints are dropped
// rather than producing dangling edges.
func (b *Builder) Build(now time.Time) *Graph {
	g := New()

	for i, issue := range b.issues {
		label := issue.title
		if label == "" {
			label = "#" + strconv.Itoa(issue.number)
		}
		g.AddNode(Node{
			ID:    IssueNodeID(issue.number),
			Kind:  NodeIssue,
			Label: label,
			Index: i,
		})
	}

	g.AddNode(Node{
		ID:    CoordinatorNodeID,
		Kind:  NodeCoordinator,
		Label: "Coordinator",
		Index: 0,
	})

	for i, s := range b.specialists {
		label := s.label
		if label == "" {
			label = s.role
		}
		g.AddNode(Node{
			ID:    SpecialistNodeID(s.role),
			Kind:  NodeSpecialist,
			Label: label,
			Index: i,
		})
	}

	for i, state := range b.states {
		g.AddNode(Node{
			ID:    StateNodeID(state),
			Kind:  NodeState,
			Label: state,
			Index: i,
		})
	}

	// Every issue feeds the coordinator.
	for _, issue := range b.issues {
		g.AddEdge(Edge{
			Source: IssueNodeID(issue.number),
			Target: CoordinatorNodeID,
			Kind:   EdgeDependency,
		})
	}

	for _, a := range b.assignments {
		src := IssueNodeID(a.issue)
		dst := SpecialistNodeID(a.role)
		if !g.HasNode(src) || !g.HasNode(dst) {
			continue
		}
		g.AddEdge(Edge{Source: src, Target: dst, Kind: EdgeAssignment})
	}

	// The state column chains in display order; observed transitions
	// that fall outside the chain (retries, failures) are added on top.
	for i := 0; i+1 < len(b.states); i++ {
		g.AddEdge(Edge{
			Source: StateNodeID(b.states[i]),
			Target: StateNodeID(b.states[i+1]),
			Kind:   EdgeStateTransition,
		})
	}
	for _, t := range b.transitions {
		src := StateNodeID(t.from)
		dst := StateNodeID(t.to)
		if !g.HasNode(src) || !g.HasNode(dst) {
			continue
		}
		if hasEdge(g, src, dst, EdgeStateTransition) {
			continue
		}
		g.AddEdge(Edge{Source: src, Target: dst, Kind: EdgeStateTransition})
	}

	g.Finalize(now)
	return g
}

func hasEdge(g *Graph, source, target string, kind EdgeKind) bool {
	for _, e := range g.Edges {
		if e.Source == source && e.Target == target && e.Kind == kind {
			return true
		}
	}
	return false
}
