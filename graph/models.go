package graph

import (
	"strconv"
	"time"
)

// NodeKind classifies a node into one of the fixed dashboard columns.
type NodeKind string

const (
	NodeIssue       NodeKind = "issue"
	NodeCoordinator NodeKind = "coordinator"
	NodeSpecialist  NodeKind = "specialist"
	NodeState       NodeKind = "state"
)

// ValidNodeKind reports whether k is one of the four dashboard node kinds.
func ValidNodeKind(k NodeKind) bool {
	switch k {
	case NodeIssue, NodeCoordinator, NodeSpecialist, NodeState:
		return true
	}
	return false
}

// EdgeKind classifies a relationship between two nodes.
type EdgeKind string

const (
	EdgeAssignment      EdgeKind = "assignment"       // coordinator or issue -> specialist
	EdgeStateTransition EdgeKind = "state-transition" // lifecycle state -> lifecycle state
	EdgeDependency      EdgeKind = "dependency"       // issue -> issue, or issue -> coordinator
)

// ValidEdgeKind reports whether k is a known edge kind.
func ValidEdgeKind(k EdgeKind) bool {
	switch k {
	case EdgeAssignment, EdgeStateTransition, EdgeDependency:
		return true
	}
	return false
}

// Graph is the complete structure handed to the layout engine and
// broadcast to viewers.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
	Meta  Meta   `json:"meta"`
}

// Node is a single entity on the dashboard canvas.
type Node struct {
	ID    string   `json:"id"`
	Kind  NodeKind `json:"kind"`
	Label string   `json:"label,omitempty"`
	Index int      `json:"index"` // ordinal within the node's kind group, snapshot order
	X     float64  `json:"x"`
	Y     float64  `json:"y"`
}

// Edge is a directed relationship between two nodes. Both endpoints
// must name node IDs present in the same snapshot.
type Edge struct {
	Source string   `json:"source"`
	Target string   `json:"target"`
	Kind   EdgeKind `json:"kind"`
}

// Meta carries snapshot metadata alongside the nodes and edges.
type Meta struct {
	GeneratedAt time.Time `json:"generated_at"`
	Stats       Stats     `json:"stats"`
}

// Stats summarizes the snapshot for viewers that render counters.
type Stats struct {
	TotalNodes int `json:"total_nodes"`
	TotalEdges int `json:"total_edges"`
	Issues     int `json:"issues,omitempty"`
	Agents     int `json:"agents,omitempty"`
}

// New returns an empty graph with allocated slices so JSON encodes
// [] instead of null.
func New() *Graph {
	return &Graph{
		Nodes: []Node{},
		Edges: []Edge{},
	}
}

// AddNode appends a node. Duplicate IDs are the caller's problem until
// Validate runs.
func (g *Graph) AddNode(n Node) {
	g.Nodes = append(g.Nodes, n)
}

// AddEdge appends an edge.
func (g *Graph) AddEdge(e Edge) {
	g.Edges = append(g.Edges, e)
}

// NodeByID returns a pointer into the node slice, or nil. The pointer
// is invalidated by any subsequent AddNode.
func (g *Graph) NodeByID(id string) *Node {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i]
		}
	}
	return nil
}

// HasNode reports whether a node with the given ID exists.
func (g *Graph) HasNode(id string) bool {
	return g.NodeByID(id) != nil
}

// CountByKind tallies nodes per kind.
func (g *Graph) CountByKind() map[NodeKind]int {
	counts := make(map[NodeKind]int, 4)
	for _, n := range g.Nodes {
		counts[n.Kind]++
	}
	return counts
}

// Reindex assigns each node's Index as its ordinal within its kind
// group, preserving snapshot order. Placement depends on these
// ordinals, so Reindex must run before layout whenever the node set
// came from an external payload.
func (g *Graph) Reindex() {
	counters := make(map[NodeKind]int, 4)
	for i := range g.Nodes {
		kind := g.Nodes[i].Kind
		g.Nodes[i].Index = counters[kind]
		counters[kind]++
	}
}

// Finalize stamps metadata. Call once the node and edge sets are
// complete.
func (g *Graph) Finalize(now time.Time) {
	counts := g.CountByKind()
	g.Meta = Meta{
		GeneratedAt: now,
		Stats: Stats{
			TotalNodes: len(g.Nodes),
			TotalEdges: len(g.Edges),
			Issues:     counts[NodeIssue],
			Agents:     counts[NodeCoordinator] + counts[NodeSpecialist],
		},
	}
}

// Violation describes a single structural problem found by Validate.
type Violation struct {
	Path     string `json:"path"`
	Expected string `json:"expected"`
	Got      string `json:"got"`
}

// Validate checks structural invariants: non-empty unique node IDs,
// known node and edge kinds, edge endpoints resolving to nodes in this
// snapshot, and exactly one coordinator when the graph is non-empty.
// An empty graph is valid; it clears the dashboard.
func (g *Graph) Validate() []Violation {
	var violations []Violation

	seen := make(map[string]bool, len(g.Nodes))
	coordinators := 0
	for i, n := range g.Nodes {
		path := nodePath(i)
		if n.ID == "" {
			violations = append(violations, Violation{
				Path:     path + ".id",
				Expected: "non-empty string",
				Got:      "empty",
			})
		} else if seen[n.ID] {
			violations = append(violations, Violation{
				Path:     path + ".id",
				Expected: "unique node id",
				Got:      n.ID,
			})
		}
		seen[n.ID] = true
		if !ValidNodeKind(n.Kind) {
			violations = append(violations, Violation{
				Path:     path + ".kind",
				Expected: "one of issue, coordinator, specialist, state",
				Got:      string(n.Kind),
			})
		}
		if n.Kind == NodeCoordinator {
			coordinators++
		}
	}

	if len(g.Nodes) > 0 && coordinators != 1 {
		violations = append(violations, Violation{
			Path:     "nodes",
			Expected: "exactly one coordinator node",
			Got:      strconv.Itoa(coordinators),
		})
	}

	for i, e := range g.Edges {
		path := edgePath(i)
		if !ValidEdgeKind(e.Kind) {
			violations = append(violations, Violation{
				Path:     path + ".kind",
				Expected: "one of assignment, state-transition, dependency",
				Got:      string(e.Kind),
			})
		}
		if e.Source == "" || !seen[e.Source] {
			violations = append(violations, Violation{
				Path:     path + ".source",
				Expected: "id of a node in this snapshot",
				Got:      e.Source,
			})
		}
		if e.Target == "" || !seen[e.Target] {
			violations = append(violations, Violation{
				Path:     path + ".target",
				Expected: "id of a node in this snapshot",
				Got:      e.Target,
			})
		}
	}

	return violations
}

func nodePath(i int) string { return "nodes[" + strconv.Itoa(i) + "]" }
func edgePath(i int) string { return "edges[" + strconv.Itoa(i) + "]" }
