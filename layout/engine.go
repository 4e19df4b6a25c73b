// Package layout computes deterministic, non-overlapping 2D positions
// for dashboard graph nodes. Placement is a pure function of each
// node's kind, its ordinal within the kind group, and the configured
// column constants; repeated runs on identical input produce identical
// output.
package layout

import (
	"math"
	"sort"

	"github.com/teranos/HUD/config"
	"github.com/teranos/HUD/errors"
	"github.com/teranos/HUD/graph"
)

// Bounds is the enclosing box of a computed layout.
type Bounds struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Result carries the positioned nodes plus everything the caller needs
// to judge layout quality: the collisions detected after initial
// placement and whether resolution gave up before separating them all.
type Result struct {
	Nodes      []graph.Node `json:"nodes"`
	Collisions []Collision  `json:"collisions"`
	Unresolved bool         `json:"unresolved"`
	Bounds     Bounds       `json:"bounds"`
}

// Engine positions nodes according to a fixed configuration. It holds
// no mutable state, so a single Engine is safe for concurrent use.
type Engine struct {
	cfg config.LayoutConfig
}

// New returns an engine using the given placement constants.
func New(cfg config.LayoutConfig) *Engine {
	return &Engine{cfg: cfg}
}

// Calculate assigns coordinates to every node, detects bounding-box
// overlaps, and nudges colliding nodes apart. The input slices are not
// mutated. Edges do not influence placement today; they are part of
// the contract so link-aware layouts can slot in without changing
// call sites.
//
// The returned error is reserved for broken output: an unknown node
// kind, or a negative or non-finite coordinate, which indicates a
// configuration problem rather than bad input data.
func (e *Engine) Calculate(nodes []graph.Node, edges []graph.Edge) (Result, error) {
	positioned := make([]graph.Node, len(nodes))
	copy(positioned, nodes)

	issueCount := 0
	for _, n := range positioned {
		if n.Kind == graph.NodeIssue {
			issueCount++
		}
	}

	for i := range positioned {
		x, y, err := e.place(&positioned[i], issueCount)
		if err != nil {
			return Result{}, err
		}
		positioned[i].X = x
		positioned[i].Y = y
	}

	detected := e.detectCollisions(positioned)
	unresolved := e.resolveCollisions(positioned)

	if err := e.validateCoordinates(positioned); err != nil {
		return Result{}, err
	}

	return Result{
		Nodes:      positioned,
		Collisions: detected,
		Unresolved: unresolved,
		Bounds:     e.bounds(positioned),
	}, nil
}

// place computes the column position for a single node from its kind
// and ordinal. The coordinator's row tracks the vertical middle of the
// issue column so it stays centered as issues accumulate.
func (e *Engine) place(n *graph.Node, issueCount int) (float64, float64, error) {
	c := e.cfg
	idx := float64(n.Index)

	switch n.Kind {
	case graph.NodeIssue:
		return c.IssueX, idx*c.RowHeight + c.OriginY, nil
	case graph.NodeCoordinator:
		return c.CoordinatorX, float64(issueCount)/2*c.RowHeight + c.OriginY, nil
	case graph.NodeSpecialist:
		col := float64(n.Index % 2)
		row := math.Floor(idx / 2)
		return c.SpecialistX + col*c.ColWidth, c.OriginY + row*c.BlockHeight, nil
	case graph.NodeState:
		return c.StateX, idx*c.StateHeight + c.OriginY, nil
	}
	return 0, 0, errors.Newf("layout: node %q has unknown kind %q", n.ID, n.Kind)
}

func (e *Engine) validateCoordinates(nodes []graph.Node) error {
	for _, n := range nodes {
		if math.IsNaN(n.X) || math.IsNaN(n.Y) || math.IsInf(n.X, 0) || math.IsInf(n.Y, 0) {
			return errors.Newf("layout: node %q has non-finite coordinates (%v, %v)", n.ID, n.X, n.Y)
		}
		if n.X < 0 || n.Y < 0 {
			return errors.Newf("layout: node %q has negative coordinates (%v, %v)", n.ID, n.X, n.Y)
		}
	}
	return nil
}

func (e *Engine) bounds(nodes []graph.Node) Bounds {
	var b Bounds
	for _, n := range nodes {
		if right := n.X + e.cfg.NodeWidth; right > b.Width {
			b.Width = right
		}
		if bottom := n.Y + e.cfg.NodeHeight; bottom > b.Height {
			b.Height = bottom
		}
	}
	return b
}

type pair struct {
	a, b int // indexes into the node slice; node ID of a sorts before b
}

// sortedPairs enumerates every node pair with the lexically smaller id
// first, in ascending (a, b) order. Resolution walks pairs in this
// order so repeated runs displace the same nodes the same way.
func (e *Engine) sortedPairs(nodes []graph.Node) []pair {
	pairs := make([]pair, 0, len(nodes)*(len(nodes)-1)/2)
	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			a, b := i, j
			if nodes[j].ID < nodes[i].ID {
				a, b = j, i
			}
			pairs = append(pairs, pair{a: a, b: b})
		}
	}
	sort.Slice(pairs, func(x, y int) bool {
		if nodes[pairs[x].a].ID != nodes[pairs[y].a].ID {
			return nodes[pairs[x].a].ID < nodes[pairs[y].a].ID
		}
		return nodes[pairs[x].b].ID < nodes[pairs[y].b].ID
	})
	return pairs
}
