package layout

import (
	"math"

	"github.com/teranos/HUD/graph"
)

// Collision reports one pair of overlapping node bounding boxes. The
// overlap amount is the penetration depth along the axis that would be
// used to separate the pair.
type Collision struct {
	A       string  `json:"a"`
	B       string  `json:"b"`
	Overlap float64 `json:"overlap"`
	Axis    string  `json:"axis"`
}

// overlapAmounts returns the penetration depth of the two nodes'
// bounding boxes on each axis. Both values positive means the boxes
// overlap; touching edges do not count.
func (e *Engine) overlapAmounts(a, b graph.Node) (ox, oy float64) {
	w, h := e.cfg.NodeWidth, e.cfg.NodeHeight
	ox = math.Min(a.X+w, b.X+w) - math.Max(a.X, b.X)
	oy = math.Min(a.Y+h, b.Y+h) - math.Max(a.Y, b.Y)
	return ox, oy
}

// detectCollisions tests every pair of bounding boxes. Node counts are
// bounded by the fixed role and state cardinalities plus the active
// issue count, so the quadratic scan stays cheap.
func (e *Engine) detectCollisions(nodes []graph.Node) []Collision {
	var collisions []Collision
	for _, p := range e.sortedPairs(nodes) {
		ox, oy := e.overlapAmounts(nodes[p.a], nodes[p.b])
		if ox <= 0 || oy <= 0 {
			continue
		}
		axis, amount := "x", ox
		if oy < ox {
			axis, amount = "y", oy
		}
		collisions = append(collisions, Collision{
			A:       nodes[p.a].ID,
			B:       nodes[p.b].ID,
			Overlap: amount,
			Axis:    axis,
		})
	}
	return collisions
}

// resolveCollisions separates overlapping pairs in place. For each
// colliding pair the node with the lexically larger id moves in the
// positive direction along the axis of minimum overlap, far enough to
// clear the other box plus the configured gap. Passes repeat until a
// pass applies no displacement or the iteration bound is hit; the
// return value reports whether collisions remain after the final pass.
func (e *Engine) resolveCollisions(nodes []graph.Node) bool {
	maxIterations := e.cfg.MaxIterations
	if maxIterations < 1 {
		maxIterations = 1
	}
	pairs := e.sortedPairs(nodes)

	for iteration := 0; iteration < maxIterations; iteration++ {
		moved := false
		for _, p := range pairs {
			ox, oy := e.overlapAmounts(nodes[p.a], nodes[p.b])
			if ox <= 0 || oy <= 0 {
				continue
			}
			if ox <= oy {
				nodes[p.b].X += ox + e.cfg.Gap
			} else {
				nodes[p.b].Y += oy + e.cfg.Gap
			}
			moved = true
		}
		if !moved {
			return false
		}
	}
	return len(e.detectCollisions(nodes)) > 0
}
