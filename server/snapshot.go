package server

import (
	"time"

	"github.com/teranos/HUD/anim"
	"github.com/teranos/HUD/event"
	"github.com/teranos/HUD/flow"
	"github.com/teranos/HUD/graph"
	"github.com/teranos/HUD/logger"
)

// rebuildAndBroadcastLocked rebuilds the graph from builder state, lays
// it out, and broadcasts the new snapshot. Caller holds pipelineMu.
func (s *HUDServer) rebuildAndBroadcastLocked() {
	g := s.builder.Build(time.Now())
	s.layoutAndBroadcastLocked(event.DefaultGraphID, g)
}

// layoutAndBroadcastLocked positions a graph and publishes the result.
// A layout fault degrades the snapshot to the unpositioned nodes rather
// than dropping it; viewers still see structure, flagged as degraded.
// Caller holds pipelineMu.
func (s *HUDServer) layoutAndBroadcastLocked(graphID string, g *graph.Graph) {
	log := logger.AddLayoutSymbol(s.logger)

	snapshot := &SnapshotMessage{
		Type:        "snapshot",
		GraphID:     graphID,
		Edges:       g.Edges,
		Stats:       g.Meta.Stats,
		GeneratedAt: time.Now(),
	}

	result, err := s.engine.Calculate(g.Nodes, g.Edges)
	if err != nil {
		log.Errorw("Layout failed, broadcasting degraded snapshot",
			logger.FieldGraphID, graphID,
			logger.FieldError, err.Error(),
		)
		snapshot.Nodes = g.Nodes
		snapshot.Degraded = true
	} else {
		snapshot.Nodes = result.Nodes
		snapshot.Collisions = result.Collisions
		snapshot.Unresolved = result.Unresolved
		snapshot.Bounds = result.Bounds
		if result.Unresolved {
			log.Warnw("Collision resolution hit its iteration bound",
				logger.FieldGraphID, graphID,
				logger.FieldCollisions, len(result.Collisions),
			)
		}
	}

	s.mu.Lock()
	s.lastSnapshot = snapshot
	s.mu.Unlock()

	sent := s.broadcastMessage(snapshot)
	log.Debugw("Snapshot broadcast",
		logger.FieldGraphID, graphID,
		"nodes", len(snapshot.Nodes),
		"edges", len(snapshot.Edges),
		"clients", sent,
	)
}

// handleGraphFlush receives merged graph:update payloads from the
// debouncer. External payloads replace the dashboard wholesale, so the
// nodes are reindexed before layout to restore per-kind ordinals.
func (s *HUDServer) handleGraphFlush(u flow.Update) {
	log := logger.AddPulseSymbol(s.logger)
	log.Debugw("Debounced graph update flushed",
		logger.FieldGraphID, u.GraphID,
		logger.FieldMerged, u.Merged,
	)

	if u.Event == nil || u.Event.Graph == nil {
		return
	}

	g := u.Event.Graph
	g.Reindex()
	g.Finalize(time.Now())

	s.pipelineMu.Lock()
	defer s.pipelineMu.Unlock()
	s.layoutAndBroadcastLocked(u.GraphID, g)
}

// playEffect implements the animation sink: one played task becomes one
// effect message to every viewer. A broadcast with zero connected
// clients is still a successful play.
func (s *HUDServer) playEffect(task *anim.Task, def anim.Definition) error {
	msg := EffectMessageFrom(task, def, s.effectSeq.Add(1))
	sent := s.broadcastMessage(msg)

	s.logger.Debugw("Effect played",
		logger.FieldEffect, msg.Effect,
		logger.FieldDurationMS, msg.DurationMs,
		"clients", sent,
	)
	return nil
}

// enqueueRedraw queues a synthesized redraw effect so viewers animate a
// forced relayout the same way they animate an event-driven one.
func (s *HUDServer) enqueueRedraw() {
	task := anim.NewTask(anim.EffectRedraw, nil)
	task.ID = newEventID()
	s.anim.Enqueue(task)
}

// RecomputeLayout forces a relayout of the current builder state and
// broadcasts the result. Used by the recompute endpoint and config
// reloads.
func (s *HUDServer) RecomputeLayout() {
	s.pipelineMu.Lock()
	defer s.pipelineMu.Unlock()
	s.rebuildAndBroadcastLocked()
}

// Snapshot returns the last broadcast snapshot, or nil before the
// first layout.
func (s *HUDServer) Snapshot() *SnapshotMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSnapshot
}
