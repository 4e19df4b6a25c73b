package config

import "github.com/teranos/HUD/errors"

// Validate checks that the configuration is internally consistent.
// Zero values are allowed where a default exists; negatives never are.
func (c *Config) Validate() error {
	if c.Server.Port < 0 {
		return errors.Newf("server.port must be >= 0, got %d", c.Server.Port)
	}

	// Throttle intervals: 0 = use default for that kind, negative = invalid
	throttleMs := map[string]int{
		"throttle.agent_progress_ms":    c.Throttle.AgentProgressMs,
		"throttle.agent_started_ms":     c.Throttle.AgentStartedMs,
		"throttle.agent_completed_ms":   c.Throttle.AgentCompletedMs,
		"throttle.agent_error_ms":       c.Throttle.AgentErrorMs,
		"throttle.coordinator_phase_ms": c.Throttle.CoordinatorPhaseMs,
		"throttle.state_transition_ms":  c.Throttle.StateTransitionMs,
		"throttle.graph_update_ms":      c.Throttle.GraphUpdateMs,
		"throttle.task_discovered_ms":   c.Throttle.TaskDiscoveredMs,
	}
	for key, ms := range throttleMs {
		if ms < 0 {
			return errors.Newf("%s must be >= 0, got %d", key, ms)
		}
	}
	if c.Throttle.SweepIntervalSeconds < 0 {
		return errors.Newf("throttle.sweep_interval_seconds must be >= 0, got %d", c.Throttle.SweepIntervalSeconds)
	}
	if c.Throttle.IdleEvictSeconds < 0 {
		return errors.Newf("throttle.idle_evict_seconds must be >= 0, got %d", c.Throttle.IdleEvictSeconds)
	}

	if c.Limiter.MaxPerMinute < 0 {
		return errors.Newf("limiter.max_per_minute must be >= 0, got %d", c.Limiter.MaxPerMinute)
	}
	if c.Limiter.GraphRefreshSeconds < 0 {
		return errors.Newf("limiter.graph_refresh_seconds must be >= 0, got %d", c.Limiter.GraphRefreshSeconds)
	}
	if c.Limiter.LayoutRecomputeSeconds < 0 {
		return errors.Newf("limiter.layout_recompute_seconds must be >= 0, got %d", c.Limiter.LayoutRecomputeSeconds)
	}
	if c.Limiter.WorkflowPerMinute < 0 {
		return errors.Newf("limiter.workflow_per_minute must be >= 0, got %d", c.Limiter.WorkflowPerMinute)
	}

	if c.Debounce.WindowMs < 0 {
		return errors.Newf("debounce.window_ms must be >= 0, got %d", c.Debounce.WindowMs)
	}

	// Layout constants feed placement formulas directly; a negative origin
	// or pitch would place nodes at negative coordinates, which the layout
	// engine rejects as a fault. Catch the misconfiguration here instead.
	layoutVals := map[string]float64{
		"layout.issue_x":       c.Layout.IssueX,
		"layout.coordinator_x": c.Layout.CoordinatorX,
		"layout.specialist_x":  c.Layout.SpecialistX,
		"layout.state_x":       c.Layout.StateX,
		"layout.origin_y":      c.Layout.OriginY,
		"layout.row_height":    c.Layout.RowHeight,
		"layout.col_width":     c.Layout.ColWidth,
		"layout.block_height":  c.Layout.BlockHeight,
		"layout.state_height":  c.Layout.StateHeight,
		"layout.node_width":    c.Layout.NodeWidth,
		"layout.node_height":   c.Layout.NodeHeight,
		"layout.gap":           c.Layout.Gap,
	}
	for key, val := range layoutVals {
		if val < 0 {
			return errors.Newf("%s must be >= 0, got %v", key, val)
		}
	}
	if c.Layout.NodeWidth == 0 || c.Layout.NodeHeight == 0 {
		return errors.New("layout.node_width and layout.node_height must be > 0")
	}
	if c.Layout.MaxIterations < 1 {
		return errors.Newf("layout.max_iterations must be >= 1, got %d", c.Layout.MaxIterations)
	}

	if c.History.Capacity < 1 {
		return errors.Newf("history.capacity must be >= 1, got %d", c.History.Capacity)
	}

	return nil
}
