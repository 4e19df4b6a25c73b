package server

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/HUD/config"
	"github.com/teranos/HUD/event"
	"github.com/teranos/HUD/graph"
	"github.com/teranos/HUD/history"
)

// newTestServer builds a server with throttling disabled and a
// generous origin budget so back-to-back submissions pass. Tests that
// exercise rate control re-enable what they need via mutate.
func newTestServer(t *testing.T, mutate func(*config.Config)) *HUDServer {
	t.Helper()

	cfg := config.Default()
	cfg.Throttle = config.ThrottleConfig{}
	cfg.Limiter.MaxPerMinute = 10000
	if mutate != nil {
		mutate(cfg)
	}

	s, err := NewHUDServer(cfg, 0)
	require.NoError(t, err)
	t.Cleanup(func() {
		s.debouncer.Stop()
		s.cancel()
	})
	return s
}

const testTimestamp = "2026-02-14T10:30:00Z"

func payload(kind string, extra string) []byte {
	if extra != "" {
		extra = "," + extra
	}
	return []byte(fmt.Sprintf(`{"eventType":%q,"timestamp":%q%s}`, kind, testTimestamp, extra))
}

func TestSubmitRejectsUnparsableJSON(t *testing.T) {
	s := newTestServer(t, nil)

	_, rej := s.Submit([]byte("{not json"), "test")
	require.NotNil(t, rej)
	assert.Equal(t, RejectValidation, rej.Reason)
	assert.NotEmpty(t, rej.Fields)
}

func TestSubmitRejectsMissingFields(t *testing.T) {
	s := newTestServer(t, nil)

	// agent:progress without agentId and progress
	_, rej := s.Submit(payload("agent:progress", ""), "test")
	require.NotNil(t, rej)
	assert.Equal(t, RejectValidation, rej.Reason)
	assert.Len(t, rej.Fields, 2)

	// Nothing reaches the ring on rejection
	assert.Equal(t, 0, s.ring.Len())
}

func TestSubmitStampsAcceptedEvents(t *testing.T) {
	s := newTestServer(t, nil)

	first, rej := s.Submit(payload("agent:started", `"agentId":"codegen"`), "test")
	require.Nil(t, rej)
	assert.True(t, first.Accepted)
	assert.NotEmpty(t, first.EventID)
	assert.Equal(t, uint64(1), first.Seq)

	second, rej := s.Submit(payload("agent:started", `"agentId":"review"`), "test")
	require.Nil(t, rej)
	assert.Equal(t, uint64(2), second.Seq)
	assert.NotEqual(t, first.EventID, second.EventID)

	assert.Equal(t, 2, s.ring.Len())
}

func TestSubmitThrottlesRepeatedProgress(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) {
		cfg.Throttle.AgentProgressMs = 60000
	})

	progress := payload("agent:progress", `"agentId":"codegen","progress":30`)

	_, rej := s.Submit(progress, "test")
	require.Nil(t, rej)

	_, rej = s.Submit(progress, "test")
	require.NotNil(t, rej)
	assert.Equal(t, RejectThrottled, rej.Reason)
	assert.Greater(t, rej.RetryAfterMs, int64(0))
	require.NotNil(t, rej.ResetAt)

	// A different agent keys separately and is unaffected
	_, rej = s.Submit(payload("agent:progress", `"agentId":"review","progress":10`), "test")
	assert.Nil(t, rej)
}

func TestSubmitEnforcesOriginBudget(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) {
		cfg.Limiter.MaxPerMinute = 2
	})

	ev := payload("task:discovered", `"issueNumber":42`)

	_, rej := s.Submit(ev, "origin-a")
	require.Nil(t, rej)
	_, rej = s.Submit(ev, "origin-a")
	require.Nil(t, rej)

	_, rej = s.Submit(ev, "origin-a")
	require.NotNil(t, rej)
	assert.Equal(t, RejectRateLimited, rej.Reason)
	assert.Equal(t, 2, rej.Limit)
	assert.Equal(t, 0, rej.Remaining)

	// Budgets are per origin
	_, rej = s.Submit(ev, "origin-b")
	assert.Nil(t, rej)
}

func TestSubmitTracksAgentPresence(t *testing.T) {
	s := newTestServer(t, nil)

	_, rej := s.Submit(payload("agent:started", `"agentId":"codegen","issueNumber":7`), "test")
	require.Nil(t, rej)
	_, rej = s.Submit(payload("agent:progress", `"agentId":"codegen","progress":45,"issueNumber":7`), "test")
	require.Nil(t, rej)

	status, ok := s.tracker.Get(event.RoleCodegen)
	require.True(t, ok)
	assert.Equal(t, 45, status.Progress)
	assert.Equal(t, 7, status.CurrentIssue)
}

func TestSubmitQueuesEffects(t *testing.T) {
	s := newTestServer(t, nil)

	// Coordinator not started: enqueued tasks stay pending
	_, rej := s.Submit(payload("agent:started", `"agentId":"codegen"`), "test")
	require.Nil(t, rej)
	assert.Equal(t, 1, s.anim.PendingCount())
}

// TestWorkflowRunProducesFullDashboard drives one complete orchestration
// run through the pipeline: discovery, the three coordinator phases,
// agent lifecycle with progress, and completion. All eight events must
// be accepted in order and the final snapshot must contain the issue,
// coordinator, specialist, and state columns with positioned nodes.
func TestWorkflowRunProducesFullDashboard(t *testing.T) {
	s := newTestServer(t, nil)

	run := [][]byte{
		payload("task:discovered", `"issueNumber":42,"title":"Fix login bug"`),
		payload("coordinator:analyzing", `"issueNumber":42`),
		payload("coordinator:decomposing", `"issueNumber":42,"subtaskCount":3`),
		payload("coordinator:assigning", `"issueNumber":42,"agentId":"codegen"`),
		payload("agent:started", `"agentId":"codegen","issueNumber":42`),
		payload("agent:progress", `"agentId":"codegen","progress":30,"issueNumber":42`),
		payload("agent:progress", `"agentId":"codegen","progress":60,"issueNumber":42`),
		payload("agent:completed", `"agentId":"codegen","issueNumber":42`),
	}

	for i, raw := range run {
		acc, rej := s.Submit(raw, "orchestrator")
		require.Nil(t, rej, "event %d rejected", i)
		assert.Equal(t, uint64(i+1), acc.Seq)
	}

	snapshot := s.Snapshot()
	require.NotNil(t, snapshot)
	assert.False(t, snapshot.Degraded)

	byID := make(map[string]graph.Node, len(snapshot.Nodes))
	for _, n := range snapshot.Nodes {
		byID[n.ID] = n
	}

	issue, ok := byID[graph.IssueNodeID(42)]
	require.True(t, ok)
	assert.Equal(t, "Fix login bug", issue.Label)

	_, ok = byID[graph.CoordinatorNodeID]
	assert.True(t, ok)
	_, ok = byID[graph.SpecialistNodeID("codegen")]
	assert.True(t, ok)
	_, ok = byID[graph.StateNodeID("pending")]
	assert.True(t, ok)

	// The assignment edge reached the snapshot
	foundAssignment := false
	for _, e := range snapshot.Edges {
		if e.Source == graph.IssueNodeID(42) && e.Target == graph.SpecialistNodeID("codegen") {
			foundAssignment = true
		}
	}
	assert.True(t, foundAssignment)

	// Presence reflects the completed run
	status, ok := s.tracker.Get(event.RoleCodegen)
	require.True(t, ok)
	assert.Equal(t, 1, status.Started)
	assert.Equal(t, 1, status.Completed)

	// Every accepted event landed in history, newest first
	page := s.ring.Query(history.Filter{}, 0, 10)
	assert.Equal(t, 8, page.Total)
	require.NotEmpty(t, page.Events)
	assert.Equal(t, event.KindAgentCompleted, page.Events[0].Kind)
}

func TestRecomputeLayoutRefreshesSnapshot(t *testing.T) {
	s := newTestServer(t, nil)

	_, rej := s.Submit(payload("task:discovered", `"issueNumber":1`), "test")
	require.Nil(t, rej)

	before := s.Snapshot()
	require.NotNil(t, before)

	s.RecomputeLayout()
	after := s.Snapshot()
	require.NotNil(t, after)
	assert.True(t, after.GeneratedAt.After(before.GeneratedAt) || after.GeneratedAt.Equal(before.GeneratedAt))
	assert.Len(t, after.Nodes, len(before.Nodes))
}

func TestApplyConfigSwapsRateControl(t *testing.T) {
	s := newTestServer(t, nil)

	progress := payload("agent:progress", `"agentId":"codegen","progress":30`)
	_, rej := s.Submit(progress, "test")
	require.Nil(t, rej)

	// Retune with a long progress interval: fresh tables, so the next
	// submission passes and the one after is throttled.
	cfg := config.Default()
	cfg.Throttle = config.ThrottleConfig{AgentProgressMs: 60000}
	cfg.Limiter.MaxPerMinute = 10000
	s.applyConfig(cfg)

	_, rej = s.Submit(progress, "test")
	require.Nil(t, rej)
	_, rej = s.Submit(progress, "test")
	require.NotNil(t, rej)
	assert.Equal(t, RejectThrottled, rej.Reason)
}
