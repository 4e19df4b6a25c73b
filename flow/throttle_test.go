package flow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/HUD/config"
	"github.com/teranos/HUD/event"
	"github.com/teranos/HUD/internal/util"
)

// mockClock provides a controllable time source for rate-control tests.
type mockClock struct {
	current time.Time
}

func newMockClock() *mockClock {
	return &mockClock{current: time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)}
}

func (m *mockClock) Now() time.Time {
	return m.current
}

func (m *mockClock) Advance(d time.Duration) {
	m.current = m.current.Add(d)
}

func testThrottleConfig() config.ThrottleConfig {
	return config.ThrottleConfig{
		AgentProgressMs:    1000,
		AgentStartedMs:     500,
		AgentCompletedMs:   500,
		AgentErrorMs:       6000,
		CoordinatorPhaseMs: 12000,
		StateTransitionMs:  200,
		GraphUpdateMs:      2000,
		TaskDiscoveredMs:   500,
		IdleEvictSeconds:   300,
	}
}

func progressEvent(agent event.Role) *event.Event {
	return &event.Event{
		Kind:      event.KindAgentProgress,
		Timestamp: time.Now(),
		AgentID:   agent,
		Progress:  util.Ptr(50),
	}
}

func TestThrottleSecondArrivalWithinIntervalRejected(t *testing.T) {
	clock := newMockClock()
	th := NewThrottle(testThrottleConfig())
	th.now = clock.Now

	first := th.Admit(progressEvent(event.RoleCodegen))
	require.True(t, first.Allowed)

	clock.Advance(300 * time.Millisecond)
	second := th.Admit(progressEvent(event.RoleCodegen))
	assert.False(t, second.Allowed)
	assert.Equal(t, ReasonThrottled, second.Reason)
	assert.Greater(t, second.RetryAfterMs, int64(0))
	assert.LessOrEqual(t, second.RetryAfterMs, int64(700))
	assert.False(t, second.ResetAt.IsZero())
}

func TestThrottleAllowsAfterIntervalElapses(t *testing.T) {
	clock := newMockClock()
	th := NewThrottle(testThrottleConfig())
	th.now = clock.Now

	require.True(t, th.Admit(progressEvent(event.RoleCodegen)).Allowed)

	clock.Advance(1001 * time.Millisecond)
	assert.True(t, th.Admit(progressEvent(event.RoleCodegen)).Allowed)
}

func TestThrottleKeysPerAgent(t *testing.T) {
	clock := newMockClock()
	th := NewThrottle(testThrottleConfig())
	th.now = clock.Now

	require.True(t, th.Admit(progressEvent(event.RoleCodegen)).Allowed)

	// A different agent has its own interval.
	assert.True(t, th.Admit(progressEvent(event.RoleReview)).Allowed)
	assert.Equal(t, 2, th.Len())
}

func TestThrottleCoordinatorPhasesShareOneKey(t *testing.T) {
	clock := newMockClock()
	th := NewThrottle(testThrottleConfig())
	th.now = clock.Now

	analyzing := &event.Event{Kind: event.KindCoordinatorAnalyzing, IssueNumber: util.Ptr(1)}
	decomposing := &event.Event{Kind: event.KindCoordinatorDecomposing, IssueNumber: util.Ptr(1)}

	require.True(t, th.Admit(analyzing).Allowed)

	clock.Advance(time.Second)
	rejected := th.Admit(decomposing)
	assert.False(t, rejected.Allowed)
	assert.Equal(t, coordinatorPhaseKey, rejected.Key)
}

func TestThrottleZeroIntervalDisables(t *testing.T) {
	cfg := testThrottleConfig()
	cfg.GraphUpdateMs = 0
	th := NewThrottle(cfg)

	ev := &event.Event{Kind: event.KindGraphUpdate}
	for i := 0; i < 5; i++ {
		assert.True(t, th.Admit(ev).Allowed)
	}
}

func TestThrottleSweepIdleEvictsStaleKeys(t *testing.T) {
	clock := newMockClock()
	th := NewThrottle(testThrottleConfig())
	th.now = clock.Now

	th.Admit(progressEvent(event.RoleCodegen))
	th.Admit(progressEvent(event.RoleReview))
	require.Equal(t, 2, th.Len())

	clock.Advance(200 * time.Second)
	th.Admit(progressEvent(event.RoleTest))

	clock.Advance(150 * time.Second)
	evicted := th.SweepIdle()
	assert.Equal(t, 2, evicted)
	assert.Equal(t, 1, th.Len())
}

func TestThrottleReset(t *testing.T) {
	th := NewThrottle(testThrottleConfig())
	require.True(t, th.Admit(progressEvent(event.RoleCodegen)).Allowed)
	assert.False(t, th.Admit(progressEvent(event.RoleCodegen)).Allowed)

	th.Reset()
	assert.Equal(t, 0, th.Len())
	assert.True(t, th.Admit(progressEvent(event.RoleCodegen)).Allowed)
}

func TestThrottleKeyDerivation(t *testing.T) {
	assert.Equal(t, "agent:progress/codegen", ThrottleKey(progressEvent(event.RoleCodegen)))
	assert.Equal(t, coordinatorPhaseKey, ThrottleKey(&event.Event{Kind: event.KindCoordinatorAssigning}))
	assert.Equal(t, "graph:update", ThrottleKey(&event.Event{Kind: event.KindGraphUpdate}))
	assert.Equal(t, "state:transition", ThrottleKey(&event.Event{Kind: event.KindStateTransition}))
}
