package flow

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/teranos/HUD/config"
	"github.com/teranos/HUD/event"
)

// coordinatorPhaseKey is shared by the three coordinator phase kinds
// so analyzing/decomposing/assigning announcements contend for one
// global interval.
const coordinatorPhaseKey = "coordinator:phase"

// ThrottleKey derives the rate-control key for an event: agent
// lifecycle kinds key per agent, coordinator phases share one key,
// everything else keys globally per kind.
func ThrottleKey(ev *event.Event) string {
	if ev.Kind.AgentScoped() && ev.AgentID != "" {
		return string(ev.Kind) + "/" + string(ev.AgentID)
	}
	if ev.Kind.CoordinatorPhase() {
		return coordinatorPhaseKey
	}
	return string(ev.Kind)
}

type throttleEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Throttle enforces a minimum inter-arrival interval per key. An event
// arriving before its key's interval has elapsed is dropped, not
// queued. Entries are created lazily on first use and evicted by
// SweepIdle once idle past the configured threshold.
type Throttle struct {
	mu   sync.Mutex
	cfg  config.ThrottleConfig
	keys map[string]*throttleEntry
	now  func() time.Time
}

// NewThrottle returns a throttle using the configured intervals.
func NewThrottle(cfg config.ThrottleConfig) *Throttle {
	return &Throttle{
		cfg:  cfg,
		keys: make(map[string]*throttleEntry),
		now:  time.Now,
	}
}

// intervalFor maps an event kind to its configured minimum
// inter-arrival interval. Zero disables throttling for that kind.
func (t *Throttle) intervalFor(kind event.Kind) time.Duration {
	var ms int
	switch kind {
	case event.KindAgentProgress:
		ms = t.cfg.AgentProgressMs
	case event.KindAgentStarted:
		ms = t.cfg.AgentStartedMs
	case event.KindAgentCompleted:
		ms = t.cfg.AgentCompletedMs
	case event.KindAgentError:
		ms = t.cfg.AgentErrorMs
	case event.KindStateTransition:
		ms = t.cfg.StateTransitionMs
	case event.KindGraphUpdate:
		ms = t.cfg.GraphUpdateMs
	case event.KindTaskDiscovered:
		ms = t.cfg.TaskDiscoveredMs
	default:
		if kind.CoordinatorPhase() {
			ms = t.cfg.CoordinatorPhaseMs
		}
	}
	return time.Duration(ms) * time.Millisecond
}

// Admit decides whether the event may proceed. Rejections carry the
// remaining wait and reset time so the caller can surface retry hints.
func (t *Throttle) Admit(ev *event.Event) Decision {
	interval := t.intervalFor(ev.Kind)
	if interval <= 0 {
		return Decision{Allowed: true}
	}

	key := ThrottleKey(ev)
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.keys[key]
	if !ok {
		entry = &throttleEntry{limiter: rate.NewLimiter(rate.Every(interval), 1)}
		t.keys[key] = entry
	}
	entry.lastSeen = now

	reservation := entry.limiter.ReserveN(now, 1)
	delay := reservation.DelayFrom(now)
	if delay > 0 {
		reservation.CancelAt(now)
		return Decision{
			Allowed:      false,
			Reason:       ReasonThrottled,
			Key:          key,
			RetryAfterMs: durationMs(delay),
			Limit:        1,
			Remaining:    0,
			ResetAt:      now.Add(delay),
		}
	}

	return Decision{
		Allowed:   true,
		Key:       key,
		Limit:     1,
		Remaining: 0,
		ResetAt:   now.Add(interval),
	}
}

// SweepIdle evicts keys idle past the configured threshold and returns
// how many were removed.
func (t *Throttle) SweepIdle() int {
	idle := time.Duration(t.cfg.IdleEvictSeconds) * time.Second
	if idle <= 0 {
		return 0
	}
	cutoff := t.now().Add(-idle)

	t.mu.Lock()
	defer t.mu.Unlock()

	evicted := 0
	for key, entry := range t.keys {
		if entry.lastSeen.Before(cutoff) {
			delete(t.keys, key)
			evicted++
		}
	}
	return evicted
}

// Len reports how many keys are currently tracked.
func (t *Throttle) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.keys)
}

// Reset drops all throttle state. Intended for tests and config
// reloads.
func (t *Throttle) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.keys = make(map[string]*throttleEntry)
}
