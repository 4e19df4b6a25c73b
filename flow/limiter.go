package flow

import (
	"sync"
	"time"

	"github.com/teranos/HUD/config"
)

// PathClass selects which budget applies to a request. Event ingest
// uses the default per-origin budget; the control endpoints carry
// tighter ceilings.
type PathClass string

const (
	ClassEventIngest     PathClass = "events"
	ClassGraphRefresh    PathClass = "graph_refresh"
	ClassLayoutRecompute PathClass = "layout_recompute"
	ClassWorkflowTrigger PathClass = "workflow"
)

type originWindow struct {
	stamps   []time.Time
	lastSeen time.Time
}

// Limiter is a sliding-window rate limiter keyed by request origin and
// path class. Each key retains only the request timestamps newer than
// (now - window); a request is rejected when the retained count has
// reached the limit, otherwise it is recorded and allowed. The x/time
// token bucket the throttle uses would admit bursts here, so the
// window is tracked explicitly.
type Limiter struct {
	mu      sync.Mutex
	cfg     config.LimiterConfig
	windows map[string]*originWindow
	now     func() time.Time
}

// NewLimiter returns a limiter using the configured budgets.
func NewLimiter(cfg config.LimiterConfig) *Limiter {
	return &Limiter{
		cfg:     cfg,
		windows: make(map[string]*originWindow),
		now:     time.Now,
	}
}

// budgetFor maps a path class to (limit, window).
func (l *Limiter) budgetFor(class PathClass) (int, time.Duration) {
	switch class {
	case ClassGraphRefresh:
		return 1, time.Duration(l.cfg.GraphRefreshSeconds) * time.Second
	case ClassLayoutRecompute:
		return 1, time.Duration(l.cfg.LayoutRecomputeSeconds) * time.Second
	case ClassWorkflowTrigger:
		return l.cfg.WorkflowPerMinute, time.Minute
	default:
		return l.cfg.MaxPerMinute, time.Minute
	}
}

// Allow decides whether a request from origin may proceed under the
// class budget. Rejections report when the oldest retained request
// falls out of the window.
func (l *Limiter) Allow(origin string, class PathClass) Decision {
	limit, window := l.budgetFor(class)
	if limit <= 0 || window <= 0 {
		return Decision{Allowed: true}
	}

	key := origin + "|" + string(class)
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok {
		w = &originWindow{}
		l.windows[key] = w
	}
	w.lastSeen = now

	cutoff := now.Add(-window)
	kept := w.stamps[:0]
	for _, ts := range w.stamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	w.stamps = kept

	if len(w.stamps) >= limit {
		resetAt := w.stamps[0].Add(window)
		return Decision{
			Allowed:      false,
			Reason:       ReasonRateLimited,
			Key:          key,
			RetryAfterMs: durationMs(resetAt.Sub(now)),
			Limit:        limit,
			Remaining:    0,
			ResetAt:      resetAt,
		}
	}

	w.stamps = append(w.stamps, now)
	return Decision{
		Allowed:   true,
		Key:       key,
		Limit:     limit,
		Remaining: limit - len(w.stamps),
		ResetAt:   now.Add(window),
	}
}

// SweepIdle evicts origins idle past the configured threshold and
// returns how many were removed.
func (l *Limiter) SweepIdle() int {
	idle := time.Duration(l.cfg.IdleEvictSeconds) * time.Second
	if idle <= 0 {
		return 0
	}
	cutoff := l.now().Add(-idle)

	l.mu.Lock()
	defer l.mu.Unlock()

	evicted := 0
	for key, w := range l.windows {
		if w.lastSeen.Before(cutoff) {
			delete(l.windows, key)
			evicted++
		}
	}
	return evicted
}

// Len reports how many origin windows are currently tracked.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

// Reset drops all limiter state. Intended for tests and config
// reloads.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.windows = make(map[string]*originWindow)
}
