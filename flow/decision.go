// Package flow is the rate-control layer between validated events and
// the layout/broadcast path. Three policies cooperate: a per-key
// throttle enforcing minimum inter-arrival intervals, a per-origin
// sliding-window limiter, and a debouncer that coalesces graph-update
// bursts. Throttle and limiter shed load (drop, never queue); the
// debouncer only delays and merges.
package flow

import (
	"time"
)

// Rejection reasons carried on Decision and surfaced to callers.
const (
	ReasonThrottled   = "throttled"
	ReasonRateLimited = "rate_limited"
)

// Decision is the outcome of a throttle or limiter check. Rejections
// carry enough hints for a well-behaved caller to back off: how long
// to wait, the budget in force, and when the window resets.
type Decision struct {
	Allowed      bool      `json:"allowed"`
	Reason       string    `json:"reason,omitempty"`
	Key          string    `json:"key,omitempty"`
	RetryAfterMs int64     `json:"retryAfterMs,omitempty"`
	Limit        int       `json:"limit,omitempty"`
	Remaining    int       `json:"remaining,omitempty"`
	ResetAt      time.Time `json:"resetAt,omitempty"`
}

// durationMs converts to whole milliseconds, rounding up so a caller
// that waits exactly RetryAfterMs lands past the reset.
func durationMs(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	ms := d.Milliseconds()
	if d%time.Millisecond != 0 {
		ms++
	}
	return ms
}
