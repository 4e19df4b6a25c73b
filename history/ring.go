// Package history keeps a bounded in-memory record of accepted events
// so external tooling can page through recent activity. Old entries
// fall off the front once capacity is reached; nothing here persists
// across restarts.
package history

import (
	"sync"

	"github.com/teranos/HUD/event"
)

// DefaultCapacity bounds the ring when the configured capacity is
// missing or non-positive.
const DefaultCapacity = 1000

// Filter narrows a page of history. Zero values match everything.
type Filter struct {
	Kind  event.Kind
	Agent event.Role
	Issue int
}

func (f Filter) matches(ev *event.Event) bool {
	if f.Kind != "" && ev.Kind != f.Kind {
		return false
	}
	if f.Agent != "" && ev.AgentID != f.Agent {
		return false
	}
	if f.Issue != 0 && ev.Issue() != f.Issue {
		return false
	}
	return true
}

// Page is one slice of filtered history, newest first.
type Page struct {
	Events []*event.Event `json:"events"`
	Total  int            `json:"total"`
	Offset int            `json:"offset"`
	Limit  int            `json:"limit"`
}

// Ring is a fixed-capacity event buffer. Appends overwrite the oldest
// entry once full.
type Ring struct {
	mu    sync.RWMutex
	buf   []*event.Event
	head  int // next write position
	count int
}

// NewRing returns a ring holding at most capacity events.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ring{buf: make([]*event.Event, capacity)}
}

// Append records an accepted event, evicting the oldest when full.
func (r *Ring) Append(ev *event.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.buf[r.head] = ev
	r.head = (r.head + 1) % len(r.buf)
	if r.count < len(r.buf) {
		r.count++
	}
}

// Len reports how many events are currently retained.
func (r *Ring) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.count
}

// Capacity reports the maximum number of retained events.
func (r *Ring) Capacity() int {
	return len(r.buf)
}

// Query returns one page of events matching the filter, newest first.
// Total counts every match so callers can render pagination; offset
// and limit select the page. A non-positive limit returns an empty
// page with the total still populated.
func (r *Ring) Query(f Filter, offset, limit int) Page {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// Walk from newest to oldest.
	matched := make([]*event.Event, 0, r.count)
	for i := 0; i < r.count; i++ {
		idx := (r.head - 1 - i + len(r.buf)) % len(r.buf)
		ev := r.buf[idx]
		if f.matches(ev) {
			matched = append(matched, ev)
		}
	}

	page := Page{
		Events: []*event.Event{},
		Total:  len(matched),
		Offset: offset,
		Limit:  limit,
	}
	if limit <= 0 || offset >= len(matched) || offset < 0 {
		return page
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	page.Events = matched[offset:end]
	return page
}

// Clear drops all retained events. Intended for tests.
func (r *Ring) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.buf {
		r.buf[i] = nil
	}
	r.head = 0
	r.count = 0
}
