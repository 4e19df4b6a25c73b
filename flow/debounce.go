package flow

import (
	"sort"
	"sync"
	"time"

	"github.com/teranos/HUD/event"
)

// Update is a flushed aggregate of graph-update events for one logical
// graph: the most recent payload plus how many occurrences were merged
// into it during the quiet window.
type Update struct {
	GraphID string
	Event   *event.Event
	Merged  int
	FirstAt time.Time
	LastAt  time.Time
}

// FlushFunc receives a merged update once its quiet window elapses.
// It runs on a timer goroutine and must hand off quickly.
type FlushFunc func(Update)

type pendingUpdate struct {
	update Update
	timer  *time.Timer
}

// Debouncer coalesces bursts of graph-update events per logical graph
// id. Each new update within the quiet window replaces the pending
// payload (latest wins), bumps the merge count, and restarts the
// timer; the pending update flushes once the window passes without
// another arrival. The debouncer never rejects.
type Debouncer struct {
	mu      sync.Mutex
	window  time.Duration
	flush   FlushFunc
	pending map[string]*pendingUpdate
	now     func() time.Time
	stopped bool
}

// NewDebouncer returns a debouncer with the given quiet window.
func NewDebouncer(window time.Duration, flush FlushFunc) *Debouncer {
	return &Debouncer{
		window:  window,
		flush:   flush,
		pending: make(map[string]*pendingUpdate),
		now:     time.Now,
	}
}

// Submit records a graph-update event. The event's graph id selects
// the pending slot; submissions after Stop are dropped.
func (d *Debouncer) Submit(ev *event.Event) {
	graphID := ev.GraphID
	if graphID == "" {
		graphID = event.DefaultGraphID
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	now := d.now()
	if p, ok := d.pending[graphID]; ok {
		p.update.Event = ev
		p.update.Merged++
		p.update.LastAt = now
		p.timer.Stop()
		p.timer = time.AfterFunc(d.window, func() { d.flushGraph(graphID) })
		return
	}

	d.pending[graphID] = &pendingUpdate{
		update: Update{
			GraphID: graphID,
			Event:   ev,
			Merged:  1,
			FirstAt: now,
			LastAt:  now,
		},
		timer: time.AfterFunc(d.window, func() { d.flushGraph(graphID) }),
	}
}

func (d *Debouncer) flushGraph(graphID string) {
	d.mu.Lock()
	p, ok := d.pending[graphID]
	if ok {
		delete(d.pending, graphID)
	}
	d.mu.Unlock()

	if ok {
		d.flush(p.update)
	}
}

// FlushAll forces every pending update out immediately, in graph-id
// order. Used on shutdown so merged updates are not lost.
func (d *Debouncer) FlushAll() {
	d.mu.Lock()
	ids := make([]string, 0, len(d.pending))
	for id := range d.pending {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	flushes := make([]Update, 0, len(ids))
	for _, id := range ids {
		p := d.pending[id]
		p.timer.Stop()
		flushes = append(flushes, p.update)
		delete(d.pending, id)
	}
	d.mu.Unlock()

	for _, u := range flushes {
		d.flush(u)
	}
}

// PendingCount reports how many graphs have an update waiting.
func (d *Debouncer) PendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Stop drains pending updates and rejects further submissions.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()
	d.FlushAll()
}
