package anim

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/HUD/logger"
)

// Sink receives played tasks. The server's broadcast hub implements
// this; a play failure is logged and the task dropped, never retried.
type Sink interface {
	Play(task *Task, def Definition) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(task *Task, def Definition) error

// Play implements Sink.
func (f SinkFunc) Play(task *Task, def Definition) error {
	return f(task, def)
}

// Coordinator owns the pending task queue and the single play slot.
// Enqueue is safe from any goroutine; playback runs on one internal
// goroutine so at most one effect is in flight at a time.
type Coordinator struct {
	mu      sync.Mutex
	pending []*Task
	seq     uint64
	stopped bool

	signal chan struct{}
	sink   Sink
	defs   Registry
	log    *zap.SugaredLogger

	played  uint64
	dropped uint64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// hold pauses between plays for the effect duration; tests replace
	// it to run without real sleeps.
	hold func(ctx context.Context, d time.Duration)
}

// NewCoordinator returns a coordinator playing into sink with the
// given effect registry.
func NewCoordinator(sink Sink, defs Registry) *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		signal: make(chan struct{}, 1),
		sink:   sink,
		defs:   defs,
		log:    logger.AddAnimSymbol(logger.Logger),
		ctx:    ctx,
		cancel: cancel,
		hold: func(ctx context.Context, d time.Duration) {
			if d <= 0 {
				return
			}
			timer := time.NewTimer(d)
			defer timer.Stop()
			select {
			case <-ctx.Done():
			case <-timer.C:
			}
		},
	}
}

// Start launches the play loop.
func (c *Coordinator) Start() {
	c.wg.Add(1)
	go c.run()
}

// Enqueue adds a task to the pending queue. Nil tasks and tasks
// submitted after Stop are ignored.
func (c *Coordinator) Enqueue(task *Task) {
	if task == nil {
		return
	}

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.seq++
	task.Seq = c.seq
	task.EnqueuedAt = time.Now()
	c.pending = append(c.pending, task)
	c.mu.Unlock()

	// Non-blocking notify; a buffered slot is enough because the loop
	// drains the whole queue per wakeup.
	select {
	case c.signal <- struct{}{}:
	default:
	}
}

// dequeue pops the highest-priority pending task, FIFO within a
// priority, or nil when the queue is empty.
func (c *Coordinator) dequeue() *Task {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.pending) == 0 {
		return nil
	}

	best := 0
	for i := 1; i < len(c.pending); i++ {
		p, b := c.pending[i], c.pending[best]
		if p.Priority > b.Priority || (p.Priority == b.Priority && p.Seq < b.Seq) {
			best = i
		}
	}

	task := c.pending[best]
	c.pending = append(c.pending[:best], c.pending[best+1:]...)
	return task
}

func (c *Coordinator) run() {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-c.signal:
		}

		for {
			task := c.dequeue()
			if task == nil {
				break
			}
			c.play(task)

			select {
			case <-c.ctx.Done():
				return
			default:
			}
		}
	}
}

// play emits one task to the sink and holds the play slot for the
// effect's duration. Failures drop the task; the stream continues.
func (c *Coordinator) play(task *Task) {
	def := c.defs.Get(task.Effect)

	if err := c.sink.Play(task, def); err != nil {
		c.mu.Lock()
		c.dropped++
		c.mu.Unlock()
		c.log.Warnw("Dropping effect after play failure",
			logger.FieldEffect, string(task.Effect),
			logger.FieldError, err.Error(),
		)
		return
	}

	c.mu.Lock()
	c.played++
	c.mu.Unlock()

	c.hold(c.ctx, time.Duration(def.DurationMs)*time.Millisecond)
}

// PendingCount reports how many tasks await play.
func (c *Coordinator) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Stats reports lifetime played and dropped counts.
func (c *Coordinator) Stats() (played, dropped uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.played, c.dropped
}

// Stop halts the play loop. Pending tasks are discarded; a task mid-
// play finishes its sink call but not its hold.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	c.stopped = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}
