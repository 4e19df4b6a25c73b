package wslogs

import (
	"context"
	"sync"
	"time"
)

const (
	// DefaultFlushInterval is how often a partially-filled batch flushes
	DefaultFlushInterval = 250 * time.Millisecond
	// DefaultMaxBatchSize triggers an immediate flush when reached
	DefaultMaxBatchSize = 64
)

// Batcher collects log messages and flushes them to the transport on a
// timer, or immediately once the batch fills. This keeps per-message
// WebSocket overhead off the hot logging path while viewers still see
// output promptly.
type Batcher struct {
	mu        sync.Mutex
	messages  []Message
	transport *Transport
	interval  time.Duration
	maxBatch  int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewBatcher creates a batcher flushing into transport.
func NewBatcher(transport *Transport) *Batcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Batcher{
		messages:  make([]Message, 0, DefaultMaxBatchSize),
		transport: transport,
		interval:  DefaultFlushInterval,
		maxBatch:  DefaultMaxBatchSize,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start launches the periodic flush loop.
func (b *Batcher) Start() {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		ticker := time.NewTicker(b.interval)
		defer ticker.Stop()

		for {
			select {
			case <-b.ctx.Done():
				return
			case <-ticker.C:
				b.Flush()
			}
		}
	}()
}

// Append adds a log message to the batch, flushing immediately when
// the batch is full.
func (b *Batcher) Append(msg Message) {
	b.mu.Lock()
	b.messages = append(b.messages, msg)
	full := len(b.messages) >= b.maxBatch
	b.mu.Unlock()

	if full {
		b.Flush()
	}
}

// Flush sends all collected messages as one batch and clears the buffer.
func (b *Batcher) Flush() {
	b.mu.Lock()
	if len(b.messages) == 0 {
		b.mu.Unlock()
		return
	}
	batch := &Batch{
		Messages:  make([]Message, len(b.messages)),
		Timestamp: time.Now(),
	}
	copy(batch.Messages, b.messages)
	// Reuse slice capacity by resetting length to 0
	b.messages = b.messages[:0]
	b.mu.Unlock()

	b.transport.SendBatch(batch)
}

// Count returns the number of messages currently buffered.
func (b *Batcher) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.messages)
}

// Stop halts the flush loop after a final flush.
func (b *Batcher) Stop() {
	b.cancel()
	b.wg.Wait()
	b.Flush()
}
