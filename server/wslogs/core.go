// Package wslogs streams the server's own log output to connected
// viewers: a zap core captures entries, a batcher coalesces them, and
// a transport fans batches out to per-client channels.
package wslogs

import (
	"sync"

	"go.uber.org/zap/zapcore"
)

// WebSocketCore is a zap core that feeds log entries into the batcher.
// Add it to a logger with zapcore.NewTee() alongside the console core.
type WebSocketCore struct {
	zapcore.LevelEnabler
	batcher *Batcher
	mu      sync.RWMutex
}

// NewWebSocketCore creates a WebSocket logging core writing into
// batcher. level determines which entries reach viewers; the server
// adjusts it at runtime via set_verbosity.
func NewWebSocketCore(level zapcore.LevelEnabler, batcher *Batcher) *WebSocketCore {
	return &WebSocketCore{
		LevelEnabler: level,
		batcher:      batcher,
	}
}

// SetLevel replaces the level enabler at runtime.
func (c *WebSocketCore) SetLevel(level zapcore.LevelEnabler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.LevelEnabler = level
}

func (c *WebSocketCore) enabled(l zapcore.Level) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.LevelEnabler.Enabled(l)
}

// With adds structured context to the logger (zap interface).
// This core is stateless per-field, so it returns itself.
func (c *WebSocketCore) With(fields []zapcore.Field) zapcore.Core {
	return c
}

// Check determines if the logger should log at this level (zap interface)
func (c *WebSocketCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.enabled(entry.Level) {
		return checked.AddCore(entry, c)
	}
	return checked
}

// Write captures a log entry into the current batch (zap interface)
func (c *WebSocketCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	// Defensive level check for direct Write calls (e.g., in tests)
	if !c.enabled(entry.Level) {
		return nil
	}
	c.batcher.Append(FromZapEntry(entry, fields))
	return nil
}

// Sync flushes the pending batch (zap interface)
func (c *WebSocketCore) Sync() error {
	c.batcher.Flush()
	return nil
}
