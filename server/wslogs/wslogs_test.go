package wslogs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestTransportRegisterAndSend(t *testing.T) {
	tr := NewTransport()
	ch := make(chan *Batch, 4)
	tr.RegisterClient("c1", ch)
	assert.Equal(t, 1, tr.ClientCount())

	tr.SendBatch(&Batch{Messages: []Message{{Message: "hello"}}, Timestamp: time.Now()})

	select {
	case batch := <-ch:
		require.Len(t, batch.Messages, 1)
		assert.Equal(t, "hello", batch.Messages[0].Message)
	default:
		t.Fatal("expected a batch on the client channel")
	}

	tr.UnregisterClient("c1")
	assert.Equal(t, 0, tr.ClientCount())
}

func TestTransportDropsWhenClientFull(t *testing.T) {
	tr := NewTransport()
	ch := make(chan *Batch, 1)
	tr.RegisterClient("slow", ch)

	batch := &Batch{Messages: []Message{{Message: "x"}}}
	tr.SendBatch(batch)
	tr.SendBatch(batch) // channel full, dropped without blocking

	assert.Len(t, ch, 1)
}

func TestTransportIgnoresEmptyBatches(t *testing.T) {
	tr := NewTransport()
	ch := make(chan *Batch, 1)
	tr.RegisterClient("c1", ch)

	tr.SendBatch(nil)
	tr.SendBatch(&Batch{})

	assert.Len(t, ch, 0)
}

func TestBatcherFlushesOnDemand(t *testing.T) {
	tr := NewTransport()
	ch := make(chan *Batch, 4)
	tr.RegisterClient("c1", ch)

	b := NewBatcher(tr)
	b.Append(Message{Message: "one"})
	b.Append(Message{Message: "two"})
	assert.Equal(t, 2, b.Count())

	b.Flush()
	assert.Equal(t, 0, b.Count())

	select {
	case batch := <-ch:
		assert.Len(t, batch.Messages, 2)
	default:
		t.Fatal("expected a flushed batch")
	}

	// Empty flushes produce nothing
	b.Flush()
	assert.Len(t, ch, 0)
}

func TestBatcherFlushesWhenFull(t *testing.T) {
	tr := NewTransport()
	ch := make(chan *Batch, 4)
	tr.RegisterClient("c1", ch)

	b := NewBatcher(tr)
	for i := 0; i < DefaultMaxBatchSize; i++ {
		b.Append(Message{Message: "m"})
	}

	// The full batch went out without waiting for the timer
	assert.Equal(t, 0, b.Count())
	require.Len(t, ch, 1)
	batch := <-ch
	assert.Len(t, batch.Messages, DefaultMaxBatchSize)
}

func TestBatcherStopFlushesRemainder(t *testing.T) {
	tr := NewTransport()
	ch := make(chan *Batch, 4)
	tr.RegisterClient("c1", ch)

	b := NewBatcher(tr)
	b.Start()
	b.Append(Message{Message: "tail"})
	b.Stop()

	require.NotEmpty(t, ch)
	batch := <-ch
	assert.Equal(t, "tail", batch.Messages[len(batch.Messages)-1].Message)
}

func TestWebSocketCoreWritesThroughBatcher(t *testing.T) {
	tr := NewTransport()
	b := NewBatcher(tr)
	core := NewWebSocketCore(zapcore.InfoLevel, b)

	log := zap.New(core).Sugar().Named("hud")
	log.Infow("event accepted", "seq", int64(7))
	log.Debugw("suppressed below level")

	require.Equal(t, 1, b.Count())
	b.mu.Lock()
	msg := b.messages[0]
	b.mu.Unlock()
	assert.Equal(t, "INFO", msg.Level)
	assert.Equal(t, "event accepted", msg.Message)
	assert.Equal(t, int64(7), msg.Fields["seq"])
}

func TestWebSocketCoreSetLevel(t *testing.T) {
	tr := NewTransport()
	b := NewBatcher(tr)
	core := NewWebSocketCore(zapcore.InfoLevel, b)
	log := zap.New(core).Sugar()

	log.Debugw("dropped")
	assert.Equal(t, 0, b.Count())

	core.SetLevel(zapcore.DebugLevel)
	log.Debugw("kept")
	assert.Equal(t, 1, b.Count())
}

func TestFromZapEntryFieldConversion(t *testing.T) {
	entry := zapcore.Entry{
		Level:      zapcore.WarnLevel,
		Time:       time.Now(),
		LoggerName: "hud",
		Message:    "queue full",
	}
	fields := []zapcore.Field{
		zap.String("client_id", "abc"),
		zap.Int("count", 3),
		zap.Bool("degraded", true),
		zap.Duration("elapsed", 2*time.Second),
	}

	msg := FromZapEntry(entry, fields)
	assert.Equal(t, "WARN", msg.Level)
	assert.Equal(t, "abc", msg.Fields["client_id"])
	assert.Equal(t, int64(3), msg.Fields["count"])
	assert.Equal(t, true, msg.Fields["degraded"])
	assert.Equal(t, "2s", msg.Fields["elapsed"])
}
