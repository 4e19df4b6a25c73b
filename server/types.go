package server

import (
	"time"

	"github.com/teranos/HUD/anim"
	"github.com/teranos/HUD/event"
	"github.com/teranos/HUD/graph"
	"github.com/teranos/HUD/layout"
	"github.com/teranos/HUD/presence"
	"github.com/teranos/HUD/server/wslogs"
)

const (
	// MaxClients is the maximum number of concurrent WebSocket viewers
	MaxClients = 100
	// MaxClientMessageQueueSize is the size of per-client message queues
	MaxClientMessageQueueSize = 256
	// ShutdownTimeout is how long to wait for graceful shutdown
	ShutdownTimeout = 15 * time.Second
	// SystemStatusInterval is the cadence of system status broadcasts
	SystemStatusInterval = 30 * time.Second
	// AgentStatusInterval is the cadence of agent roster broadcasts
	AgentStatusInterval = 2 * time.Second
)

// ServerState represents the server lifecycle state
type ServerState int

const (
	ServerStateRunning  ServerState = iota // Normal operation
	ServerStateDraining                    // Graceful shutdown in progress
	ServerStateStopped                     // Shutdown complete
)

// ViewerMessage represents a client-to-server message
type ViewerMessage struct {
	Type          string `json:"type"`                     // "hello", "request_snapshot", "set_verbosity", "ping"
	ViewerVersion string `json:"viewer_version,omitempty"` // For hello: viewer semver
	Verbosity     int    `json:"verbosity,omitempty"`      // For set_verbosity
}

// VersionMessage is sent first on every new connection
type VersionMessage struct {
	Type             string `json:"type"` // "version"
	Version          string `json:"version"`
	CommitHash       string `json:"commit_hash"`
	MinViewerVersion string `json:"min_viewer_version,omitempty"`
	Timestamp        int64  `json:"timestamp"` // Unix timestamp
}

// SnapshotMessage carries a complete positioned graph to viewers.
// Sent on connect and after every layout recomputation.
type SnapshotMessage struct {
	Type        string             `json:"type"` // "snapshot"
	GraphID     string             `json:"graph_id"`
	Nodes       []graph.Node       `json:"nodes"`
	Edges       []graph.Edge       `json:"edges"`
	Bounds      layout.Bounds      `json:"bounds"`
	Collisions  []layout.Collision `json:"collisions,omitempty"`
	Degraded    bool               `json:"degraded"`   // layout fault: best-effort coordinates
	Unresolved  bool               `json:"unresolved"` // collision resolution hit its bound
	Stats       graph.Stats        `json:"stats"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// EffectMessage is one played animation task
type EffectMessage struct {
	Type       string     `json:"type"`   // "effect"
	Effect     string     `json:"effect"` // effect kind from the anim registry
	DurationMs int        `json:"duration_ms"`
	Palette    []string   `json:"palette,omitempty"`
	Particles  int        `json:"particles,omitempty"`
	Agent      event.Role `json:"agent,omitempty"`
	Issue      int        `json:"issue,omitempty"`
	EventID    string     `json:"event_id,omitempty"`
	Seq        uint64     `json:"seq"` // play order, monotonically increasing
	Timestamp  int64      `json:"timestamp"`
}

// AgentStatusMessage carries the agent roster
type AgentStatusMessage struct {
	Type      string                 `json:"type"` // "agent_status"
	Agents    []presence.AgentStatus `json:"agents"`
	Timestamp int64                  `json:"timestamp"`
}

// SystemStatusMessage carries host and server gauges
type SystemStatusMessage struct {
	Type           string  `json:"type"` // "system_status"
	State          string  `json:"state"`
	Clients        int     `json:"clients"`
	PendingEffects int     `json:"pending_effects"`
	HistorySize    int     `json:"history_size"`
	MemoryPercent  float64 `json:"memory_percent"`
	CPUPercent     float64 `json:"cpu_percent"`
	Timestamp      int64   `json:"timestamp"`
}

// LogBatchMessage wraps a server log batch for viewers
type LogBatchMessage struct {
	Type string        `json:"type"` // "log_batch"
	Data *wslogs.Batch `json:"data"`
}

// NoticeMessage carries out-of-band text for the viewer's log panel
type NoticeMessage struct {
	Type      string `json:"type"`  // "notice"
	Level     string `json:"level"` // "info", "warn"
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// EffectMessageFrom builds the wire message for a played task.
func EffectMessageFrom(task *anim.Task, def anim.Definition, seq uint64) EffectMessage {
	msg := EffectMessage{
		Type:       "effect",
		Effect:     string(task.Effect),
		DurationMs: def.DurationMs,
		Palette:    def.Palette,
		Particles:  def.Particles,
		Seq:        seq,
		Timestamp:  time.Now().Unix(),
	}
	if task.Event != nil {
		msg.Agent = task.Event.AgentID
		msg.Issue = task.Event.Issue()
		msg.EventID = task.Event.ID
	}
	return msg
}
