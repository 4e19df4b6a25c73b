package event

import (
	"time"

	"github.com/teranos/HUD/graph"
)

// DefaultGraphID names the logical graph used when graph:update events
// omit graphId. Most deployments drive a single dashboard.
const DefaultGraphID = "main"

// Event is the fully-typed form of an inbound payload. Only the fields
// appropriate to Kind are populated; the validator guarantees that
// before an Event reaches anything downstream.
//
// ID and Seq are not part of the wire payload. The server stamps them
// on acceptance so history entries and animation tasks can reference
// the event.
type Event struct {
	ID        string    `json:"id,omitempty"`
	Seq       uint64    `json:"seq,omitempty"`
	Kind      Kind      `json:"eventType"`
	Timestamp time.Time `json:"timestamp"`

	// graph:update
	GraphID string       `json:"graphId,omitempty"`
	Graph   *graph.Graph `json:"graph,omitempty"`

	// agent lifecycle, coordinator:assigning
	AgentID     Role `json:"agentId,omitempty"`
	Progress    *int `json:"progress,omitempty"`
	IssueNumber *int `json:"issueNumber,omitempty"`

	Task    string `json:"task,omitempty"`
	Message string `json:"message,omitempty"`
	Result  string `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`

	// state:transition
	From State `json:"from,omitempty"`
	To   State `json:"to,omitempty"`

	// task:discovered, coordinator phases
	Title        string `json:"title,omitempty"`
	Summary      string `json:"summary,omitempty"`
	SubtaskCount *int   `json:"subtaskCount,omitempty"`
}

// Issue returns the issue number or 0 when the event carries none.
func (e *Event) Issue() int {
	if e.IssueNumber == nil {
		return 0
	}
	return *e.IssueNumber
}

// ProgressValue returns the progress percentage or -1 when the event
// carries none.
func (e *Event) ProgressValue() int {
	if e.Progress == nil {
		return -1
	}
	return *e.Progress
}
