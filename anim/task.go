// Package anim serializes the visual consequences of accepted events
// into one ordered effect stream. Tasks queue by priority and play
// strictly one at a time, so viewers never see two conflicting
// full-screen effects, and a failed play never blocks the next.
package anim

import (
	"time"

	"github.com/teranos/HUD/event"
)

// Effect names a visual effect kind. The set is closed; definitions
// for each live in the TOML registry.
type Effect string

const (
	EffectCelebration Effect = "celebration"
	EffectError       Effect = "error"
	EffectStarted     Effect = "started"
	EffectCompleted   Effect = "completed"
	EffectFlow        Effect = "flow"
	EffectThinking    Effect = "thinking"
	EffectRedraw      Effect = "redraw"
)

// Priority orders pending tasks; higher plays first. Values are spaced
// so intermediate levels can slot in without renumbering.
type Priority int

const (
	PriorityCelebration Priority = 70
	PriorityError       Priority = 60
	PriorityStarted     Priority = 50
	PriorityCompleted   Priority = 40
	PriorityFlow        Priority = 30
	PriorityThinking    Priority = 20
	PriorityRedraw      Priority = 10
)

// priorityFor maps each effect to its fixed priority.
func priorityFor(effect Effect) Priority {
	switch effect {
	case EffectCelebration:
		return PriorityCelebration
	case EffectError:
		return PriorityError
	case EffectStarted:
		return PriorityStarted
	case EffectCompleted:
		return PriorityCompleted
	case EffectFlow:
		return PriorityFlow
	case EffectThinking:
		return PriorityThinking
	}
	return PriorityRedraw
}

// Task is one unit of visual work derived from an accepted event.
// Seq is stamped by the coordinator on enqueue and breaks priority
// ties in arrival order.
type Task struct {
	ID         string       `json:"id"`
	Effect     Effect       `json:"effect"`
	Priority   Priority     `json:"priority"`
	Event      *event.Event `json:"event,omitempty"`
	Seq        uint64       `json:"seq"`
	EnqueuedAt time.Time    `json:"enqueued_at"`
}

// NewTask builds a task for an effect sourced from an event. The event
// may be nil for effects the server synthesizes (forced redraws).
func NewTask(effect Effect, ev *event.Event) *Task {
	return &Task{
		Effect:   effect,
		Priority: priorityFor(effect),
		Event:    ev,
	}
}

// FromEvent maps an accepted event to its effect task, or nil for
// events with no visual consequence. allCompleted upgrades an
// agent:completed to the celebration effect when the tracker reports
// every known issue closed.
func FromEvent(ev *event.Event, allCompleted bool) *Task {
	switch ev.Kind {
	case event.KindAgentError:
		return NewTask(EffectError, ev)
	case event.KindAgentStarted:
		return NewTask(EffectStarted, ev)
	case event.KindAgentCompleted:
		if allCompleted {
			return NewTask(EffectCelebration, ev)
		}
		return NewTask(EffectCompleted, ev)
	case event.KindAgentProgress, event.KindStateTransition:
		return NewTask(EffectFlow, ev)
	case event.KindCoordinatorAnalyzing, event.KindCoordinatorDecomposing, event.KindCoordinatorAssigning:
		return NewTask(EffectThinking, ev)
	case event.KindTaskDiscovered, event.KindGraphUpdate:
		return NewTask(EffectRedraw, ev)
	}
	return nil
}
