package server

import (
	"time"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"

	"github.com/teranos/HUD/anim"
	"github.com/teranos/HUD/event"
	"github.com/teranos/HUD/flow"
	"github.com/teranos/HUD/logger"
)

// Rejection reasons surfaced to submitters.
const (
	RejectValidation  = "validation"
	RejectThrottled   = flow.ReasonThrottled
	RejectRateLimited = flow.ReasonRateLimited
)

// Accepted is the success response to an event submission.
type Accepted struct {
	Accepted bool   `json:"accepted"`
	EventID  string `json:"eventId"`
	Seq      uint64 `json:"seq"`
}

// Rejection is the structured failure response to an event submission.
// Validation rejections carry the offending fields; rate-control
// rejections carry retry hints.
type Rejection struct {
	Rejected     bool               `json:"rejected"`
	Reason       string             `json:"reason"`
	Fields       []event.FieldError `json:"fields,omitempty"`
	RetryAfterMs int64              `json:"retryAfterMs,omitempty"`
	Limit        int                `json:"limit,omitempty"`
	Remaining    int                `json:"remaining,omitempty"`
	ResetAt      *time.Time         `json:"resetAt,omitempty"`
}

func rejectionFromDecision(d flow.Decision) *Rejection {
	rej := &Rejection{
		Rejected:     true,
		Reason:       d.Reason,
		RetryAfterMs: d.RetryAfterMs,
		Limit:        d.Limit,
		Remaining:    d.Remaining,
	}
	if !d.ResetAt.IsZero() {
		resetAt := d.ResetAt
		rej.ResetAt = &resetAt
	}
	return rej
}

// newEventID mints a compact event id: base58-encoded UUID bytes.
func newEventID() string {
	id := uuid.New()
	return base58.Encode(id[:])
}

// Submit runs one raw payload through the full ingest pipeline:
// validate, throttle, limit, stamp, record, mutate graph state, and
// enqueue the visual consequence. The pipeline mutex linearizes
// submissions so processing order is submission order.
func (s *HUDServer) Submit(raw []byte, origin string) (Accepted, *Rejection) {
	log := logger.AddIngestSymbol(s.logger)

	ev, failure := event.Validate(raw)
	if failure != nil {
		log.Debugw("Event rejected by validator",
			logger.FieldOrigin, origin,
			logger.FieldCount, len(failure.Errors),
		)
		return Accepted{}, &Rejection{
			Rejected: true,
			Reason:   RejectValidation,
			Fields:   failure.Errors,
		}
	}

	s.pipelineMu.Lock()
	defer s.pipelineMu.Unlock()

	if d := s.throttle.Admit(&ev); !d.Allowed {
		log.Debugw("Event rejected by throttle",
			logger.FieldEventKind, string(ev.Kind),
			logger.FieldReason, d.Reason,
			logger.FieldRetryAfter, d.RetryAfterMs,
		)
		return Accepted{}, rejectionFromDecision(d)
	}

	if d := s.limiter.Allow(origin, flow.ClassEventIngest); !d.Allowed {
		log.Debugw("Event rejected by limiter",
			logger.FieldOrigin, origin,
			logger.FieldReason, d.Reason,
			logger.FieldRetryAfter, d.RetryAfterMs,
		)
		return Accepted{}, rejectionFromDecision(d)
	}

	ev.ID = newEventID()
	ev.Seq = s.eventSeq.Add(1)

	s.ring.Append(&ev)
	s.tracker.Record(&ev)
	s.applyToGraphLocked(&ev)

	if task := anim.FromEvent(&ev, s.tracker.AllIssuesCompleted()); task != nil {
		task.ID = newEventID()
		s.anim.Enqueue(task)
	}

	log.Debugw("Event accepted",
		logger.FieldEventID, ev.ID,
		logger.FieldEventKind, string(ev.Kind),
		logger.FieldSeq, ev.Seq,
	)

	return Accepted{Accepted: true, EventID: ev.ID, Seq: ev.Seq}, nil
}

// applyToGraphLocked folds an accepted event into the graph builder and
// triggers a relayout when the node or edge set changed. graph:update
// payloads go through the debouncer so bursts collapse into one flush.
// Caller holds pipelineMu.
func (s *HUDServer) applyToGraphLocked(ev *event.Event) {
	switch ev.Kind {
	case event.KindGraphUpdate:
		s.debouncer.Submit(ev)

	case event.KindTaskDiscovered:
		s.builder.AddIssue(ev.Issue(), ev.Title)
		s.rebuildAndBroadcastLocked()

	case event.KindAgentStarted:
		if ev.AgentID != event.RoleCoordinator {
			s.builder.AddSpecialist(string(ev.AgentID), ev.AgentID.Label())
		}
		s.rebuildAndBroadcastLocked()

	case event.KindCoordinatorAssigning:
		if ev.AgentID != "" {
			s.builder.AddIssue(ev.Issue(), "")
			s.builder.AddSpecialist(string(ev.AgentID), ev.AgentID.Label())
			s.builder.AddAssignment(ev.Issue(), string(ev.AgentID))
		}
		s.rebuildAndBroadcastLocked()

	case event.KindStateTransition:
		s.builder.AddTransition(string(ev.From), string(ev.To))
		s.rebuildAndBroadcastLocked()
	}
	// Progress, completion, error, and the remaining coordinator phases
	// touch tracker state only; the node set is unchanged.
}
