package server

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/teranos/HUD/config"
	"github.com/teranos/HUD/event"
	"github.com/teranos/HUD/flow"
	"github.com/teranos/HUD/history"
	"github.com/teranos/HUD/internal/util"
	"github.com/teranos/HUD/layout"
	"github.com/teranos/HUD/logger"
	"github.com/teranos/HUD/server/wslogs"
	"github.com/teranos/HUD/version"
)

// maxEventPayloadBytes bounds POST /api/events bodies. Graph payloads
// dominate; anything larger is noise or abuse.
const maxEventPayloadBytes = 1024 * 1024

// HandleWebSocket upgrades a viewer connection and starts its pumps.
func (s *HUDServer) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.getState() != ServerStateRunning {
		writeError(w, http.StatusServiceUnavailable, "server is shutting down")
		return
	}

	upgrader := s.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Errorw("WebSocket upgrade failed",
			logger.FieldError, err.Error(),
		)
		return
	}

	client := &Client{
		server:  s,
		conn:    conn,
		sendMsg: make(chan interface{}, MaxClientMessageQueueSize),
		sendLog: make(chan *wslogs.Batch, MaxClientMessageQueueSize),
		id:      fmt.Sprintf("%s_%d", r.RemoteAddr, time.Now().UnixNano()),
	}

	s.register <- client

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		client.readPump()
	}()
	go func() {
		defer s.wg.Done()
		client.writePump()
	}()
}

// HandleEvents is the event intake endpoint: POST /api/events.
func (s *HUDServer) HandleEvents(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	if s.getState() != ServerStateRunning {
		writeError(w, http.StatusServiceUnavailable, "server is shutting down")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxEventPayloadBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if len(body) > maxEventPayloadBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "event payload too large")
		return
	}

	accepted, rejection := s.Submit(body, requestOrigin(r))
	if rejection != nil {
		status := http.StatusBadRequest
		if rejection.Reason == RejectThrottled || rejection.Reason == RejectRateLimited {
			status = http.StatusTooManyRequests
			if rejection.RetryAfterMs > 0 {
				seconds := (rejection.RetryAfterMs + 999) / 1000
				w.Header().Set("Retry-After", strconv.FormatInt(seconds, 10))
			}
		}
		writeJSON(w, status, rejection)
		return
	}

	writeJSON(w, http.StatusAccepted, accepted)
}

// HandleGraph serves the current layout snapshot: GET /api/graph.
func (s *HUDServer) HandleGraph(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	snapshot := s.Snapshot()
	if snapshot == nil {
		writeError(w, http.StatusNotFound, "no snapshot computed yet")
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// HandleHistory pages through recent accepted events:
// GET /api/history?kind=&agent=&issue=&offset=&limit=.
func (s *HUDServer) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	q := r.URL.Query()
	filter := history.Filter{
		Kind:  event.Kind(q.Get("kind")),
		Agent: event.Role(q.Get("agent")),
	}
	if filter.Kind != "" && !filter.Kind.IsValid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown event kind %q", filter.Kind))
		return
	}
	if filter.Agent != "" && !filter.Agent.IsValid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown agent %q", filter.Agent))
		return
	}
	if raw := q.Get("issue"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "issue must be a positive integer")
			return
		}
		filter.Issue = n
	}

	offset := queryInt(q.Get("offset"), 0)
	limit := queryInt(q.Get("limit"), 50)
	offset = util.ClampInt(offset, 0, s.ring.Capacity())
	limit = util.ClampInt(limit, 1, s.ring.Capacity())

	writeJSON(w, http.StatusOK, s.ring.Query(filter, offset, limit))
}

// HandleAgents serves the full roster: GET /api/agents.
func (s *HUDServer) HandleAgents(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"agents": s.tracker.Roster(),
	})
}

// HandleAgent serves one agent's status: GET /api/agents/{id}.
func (s *HUDServer) HandleAgent(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	role := event.Role(r.PathValue("id"))
	if !role.IsValid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown agent %q", role))
		return
	}

	status, ok := s.tracker.Get(role)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("agent %q has not been seen", role))
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// HandleConfig serves and tunes the runtime configuration:
// GET /api/config, PUT /api/config.
func (s *HUDServer) HandleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		cfg := s.config()
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"server":   cfg.Server,
			"throttle": cfg.Throttle,
			"limiter":  cfg.Limiter,
			"debounce": cfg.Debounce,
			"layout":   cfg.Layout,
			"history":  cfg.History,
			"anim":     cfg.Anim,
		})

	case http.MethodPut:
		var updates map[string]interface{}
		if readJSON(w, r, &updates) != nil {
			return
		}
		if len(updates) == 0 {
			writeError(w, http.StatusBadRequest, "no configuration keys provided")
			return
		}

		if err := config.SetKeys(updates); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		cfg, err := config.Load()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		s.applyConfig(cfg)
		s.RecomputeLayout()

		s.logger.Infow("Configuration updated via API",
			logger.FieldCount, len(updates),
		)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"updated": len(updates),
		})

	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// HandleLayoutRecompute forces a relayout: POST /api/layout/recompute.
// Limited to one per origin per the configured window.
func (s *HUDServer) HandleLayoutRecompute(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	if d := s.allowControl(requestOrigin(r), flow.ClassLayoutRecompute); !d.Allowed {
		writeRateLimited(w, d)
		return
	}

	s.RecomputeLayout()
	s.enqueueRedraw()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"recomputed": true,
	})
}

// HandleGraphRefresh rebuilds the graph from tracked orchestration
// state and broadcasts it: POST /api/graph/refresh. Limited to one per
// origin per the configured window.
func (s *HUDServer) HandleGraphRefresh(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	if d := s.allowControl(requestOrigin(r), flow.ClassGraphRefresh); !d.Allowed {
		writeRateLimited(w, d)
		return
	}

	s.RecomputeLayout()
	s.enqueueRedraw()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"refreshed": true,
	})
}

// HandleHealth is the liveness endpoint: GET /api/health.
func (s *HUDServer) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	played, dropped := s.anim.Stats()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":          "ok",
		"state":           stateString(s.getState()),
		"version":         version.Get().Version,
		"clients":         s.clientCount(),
		"pending_effects": s.anim.PendingCount(),
		"effects_played":  played,
		"effects_dropped": dropped,
		"history_size":    s.ring.Len(),
		"broadcast_drops": s.broadcastDrops.Load(),
	})
}

// allowControl checks a control-endpoint request against its per-path
// budget. The limiter lives behind pipelineMu because config reloads
// replace it.
func (s *HUDServer) allowControl(origin string, class flow.PathClass) flow.Decision {
	s.pipelineMu.Lock()
	defer s.pipelineMu.Unlock()
	return s.limiter.Allow(origin, class)
}

// writeRateLimited writes the 429 response for a rejected control
// request, with a Retry-After hint when the decision carries one.
func writeRateLimited(w http.ResponseWriter, d flow.Decision) {
	if d.RetryAfterMs > 0 {
		seconds := (d.RetryAfterMs + 999) / 1000
		w.Header().Set("Retry-After", strconv.FormatInt(seconds, 10))
	}
	writeJSON(w, http.StatusTooManyRequests, rejectionFromDecision(d))
}

// applyConfig swaps the rate-control tables and layout engine for the
// new configuration. Existing throttle and limiter state is discarded;
// a retune is a clean slate.
func (s *HUDServer) applyConfig(cfg *config.Config) {
	s.setConfig(cfg)

	s.pipelineMu.Lock()
	s.throttle = newThrottle(cfg)
	s.limiter = newLimiter(cfg)
	s.engine = layout.New(cfg.Layout)
	s.pipelineMu.Unlock()

	s.logger.Infow("Rate-control tables and layout constants reapplied")
}

// requestOrigin derives the rate-limit key for an HTTP request: the
// Origin header when present, otherwise the remote host.
func requestOrigin(r *http.Request) string {
	if origin := r.Header.Get("Origin"); origin != "" {
		return origin
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func queryInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
