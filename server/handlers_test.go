package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/HUD/config"
	"github.com/teranos/HUD/history"
)

func newTestHandler(t *testing.T, mutate func(*config.Config)) *HUDServer {
	t.Helper()
	s := newTestServer(t, mutate)
	s.setupHTTPRoutes()
	return s
}

func doRequest(s *HUDServer, method, target string, body []byte) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestHandleEventsAccepted(t *testing.T) {
	s := newTestHandler(t, nil)

	rec := doRequest(s, http.MethodPost, "/api/events", payload("task:discovered", `"issueNumber":42`))
	require.Equal(t, http.StatusAccepted, rec.Code)

	var acc Accepted
	decodeBody(t, rec, &acc)
	assert.True(t, acc.Accepted)
	assert.NotEmpty(t, acc.EventID)
	assert.Equal(t, uint64(1), acc.Seq)
}

func TestHandleEventsValidationRejection(t *testing.T) {
	s := newTestHandler(t, nil)

	rec := doRequest(s, http.MethodPost, "/api/events", payload("agent:started", ""))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var rej Rejection
	decodeBody(t, rec, &rej)
	assert.True(t, rej.Rejected)
	assert.Equal(t, RejectValidation, rej.Reason)
	assert.NotEmpty(t, rej.Fields)
}

func TestHandleEventsRateLimited(t *testing.T) {
	s := newTestHandler(t, func(cfg *config.Config) {
		cfg.Limiter.MaxPerMinute = 1
	})

	ev := payload("task:discovered", `"issueNumber":1`)
	require.Equal(t, http.StatusAccepted, doRequest(s, http.MethodPost, "/api/events", ev).Code)

	rec := doRequest(s, http.MethodPost, "/api/events", ev)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	var rej Rejection
	decodeBody(t, rec, &rej)
	assert.Equal(t, RejectRateLimited, rej.Reason)
}

func TestHandleEventsRejectsWrongMethod(t *testing.T) {
	s := newTestHandler(t, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, doRequest(s, http.MethodGet, "/api/events", nil).Code)
}

func TestHandleEventsRejectsWhileDraining(t *testing.T) {
	s := newTestHandler(t, nil)
	s.state.Store(int32(ServerStateDraining))

	rec := doRequest(s, http.MethodPost, "/api/events", payload("task:discovered", `"issueNumber":1`))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleGraph(t *testing.T) {
	s := newTestHandler(t, nil)

	// No snapshot before the first accepted event
	assert.Equal(t, http.StatusNotFound, doRequest(s, http.MethodGet, "/api/graph", nil).Code)

	_, rej := s.Submit(payload("task:discovered", `"issueNumber":42`), "test")
	require.Nil(t, rej)

	rec := doRequest(s, http.MethodGet, "/api/graph", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var snapshot SnapshotMessage
	decodeBody(t, rec, &snapshot)
	assert.Equal(t, "snapshot", snapshot.Type)
	assert.NotEmpty(t, snapshot.Nodes)
}

func TestHandleHistory(t *testing.T) {
	s := newTestHandler(t, nil)

	_, rej := s.Submit(payload("task:discovered", `"issueNumber":42`), "test")
	require.Nil(t, rej)
	_, rej = s.Submit(payload("agent:started", `"agentId":"codegen","issueNumber":42`), "test")
	require.Nil(t, rej)

	rec := doRequest(s, http.MethodGet, "/api/history?kind=agent:started", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var page history.Page
	decodeBody(t, rec, &page)
	assert.Equal(t, 1, page.Total)

	assert.Equal(t, http.StatusBadRequest, doRequest(s, http.MethodGet, "/api/history?kind=bogus", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(s, http.MethodGet, "/api/history?agent=bogus", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(s, http.MethodGet, "/api/history?issue=0", nil).Code)
}

func TestHandleAgents(t *testing.T) {
	s := newTestHandler(t, nil)

	_, rej := s.Submit(payload("agent:started", `"agentId":"codegen"`), "test")
	require.Nil(t, rej)

	rec := doRequest(s, http.MethodGet, "/api/agents", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Agents []json.RawMessage `json:"agents"`
	}
	decodeBody(t, rec, &body)
	assert.Len(t, body.Agents, 1)
}

func TestHandleAgent(t *testing.T) {
	s := newTestHandler(t, nil)

	assert.Equal(t, http.StatusBadRequest, doRequest(s, http.MethodGet, "/api/agents/bogus", nil).Code)
	assert.Equal(t, http.StatusNotFound, doRequest(s, http.MethodGet, "/api/agents/review", nil).Code)

	_, rej := s.Submit(payload("agent:started", `"agentId":"review"`), "test")
	require.Nil(t, rej)

	rec := doRequest(s, http.MethodGet, "/api/agents/review", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var status struct {
		Agent string `json:"agent"`
	}
	decodeBody(t, rec, &status)
	assert.Equal(t, "review", status.Agent)
}

func TestHandleLayoutRecomputeRateLimited(t *testing.T) {
	s := newTestHandler(t, nil)

	rec := doRequest(s, http.MethodPost, "/api/layout/recompute", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// One recompute per origin per window
	rec = doRequest(s, http.MethodPost, "/api/layout/recompute", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestHandleGraphRefreshRateLimited(t *testing.T) {
	s := newTestHandler(t, nil)

	require.Equal(t, http.StatusOK, doRequest(s, http.MethodPost, "/api/graph/refresh", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(s, http.MethodPost, "/api/graph/refresh", nil).Code)
}

func TestHandleConfigGet(t *testing.T) {
	s := newTestHandler(t, nil)

	rec := doRequest(s, http.MethodGet, "/api/config", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]json.RawMessage
	decodeBody(t, rec, &body)
	for _, section := range []string{"server", "throttle", "limiter", "debounce", "layout", "history", "anim"} {
		assert.Contains(t, body, section)
	}
}

func TestHandleHealth(t *testing.T) {
	s := newTestHandler(t, nil)

	rec := doRequest(s, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	decodeBody(t, rec, &body)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "running", body["state"])
}

func TestCORSPreflight(t *testing.T) {
	s := newTestHandler(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/graph", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}
