package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAcceptsAllKinds(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		kind  Kind
		check func(t *testing.T, ev Event)
	}{
		{
			name: "graph update",
			raw: `{"eventType":"graph:update","timestamp":"2026-03-01T10:00:00Z",
				"graph":{"nodes":[{"id":"coordinator","kind":"coordinator"}],"edges":[]}}`,
			kind: KindGraphUpdate,
			check: func(t *testing.T, ev Event) {
				require.NotNil(t, ev.Graph)
				assert.Len(t, ev.Graph.Nodes, 1)
				assert.Equal(t, "main", ev.GraphID)
			},
		},
		{
			name: "agent started",
			raw:  `{"eventType":"agent:started","timestamp":"2026-03-01T10:00:00Z","agentId":"codegen","issueNumber":42,"task":"implement parser"}`,
			kind: KindAgentStarted,
			check: func(t *testing.T, ev Event) {
				assert.Equal(t, RoleCodegen, ev.AgentID)
				assert.Equal(t, 42, ev.Issue())
				assert.Equal(t, "implement parser", ev.Task)
			},
		},
		{
			name: "agent progress",
			raw:  `{"eventType":"agent:progress","timestamp":"2026-03-01T10:00:01.250Z","agentId":"codegen","progress":30,"message":"writing tests","issueNumber":42}`,
			kind: KindAgentProgress,
			check: func(t *testing.T, ev Event) {
				assert.Equal(t, 30, ev.ProgressValue())
				assert.Equal(t, "writing tests", ev.Message)
			},
		},
		{
			name: "agent completed",
			raw:  `{"eventType":"agent:completed","timestamp":"2026-03-01T10:05:00Z","agentId":"review","result":"approved"}`,
			kind: KindAgentCompleted,
			check: func(t *testing.T, ev Event) {
				assert.Equal(t, RoleReview, ev.AgentID)
				assert.Equal(t, "approved", ev.Result)
				assert.Equal(t, 0, ev.Issue())
			},
		},
		{
			name: "agent error",
			raw:  `{"eventType":"agent:error","timestamp":"2026-03-01T10:06:00Z","agentId":"deployment","error":"build failed","issueNumber":7}`,
			kind: KindAgentError,
			check: func(t *testing.T, ev Event) {
				assert.Equal(t, "build failed", ev.Error)
			},
		},
		{
			name: "state transition",
			raw:  `{"eventType":"state:transition","timestamp":"2026-03-01T10:07:00Z","from":"pending","to":"in_progress","issueNumber":7}`,
			kind: KindStateTransition,
			check: func(t *testing.T, ev Event) {
				assert.Equal(t, StatePending, ev.From)
				assert.Equal(t, StateInProgress, ev.To)
			},
		},
		{
			name: "task discovered",
			raw:  `{"eventType":"task:discovered","timestamp":"2026-03-01T10:08:00Z","issueNumber":99,"title":"flaky websocket test"}`,
			kind: KindTaskDiscovered,
			check: func(t *testing.T, ev Event) {
				assert.Equal(t, 99, ev.Issue())
				assert.Equal(t, "flaky websocket test", ev.Title)
			},
		},
		{
			name: "coordinator analyzing",
			raw:  `{"eventType":"coordinator:analyzing","timestamp":"2026-03-01T10:09:00Z","issueNumber":99,"summary":"triaging"}`,
			kind: KindCoordinatorAnalyzing,
			check: func(t *testing.T, ev Event) {
				assert.Equal(t, "triaging", ev.Summary)
			},
		},
		{
			name: "coordinator decomposing",
			raw:  `{"eventType":"coordinator:decomposing","timestamp":"2026-03-01T10:10:00Z","issueNumber":99,"subtaskCount":3}`,
			kind: KindCoordinatorDecomposing,
			check: func(t *testing.T, ev Event) {
				require.NotNil(t, ev.SubtaskCount)
				assert.Equal(t, 3, *ev.SubtaskCount)
			},
		},
		{
			name: "coordinator assigning",
			raw:  `{"eventType":"coordinator:assigning","timestamp":"2026-03-01T10:11:00Z","issueNumber":99,"agentId":"test"}`,
			kind: KindCoordinatorAssigning,
			check: func(t *testing.T, ev Event) {
				assert.Equal(t, RoleTest, ev.AgentID)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, failure := Validate([]byte(tt.raw))
			require.Nil(t, failure, "expected valid event, got %v", failure)
			assert.Equal(t, tt.kind, ev.Kind)
			assert.False(t, ev.Timestamp.IsZero())
			if tt.check != nil {
				tt.check(t, ev)
			}
		})
	}
}

func TestValidateRejectsMalformed(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		field    string
		received string
	}{
		{
			name:  "unparsable JSON",
			raw:   `{"eventType":`,
			field: "payload",
		},
		{
			name:  "non-object payload",
			raw:   `[1,2,3]`,
			field: "payload",
		},
		{
			name:     "missing discriminant",
			raw:      `{"timestamp":"2026-03-01T10:00:00Z"}`,
			field:    "eventType",
			received: "missing",
		},
		{
			name:     "unknown discriminant",
			raw:      `{"eventType":"agent:exploded","timestamp":"2026-03-01T10:00:00Z"}`,
			field:    "eventType",
			received: "agent:exploded",
		},
		{
			name:     "discriminant wrong type",
			raw:      `{"eventType":42,"timestamp":"2026-03-01T10:00:00Z"}`,
			field:    "eventType",
			received: "number",
		},
		{
			name:     "missing timestamp",
			raw:      `{"eventType":"agent:started","agentId":"codegen"}`,
			field:    "timestamp",
			received: "missing",
		},
		{
			name:     "unparsable timestamp",
			raw:      `{"eventType":"agent:started","timestamp":"yesterday","agentId":"codegen"}`,
			field:    "timestamp",
			received: "yesterday",
		},
		{
			name:     "unknown agent role",
			raw:      `{"eventType":"agent:started","timestamp":"2026-03-01T10:00:00Z","agentId":"necromancer"}`,
			field:    "agentId",
			received: "necromancer",
		},
		{
			name:     "progress above range",
			raw:      `{"eventType":"agent:progress","timestamp":"2026-03-01T10:00:00Z","agentId":"codegen","progress":150}`,
			field:    "progress",
			received: "150",
		},
		{
			name:     "fractional progress",
			raw:      `{"eventType":"agent:progress","timestamp":"2026-03-01T10:00:00Z","agentId":"codegen","progress":30.5}`,
			field:    "progress",
			received: "number",
		},
		{
			name:     "progress wrong type",
			raw:      `{"eventType":"agent:progress","timestamp":"2026-03-01T10:00:00Z","agentId":"codegen","progress":"thirty"}`,
			field:    "progress",
			received: "string",
		},
		{
			name:     "zero issue number",
			raw:      `{"eventType":"task:discovered","timestamp":"2026-03-01T10:00:00Z","issueNumber":0}`,
			field:    "issueNumber",
			received: "0",
		},
		{
			name:     "negative issue number",
			raw:      `{"eventType":"task:discovered","timestamp":"2026-03-01T10:00:00Z","issueNumber":-3}`,
			field:    "issueNumber",
			received: "-3",
		},
		{
			name:     "missing required field",
			raw:      `{"eventType":"agent:progress","timestamp":"2026-03-01T10:00:00Z","agentId":"codegen"}`,
			field:    "progress",
			received: "missing",
		},
		{
			name:     "field disallowed for kind",
			raw:      `{"eventType":"agent:error","timestamp":"2026-03-01T10:00:00Z","agentId":"codegen","error":"x","task":"smuggled"}`,
			field:    "task",
			received: "present",
		},
		{
			name:     "self transition",
			raw:      `{"eventType":"state:transition","timestamp":"2026-03-01T10:00:00Z","from":"pending","to":"pending"}`,
			field:    "to",
			received: "pending",
		},
		{
			name:     "unknown lifecycle state",
			raw:      `{"eventType":"state:transition","timestamp":"2026-03-01T10:00:00Z","from":"pending","to":"ascended"}`,
			field:    "to",
			received: "ascended",
		},
		{
			name:     "graph payload wrong type",
			raw:      `{"eventType":"graph:update","timestamp":"2026-03-01T10:00:00Z","graph":"not-a-graph"}`,
			field:    "graph",
			received: "string",
		},
		{
			name: "graph with dangling edge",
			raw: `{"eventType":"graph:update","timestamp":"2026-03-01T10:00:00Z",
				"graph":{"nodes":[{"id":"coordinator","kind":"coordinator"}],
				"edges":[{"source":"coordinator","target":"ghost","kind":"assignment"}]}}`,
			field:    "graph.edges[0].target",
			received: "ghost",
		},
		{
			name: "graph with two coordinators",
			raw: `{"eventType":"graph:update","timestamp":"2026-03-01T10:00:00Z",
				"graph":{"nodes":[{"id":"a","kind":"coordinator"},{"id":"b","kind":"coordinator"}],"edges":[]}}`,
			field:    "graph.nodes",
			received: "2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, failure := Validate([]byte(tt.raw))
			require.NotNil(t, failure, "expected validation failure")
			require.True(t, failure.HasErrors())
			assert.Equal(t, Event{}, ev, "failed validation must not leak a partial event")

			found := false
			for _, fe := range failure.Errors {
				if fe.Field == tt.field && (tt.received == "" || fe.Received == tt.received) {
					found = true
					break
				}
			}
			assert.True(t, found, "no error on field %q with received %q in %v", tt.field, tt.received, failure.Errors)
		})
	}
}

func TestValidateCollectsAllOffendingFields(t *testing.T) {
	raw := `{"eventType":"agent:progress","timestamp":"whenever","agentId":"necromancer","progress":200}`
	_, failure := Validate([]byte(raw))
	require.NotNil(t, failure)

	fields := make(map[string]bool)
	for _, fe := range failure.Errors {
		fields[fe.Field] = true
	}
	assert.True(t, fields["timestamp"], "timestamp error missing: %v", failure.Errors)
	assert.True(t, fields["agentId"], "agentId error missing: %v", failure.Errors)
	assert.True(t, fields["progress"], "progress error missing: %v", failure.Errors)
}

func TestValidateFailureMessage(t *testing.T) {
	_, failure := Validate([]byte(`{"eventType":"agent:started","timestamp":"2026-03-01T10:00:00Z"}`))
	require.NotNil(t, failure)
	assert.Contains(t, failure.Error(), "agentId")
	assert.Contains(t, failure.Error(), "expected")
}

func TestValidateMapAcceptsNativeInts(t *testing.T) {
	ev, failure := ValidateMap(map[string]any{
		"eventType":   "agent:progress",
		"timestamp":   "2026-03-01T10:00:00Z",
		"agentId":     "pr",
		"progress":    55,
		"issueNumber": 12,
	})
	require.Nil(t, failure)
	assert.Equal(t, 55, ev.ProgressValue())
	assert.Equal(t, 12, ev.Issue())
}

func TestValidateExplicitGraphID(t *testing.T) {
	raw := `{"eventType":"graph:update","timestamp":"2026-03-01T10:00:00Z","graphId":"staging",
		"graph":{"nodes":[],"edges":[]}}`
	ev, failure := Validate([]byte(raw))
	require.Nil(t, failure)
	assert.Equal(t, "staging", ev.GraphID)
}
