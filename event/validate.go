package event

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/teranos/HUD/graph"
)

// FieldError describes a single offending field: which field, what the
// validator expected, and what the payload actually carried.
type FieldError struct {
	Field    string `json:"field"`
	Expected string `json:"expected"`
	Received string `json:"received"`
}

// ValidationFailure is the discriminated failure value returned by
// Validate. It satisfies error for logging convenience, but callers
// branch on the value itself rather than unwrapping error chains.
type ValidationFailure struct {
	Errors []FieldError `json:"errors"`
}

// Error formats the failure as a semicolon-separated field list.
func (f *ValidationFailure) Error() string {
	parts := make([]string, len(f.Errors))
	for i, fe := range f.Errors {
		parts[i] = fmt.Sprintf("%s: expected %s, received %s", fe.Field, fe.Expected, fe.Received)
	}
	return "invalid event: " + strings.Join(parts, "; ")
}

// HasErrors reports whether any field failed.
func (f *ValidationFailure) HasErrors() bool {
	return len(f.Errors) > 0
}

func (f *ValidationFailure) add(field, expected, received string) {
	f.Errors = append(f.Errors, FieldError{Field: field, Expected: expected, Received: received})
}

// fieldRule is the per-kind required/optional field table. Fields not
// listed (beyond eventType and timestamp) are disallowed for that kind.
type fieldRule struct {
	required []string
	optional []string
}

var kindFields = map[Kind]fieldRule{
	KindGraphUpdate:            {required: []string{"graph"}, optional: []string{"graphId"}},
	KindAgentStarted:           {required: []string{"agentId"}, optional: []string{"issueNumber", "task"}},
	KindAgentProgress:          {required: []string{"agentId", "progress"}, optional: []string{"issueNumber", "message"}},
	KindAgentCompleted:         {required: []string{"agentId"}, optional: []string{"issueNumber", "result"}},
	KindAgentError:             {required: []string{"agentId", "error"}, optional: []string{"issueNumber"}},
	KindStateTransition:        {required: []string{"from", "to"}, optional: []string{"issueNumber"}},
	KindTaskDiscovered:         {required: []string{"issueNumber"}, optional: []string{"title"}},
	KindCoordinatorAnalyzing:   {required: []string{"issueNumber"}, optional: []string{"summary"}},
	KindCoordinatorDecomposing: {required: []string{"issueNumber"}, optional: []string{"subtaskCount"}},
	KindCoordinatorAssigning:   {required: []string{"issueNumber"}, optional: []string{"agentId"}},
}

// baseFields are accepted on every kind.
var baseFields = map[string]bool{
	"eventType": true,
	"timestamp": true,
}

// Validate decodes a raw JSON payload and verifies it against the
// event schema. On success it returns the fully-typed event; on
// failure it returns a ValidationFailure carrying one entry per
// offending field. The zero Event accompanies a failure.
func Validate(raw []byte) (Event, *ValidationFailure) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		f := &ValidationFailure{}
		f.add("payload", "JSON object", "unparsable JSON")
		return Event{}, f
	}
	return ValidateMap(payload)
}

// ValidateMap verifies an already-decoded payload. Numeric values may
// be json.Number, float64, or int; integer fields reject fractional
// values either way.
//
// Validation runs in two tiers: base fields shared by every kind
// (discriminant, timestamp, and the constrained agentId / progress /
// issueNumber fields when present), then the discriminant-specific
// required and disallowed field sets. All offending fields are
// collected; the validator does not stop at the first problem unless
// the discriminant itself is unusable.
func ValidateMap(payload map[string]any) (Event, *ValidationFailure) {
	f := &ValidationFailure{}
	var ev Event

	kind, ok := discriminant(payload, f)
	if !ok {
		return Event{}, f
	}
	ev.Kind = kind

	if ts, ok := parseTimestamp(payload, f); ok {
		ev.Timestamp = ts
	}

	rule := kindFields[kind]
	allowed := make(map[string]bool, len(rule.required)+len(rule.optional)+len(baseFields))
	for name := range baseFields {
		allowed[name] = true
	}
	for _, name := range rule.required {
		allowed[name] = true
		if _, present := payload[name]; !present {
			f.add(name, "required for "+string(kind), "missing")
		}
	}
	for _, name := range rule.optional {
		allowed[name] = true
	}

	// Disallowed fields, reported in sorted order so failures are
	// stable across runs.
	var extras []string
	for name := range payload {
		if !allowed[name] {
			extras = append(extras, name)
		}
	}
	sort.Strings(extras)
	for _, name := range extras {
		f.add(name, "omitted for "+string(kind), "present")
	}

	// Constraint checks and typed extraction for every allowed field
	// that is present.
	if v, present := payload["agentId"]; present && allowed["agentId"] {
		if role, ok := parseRole(v, f); ok {
			ev.AgentID = role
		}
	}
	if v, present := payload["progress"]; present && allowed["progress"] {
		if n, ok := parseIntField("progress", v, 0, 100, f); ok {
			ev.Progress = &n
		}
	}
	if v, present := payload["issueNumber"]; present && allowed["issueNumber"] {
		if n, ok := parseIntField("issueNumber", v, 1, math.MaxInt32, f); ok {
			ev.IssueNumber = &n
		}
	}
	if v, present := payload["subtaskCount"]; present && allowed["subtaskCount"] {
		if n, ok := parseIntField("subtaskCount", v, 0, math.MaxInt32, f); ok {
			ev.SubtaskCount = &n
		}
	}

	ev.Task = parseStringField("task", payload, allowed, f)
	ev.Message = parseStringField("message", payload, allowed, f)
	ev.Result = parseStringField("result", payload, allowed, f)
	ev.Error = parseStringField("error", payload, allowed, f)
	ev.Title = parseStringField("title", payload, allowed, f)
	ev.Summary = parseStringField("summary", payload, allowed, f)

	if kind == KindStateTransition {
		from := parseState("from", payload, f)
		to := parseState("to", payload, f)
		if from != "" && to != "" && from == to {
			f.add("to", "state different from \"from\"", string(to))
		}
		ev.From = from
		ev.To = to
	}

	if kind == KindGraphUpdate {
		ev.GraphID = parseStringField("graphId", payload, allowed, f)
		if ev.GraphID == "" {
			ev.GraphID = DefaultGraphID
		}
		if v, present := payload["graph"]; present {
			ev.Graph = parseGraph(v, f)
		}
	}

	if f.HasErrors() {
		return Event{}, f
	}
	return ev, nil
}

func discriminant(payload map[string]any, f *ValidationFailure) (Kind, bool) {
	v, present := payload["eventType"]
	if !present {
		f.add("eventType", "known event kind", "missing")
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		f.add("eventType", "known event kind", jsonTypeName(v))
		return "", false
	}
	kind := Kind(s)
	if !kind.IsValid() {
		f.add("eventType", "known event kind", s)
		return "", false
	}
	return kind, true
}

func parseTimestamp(payload map[string]any, f *ValidationFailure) (time.Time, bool) {
	v, present := payload["timestamp"]
	if !present {
		f.add("timestamp", "RFC 3339 timestamp", "missing")
		return time.Time{}, false
	}
	s, ok := v.(string)
	if !ok {
		f.add("timestamp", "RFC 3339 timestamp", jsonTypeName(v))
		return time.Time{}, false
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		f.add("timestamp", "RFC 3339 timestamp", s)
		return time.Time{}, false
	}
	return ts, true
}

func parseRole(v any, f *ValidationFailure) (Role, bool) {
	s, ok := v.(string)
	if !ok {
		f.add("agentId", "one of the 7 agent roles", jsonTypeName(v))
		return "", false
	}
	role := Role(s)
	if !role.IsValid() {
		f.add("agentId", "one of the 7 agent roles", s)
		return "", false
	}
	return role, true
}

func parseIntField(name string, v any, min, max int, f *ValidationFailure) (int, bool) {
	n, ok := intFromAny(v)
	if !ok {
		f.add(name, "integer", jsonTypeName(v))
		return 0, false
	}
	if n < min || n > max {
		expected := fmt.Sprintf("integer >= %d", min)
		if max < math.MaxInt32 {
			expected = fmt.Sprintf("integer between %d and %d", min, max)
		}
		f.add(name, expected, fmt.Sprintf("%d", n))
		return 0, false
	}
	return n, true
}

func parseStringField(name string, payload map[string]any, allowed map[string]bool, f *ValidationFailure) string {
	v, present := payload[name]
	if !present || !allowed[name] {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		f.add(name, "string", jsonTypeName(v))
		return ""
	}
	return s
}

func parseState(name string, payload map[string]any, f *ValidationFailure) State {
	v, present := payload[name]
	if !present {
		return "" // missing already reported by the required-field pass
	}
	s, ok := v.(string)
	if !ok {
		f.add(name, "one of the 4 lifecycle states", jsonTypeName(v))
		return ""
	}
	st := State(s)
	if !st.IsValid() {
		f.add(name, "one of the 4 lifecycle states", s)
		return ""
	}
	return st
}

// parseGraph decodes the graph payload through a JSON round trip and
// runs the structural graph checks, mapping each violation onto the
// offending path under "graph.".
func parseGraph(v any, f *ValidationFailure) *graph.Graph {
	if _, ok := v.(map[string]any); !ok {
		f.add("graph", "object with nodes and edges", jsonTypeName(v))
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		f.add("graph", "object with nodes and edges", "unencodable payload")
		return nil
	}
	var g graph.Graph
	if err := json.Unmarshal(data, &g); err != nil {
		f.add("graph", "object with nodes and edges", "mismatched field types")
		return nil
	}
	for _, violation := range g.Validate() {
		f.add("graph."+violation.Path, violation.Expected, violation.Got)
	}
	if g.Nodes == nil {
		g.Nodes = []graph.Node{}
	}
	if g.Edges == nil {
		g.Edges = []graph.Edge{}
	}
	return &g
}

// intFromAny coerces the numeric representations that reach us from
// JSON decoding paths. Fractional values never pass.
func intFromAny(v any) (int, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	case float64:
		if math.Trunc(n) != n || math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	}
	return 0, false
}

// jsonTypeName names a decoded JSON value's type the way a payload
// author would recognize it.
func jsonTypeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case json.Number, float64, int, int64:
		return "number"
	case bool:
		return "boolean"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	}
	return fmt.Sprintf("%T", v)
}
