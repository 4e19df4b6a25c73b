// Package presence tracks live agent activity for the dashboard
// roster. The tracker maintains an in-memory map of agent states,
// updated by the server as accepted events flow through the pipeline,
// plus the set of discovered issues so the coordinator can tell when a
// whole run has finished.
package presence

import (
	"sort"
	"sync"
	"time"

	"github.com/teranos/HUD/event"
)

// Activity is an agent's coarse dashboard state.
type Activity string

const (
	ActivityIdle    Activity = "idle"
	ActivityRunning Activity = "running"
	ActivityError   Activity = "error"
)

// AgentStatus is one agent's roster entry, as broadcast to viewers and
// served from the agents endpoint.
type AgentStatus struct {
	Agent        event.Role `json:"agent"`
	Activity     Activity   `json:"activity"`
	Progress     int        `json:"progress"`               // 0-100, last reported while running
	CurrentIssue int        `json:"current_issue,omitempty"`
	Started      int        `json:"started"`                // lifetime counters
	Completed    int        `json:"completed"`
	Errors       int        `json:"errors"`
	LastError    string     `json:"last_error,omitempty"`
	LastSeen     time.Time  `json:"last_seen"`
	FirstSeen    time.Time  `json:"first_seen"`
}

type agentState struct {
	activity     Activity
	progress     int
	currentIssue int
	started      int
	completed    int
	errorCount   int
	lastError    string
	firstSeen    time.Time
	lastSeen     time.Time
}

type issueState struct {
	title     string
	completed bool
}

// Tracker maintains the in-memory agent roster and issue set.
type Tracker struct {
	mu     sync.RWMutex
	agents map[event.Role]*agentState
	issues map[int]*issueState
	now    func() time.Time
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		agents: make(map[event.Role]*agentState),
		issues: make(map[int]*issueState),
		now:    time.Now,
	}
}

func (t *Tracker) agentLocked(role event.Role) *agentState {
	st, ok := t.agents[role]
	if !ok {
		st = &agentState{activity: ActivityIdle, firstSeen: t.now()}
		t.agents[role] = st
	}
	return st
}

// Record updates tracker state from an accepted event. Events that do
// not touch agent or issue state are ignored.
func (t *Tracker) Record(ev *event.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()

	switch ev.Kind {
	case event.KindTaskDiscovered:
		if n := ev.Issue(); n > 0 {
			if is, ok := t.issues[n]; ok {
				if ev.Title != "" {
					is.title = ev.Title
				}
			} else {
				t.issues[n] = &issueState{title: ev.Title}
			}
		}

	case event.KindAgentStarted:
		st := t.agentLocked(ev.AgentID)
		st.activity = ActivityRunning
		st.progress = 0
		st.currentIssue = ev.Issue()
		st.started++
		st.lastSeen = now

	case event.KindAgentProgress:
		st := t.agentLocked(ev.AgentID)
		st.activity = ActivityRunning
		st.progress = ev.ProgressValue()
		if n := ev.Issue(); n > 0 {
			st.currentIssue = n
		}
		st.lastSeen = now

	case event.KindAgentCompleted:
		st := t.agentLocked(ev.AgentID)
		st.activity = ActivityIdle
		st.progress = 100
		st.completed++
		st.lastSeen = now
		issue := ev.Issue()
		if issue == 0 {
			issue = st.currentIssue
		}
		if is, ok := t.issues[issue]; ok {
			is.completed = true
		}
		st.currentIssue = 0

	case event.KindAgentError:
		st := t.agentLocked(ev.AgentID)
		st.activity = ActivityError
		st.errorCount++
		st.lastError = ev.Error
		st.lastSeen = now
	}
}

// Get returns one agent's status. The second return is false when the
// agent has never been seen.
func (t *Tracker) Get(role event.Role) (AgentStatus, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	st, ok := t.agents[role]
	if !ok {
		return AgentStatus{}, false
	}
	return statusOf(role, st), true
}

// Roster returns every tracked agent's status, sorted by role for
// stable output.
func (t *Tracker) Roster() []AgentStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()

	roster := make([]AgentStatus, 0, len(t.agents))
	for role, st := range t.agents {
		roster = append(roster, statusOf(role, st))
	}
	sort.Slice(roster, func(i, j int) bool {
		return roster[i].Agent < roster[j].Agent
	})
	return roster
}

func statusOf(role event.Role, st *agentState) AgentStatus {
	return AgentStatus{
		Agent:        role,
		Activity:     st.activity,
		Progress:     st.progress,
		CurrentIssue: st.currentIssue,
		Started:      st.started,
		Completed:    st.completed,
		Errors:       st.errorCount,
		LastError:    st.lastError,
		LastSeen:     st.lastSeen,
		FirstSeen:    st.firstSeen,
	}
}

// Issues returns the discovered issue numbers in ascending order.
func (t *Tracker) Issues() []int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	nums := make([]int, 0, len(t.issues))
	for n := range t.issues {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums
}

// IssueTitle returns the recorded title for an issue, or "".
func (t *Tracker) IssueTitle(number int) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if is, ok := t.issues[number]; ok {
		return is.title
	}
	return ""
}

// AllIssuesCompleted reports whether at least one issue is known and
// every known issue has completed. The animation coordinator uses this
// to decide when a completion deserves the celebration effect.
func (t *Tracker) AllIssuesCompleted() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if len(t.issues) == 0 {
		return false
	}
	for _, is := range t.issues {
		if !is.completed {
			return false
		}
	}
	return true
}

// Reset drops all tracked state. Intended for tests.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.agents = make(map[event.Role]*agentState)
	t.issues = make(map[int]*issueState)
}
