package event

// Kind discriminates the ten inbound event shapes. The discriminant
// fully determines which additional fields are required or allowed.
type Kind string

const (
	KindGraphUpdate            Kind = "graph:update"
	KindAgentStarted           Kind = "agent:started"
	KindAgentProgress          Kind = "agent:progress"
	KindAgentCompleted         Kind = "agent:completed"
	KindAgentError             Kind = "agent:error"
	KindStateTransition        Kind = "state:transition"
	KindTaskDiscovered         Kind = "task:discovered"
	KindCoordinatorAnalyzing   Kind = "coordinator:analyzing"
	KindCoordinatorDecomposing Kind = "coordinator:decomposing"
	KindCoordinatorAssigning   Kind = "coordinator:assigning"
)

// AllKinds returns the event kinds in declaration order.
func AllKinds() []Kind {
	return []Kind{
		KindGraphUpdate,
		KindAgentStarted,
		KindAgentProgress,
		KindAgentCompleted,
		KindAgentError,
		KindStateTransition,
		KindTaskDiscovered,
		KindCoordinatorAnalyzing,
		KindCoordinatorDecomposing,
		KindCoordinatorAssigning,
	}
}

// IsValid reports whether k names a known event kind.
func (k Kind) IsValid() bool {
	switch k {
	case KindGraphUpdate, KindAgentStarted, KindAgentProgress,
		KindAgentCompleted, KindAgentError, KindStateTransition,
		KindTaskDiscovered, KindCoordinatorAnalyzing,
		KindCoordinatorDecomposing, KindCoordinatorAssigning:
		return true
	}
	return false
}

// AgentScoped reports whether the kind's rate-control key includes the
// agent id. Agent lifecycle events throttle per agent; everything else
// throttles globally.
func (k Kind) AgentScoped() bool {
	switch k {
	case KindAgentStarted, KindAgentProgress, KindAgentCompleted, KindAgentError:
		return true
	}
	return false
}

// CoordinatorPhase reports whether the kind is one of the three
// coordinator phase announcements, which share a single global
// throttle key.
func (k Kind) CoordinatorPhase() bool {
	switch k {
	case KindCoordinatorAnalyzing, KindCoordinatorDecomposing, KindCoordinatorAssigning:
		return true
	}
	return false
}

// Role identifies one of the seven agent roles the orchestrator runs.
type Role string

const (
	RoleCoordinator Role = "coordinator"
	RoleCodegen     Role = "codegen"
	RoleReview      Role = "review"
	RoleIssue       Role = "issue"
	RolePR          Role = "pr"
	RoleDeployment  Role = "deployment"
	RoleTest        Role = "test"
)

// AllRoles returns the seven roles in roster order.
func AllRoles() []Role {
	return []Role{
		RoleCoordinator,
		RoleCodegen,
		RoleReview,
		RoleIssue,
		RolePR,
		RoleDeployment,
		RoleTest,
	}
}

// SpecialistRoles returns the roster without the coordinator, in
// display order. These become the specialist column on the dashboard.
func SpecialistRoles() []Role {
	return []Role{
		RoleCodegen,
		RoleReview,
		RoleIssue,
		RolePR,
		RoleDeployment,
		RoleTest,
	}
}

// IsValid reports whether r is one of the seven known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleCoordinator, RoleCodegen, RoleReview, RoleIssue,
		RolePR, RoleDeployment, RoleTest:
		return true
	}
	return false
}

// Label returns the display name for a role.
func (r Role) Label() string {
	switch r {
	case RoleCoordinator:
		return "Coordinator"
	case RoleCodegen:
		return "Codegen"
	case RoleReview:
		return "Review"
	case RoleIssue:
		return "Issue"
	case RolePR:
		return "PR"
	case RoleDeployment:
		return "Deployment"
	case RoleTest:
		return "Test"
	}
	return string(r)
}

// State is one of the four task lifecycle states.
type State string

const (
	StatePending    State = "pending"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// AllStates returns the lifecycle states in display order.
func AllStates() []State {
	return []State{StatePending, StateInProgress, StateCompleted, StateFailed}
}

// IsValid reports whether s is a known lifecycle state.
func (s State) IsValid() bool {
	switch s {
	case StatePending, StateInProgress, StateCompleted, StateFailed:
		return true
	}
	return false
}
