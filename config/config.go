// Package config owns the HUD configuration: typed sections, defaults,
// file discovery and merge, env binding, persistence, and hot reload.
package config

// Config represents the core HUD configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Throttle ThrottleConfig `mapstructure:"throttle"`
	Limiter  LimiterConfig  `mapstructure:"limiter"`
	Debounce DebounceConfig `mapstructure:"debounce"`
	Layout   LayoutConfig   `mapstructure:"layout"`
	History  HistoryConfig  `mapstructure:"history"`
	Anim     AnimConfig     `mapstructure:"anim"`
}

// ServerConfig configures the HUD web server
type ServerConfig struct {
	Port             int      `mapstructure:"port"`               // 0 = default port
	AllowedOrigins   []string `mapstructure:"allowed_origins"`    // WebSocket origin allowlist (prefix match)
	MinViewerVersion string   `mapstructure:"min_viewer_version"` // semver constraint for viewer hellos, "" = accept all
}

// Server port constants
const (
	DefaultServerPort = 9777 // Dashboard port (above privileged range)
	FallbackPortSpan  = 10   // How many consecutive ports to probe when the default is taken
)

// ThrottleConfig sets the minimum inter-arrival interval per event kind.
// Agent-scoped kinds are keyed per agent; the rest share one global key.
// Values are milliseconds; 0 falls back to the default for that kind.
type ThrottleConfig struct {
	AgentProgressMs    int `mapstructure:"agent_progress_ms"`    // per agent (default: 1000)
	AgentStartedMs     int `mapstructure:"agent_started_ms"`     // per agent (default: 500)
	AgentCompletedMs   int `mapstructure:"agent_completed_ms"`   // per agent (default: 500)
	AgentErrorMs       int `mapstructure:"agent_error_ms"`       // per agent (default: 6000)
	CoordinatorPhaseMs int `mapstructure:"coordinator_phase_ms"` // global, shared by the three phases (default: 12000)
	StateTransitionMs  int `mapstructure:"state_transition_ms"`  // global (default: 200)
	GraphUpdateMs      int `mapstructure:"graph_update_ms"`      // global (default: 2000)
	TaskDiscoveredMs   int `mapstructure:"task_discovered_ms"`   // global (default: 500)

	SweepIntervalSeconds int `mapstructure:"sweep_interval_seconds"` // idle-key sweep cadence (default: 60)
	IdleEvictSeconds     int `mapstructure:"idle_evict_seconds"`     // evict keys idle this long (default: 300)
}

// LimiterConfig configures the per-origin sliding-window limiter.
type LimiterConfig struct {
	MaxPerMinute           int `mapstructure:"max_per_minute"`           // default origin budget (default: 100)
	GraphRefreshSeconds    int `mapstructure:"graph_refresh_seconds"`    // one refresh per origin per N seconds (default: 10)
	LayoutRecomputeSeconds int `mapstructure:"layout_recompute_seconds"` // one recompute per origin per N seconds (default: 5)
	WorkflowPerMinute      int `mapstructure:"workflow_per_minute"`      // workflow triggers per origin per minute (default: 10)

	SweepIntervalSeconds int `mapstructure:"sweep_interval_seconds"` // stale-window sweep cadence (default: 60)
	IdleEvictSeconds     int `mapstructure:"idle_evict_seconds"`     // evict origins idle this long (default: 300)
}

// DebounceConfig configures graph-update aggregation.
type DebounceConfig struct {
	WindowMs int `mapstructure:"window_ms"` // quiet window per logical graph (default: 500)
}

// LayoutConfig holds every placement constant. Placement logic never
// hardcodes geometry; changing these must not require touching the engine.
type LayoutConfig struct {
	IssueX       float64 `mapstructure:"issue_x"`       // issue column (default: 100)
	CoordinatorX float64 `mapstructure:"coordinator_x"` // coordinator column (default: 450)
	SpecialistX  float64 `mapstructure:"specialist_x"`  // specialist block left edge (default: 800)
	StateX       float64 `mapstructure:"state_x"`       // state column (default: 1200)
	OriginY      float64 `mapstructure:"origin_y"`      // top margin shared by all kinds (default: 100)

	RowHeight   float64 `mapstructure:"row_height"`   // issue row pitch (default: 250)
	ColWidth    float64 `mapstructure:"col_width"`    // specialist column pitch (default: 220)
	BlockHeight float64 `mapstructure:"block_height"` // specialist row pitch (default: 160)
	StateHeight float64 `mapstructure:"state_height"` // state row pitch (default: 120)

	NodeWidth  float64 `mapstructure:"node_width"`  // bounding-box width (default: 180)
	NodeHeight float64 `mapstructure:"node_height"` // bounding-box height (default: 80)
	Gap        float64 `mapstructure:"gap"`         // clearance added when separating collisions (default: 20)

	MaxIterations int `mapstructure:"max_iterations"` // collision-resolution bound (default: 16)
}

// HistoryConfig bounds the in-memory event ring buffer.
type HistoryConfig struct {
	Capacity int `mapstructure:"capacity"` // most-recent events retained (default: 1000)
}

// AnimConfig configures the animation coordinator.
type AnimConfig struct {
	DefinitionsPath string `mapstructure:"definitions_path"` // optional TOML override of the embedded effect registry
}

// File system constants
const (
	DefaultDirPermissions  = 0755 // Standard directory permissions (rwxr-xr-x)
	DefaultFilePermissions = 0644 // Standard file permissions (rw-r--r--)
)
