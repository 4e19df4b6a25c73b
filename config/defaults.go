package config

import (
	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.allowed_origins", []string{
		"http://localhost",
		"https://localhost",
		"http://127.0.0.1",
		"https://127.0.0.1",
	})
	v.SetDefault("server.min_viewer_version", "")

	// Throttle defaults: minimum inter-arrival interval per event kind.
	// Early arrivals are shed, not queued.
	v.SetDefault("throttle.agent_progress_ms", 1000)     // 1/s per agent
	v.SetDefault("throttle.agent_started_ms", 500)       // 1/500ms per agent
	v.SetDefault("throttle.agent_completed_ms", 500)     // 1/500ms per agent
	v.SetDefault("throttle.agent_error_ms", 6000)        // 1/6s per agent
	v.SetDefault("throttle.coordinator_phase_ms", 12000) // 1/12s global
	v.SetDefault("throttle.state_transition_ms", 200)    // 1/200ms global
	v.SetDefault("throttle.graph_update_ms", 2000)       // 1/2s global
	v.SetDefault("throttle.task_discovered_ms", 500)     // 1/500ms global
	v.SetDefault("throttle.sweep_interval_seconds", 60)
	v.SetDefault("throttle.idle_evict_seconds", 300)

	// Limiter defaults: per-origin sliding window
	v.SetDefault("limiter.max_per_minute", 100)
	v.SetDefault("limiter.graph_refresh_seconds", 10)
	v.SetDefault("limiter.layout_recompute_seconds", 5)
	v.SetDefault("limiter.workflow_per_minute", 10)
	v.SetDefault("limiter.sweep_interval_seconds", 60)
	v.SetDefault("limiter.idle_evict_seconds", 300)

	// Debounce defaults
	v.SetDefault("debounce.window_ms", 500)

	// Layout defaults: column origins and pitches
	v.SetDefault("layout.issue_x", 100.0)
	v.SetDefault("layout.coordinator_x", 450.0)
	v.SetDefault("layout.specialist_x", 800.0)
	v.SetDefault("layout.state_x", 1200.0)
	v.SetDefault("layout.origin_y", 100.0)
	v.SetDefault("layout.row_height", 250.0)
	v.SetDefault("layout.col_width", 220.0)
	v.SetDefault("layout.block_height", 160.0)
	v.SetDefault("layout.state_height", 120.0)
	v.SetDefault("layout.node_width", 180.0)
	v.SetDefault("layout.node_height", 80.0)
	v.SetDefault("layout.gap", 20.0)
	v.SetDefault("layout.max_iterations", 16)

	// History defaults
	v.SetDefault("history.capacity", 1000)

	// Anim defaults: empty means use the embedded effect registry
	v.SetDefault("anim.definitions_path", "")
}

// BindSensitiveEnvVars explicitly binds deploy-specific configuration to
// environment variables so they never need to live in a config file.
func BindSensitiveEnvVars(v *viper.Viper) {
	v.BindEnv("server.port", "HUD_SERVER_PORT")
	v.BindEnv("server.allowed_origins", "HUD_SERVER_ALLOWED_ORIGINS")
}

// GetServerPort returns the configured server port.
// Returns server.port from config, or DefaultServerPort if not configured.
func GetServerPort() int {
	cfg, err := Load()
	if err != nil || cfg.Server.Port <= 0 {
		return DefaultServerPort
	}
	return cfg.Server.Port
}
