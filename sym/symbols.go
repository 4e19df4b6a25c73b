// Package sym defines canonical symbols for HUD subsystems and system markers.
// These symbols are stable across UI, CLI, and log output: every structured
// log line carries one so operators can scan interleaved output by subsystem.
package sym

// Subsystem symbols — one per pipeline stage plus the surrounding machinery.
const (
	// Ingest marks event intake and validation.
	Ingest = "⇉"

	// Flow marks rate control (throttle, limiter, debounce).
	Flow = "≋"

	// Layout marks the layout engine.
	Layout = "▦"

	// Anim marks the animation coordinator.
	Anim = "✦"

	// Hub marks the viewer hub (WebSocket fan-out).
	Hub = "⇶"

	// Config marks configuration load/reload.
	Config = "⚙"

	// Pulse marks timer-driven work (debounce flushes, table sweeps).
	Pulse = "꩜"
)

// Names maps each symbol to its subsystem name, for UIs that need a legend.
var Names = map[string]string{
	Ingest: "ingest",
	Flow:   "flow",
	Layout: "layout",
	Anim:   "anim",
	Hub:    "hub",
	Config: "config",
	Pulse:  "pulse",
}

// Name returns the subsystem name for a symbol, or "" if unknown.
func Name(symbol string) string {
	return Names[symbol]
}
