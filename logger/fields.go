package logger

// Standard field names for consistent structured logging across HUD.
// Use these constants instead of raw strings to ensure consistency.
const (
	// Identity and context
	FieldEventID  = "event_id"
	FieldClientID = "client_id"
	FieldOrigin   = "origin"

	// Event stream
	FieldEventKind = "event_kind"
	FieldAgent     = "agent"
	FieldIssue     = "issue"
	FieldGraphID   = "graph_id"
	FieldSeq       = "seq"

	// Rate control
	FieldReason     = "reason"
	FieldRetryAfter = "retry_after_ms"
	FieldMerged     = "merged"

	// Layout
	FieldCollisions = "collisions"
	FieldIterations = "iterations"
	FieldDegraded   = "degraded"

	// Animation
	FieldEffect   = "effect"
	FieldPriority = "priority"

	// Timing
	FieldDurationMS = "duration_ms"

	// Errors
	FieldError = "error"

	// Counts and sizes
	FieldCount     = "count"
	FieldBatchSize = "batch_size"

	// Network
	FieldAddress = "address"
	FieldPort    = "port"
	FieldPath    = "path"

	// FieldSymbol carries the HUD subsystem symbol (⇉, ≋, ▦, ✦, ⇶, ⚙, ꩜)
	FieldSymbol = "symbol"
)
