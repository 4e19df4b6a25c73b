package commands

import (
	"fmt"

	"github.com/teranos/HUD/logger"
	"github.com/teranos/HUD/sym"
	"github.com/teranos/HUD/version"
)

// printStartupBanner prints the user-friendly startup message
func printStartupBanner(verbosity int, port int) {
	// ANSI escape codes
	cyan := "\033[36m"
	green := "\033[32m"
	yellow := "\033[33m"
	blue := "\033[34m"
	magenta := "\033[35m"
	bold := "\033[1m"
	reset := "\033[0m"

	versionInfo := version.Get()

	fmt.Printf("\n%s%s", cyan, bold)
	fmt.Printf("   ╔═══════════════════════════════════════════╗\n")
	fmt.Printf("   ║                                           ║\n")
	fmt.Printf("   ║      ██   ██ ██    ██ ██████              ║\n")
	fmt.Printf("   ║      ██   ██ ██    ██ ██   ██             ║\n")
	fmt.Printf("   ║      ███████ ██    ██ ██   ██             ║\n")
	fmt.Printf("   ║      ██   ██ ██    ██ ██   ██             ║\n")
	fmt.Printf("   ║      ██   ██  ██████  ██████              ║\n")
	fmt.Printf("   ║                                           ║\n")
	fmt.Printf("   ║   %s%s%s Ingest  %s%s%s Layout  %s%s%s Anim  %s%s%s Hub     ║\n",
		blue, sym.Ingest, reset+cyan+bold,
		yellow, sym.Layout, reset+cyan+bold,
		magenta, sym.Anim, reset+cyan+bold,
		green, sym.Hub, reset+cyan+bold)
	fmt.Printf("   ║                                           ║\n")
	fmt.Printf("   ╚═══════════════════════════════════════════╝%s\n\n", reset)

	fmt.Printf("%s%s┌─ HUD Info ──────────────────────────────────────────┐%s\n", green, bold, reset)
	fmt.Printf("%s│%s Version:   %s (commit %s)\n", green, reset, versionInfo.Version, versionInfo.Short())
	fmt.Printf("%s│%s Built:     %s\n", green, reset, versionInfo.BuildTime)
	fmt.Printf("%s│%s Verbosity: %s\n", green, reset, logger.LevelName(verbosity))
	fmt.Printf("%s│%s Port:      %d\n", green, reset, port)
	fmt.Printf("%s└─────────────────────────────────────────────────────┘%s\n", green, reset)

	fmt.Printf("\n%s%s✨ POST events to /api/events, watch them land at /ws%s\n", yellow, bold, reset)
	fmt.Printf("%s💡 Press Ctrl+C to stop%s\n\n", blue, reset)
}
