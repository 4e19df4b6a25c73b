package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/HUD/cmd/hud/commands"
	"github.com/teranos/HUD/logger"
)

var rootCmd = &cobra.Command{
	Use:   "hud",
	Short: "HUD - Real-time multi-agent execution dashboard engine",
	Long: `HUD - Real-time execution dashboard for multi-agent orchestration.

HUD accepts orchestration events over HTTP, validates and rate-controls
them, maintains a deterministic dashboard layout, and streams snapshots,
animation effects, and agent status to WebSocket viewers.

Available commands:
  server - Start the dashboard server
  replay - Feed a YAML event script to a running server
  config - Manage HUD configuration
  version - Show version information

Examples:
  hud server                       # Start the dashboard server
  hud server --port 9800           # Start on a specific port
  hud replay demo.yaml             # Replay an event script
  hud config show                  # Show current configuration
  hud config set limiter.max_per_minute 200`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		if err := logger.InitializeAtLevel(false, logger.VerbosityToLevel(verbosity)); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")

	rootCmd.AddCommand(commands.ServerCmd)
	rootCmd.AddCommand(commands.ReplayCmd)
	rootCmd.AddCommand(commands.ConfigCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
