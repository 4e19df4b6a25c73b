package commands

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teranos/HUD/errors"
)

// ReplayCmd feeds a YAML event script to a running HUD server
var ReplayCmd = &cobra.Command{
	Use:   "replay <script.yaml>",
	Short: "Replay a YAML event script against a running server",
	Long: `Feed a scripted event sequence to a running HUD server over HTTP.

The script is a YAML list of steps, each with a millisecond offset from
replay start and an event payload:

  - at_ms: 0
    event:
      eventType: "task:discovered"
      issueNumber: 42
      title: "Fix login bug"
  - at_ms: 1500
    event:
      eventType: "agent:started"
      agentId: "codegen"
      issueNumber: 42

Events missing a timestamp are stamped with the wall clock at send time.
Useful for demos and for soaking the throttle and limiter tables.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

var (
	replayServer string
	replaySpeed  float64
)

func init() {
	ReplayCmd.Flags().StringVar(&replayServer, "server", "http://localhost:9777", "Base URL of the running HUD server")
	ReplayCmd.Flags().Float64Var(&replaySpeed, "speed", 1.0, "Playback speed multiplier (2.0 = twice as fast)")
}

// replayStep is one scripted event with its offset from replay start.
type replayStep struct {
	AtMs  int                    `yaml:"at_ms"`
	Event map[string]interface{} `yaml:"event"`
}

func runReplay(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return errors.Wrap(err, "failed to read script")
	}

	var steps []replayStep
	if err := yaml.Unmarshal(data, &steps); err != nil {
		return errors.Wrap(err, "failed to parse script")
	}
	if len(steps) == 0 {
		return errors.New("script contains no steps")
	}
	if replaySpeed <= 0 {
		return errors.Newf("speed must be positive, got %g", replaySpeed)
	}

	pterm.Info.Printf("Replaying %d events against %s (speed %gx)\n", len(steps), replayServer, replaySpeed)

	progress, _ := pterm.DefaultProgressbar.WithTotal(len(steps)).WithTitle("Replaying").Start()

	client := &http.Client{Timeout: 10 * time.Second}
	start := time.Now()
	accepted, rejected := 0, 0

	for i, step := range steps {
		due := time.Duration(float64(step.AtMs)/replaySpeed) * time.Millisecond
		if wait := due - time.Since(start); wait > 0 {
			time.Sleep(wait)
		}

		status, body, err := postEvent(client, step.Event)
		if err != nil {
			progress.Stop()
			return errors.Wrapf(err, "step %d failed", i)
		}

		if status == http.StatusAccepted {
			accepted++
		} else {
			rejected++
			pterm.Warning.Printf("step %d rejected (%d): %s\n", i, status, body)
		}
		progress.Increment()
	}

	progress.Stop()

	pterm.Success.Printf("Replay complete: %d accepted, %d rejected in %s\n",
		accepted, rejected, time.Since(start).Round(time.Millisecond))
	return nil
}

// postEvent stamps and submits one scripted event. The response body is
// returned for rejection reporting.
func postEvent(client *http.Client, event map[string]interface{}) (int, string, error) {
	if _, ok := event["timestamp"]; !ok {
		event["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return 0, "", errors.Wrap(err, "failed to encode event")
	}

	resp, err := client.Post(replayServer+"/api/events", "application/json", bytes.NewReader(payload))
	if err != nil {
		return 0, "", errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return resp.StatusCode, string(bytes.TrimSpace(body)), nil
}
