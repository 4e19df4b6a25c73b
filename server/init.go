package server

import (
	"context"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/teranos/HUD/anim"
	"github.com/teranos/HUD/config"
	"github.com/teranos/HUD/errors"
	"github.com/teranos/HUD/event"
	"github.com/teranos/HUD/flow"
	"github.com/teranos/HUD/graph"
	"github.com/teranos/HUD/history"
	"github.com/teranos/HUD/layout"
	"github.com/teranos/HUD/logger"
	"github.com/teranos/HUD/presence"
	"github.com/teranos/HUD/server/wslogs"
)

// NewHUDServer creates a HUD server from a loaded configuration.
func NewHUDServer(cfg *config.Config, verbosity int) (*HUDServer, error) {
	if cfg == nil {
		return nil, errors.New("configuration cannot be nil")
	}
	if verbosity < 0 || verbosity > 4 {
		return nil, errors.Newf("verbosity must be 0-4, got %d", verbosity)
	}

	serverLogger, wsCore, wsTransport, logBatcher := createHUDLogger(verbosity)

	defs, err := anim.LoadDefinitions(cfg.Anim.DefinitionsPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load effect definitions")
	}

	builder := graph.NewBuilder()
	builder.SetStates(stateNames())

	ctx, cancel := context.WithCancel(context.Background())

	s := &HUDServer{
		cfg:          cfg,
		builder:      builder,
		engine:       layout.New(cfg.Layout),
		throttle:     newThrottle(cfg),
		limiter:      newLimiter(cfg),
		tracker:      presence.NewTracker(),
		ring:         history.NewRing(cfg.History.Capacity),
		clients:      make(map[*Client]bool),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		logger:       serverLogger,
		logTransport: wsTransport,
		logBatcher:   logBatcher,
		wsCore:       wsCore,
		ctx:          ctx,
		cancel:       cancel,
	}
	s.verbosity.Store(int32(verbosity))
	s.state.Store(int32(ServerStateRunning))

	s.debouncer = flow.NewDebouncer(time.Duration(cfg.Debounce.WindowMs)*time.Millisecond, s.handleGraphFlush)
	s.anim = anim.NewCoordinator(anim.SinkFunc(s.playEffect), defs)
	s.sweeper = flow.NewSweeper(sweepInterval(cfg), s)

	setupConfigWatcher(s, serverLogger)

	return s, nil
}

// newThrottle builds the per-kind/per-agent throttle table from config.
func newThrottle(cfg *config.Config) *flow.Throttle {
	return flow.NewThrottle(cfg.Throttle)
}

// newLimiter builds the per-origin token-bucket table from config.
func newLimiter(cfg *config.Config) *flow.Limiter {
	return flow.NewLimiter(cfg.Limiter)
}

// SweepIdle lets the sweeper reach the current throttle and limiter
// even after a config reload has replaced them.
func (s *HUDServer) SweepIdle() int {
	s.pipelineMu.Lock()
	defer s.pipelineMu.Unlock()
	return s.throttle.SweepIdle() + s.limiter.SweepIdle()
}

// sweepInterval picks the tighter of the two configured sweep cadences.
func sweepInterval(cfg *config.Config) time.Duration {
	seconds := cfg.Throttle.SweepIntervalSeconds
	if cfg.Limiter.SweepIntervalSeconds > 0 && (seconds <= 0 || cfg.Limiter.SweepIntervalSeconds < seconds) {
		seconds = cfg.Limiter.SweepIntervalSeconds
	}
	if seconds <= 0 {
		seconds = 60
	}
	return time.Duration(seconds) * time.Second
}

// stateNames returns the workflow state machine's states as builder input.
func stateNames() []string {
	states := event.AllStates()
	names := make([]string, len(states))
	for i, st := range states {
		names[i] = string(st)
	}
	return names
}

// createHUDLogger creates a multi-output zap logger (console + WebSocket)
func createHUDLogger(verbosity int) (*zap.SugaredLogger, *wslogs.WebSocketCore, *wslogs.Transport, *wslogs.Batcher) {
	wsTransport := wslogs.NewTransport()
	batcher := wslogs.NewBatcher(wsTransport)
	wsCore := wslogs.NewWebSocketCore(logger.VerbosityToLevel(verbosity), batcher)

	core := zapcore.NewTee(
		logger.Logger.Desugar().Core(), // Existing console core
		wsCore,                         // WebSocket core for viewers
	)
	serverLogger := zap.New(core).Sugar().Named("hud")

	return serverLogger, wsCore, wsTransport, batcher
}

// setupConfigWatcher sets up config file watching with reload callbacks
func setupConfigWatcher(s *HUDServer, serverLogger *zap.SugaredLogger) {
	log := logger.AddConfigSymbol(serverLogger)

	configPath := config.GetViper().ConfigFileUsed()
	if configPath == "" {
		log.Infow("No config file found, using defaults (config watching disabled)")
		return
	}

	watcher, err := config.NewWatcher(configPath)
	if err != nil {
		log.Warnw("Failed to create config watcher, manual restart required for config changes",
			logger.FieldError, err.Error(),
		)
		return
	}

	s.configWatcher = watcher

	// Set global watcher to prevent reload loops
	config.SetGlobalWatcher(watcher)

	watcher.OnReload(func(newCfg *config.Config) error {
		log.Infow("Config reloaded, reapplying rate-control and layout settings",
			"path", configPath,
		)
		s.applyConfig(newCfg)
		s.RecomputeLayout()
		return nil
	})

	watcher.Start()
	log.Infow("Config watcher started", "path", configPath)
}
