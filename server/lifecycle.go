package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/teranos/HUD/errors"
)

// getState returns the current server state
func (s *HUDServer) getState() ServerState {
	return ServerState(s.state.Load())
}

// setState atomically updates the server state
func (s *HUDServer) setState(newState ServerState) {
	s.state.Store(int32(newState))
	s.logger.Infow("Server state changed", "new_state", stateString(newState))
}

// stateString returns human-readable state name
func stateString(state ServerState) string {
	switch state {
	case ServerStateRunning:
		return "running"
	case ServerStateDraining:
		return "draining"
	case ServerStateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// startBackgroundServices starts the pipeline workers and broadcasters.
func (s *HUDServer) startBackgroundServices() {
	s.logBatcher.Start()
	s.anim.Start()
	s.sweeper.Start()
	s.startSystemStatusTicker()
	s.startAgentStatusTicker()
}

// Start runs the server on the specified port. A port of 0 means the
// configured default. Blocks until the listener fails or Stop closes it.
func (s *HUDServer) Start(port int) error {
	if port == 0 {
		port = s.config().Server.Port
	}

	// Start the hub in a goroutine
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.Run()
	}()

	s.startBackgroundServices()

	actualPort, err := findAvailablePort(port)
	if err != nil {
		return errors.Wrap(err, "failed to find available port")
	}

	if actualPort != port {
		s.logger.Infow("Port in use, using alternative",
			"requested_port", port,
			"actual_port", actualPort,
		)
	}

	s.setupHTTPRoutes()

	// Prime the first snapshot so the earliest viewer has something to draw.
	s.RecomputeLayout()

	s.logger.Infow("Server ready",
		"url", fmt.Sprintf("http://localhost:%d", actualPort),
		"port", actualPort,
	)

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", actualPort),
		Handler: s.mux,
	}

	err = s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop gracefully shuts down the server and cleans up resources
func (s *HUDServer) Stop() error {
	s.logger.Infow("Initiating server shutdown")

	s.setState(ServerStateDraining)

	// Flush pending merged graph updates and stop the rate-control sweep
	// before touching clients, so nothing new enters the pipeline mid-drain.
	s.debouncer.Stop()
	s.sweeper.Stop()
	s.anim.Stop()

	if s.httpServer != nil {
		if err := s.httpServer.Close(); err != nil {
			s.logger.Warnw("HTTP server close failed", "error", err)
		}
	}

	// Close all client connections BEFORE cancelling context so
	// readPump/writePump exit cleanly before context cancellation.
	s.mu.Lock()
	clientsToClose := make([]*Client, 0, len(s.clients))
	for client := range s.clients {
		clientsToClose = append(clientsToClose, client)
		delete(s.clients, client)
	}
	s.mu.Unlock()

	if len(clientsToClose) > 0 {
		s.logger.Infow("Closing client connections", "count", len(clientsToClose))
		for _, client := range clientsToClose {
			s.logTransport.UnregisterClient(client.id)
			client.conn.Close() // Unblocks readPump
		}
	}

	// Cancel context to signal remaining server goroutines to stop
	if s.cancel != nil {
		s.cancel()
	}

	// Wait for goroutines with timeout
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Infow("All goroutines stopped cleanly")
	case <-time.After(ShutdownTimeout):
		s.logger.Warnw("Goroutine shutdown timed out, forcing exit",
			"timeout", ShutdownTimeout,
		)
	}

	// Log batcher last: goroutines above may still have been logging.
	s.logBatcher.Stop()

	if s.configWatcher != nil {
		if err := s.configWatcher.Stop(); err != nil {
			s.logger.Warnw("Failed to stop config watcher", "error", err)
		}
	}

	s.setState(ServerStateStopped)

	s.logger.Infow("Server shutdown complete",
		"broadcast_drops", s.broadcastDrops.Load(),
	)

	return nil
}
