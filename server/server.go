// Package server hosts the HUD pipeline: it accepts events over HTTP,
// runs them through validation and rate control, rebuilds and lays out
// the dashboard graph, and fans snapshots, effects, and status messages
// out to WebSocket viewers.
package server

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/HUD/anim"
	"github.com/teranos/HUD/config"
	"github.com/teranos/HUD/flow"
	"github.com/teranos/HUD/graph"
	"github.com/teranos/HUD/history"
	"github.com/teranos/HUD/layout"
	"github.com/teranos/HUD/logger"
	"github.com/teranos/HUD/presence"
	"github.com/teranos/HUD/server/wslogs"
	"github.com/teranos/HUD/version"
)

// HUDServer owns the full event pipeline and the viewer hub.
type HUDServer struct {
	cfg   *config.Config
	cfgMu sync.RWMutex

	// Pipeline stages. pipelineMu linearizes ingest: submission order
	// is processing order, and the builder/engine pair is only touched
	// under it.
	pipelineMu sync.Mutex
	builder    *graph.Builder
	engine     *layout.Engine
	throttle   *flow.Throttle
	limiter    *flow.Limiter
	debouncer  *flow.Debouncer
	sweeper    *flow.Sweeper
	tracker    *presence.Tracker
	ring       *history.Ring
	anim       *anim.Coordinator
	eventSeq   atomic.Uint64
	effectSeq  atomic.Uint64

	// Viewer hub
	clients      map[*Client]bool
	register     chan *Client
	unregister   chan *Client
	mu           sync.RWMutex
	lastSnapshot *SnapshotMessage // cached for reconnecting clients
	lastRoster   []presence.AgentStatus
	lastStatus   *SystemStatusMessage

	verbosity atomic.Int32

	logger       *zap.SugaredLogger
	logTransport *wslogs.Transport
	logBatcher   *wslogs.Batcher
	wsCore       *wslogs.WebSocketCore

	configWatcher *config.Watcher
	httpServer    *http.Server
	mux           *http.ServeMux

	// Lifecycle
	ctx            context.Context
	cancel         context.CancelFunc
	wg             sync.WaitGroup
	broadcastDrops atomic.Int64
	state          atomic.Int32
}

// handleClientRegister admits a new viewer, sends the connect sequence
// (version, system status, cached snapshot), and hooks up the log stream.
func (s *HUDServer) handleClientRegister(client *Client) {
	s.mu.Lock()
	if len(s.clients) >= MaxClients {
		s.mu.Unlock()
		s.logger.Warnw("Max clients reached, rejecting connection",
			logger.FieldClientID, client.id,
			"max_clients", MaxClients,
		)
		client.close()
		return
	}
	s.clients[client] = true
	totalClients := len(s.clients)
	snapshot := s.lastSnapshot
	s.mu.Unlock()

	s.logTransport.RegisterClient(client.id, client.sendLog)

	s.logger.Infow("Client connected",
		logger.FieldClientID, client.id,
		"total_clients", totalClients,
	)

	// Connect sequence: version, system status, then the full snapshot
	// so reconnecting viewers resume from complete state.
	client.queue(s.versionMessage())
	client.queue(s.systemStatusMessage())
	if snapshot != nil {
		client.queue(snapshot)
	}
}

// handleClientUnregister removes a disconnected viewer.
func (s *HUDServer) handleClientUnregister(client *Client) {
	s.mu.Lock()
	if _, ok := s.clients[client]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.clients, client)
	totalClients := len(s.clients)
	s.mu.Unlock()

	s.logTransport.UnregisterClient(client.id)
	client.close()

	s.logger.Infow("Client disconnected",
		logger.FieldClientID, client.id,
		"total_clients", totalClients,
	)
}

// broadcastMessage sends a message to all connected clients. A client
// whose queue is full misses this message rather than blocking the hub.
// Returns the number of clients that accepted it.
func (s *HUDServer) broadcastMessage(msg interface{}) int {
	s.mu.RLock()
	clients := make([]*Client, 0, len(s.clients))
	for client := range s.clients {
		clients = append(clients, client)
	}
	s.mu.RUnlock()

	sent := 0
	for _, client := range clients {
		if client.queue(msg) {
			sent++
		}
	}
	return sent
}

// clientCount reports the current number of connected viewers.
func (s *HUDServer) clientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Run is the hub event loop: it serializes client registration and
// removal so the clients map has a single writer.
func (s *HUDServer) Run() {
	log := logger.AddHubSymbol(s.logger)
	for {
		select {
		case <-s.ctx.Done():
			log.Debugw("Hub stopping due to context cancellation")
			return
		case client := <-s.register:
			s.handleClientRegister(client)
		case client := <-s.unregister:
			s.handleClientUnregister(client)
		}
	}
}

// versionMessage builds the version handshake sent first on connect.
func (s *HUDServer) versionMessage() VersionMessage {
	info := version.Get()
	return VersionMessage{
		Type:             "version",
		Version:          info.Version,
		CommitHash:       info.Short(),
		MinViewerVersion: s.config().Server.MinViewerVersion,
		Timestamp:        time.Now().Unix(),
	}
}

// config returns the current configuration snapshot.
func (s *HUDServer) config() *config.Config {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg
}

// setConfig swaps the configuration after a reload.
func (s *HUDServer) setConfig(cfg *config.Config) {
	s.cfgMu.Lock()
	s.cfg = cfg
	s.cfgMu.Unlock()
}
