package server

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/gorilla/websocket"

	"github.com/teranos/HUD/logger"
	"github.com/teranos/HUD/server/wslogs"
)

// WebSocket timeout constants following Gorilla best practices
// See: https://github.com/gorilla/websocket/blob/master/examples/chat/client.go
const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = 54 * time.Second

	// Maximum message size allowed from peer (viewer control messages are tiny)
	maxMessageSize = 64 * 1024
)

// Client represents one WebSocket viewer connection
type Client struct {
	server  *HUDServer
	conn    *websocket.Conn
	sendMsg chan interface{}   // Typed server messages (snapshot, effect, status, notice)
	sendLog chan *wslogs.Batch // Server log batches
	id      string

	// closeMu serializes queue against close so broadcasts from other
	// goroutines never hit a closed channel.
	closeMu sync.Mutex
	closed  bool
}

// queue enqueues a message for this client. Messages are dropped when
// the client's buffer is full or the client is already closed.
func (c *Client) queue(msg interface{}) bool {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.sendMsg <- msg:
		return true
	default:
		c.server.broadcastDrops.Add(1)
		return false
	}
}

// readPump handles reading messages from the WebSocket connection
func (c *Client) readPump() {
	defer func() {
		// The hub loop stops on shutdown; don't block on a dead channel.
		select {
		case c.server.unregister <- c:
		case <-c.server.ctx.Done():
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	c.server.logger.Debugw("Read pump started", logger.FieldClientID, c.id)

	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			c.handleReadError(err)
			break
		}

		var msg ViewerMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			c.server.logger.Warnw("JSON unmarshal error",
				logger.FieldError, err.Error(),
				logger.FieldClientID, c.id,
			)
			continue
		}

		c.routeMessage(&msg)
	}
}

// handleReadError logs unexpected WebSocket read errors.
// Expected closure codes (going away, abnormal, no status) are silently ignored.
func (c *Client) handleReadError(err error) {
	if websocket.IsUnexpectedCloseError(err,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure,
		websocket.CloseNoStatusReceived,
	) {
		c.server.logger.Warnw("WebSocket read error",
			logger.FieldError, err.Error(),
			logger.FieldClientID, c.id,
		)
	}
}

// routeMessage dispatches incoming viewer messages to their handlers.
func (c *Client) routeMessage(msg *ViewerMessage) {
	switch msg.Type {
	case "hello":
		c.handleHello(msg.ViewerVersion)
	case "request_snapshot":
		c.handleRequestSnapshot()
	case "set_verbosity":
		c.handleSetVerbosity(msg.Verbosity)
	case "ping":
		// Deadline already refreshed by the pong handler
	default:
		c.server.logger.Debugw("Unknown message type",
			"type", msg.Type,
			logger.FieldClientID, c.id,
		)
	}
}

// handleHello checks the viewer's version against the configured
// minimum. Incompatible viewers get a notice; the connection stays up
// so they can at least render the warning.
func (c *Client) handleHello(viewerVersion string) {
	min := c.server.config().Server.MinViewerVersion
	c.server.logger.Debugw("Viewer hello",
		logger.FieldClientID, c.id,
		"viewer_version", viewerVersion,
		"min_viewer_version", min,
	)

	if min == "" || viewerVersion == "" {
		return
	}

	constraint, err := semver.NewConstraint(">= " + min)
	if err != nil {
		c.server.logger.Warnw("Invalid min_viewer_version constraint, skipping check",
			"min_viewer_version", min,
			logger.FieldError, err.Error(),
		)
		return
	}
	v, err := semver.NewVersion(viewerVersion)
	if err != nil {
		c.server.logger.Warnw("Viewer sent unparsable version",
			logger.FieldClientID, c.id,
			"viewer_version", viewerVersion,
		)
		return
	}

	if !constraint.Check(v) {
		c.queue(NoticeMessage{
			Type:      "notice",
			Level:     "warn",
			Message:   "Viewer version " + viewerVersion + " is older than the minimum " + min + "; some messages may not render",
			Timestamp: time.Now().Unix(),
		})
	}
}

// handleRequestSnapshot resends the cached snapshot to this client.
func (c *Client) handleRequestSnapshot() {
	c.server.mu.RLock()
	snapshot := c.server.lastSnapshot
	c.server.mu.RUnlock()

	if snapshot == nil {
		c.server.logger.Debugw("Snapshot requested before first layout",
			logger.FieldClientID, c.id,
		)
		return
	}
	c.queue(snapshot)
}

// handleSetVerbosity adjusts the level of the WebSocket log stream.
func (c *Client) handleSetVerbosity(verbosity int) {
	oldVerbosity := int(c.server.verbosity.Load())
	c.server.verbosity.Store(int32(verbosity))
	c.server.wsCore.SetLevel(logger.VerbosityToLevel(verbosity))

	c.server.logger.Infow("Verbosity level changed",
		logger.FieldClientID, c.id,
		"old_verbosity", oldVerbosity,
		"new_verbosity", verbosity,
		"level_name", logger.LevelName(verbosity),
	)
}

// writePump writes server messages and log batches to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	c.server.logger.Debugw("Write pump started", logger.FieldClientID, c.id)

	for {
		select {
		case <-c.server.ctx.Done():
			c.server.logger.Debugw("Write pump stopping due to server shutdown", logger.FieldClientID, c.id)
			return
		case msg, ok := <-c.sendMsg:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(msg); err != nil {
				c.server.logger.Warnw("Message write error",
					logger.FieldError, err.Error(),
					logger.FieldClientID, c.id,
				)
				return
			}

		case logBatch, ok := <-c.sendLog:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				return
			}

			if err := c.conn.WriteJSON(LogBatchMessage{Type: "log_batch", Data: logBatch}); err != nil {
				c.server.logger.Debugw("Log batch write error",
					logger.FieldError, err.Error(),
					logger.FieldClientID, c.id,
				)
				// Don't return - log errors shouldn't kill the connection
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// close marks the client closed and closes its channels. Safe to call
// more than once; the log transport must be unregistered first so no
// batch send still holds sendLog.
func (c *Client) close() {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.sendMsg)
	close(c.sendLog)
}
