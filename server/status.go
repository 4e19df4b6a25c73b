package server

// Periodic status broadcasters. Both tickers are change-detecting and
// client-gated: with no viewers connected, or with nothing new to say,
// they stay silent.

import (
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/teranos/HUD/presence"
)

// systemStatusMessage samples host and server gauges. Metric read
// failures leave the gauge at zero rather than failing the broadcast.
func (s *HUDServer) systemStatusMessage() SystemStatusMessage {
	msg := SystemStatusMessage{
		Type:           "system_status",
		State:          stateString(s.getState()),
		Clients:        s.clientCount(),
		PendingEffects: s.anim.PendingCount(),
		HistorySize:    s.ring.Len(),
		Timestamp:      time.Now().Unix(),
	}

	if v, err := mem.VirtualMemory(); err == nil {
		msg.MemoryPercent = v.UsedPercent
	}
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		msg.CPUPercent = percents[0]
	}

	return msg
}

func (s *HUDServer) broadcastSystemStatus() {
	msg := s.systemStatusMessage()

	s.mu.Lock()
	if s.lastStatus != nil && !systemStatusChanged(s.lastStatus, &msg) {
		s.mu.Unlock()
		return
	}
	s.lastStatus = &msg
	s.mu.Unlock()

	s.broadcastMessage(msg)
}

// systemStatusChanged ignores the timestamp and small gauge jitter so a
// quiet server stops broadcasting.
func systemStatusChanged(prev, next *SystemStatusMessage) bool {
	if prev.State != next.State ||
		prev.Clients != next.Clients ||
		prev.PendingEffects != next.PendingEffects ||
		prev.HistorySize != next.HistorySize {
		return true
	}
	const jitter = 1.0 // percent
	if diff := next.MemoryPercent - prev.MemoryPercent; diff > jitter || diff < -jitter {
		return true
	}
	if diff := next.CPUPercent - prev.CPUPercent; diff > jitter || diff < -jitter {
		return true
	}
	return false
}

// startSystemStatusTicker starts the periodic system status broadcaster
func (s *HUDServer) startSystemStatusTicker() {
	ticker := time.NewTicker(SystemStatusInterval)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer ticker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				s.logger.Debugw("System status ticker stopping due to context cancellation")
				return
			case <-ticker.C:
				if s.clientCount() > 0 {
					s.broadcastSystemStatus()
				}
			}
		}
	}()
}

func (s *HUDServer) broadcastAgentStatus() {
	roster := s.tracker.Roster()

	s.mu.Lock()
	if !rosterChanged(s.lastRoster, roster) {
		s.mu.Unlock()
		return
	}
	s.lastRoster = roster
	s.mu.Unlock()

	s.broadcastMessage(AgentStatusMessage{
		Type:      "agent_status",
		Agents:    roster,
		Timestamp: time.Now().Unix(),
	})
}

// rosterChanged compares everything a viewer renders; LastSeen alone
// changing does not justify a broadcast.
func rosterChanged(prev, next []presence.AgentStatus) bool {
	if len(prev) != len(next) {
		return true
	}
	for i := range next {
		p, n := prev[i], next[i]
		if p.Agent != n.Agent ||
			p.Activity != n.Activity ||
			p.Progress != n.Progress ||
			p.CurrentIssue != n.CurrentIssue ||
			p.Started != n.Started ||
			p.Completed != n.Completed ||
			p.Errors != n.Errors ||
			p.LastError != n.LastError {
			return true
		}
	}
	return false
}

// startAgentStatusTicker starts the periodic agent roster broadcaster
func (s *HUDServer) startAgentStatusTicker() {
	ticker := time.NewTicker(AgentStatusInterval)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer ticker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				s.logger.Debugw("Agent status ticker stopping due to context cancellation")
				return
			case <-ticker.C:
				if s.clientCount() > 0 {
					s.broadcastAgentStatus()
				}
			}
		}
	}()
}
