package flow

import (
	"context"
	"sync"
	"time"

	"github.com/teranos/HUD/logger"
)

// Sweepable is anything holding per-key rate-control state that can be
// trimmed of idle entries.
type Sweepable interface {
	SweepIdle() int
}

// Sweeper periodically evicts idle keys from its targets so per-key
// state stays bounded over long runs.
type Sweeper struct {
	interval time.Duration
	targets  []Sweepable
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewSweeper returns a sweeper driving the given targets.
func NewSweeper(interval time.Duration, targets ...Sweepable) *Sweeper {
	ctx, cancel := context.WithCancel(context.Background())
	return &Sweeper{
		interval: interval,
		targets:  targets,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches the sweep loop.
func (s *Sweeper) Start() {
	if s.interval <= 0 {
		return
	}
	s.wg.Add(1)
	go s.run()
}

func (s *Sweeper) run() {
	defer s.wg.Done()

	log := logger.AddFlowSymbol(logger.Logger)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			evicted := 0
			for _, target := range s.targets {
				evicted += target.SweepIdle()
			}
			if evicted > 0 {
				log.Debugw("Evicted idle rate-control keys",
					logger.FieldCount, evicted,
				)
			}
		}
	}
}

// Stop halts the sweep loop and waits for it to exit.
func (s *Sweeper) Stop() {
	s.cancel()
	s.wg.Wait()
}
