package session

import (
	"time"

	"go.uber.org/zap"
)

// Sweeper runs Manager.Sweep on a fixed interval until stopped.
type Sweeper struct {
	manager  *Manager
	interval time.Duration
	logger   *zap.Logger
	ticker   *time.Ticker
	done     chan struct{}
}

func NewSweeper(manager *Manager, interval time.Duration, logger *zap.Logger) *Sweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{
		manager:  manager,
		interval: interval,
		logger:   logger.With(zap.String("component", "session-sweeper")),
		done:     make(chan struct{}),
	}
}

func (s *Sweeper) Start() {
	s.ticker = time.NewTicker(s.interval)
	go func() {
		for {
			select {
			case <-s.done:
				return
			case <-s.ticker.C:
				s.manager.Sweep()
			}
		}
	}()
	s.logger.Info("session sweeper started", zap.Duration("interval", s.interval))
}

func (s *Sweeper) Stop() {
	if s.ticker != nil {
		s.ticker.Stop()
	}
	close(s.done)
	s.logger.Info("session sweeper stopped")
}
