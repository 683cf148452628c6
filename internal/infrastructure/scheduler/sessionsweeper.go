package scheduler

import (
	"context"
	"sync"
	"time"

	sessionUsecases "warden/internal/application/session/usecases"
	"warden/internal/shared/logger"
)

// SessionSweeper periodically removes expired session records. Reads already
// filter out expired sessions, so the sweep is a storage hygiene pass, not a
// correctness requirement.
type SessionSweeper struct {
	sweepUC  *sessionUsecases.SweepExpiredSessionsUseCase
	logger   logger.Interface
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	interval time.Duration
}

func NewSessionSweeper(
	sweepUC *sessionUsecases.SweepExpiredSessionsUseCase,
	interval time.Duration,
	logger logger.Interface,
) *SessionSweeper {
	return &SessionSweeper{
		sweepUC:  sweepUC,
		logger:   logger,
		stopChan: make(chan struct{}),
		interval: interval,
	}
}

// Start launches the sweep loop.
func (s *SessionSweeper) Start(ctx context.Context) {
	s.logger.Infow("starting session sweeper", "interval", s.interval)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runLoop(ctx)
	}()
}

// Stop stops the sweeper gracefully.
func (s *SessionSweeper) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Infow("stopping session sweeper")
		close(s.stopChan)
		s.wg.Wait()
		s.logger.Infow("session sweeper stopped")
	})
}

func (s *SessionSweeper) runLoop(ctx context.Context) {
	// Run immediately on startup to clear anything that expired while down.
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Infow("session sweeper stopped due to context cancellation")
			return
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *SessionSweeper) sweep(ctx context.Context) {
	startTime := time.Now()

	removed, err := s.sweepUC.Execute(ctx)
	if err != nil {
		s.logger.Errorw("failed to sweep expired sessions",
			"error", err,
			"duration", time.Since(startTime),
		)
		return
	}

	if removed > 0 {
		s.logger.Infow("expired sessions swept",
			"count", removed,
			"duration", time.Since(startTime),
		)
	} else {
		s.logger.Debugw("no expired sessions to sweep",
			"duration", time.Since(startTime),
		)
	}
}
