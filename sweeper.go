package identity

import (
	"context"
	"time"
)

// Sweeper periodically deletes rows that finished their lifecycle:
// consumed verification tokens, blacklist markers older than the refresh
// TTL, and passcodes past their window. Failures are logged and retried on
// the next tick; they never affect the request path.
type Sweeper struct {
	repo       RepositoryManager
	refreshTTL time.Duration
	interval   time.Duration
	logger     Logger
}

func NewSweeper(repo RepositoryManager, refreshTTL time.Duration) *Sweeper {
	return &Sweeper{
		repo:       repo,
		refreshTTL: refreshTTL,
		interval:   time.Minute,
		logger:     defLogger{},
	}
}

func (s *Sweeper) WithInterval(interval time.Duration) *Sweeper {
	if interval > 0 {
		s.interval = interval
	}
	return s
}

func (s *Sweeper) WithLogger(logger Logger) *Sweeper {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Run blocks until the context is cancelled, sweeping on every tick.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs a single pass. Exported so operators can trigger it from a
// cron-style entry point as well.
func (s *Sweeper) Sweep(ctx context.Context) {
	now := time.Now()

	// a marker younger than the refresh TTL still blocks a live token
	if n, err := s.repo.Tokens().DeleteInvalidBefore(ctx, now.Add(-s.refreshTTL)); err != nil {
		s.logger.Error("sweep of invalid tokens failed", "error", err)
	} else if n > 0 {
		s.logger.Info("swept invalid tokens", "count", n)
	}

	if n, err := s.repo.Otps().DeleteOlderThan(ctx, now.Add(-OtpTTL)); err != nil {
		s.logger.Error("sweep of expired otps failed", "error", err)
	} else if n > 0 {
		s.logger.Info("swept expired otps", "count", n)
	}
}
