package auth

import (
	"context"
	"log/slog"
	"time"
)

// SessionSweeper periodically deletes expired session rows. Reads already
// ignore expired rows; this only keeps the table small.
type SessionSweeper struct {
	Sessions SessionRepository
	Interval time.Duration
	Logger   *slog.Logger
	Now      func() time.Time
}

// Run blocks until ctx is done.
func (s SessionSweeper) Run(ctx context.Context) {
	if s.Interval <= 0 || s.Sessions == nil {
		return
	}
	t := time.NewTicker(s.Interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.SweepOnce(ctx)
		}
	}
}

func (s SessionSweeper) SweepOnce(ctx context.Context) int64 {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	log := s.Logger
	if log == nil {
		log = slog.Default()
	}

	n, err := s.Sessions.DeleteExpired(ctx, now())
	if err != nil {
		log.Warn("session sweep failed", "err", err)
		return 0
	}
	if n > 0 {
		log.Info("expired sessions swept", "count", n)
	}
	return n
}
