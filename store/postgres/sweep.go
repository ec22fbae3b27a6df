package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/MrEthical07/goCred/internal/logging"
)

// SweepExpiredSessions calls DeleteExpiredSessions every interval until ctx
// ends. A failed sweep is logged and retried on the next tick.
func (s *Store) SweepExpiredSessions(ctx context.Context, interval time.Duration, logger *slog.Logger) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.DeleteExpiredSessions(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				logging.LogError(ctx, logger, "session sweep failed", err)
				continue
			}
			if n > 0 {
				logger.DebugContext(ctx, "expired sessions removed", "count", n)
			}
		}
	}
}
