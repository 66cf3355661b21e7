package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/identity-service/internal/repository"
)

// StartSessionCleanup purges long-expired refresh tokens on an interval until
// ctx is cancelled. Expiry is always enforced at use time; the purge only
// bounds table growth.
func StartSessionCleanup(ctx context.Context, store repository.CredentialStore, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		interval = time.Hour
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := store.RefreshTokens().DeleteExpired(ctx)
				if err != nil {
					logger.Warn("session cleanup failed", zap.Error(err))
					continue
				}
				if removed > 0 {
					logger.Info("purged expired refresh tokens", zap.Int64("removed", removed))
				}
			}
		}
	}()
}
