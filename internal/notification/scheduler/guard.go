package scheduler

import (
	"context"
	"fmt"
	"time"

	"astro-backend/internal/notification/domain"

	"go.uber.org/zap"
)

const claimTTL = 36 * time.Hour

// DeliveryGuard prevents a user from receiving the same scheduled category twice on one day
type DeliveryGuard interface {
	// Claim reports whether userID may receive category for day
	Claim(ctx context.Context, category domain.Category, day time.Time, userID string) bool
}

// Claimer is the key store behind RedisGuard
type Claimer interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// RedisGuard records each delivery under a short-lived key. Store errors let the delivery through.
type RedisGuard struct {
	store  Claimer
	logger *zap.Logger
}

func NewRedisGuard(store Claimer, logger *zap.Logger) *RedisGuard {
	return &RedisGuard{store: store, logger: logger.Named("guard")}
}

func (g *RedisGuard) Claim(ctx context.Context, category domain.Category, day time.Time, userID string) bool {
	key := ClaimKey(category, day, userID)
	ok, err := g.store.Claim(ctx, key, claimTTL)
	if err != nil {
		g.logger.Warn("delivery guard unavailable, sending anyway", zap.String("key", key), zap.Error(err))
		return true
	}
	return ok
}

// ClaimKey is the idempotency key for one user, category and calendar day
func ClaimKey(category domain.Category, day time.Time, userID string) string {
	return fmt.Sprintf("notify:sent:%s:%s:%s", category, day.Format("2006-01-02"), userID)
}

// NoopGuard lets every delivery through
type NoopGuard struct{}

func (NoopGuard) Claim(context.Context, domain.Category, time.Time, string) bool { return true }
