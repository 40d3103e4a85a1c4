// Package lock provides the per-campaign advisory lock that serializes
// RunBatch invocations across processes. The pending-fetch-and-mark
// sequence is not atomic on its own, so at most one batch per campaign
// may be in flight at a time.
package lock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const lockKeyPrefix = "campaigns:lock:"

// CampaignLock implements the advisory lock on Redis via SET NX. The TTL
// bounds how long a crashed holder can block a campaign.
type CampaignLock struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// Connect opens and verifies a Redis connection
func Connect(url string, logger *slog.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("connected to Redis", slog.String("addr", opts.Addr))

	return client, nil
}

// New creates a campaign lock backed by the given Redis client
func New(client *redis.Client, ttl time.Duration, logger *slog.Logger) *CampaignLock {
	return &CampaignLock{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// TryLock attempts to acquire the lock for one campaign without blocking.
// Returns false when another run already holds it.
func (l *CampaignLock) TryLock(ctx context.Context, campaignID int64) (bool, error) {
	key := fmt.Sprintf("%s%d", lockKeyPrefix, campaignID)

	ok, err := l.client.SetNX(ctx, key, 1, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire campaign lock: %w", err)
	}

	if !ok {
		l.logger.Debug("campaign lock busy", slog.Int64("campaign_id", campaignID))
	}

	return ok, nil
}

// Unlock releases the lock for one campaign
func (l *CampaignLock) Unlock(ctx context.Context, campaignID int64) error {
	key := fmt.Sprintf("%s%d", lockKeyPrefix, campaignID)

	if err := l.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to release campaign lock: %w", err)
	}

	return nil
}

// Health checks if Redis is reachable
func (l *CampaignLock) Health(ctx context.Context) error {
	if err := l.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}
