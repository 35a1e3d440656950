package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"lendledger/internal/config"
	"lendledger/internal/domain/dashboard"
)

const (
	summaryKeyPrefix = "lendledger:dashboard:summary:"
	summaryKeySet    = "lendledger:dashboard:summary-keys"
)

// SummaryCache stores rendered dashboard summaries in Redis. Written keys are
// tracked in a set so invalidation can remove every month variant at once.
type SummaryCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

var _ dashboard.SummaryCache = (*SummaryCache)(nil)

func NewSummaryCache(client *redis.Client, cfg config.RedisConfig, logger *slog.Logger) *SummaryCache {
	if client == nil {
		panic("redis client cannot be nil for SummaryCache")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewSummaryCache, using default stderr handler")
	}
	ttl := cfg.SummaryTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &SummaryCache{
		client: client,
		ttl:    ttl,
		logger: logger.With(slog.String("component", "SummaryCache")),
	}
}

func NewClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

func summaryKey(month string) string {
	if month == "" {
		return summaryKeyPrefix + "all"
	}
	return summaryKeyPrefix + month
}

func (c *SummaryCache) GetSummary(ctx context.Context, month string) (*dashboard.Summary, bool, error) {
	payload, err := c.client.Get(ctx, summaryKey(month)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read summary from cache: %w", err)
	}

	var summary dashboard.Summary
	if err := json.Unmarshal(payload, &summary); err != nil {
		// A corrupt entry behaves like a miss; the next write replaces it.
		c.logger.WarnContext(ctx, "Discarding unreadable cached summary", slog.Any("error", err))
		return nil, false, nil
	}

	return &summary, true, nil
}

func (c *SummaryCache) SetSummary(ctx context.Context, month string, s *dashboard.Summary) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal summary for cache: %w", err)
	}

	key := summaryKey(month)
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, key, payload, c.ttl)
	pipe.SAdd(ctx, summaryKeySet, key)
	pipe.Expire(ctx, summaryKeySet, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to write summary to cache: %w", err)
	}

	c.logger.DebugContext(ctx, "Dashboard summary cached", slog.String("key", key))
	return nil
}

func (c *SummaryCache) InvalidateSummary(ctx context.Context) error {
	keys, err := c.client.SMembers(ctx, summaryKeySet).Result()
	if err != nil {
		return fmt.Errorf("failed to list cached summary keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}

	keys = append(keys, summaryKeySet)
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached summaries: %w", err)
	}

	c.logger.DebugContext(ctx, "Dashboard summary cache invalidated", slog.Int("keys", len(keys)-1))
	return nil
}
