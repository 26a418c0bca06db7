package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

var ErrStatsNotCached = errors.New("stats not cached")

// StatsCache keeps recently fetched win/loss records so room listing does not
// hammer the external stats service on every browse.
type StatsCache interface {
	Put(ctx context.Context, userID string, stats *entity.PlayerStats) error
	Get(ctx context.Context, userID string) (*entity.PlayerStats, error)
}

type dbStatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStatsCache(client *redis.Client, ttl time.Duration) StatsCache {
	return &dbStatsCache{
		client: client,
		ttl:    ttl,
	}
}

func (that *dbStatsCache) Put(ctx context.Context, userID string, stats *entity.PlayerStats) error {
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}

	statsKey := "stats:" + userID
	if err = that.client.Set(ctx, statsKey, statsJSON, that.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set stats: %w", err)
	}

	return nil
}

func (that *dbStatsCache) Get(ctx context.Context, userID string) (*entity.PlayerStats, error) {
	statsKey := "stats:" + userID

	response, err := that.client.Get(ctx, statsKey).Result()

	if errors.Is(err, redis.Nil) {
		return nil, ErrStatsNotCached
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get stats by user ID: %w", err)
	}

	var stats entity.PlayerStats
	if err = json.Unmarshal([]byte(response), &stats); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stats: %w", err)
	}

	return &stats, nil
}
