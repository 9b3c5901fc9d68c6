package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"rental-location/internal/stats"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	// StatsKeyPrefix prefixes the per-date stats keys
	StatsKeyPrefix = "rental_stats:"
	// GenerationKeyPrefix prefixes the per-date invalidation counters
	GenerationKeyPrefix = "rental_stats_gen:"
	// DefaultTTL is used when the configured ttl is not positive
	DefaultTTL = 30 * time.Second
	// GenerationTTL keeps a date's counter alive well past any stats entry
	GenerationTTL = 7 * 24 * time.Hour
)

// StatsCache keeps computed DailyStats per work date in Redis. Entries are
// stored under the date's current generation; Invalidate bumps the generation,
// so stats computed before a write can never be served after it.
type StatsCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewStatsCache(client *redis.Client, ttl time.Duration) *StatsCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &StatsCache{Client: client, TTL: ttl}
}

func statsKey(workDate string, gen int64) string {
	return fmt.Sprintf("%s%s:%d", StatsKeyPrefix, workDate, gen)
}

func generationKey(workDate string) string {
	return GenerationKeyPrefix + workDate
}

func (c *StatsCache) generation(ctx context.Context, workDate string) (int64, error) {
	gen, err := c.Client.Get(ctx, generationKey(workDate)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read stats generation: %w", err)
	}
	return gen, nil
}

// Get returns the cached stats and the generation they were looked up under.
// A miss returns nil stats; the generation is still valid and must be passed
// to Set once the stats have been computed.
func (c *StatsCache) Get(ctx context.Context, workDate string) (*stats.DailyStats, int64, error) {
	if c == nil || c.Client == nil {
		return nil, 0, fmt.Errorf("redis client not initialized")
	}

	gen, err := c.generation(ctx, workDate)
	if err != nil {
		return nil, 0, err
	}

	raw, err := c.Client.Get(ctx, statsKey(workDate, gen)).Bytes()
	if err == redis.Nil {
		return nil, gen, nil
	} else if err != nil {
		return nil, 0, fmt.Errorf("failed to get stats from Redis: %w", err)
	}

	var daily stats.DailyStats
	if err := json.Unmarshal(raw, &daily); err != nil {
		return nil, 0, fmt.Errorf("failed to unmarshal cached stats: %w", err)
	}
	if daily.ByCompany == nil {
		daily.ByCompany = map[string]stats.CompanyStats{}
	}
	if daily.ByZone == nil {
		daily.ByZone = map[string]stats.ZoneStats{}
	}
	return &daily, gen, nil
}

// Set stores stats under gen. Stats filled under a generation that has since
// been invalidated land on a key no reader looks up and simply expire.
func (c *StatsCache) Set(ctx context.Context, workDate string, gen int64, daily stats.DailyStats) error {
	if c == nil || c.Client == nil {
		return fmt.Errorf("redis client not initialized")
	}

	raw, err := json.Marshal(daily)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}
	if err := c.Client.Set(ctx, statsKey(workDate, gen), raw, c.TTL).Err(); err != nil {
		return fmt.Errorf("failed to store stats in Redis: %w", err)
	}
	return nil
}

// Invalidate moves a work date to a new generation and drops the old entry.
func (c *StatsCache) Invalidate(ctx context.Context, workDate string) error {
	if c == nil || c.Client == nil {
		return fmt.Errorf("redis client not initialized")
	}

	var incr *redis.IntCmd
	_, err := c.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, generationKey(workDate))
		pipe.Expire(ctx, generationKey(workDate), GenerationTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate stats: %w", err)
	}
	return c.Client.Del(ctx, statsKey(workDate, incr.Val()-1)).Err()
}
