// Package cache provides a Redis-backed cache for analysis results with
// graceful degradation. When Redis is unavailable or disabled, an in-memory
// store serves as the fallback so cached analyses survive transient outages.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"dex-scalp-assistant/config"
	"dex-scalp-assistant/internal/analyzer"
)

// ErrCacheMiss indicates no cached analysis exists for the key
var ErrCacheMiss = errors.New("cache miss")

const keyPrefix = "analysis:%s:%s:%s" // network, pool, timeframe

// AnalysisCache caches analysis results keyed by pool and timeframe
type AnalysisCache struct {
	client *redis.Client
	memory *memoryStore
	logger zerolog.Logger

	mu           sync.RWMutex
	healthy      bool
	failureCount int
	maxFailures  int
	lastCheck    time.Time
	checkEvery   time.Duration
}

// NewAnalysisCache creates the cache. When Redis is disabled in the config
// the cache runs purely in memory.
func NewAnalysisCache(cfg config.RedisConfig, logger zerolog.Logger) *AnalysisCache {
	c := &AnalysisCache{
		memory:      newMemoryStore(),
		logger:      logger.With().Str("component", "cache").Logger(),
		maxFailures: 3,
		checkEvery:  30 * time.Second,
	}

	if !cfg.Enabled {
		c.logger.Info().Msg("Redis disabled, using in-memory cache")
		return c
	}

	c.client = redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.client.Ping(ctx).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("Initial Redis connection failed, degrading to memory")
		return c
	}

	c.healthy = true
	c.logger.Info().Str("address", cfg.Address).Msg("Redis connected")
	return c
}

// Key builds the cache key for a pool analysis
func Key(network, pool, timeframe string) string {
	return fmt.Sprintf(keyPrefix, network, pool, timeframe)
}

// Get retrieves a cached analysis. Expired or missing entries return
// ErrCacheMiss.
func (c *AnalysisCache) Get(ctx context.Context, key string) (*analyzer.Analysis, error) {
	c.checkHealth()
	if c.redisHealthy() {
		data, err := c.client.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			c.recordSuccess()
			var analysis analyzer.Analysis
			if err := json.Unmarshal(data, &analysis); err != nil {
				return nil, fmt.Errorf("corrupt cached analysis: %w", err)
			}
			return &analysis, nil
		case errors.Is(err, redis.Nil):
			c.recordSuccess()
			return nil, ErrCacheMiss
		default:
			c.recordFailure(err)
			// fall through to memory
		}
	}

	if analysis, ok := c.memory.get(key); ok {
		return analysis, nil
	}
	return nil, ErrCacheMiss
}

// Set stores an analysis in both Redis and the memory fallback
func (c *AnalysisCache) Set(ctx context.Context, key string, analysis *analyzer.Analysis, ttl time.Duration) error {
	c.memory.set(key, analysis, ttl)

	c.checkHealth()
	if !c.redisHealthy() {
		return nil
	}

	data, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis: %w", err)
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.recordFailure(err)
		return nil // memory copy is already stored
	}
	c.recordSuccess()
	return nil
}

// Invalidate removes a cached analysis
func (c *AnalysisCache) Invalidate(ctx context.Context, key string) {
	c.memory.delete(key)
	if c.redisHealthy() {
		if err := c.client.Del(ctx, key).Err(); err != nil {
			c.recordFailure(err)
		}
	}
}

// Healthy reports whether Redis is currently usable
func (c *AnalysisCache) Healthy() bool {
	return c.redisHealthy()
}

// Close closes the Redis connection
func (c *AnalysisCache) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

func (c *AnalysisCache) redisHealthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client != nil && c.healthy
}

// checkHealth pings Redis in the background when it has been unhealthy for
// longer than the check interval.
func (c *AnalysisCache) checkHealth() {
	c.mu.Lock()
	shouldCheck := c.client != nil && !c.healthy && time.Since(c.lastCheck) >= c.checkEvery
	if shouldCheck {
		c.lastCheck = time.Now()
	}
	c.mu.Unlock()

	if !shouldCheck {
		return
	}

	go func() {
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := c.client.Ping(pingCtx).Err(); err == nil {
			c.recordSuccess()
		}
	}()
}

func (c *AnalysisCache) recordFailure(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.failureCount++
	if c.failureCount >= c.maxFailures && c.healthy {
		c.logger.Warn().Err(err).Int("failures", c.failureCount).
			Msg("Redis marked unhealthy, degrading to memory")
		c.healthy = false
	}
}

func (c *AnalysisCache) recordSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.healthy && c.client != nil {
		c.logger.Info().Msg("Redis recovered")
	}
	c.healthy = c.client != nil
	c.failureCount = 0
}
