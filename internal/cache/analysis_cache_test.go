package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"dex-scalp-assistant/config"
	"dex-scalp-assistant/internal/analyzer"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := NewAnalysisCache(config.RedisConfig{Enabled: false}, zerolog.Nop())
	key := Key("solana", "pool123", "minute")

	if _, err := c.Get(context.Background(), key); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("empty cache err = %v, want ErrCacheMiss", err)
	}

	want := &analyzer.Analysis{CurrentPrice: 1.23, ScalpingScore: 75}
	if err := c.Set(context.Background(), key, want, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := c.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.CurrentPrice != 1.23 || got.ScalpingScore != 75 {
		t.Errorf("got %+v", got)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewAnalysisCache(config.RedisConfig{Enabled: false}, zerolog.Nop())
	key := Key("solana", "pool123", "minute")

	c.Set(context.Background(), key, &analyzer.Analysis{}, -time.Second)
	if _, err := c.Get(context.Background(), key); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expired entry err = %v, want ErrCacheMiss", err)
	}
}

func TestMemoryCacheInvalidate(t *testing.T) {
	c := NewAnalysisCache(config.RedisConfig{Enabled: false}, zerolog.Nop())
	key := Key("solana", "pool123", "minute")

	c.Set(context.Background(), key, &analyzer.Analysis{}, time.Minute)
	c.Invalidate(context.Background(), key)
	if _, err := c.Get(context.Background(), key); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("invalidated entry err = %v, want ErrCacheMiss", err)
	}
}

func TestKeyFormat(t *testing.T) {
	if got := Key("solana", "abc", "minute"); got != "analysis:solana:abc:minute" {
		t.Errorf("Key = %s", got)
	}
}

func TestDisabledRedisNotHealthy(t *testing.T) {
	c := NewAnalysisCache(config.RedisConfig{Enabled: false}, zerolog.Nop())
	if c.Healthy() {
		t.Error("memory-only cache should report Redis unhealthy")
	}
}
