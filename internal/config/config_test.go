package config

import (
	"testing"
	"time"
)

func TestDefaultSeckillQueueTopology(t *testing.T) {
	cfg := Default()
	if cfg.Seckill.Stream != "stream.orders" || cfg.Seckill.Group != "g1" || cfg.Seckill.Consumer != "c1" {
		t.Fatalf("unexpected stream topology: %+v", cfg.Seckill)
	}
	if got := cfg.Seckill.Block(); got != 2*time.Second {
		t.Fatalf("block want 2s got %s", got)
	}
	if cfg.Cache.Strategy != "mutex" {
		t.Fatalf("default cache strategy want mutex got %s", cfg.Cache.Strategy)
	}
	if cfg.IDGen.EpochUnix != 1640995200 {
		t.Fatalf("unexpected id epoch: %d", cfg.IDGen.EpochUnix)
	}
}

func TestDurationFallbacks(t *testing.T) {
	var cache CacheConfig
	if got := cache.NullTTL(); got != 2*time.Minute {
		t.Fatalf("null ttl fallback want 2m got %s", got)
	}
	if got := cache.RetryMinInterval(); got != 50*time.Millisecond {
		t.Fatalf("retry interval fallback want 50ms got %s", got)
	}

	seckill := SeckillConfig{BlockMS: 500, RecoveryMaxBackoffMS: -1}
	if got := seckill.Block(); got != 500*time.Millisecond {
		t.Fatalf("configured block want 500ms got %s", got)
	}
	if got := seckill.RecoveryMaxBackoff(); got != time.Second {
		t.Fatalf("negative backoff should fall back to 1s, got %s", got)
	}
}
