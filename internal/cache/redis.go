package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hmdp-next/internal/config"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient 创建 Redis 客户端
func NewRedisClient(cfg *config.RedisConfig) *redis.Client {
	addr := "127.0.0.1"
	port := 6379
	opts := &redis.Options{}
	if cfg != nil {
		if host := strings.TrimSpace(cfg.Host); host != "" {
			addr = host
		}
		if cfg.Port > 0 {
			port = cfg.Port
		}
		opts.Password = cfg.Password
		opts.DB = cfg.DB
		if cfg.PoolSize > 0 {
			opts.PoolSize = cfg.PoolSize
		}
		if cfg.DialTimeoutMS > 0 {
			opts.DialTimeout = time.Duration(cfg.DialTimeoutMS) * time.Millisecond
		}
	}
	opts.Addr = fmt.Sprintf("%s:%d", addr, port)
	return redis.NewClient(opts)
}

// Ping 检查 Redis 连通性
func Ping(ctx context.Context, rdb redis.Cmdable) error {
	if rdb == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}
