// Package cache 缓存访问层：直写缓存、空值缓存、互斥重建与逻辑过期三种读取策略。
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hmdp-next/internal/constants"
	"github.com/hmdp-next/internal/lock"
	"github.com/hmdp-next/internal/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrNotFound 数据不存在（含命中空值缓存）
	ErrNotFound = errors.New("cache: not found")
	// ErrContention 重建锁竞争超过重试次数
	ErrContention = errors.New("cache: rebuild contention")
)

// nullMarker 空值缓存标记，防止缓存穿透
const nullMarker = ""

const unlockTimeout = 3 * time.Second

// Options 缓存客户端配置
type Options struct {
	NullTTL          time.Duration
	LockTTL          time.Duration
	RetryAttempts    int
	RetryMinInterval time.Duration
	RetryMaxInterval time.Duration
	RebuildWorkers   int
	Now              func() time.Time
	Logger           *zap.SugaredLogger
}

func (o Options) normalize() Options {
	if o.NullTTL <= 0 {
		o.NullTTL = constants.CacheNullTTL
	}
	if o.LockTTL <= 0 {
		o.LockTTL = constants.CacheLockTTL
	}
	if o.RetryAttempts <= 0 {
		o.RetryAttempts = constants.CacheRetryAttempts
	}
	if o.RetryMinInterval <= 0 {
		o.RetryMinInterval = constants.CacheRetryMinInterval
	}
	if o.RetryMaxInterval < o.RetryMinInterval {
		o.RetryMaxInterval = o.RetryMinInterval
	}
	if o.RebuildWorkers <= 0 {
		o.RebuildWorkers = constants.CacheRebuildWorkers
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Logger == nil {
		o.Logger = logger.Named("cache")
	}
	return o
}

// Client 缓存客户端
type Client struct {
	rdb      redis.Cmdable
	locker   *lock.Locker
	opts     Options
	rebuilds *errgroup.Group
}

// NewClient 创建缓存客户端
func NewClient(rdb redis.Cmdable, locker *lock.Locker, opts Options) *Client {
	opts = opts.normalize()
	group := new(errgroup.Group)
	group.SetLimit(opts.RebuildWorkers)
	return &Client{
		rdb:      rdb,
		locker:   locker,
		opts:     opts,
		rebuilds: group,
	}
}

// Loader 从数据源加载实体，不存在时返回 (nil, nil)
type Loader[K any, T any] func(ctx context.Context, id K) (*T, error)

// Source 描述一类缓存实体
type Source[K any, T any] struct {
	KeyPrefix  string        // 缓存键前缀，如 cache:shop:
	LockPrefix string        // 重建锁名前缀，如 shop:，为空时沿用 KeyPrefix
	TTL        time.Duration // 物理 TTL 或逻辑过期时长
	Load       Loader[K, T]
}

func (s Source[K, T]) key(id K) string {
	return fmt.Sprintf("%s%v", s.KeyPrefix, id)
}

func (s Source[K, T]) lockName(id K) string {
	prefix := s.LockPrefix
	if prefix == "" {
		prefix = s.KeyPrefix
	}
	return fmt.Sprintf("%s%v", prefix, id)
}

// logicalEntry 逻辑过期缓存结构，键本身不设置 TTL
type logicalEntry struct {
	Data       json.RawMessage `json:"data"`
	ExpireTime time.Time       `json:"expireTime"`
}

// Set 写入 JSON 缓存并设置物理 TTL
func (c *Client) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache %s: %w", key, err)
	}
	if err := c.rdb.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("write cache %s: %w", key, err)
	}
	return nil
}

// SetWithLogicalExpire 写入带逻辑过期时间的缓存（无物理 TTL）
func (c *Client) SetWithLogicalExpire(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache %s: %w", key, err)
	}
	payload, err := json.Marshal(logicalEntry{Data: data, ExpireTime: c.opts.Now().Add(ttl)})
	if err != nil {
		return fmt.Errorf("encode cache %s: %w", key, err)
	}
	if err := c.rdb.Set(ctx, key, payload, 0).Err(); err != nil {
		return fmt.Errorf("write cache %s: %w", key, err)
	}
	return nil
}

// Delete 删除缓存
func (c *Client) Delete(ctx context.Context, key string) error {
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("delete cache %s: %w", key, err)
	}
	return nil
}

// Close 等待进行中的后台重建结束
func (c *Client) Close() error {
	return c.rebuilds.Wait()
}

func (c *Client) read(ctx context.Context, key string) (string, bool, error) {
	raw, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read cache %s: %w", key, err)
	}
	return raw, true, nil
}

func (c *Client) unlock(held *lock.Lock) {
	ctx, cancel := context.WithTimeout(context.Background(), unlockTimeout)
	defer cancel()
	if err := held.Unlock(ctx); err != nil {
		c.opts.Logger.Warnw("cache_rebuild_unlock_failed", "lock", held.Name(), "error", err)
	}
}

func (c *Client) backoff(attempt int) time.Duration {
	wait := c.opts.RetryMinInterval << uint(attempt)
	if wait <= 0 || wait > c.opts.RetryMaxInterval {
		return c.opts.RetryMaxInterval
	}
	return wait
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func decode[T any](key, raw string) (*T, error) {
	var value T
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return nil, fmt.Errorf("decode cache %s: %w", key, err)
	}
	return &value, nil
}
