package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hmdp-next/internal/lock"
)

// QueryWithPassThrough 空值缓存 + 重建锁，未命中时由持锁者回源
func QueryWithPassThrough[K any, T any](ctx context.Context, c *Client, src Source[K, T], id K) (*T, error) {
	return queryWithLock(ctx, c, src, id, false)
}

// QueryWithMutex 在 QueryWithPassThrough 基础上获取锁后再检查一次缓存，每个未命中窗口只回源一次
func QueryWithMutex[K any, T any](ctx context.Context, c *Client, src Source[K, T], id K) (*T, error) {
	return queryWithLock(ctx, c, src, id, true)
}

func queryWithLock[K any, T any](ctx context.Context, c *Client, src Source[K, T], id K, doubleCheck bool) (*T, error) {
	key := src.key(id)
	for attempt := 0; ; attempt++ {
		value, hit, err := readPhysical[T](ctx, c, key)
		if err != nil || hit {
			return value, err
		}

		held, err := c.locker.TryLock(ctx, src.lockName(id), c.opts.LockTTL)
		if err == nil {
			return rebuildPhysical(ctx, c, src, id, held, doubleCheck)
		}
		if !errors.Is(err, lock.ErrNotAcquired) {
			return nil, err
		}
		if attempt+1 >= c.opts.RetryAttempts {
			return nil, ErrContention
		}
		if err := sleepContext(ctx, c.backoff(attempt)); err != nil {
			return nil, err
		}
	}
}

// readPhysical 读取物理 TTL 缓存；hit 为 true 时结果已确定（值或 ErrNotFound）
func readPhysical[T any](ctx context.Context, c *Client, key string) (*T, bool, error) {
	raw, ok, err := c.read(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	if raw == nullMarker {
		return nil, true, ErrNotFound
	}
	value, err := decode[T](key, raw)
	return value, true, err
}

func rebuildPhysical[K any, T any](ctx context.Context, c *Client, src Source[K, T], id K, held *lock.Lock, doubleCheck bool) (*T, error) {
	defer c.unlock(held)
	key := src.key(id)

	if doubleCheck {
		value, hit, err := readPhysical[T](ctx, c, key)
		if err != nil || hit {
			return value, err
		}
	}

	value, err := src.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	if value == nil {
		if err := c.rdb.Set(ctx, key, nullMarker, c.opts.NullTTL).Err(); err != nil {
			c.opts.Logger.Warnw("cache_null_write_failed", "key", key, "error", err)
		}
		return nil, ErrNotFound
	}
	if err := c.Set(ctx, key, value, src.TTL); err != nil {
		c.opts.Logger.Warnw("cache_write_failed", "key", key, "error", err)
	}
	return value, nil
}

// QueryWithLogicalExpire 逻辑过期读取：过期时立即返回旧值，并由持锁者在后台重建
// 未命中直接返回 ErrNotFound，热点数据需提前预热
func QueryWithLogicalExpire[K any, T any](ctx context.Context, c *Client, src Source[K, T], id K) (*T, error) {
	key := src.key(id)
	value, fresh, err := readLogical[T](ctx, c, key)
	if err != nil || fresh {
		return value, err
	}

	held, err := c.locker.TryLock(ctx, src.lockName(id), c.opts.LockTTL)
	if err != nil {
		if !errors.Is(err, lock.ErrNotAcquired) {
			c.opts.Logger.Warnw("cache_rebuild_lock_failed", "key", key, "error", err)
		}
		return value, nil
	}

	// 获取锁后再次检查，其他实例可能已完成重建
	current, fresh, err := readLogical[T](ctx, c, key)
	if err == nil && fresh {
		c.unlock(held)
		return current, nil
	}

	rebuildCtx := context.WithoutCancel(ctx)
	submitted := c.rebuilds.TryGo(func() error {
		defer c.unlock(held)
		rebuildLogical(rebuildCtx, c, src, id)
		return nil
	})
	if !submitted {
		c.unlock(held)
		c.opts.Logger.Warnw("cache_rebuild_pool_full", "key", key)
	}
	return value, nil
}

// readLogical 读取逻辑过期缓存；fresh 表示未过期
func readLogical[T any](ctx context.Context, c *Client, key string) (*T, bool, error) {
	raw, ok, err := c.read(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if !ok || raw == nullMarker {
		return nil, false, ErrNotFound
	}
	var entry logicalEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, false, fmt.Errorf("decode cache %s: %w", key, err)
	}
	value, err := decode[T](key, string(entry.Data))
	if err != nil {
		return nil, false, err
	}
	return value, c.opts.Now().Before(entry.ExpireTime), nil
}

func rebuildLogical[K any, T any](ctx context.Context, c *Client, src Source[K, T], id K) {
	key := src.key(id)
	value, err := src.Load(ctx, id)
	if err != nil {
		c.opts.Logger.Errorw("cache_rebuild_load_failed", "key", key, "error", err)
		return
	}
	if value == nil {
		if err := c.Delete(ctx, key); err != nil {
			c.opts.Logger.Warnw("cache_rebuild_delete_failed", "key", key, "error", err)
		}
		return
	}
	if err := c.SetWithLogicalExpire(ctx, key, value, src.TTL); err != nil {
		c.opts.Logger.Errorw("cache_rebuild_write_failed", "key", key, "error", err)
		return
	}
	c.opts.Logger.Debugw("cache_rebuild_done", "key", key)
}
