// Package lock 基于 Redis 的非阻塞分布式锁。
//
// 锁记录为 lock:<name> -> 持有者令牌，带调用方指定的 TTL。
// 锁不会自动续期：临界区超过 TTL 时锁会被其他进程获得，调用方需按最坏执行时间设置 TTL。
package lock

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hmdp-next/internal/constants"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrNotAcquired 锁已被其他持有者占用
	ErrNotAcquired = errors.New("lock not acquired")
	// ErrNotHeld 释放时锁已不属于当前持有者（过期或被他人获得）
	ErrNotHeld = errors.New("lock not held")
	// ErrInvalidArgument 锁名或 TTL 非法
	ErrInvalidArgument = errors.New("invalid lock argument")
)

// 比较令牌后删除，保证只有持有者能释放
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker 分布式锁管理器，每个进程一个实例
type Locker struct {
	rdb       redis.Cmdable
	processID string
	seq       atomic.Uint64
}

// Lock 已获得的锁
type Lock struct {
	locker *Locker
	name   string
	token  string
}

// NewLocker 创建锁管理器
func NewLocker(rdb redis.Cmdable) *Locker {
	return &Locker{
		rdb:       rdb,
		processID: uuid.NewString(),
	}
}

// TryLock 尝试获取锁，已被占用时立即返回 ErrNotAcquired，不阻塞不重试
func (l *Locker) TryLock(ctx context.Context, name string, ttl time.Duration) (*Lock, error) {
	name = strings.TrimSpace(name)
	if name == "" || ttl <= 0 {
		return nil, ErrInvalidArgument
	}
	token := l.nextToken()
	ok, err := l.rdb.SetNX(ctx, Key(name), token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	if !ok {
		return nil, ErrNotAcquired
	}
	return &Lock{locker: l, name: name, token: token}, nil
}

// Release 按令牌释放锁，令牌不匹配时返回 ErrNotHeld 且不删除任何记录
func (l *Locker) Release(ctx context.Context, name, token string) error {
	name = strings.TrimSpace(name)
	if name == "" || token == "" {
		return ErrInvalidArgument
	}
	deleted, err := unlockScript.Run(ctx, l.rdb, []string{Key(name)}, token).Int64()
	if err != nil {
		return fmt.Errorf("release lock %s: %w", name, err)
	}
	if deleted == 0 {
		return ErrNotHeld
	}
	return nil
}

func (l *Locker) nextToken() string {
	return l.processID + "-" + strconv.FormatUint(l.seq.Add(1), 10)
}

// Name 锁名（不含前缀）
func (k *Lock) Name() string {
	return k.name
}

// Token 持有者令牌
func (k *Lock) Token() string {
	return k.token
}

// Unlock 释放锁
func (k *Lock) Unlock(ctx context.Context) error {
	if k == nil || k.locker == nil {
		return ErrNotHeld
	}
	return k.locker.Release(ctx, k.name, k.token)
}

// Key 锁在 Redis 中的键
func Key(name string) string {
	return constants.LockKeyPrefix + name
}
