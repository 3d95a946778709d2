// Package idgen 生成全局唯一、按时间递增的 64 位 ID。
//
// 布局：高 32 位为相对纪元的秒数，低 32 位为当天的 Redis 自增序列。
package idgen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hmdp-next/internal/constants"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultEpochUnix 2022-01-01T00:00:00Z
	DefaultEpochUnix int64 = 1640995200
	countBits              = 32
	counterTTL             = 48 * time.Hour
	maxSequence      int64 = 1<<countBits - 1
)

var (
	// ErrInvalidArgument 业务前缀为空
	ErrInvalidArgument = errors.New("invalid id prefix")
	// ErrSequenceOverflow 当天序列超过 32 位
	ErrSequenceOverflow = errors.New("id sequence overflow")
	// ErrClockBeforeEpoch 时钟早于纪元
	ErrClockBeforeEpoch = errors.New("clock before id epoch")
)

// counterScript 自增当天计数器，缺少过期时间时补设
var counterScript = redis.NewScript(`
local seq = redis.call('INCR', KEYS[1])
if redis.call('TTL', KEYS[1]) < 0 then
  redis.call('EXPIRE', KEYS[1], ARGV[1])
end
return seq
`)

// Option 配置项
type Option func(*Worker)

// WithEpoch 设置纪元（unix 秒）
func WithEpoch(epochUnix int64) Option {
	return func(w *Worker) {
		if epochUnix > 0 {
			w.epoch = epochUnix
		}
	}
}

// WithClock 注入时钟，便于测试
func WithClock(now func() time.Time) Option {
	return func(w *Worker) {
		if now != nil {
			w.now = now
		}
	}
}

// Worker ID 生成器
type Worker struct {
	rdb   redis.Cmdable
	epoch int64
	now   func() time.Time
}

// NewWorker 创建 ID 生成器
func NewWorker(rdb redis.Cmdable, opts ...Option) *Worker {
	w := &Worker{
		rdb:   rdb,
		epoch: DefaultEpochUnix,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// NextID 生成指定业务前缀的下一个 ID
func (w *Worker) NextID(ctx context.Context, prefix string) (int64, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return 0, ErrInvalidArgument
	}
	now := w.now().UTC()
	timestamp := now.Unix() - w.epoch
	if timestamp < 0 {
		return 0, ErrClockBeforeEpoch
	}

	key := CounterKey(prefix, now)
	seq, err := counterScript.Run(ctx, w.rdb, []string{key}, int64(counterTTL/time.Second)).Int64()
	if err != nil {
		return 0, fmt.Errorf("incr id counter %s: %w", key, err)
	}
	if seq > maxSequence {
		return 0, fmt.Errorf("%w: %s reached %d", ErrSequenceOverflow, key, seq)
	}
	return timestamp<<countBits | seq, nil
}

// CounterKey 当天计数器键 icr:<prefix>:yyyy:MM:dd
func CounterKey(prefix string, now time.Time) string {
	return constants.IDCounterKeyPrefix + prefix + ":" + now.UTC().Format("2006:01:02")
}

// Split 拆分 ID 为时间戳（相对纪元秒数）与序列
func Split(id int64) (timestamp int64, seq int64) {
	return id >> countBits, id & maxSequence
}
