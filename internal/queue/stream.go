// Package queue 基于 Redis Stream 消费者组的持久化订单队列。
package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hmdp-next/internal/constants"

	"github.com/redis/go-redis/v9"
)

// StreamConfig 队列拓扑
type StreamConfig struct {
	Stream   string
	Group    string
	Consumer string
}

func (c StreamConfig) normalize() StreamConfig {
	if strings.TrimSpace(c.Stream) == "" {
		c.Stream = constants.OrderStreamKey
	}
	if strings.TrimSpace(c.Group) == "" {
		c.Group = constants.OrderConsumerGroup
	}
	if strings.TrimSpace(c.Consumer) == "" {
		c.Consumer = constants.OrderConsumerName
	}
	return c
}

// StreamClient 订单流客户端
type StreamClient struct {
	rdb redis.Cmdable
	cfg StreamConfig
}

// NewStreamClient 创建订单流客户端
func NewStreamClient(rdb redis.Cmdable, cfg StreamConfig) *StreamClient {
	return &StreamClient{rdb: rdb, cfg: cfg.normalize()}
}

// Config 返回队列拓扑
func (c *StreamClient) Config() StreamConfig {
	return c.cfg
}

// EnsureGroup 创建消费者组（流不存在时一并创建），组已存在视为成功。
// 组从流起点开始消费，建组之前已追加的条目同样会被投递
func (c *StreamClient) EnsureGroup(ctx context.Context) error {
	err := c.rdb.XGroupCreateMkStream(ctx, c.cfg.Stream, c.cfg.Group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group %s: %w", c.cfg.Group, err)
	}
	return nil
}

// Append 追加订单条目，返回流条目 ID
func (c *StreamClient) Append(ctx context.Context, entry OrderEntry) (string, error) {
	id, err := c.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: c.cfg.Stream,
		Values: entry.values(),
	}).Result()
	if err != nil {
		return "", fmt.Errorf("append order entry: %w", err)
	}
	return id, nil
}

// ReadNew 阻塞读取一条未投递的新条目，超时返回 (nil, nil)
// 条目格式非法时返回仅包含 ID 的条目和 ErrInvalidEntry，调用方可据此确认丢弃
func (c *StreamClient) ReadNew(ctx context.Context, block time.Duration) (*OrderEntry, error) {
	if block <= 0 {
		block = constants.OrderStreamBlock
	}
	return c.read(ctx, ">", block)
}

// ReadPending 读取一条已投递未确认的条目，pending-list 为空时返回 (nil, nil)
func (c *StreamClient) ReadPending(ctx context.Context) (*OrderEntry, error) {
	return c.read(ctx, "0", -1)
}

func (c *StreamClient) read(ctx context.Context, offset string, block time.Duration) (*OrderEntry, error) {
	streams, err := c.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.cfg.Group,
		Consumer: c.cfg.Consumer,
		Streams:  []string{c.cfg.Stream, offset},
		Count:    1,
		Block:    block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read order stream: %w", err)
	}
	for _, stream := range streams {
		for _, msg := range stream.Messages {
			return DecodeOrderEntry(msg)
		}
	}
	return nil, nil
}

// Ack 确认条目，移出 pending-list
func (c *StreamClient) Ack(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: empty stream id", ErrInvalidEntry)
	}
	if err := c.rdb.XAck(ctx, c.cfg.Stream, c.cfg.Group, id).Err(); err != nil {
		return fmt.Errorf("ack order entry %s: %w", id, err)
	}
	return nil
}

// PendingCount 当前 pending-list 长度
func (c *StreamClient) PendingCount(ctx context.Context) (int64, error) {
	pending, err := c.rdb.XPending(ctx, c.cfg.Stream, c.cfg.Group).Result()
	if err != nil {
		return 0, fmt.Errorf("read pending summary: %w", err)
	}
	return pending.Count, nil
}
