package worker

import (
	"context"
	"errors"

	"github.com/hmdp-next/internal/logger"
	"github.com/hmdp-next/internal/queue"
	"github.com/hmdp-next/internal/service"

	"go.uber.org/zap"
)

// OrderPersister 订单持久化
type OrderPersister interface {
	CreateVoucherOrder(ctx context.Context, entry queue.OrderEntry) error
}

// Consumer 订单条目处理器
type Consumer struct {
	stream *queue.StreamClient
	orders OrderPersister
	log    *zap.SugaredLogger
}

// NewConsumer 创建订单条目处理器
func NewConsumer(stream *queue.StreamClient, orders OrderPersister, log *zap.SugaredLogger) *Consumer {
	if log == nil {
		log = logger.Named("worker")
	}
	return &Consumer{stream: stream, orders: orders, log: log}
}

// Handle 持久化条目并确认；返回错误时条目保留在 pending-list 等待重试
func (c *Consumer) Handle(ctx context.Context, entry *queue.OrderEntry) error {
	if c == nil || entry == nil {
		logger.Debugw("worker_order_skip_nil", "consumer_nil", c == nil, "entry_nil", entry == nil)
		return nil
	}
	err := c.orders.CreateVoucherOrder(ctx, *entry)
	switch {
	case err == nil:
		c.log.Infow("worker_order_created", "order_id", entry.OrderID, "user_id", entry.UserID, "voucher_id", entry.VoucherID)
	case errors.Is(err, service.ErrOrderAlreadyExists):
		c.log.Infow("worker_order_skip_already_exists", "order_id", entry.OrderID, "user_id", entry.UserID, "voucher_id", entry.VoucherID)
	case errors.Is(err, service.ErrStockExhausted):
		c.log.Warnw("worker_order_skip_stock_exhausted", "order_id", entry.OrderID, "voucher_id", entry.VoucherID)
	case errors.Is(err, service.ErrInvalidArgument):
		c.log.Warnw("worker_order_skip_invalid_entry", "stream_id", entry.ID, "error", err)
	default:
		return err
	}
	return c.stream.Ack(ctx, entry.ID)
}

// Discard 确认并丢弃无法解析的条目，返回确认失败的错误
func (c *Consumer) Discard(ctx context.Context, entry *queue.OrderEntry, cause error) error {
	if c == nil || entry == nil || entry.ID == "" {
		return nil
	}
	c.log.Warnw("worker_order_discard_malformed", "stream_id", entry.ID, "error", cause)
	if err := c.stream.Ack(ctx, entry.ID); err != nil {
		c.log.Warnw("worker_order_discard_ack_failed", "stream_id", entry.ID, "error", err)
		return err
	}
	return nil
}
