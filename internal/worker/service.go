package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hmdp-next/internal/constants"
	"github.com/hmdp-next/internal/logger"
	"github.com/hmdp-next/internal/queue"

	"go.uber.org/zap"
)

// Options 订单消费服务配置
type Options struct {
	Block      time.Duration
	MinBackoff time.Duration
	MaxBackoff time.Duration
	Logger     *zap.SugaredLogger
}

func (o Options) normalize() Options {
	if o.Block <= 0 {
		o.Block = constants.OrderStreamBlock
	}
	if o.MinBackoff <= 0 {
		o.MinBackoff = constants.OrderRecoveryMinGap
	}
	if o.MaxBackoff < o.MinBackoff {
		o.MaxBackoff = o.MinBackoff
	}
	if o.Logger == nil {
		o.Logger = logger.Named("worker")
	}
	return o
}

// OrderService 秒杀订单消费服务，单实例运行
type OrderService struct {
	name     string
	stream   *queue.StreamClient
	consumer *Consumer
	opts     Options

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewOrderService 创建订单消费服务
func NewOrderService(stream *queue.StreamClient, consumer *Consumer, opts Options) (*OrderService, error) {
	if stream == nil {
		return nil, errors.New("order stream is nil")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	return &OrderService{
		name:     "worker",
		stream:   stream,
		consumer: consumer,
		opts:     opts.normalize(),
	}, nil
}

// Name 服务名称
func (s *OrderService) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务，阻塞直到 ctx 取消或 Stop 被调用
func (s *OrderService) Start(ctx context.Context) error {
	if s == nil || s.stream == nil || s.consumer == nil {
		return errors.New("worker not initialized")
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.mu.Lock()
	if s.done != nil {
		s.mu.Unlock()
		cancel()
		return errors.New("worker already started")
	}
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()
	defer close(done)
	defer cancel()

	if err := s.stream.EnsureGroup(ctx); err != nil {
		return err
	}
	cfg := s.stream.Config()
	s.opts.Logger.Infow("worker_order_consumer_started", "stream", cfg.Stream, "group", cfg.Group, "consumer", cfg.Consumer)

	// 启动时先处理上次未确认的条目
	s.recoverPending(ctx)
	s.runMainLoop(ctx)
	return nil
}

// Stop 停止服务并等待循环退出
func (s *OrderService) Stop(ctx context.Context) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *OrderService) runMainLoop(ctx context.Context) {
	for ctx.Err() == nil {
		entry, err := s.stream.ReadNew(ctx, s.opts.Block)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, queue.ErrInvalidEntry) && entry != nil {
				if s.consumer.Discard(ctx, entry, err) == nil {
					continue
				}
			} else {
				s.opts.Logger.Warnw("worker_order_read_failed", "error", err)
			}
			s.recoverPending(ctx)
			continue
		}
		if entry == nil {
			continue
		}
		if err := s.consumer.Handle(ctx, entry); err != nil {
			if ctx.Err() != nil {
				return
			}
			s.opts.Logger.Warnw("worker_order_handle_failed", "stream_id", entry.ID, "order_id", entry.OrderID, "error", err)
			s.recoverPending(ctx)
		}
	}
}

// recoverPending 逐条处理 pending-list，直到为空或 ctx 取消
func (s *OrderService) recoverPending(ctx context.Context) {
	backoff := s.opts.MinBackoff
	for ctx.Err() == nil {
		entry, err := s.stream.ReadPending(ctx)
		if err != nil {
			if errors.Is(err, queue.ErrInvalidEntry) && entry != nil {
				if s.consumer.Discard(ctx, entry, err) == nil {
					backoff = s.opts.MinBackoff
					continue
				}
			} else {
				s.opts.Logger.Warnw("worker_order_pending_read_failed", "error", err, "backoff", backoff)
			}
		} else if entry == nil {
			return
		} else if err := s.consumer.Handle(ctx, entry); err != nil {
			s.opts.Logger.Warnw("worker_order_pending_handle_failed", "stream_id", entry.ID, "order_id", entry.OrderID, "error", err, "backoff", backoff)
		} else {
			backoff = s.opts.MinBackoff
			continue
		}

		if !sleepContext(ctx, backoff) {
			return
		}
		backoff *= 2
		if backoff > s.opts.MaxBackoff {
			backoff = s.opts.MaxBackoff
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
