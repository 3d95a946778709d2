package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hmdp-next/internal/idgen"
	"github.com/hmdp-next/internal/identity"
	"github.com/hmdp-next/internal/lock"
	"github.com/hmdp-next/internal/models"
	"github.com/hmdp-next/internal/queue"
	"github.com/hmdp-next/internal/repository"
	"github.com/hmdp-next/internal/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakePersister struct {
	mu      sync.Mutex
	calls   int
	failFor int
	result  error
	seen    []int64
}

func (p *fakePersister) CreateVoucherOrder(_ context.Context, entry queue.OrderEntry) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.seen = append(p.seen, entry.OrderID)
	if p.calls <= p.failFor {
		return errors.New("db unavailable")
	}
	return p.result
}

func (p *fakePersister) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func newTestStream(t *testing.T) (*queue.StreamClient, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	stream := queue.NewStreamClient(rdb, queue.StreamConfig{})
	if err := stream.EnsureGroup(context.Background()); err != nil {
		t.Fatalf("ensure group failed: %v", err)
	}
	return stream, mr, rdb
}

func startOrderService(t *testing.T, stream *queue.StreamClient, persister OrderPersister) *OrderService {
	t.Helper()
	nop := zap.NewNop().Sugar()
	svc, err := NewOrderService(stream, NewConsumer(stream, persister, nop), Options{
		Block:      30 * time.Millisecond,
		MinBackoff: time.Millisecond,
		MaxBackoff: 5 * time.Millisecond,
		Logger:     nop,
	})
	if err != nil {
		t.Fatalf("new order service failed: %v", err)
	}
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Start(context.Background()) }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := svc.Stop(ctx); err != nil {
			t.Errorf("stop worker failed: %v", err)
		}
		if err := <-errCh; err != nil {
			t.Errorf("worker exited with error: %v", err)
		}
	})
	return svc
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timeout waiting for %s", what)
}

func pendingCount(t *testing.T, stream *queue.StreamClient) int64 {
	t.Helper()
	count, err := stream.PendingCount(context.Background())
	if err != nil {
		t.Fatalf("pending count failed: %v", err)
	}
	return count
}

func TestConsumerRetriesTransientFailureUntilAcked(t *testing.T) {
	stream, _, _ := newTestStream(t)
	persister := &fakePersister{failFor: 3}
	startOrderService(t, stream, persister)

	if _, err := stream.Append(context.Background(), queue.OrderEntry{OrderID: 5, UserID: 1, VoucherID: 2}); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	waitFor(t, "entry acked", func() bool { return persister.Calls() >= 4 && pendingCount(t, stream) == 0 })

	persister.mu.Lock()
	defer persister.mu.Unlock()
	for _, id := range persister.seen {
		if id != 5 {
			t.Fatalf("unexpected order id %d delivered", id)
		}
	}
}

func TestConsumerAcksTerminalOutcomes(t *testing.T) {
	for _, terminal := range []error{service.ErrOrderAlreadyExists, service.ErrStockExhausted} {
		t.Run(terminal.Error(), func(t *testing.T) {
			stream, _, _ := newTestStream(t)
			persister := &fakePersister{result: fmt.Errorf("persist: %w", terminal)}
			startOrderService(t, stream, persister)

			if _, err := stream.Append(context.Background(), queue.OrderEntry{OrderID: 5, UserID: 1, VoucherID: 2}); err != nil {
				t.Fatalf("append failed: %v", err)
			}
			waitFor(t, "terminal entry acked", func() bool { return persister.Calls() == 1 && pendingCount(t, stream) == 0 })
			time.Sleep(50 * time.Millisecond)
			if persister.Calls() != 1 {
				t.Fatalf("terminal outcome should not be retried, calls=%d", persister.Calls())
			}
		})
	}
}

func TestConsumerDiscardsMalformedEntry(t *testing.T) {
	stream, mr, _ := newTestStream(t)
	persister := &fakePersister{}
	startOrderService(t, stream, persister)

	if _, err := mr.XAdd("stream.orders", "*", []string{"userId", "x"}); err != nil {
		t.Fatalf("xadd failed: %v", err)
	}
	waitFor(t, "malformed entry acked", func() bool { return pendingCount(t, stream) == 0 })
	time.Sleep(50 * time.Millisecond)
	if persister.Calls() != 0 {
		t.Fatalf("malformed entry must not reach persistence, calls=%d", persister.Calls())
	}
}

func TestStopWithoutStart(t *testing.T) {
	stream, _, _ := newTestStream(t)
	svc, err := NewOrderService(stream, NewConsumer(stream, &fakePersister{}, zap.NewNop().Sugar()), Options{})
	if err != nil {
		t.Fatalf("new order service failed: %v", err)
	}
	if err := svc.Stop(context.Background()); err != nil {
		t.Fatalf("stop before start should be a no-op, got %v", err)
	}
	if svc.Name() != "worker" {
		t.Fatalf("unexpected service name %q", svc.Name())
	}
}

func TestEntriesAppendedBeforeGroupAreDelivered(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	stream := queue.NewStreamClient(rdb, queue.StreamConfig{})

	// api 进程先于 worker 启动：条目写入时消费者组尚不存在
	if _, err := stream.Append(context.Background(), queue.OrderEntry{OrderID: 1, UserID: 2, VoucherID: 3}); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	persister := &fakePersister{}
	startOrderService(t, stream, persister)

	waitFor(t, "early entry persisted", func() bool { return persister.Calls() == 1 && pendingCount(t, stream) == 0 })
}

// failingAckHook 让所有 XACK 调用失败并计数
type failingAckHook struct {
	acks atomic.Int64
}

func (h *failingAckHook) DialHook(next redis.DialHook) redis.DialHook { return next }

func (h *failingAckHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		if cmd.Name() == "xack" {
			h.acks.Add(1)
			err := errors.New("ack unavailable")
			cmd.SetErr(err)
			return err
		}
		return next(ctx, cmd)
	}
}

func (h *failingAckHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func TestRecoverPendingBacksOffWhenDiscardAckFails(t *testing.T) {
	stream, mr, rdb := newTestStream(t)
	ctx := context.Background()
	if _, err := mr.XAdd("stream.orders", "*", []string{"userId", "x"}); err != nil {
		t.Fatalf("xadd failed: %v", err)
	}
	if _, err := stream.ReadNew(ctx, 30*time.Millisecond); !errors.Is(err, queue.ErrInvalidEntry) {
		t.Fatalf("expected malformed entry to be delivered, got %v", err)
	}

	hook := &failingAckHook{}
	rdb.AddHook(hook)
	nop := zap.NewNop().Sugar()
	svc, err := NewOrderService(stream, NewConsumer(stream, &fakePersister{}, nop), Options{
		MinBackoff: 20 * time.Millisecond,
		MaxBackoff: 20 * time.Millisecond,
		Logger:     nop,
	})
	if err != nil {
		t.Fatalf("new order service failed: %v", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()
	svc.recoverPending(runCtx)

	acks := hook.acks.Load()
	if acks == 0 {
		t.Fatalf("malformed pending entry should be acked")
	}
	if acks > 20 {
		t.Fatalf("ack retries should back off, got %d attempts in 200ms", acks)
	}
	if pendingCount(t, stream) != 1 {
		t.Fatalf("entry should stay pending while ack fails")
	}
}

type pipeline struct {
	db     *gorm.DB
	stream *queue.StreamClient
	orders *service.VoucherOrderService
	vouch  *models.Voucher
}

func newPipeline(t *testing.T, stock int) *pipeline {
	t.Helper()
	stream, _, rdb := newTestStream(t)
	dsn := fmt.Sprintf("file:worker_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	locker := lock.NewLocker(rdb)
	seckillRepo := repository.NewSeckillVoucherRepository(db)
	vouchers := service.NewVoucherService(db, repository.NewVoucherRepository(db), seckillRepo, rdb, nil, time.Minute)
	orders := service.NewVoucherOrderService(db, repository.NewVoucherOrderRepository(db), seckillRepo, vouchers,
		service.NewAdmissionGate(rdb, ""), idgen.NewWorker(rdb), locker, 10*time.Second)

	now := time.Now()
	voucher, err := vouchers.AddSeckillVoucher(context.Background(), service.AddSeckillVoucherInput{
		ShopID:      1,
		Title:       "秒杀券",
		PayValue:    decimal.NewFromInt(1),
		ActualValue: decimal.NewFromInt(10),
		Stock:       stock,
		BeginTime:   now.Add(-time.Hour),
		EndTime:     now.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("add voucher failed: %v", err)
	}
	return &pipeline{db: db, stream: stream, orders: orders, vouch: voucher}
}

func (p *pipeline) orderCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	if err := p.db.Model(&models.VoucherOrder{}).Count(&count).Error; err != nil {
		t.Fatalf("count orders failed: %v", err)
	}
	return count
}

func TestAdmittedOrdersArePersisted(t *testing.T) {
	p := newPipeline(t, 3)
	startOrderService(t, p.stream, p.orders)

	var ids []int64
	for userID := int64(1); userID <= 4; userID++ {
		ctx := identity.WithUser(context.Background(), &models.UserDTO{ID: userID})
		id, err := p.orders.Seckill(ctx, p.vouch.ID)
		if userID == 4 {
			if !errors.Is(err, service.ErrStockExhausted) {
				t.Fatalf("fourth buyer should see exhausted stock, got %v", err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("seckill failed: %v", err)
		}
		ids = append(ids, id)
	}

	waitFor(t, "orders persisted", func() bool { return p.orderCount(t) == 3 && pendingCount(t, p.stream) == 0 })
	for _, id := range ids {
		var order models.VoucherOrder
		if err := p.db.First(&order, id).Error; err != nil {
			t.Fatalf("order %d not persisted: %v", id, err)
		}
	}
	var item models.SeckillVoucher
	if err := p.db.Where("voucher_id = ?", p.vouch.ID).First(&item).Error; err != nil {
		t.Fatalf("load seckill voucher failed: %v", err)
	}
	if item.Stock != 0 {
		t.Fatalf("db stock want 0 got %d", item.Stock)
	}
}

func TestCrashRecoveryPersistsPendingOnce(t *testing.T) {
	p := newPipeline(t, 2)
	ctx := context.Background()

	if _, err := p.stream.Append(ctx, queue.OrderEntry{OrderID: 9001, UserID: 8, VoucherID: p.vouch.ID}); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	// 模拟消费者读取后崩溃：条目已投递但未确认
	delivered, err := p.stream.ReadNew(ctx, 30*time.Millisecond)
	if err != nil || delivered == nil {
		t.Fatalf("read new failed: entry=%v err=%v", delivered, err)
	}
	if pendingCount(t, p.stream) != 1 {
		t.Fatalf("entry should be pending before restart")
	}

	startOrderService(t, p.stream, p.orders)
	waitFor(t, "pending entry recovered", func() bool { return p.orderCount(t) == 1 && pendingCount(t, p.stream) == 0 })
}

func TestRedeliveredEntryIsIdempotent(t *testing.T) {
	p := newPipeline(t, 2)
	ctx := context.Background()
	entry := queue.OrderEntry{OrderID: 9002, UserID: 8, VoucherID: p.vouch.ID}

	// 已落库但确认前崩溃
	if err := p.orders.CreateVoucherOrder(ctx, entry); err != nil {
		t.Fatalf("first persist failed: %v", err)
	}
	if _, err := p.stream.Append(ctx, entry); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if _, err := p.stream.ReadNew(ctx, 30*time.Millisecond); err != nil {
		t.Fatalf("read new failed: %v", err)
	}

	startOrderService(t, p.stream, p.orders)
	waitFor(t, "redelivered entry acked", func() bool { return pendingCount(t, p.stream) == 0 })
	if got := p.orderCount(t); got != 1 {
		t.Fatalf("redelivery must not duplicate the order, rows=%d", got)
	}
}

var _ OrderPersister = (*service.VoucherOrderService)(nil)
