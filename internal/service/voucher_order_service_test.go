package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/hmdp-next/internal/models"
	"github.com/hmdp-next/internal/queue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeckillLastUnitGoesToOneUser(t *testing.T) {
	f := newServiceFixture(t, "")
	voucher := f.addVoucher(t, 1)

	orderID, err := f.orders.Seckill(userContext(1), voucher.ID)
	require.NoError(t, err)
	assert.Positive(t, orderID)

	_, err = f.orders.Seckill(userContext(2), voucher.ID)
	assert.ErrorIs(t, err, ErrStockExhausted)

	stock, err := f.mr.Get(SeckillStockKey(voucher.ID))
	require.NoError(t, err)
	assert.Equal(t, "0", stock)

	length, err := f.rdb.XLen(context.Background(), "stream.orders").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), length)
}

func TestSeckillSameUserTwiceIsRejected(t *testing.T) {
	f := newServiceFixture(t, "")
	voucher := f.addVoucher(t, 10)
	ctx := userContext(7)

	_, err := f.orders.Seckill(ctx, voucher.ID)
	require.NoError(t, err)
	_, err = f.orders.Seckill(ctx, voucher.ID)
	assert.ErrorIs(t, err, ErrDuplicateOrder)

	stock, _ := f.mr.Get(SeckillStockKey(voucher.ID))
	assert.Equal(t, "9", stock)
	members, err := f.mr.Members(SeckillOrderKey(voucher.ID))
	require.NoError(t, err)
	assert.Equal(t, []string{"7"}, members)
}

func TestSeckillConcurrentNeverOversells(t *testing.T) {
	f := newServiceFixture(t, "")
	voucher := f.addVoucher(t, 5)
	_, err := f.vouchers.GetSeckillVoucher(context.Background(), voucher.ID)
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes = map[int64]int64{}
		exhausted int
	)
	for i := 1; i <= 40; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			orderID, err := f.orders.Seckill(userContext(userID), voucher.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes[userID] = orderID
			case errors.Is(err, ErrStockExhausted):
				exhausted++
			default:
				t.Errorf("unexpected seckill error: %v", err)
			}
		}(int64(i))
	}
	wg.Wait()

	assert.Len(t, successes, 5)
	assert.Equal(t, 35, exhausted)
	stock, _ := f.mr.Get(SeckillStockKey(voucher.ID))
	assert.Equal(t, "0", stock)

	seen := map[int64]struct{}{}
	for _, id := range successes {
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, 5)
}

func TestSeckillValidatesCallerAndVoucher(t *testing.T) {
	f := newServiceFixture(t, "")

	_, err := f.orders.Seckill(context.Background(), 1)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.orders.Seckill(userContext(1), 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = f.orders.Seckill(userContext(1), 999)
	assert.ErrorIs(t, err, ErrVoucherNotFound)
}

func TestSeckillWindow(t *testing.T) {
	f := newServiceFixture(t, "")
	voucher := f.addVoucher(t, 3)

	f.orders.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	_, err := f.orders.Seckill(userContext(1), voucher.ID)
	assert.ErrorIs(t, err, ErrSeckillNotStarted)

	f.orders.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = f.orders.Seckill(userContext(1), voucher.ID)
	assert.ErrorIs(t, err, ErrSeckillEnded)

	stock, _ := f.mr.Get(SeckillStockKey(voucher.ID))
	assert.Equal(t, "3", stock)
}

func TestCreateVoucherOrderPersistsOnce(t *testing.T) {
	f := newServiceFixture(t, "")
	voucher := f.addVoucher(t, 2)
	entry := queue.OrderEntry{OrderID: 123456, UserID: 3, VoucherID: voucher.ID, Timestamp: time.Now()}
	ctx := context.Background()

	require.NoError(t, f.orders.CreateVoucherOrder(ctx, entry))
	err := f.orders.CreateVoucherOrder(ctx, entry)
	assert.ErrorIs(t, err, ErrOrderAlreadyExists)

	var count int64
	require.NoError(t, f.db.Model(&models.VoucherOrder{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var item models.SeckillVoucher
	require.NoError(t, f.db.Where("voucher_id = ?", voucher.ID).First(&item).Error)
	assert.Equal(t, 1, item.Stock)
	assert.False(t, f.mr.Exists("lock:order:3"))
}

func TestCreateVoucherOrderStockExhausted(t *testing.T) {
	f := newServiceFixture(t, "")
	voucher := f.addVoucher(t, 0)

	err := f.orders.CreateVoucherOrder(context.Background(), queue.OrderEntry{OrderID: 1, UserID: 3, VoucherID: voucher.ID})
	assert.ErrorIs(t, err, ErrStockExhausted)

	var count int64
	require.NoError(t, f.db.Model(&models.VoucherOrder{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestCreateVoucherOrderLockContention(t *testing.T) {
	f := newServiceFixture(t, "")
	voucher := f.addVoucher(t, 2)
	_, err := f.locker.TryLock(context.Background(), "order:3", time.Minute)
	require.NoError(t, err)

	err = f.orders.CreateVoucherOrder(context.Background(), queue.OrderEntry{OrderID: 1, UserID: 3, VoucherID: voucher.ID})
	assert.ErrorIs(t, err, ErrContention)
}

func TestGetOrderOnlyForOwner(t *testing.T) {
	f := newServiceFixture(t, "")
	voucher := f.addVoucher(t, 2)
	require.NoError(t, f.orders.CreateVoucherOrder(context.Background(), queue.OrderEntry{OrderID: 77, UserID: 3, VoucherID: voucher.ID}))

	order, err := f.orders.GetOrder(userContext(3), 77)
	require.NoError(t, err)
	assert.Equal(t, voucher.ID, order.VoucherID)

	_, err = f.orders.GetOrder(userContext(4), 77)
	assert.ErrorIs(t, err, ErrOrderNotFound)
	_, err = f.orders.GetOrder(context.Background(), 77)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAdmissionGateMissingStockCountsAsZero(t *testing.T) {
	f := newServiceFixture(t, "")
	gate := NewAdmissionGate(f.rdb, "")

	result, err := gate.Admit(context.Background(), 42, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, AdmissionOutOfStock, result)
	assert.False(t, f.mr.Exists(SeckillOrderKey(42)))

	require.NoError(t, f.mr.Set(SeckillStockKey(42), "1"))
	result, err = gate.Admit(context.Background(), 42, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, AdmissionAccepted, result)

	msgs, err := f.rdb.XRange(context.Background(), "stream.orders", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "100", msgs[0].Values["id"])
	assert.Equal(t, "1", msgs[0].Values["userId"])
	assert.Equal(t, strconv.Itoa(42), msgs[0].Values["voucherId"])
}
