package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/hmdp-next/internal/cache"
	"github.com/hmdp-next/internal/idgen"
	"github.com/hmdp-next/internal/identity"
	"github.com/hmdp-next/internal/lock"
	"github.com/hmdp-next/internal/models"
	"github.com/hmdp-next/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type serviceFixture struct {
	db       *gorm.DB
	mr       *miniredis.Miniredis
	rdb      *redis.Client
	locker   *lock.Locker
	cache    *cache.Client
	vouchers *VoucherService
	orders   *VoucherOrderService
	shops    *ShopService
}

func newServiceFixture(t *testing.T, strategy string) *serviceFixture {
	t.Helper()
	dsn := fmt.Sprintf("file:service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	locker := lock.NewLocker(rdb)
	cacheClient := cache.NewClient(rdb, locker, cache.Options{
		RetryAttempts:    20,
		RetryMinInterval: 5 * time.Millisecond,
		RetryMaxInterval: 50 * time.Millisecond,
		Logger:           zap.NewNop().Sugar(),
	})
	t.Cleanup(func() { _ = cacheClient.Close() })

	voucherRepo := repository.NewVoucherRepository(db)
	seckillRepo := repository.NewSeckillVoucherRepository(db)
	orderRepo := repository.NewVoucherOrderRepository(db)
	vouchers := NewVoucherService(db, voucherRepo, seckillRepo, rdb, cacheClient, time.Minute)
	orders := NewVoucherOrderService(db, orderRepo, seckillRepo, vouchers,
		NewAdmissionGate(rdb, ""), idgen.NewWorker(rdb), locker, 10*time.Second)
	shops := NewShopService(db, repository.NewShopRepository(db), cacheClient, strategy, time.Minute, time.Minute)

	return &serviceFixture{
		db:       db,
		mr:       mr,
		rdb:      rdb,
		locker:   locker,
		cache:    cacheClient,
		vouchers: vouchers,
		orders:   orders,
		shops:    shops,
	}
}

func (f *serviceFixture) addVoucher(t *testing.T, stock int) *models.Voucher {
	t.Helper()
	now := time.Now()
	voucher, err := f.vouchers.AddSeckillVoucher(context.Background(), AddSeckillVoucherInput{
		ShopID:      1,
		Title:       "100元代金券",
		PayValue:    decimal.NewFromInt(80),
		ActualValue: decimal.NewFromInt(100),
		Stock:       stock,
		BeginTime:   now.Add(-time.Hour),
		EndTime:     now.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("add seckill voucher failed: %v", err)
	}
	return voucher
}

func userContext(userID int64) context.Context {
	return identity.WithUser(context.Background(), &models.UserDTO{ID: userID, NickName: fmt.Sprintf("user_%d", userID)})
}
