package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/hmdp-next/internal/constants"
	"github.com/hmdp-next/internal/identity"
	"github.com/hmdp-next/internal/lock"
	"github.com/hmdp-next/internal/logger"
	"github.com/hmdp-next/internal/models"
	"github.com/hmdp-next/internal/queue"
	"github.com/hmdp-next/internal/repository"

	"gorm.io/gorm"
)

const unlockTimeout = 3 * time.Second

// IDGenerator 全局 ID 生成器
type IDGenerator interface {
	NextID(ctx context.Context, prefix string) (int64, error)
}

// VoucherOrderService 秒杀下单服务
type VoucherOrderService struct {
	db             *gorm.DB
	orderRepo      repository.VoucherOrderRepository
	seckillRepo    repository.SeckillVoucherRepository
	voucherService *VoucherService
	gate           *AdmissionGate
	ids            IDGenerator
	locker         *lock.Locker
	lockTTL        time.Duration
	now            func() time.Time
}

// NewVoucherOrderService 创建秒杀下单服务
func NewVoucherOrderService(db *gorm.DB, orderRepo repository.VoucherOrderRepository, seckillRepo repository.SeckillVoucherRepository, voucherService *VoucherService, gate *AdmissionGate, ids IDGenerator, locker *lock.Locker, lockTTL time.Duration) *VoucherOrderService {
	if lockTTL <= 0 {
		lockTTL = constants.OrderLockTTL
	}
	return &VoucherOrderService{
		db:             db,
		orderRepo:      orderRepo,
		seckillRepo:    seckillRepo,
		voucherService: voucherService,
		gate:           gate,
		ids:            ids,
		locker:         locker,
		lockTTL:        lockTTL,
		now:            time.Now,
	}
}

// Seckill 秒杀下单：资格判定通过即返回订单 ID，订单由后台异步落库
func (s *VoucherOrderService) Seckill(ctx context.Context, voucherID int64) (int64, error) {
	user, ok := identity.FromContext(ctx)
	if !ok {
		return 0, ErrUnauthorized
	}
	if voucherID <= 0 {
		return 0, ErrInvalidArgument
	}
	if s.voucherService != nil {
		if err := s.voucherService.CheckSeckillWindow(ctx, voucherID, s.now()); err != nil {
			return 0, err
		}
	}

	orderID, err := s.ids.NextID(ctx, constants.OrderIDPrefix)
	if err != nil {
		return 0, fmt.Errorf("generate order id: %w", err)
	}
	result, err := s.gate.Admit(ctx, voucherID, user.ID, orderID)
	if err != nil {
		return 0, err
	}
	switch result {
	case AdmissionOutOfStock:
		return 0, ErrStockExhausted
	case AdmissionDuplicate:
		return 0, ErrDuplicateOrder
	}
	logger.Debugw("seckill_admitted", "voucher_id", voucherID, "user_id", user.ID, "order_id", orderID)
	return orderID, nil
}

// CreateVoucherOrder 持久化订单：用户锁 + 事务内一人一单校验、条件扣减库存、写入订单
func (s *VoucherOrderService) CreateVoucherOrder(ctx context.Context, entry queue.OrderEntry) error {
	if entry.OrderID <= 0 || entry.UserID <= 0 || entry.VoucherID <= 0 {
		return fmt.Errorf("%w: order entry %+v", ErrInvalidArgument, entry)
	}
	held, err := s.locker.TryLock(ctx, orderLockName(entry.UserID), s.lockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return ErrContention
		}
		return err
	}
	defer func() {
		unlockCtx, cancel := context.WithTimeout(context.Background(), unlockTimeout)
		defer cancel()
		if err := held.Unlock(unlockCtx); err != nil {
			logger.Warnw("voucher_order_unlock_failed", "user_id", entry.UserID, "error", err)
		}
	}()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		count, err := s.orderRepo.WithTx(tx).CountByUserAndVoucher(entry.UserID, entry.VoucherID)
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrOrderAlreadyExists
		}
		affected, err := s.seckillRepo.WithTx(tx).DecrementStock(entry.VoucherID)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrStockExhausted
		}
		order := &models.VoucherOrder{
			ID:        entry.OrderID,
			UserID:    entry.UserID,
			VoucherID: entry.VoucherID,
			PayType:   constants.PayTypeBalance,
			Status:    constants.VoucherOrderStatusUnpaid,
		}
		if !entry.Timestamp.IsZero() {
			order.CreatedAt = entry.Timestamp
		}
		return s.orderRepo.WithTx(tx).Create(order)
	})
}

// GetOrder 查询当前用户的订单
func (s *VoucherOrderService) GetOrder(ctx context.Context, orderID int64) (*models.VoucherOrder, error) {
	user, ok := identity.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	if orderID <= 0 {
		return nil, ErrInvalidArgument
	}
	order, err := s.orderRepo.WithTx(s.db.WithContext(ctx)).GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil || order.UserID != user.ID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func orderLockName(userID int64) string {
	return constants.LockOrderNamePrefix + strconv.FormatInt(userID, 10)
}
