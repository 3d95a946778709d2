package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hmdp-next/internal/cache"
	"github.com/hmdp-next/internal/constants"
	"github.com/hmdp-next/internal/models"
	"github.com/hmdp-next/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// VoucherService 优惠券业务服务
type VoucherService struct {
	db          *gorm.DB
	voucherRepo repository.VoucherRepository
	seckillRepo repository.SeckillVoucherRepository
	rdb         redis.Cmdable
	cache       *cache.Client
	cacheTTL    time.Duration
}

// NewVoucherService 创建优惠券服务
func NewVoucherService(db *gorm.DB, voucherRepo repository.VoucherRepository, seckillRepo repository.SeckillVoucherRepository, rdb redis.Cmdable, cacheClient *cache.Client, cacheTTL time.Duration) *VoucherService {
	if cacheTTL <= 0 {
		cacheTTL = constants.CacheVoucherTTL
	}
	return &VoucherService{
		db:          db,
		voucherRepo: voucherRepo,
		seckillRepo: seckillRepo,
		rdb:         rdb,
		cache:       cacheClient,
		cacheTTL:    cacheTTL,
	}
}

// AddSeckillVoucherInput 新增秒杀券输入
type AddSeckillVoucherInput struct {
	ShopID      int64
	Title       string
	SubTitle    string
	Rules       string
	PayValue    decimal.Decimal
	ActualValue decimal.Decimal
	Stock       int
	BeginTime   time.Time
	EndTime     time.Time
}

func (in AddSeckillVoucherInput) validate() error {
	if in.ShopID <= 0 || strings.TrimSpace(in.Title) == "" {
		return ErrInvalidArgument
	}
	if !in.PayValue.IsPositive() || !in.ActualValue.IsPositive() {
		return ErrInvalidArgument
	}
	if in.Stock < 0 {
		return ErrInvalidArgument
	}
	if in.BeginTime.IsZero() || in.EndTime.IsZero() || !in.BeginTime.Before(in.EndTime) {
		return ErrInvalidArgument
	}
	return nil
}

// AddSeckillVoucher 新增秒杀券：同一事务写入优惠券与秒杀信息，再初始化 Redis 库存
func (s *VoucherService) AddSeckillVoucher(ctx context.Context, input AddSeckillVoucherInput) (*models.Voucher, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	voucher := &models.Voucher{
		ShopID:      input.ShopID,
		Title:       strings.TrimSpace(input.Title),
		SubTitle:    strings.TrimSpace(input.SubTitle),
		Rules:       strings.TrimSpace(input.Rules),
		PayValue:    models.NewMoneyFromDecimal(input.PayValue),
		ActualValue: models.NewMoneyFromDecimal(input.ActualValue),
		Type:        constants.VoucherTypeSeckill,
		Status:      constants.VoucherStatusOnShelf,
	}
	seckill := &models.SeckillVoucher{
		Stock:     input.Stock,
		BeginTime: input.BeginTime,
		EndTime:   input.EndTime,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.voucherRepo.WithTx(tx).Create(voucher); err != nil {
			return err
		}
		seckill.VoucherID = voucher.ID
		return s.seckillRepo.WithTx(tx).Create(seckill)
	})
	if err != nil {
		return nil, fmt.Errorf("create seckill voucher: %w", err)
	}
	voucher.SeckillVoucher = seckill

	if err := s.rdb.Set(ctx, SeckillStockKey(voucher.ID), seckill.Stock, 0).Err(); err != nil {
		return nil, fmt.Errorf("init seckill stock: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.Delete(ctx, voucherCacheKey(voucher.ID)); err != nil {
			return nil, err
		}
	}
	return voucher, nil
}

// GetSeckillVoucher 通过缓存获取秒杀信息（互斥重建）
func (s *VoucherService) GetSeckillVoucher(ctx context.Context, voucherID int64) (*models.SeckillVoucher, error) {
	if voucherID <= 0 {
		return nil, ErrInvalidArgument
	}
	if s.cache == nil {
		item, err := s.loadSeckillVoucher(ctx, voucherID)
		if err != nil {
			return nil, err
		}
		if item == nil {
			return nil, ErrVoucherNotFound
		}
		return item, nil
	}
	item, err := cache.QueryWithMutex(ctx, s.cache, s.seckillSource(), voucherID)
	if err != nil {
		return nil, mapCacheError(err, ErrVoucherNotFound)
	}
	return item, nil
}

// GetVoucher 获取优惠券详情（含秒杀信息）
func (s *VoucherService) GetVoucher(ctx context.Context, voucherID int64) (*models.Voucher, error) {
	if voucherID <= 0 {
		return nil, ErrInvalidArgument
	}
	voucher, err := s.voucherRepo.WithTx(s.db.WithContext(ctx)).GetByID(voucherID)
	if err != nil {
		return nil, err
	}
	if voucher == nil {
		return nil, ErrVoucherNotFound
	}
	return voucher, nil
}

// CheckSeckillWindow 校验秒杀时间窗口
func (s *VoucherService) CheckSeckillWindow(ctx context.Context, voucherID int64, now time.Time) error {
	item, err := s.GetSeckillVoucher(ctx, voucherID)
	if err != nil {
		return err
	}
	if !item.Started(now) {
		return ErrSeckillNotStarted
	}
	if item.Ended(now) {
		return ErrSeckillEnded
	}
	return nil
}

func (s *VoucherService) seckillSource() cache.Source[int64, models.SeckillVoucher] {
	return cache.Source[int64, models.SeckillVoucher]{
		KeyPrefix:  constants.CacheVoucherKeyPrefix,
		LockPrefix: constants.LockVoucherNamePrefix,
		TTL:        s.cacheTTL,
		Load:       s.loadSeckillVoucher,
	}
}

func (s *VoucherService) loadSeckillVoucher(ctx context.Context, voucherID int64) (*models.SeckillVoucher, error) {
	return s.seckillRepo.WithTx(s.db.WithContext(ctx)).GetByVoucherID(voucherID)
}

func voucherCacheKey(voucherID int64) string {
	return fmt.Sprintf("%s%d", constants.CacheVoucherKeyPrefix, voucherID)
}

// mapCacheError 将缓存层错误转换为业务错误
func mapCacheError(err error, notFound error) error {
	switch {
	case errors.Is(err, cache.ErrNotFound):
		return notFound
	case errors.Is(err, cache.ErrContention):
		return ErrContention
	default:
		return err
	}
}
