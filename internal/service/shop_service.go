package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hmdp-next/internal/cache"
	"github.com/hmdp-next/internal/constants"
	"github.com/hmdp-next/internal/models"
	"github.com/hmdp-next/internal/repository"

	"gorm.io/gorm"
)

// ShopService 商铺业务服务
type ShopService struct {
	db         *gorm.DB
	repo       repository.ShopRepository
	cache      *cache.Client
	strategy   string
	ttl        time.Duration
	logicalTTL time.Duration
}

// NewShopService 创建商铺服务
func NewShopService(db *gorm.DB, repo repository.ShopRepository, cacheClient *cache.Client, strategy string, ttl, logicalTTL time.Duration) *ShopService {
	if ttl <= 0 {
		ttl = constants.CacheShopTTL
	}
	if logicalTTL <= 0 {
		logicalTTL = constants.CacheLogicalTTL
	}
	return &ShopService{
		db:         db,
		repo:       repo,
		cache:      cacheClient,
		strategy:   NormalizeCacheStrategy(strategy),
		ttl:        ttl,
		logicalTTL: logicalTTL,
	}
}

// NormalizeCacheStrategy 规范化缓存策略，未知值回退为互斥重建
func NormalizeCacheStrategy(strategy string) string {
	switch strings.ToLower(strings.TrimSpace(strategy)) {
	case constants.CacheStrategyPassThrough:
		return constants.CacheStrategyPassThrough
	case constants.CacheStrategyLogical:
		return constants.CacheStrategyLogical
	default:
		return constants.CacheStrategyMutex
	}
}

// Strategy 当前缓存策略
func (s *ShopService) Strategy() string {
	return s.strategy
}

// QueryByID 按配置的缓存策略查询商铺
func (s *ShopService) QueryByID(ctx context.Context, id int64) (*models.Shop, error) {
	if id <= 0 {
		return nil, ErrInvalidArgument
	}
	var (
		shop *models.Shop
		err  error
	)
	switch s.strategy {
	case constants.CacheStrategyPassThrough:
		shop, err = cache.QueryWithPassThrough(ctx, s.cache, s.source(s.ttl), id)
	case constants.CacheStrategyLogical:
		shop, err = cache.QueryWithLogicalExpire(ctx, s.cache, s.source(s.logicalTTL), id)
	default:
		shop, err = cache.QueryWithMutex(ctx, s.cache, s.source(s.ttl), id)
	}
	if err != nil {
		return nil, mapCacheError(err, ErrShopNotFound)
	}
	return shop, nil
}

// Update 先更新数据库再删除缓存
func (s *ShopService) Update(ctx context.Context, shop *models.Shop) error {
	if shop == nil || shop.ID <= 0 {
		return ErrInvalidArgument
	}
	repo := s.repo.WithTx(s.db.WithContext(ctx))
	existing, err := repo.GetByID(shop.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrShopNotFound
	}
	shop.CreatedAt = existing.CreatedAt
	if err := repo.Update(shop); err != nil {
		return fmt.Errorf("update shop: %w", err)
	}
	if s.strategy == constants.CacheStrategyLogical {
		// 逻辑过期缓存没有物理 TTL，删除后需要重新预热
		return s.Preheat(ctx, shop.ID, s.logicalTTL)
	}
	return s.cache.Delete(ctx, shopCacheKey(shop.ID))
}

// Preheat 预热商铺的逻辑过期缓存
func (s *ShopService) Preheat(ctx context.Context, id int64, ttl time.Duration) error {
	if id <= 0 {
		return ErrInvalidArgument
	}
	if ttl <= 0 {
		ttl = s.logicalTTL
	}
	shop, err := s.loadShop(ctx, id)
	if err != nil {
		return err
	}
	if shop == nil {
		return ErrShopNotFound
	}
	return s.cache.SetWithLogicalExpire(ctx, shopCacheKey(id), shop, ttl)
}

// ListByType 按类型分页查询商铺
func (s *ShopService) ListByType(ctx context.Context, typeID int64, page int) ([]models.Shop, int64, error) {
	if typeID <= 0 {
		return nil, 0, ErrInvalidArgument
	}
	return s.repo.WithTx(s.db.WithContext(ctx)).List(repository.ShopListFilter{
		Page:     page,
		PageSize: constants.DefaultPageSize,
		TypeID:   typeID,
	})
}

func (s *ShopService) source(ttl time.Duration) cache.Source[int64, models.Shop] {
	return cache.Source[int64, models.Shop]{
		KeyPrefix:  constants.CacheShopKeyPrefix,
		LockPrefix: constants.LockShopNamePrefix,
		TTL:        ttl,
		Load:       s.loadShop,
	}
}

func (s *ShopService) loadShop(ctx context.Context, id int64) (*models.Shop, error) {
	return s.repo.WithTx(s.db.WithContext(ctx)).GetByID(id)
}

func shopCacheKey(id int64) string {
	return fmt.Sprintf("%s%d", constants.CacheShopKeyPrefix, id)
}
