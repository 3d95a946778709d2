package provider

import (
	"errors"

	"github.com/hmdp-next/internal/cache"
	"github.com/hmdp-next/internal/config"
	"github.com/hmdp-next/internal/idgen"
	"github.com/hmdp-next/internal/lock"
	"github.com/hmdp-next/internal/logger"
	"github.com/hmdp-next/internal/queue"
	"github.com/hmdp-next/internal/repository"
	"github.com/hmdp-next/internal/service"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Container 依赖注入容器
type Container struct {
	Config *config.Config
	DB     *gorm.DB
	Redis  *redis.Client

	// Infrastructure
	Locker      *lock.Locker
	IDWorker    *idgen.Worker
	Cache       *cache.Client
	LoginUsers  *cache.LoginUserStore
	OrderStream *queue.StreamClient

	// Repositories
	ShopRepo           repository.ShopRepository
	VoucherRepo        repository.VoucherRepository
	SeckillVoucherRepo repository.SeckillVoucherRepository
	VoucherOrderRepo   repository.VoucherOrderRepository

	// Services
	AdmissionGate       *service.AdmissionGate
	ShopService         *service.ShopService
	VoucherService      *service.VoucherService
	VoucherOrderService *service.VoucherOrderService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*Container, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if db == nil {
		return nil, errors.New("db is nil")
	}
	if rdb == nil {
		return nil, errors.New("redis client is nil")
	}

	c := &Container{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	// 1. 初始化基础组件
	c.initInfrastructure()

	// 2. 初始化 Repositories
	c.initRepositories()

	// 3. 初始化 Services
	c.initServices()

	return c, nil
}

func (c *Container) initInfrastructure() {
	cfg := c.Config
	c.Locker = lock.NewLocker(c.Redis)
	c.IDWorker = idgen.NewWorker(c.Redis, idgen.WithEpoch(cfg.IDGen.EpochUnix))
	c.Cache = cache.NewClient(c.Redis, c.Locker, cache.Options{
		NullTTL:          cfg.Cache.NullTTL(),
		LockTTL:          cfg.Cache.LockTTL(),
		RetryAttempts:    cfg.Cache.RetryAttempts,
		RetryMinInterval: cfg.Cache.RetryMinInterval(),
		RetryMaxInterval: cfg.Cache.RetryMaxInterval(),
		RebuildWorkers:   cfg.Cache.RebuildWorkers,
		Logger:           logger.Named("cache"),
	})
	c.LoginUsers = cache.NewLoginUserStore(c.Redis, cfg.Login.TokenTTL())
	c.OrderStream = queue.NewStreamClient(c.Redis, queue.StreamConfig{
		Stream:   cfg.Seckill.Stream,
		Group:    cfg.Seckill.Group,
		Consumer: cfg.Seckill.Consumer,
	})
}

func (c *Container) initRepositories() {
	db := c.DB
	c.ShopRepo = repository.NewShopRepository(db)
	c.VoucherRepo = repository.NewVoucherRepository(db)
	c.SeckillVoucherRepo = repository.NewSeckillVoucherRepository(db)
	c.VoucherOrderRepo = repository.NewVoucherOrderRepository(db)
}

func (c *Container) initServices() {
	cfg := c.Config
	c.AdmissionGate = service.NewAdmissionGate(c.Redis, c.OrderStream.Config().Stream)
	c.ShopService = service.NewShopService(c.DB, c.ShopRepo, c.Cache, cfg.Cache.Strategy, cfg.Cache.ShopTTL(), cfg.Cache.LogicalTTL())
	c.VoucherService = service.NewVoucherService(c.DB, c.VoucherRepo, c.SeckillVoucherRepo, c.Redis, c.Cache, cfg.Cache.VoucherTTL())
	c.VoucherOrderService = service.NewVoucherOrderService(c.DB, c.VoucherOrderRepo, c.SeckillVoucherRepo, c.VoucherService, c.AdmissionGate, c.IDWorker, c.Locker, cfg.Seckill.OrderLockTTL())
}

// Close 等待后台缓存重建结束并释放连接
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.Cache != nil {
		errs = append(errs, c.Cache.Close())
	}
	if c.Redis != nil {
		errs = append(errs, c.Redis.Close())
	}
	if c.DB != nil {
		if sqlDB, err := c.DB.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}
