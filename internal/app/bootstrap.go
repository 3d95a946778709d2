package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hmdp-next/internal/cache"
	"github.com/hmdp-next/internal/config"
	"github.com/hmdp-next/internal/logger"
	"github.com/hmdp-next/internal/models"
	"github.com/hmdp-next/internal/provider"
	"github.com/hmdp-next/internal/router"
	"github.com/hmdp-next/internal/worker"
)

const redisPingTimeout = 5 * time.Second

// InitContainer 打开数据库与 Redis 并组装依赖容器
func InitContainer(cfg *config.Config) (*provider.Container, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	db, err := models.OpenDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}, cfg.Server.Mode == "debug")
	if err != nil {
		return nil, fmt.Errorf("数据库初始化失败: %w", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}

	rdb := cache.NewRedisClient(&cfg.Redis)
	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if err := cache.Ping(ctx, rdb); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return provider.NewContainer(cfg, db, rdb)
}

// BuildRunner 构建服务运行器
func BuildRunner(cfg *config.Config, container *provider.Container, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if container == nil {
		return nil, errors.New("container is nil")
	}

	var services []Service

	// 初始化 HTTP 服务
	if mode == ModeAll || mode == ModeAPI {
		engine := router.SetupRouter(cfg, container)
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		services = append(services, NewHTTPService(addr, engine))
	}

	// 初始化订单消费者
	if mode == ModeAll || mode == ModeWorker {
		log := logger.Named("worker")
		consumer := worker.NewConsumer(container.OrderStream, container.VoucherOrderService, log)
		workerService, err := worker.NewOrderService(container.OrderStream, consumer, worker.Options{
			Block:      cfg.Seckill.Block(),
			MinBackoff: cfg.Seckill.RecoveryMinBackoff(),
			MaxBackoff: cfg.Seckill.RecoveryMaxBackoff(),
			Logger:     log,
		})
		if err != nil {
			return nil, err
		}
		services = append(services, workerService)
	}

	if len(services) == 0 {
		return nil, fmt.Errorf("no services initialized for mode %q", mode)
	}

	return NewRunner(services...), nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	container, err := InitContainer(opts.Config)
	if err != nil {
		return err
	}
	defer func() {
		if err := container.Close(); err != nil {
			opts.Logger.Warnw("container_close_failed", "error", err)
		}
	}()

	runner, err := BuildRunner(opts.Config, container, opts.Mode)
	if err != nil {
		return err
	}

	addr := opts.Config.Server.Host + ":" + opts.Config.Server.Port
	opts.Logger.Infow("app_start", "addr", addr, "mode", opts.Mode)
	return RunWithOptions(runner, opts)
}
