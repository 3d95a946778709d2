package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/hmdp-next/internal/constants"
	"github.com/hmdp-next/internal/logger"

	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Seckill  SeckillConfig  `mapstructure:"seckill"`
	Cache    CacheConfig    `mapstructure:"cache"`
	IDGen    IDGenConfig    `mapstructure:"idgen"`
	Login    LoginConfig    `mapstructure:"login"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Security SecurityConfig `mapstructure:"security"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug / release
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"` // 留空时 debug 模式为 debug，其余为 info
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ToLoggerOptions 转换为 logger 配置
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Level:      c.Level,
		Service:    "hmdp",
		Dir:        c.Dir,
		Filename:   c.Filename,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
	}
}

// DatabasePoolConfig 数据库连接池配置
type DatabasePoolConfig struct {
	MaxOpenConns           int `mapstructure:"max_open_conns"`
	MaxIdleConns           int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int `mapstructure:"conn_max_idle_time_seconds"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver string             `mapstructure:"driver"` // 数据库驱动（sqlite/postgres）
	DSN    string             `mapstructure:"dsn"`    // 数据库连接串
	Pool   DatabasePoolConfig `mapstructure:"pool"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	Password      string `mapstructure:"password"`
	DB            int    `mapstructure:"db"`
	PoolSize      int    `mapstructure:"pool_size"`
	DialTimeoutMS int    `mapstructure:"dial_timeout_ms"`
}

// SeckillConfig 秒杀订单队列配置
type SeckillConfig struct {
	Stream               string `mapstructure:"stream"`
	Group                string `mapstructure:"group"`
	Consumer             string `mapstructure:"consumer"`
	BlockMS              int    `mapstructure:"block_ms"`
	OrderLockTTLSeconds  int    `mapstructure:"order_lock_ttl_seconds"`
	RecoveryMinBackoffMS int    `mapstructure:"recovery_min_backoff_ms"`
	RecoveryMaxBackoffMS int    `mapstructure:"recovery_max_backoff_ms"`
}

// Block 阻塞读取时长
func (c SeckillConfig) Block() time.Duration {
	return millis(c.BlockMS, constants.OrderStreamBlock)
}

// OrderLockTTL 持久化阶段用户锁时长
func (c SeckillConfig) OrderLockTTL() time.Duration {
	return seconds(c.OrderLockTTLSeconds, constants.OrderLockTTL)
}

// RecoveryMinBackoff pending-list 重试初始退避
func (c SeckillConfig) RecoveryMinBackoff() time.Duration {
	return millis(c.RecoveryMinBackoffMS, constants.OrderRecoveryMinGap)
}

// RecoveryMaxBackoff pending-list 重试最大退避
func (c SeckillConfig) RecoveryMaxBackoff() time.Duration {
	return millis(c.RecoveryMaxBackoffMS, constants.OrderRecoveryMaxGap)
}

// CacheConfig 缓存访问配置
type CacheConfig struct {
	Strategy           string `mapstructure:"strategy"` // passthrough / mutex / logical
	ShopTTLMinutes     int    `mapstructure:"shop_ttl_minutes"`
	VoucherTTLMinutes  int    `mapstructure:"voucher_ttl_minutes"`
	NullTTLMinutes     int    `mapstructure:"null_ttl_minutes"`
	LogicalTTLMinutes  int    `mapstructure:"logical_ttl_minutes"`
	LockTTLSeconds     int    `mapstructure:"lock_ttl_seconds"`
	RetryAttempts      int    `mapstructure:"retry_attempts"`
	RetryMinIntervalMS int    `mapstructure:"retry_min_interval_ms"`
	RetryMaxIntervalMS int    `mapstructure:"retry_max_interval_ms"`
	RebuildWorkers     int    `mapstructure:"rebuild_workers"`
}

// ShopTTL 商铺缓存时长
func (c CacheConfig) ShopTTL() time.Duration {
	return minutes(c.ShopTTLMinutes, constants.CacheShopTTL)
}

// VoucherTTL 秒杀券缓存时长
func (c CacheConfig) VoucherTTL() time.Duration {
	return minutes(c.VoucherTTLMinutes, constants.CacheVoucherTTL)
}

// NullTTL 空值缓存时长
func (c CacheConfig) NullTTL() time.Duration {
	return minutes(c.NullTTLMinutes, constants.CacheNullTTL)
}

// LogicalTTL 逻辑过期时长
func (c CacheConfig) LogicalTTL() time.Duration {
	return minutes(c.LogicalTTLMinutes, constants.CacheLogicalTTL)
}

// LockTTL 缓存重建锁时长
func (c CacheConfig) LockTTL() time.Duration {
	return seconds(c.LockTTLSeconds, constants.CacheLockTTL)
}

// RetryMinInterval 抢锁失败后的初始退避
func (c CacheConfig) RetryMinInterval() time.Duration {
	return millis(c.RetryMinIntervalMS, constants.CacheRetryMinInterval)
}

// RetryMaxInterval 抢锁失败后的最大退避
func (c CacheConfig) RetryMaxInterval() time.Duration {
	return millis(c.RetryMaxIntervalMS, constants.CacheRetryMaxInterval)
}

// IDGenConfig ID 生成器配置
type IDGenConfig struct {
	EpochUnix int64 `mapstructure:"epoch_unix"`
}

// LoginConfig 登录令牌配置
type LoginConfig struct {
	TokenTTLMinutes int `mapstructure:"token_ttl_minutes"`
}

// TokenTTL 登录令牌有效期
func (c LoginConfig) TokenTTL() time.Duration {
	return minutes(c.TokenTTLMinutes, constants.LoginTokenTTL)
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	SeckillRateLimit RateLimitConfig `mapstructure:"seckill_rate_limit"`
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	WindowSeconds int `mapstructure:"window_seconds"`
	MaxRequests   int `mapstructure:"max_requests"`
}

// Load 从 config.yml 加载配置
func Load() *Config {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")     // 从当前目录查找
	v.AddConfigPath("../")   // 如果从 cmd/server 运行
	v.AddConfigPath("./etc") // etc 文件夹

	setDefaults(v)

	// 环境变量支持
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // server.port -> SERVER_PORT

	if err := v.ReadInConfig(); err != nil {
		logger.Warnw("config_file_read_failed",
			"error", err,
			"fallback", "env_or_defaults",
		)
	} else {
		logger.Infow("config_file_loaded", "file", v.ConfigFileUsed())
	}

	cfg, err := decode(v)
	if err != nil {
		logger.Errorw("config_unmarshal_failed", "error", err)
		panic(fmt.Errorf("配置解析失败: %w", err))
	}
	return cfg
}

// Default 仅使用默认值构建配置（测试与工具使用）
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg, err := decode(v)
	if err != nil {
		panic(fmt.Errorf("默认配置解析失败: %w", err))
	}
	return cfg
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8081")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("log.level", "")
	v.SetDefault("log.dir", "")
	v.SetDefault("log.filename", "app.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.compress", true)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./db/hmdp.db")
	v.SetDefault("database.pool.max_open_conns", 1)
	v.SetDefault("database.pool.max_idle_conns", 1)
	v.SetDefault("database.pool.conn_max_lifetime_seconds", 0)
	v.SetDefault("database.pool.conn_max_idle_time_seconds", 0)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 0)
	v.SetDefault("redis.dial_timeout_ms", 0)
	v.SetDefault("seckill.stream", "stream.orders")
	v.SetDefault("seckill.group", "g1")
	v.SetDefault("seckill.consumer", "c1")
	v.SetDefault("seckill.block_ms", 2000)
	v.SetDefault("seckill.order_lock_ttl_seconds", 10)
	v.SetDefault("seckill.recovery_min_backoff_ms", 20)
	v.SetDefault("seckill.recovery_max_backoff_ms", 1000)
	v.SetDefault("cache.strategy", "mutex")
	v.SetDefault("cache.shop_ttl_minutes", 30)
	v.SetDefault("cache.voucher_ttl_minutes", 10)
	v.SetDefault("cache.null_ttl_minutes", 2)
	v.SetDefault("cache.logical_ttl_minutes", 30)
	v.SetDefault("cache.lock_ttl_seconds", 10)
	v.SetDefault("cache.retry_attempts", 10)
	v.SetDefault("cache.retry_min_interval_ms", 50)
	v.SetDefault("cache.retry_max_interval_ms", 500)
	v.SetDefault("cache.rebuild_workers", 10)
	v.SetDefault("idgen.epoch_unix", 1640995200)
	v.SetDefault("login.token_ttl_minutes", 30)
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		"Authorization",
		"Cache-Control",
		"X-Requested-With",
	})
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("cors.max_age", 600)
	v.SetDefault("security.seckill_rate_limit.window_seconds", 1)
	v.SetDefault("security.seckill_rate_limit.max_requests", 5)
}

func millis(value int, fallback time.Duration) time.Duration {
	if value > 0 {
		return time.Duration(value) * time.Millisecond
	}
	return fallback
}

func seconds(value int, fallback time.Duration) time.Duration {
	if value > 0 {
		return time.Duration(value) * time.Second
	}
	return fallback
}

func minutes(value int, fallback time.Duration) time.Duration {
	if value > 0 {
		return time.Duration(value) * time.Minute
	}
	return fallback
}
