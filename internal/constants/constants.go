package constants

import "time"

// Redis 键前缀常量
const (
	LockKeyPrefix         = "lock:"
	IDCounterKeyPrefix    = "icr:"
	SeckillStockKeyPrefix = "seckill:stock:"
	SeckillOrderKeyPrefix = "seckill:order:"
	LoginTokenKeyPrefix   = "login:token:"
	CacheShopKeyPrefix    = "cache:shop:"
	CacheVoucherKeyPrefix = "cache:seckill:voucher:"
	LockShopNamePrefix    = "shop:"
	LockVoucherNamePrefix = "seckill:voucher:"
	LockOrderNamePrefix   = "order:"
)

// 订单队列常量
const (
	OrderStreamKey      = "stream.orders"
	OrderConsumerGroup  = "g1"
	OrderConsumerName   = "c1"
	OrderIDPrefix       = "order"
	OrderStreamBlock    = 2 * time.Second
	OrderLockTTL        = 10 * time.Second
	OrderRecoveryMinGap = 20 * time.Millisecond
	OrderRecoveryMaxGap = time.Second
)

// 缓存默认参数
const (
	CacheShopTTL          = 30 * time.Minute
	CacheVoucherTTL       = 10 * time.Minute
	CacheNullTTL          = 2 * time.Minute
	CacheLockTTL          = 10 * time.Second
	CacheLogicalTTL       = 30 * time.Minute
	CacheRetryAttempts    = 10
	CacheRetryMinInterval = 50 * time.Millisecond
	CacheRetryMaxInterval = 500 * time.Millisecond
	CacheRebuildWorkers   = 10
)

// 登录令牌参数
const (
	LoginTokenHeader = "authorization"
	LoginTokenTTL    = 30 * time.Minute
)

// 缓存读取策略
const (
	CacheStrategyPassThrough = "passthrough"
	CacheStrategyMutex       = "mutex"
	CacheStrategyLogical     = "logical"
)

// 优惠券类型常量
const (
	VoucherTypeNormal  = 0
	VoucherTypeSeckill = 1
)

// 优惠券状态常量
const (
	VoucherStatusOnShelf  = 1
	VoucherStatusOffShelf = 2
	VoucherStatusExpired  = 3
)

// 订单状态常量
const (
	VoucherOrderStatusUnpaid   = 1
	VoucherOrderStatusPaid     = 2
	VoucherOrderStatusUsed     = 3
	VoucherOrderStatusCanceled = 4
	VoucherOrderStatusRefunded = 6
)

// 支付方式常量
const (
	PayTypeBalance = 1
	PayTypeAlipay  = 2
	PayTypeWechat  = 3
)

// DefaultPageSize 默认分页大小
const DefaultPageSize = 5
