package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/hmdp-next/internal/constants"

	"github.com/redis/go-redis/v9"
)

// AdmissionResult 秒杀脚本返回码
type AdmissionResult int64

const (
	AdmissionAccepted   AdmissionResult = 0
	AdmissionOutOfStock AdmissionResult = 1
	AdmissionDuplicate  AdmissionResult = 2
)

// 库存判断、一人一单判断、扣减、记录下单用户、写入订单流在一个脚本内原子完成
var seckillScript = redis.NewScript(`
local voucherId = ARGV[1]
local userId = ARGV[2]
local orderId = ARGV[3]

local stock = 0
local raw = redis.call('get', KEYS[1])
if raw then
	stock = tonumber(raw) or 0
end
if stock <= 0 then
	return 1
end
if redis.call('sismember', KEYS[2], userId) == 1 then
	return 2
end

redis.call('decr', KEYS[1])
redis.call('sadd', KEYS[2], userId)
redis.call('xadd', KEYS[3], '*', 'userId', userId, 'voucherId', voucherId, 'id', orderId)
return 0
`)

// AdmissionGate 秒杀资格判定
type AdmissionGate struct {
	rdb    redis.Cmdable
	stream string
}

// NewAdmissionGate 创建秒杀资格判定器
func NewAdmissionGate(rdb redis.Cmdable, stream string) *AdmissionGate {
	if stream == "" {
		stream = constants.OrderStreamKey
	}
	return &AdmissionGate{rdb: rdb, stream: stream}
}

// Admit 执行秒杀脚本，成功时订单条目已写入订单流
func (g *AdmissionGate) Admit(ctx context.Context, voucherID, userID, orderID int64) (AdmissionResult, error) {
	keys := []string{SeckillStockKey(voucherID), SeckillOrderKey(voucherID), g.stream}
	code, err := seckillScript.Run(ctx, g.rdb, keys,
		strconv.FormatInt(voucherID, 10),
		strconv.FormatInt(userID, 10),
		strconv.FormatInt(orderID, 10),
	).Int64()
	if err != nil {
		return 0, fmt.Errorf("run seckill script: %w", err)
	}
	result := AdmissionResult(code)
	switch result {
	case AdmissionAccepted, AdmissionOutOfStock, AdmissionDuplicate:
		return result, nil
	default:
		return 0, fmt.Errorf("unexpected seckill script result %d", code)
	}
}

// SeckillStockKey 秒杀库存键
func SeckillStockKey(voucherID int64) string {
	return constants.SeckillStockKeyPrefix + strconv.FormatInt(voucherID, 10)
}

// SeckillOrderKey 秒杀下单用户集合键
func SeckillOrderKey(voucherID int64) string {
	return constants.SeckillOrderKeyPrefix + strconv.FormatInt(voucherID, 10)
}
