package shared

// messages 错误提示文案
var messages = map[string]string{
	"error.bad_request":            "请求参数错误",
	"error.unauthorized":           "请先登录",
	"error.internal":               "服务器内部错误",
	"error.rate_limited":           "操作过于频繁，请 %d 秒后再试",
	"error.rate_limit_unavailable": "限流服务暂不可用",
	"error.voucher_id_invalid":     "优惠券ID不合法",
	"error.voucher_not_found":      "优惠券不存在",
	"error.voucher_invalid":        "优惠券参数不合法",
	"error.voucher_create_failed":  "新增秒杀券失败",
	"error.seckill_not_started":    "秒杀尚未开始",
	"error.seckill_ended":          "秒杀已经结束",
	"error.stock_insufficient":     "库存不足",
	"error.duplicate_order":        "不能重复下单",
	"error.seckill_busy":           "系统繁忙，请稍后再试",
	"error.seckill_failed":         "秒杀下单失败",
	"error.order_id_invalid":       "订单ID不合法",
	"error.order_not_found":        "订单不存在",
	"error.order_fetch_failed":     "订单查询失败",
	"error.shop_id_invalid":        "店铺ID不合法",
	"error.shop_not_found":         "店铺不存在",
	"error.shop_fetch_failed":      "店铺查询失败",
	"error.shop_update_failed":     "店铺更新失败",
	"error.shop_type_invalid":      "店铺类型不合法",
}

// Message 根据键获取提示文案，未定义的键原样返回
func Message(key string) string {
	if msg, ok := messages[key]; ok {
		return msg
	}
	return key
}
