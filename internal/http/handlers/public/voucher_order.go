package public

import (
	"strconv"

	"github.com/hmdp-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// SeckillVoucher 秒杀下单，返回订单 ID，订单异步落库
func (h *Handler) SeckillVoucher(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}
	voucherID, ok := paramID(c, "error.voucher_id_invalid")
	if !ok {
		return
	}

	orderID, err := h.VoucherOrderService.Seckill(c.Request.Context(), voucherID)
	if err != nil {
		respondSeckillError(c, err)
		return
	}
	// 订单 ID 超出 JS 安全整数范围，按字符串返回
	response.Success(c, gin.H{"order_id": strconv.FormatInt(orderID, 10)})
}

// GetVoucherOrder 查询订单（轮询异步下单结果）
func (h *Handler) GetVoucherOrder(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}
	orderID, ok := paramID(c, "error.order_id_invalid")
	if !ok {
		return
	}

	order, err := h.VoucherOrderService.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		respondOrderQueryError(c, err)
		return
	}
	response.Success(c, order)
}
