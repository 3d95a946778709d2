package public

import (
	"time"

	"github.com/hmdp-next/internal/http/response"
	"github.com/hmdp-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// AddSeckillVoucherRequest 新增秒杀券请求
type AddSeckillVoucherRequest struct {
	ShopID      int64           `json:"shop_id" binding:"required"`
	Title       string          `json:"title" binding:"required"`
	SubTitle    string          `json:"sub_title"`
	Rules       string          `json:"rules"`
	PayValue    decimal.Decimal `json:"pay_value"`
	ActualValue decimal.Decimal `json:"actual_value"`
	Stock       int             `json:"stock"`
	BeginTime   time.Time       `json:"begin_time" binding:"required"`
	EndTime     time.Time       `json:"end_time" binding:"required"`
}

// AddSeckillVoucher 新增秒杀券
func (h *Handler) AddSeckillVoucher(c *gin.Context) {
	var req AddSeckillVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	voucher, err := h.VoucherService.AddSeckillVoucher(c.Request.Context(), service.AddSeckillVoucherInput{
		ShopID:      req.ShopID,
		Title:       req.Title,
		SubTitle:    req.SubTitle,
		Rules:       req.Rules,
		PayValue:    req.PayValue,
		ActualValue: req.ActualValue,
		Stock:       req.Stock,
		BeginTime:   req.BeginTime,
		EndTime:     req.EndTime,
	})
	if err != nil {
		respondVoucherCreateError(c, err)
		return
	}
	response.Success(c, voucher)
}
