package public

import (
	"errors"

	"github.com/hmdp-next/internal/http/response"
	"github.com/hmdp-next/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	key    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.key, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackKey, err)
}

var seckillErrorRules = []mappedHandlerError{
	{target: service.ErrUnauthorized, code: response.CodeUnauthorized, key: "error.unauthorized"},
	{target: service.ErrInvalidArgument, code: response.CodeBadRequest, key: "error.voucher_id_invalid"},
	{target: service.ErrVoucherNotFound, code: response.CodeNotFound, key: "error.voucher_not_found"},
	{target: service.ErrSeckillNotStarted, code: response.CodeBadRequest, key: "error.seckill_not_started"},
	{target: service.ErrSeckillEnded, code: response.CodeBadRequest, key: "error.seckill_ended"},
	{target: service.ErrStockExhausted, code: response.CodeBadRequest, key: "error.stock_insufficient"},
	{target: service.ErrDuplicateOrder, code: response.CodeConflict, key: "error.duplicate_order"},
	{target: service.ErrContention, code: response.CodeUnavailable, key: "error.seckill_busy"},
}

var orderQueryErrorRules = []mappedHandlerError{
	{target: service.ErrUnauthorized, code: response.CodeUnauthorized, key: "error.unauthorized"},
	{target: service.ErrInvalidArgument, code: response.CodeBadRequest, key: "error.order_id_invalid"},
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, key: "error.order_not_found"},
}

var voucherCreateErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidArgument, code: response.CodeBadRequest, key: "error.voucher_invalid"},
}

var shopErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidArgument, code: response.CodeBadRequest, key: "error.shop_id_invalid"},
	{target: service.ErrShopNotFound, code: response.CodeNotFound, key: "error.shop_not_found"},
	{target: service.ErrContention, code: response.CodeUnavailable, key: "error.seckill_busy"},
}

func respondSeckillError(c *gin.Context, err error) {
	respondWithMappedError(c, err, seckillErrorRules, response.CodeInternal, "error.seckill_failed")
}

func respondOrderQueryError(c *gin.Context, err error) {
	respondWithMappedError(c, err, orderQueryErrorRules, response.CodeInternal, "error.order_fetch_failed")
}

func respondVoucherCreateError(c *gin.Context, err error) {
	respondWithMappedError(c, err, voucherCreateErrorRules, response.CodeInternal, "error.voucher_create_failed")
}

func respondShopError(c *gin.Context, err error, fallbackKey string) {
	respondWithMappedError(c, err, shopErrorRules, response.CodeInternal, fallbackKey)
}
