package public

import (
	handlershared "github.com/hmdp-next/internal/http/handlers/shared"
	"github.com/hmdp-next/internal/http/response"
	"github.com/hmdp-next/internal/models"

	"github.com/gin-gonic/gin"
)

// GetShop 查询商铺（经缓存）
func (h *Handler) GetShop(c *gin.Context) {
	shopID, ok := paramID(c, "error.shop_id_invalid")
	if !ok {
		return
	}
	shop, err := h.ShopService.QueryByID(c.Request.Context(), shopID)
	if err != nil {
		respondShopError(c, err, "error.shop_fetch_failed")
		return
	}
	response.Success(c, shop)
}

// UpdateShop 更新商铺并删除缓存
func (h *Handler) UpdateShop(c *gin.Context) {
	var shop models.Shop
	if err := c.ShouldBindJSON(&shop); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if err := h.ShopService.Update(c.Request.Context(), &shop); err != nil {
		respondShopError(c, err, "error.shop_update_failed")
		return
	}
	response.Success(c, nil)
}

// ListShopsByType 按类型分页查询商铺
func (h *Handler) ListShopsByType(c *gin.Context) {
	typeID := int64(handlershared.QueryInt(c, "typeId", 0))
	if typeID <= 0 {
		respondError(c, response.CodeBadRequest, "error.shop_type_invalid", nil)
		return
	}
	page, pageSize := handlershared.NormalizePagination(handlershared.QueryInt(c, "current", 1), 0)

	shops, total, err := h.ShopService.ListByType(c.Request.Context(), typeID, page)
	if err != nil {
		respondShopError(c, err, "error.shop_fetch_failed")
		return
	}
	response.SuccessWithPage(c, shops, response.NewPagination(page, pageSize, total))
}
