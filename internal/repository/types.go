package repository

// ShopListFilter 查询商铺列表的过滤条件
type ShopListFilter struct {
	Page     int
	PageSize int
	TypeID   int64
}
