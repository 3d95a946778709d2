package repository

import (
	"errors"

	"github.com/hmdp-next/internal/models"

	"gorm.io/gorm"
)

// ShopRepository 商铺数据访问接口
type ShopRepository interface {
	GetByID(id int64) (*models.Shop, error)
	Create(shop *models.Shop) error
	Update(shop *models.Shop) error
	List(filter ShopListFilter) ([]models.Shop, int64, error)
	WithTx(tx *gorm.DB) ShopRepository
}

// GormShopRepository GORM 实现
type GormShopRepository struct {
	db *gorm.DB
}

// NewShopRepository 创建商铺仓库
func NewShopRepository(db *gorm.DB) *GormShopRepository {
	return &GormShopRepository{db: db}
}

// WithTx 绑定事务
func (r *GormShopRepository) WithTx(tx *gorm.DB) ShopRepository {
	if tx == nil {
		return r
	}
	return &GormShopRepository{db: tx}
}

// GetByID 根据 ID 获取商铺，不存在时返回 nil
func (r *GormShopRepository) GetByID(id int64) (*models.Shop, error) {
	if id <= 0 {
		return nil, errors.New("invalid shop id")
	}
	var shop models.Shop
	if err := r.db.First(&shop, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &shop, nil
}

// Create 创建商铺
func (r *GormShopRepository) Create(shop *models.Shop) error {
	if shop == nil {
		return errors.New("shop is nil")
	}
	return r.db.Create(shop).Error
}

// Update 更新商铺
func (r *GormShopRepository) Update(shop *models.Shop) error {
	if shop == nil || shop.ID <= 0 {
		return errors.New("invalid shop")
	}
	return r.db.Save(shop).Error
}

// List 按类型分页查询商铺
func (r *GormShopRepository) List(filter ShopListFilter) ([]models.Shop, int64, error) {
	query := r.db.Model(&models.Shop{})
	if filter.TypeID > 0 {
		query = query.Where("type_id = ?", filter.TypeID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var shops []models.Shop
	if err := query.Scopes(paginate(filter.Page, filter.PageSize)).Order("id ASC").Find(&shops).Error; err != nil {
		return nil, 0, err
	}
	return shops, total, nil
}
