package repository

import (
	"errors"

	"github.com/hmdp-next/internal/models"

	"gorm.io/gorm"
)

// VoucherRepository 优惠券数据访问接口
type VoucherRepository interface {
	Create(voucher *models.Voucher) error
	GetByID(id int64) (*models.Voucher, error)
	ListByShop(shopID int64) ([]models.Voucher, error)
	WithTx(tx *gorm.DB) VoucherRepository
}

// GormVoucherRepository GORM 实现
type GormVoucherRepository struct {
	db *gorm.DB
}

// NewVoucherRepository 创建优惠券仓库
func NewVoucherRepository(db *gorm.DB) *GormVoucherRepository {
	return &GormVoucherRepository{db: db}
}

// WithTx 绑定事务
func (r *GormVoucherRepository) WithTx(tx *gorm.DB) VoucherRepository {
	if tx == nil {
		return r
	}
	return &GormVoucherRepository{db: tx}
}

// Create 创建优惠券（不级联写秒杀信息）
func (r *GormVoucherRepository) Create(voucher *models.Voucher) error {
	if voucher == nil {
		return errors.New("voucher is nil")
	}
	return r.db.Omit("SeckillVoucher").Create(voucher).Error
}

// GetByID 根据 ID 获取优惠券并预加载秒杀信息
func (r *GormVoucherRepository) GetByID(id int64) (*models.Voucher, error) {
	if id <= 0 {
		return nil, errors.New("invalid voucher id")
	}
	var voucher models.Voucher
	if err := r.db.Preload("SeckillVoucher").First(&voucher, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &voucher, nil
}

// ListByShop 查询商铺下的优惠券
func (r *GormVoucherRepository) ListByShop(shopID int64) ([]models.Voucher, error) {
	if shopID <= 0 {
		return nil, errors.New("invalid shop id")
	}
	var vouchers []models.Voucher
	if err := r.db.Preload("SeckillVoucher").
		Where("shop_id = ?", shopID).
		Order("id ASC").
		Find(&vouchers).Error; err != nil {
		return nil, err
	}
	return vouchers, nil
}
