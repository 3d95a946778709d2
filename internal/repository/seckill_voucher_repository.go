package repository

import (
	"errors"

	"github.com/hmdp-next/internal/models"

	"gorm.io/gorm"
)

// SeckillVoucherRepository 秒杀券数据访问接口
type SeckillVoucherRepository interface {
	Create(item *models.SeckillVoucher) error
	GetByVoucherID(voucherID int64) (*models.SeckillVoucher, error)
	DecrementStock(voucherID int64) (int64, error)
	WithTx(tx *gorm.DB) SeckillVoucherRepository
}

// GormSeckillVoucherRepository GORM 实现
type GormSeckillVoucherRepository struct {
	db *gorm.DB
}

// NewSeckillVoucherRepository 创建秒杀券仓库
func NewSeckillVoucherRepository(db *gorm.DB) *GormSeckillVoucherRepository {
	return &GormSeckillVoucherRepository{db: db}
}

// WithTx 绑定事务
func (r *GormSeckillVoucherRepository) WithTx(tx *gorm.DB) SeckillVoucherRepository {
	if tx == nil {
		return r
	}
	return &GormSeckillVoucherRepository{db: tx}
}

// Create 创建秒杀券
func (r *GormSeckillVoucherRepository) Create(item *models.SeckillVoucher) error {
	if item == nil || item.VoucherID <= 0 {
		return errors.New("invalid seckill voucher")
	}
	if item.Stock < 0 {
		return errors.New("invalid seckill stock")
	}
	return r.db.Create(item).Error
}

// GetByVoucherID 根据优惠券 ID 获取秒杀信息，不存在时返回 nil
func (r *GormSeckillVoucherRepository) GetByVoucherID(voucherID int64) (*models.SeckillVoucher, error) {
	if voucherID <= 0 {
		return nil, errors.New("invalid voucher id")
	}
	var item models.SeckillVoucher
	if err := r.db.Where("voucher_id = ?", voucherID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// DecrementStock 条件扣减库存，仅在库存大于 0 时生效，返回受影响行数
func (r *GormSeckillVoucherRepository) DecrementStock(voucherID int64) (int64, error) {
	if voucherID <= 0 {
		return 0, errors.New("invalid voucher id")
	}
	result := r.db.Model(&models.SeckillVoucher{}).
		Where("voucher_id = ? AND stock > 0", voucherID).
		Update("stock", gorm.Expr("stock - 1"))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
