package repository

import (
	"errors"

	"github.com/hmdp-next/internal/models"

	"gorm.io/gorm"
)

// VoucherOrderRepository 优惠券订单数据访问接口
type VoucherOrderRepository interface {
	Create(order *models.VoucherOrder) error
	GetByID(id int64) (*models.VoucherOrder, error)
	CountByUserAndVoucher(userID, voucherID int64) (int64, error)
	WithTx(tx *gorm.DB) VoucherOrderRepository
}

// GormVoucherOrderRepository GORM 实现
type GormVoucherOrderRepository struct {
	db *gorm.DB
}

// NewVoucherOrderRepository 创建订单仓库
func NewVoucherOrderRepository(db *gorm.DB) *GormVoucherOrderRepository {
	return &GormVoucherOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormVoucherOrderRepository) WithTx(tx *gorm.DB) VoucherOrderRepository {
	if tx == nil {
		return r
	}
	return &GormVoucherOrderRepository{db: tx}
}

// Create 创建订单，订单 ID 由调用方生成
func (r *GormVoucherOrderRepository) Create(order *models.VoucherOrder) error {
	if order == nil || order.ID <= 0 {
		return errors.New("invalid voucher order")
	}
	return r.db.Create(order).Error
}

// GetByID 根据订单 ID 查询，不存在时返回 nil
func (r *GormVoucherOrderRepository) GetByID(id int64) (*models.VoucherOrder, error) {
	if id <= 0 {
		return nil, errors.New("invalid order id")
	}
	var order models.VoucherOrder
	if err := r.db.First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// CountByUserAndVoucher 统计用户对某券的订单数量
func (r *GormVoucherOrderRepository) CountByUserAndVoucher(userID, voucherID int64) (int64, error) {
	if userID <= 0 || voucherID <= 0 {
		return 0, errors.New("invalid order owner")
	}
	var count int64
	if err := r.db.Model(&models.VoucherOrder{}).
		Where("user_id = ? AND voucher_id = ?", userID, voucherID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
