package models

import "time"

// VoucherOrder 优惠券订单表
// (user_id, voucher_id) 唯一，保证一人一单
type VoucherOrder struct {
	ID         int64      `gorm:"primaryKey;autoIncrement:false" json:"id"`                         // 订单ID（全局ID生成器）
	UserID     int64      `gorm:"not null;uniqueIndex:uk_user_voucher,priority:1" json:"userId"`    // 下单用户
	VoucherID  int64      `gorm:"not null;uniqueIndex:uk_user_voucher,priority:2" json:"voucherId"` // 购买的代金券
	PayType    int        `gorm:"not null;default:1" json:"payType"`                                // 支付方式 1 余额 2 支付宝 3 微信
	Status     int        `gorm:"not null;default:1" json:"status"`                                 // 1 未支付 2 已支付 3 已核销 4 已取消 6 已退款
	PayTime    *time.Time `json:"payTime,omitempty"`                                                // 支付时间
	UseTime    *time.Time `json:"useTime,omitempty"`                                                // 核销时间
	RefundTime *time.Time `json:"refundTime,omitempty"`                                             // 退款时间
	CreatedAt  time.Time  `json:"createTime"`                                                       // 下单时间
	UpdatedAt  time.Time  `json:"updateTime"`                                                       // 更新时间
}

// TableName 指定表名
func (VoucherOrder) TableName() string {
	return "tb_voucher_order"
}
