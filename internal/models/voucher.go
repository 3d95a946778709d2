package models

import "time"

// Voucher 优惠券表
type Voucher struct {
	ID          int64     `gorm:"primaryKey" json:"id"`                           // 主键
	ShopID      int64     `gorm:"index;not null" json:"shopId"`                   // 商铺ID
	Title       string    `gorm:"type:varchar(255);not null" json:"title"`        // 代金券标题
	SubTitle    string    `gorm:"type:varchar(255)" json:"subTitle"`              // 副标题
	Rules       string    `gorm:"type:varchar(1024)" json:"rules"`                // 使用规则
	PayValue    Money     `gorm:"type:decimal(20,2);not null" json:"payValue"`    // 支付金额
	ActualValue Money     `gorm:"type:decimal(20,2);not null" json:"actualValue"` // 抵扣金额
	Type        int       `gorm:"not null;default:0" json:"type"`                 // 0 普通券 1 秒杀券
	Status      int       `gorm:"not null;default:1" json:"status"`               // 1 上架 2 下架 3 过期
	CreatedAt   time.Time `json:"createTime"`                                     // 创建时间
	UpdatedAt   time.Time `json:"updateTime"`                                     // 更新时间

	SeckillVoucher *SeckillVoucher `gorm:"foreignKey:VoucherID" json:"seckill,omitempty"` // 秒杀信息
}

// TableName 指定表名
func (Voucher) TableName() string {
	return "tb_voucher"
}
