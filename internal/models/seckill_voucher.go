package models

import "time"

// SeckillVoucher 秒杀券表，与优惠券一对一
type SeckillVoucher struct {
	VoucherID int64     `gorm:"primaryKey;autoIncrement:false" json:"voucherId"` // 关联的优惠券ID
	Stock     int       `gorm:"not null" json:"stock"`                           // 库存
	BeginTime time.Time `gorm:"not null" json:"beginTime"`                       // 生效时间
	EndTime   time.Time `gorm:"not null" json:"endTime"`                         // 失效时间
	CreatedAt time.Time `json:"createTime"`                                      // 创建时间
	UpdatedAt time.Time `json:"updateTime"`                                      // 更新时间
}

// TableName 指定表名
func (SeckillVoucher) TableName() string {
	return "tb_seckill_voucher"
}

// Started 秒杀是否已开始
func (v *SeckillVoucher) Started(now time.Time) bool {
	return v != nil && !now.Before(v.BeginTime)
}

// Ended 秒杀是否已结束
func (v *SeckillVoucher) Ended(now time.Time) bool {
	return v != nil && now.After(v.EndTime)
}
