package models

import "time"

// Shop 商铺表
type Shop struct {
	ID        int64     `gorm:"primaryKey" json:"id"`                      // 主键
	Name      string    `gorm:"type:varchar(128);not null" json:"name"`    // 商铺名称
	TypeID    int64     `gorm:"index;not null" json:"typeId"`              // 商铺类型
	Images    string    `gorm:"type:varchar(1024)" json:"images"`          // 商铺图片，多个以","隔开
	Area      string    `gorm:"type:varchar(128)" json:"area"`             // 商圈
	Address   string    `gorm:"type:varchar(255);not null" json:"address"` // 地址
	X         float64   `json:"x"`                                         // 经度
	Y         float64   `json:"y"`                                         // 纬度
	AvgPrice  int64     `json:"avgPrice"`                                  // 均价（元）
	Sold      int       `json:"sold"`                                      // 销量
	Comments  int       `json:"comments"`                                  // 评论数量
	Score     int       `json:"score"`                                     // 评分，1~5 分，乘 10 保存
	OpenHours string    `gorm:"type:varchar(32)" json:"openHours"`         // 营业时间
	CreatedAt time.Time `json:"createTime"`                                // 创建时间
	UpdatedAt time.Time `json:"updateTime"`                                // 更新时间
}

// TableName 指定表名
func (Shop) TableName() string {
	return "tb_shop"
}
