package repository

import "gorm.io/gorm"

// maxPageSize 单页最大条数
const maxPageSize = 100

// paginate 返回分页 scope：页码从 1 起算，pageSize 非正时不分页，超过上限按上限截断
func paginate(page, pageSize int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if pageSize <= 0 {
			return db
		}
		if pageSize > maxPageSize {
			pageSize = maxPageSize
		}
		if page < 1 {
			page = 1
		}
		return db.Offset((page - 1) * pageSize).Limit(pageSize)
	}
}
