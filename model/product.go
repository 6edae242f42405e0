package model

// Product chỉ được đọc giá/tồn kho; CRUD sản phẩm nằm ở dịch vụ catalog
type Product struct {
	DTO
	Name     string `gorm:"not null" json:"name"`
	Slug     string `gorm:"uniqueIndex;not null" json:"slug"`
	Price    int64  `gorm:"not null" json:"price"`
	Stock    int64  `gorm:"not null;default:0" json:"stock"`
	IsActive bool   `gorm:"default:true" json:"isActive"`
}
