package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Voucher là mã khuyến mãi áp dụng cho giỏ hàng
type Voucher struct {
	DTO
	Code          string          `gorm:"uniqueIndex;size:50;not null" json:"code"` // lưu chữ in hoa
	Name          string          `json:"name"`
	DiscountType  string          `gorm:"size:20;not null" json:"discountType"` // FIXED, PERCENTAGE
	DiscountValue decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"discountValue"`
	MinOrderValue int64           `gorm:"not null;default:0" json:"minOrderValue"`
	StartDate     time.Time       `gorm:"not null" json:"startDate"`
	EndDate       time.Time       `gorm:"not null" json:"endDate"`
	IsActive      bool            `gorm:"default:true" json:"isActive"`
}

// IsValidAt: đang bật và now nằm trong [StartDate, EndDate]
func (v Voucher) IsValidAt(now time.Time) bool {
	if !v.IsActive {
		return false
	}
	return !now.Before(v.StartDate) && !now.After(v.EndDate)
}

func (v Voucher) IsApplicable(subtotal int64, now time.Time) bool {
	return v.IsValidAt(now) && subtotal >= v.MinOrderValue
}
