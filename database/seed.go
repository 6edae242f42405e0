package database

import (
	"errors"
	"fmt"
	"time"

	"storefront/constants"
	"storefront/helper"
	"storefront/model"
	"storefront/repository/memstore"

	"github.com/gofiber/fiber/v2/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func sampleProducts() []model.Product {
	return []model.Product{
		{Name: "Áo thun cotton basic", Price: 300000, Stock: 200, IsActive: true},
		{Name: "Quần jean slim fit", Price: 550000, Stock: 120, IsActive: true},
		{Name: "Giày sneaker trắng", Price: 1200000, Stock: 40, IsActive: true},
		{Name: "Balo laptop chống nước", Price: 690000, Stock: 60, IsActive: true},
		{Name: "Tai nghe không dây", Price: 2000000, Stock: 15, IsActive: true},
	}
}

func sampleVouchers(now time.Time) []model.Voucher {
	return []model.Voucher{
		{
			Code:          "WELCOME50K",
			Name:          "Giảm 50K cho đơn từ 500K",
			DiscountType:  constants.DISCOUNT_FIXED,
			DiscountValue: decimal.NewFromInt(50000),
			MinOrderValue: 500000,
			StartDate:     now.AddDate(0, -1, 0),
			EndDate:       now.AddDate(1, 0, 0),
			IsActive:      true,
		},
		{
			Code:          "SAVE10PCT",
			Name:          "Giảm 10% cho đơn từ 1 triệu",
			DiscountType:  constants.DISCOUNT_PERCENTAGE,
			DiscountValue: decimal.NewFromInt(10),
			MinOrderValue: 1000000,
			StartDate:     now.AddDate(0, -1, 0),
			EndDate:       now.AddDate(1, 0, 0),
			IsActive:      true,
		},
	}
}

func SeedData(db *gorm.DB) error {
	for _, product := range sampleProducts() {
		var existing model.Product
		err := db.Where("name = ?", product.Name).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("seed product %q: %w", product.Name, err)
		}

		product.Slug, err = helper.GenerateUniqueSlug(product.Name, func(s string) (bool, error) {
			var count int64
			err := db.Model(&model.Product{}).Where("slug = ?", s).Count(&count).Error
			return count > 0, err
		})
		if err != nil {
			return err
		}
		if err := db.Create(&product).Error; err != nil {
			log.Warnw("failed to seed product", "name", product.Name, "error", err)
		}
	}

	for _, voucher := range sampleVouchers(time.Now()) {
		// Tạo mới nếu không tồn tại
		if err := db.Where(model.Voucher{Code: voucher.Code}).FirstOrCreate(&voucher).Error; err != nil {
			log.Warnw("failed to seed voucher", "code", voucher.Code, "error", err)
		}
	}
	return nil
}

// SeedMemory nạp cùng dữ liệu mẫu cho STORE_DRIVER=memory
func SeedMemory(store *memstore.Store) error {
	used := map[string]bool{}
	for _, product := range sampleProducts() {
		s, err := helper.GenerateUniqueSlug(product.Name, func(s string) (bool, error) { return used[s], nil })
		if err != nil {
			return err
		}
		used[s] = true
		product.Slug = s
		store.SeedProduct(product)
	}
	for _, voucher := range sampleVouchers(time.Now()) {
		store.SeedVoucher(voucher)
	}
	return nil
}
