package database

import (
	"fmt"

	"storefront/config"
	"storefront/model"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ConnectDB mở kết nối Postgres, migrate schema và seed dữ liệu mẫu
func ConnectDB(s config.Settings) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		s.DBHost, s.DBPort, s.DBUser, s.DBPassword, s.DBName)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		// unique violation -> gorm.ErrDuplicatedKey
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	log.Info("Connection Opened to Database")

	if err := db.AutoMigrate(
		&model.Product{},
		&model.Voucher{},
		&model.Cart{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
		&model.PaymentTransaction{},
	); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	log.Info("Database Migrated")

	// khởi tạo dữ liệu
	if err := SeedData(db); err != nil {
		return nil, err
	}
	return db, nil
}
