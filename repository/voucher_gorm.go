package repository

import (
	"context"
	"errors"
	"strings"

	"storefront/model"

	"gorm.io/gorm"
)

type VoucherGormRepository struct {
	db *gorm.DB
}

func NewVoucherGormRepository(db *gorm.DB) *VoucherGormRepository {
	return &VoucherGormRepository{db: db}
}

// Mã được lưu chữ in hoa nên so khớp không phân biệt hoa thường
func (r *VoucherGormRepository) FindByCode(ctx context.Context, code string) (model.Voucher, error) {
	var v model.Voucher
	err := r.db.WithContext(ctx).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Voucher{}, ErrNotFound
	}
	if err != nil {
		return model.Voucher{}, err
	}
	return v, nil
}

func (r *VoucherGormRepository) FindByID(ctx context.Context, id uint) (model.Voucher, error) {
	var v model.Voucher
	err := r.db.WithContext(ctx).First(&v, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Voucher{}, ErrNotFound
	}
	if err != nil {
		return model.Voucher{}, err
	}
	return v, nil
}
