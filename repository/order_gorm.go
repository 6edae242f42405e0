package repository

import (
	"context"
	"errors"
	"time"

	"storefront/constants"
	"storefront/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Cột mốc thời gian ứng với từng status đích
var transitionTimestamp = map[string]string{
	constants.ORDER_PAID:      "confirmed_at",
	constants.ORDER_SHIPPING:  "shipped_at",
	constants.ORDER_DELIVERED: "delivered_at",
	constants.ORDER_CANCELLED: "cancelled_at",
}

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

func (r *OrderGormRepository) Create(ctx context.Context, order *model.Order) error {
	err := r.db.WithContext(ctx).Create(order).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}

func (r *OrderGormRepository) FindByID(ctx context.Context, id uint) (model.Order, error) {
	return r.first(r.db.WithContext(ctx).Preload("Items", orderItemsAsc).Where("id = ?", id))
}

func (r *OrderGormRepository) FindByIDForUpdate(ctx context.Context, id uint) (model.Order, error) {
	return r.first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id))
}

func (r *OrderGormRepository) FindByLink(ctx context.Context, link string) (model.Order, error) {
	return r.first(r.db.WithContext(ctx).Preload("Items", orderItemsAsc).Where("link = ?", link))
}

func (r *OrderGormRepository) FindByIdempotencyKey(ctx context.Context, userID uint, key string) (model.Order, error) {
	return r.first(r.db.WithContext(ctx).
		Preload("Items", orderItemsAsc).
		Where("user_id = ? AND idempotency_key = ?", userID, key))
}

func (r *OrderGormRepository) first(tx *gorm.DB) (model.Order, error) {
	var o model.Order
	err := tx.First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Order{}, ErrNotFound
	}
	if err != nil {
		return model.Order{}, err
	}
	return o, nil
}

func orderItemsAsc(db *gorm.DB) *gorm.DB {
	return db.Order("id asc")
}

func (r *OrderGormRepository) ListByUserID(ctx context.Context, userID uint, q OrderListQuery) ([]model.Order, int64, error) {
	var orders []model.Order
	var total int64

	tx := r.db.WithContext(ctx).Model(&model.Order{}).Where("user_id = ?", userID)
	if err := tx.Count(&total).Error; err != nil {
		return []model.Order{}, 0, err
	}

	offset := (q.Page - 1) * q.Limit
	if err := tx.Preload("Items", orderItemsAsc).
		Order("created_at desc").Order("id desc").
		Offset(offset).Limit(q.Limit).
		Find(&orders).Error; err != nil {
		return []model.Order{}, 0, err
	}
	return orders, total, nil
}

// Đơn chuyển khoản vẫn chờ thanh toán quá lâu mà chưa bị đánh dấu review
func (r *OrderGormRepository) ListStalePending(ctx context.Context, method string, createdBefore time.Time) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.WithContext(ctx).
		Where("payment_method = ? AND status = ? AND payment_status = ?", method, constants.ORDER_PENDING, constants.PAYMENT_PENDING).
		Where("needs_review = ? AND created_at < ?", false, createdBefore).
		Order("id asc").
		Find(&orders).Error
	return orders, err
}

func (r *OrderGormRepository) MarkPaid(ctx context.Context, id uint, amount int64, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ? AND payment_status <> ?", id, constants.PAYMENT_PAID).
		Updates(map[string]interface{}{
			"payment_status": constants.PAYMENT_PAID,
			"paid_amount":    amount,
			"confirmed_at":   gorm.Expr("COALESCE(confirmed_at, ?)", at),
			"status": gorm.Expr("CASE WHEN status = ? THEN ? ELSE status END",
				constants.ORDER_PENDING, constants.ORDER_PAID),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *OrderGormRepository) MarkPaymentFailed(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ? AND payment_status <> ?", id, constants.PAYMENT_PAID).
		Update("payment_status", constants.PAYMENT_FAILED)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *OrderGormRepository) Transition(ctx context.Context, id uint, from, to string, at time.Time) (bool, error) {
	updates := map[string]interface{}{"status": to}
	if col, ok := transitionTimestamp[to]; ok {
		updates[col] = gorm.Expr("COALESCE("+col+", ?)", at)
	}

	res := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *OrderGormRepository) FlagReview(ctx context.Context, id uint, reason string) error {
	res := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"needs_review": true, "review_reason": reason})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
