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

type CartGormRepository struct {
	db *gorm.DB
}

func NewCartGormRepository(db *gorm.DB) *CartGormRepository {
	return &CartGormRepository{db: db}
}

func (r *CartGormRepository) FindByUserID(ctx context.Context, userID uint) (model.Cart, error) {
	return r.findByUserID(ctx, userID, false)
}

func (r *CartGormRepository) FindByUserIDForUpdate(ctx context.Context, userID uint) (model.Cart, error) {
	return r.findByUserID(ctx, userID, true)
}

func (r *CartGormRepository) findByUserID(ctx context.Context, userID uint, lock bool) (model.Cart, error) {
	db := r.db.WithContext(ctx)
	q := db
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var cart model.Cart
	err := q.Where("user_id = ?", userID).First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Cart{}, ErrNotFound
	}
	if err != nil {
		return model.Cart{}, err
	}

	// Nạp items/voucher bằng query riêng, không kéo theo FOR UPDATE
	if err := db.Where("cart_id = ?", cart.ID).Order("id asc").Find(&cart.Items).Error; err != nil {
		return model.Cart{}, err
	}
	if cart.VoucherID != nil {
		var v model.Voucher
		err := db.First(&v, *cart.VoucherID).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Cart{}, err
		}
		if err == nil {
			cart.Voucher = &v
		}
	}
	return cart, nil
}

func (r *CartGormRepository) Create(ctx context.Context, cart *model.Cart) error {
	if cart.Status == "" {
		cart.Status = constants.CART_ACTIVE
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(cart).Error
}

func (r *CartGormRepository) SaveSummary(ctx context.Context, cart model.Cart) error {
	res := r.db.WithContext(ctx).
		Model(&model.Cart{}).
		Where("id = ?", cart.ID).
		Updates(map[string]interface{}{
			"status":          cart.Status,
			"voucher_id":      cart.VoucherID,
			"total_amount":    cart.TotalAmount,
			"discount_amount": cart.DiscountAmount,
			"shipping_fee":    cart.ShippingFee,
			"final_amount":    cart.FinalAmount,
			"updated_at":      time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CartGormRepository) AddItem(ctx context.Context, item *model.CartItem) error {
	return r.db.WithContext(ctx).Omit("Product").Create(item).Error
}

func (r *CartGormRepository) UpdateItem(ctx context.Context, item model.CartItem) error {
	res := r.db.WithContext(ctx).
		Model(&model.CartItem{}).
		Where("id = ? AND cart_id = ?", item.ID, item.CartID).
		Updates(map[string]interface{}{
			"quantity":   item.Quantity,
			"unit_price": item.UnitPrice,
			"subtotal":   item.Subtotal,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CartGormRepository) DeleteItem(ctx context.Context, cartID, itemID uint) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		Delete(&model.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CartGormRepository) ClearItems(ctx context.Context, cartID uint) error {
	return r.db.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&model.CartItem{}).Error
}

// Giỏ ACTIVE còn hàng nhưng không đụng tới từ trước updatedBefore
func (r *CartGormRepository) ListIdleUserIDs(ctx context.Context, updatedBefore time.Time) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&model.Cart{}).
		Where("status = ? AND updated_at < ?", constants.CART_ACTIVE, updatedBefore).
		Where("EXISTS (SELECT 1 FROM cart_items ci WHERE ci.cart_id = carts.id)").
		Order("user_id asc").
		Pluck("user_id", &ids).Error
	return ids, err
}
