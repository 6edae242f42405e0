package service

import (
	"context"
	"errors"
	"time"

	"storefront/constants"
	"storefront/helper"
	"storefront/locker"
	"storefront/model"
	"storefront/repository"
)

// CartService: mọi thay đổi giỏ hàng của một user chạy tuần tự
// (lock theo user + một transaction), tổng tiền luôn tính lại sau mỗi thay đổi.
type CartService struct {
	store   repository.Store
	locks   locker.Locker
	pricing helper.PricingEngine
	now     func() time.Time
}

func NewCartService(store repository.Store, locks locker.Locker, pricing helper.PricingEngine) *CartService {
	return &CartService{store: store, locks: locks, pricing: pricing, now: time.Now}
}

func emptyCart(userID uint) model.Cart {
	return model.Cart{UserID: userID, Status: constants.CART_ACTIVE, Items: []model.CartItem{}}
}

func (s *CartService) GetCart(ctx context.Context, userID uint) (model.Cart, error) {
	cart, err := s.store.Carts().FindByUserID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return emptyCart(userID), nil
	}
	if err != nil {
		return model.Cart{}, err
	}
	return cart, nil
}

func (s *CartService) AddItem(ctx context.Context, userID uint, in model.AddCartItemInput) (model.Cart, error) {
	if in.Quantity < 1 {
		return model.Cart{}, errInvalidQuantity()
	}

	return s.mutate(ctx, userID, true, func(r repository.TxRepos, cart *model.Cart) error {
		product, err := findActiveProduct(ctx, r, in.ProductId)
		if err != nil {
			return err
		}

		// Cùng sản phẩm + biến thể thì cộng dồn số lượng
		for _, it := range cart.Items {
			if it.ProductID != in.ProductId || it.Variant != in.Variant {
				continue
			}
			qty := it.Quantity + in.Quantity
			if qty > product.Stock {
				return errOutOfStock(product.Name)
			}
			it.Quantity = qty
			it.UnitPrice = product.Price
			it.Subtotal = product.Price * qty
			return r.Carts().UpdateItem(ctx, it)
		}

		if in.Quantity > product.Stock {
			return errOutOfStock(product.Name)
		}
		return r.Carts().AddItem(ctx, &model.CartItem{
			CartID:    cart.ID,
			ProductID: product.ID,
			Variant:   in.Variant,
			Quantity:  in.Quantity,
			UnitPrice: product.Price,
			Subtotal:  product.Price * in.Quantity,
		})
	})
}

func (s *CartService) UpdateItem(ctx context.Context, userID, itemID uint, quantity int64) (model.Cart, error) {
	if quantity < 1 {
		return model.Cart{}, errInvalidQuantity()
	}

	return s.mutate(ctx, userID, false, func(r repository.TxRepos, cart *model.Cart) error {
		item, ok := findItem(cart, itemID)
		if !ok {
			return errItemNotFound()
		}

		product, err := findActiveProduct(ctx, r, item.ProductID)
		if err != nil {
			return err
		}
		if quantity > product.Stock {
			return errOutOfStock(product.Name)
		}

		item.Quantity = quantity
		item.UnitPrice = product.Price
		item.Subtotal = product.Price * quantity
		return r.Carts().UpdateItem(ctx, item)
	})
}

// RemoveItem không lỗi khi item đã bị xoá trước đó
func (s *CartService) RemoveItem(ctx context.Context, userID, itemID uint) (model.Cart, error) {
	return s.mutate(ctx, userID, false, func(r repository.TxRepos, cart *model.Cart) error {
		if _, ok := findItem(cart, itemID); !ok {
			return nil
		}
		err := r.Carts().DeleteItem(ctx, cart.ID, itemID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	})
}

func (s *CartService) ApplyVoucher(ctx context.Context, userID uint, code string) (model.Cart, error) {
	return s.mutate(ctx, userID, true, func(r repository.TxRepos, cart *model.Cart) error {
		voucher, err := r.Vouchers().FindByCode(ctx, code)
		if errors.Is(err, repository.ErrNotFound) {
			return errInvalidVoucher()
		}
		if err != nil {
			return err
		}

		now := s.now()
		if !voucher.IsValidAt(now) {
			return errInvalidVoucher()
		}
		if subtotal := cartSubtotal(cart.Items); !voucher.IsApplicable(subtotal, now) {
			return errMinOrderNotMet(voucher.MinOrderValue)
		}

		cart.VoucherID = &voucher.ID
		cart.Voucher = &voucher
		return nil
	})
}

func (s *CartService) RemoveVoucher(ctx context.Context, userID uint) (model.Cart, error) {
	return s.mutate(ctx, userID, false, func(r repository.TxRepos, cart *model.Cart) error {
		cart.VoucherID = nil
		cart.Voucher = nil
		return nil
	})
}

// Abandon bỏ giỏ hàng: xoá hết item, gỡ voucher, chuyển ABANDONED.
// Lần thay đổi tiếp theo sẽ kích hoạt lại giỏ.
func (s *CartService) Abandon(ctx context.Context, userID uint) (model.Cart, error) {
	return s.mutate(ctx, userID, false, func(r repository.TxRepos, cart *model.Cart) error {
		if err := r.Carts().ClearItems(ctx, cart.ID); err != nil {
			return err
		}
		cart.VoucherID = nil
		cart.Voucher = nil
		cart.Status = constants.CART_ABANDONED
		return nil
	})
}

// AbandonIdle được job định kỳ gọi cho các giỏ không hoạt động quá idleFor
func (s *CartService) AbandonIdle(ctx context.Context, idleFor time.Duration) (int, error) {
	userIDs, err := s.store.Carts().ListIdleUserIDs(ctx, s.now().Add(-idleFor))
	if err != nil {
		return 0, err
	}

	count := 0
	for _, userID := range userIDs {
		if _, err := s.Abandon(ctx, userID); err != nil {
			helper.Logger(ctx).Warnw("abandon idle cart failed", "user_id", userID, "error", err)
			continue
		}
		count++
	}
	return count, nil
}

// mutate chạy fn dưới lock của user trong một transaction rồi tính lại tổng tiền.
// create=false và chưa có giỏ thì trả về giỏ rỗng, không ghi gì.
func (s *CartService) mutate(ctx context.Context, userID uint, create bool, fn func(r repository.TxRepos, cart *model.Cart) error) (model.Cart, error) {
	unlock, err := s.locks.Lock(ctx, locker.CartKey(userID))
	if err != nil {
		return model.Cart{}, transient("Giỏ hàng đang được cập nhật, vui lòng thử lại", err)
	}
	defer unlock()

	var out model.Cart
	err = s.store.WithinTx(ctx, func(r repository.TxRepos) error {
		cart, err := r.Carts().FindByUserIDForUpdate(ctx, userID)
		if errors.Is(err, repository.ErrNotFound) {
			if !create {
				empty := emptyCart(userID)
				if err := fn(r, &empty); err != nil {
					return err
				}
				out = emptyCart(userID)
				return nil
			}
			cart = model.Cart{UserID: userID, Status: constants.CART_ACTIVE}
			if err := r.Carts().Create(ctx, &cart); err != nil {
				return err
			}
			cart.Items = []model.CartItem{}
		} else if err != nil {
			return err
		}

		if cart.Status == constants.CART_ABANDONED {
			cart.Status = constants.CART_ACTIVE
		}

		if err := fn(r, &cart); err != nil {
			return err
		}

		// Đọc lại item sau khi fn đã ghi
		fresh, err := r.Carts().FindByUserIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		cart.Items = fresh.Items

		s.reprice(&cart)
		if err := r.Carts().SaveSummary(ctx, cart); err != nil {
			return err
		}
		out = cart
		return nil
	})
	if err != nil {
		return model.Cart{}, err
	}
	return out, nil
}

// reprice tính lại tổng tiền; voucher không còn áp dụng được thì gỡ ra
func (s *CartService) reprice(cart *model.Cart) {
	now := s.now()
	if cart.Voucher != nil && !cart.Voucher.IsApplicable(cartSubtotal(cart.Items), now) {
		cart.VoucherID = nil
		cart.Voucher = nil
	}
	// voucher đã bị xoá khỏi catalog thì Voucher nil nhưng VoucherID còn
	if cart.Voucher == nil {
		cart.VoucherID = nil
	}

	totals := s.pricing.ComputeTotals(cartLines(cart.Items), cart.Voucher, now)
	cart.TotalAmount = totals.Subtotal
	cart.DiscountAmount = totals.Discount
	cart.ShippingFee = totals.ShippingFee
	cart.FinalAmount = totals.FinalAmount
}

func findActiveProduct(ctx context.Context, r repository.TxRepos, id uint) (model.Product, error) {
	product, err := r.Products().FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && !product.IsActive) {
		return model.Product{}, errProductNotFound()
	}
	return product, err
}

func findItem(cart *model.Cart, itemID uint) (model.CartItem, bool) {
	for _, it := range cart.Items {
		if it.ID == itemID {
			return it, true
		}
	}
	return model.CartItem{}, false
}

func cartLines(items []model.CartItem) []helper.PriceLine {
	lines := make([]helper.PriceLine, 0, len(items))
	for _, it := range items {
		lines = append(lines, helper.PriceLine{UnitPrice: it.UnitPrice, Quantity: it.Quantity})
	}
	return lines
}

func cartSubtotal(items []model.CartItem) int64 {
	var sum int64
	for _, it := range items {
		sum += it.UnitPrice * it.Quantity
	}
	return sum
}
