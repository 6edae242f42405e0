package memstore

import (
	"context"
	"sort"
	"time"

	"storefront/constants"
	"storefront/model"
	"storefront/repository"
)

type cartRepo struct{ *repos }

func (r cartRepo) FindByUserID(ctx context.Context, userID uint) (model.Cart, error) {
	defer r.acquire()()
	return r.cartByUser(userID)
}

// Transaction đã giữ mutex toàn cục nên không cần khoá riêng dòng cart
func (r cartRepo) FindByUserIDForUpdate(ctx context.Context, userID uint) (model.Cart, error) {
	defer r.acquire()()
	return r.cartByUser(userID)
}

func (r cartRepo) cartByUser(userID uint) (model.Cart, error) {
	for _, c := range r.d().carts {
		if c.UserID != userID {
			continue
		}
		c.Items = r.itemsOf(c.ID)
		c.Voucher = nil
		if c.VoucherID != nil {
			if v, ok := r.d().vouchers[*c.VoucherID]; ok {
				c.Voucher = &v
			}
		}
		return c, nil
	}
	return model.Cart{}, repository.ErrNotFound
}

func (r cartRepo) itemsOf(cartID uint) []model.CartItem {
	items := []model.CartItem{}
	for _, it := range r.d().cartItems {
		if it.CartID == cartID {
			items = append(items, it)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}

func (r cartRepo) Create(ctx context.Context, cart *model.Cart) error {
	defer r.acquire()()
	for _, c := range r.d().carts {
		if c.UserID == cart.UserID {
			return repository.ErrDuplicate
		}
	}
	if cart.Status == "" {
		cart.Status = constants.CART_ACTIVE
	}
	cart.ID = r.d().nextID()
	cart.CreatedAt, cart.UpdatedAt = r.s.now(), r.s.now()

	stored := *cart
	stored.Items, stored.Voucher = nil, nil
	r.d().carts[cart.ID] = stored
	return nil
}

func (r cartRepo) SaveSummary(ctx context.Context, cart model.Cart) error {
	defer r.acquire()()
	c, ok := r.d().carts[cart.ID]
	if !ok {
		return repository.ErrNotFound
	}
	c.Status = cart.Status
	c.VoucherID = cart.VoucherID
	c.TotalAmount = cart.TotalAmount
	c.DiscountAmount = cart.DiscountAmount
	c.ShippingFee = cart.ShippingFee
	c.FinalAmount = cart.FinalAmount
	c.UpdatedAt = r.s.now()
	r.d().carts[cart.ID] = c
	return nil
}

func (r cartRepo) AddItem(ctx context.Context, item *model.CartItem) error {
	defer r.acquire()()
	if _, ok := r.d().carts[item.CartID]; !ok {
		return repository.ErrNotFound
	}
	item.ID = r.d().nextID()
	item.CreatedAt, item.UpdatedAt = r.s.now(), r.s.now()
	stored := *item
	stored.Product = model.Product{}
	r.d().cartItems[item.ID] = stored
	return nil
}

func (r cartRepo) UpdateItem(ctx context.Context, item model.CartItem) error {
	defer r.acquire()()
	it, ok := r.d().cartItems[item.ID]
	if !ok || it.CartID != item.CartID {
		return repository.ErrNotFound
	}
	it.Quantity = item.Quantity
	it.UnitPrice = item.UnitPrice
	it.Subtotal = item.Subtotal
	it.UpdatedAt = r.s.now()
	r.d().cartItems[item.ID] = it
	return nil
}

func (r cartRepo) DeleteItem(ctx context.Context, cartID, itemID uint) error {
	defer r.acquire()()
	it, ok := r.d().cartItems[itemID]
	if !ok || it.CartID != cartID {
		return repository.ErrNotFound
	}
	delete(r.d().cartItems, itemID)
	return nil
}

func (r cartRepo) ClearItems(ctx context.Context, cartID uint) error {
	defer r.acquire()()
	for id, it := range r.d().cartItems {
		if it.CartID == cartID {
			delete(r.d().cartItems, id)
		}
	}
	return nil
}

func (r cartRepo) ListIdleUserIDs(ctx context.Context, updatedBefore time.Time) ([]uint, error) {
	defer r.acquire()()
	ids := []uint{}
	for _, c := range r.d().carts {
		if c.Status == constants.CART_ACTIVE && c.UpdatedAt.Before(updatedBefore) && len(r.itemsOf(c.ID)) > 0 {
			ids = append(ids, c.UserID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
