package memstore

import (
	"context"
	"sort"
	"time"

	"storefront/constants"
	"storefront/model"
	"storefront/repository"
)

type orderRepo struct{ *repos }

func copyOrder(o model.Order) model.Order {
	o.Items = append([]model.OrderItem(nil), o.Items...)
	return o
}

func (r orderRepo) Create(ctx context.Context, order *model.Order) error {
	defer r.acquire()()
	for _, o := range r.d().orders {
		if o.Link == order.Link {
			return repository.ErrDuplicate
		}
		if order.IdempotencyKey != nil && o.IdempotencyKey != nil &&
			o.UserID == order.UserID && *o.IdempotencyKey == *order.IdempotencyKey {
			return repository.ErrDuplicate
		}
	}

	now := r.s.now()
	order.ID = r.d().nextID()
	order.CreatedAt, order.UpdatedAt = now, now
	for i := range order.Items {
		order.Items[i].ID = r.d().nextID()
		order.Items[i].OrderID = order.ID
		order.Items[i].CreatedAt, order.Items[i].UpdatedAt = now, now
	}
	r.d().orders[order.ID] = copyOrder(*order)
	return nil
}

func (r orderRepo) FindByID(ctx context.Context, id uint) (model.Order, error) {
	defer r.acquire()()
	o, ok := r.d().orders[id]
	if !ok {
		return model.Order{}, repository.ErrNotFound
	}
	return copyOrder(o), nil
}

func (r orderRepo) FindByIDForUpdate(ctx context.Context, id uint) (model.Order, error) {
	return r.FindByID(ctx, id)
}

func (r orderRepo) FindByLink(ctx context.Context, link string) (model.Order, error) {
	return r.findOne(func(o model.Order) bool { return o.Link == link })
}

func (r orderRepo) FindByIdempotencyKey(ctx context.Context, userID uint, key string) (model.Order, error) {
	return r.findOne(func(o model.Order) bool {
		return o.UserID == userID && o.IdempotencyKey != nil && *o.IdempotencyKey == key
	})
}

func (r orderRepo) findOne(match func(model.Order) bool) (model.Order, error) {
	defer r.acquire()()
	for _, o := range r.d().orders {
		if match(o) {
			return copyOrder(o), nil
		}
	}
	return model.Order{}, repository.ErrNotFound
}

func (r orderRepo) ListByUserID(ctx context.Context, userID uint, q repository.OrderListQuery) ([]model.Order, int64, error) {
	defer r.acquire()()
	all := []model.Order{}
	for _, o := range r.d().orders {
		if o.UserID == userID {
			all = append(all, copyOrder(o))
		}
	}
	// mới nhất trước
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })

	total := int64(len(all))
	start := (q.Page - 1) * q.Limit
	if start < 0 {
		start = 0
	}
	if start >= len(all) {
		return []model.Order{}, total, nil
	}
	end := start + q.Limit
	if q.Limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r orderRepo) ListStalePending(ctx context.Context, method string, createdBefore time.Time) ([]model.Order, error) {
	defer r.acquire()()
	out := []model.Order{}
	for _, o := range r.d().orders {
		if o.PaymentMethod == method && o.Status == constants.ORDER_PENDING &&
			o.PaymentStatus == constants.PAYMENT_PENDING && !o.NeedsReview &&
			o.CreatedAt.Before(createdBefore) {
			out = append(out, copyOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r orderRepo) MarkPaid(ctx context.Context, id uint, amount int64, at time.Time) (bool, error) {
	defer r.acquire()()
	o, ok := r.d().orders[id]
	if !ok || o.PaymentStatus == constants.PAYMENT_PAID {
		return false, nil
	}
	o.PaymentStatus = constants.PAYMENT_PAID
	o.PaidAmount = amount
	if o.ConfirmedAt == nil {
		o.ConfirmedAt = &at
	}
	if o.Status == constants.ORDER_PENDING {
		o.Status = constants.ORDER_PAID
	}
	o.UpdatedAt = r.s.now()
	r.d().orders[id] = o
	return true, nil
}

func (r orderRepo) MarkPaymentFailed(ctx context.Context, id uint) (bool, error) {
	defer r.acquire()()
	o, ok := r.d().orders[id]
	if !ok || o.PaymentStatus == constants.PAYMENT_PAID {
		return false, nil
	}
	o.PaymentStatus = constants.PAYMENT_FAILED
	o.UpdatedAt = r.s.now()
	r.d().orders[id] = o
	return true, nil
}

func (r orderRepo) Transition(ctx context.Context, id uint, from, to string, at time.Time) (bool, error) {
	defer r.acquire()()
	o, ok := r.d().orders[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to

	setOnce := func(p **time.Time) {
		if *p == nil {
			t := at
			*p = &t
		}
	}
	switch to {
	case constants.ORDER_PAID:
		setOnce(&o.ConfirmedAt)
	case constants.ORDER_SHIPPING:
		setOnce(&o.ShippedAt)
	case constants.ORDER_DELIVERED:
		setOnce(&o.DeliveredAt)
	case constants.ORDER_CANCELLED:
		setOnce(&o.CancelledAt)
	}
	o.UpdatedAt = r.s.now()
	r.d().orders[id] = o
	return true, nil
}

func (r orderRepo) FlagReview(ctx context.Context, id uint, reason string) error {
	defer r.acquire()()
	o, ok := r.d().orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	o.NeedsReview = true
	o.ReviewReason = reason
	o.UpdatedAt = r.s.now()
	r.d().orders[id] = o
	return nil
}
