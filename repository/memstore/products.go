package memstore

import (
	"context"

	"storefront/model"
	"storefront/repository"
)

type productRepo struct{ *repos }

func (r productRepo) FindByID(ctx context.Context, id uint) (model.Product, error) {
	defer r.acquire()()
	p, ok := r.d().products[id]
	if !ok {
		return model.Product{}, repository.ErrNotFound
	}
	return p, nil
}

func (r productRepo) DecreaseStockIfEnough(ctx context.Context, id uint, qty int64) (bool, error) {
	defer r.acquire()()
	p, ok := r.d().products[id]
	if !ok || p.Stock < qty {
		return false, nil
	}
	p.Stock -= qty
	p.UpdatedAt = r.s.now()
	r.d().products[id] = p
	return true, nil
}

func (r productRepo) IncreaseStock(ctx context.Context, id uint, qty int64) error {
	defer r.acquire()()
	p, ok := r.d().products[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.Stock += qty
	p.UpdatedAt = r.s.now()
	r.d().products[id] = p
	return nil
}

type voucherRepo struct{ *repos }

func (r voucherRepo) FindByCode(ctx context.Context, code string) (model.Voucher, error) {
	defer r.acquire()()
	code = normalizeCode(code)
	for _, v := range r.d().vouchers {
		if v.Code == code {
			return v, nil
		}
	}
	return model.Voucher{}, repository.ErrNotFound
}

func (r voucherRepo) FindByID(ctx context.Context, id uint) (model.Voucher, error) {
	defer r.acquire()()
	v, ok := r.d().vouchers[id]
	if !ok {
		return model.Voucher{}, repository.ErrNotFound
	}
	return v, nil
}
