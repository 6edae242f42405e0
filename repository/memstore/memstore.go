// Package memstore is an in-memory implementation of repository.Store used by
// STORE_DRIVER=memory and by service tests. Transactions are serialized by a
// single mutex; a failed transaction restores the snapshot taken at its start.
package memstore

import (
	"context"
	"strings"
	"sync"
	"time"

	"storefront/model"
	"storefront/repository"
)

type data struct {
	seq       uint
	products  map[uint]model.Product
	carts     map[uint]model.Cart
	cartItems map[uint]model.CartItem
	vouchers  map[uint]model.Voucher
	orders    map[uint]model.Order
	txns      map[uint]model.PaymentTransaction
}

func newData() *data {
	return &data{
		products:  map[uint]model.Product{},
		carts:     map[uint]model.Cart{},
		cartItems: map[uint]model.CartItem{},
		vouchers:  map[uint]model.Voucher{},
		orders:    map[uint]model.Order{},
		txns:      map[uint]model.PaymentTransaction{},
	}
}

func (d *data) clone() *data {
	c := newData()
	c.seq = d.seq
	for k, v := range d.products {
		c.products[k] = v
	}
	for k, v := range d.carts {
		c.carts[k] = v
	}
	for k, v := range d.cartItems {
		c.cartItems[k] = v
	}
	for k, v := range d.vouchers {
		c.vouchers[k] = v
	}
	for k, v := range d.orders {
		c.orders[k] = copyOrder(v)
	}
	for k, v := range d.txns {
		c.txns[k] = v
	}
	return c
}

func (d *data) nextID() uint {
	d.seq++
	return d.seq
}

type Store struct {
	mu   sync.Mutex
	data *data
	now  func() time.Time
}

func New() *Store {
	return &Store{data: newData(), now: time.Now}
}

// SetClock đổi nguồn thời gian cho CreatedAt/UpdatedAt
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) WithinTx(ctx context.Context, fn func(r repository.TxRepos) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	defer func() {
		if p := recover(); p != nil {
			s.data = snapshot
			panic(p)
		}
		if err != nil {
			s.data = snapshot
		}
	}()

	return fn(&repos{s: s, inTx: true})
}

func (s *Store) Products() repository.ProductRepository { return (&repos{s: s}).Products() }
func (s *Store) Carts() repository.CartRepository       { return (&repos{s: s}).Carts() }
func (s *Store) Vouchers() repository.VoucherRepository { return (&repos{s: s}).Vouchers() }
func (s *Store) Orders() repository.OrderRepository     { return (&repos{s: s}).Orders() }
func (s *Store) PaymentTransactions() repository.PaymentTransactionRepository {
	return (&repos{s: s}).PaymentTransactions()
}

// SeedProduct / SeedVoucher ghi thẳng dữ liệu mẫu, trả về bản ghi đã có ID.
// SeedProduct với ID đã có sẽ ghi đè sản phẩm đó.
func (s *Store) SeedProduct(p model.Product) model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.data.products[p.ID]; ok && p.ID != 0 {
		p.CreatedAt = old.CreatedAt
	} else {
		p.ID = s.data.nextID()
		p.CreatedAt = s.now()
	}
	p.UpdatedAt = s.now()
	s.data.products[p.ID] = p
	return p
}

func (s *Store) SeedVoucher(v model.Voucher) model.Voucher {
	s.mu.Lock()
	defer s.mu.Unlock()
	v.ID = s.data.nextID()
	v.Code = normalizeCode(v.Code)
	v.CreatedAt, v.UpdatedAt = s.now(), s.now()
	s.data.vouchers[v.ID] = v
	return v
}

// DeleteVoucher xoá voucher khỏi catalog (giỏ đang dùng vẫn giữ voucher_id)
func (s *Store) DeleteVoucher(id uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data.vouchers, id)
}

// repos gom các repository trên cùng một data.
// Ngoài transaction mỗi lời gọi tự giữ mutex.
type repos struct {
	s    *Store
	inTx bool
}

func (r *repos) Products() repository.ProductRepository { return productRepo{r} }
func (r *repos) Carts() repository.CartRepository       { return cartRepo{r} }
func (r *repos) Vouchers() repository.VoucherRepository { return voucherRepo{r} }
func (r *repos) Orders() repository.OrderRepository     { return orderRepo{r} }
func (r *repos) PaymentTransactions() repository.PaymentTransactionRepository {
	return txnRepo{r}
}

func (r *repos) acquire() func() {
	if r.inTx {
		return func() {}
	}
	r.s.mu.Lock()
	return r.s.mu.Unlock
}

func (r *repos) d() *data { return r.s.data }

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

var _ repository.Store = (*Store)(nil)
