package repository

import (
	"context"

	"gorm.io/gorm"
)

type txReposGorm struct {
	products     ProductRepository
	carts        CartRepository
	vouchers     VoucherRepository
	orders       OrderRepository
	transactions PaymentTransactionRepository
}

func newTxReposGorm(db *gorm.DB) *txReposGorm {
	return &txReposGorm{
		products:     NewProductGormRepository(db),
		carts:        NewCartGormRepository(db),
		vouchers:     NewVoucherGormRepository(db),
		orders:       NewOrderGormRepository(db),
		transactions: NewPaymentTransactionGormRepository(db),
	}
}

func (r *txReposGorm) Products() ProductRepository                       { return r.products }
func (r *txReposGorm) Carts() CartRepository                             { return r.carts }
func (r *txReposGorm) Vouchers() VoucherRepository                       { return r.vouchers }
func (r *txReposGorm) Orders() OrderRepository                           { return r.orders }
func (r *txReposGorm) PaymentTransactions() PaymentTransactionRepository { return r.transactions }

// GormStore đọc trực tiếp qua db, ghi trong WithinTx
type GormStore struct {
	*txReposGorm
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{txReposGorm: newTxReposGorm(db), db: db}
}

func (s *GormStore) WithinTx(ctx context.Context, fn func(r TxRepos) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// repo dựng lại trên tx
		return fn(newTxReposGorm(tx))
	})
}

var _ Store = (*GormStore)(nil)
