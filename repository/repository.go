// Package repository defines persistence contracts used by the services and
// their GORM implementations. Every write that must be atomic with another
// write goes through TransactionManager.WithinTx.
package repository

import (
	"context"
	"errors"
	"time"

	"storefront/model"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate key")
)

type ProductRepository interface {
	FindByID(ctx context.Context, id uint) (model.Product, error)
	// Trừ kho có điều kiện: false khi không đủ hàng
	DecreaseStockIfEnough(ctx context.Context, id uint, qty int64) (bool, error)
	IncreaseStock(ctx context.Context, id uint, qty int64) error
}

type CartRepository interface {
	// Cart trả về luôn kèm Items (theo id tăng dần) và Voucher
	FindByUserID(ctx context.Context, userID uint) (model.Cart, error)
	// FindByUserIDForUpdate khoá dòng cart tới hết transaction
	FindByUserIDForUpdate(ctx context.Context, userID uint) (model.Cart, error)
	Create(ctx context.Context, cart *model.Cart) error
	// SaveSummary ghi status, voucher và các cột tiền
	SaveSummary(ctx context.Context, cart model.Cart) error

	AddItem(ctx context.Context, item *model.CartItem) error
	UpdateItem(ctx context.Context, item model.CartItem) error
	DeleteItem(ctx context.Context, cartID, itemID uint) error
	ClearItems(ctx context.Context, cartID uint) error

	ListIdleUserIDs(ctx context.Context, updatedBefore time.Time) ([]uint, error)
}

type VoucherRepository interface {
	FindByCode(ctx context.Context, code string) (model.Voucher, error)
	FindByID(ctx context.Context, id uint) (model.Voucher, error)
}

type OrderListQuery struct {
	Page  int
	Limit int
}

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	FindByID(ctx context.Context, id uint) (model.Order, error)
	FindByIDForUpdate(ctx context.Context, id uint) (model.Order, error)
	FindByLink(ctx context.Context, link string) (model.Order, error)
	// Cùng user + key thì trả lại đúng đơn đã tạo
	FindByIdempotencyKey(ctx context.Context, userID uint, key string) (model.Order, error)
	ListByUserID(ctx context.Context, userID uint, q OrderListQuery) ([]model.Order, int64, error)
	ListStalePending(ctx context.Context, method string, createdBefore time.Time) ([]model.Order, error)

	// MarkPaid chỉ áp dụng khi payment_status <> paid. status chỉ đi pending -> paid.
	MarkPaid(ctx context.Context, id uint, amount int64, at time.Time) (bool, error)
	// MarkPaymentFailed không bao giờ ghi đè lên đơn đã paid
	MarkPaymentFailed(ctx context.Context, id uint) (bool, error)
	// Transition đổi status khi status hiện tại == from, mốc thời gian tương ứng chỉ set một lần
	Transition(ctx context.Context, id uint, from, to string, at time.Time) (bool, error)
	FlagReview(ctx context.Context, id uint, reason string) error
}

// TxnResult là kết quả một callback hợp lệ được ghi vào PaymentTransaction
type TxnResult struct {
	Status                string
	ResultCode            string
	GatewayTransactionRef string
	RawCallbackPayload    string
	ProcessedAt           time.Time
}

type PaymentTransactionRepository interface {
	Create(ctx context.Context, txn *model.PaymentTransaction) error
	FindByTxnRef(ctx context.Context, txnRef string) (model.PaymentTransaction, error)
	// IsGatewayRefProcessed chỉ tìm trong các giao dịch của orderID
	IsGatewayRefProcessed(ctx context.Context, orderID uint, gatewayRef string) (bool, error)
	// MarkProcessed chỉ thành công một lần cho mỗi transaction (processed_at IS NULL)
	MarkProcessed(ctx context.Context, id uint, res TxnResult) (bool, error)
}

type TxRepos interface {
	Products() ProductRepository
	Carts() CartRepository
	Vouchers() VoucherRepository
	Orders() OrderRepository
	PaymentTransactions() PaymentTransactionRepository
}

// TransactionManager ẩn begin/commit/rollback khỏi service.
// fn trả lỗi thì mọi thay đổi bên trong bị huỷ.
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(r TxRepos) error) error
}

// Store gom repo đọc ngoài transaction và tx manager
type Store interface {
	TxRepos
	TransactionManager
}
