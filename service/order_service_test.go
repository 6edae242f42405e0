package service

import (
	"sync"
	"testing"
	"time"

	"storefront/constants"
	"storefront/events"
	"storefront/model"
	"storefront/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrder_FromCart(t *testing.T) {
	f := newFixture(t)
	f.addToCart(1, f.shirt, 2)
	_, err := f.cart.ApplyVoucher(f.ctx, 1, "WELCOME50K")
	require.NoError(t, err)

	order := f.checkout(1, constants.METHOD_COD)

	assert.Regexp(t, `^ORD-[0-9A-F]{10}$`, order.Link)
	assert.Equal(t, constants.ORDER_PENDING, order.Status)
	assert.Equal(t, constants.PAYMENT_PENDING, order.PaymentStatus)
	assert.Equal(t, int64(0), order.PaidAmount)
	assert.Equal(t, int64(600000), order.TotalAmount)
	assert.Equal(t, int64(50000), order.Discount)
	assert.Equal(t, int64(550000+testShippingFee), order.FinalAmount)
	assert.Equal(t, "WELCOME50K", order.VoucherCode)
	assert.Equal(t, f.shipping.FullName, order.FullName)
	assert.Equal(t, f.shipping.Address, order.Address)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "Áo thun", order.Items[0].ProductName)

	assert.Equal(t, int64(98), f.product(f.shirt.ID).Stock)

	cart, err := f.cart.GetCart(f.ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Nil(t, cart.VoucherID)
	assert.Equal(t, int64(0), cart.FinalAmount)

	assert.Equal(t, 1, f.events.count(events.OrderCreatedRoutingKey))
}

func TestCreateOrder_SnapshotsCurrentCatalogPrice(t *testing.T) {
	f := newFixture(t)
	f.addToCart(1, f.laptop, 1)

	// giá catalog đổi sau khi thêm vào giỏ
	repriced := f.laptop
	repriced.Price = 1800000
	f.store.SeedProduct(repriced)

	order := f.checkout(1, constants.METHOD_COD)
	assert.Equal(t, int64(1800000), order.Items[0].UnitPrice)
	assert.Equal(t, int64(1800000+testShippingFee), order.FinalAmount)
	assert.Equal(t, int64(4), f.product(f.laptop.ID).Stock)
}

func TestCreateOrder_EmptyCart(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.orders.CreateOrder(f.ctx, 1, model.CreateOrderInput{ShippingProfile: f.shipping, PaymentMethod: constants.METHOD_COD})
	assert.True(t, IsCode(err, constants.ERR_CART_EMPTY))

	f.addToCart(1, f.shirt, 1)
	_, err = f.cart.Abandon(f.ctx, 1)
	require.NoError(t, err)
	_, _, err = f.orders.CreateOrder(f.ctx, 1, model.CreateOrderInput{ShippingProfile: f.shipping, PaymentMethod: constants.METHOD_COD})
	assert.True(t, IsCode(err, constants.ERR_CART_EMPTY))
}

func TestCreateOrder_IdempotencyKey(t *testing.T) {
	f := newFixture(t)
	in := model.CreateOrderInput{
		ShippingProfile: f.shipping,
		PaymentMethod:   constants.METHOD_BANKING,
		Items:           []model.DirectItemInput{{ProductId: f.shirt.ID, Quantity: 1}},
		IdempotencyKey:  "checkout-123",
	}

	first, created, err := f.orders.CreateOrder(f.ctx, 1, in)
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := f.orders.CreateOrder(f.ctx, 1, in)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Link, second.Link)

	assert.Equal(t, int64(99), f.product(f.shirt.ID).Stock)

	// user khác dùng cùng key vẫn là đơn mới
	other, created, err := f.orders.CreateOrder(f.ctx, 2, in)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestCreateOrder_ConcurrentCheckoutsForLastUnit(t *testing.T) {
	f := newFixture(t)
	const n = 12

	var wg sync.WaitGroup
	var mu sync.Mutex
	success, outOfStock := 0, 0
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(userID uint) {
			defer wg.Done()
			_, _, err := f.orders.CreateOrder(f.ctx, userID, model.CreateOrderInput{
				ShippingProfile: f.shipping,
				PaymentMethod:   constants.METHOD_COD,
				Items:           []model.DirectItemInput{{ProductId: f.lastOne.ID, Quantity: 1}},
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				success++
			case IsCode(err, constants.ERR_OUT_OF_STOCK):
				outOfStock++
			}
		}(uint(i + 1))
	}
	wg.Wait()

	assert.Equal(t, 1, success)
	assert.Equal(t, n-1, outOfStock)
	assert.Equal(t, int64(0), f.product(f.lastOne.ID).Stock)
}

func TestCreateOrder_OutOfStockRollsBackEverything(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.orders.CreateOrder(f.ctx, 1, model.CreateOrderInput{
		ShippingProfile: f.shipping,
		PaymentMethod:   constants.METHOD_COD,
		Items: []model.DirectItemInput{
			{ProductId: f.shirt.ID, Quantity: 3},
			{ProductId: f.lastOne.ID, Quantity: 2},
		},
	})
	assert.True(t, IsCode(err, constants.ERR_OUT_OF_STOCK))
	assert.Equal(t, int64(100), f.product(f.shirt.ID).Stock)
	assert.Equal(t, int64(1), f.product(f.lastOne.ID).Stock)

	orders, total, err := f.orders.ListOrders(f.ctx, 1, repository.OrderListQuery{})
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Equal(t, int64(0), total)
}

func TestCreateOrder_MergesDuplicateDirectItems(t *testing.T) {
	f := newFixture(t)

	order := f.checkout(1, constants.METHOD_COD,
		model.DirectItemInput{ProductId: f.shirt.ID, Quantity: 1},
		model.DirectItemInput{ProductId: f.shirt.ID, Quantity: 2},
		model.DirectItemInput{ProductId: f.shirt.ID, Quantity: 1, Variant: "red"},
	)
	require.Len(t, order.Items, 2)
	assert.Equal(t, int64(3), order.Items[0].Quantity)
	assert.Equal(t, int64(96), f.product(f.shirt.ID).Stock)
}

func TestCreateOrder_RevalidatesVoucher(t *testing.T) {
	f := newFixture(t)
	f.addToCart(1, f.shirt, 2)
	_, err := f.cart.ApplyVoucher(f.ctx, 1, "WELCOME50K")
	require.NoError(t, err)

	f.advance(60 * 24 * time.Hour)
	_, _, err = f.orders.CreateOrder(f.ctx, 1, model.CreateOrderInput{ShippingProfile: f.shipping, PaymentMethod: constants.METHOD_COD})
	assert.True(t, IsCode(err, constants.ERR_INVALID_VOUCHER))

	// không có gì bị trừ kho, giỏ vẫn còn
	assert.Equal(t, int64(100), f.product(f.shirt.ID).Stock)
	cart, _ := f.cart.GetCart(f.ctx, 1)
	assert.Len(t, cart.Items, 1)
}

func TestCreateOrder_InvalidPaymentMethod(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.orders.CreateOrder(f.ctx, 1, model.CreateOrderInput{ShippingProfile: f.shipping, PaymentMethod: "Crypto"})
	assert.True(t, IsCode(err, constants.ERR_VALIDATION))
}

func TestGetOrder_OwnerOrAdminOnly(t *testing.T) {
	f := newFixture(t)
	order := f.checkout(1, constants.METHOD_COD, model.DirectItemInput{ProductId: f.shirt.ID, Quantity: 1})

	got, err := f.orders.GetOrder(f.ctx, model.TokenClaim{UserId: 1, Role: constants.ROLE_CUSTOMER}, order.Link)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	_, err = f.orders.GetOrder(f.ctx, model.TokenClaim{UserId: 99, Role: constants.ROLE_ADMIN}, order.Link)
	assert.NoError(t, err)

	_, err = f.orders.GetOrder(f.ctx, model.TokenClaim{UserId: 2, Role: constants.ROLE_CUSTOMER}, order.Link)
	assert.True(t, IsCode(err, constants.ERR_ORDER_NOT_FOUND))
}

func TestCancelOrder(t *testing.T) {
	f := newFixture(t)
	order := f.checkout(1, constants.METHOD_BANKING, model.DirectItemInput{ProductId: f.laptop.ID, Quantity: 2})
	assert.Equal(t, int64(3), f.product(f.laptop.ID).Stock)

	_, err := f.orders.CancelOrder(f.ctx, 2, order.Link)
	assert.True(t, IsCode(err, constants.ERR_ORDER_NOT_FOUND))

	cancelled, err := f.orders.CancelOrder(f.ctx, 1, order.Link)
	require.NoError(t, err)
	assert.Equal(t, constants.ORDER_CANCELLED, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)
	assert.Equal(t, int64(5), f.product(f.laptop.ID).Stock)

	_, err = f.orders.CancelOrder(f.ctx, 1, order.Link)
	assert.True(t, IsCode(err, constants.ERR_INVALID_TRANSITION))
	assert.Equal(t, int64(5), f.product(f.laptop.ID).Stock)
	assert.Equal(t, 1, f.events.count(events.OrderCancelledRoutingKey))
}

func TestCancelOrder_PaidIsRejected(t *testing.T) {
	f := newFixture(t)
	order, txnRef := f.bankingOrder(1)
	ack := f.reconcile.HandleIPN(f.ctx, f.ipn(txnRef, order.FinalAmount, "00", "9001"))
	require.Equal(t, "00", ack.RspCode)

	_, err := f.orders.CancelOrder(f.ctx, 1, order.Link)
	assert.True(t, IsCode(err, constants.ERR_INVALID_TRANSITION))
}

func TestUpdateStatus_CODFulfillment(t *testing.T) {
	f := newFixture(t)
	order := f.checkout(1, constants.METHOD_COD, model.DirectItemInput{ProductId: f.shirt.ID, Quantity: 1})

	_, err := f.orders.UpdateStatus(f.ctx, order.Link, constants.ORDER_DELIVERED)
	assert.True(t, IsCode(err, constants.ERR_INVALID_TRANSITION))

	shipped, err := f.orders.UpdateStatus(f.ctx, order.Link, constants.ORDER_SHIPPING)
	require.NoError(t, err)
	assert.Equal(t, constants.ORDER_SHIPPING, shipped.Status)
	require.NotNil(t, shipped.ShippedAt)
	shippedAt := *shipped.ShippedAt

	f.advance(time.Hour)
	delivered, err := f.orders.UpdateStatus(f.ctx, order.Link, constants.ORDER_DELIVERED)
	require.NoError(t, err)
	assert.Equal(t, constants.ORDER_DELIVERED, delivered.Status)
	assert.Equal(t, constants.PAYMENT_PAID, delivered.PaymentStatus)
	assert.Equal(t, delivered.FinalAmount, delivered.PaidAmount)
	assert.True(t, delivered.ShippedAt.Equal(shippedAt))
	require.NotNil(t, delivered.DeliveredAt)

	_, err = f.orders.UpdateStatus(f.ctx, order.Link, constants.ORDER_CANCELLED)
	assert.True(t, IsCode(err, constants.ERR_INVALID_TRANSITION))
}

func TestUpdateStatus_BankingMustBePaidBeforeShipping(t *testing.T) {
	f := newFixture(t)
	order, txnRef := f.bankingOrder(1)

	_, err := f.orders.UpdateStatus(f.ctx, order.Link, constants.ORDER_SHIPPING)
	assert.True(t, IsCode(err, constants.ERR_INVALID_TRANSITION))

	f.reconcile.HandleIPN(f.ctx, f.ipn(txnRef, order.FinalAmount, "00", "9002"))
	shipped, err := f.orders.UpdateStatus(f.ctx, order.Link, constants.ORDER_SHIPPING)
	require.NoError(t, err)
	assert.Equal(t, constants.ORDER_SHIPPING, shipped.Status)
}

func TestUpdateStatus_CancelPaidOrderFlagsRefund(t *testing.T) {
	f := newFixture(t)
	order, txnRef := f.bankingOrder(1)
	f.reconcile.HandleIPN(f.ctx, f.ipn(txnRef, order.FinalAmount, "00", "9003"))

	cancelled, err := f.orders.UpdateStatus(f.ctx, order.Link, constants.ORDER_CANCELLED)
	require.NoError(t, err)
	assert.Equal(t, constants.ORDER_CANCELLED, cancelled.Status)
	assert.True(t, cancelled.NeedsReview)
	assert.Equal(t, 1, f.notifier.reviewCount())
	assert.Equal(t, int64(100), f.product(f.shirt.ID).Stock)
}

func TestFlagStalePayments(t *testing.T) {
	f := newFixture(t)
	stale, _ := f.bankingOrder(1)
	f.checkout(2, constants.METHOD_COD, model.DirectItemInput{ProductId: f.shirt.ID, Quantity: 1})
	f.advance(25 * time.Hour)
	fresh, _ := f.bankingOrder(3)

	n, err := f.orders.FlagStalePayments(f.ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, f.order(stale.ID).NeedsReview)
	assert.False(t, f.order(fresh.ID).NeedsReview)

	// lần quét sau không báo lại
	n, err = f.orders.FlagStalePayments(f.ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 1, f.notifier.reviewCount())
}

func TestListOrders_Paginates(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		f.checkout(1, constants.METHOD_COD, model.DirectItemInput{ProductId: f.shirt.ID, Quantity: 1})
	}

	page, total, err := f.orders.ListOrders(f.ctx, 1, repository.OrderListQuery{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, page, 1)
}

// links trả lần lượt các mã cho trước rồi lặp lại mã cuối
func links(codes ...string) func() string {
	var mu sync.Mutex
	i := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		code := codes[i]
		if i < len(codes)-1 {
			i++
		}
		return code
	}
}

func TestCreateOrder_RetriesOnLinkCollision(t *testing.T) {
	f := newFixture(t)
	f.orders.newLink = links("ORD-000000000A")
	first := f.checkout(1, constants.METHOD_COD, model.DirectItemInput{ProductId: f.shirt.ID, Quantity: 1})

	f.orders.newLink = links(first.Link, "ORD-000000000B")
	second, created, err := f.orders.CreateOrder(f.ctx, 2, model.CreateOrderInput{
		ShippingProfile: f.shipping,
		PaymentMethod:   constants.METHOD_COD,
		Items:           []model.DirectItemInput{{ProductId: f.shirt.ID, Quantity: 3}},
		IdempotencyKey:  "checkout-2",
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "ORD-000000000B", second.Link)

	// lần ghi bị trùng mã đã rollback, kho chỉ bị trừ một lần
	assert.Equal(t, int64(100-1-3), f.product(f.shirt.ID).Stock)
	assert.Equal(t, 2, f.events.count(events.OrderCreatedRoutingKey))
}

func TestCreateOrder_GivesUpAfterRepeatedLinkCollisions(t *testing.T) {
	f := newFixture(t)
	f.orders.newLink = links("ORD-000000000A")
	first := f.checkout(1, constants.METHOD_COD, model.DirectItemInput{ProductId: f.shirt.ID, Quantity: 1})

	_, _, err := f.orders.CreateOrder(f.ctx, 2, model.CreateOrderInput{
		ShippingProfile: f.shipping,
		PaymentMethod:   constants.METHOD_COD,
		Items:           []model.DirectItemInput{{ProductId: f.shirt.ID, Quantity: 3}},
	})
	assert.True(t, IsCode(err, constants.ERR_TRANSIENT))
	assert.Equal(t, int64(99), f.product(f.shirt.ID).Stock)

	orders, total, err := f.orders.ListOrders(f.ctx, 2, repository.OrderListQuery{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Equal(t, int64(0), total)
	assert.Equal(t, first.Link, f.order(first.ID).Link)
}
