package service

import (
	"context"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"storefront/constants"
	"storefront/events"
	"storefront/gateway"
	"storefront/helper"
	"storefront/locker"
	"storefront/model"
	"storefront/repository/memstore"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const testShippingFee = 30000

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) count(eventType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, ev := range p.events {
		if ev.Type == eventType {
			n++
		}
	}
	return n
}

type recordingNotifier struct {
	mu      sync.Mutex
	paid    []uint
	reviews []string
}

func (n *recordingNotifier) OrderPaid(_ context.Context, o model.Order) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paid = append(n.paid, o.ID)
	return nil
}

func (n *recordingNotifier) ReviewRequired(_ context.Context, o model.Order, reason string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reviews = append(n.reviews, reason)
	return nil
}

func (n *recordingNotifier) paidCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.paid)
}

func (n *recordingNotifier) reviewCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.reviews)
}

type fixture struct {
	t   *testing.T
	ctx context.Context

	store    *memstore.Store
	locks    *locker.KeyedMutex
	gw       *gateway.VNPay
	events   *recordingPublisher
	notifier *recordingNotifier

	cart      *CartService
	orders    *OrderService
	payments  *PaymentService
	reconcile *ReconcileService

	mu  sync.Mutex
	now time.Time

	shirt    model.Product
	laptop   model.Product
	lastOne  model.Product
	welcome  model.Voucher
	save10   model.Voucher
	shipping model.ShippingProfile
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		t:        t,
		ctx:      context.Background(),
		store:    memstore.New(),
		locks:    locker.NewKeyedMutex(),
		events:   &recordingPublisher{},
		notifier: &recordingNotifier{},
		now:      time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		shipping: model.ShippingProfile{
			FullName: "Nguyễn Văn A",
			Phone:    "0901234567",
			Email:    "a@example.com",
			Address:  "12 Lê Lợi, Quận 1, TP.HCM",
		},
	}
	f.store.SetClock(f.clock)
	f.gw = gateway.NewVNPay(model.VNPayConfig{
		TmnCode:    "DEMO1234",
		HashSecret: "SECRETSECRETSECRET",
		BaseURL:    "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
		ReturnURL:  "http://localhost:8002/payment/return",
		Locale:     "vn",
	})

	pricing := helper.NewPricingEngine(testShippingFee)
	f.cart = NewCartService(f.store, f.locks, pricing)
	f.orders = NewOrderService(f.store, f.locks, pricing, f.events, f.notifier)
	f.payments = NewPaymentService(f.store, f.gw)
	f.reconcile = NewReconcileService(f.store, f.gw, f.locks, f.events, f.notifier, 2*time.Second)
	f.cart.now = f.clock
	f.orders.now = f.clock
	f.reconcile.now = f.clock

	f.shirt = f.store.SeedProduct(model.Product{Name: "Áo thun", Slug: "ao-thun", Price: 300000, Stock: 100, IsActive: true})
	f.laptop = f.store.SeedProduct(model.Product{Name: "Laptop", Slug: "laptop", Price: 2000000, Stock: 5, IsActive: true})
	f.lastOne = f.store.SeedProduct(model.Product{Name: "Bản giới hạn", Slug: "ban-gioi-han", Price: 100000, Stock: 1, IsActive: true})

	f.welcome = f.store.SeedVoucher(model.Voucher{
		Code:          "WELCOME50K",
		DiscountType:  constants.DISCOUNT_FIXED,
		DiscountValue: decimal.NewFromInt(50000),
		MinOrderValue: 500000,
		StartDate:     f.now.AddDate(0, -1, 0),
		EndDate:       f.now.AddDate(0, 1, 0),
		IsActive:      true,
	})
	f.save10 = f.store.SeedVoucher(model.Voucher{
		Code:          "SAVE10PCT",
		DiscountType:  constants.DISCOUNT_PERCENTAGE,
		DiscountValue: decimal.NewFromInt(10),
		MinOrderValue: 1000000,
		StartDate:     f.now.AddDate(0, -1, 0),
		EndDate:       f.now.AddDate(0, 1, 0),
		IsActive:      true,
	})
	return f
}

func (f *fixture) clock() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fixture) advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func (f *fixture) addToCart(userID uint, p model.Product, qty int64) model.Cart {
	f.t.Helper()
	cart, err := f.cart.AddItem(f.ctx, userID, model.AddCartItemInput{ProductId: p.ID, Quantity: qty})
	require.NoError(f.t, err)
	return cart
}

func (f *fixture) checkout(userID uint, method string, items ...model.DirectItemInput) model.Order {
	f.t.Helper()
	order, created, err := f.orders.CreateOrder(f.ctx, userID, model.CreateOrderInput{
		ShippingProfile: f.shipping,
		PaymentMethod:   method,
		Items:           items,
	})
	require.NoError(f.t, err)
	require.True(f.t, created)
	return order
}

func (f *fixture) product(id uint) model.Product {
	f.t.Helper()
	p, err := f.store.Products().FindByID(f.ctx, id)
	require.NoError(f.t, err)
	return p
}

func (f *fixture) order(id uint) model.Order {
	f.t.Helper()
	o, err := f.store.Orders().FindByID(f.ctx, id)
	require.NoError(f.t, err)
	return o
}

// ipn dựng callback VNPay đã ký cho một lần thanh toán
func (f *fixture) ipn(txnRef string, amount int64, code, gatewayRef string) url.Values {
	q := url.Values{}
	q.Set("vnp_TmnCode", "DEMO1234")
	q.Set("vnp_TxnRef", txnRef)
	q.Set("vnp_Amount", strconv.FormatInt(amount*100, 10))
	q.Set("vnp_ResponseCode", code)
	q.Set("vnp_TransactionStatus", code)
	q.Set("vnp_TransactionNo", gatewayRef)
	q.Set("vnp_BankCode", "NCB")
	q.Set("vnp_OrderInfo", "Thanh toan don hang")
	q.Set("vnp_PayDate", "20260310090500")
	return f.gw.Sign(q)
}

// bankingOrder tạo đơn chuyển khoản và một lần thanh toán, trả về TxnRef
func (f *fixture) bankingOrder(userID uint) (model.Order, string) {
	f.t.Helper()
	order := f.checkout(userID, constants.METHOD_BANKING, model.DirectItemInput{ProductId: f.shirt.ID, Quantity: 2})

	raw, err := f.payments.CreatePaymentURL(f.ctx, userID, order.ID, "127.0.0.1")
	require.NoError(f.t, err)
	u, err := url.Parse(raw)
	require.NoError(f.t, err)
	return order, u.Query().Get("vnp_TxnRef")
}
