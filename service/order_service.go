package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"storefront/constants"
	"storefront/events"
	"storefront/helper"
	"storefront/locker"
	"storefront/model"
	"storefront/repository"

	"github.com/jinzhu/copier"
)

const maxLinkAttempts = 5

// Luồng chuyển trạng thái admin được phép
var adminTransitions = map[string][]string{
	constants.ORDER_PENDING:  {constants.ORDER_SHIPPING, constants.ORDER_CANCELLED},
	constants.ORDER_PAID:     {constants.ORDER_SHIPPING, constants.ORDER_CANCELLED},
	constants.ORDER_SHIPPING: {constants.ORDER_DELIVERED},
}

type OrderService struct {
	store    repository.Store
	locks    locker.Locker
	pricing  helper.PricingEngine
	events   events.Publisher
	notifier Notifier
	now      func() time.Time
	newLink  func() string
}

func NewOrderService(store repository.Store, locks locker.Locker, pricing helper.PricingEngine, publisher events.Publisher, notifier Notifier) *OrderService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &OrderService{store: store, locks: locks, pricing: pricing, events: publisher, notifier: notifier, now: time.Now, newLink: helper.NewOrderLink}
}

type orderLine struct {
	productID uint
	variant   string
	quantity  int64
}

// CreateOrder tạo đơn từ input.Items (mua ngay) hoặc từ giỏ hàng.
// created=false khi Idempotency-Key đã dùng: trả lại đơn cũ.
func (s *OrderService) CreateOrder(ctx context.Context, userID uint, in model.CreateOrderInput) (order model.Order, created bool, err error) {
	if in.PaymentMethod != constants.METHOD_COD && in.PaymentMethod != constants.METHOD_BANKING {
		return model.Order{}, false, newError(KindValidation, constants.ERR_VALIDATION, "Phương thức thanh toán không hợp lệ")
	}

	// Cùng lock với giỏ hàng: không sửa giỏ trong lúc đang checkout
	unlock, err := s.locks.Lock(ctx, locker.CartKey(userID))
	if err != nil {
		return model.Order{}, false, transient("Đang xử lý đơn hàng khác, vui lòng thử lại", err)
	}
	defer unlock()

	if in.IdempotencyKey != "" {
		existing, err := s.store.Orders().FindByIdempotencyKey(ctx, userID, in.IdempotencyKey)
		if err == nil {
			return existing, false, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return model.Order{}, false, err
		}
	}

	now := s.now()
	for attempt := 1; ; attempt++ {
		order, err = s.insertOrder(ctx, userID, in, now)
		if !errors.Is(err, repository.ErrDuplicate) {
			break
		}
		if in.IdempotencyKey != "" {
			// Replica khác vừa tạo đơn với cùng key
			existing, findErr := s.store.Orders().FindByIdempotencyKey(ctx, userID, in.IdempotencyKey)
			if findErr == nil {
				return existing, false, nil
			}
		}
		// Trùng mã đơn: tạo lại cả transaction với mã mới
		if attempt == maxLinkAttempts {
			return model.Order{}, false, transient("Không tạo được mã đơn hàng", fmt.Errorf("order insert still duplicated after %d attempts: %w", attempt, err))
		}
		helper.Logger(ctx).Warnw("order insert duplicated, retrying", "user_id", userID, "attempt", attempt)
	}
	if err != nil {
		return model.Order{}, false, err
	}

	helper.Logger(ctx).Infow("order created", "order_id", order.ID, "link", order.Link, "final_amount", order.FinalAmount, "method", order.PaymentMethod)
	publish(ctx, s.events, events.OrderCreatedRoutingKey, order, now)
	return order, true, nil
}

// insertOrder ghi đơn, trừ kho và xoá giỏ trong một transaction
func (s *OrderService) insertOrder(ctx context.Context, userID uint, in model.CreateOrderInput, now time.Time) (order model.Order, err error) {
	err = s.store.WithinTx(ctx, func(r repository.TxRepos) error {
		var (
			lines    []orderLine
			voucher  *model.Voucher
			fromCart *model.Cart
		)

		if len(in.Items) > 0 {
			lines = mergeDirectItems(in.Items)
		} else {
			cart, err := r.Carts().FindByUserIDForUpdate(ctx, userID)
			if errors.Is(err, repository.ErrNotFound) {
				return errCartEmpty()
			}
			if err != nil {
				return err
			}
			if len(cart.Items) == 0 {
				return errCartEmpty()
			}
			for _, it := range cart.Items {
				lines = append(lines, orderLine{productID: it.ProductID, variant: it.Variant, quantity: it.Quantity})
			}
			voucher = cart.Voucher
			fromCart = &cart
		}

		// Chốt giá hiện tại của catalog
		products := map[uint]model.Product{}
		items := make([]model.OrderItem, 0, len(lines))
		for _, l := range lines {
			if l.quantity < 1 {
				return errInvalidQuantity()
			}
			p, ok := products[l.productID]
			if !ok {
				var err error
				if p, err = findActiveProduct(ctx, r, l.productID); err != nil {
					return err
				}
				products[l.productID] = p
			}
			items = append(items, model.OrderItem{
				ProductID:   p.ID,
				ProductName: p.Name,
				Variant:     l.variant,
				Quantity:    l.quantity,
				UnitPrice:   p.Price,
				Subtotal:    p.Price * l.quantity,
			})
		}

		if err := s.decreaseStock(ctx, r, items, products); err != nil {
			return err
		}

		priceLines := make([]helper.PriceLine, 0, len(items))
		for _, it := range items {
			priceLines = append(priceLines, helper.PriceLine{UnitPrice: it.UnitPrice, Quantity: it.Quantity})
		}

		// Voucher kiểm tra lại tại thời điểm đặt hàng
		voucherCode := ""
		if voucher != nil {
			subtotal := cartSubtotalOf(priceLines)
			if !voucher.IsValidAt(now) {
				return errInvalidVoucher()
			}
			if !voucher.IsApplicable(subtotal, now) {
				return errMinOrderNotMet(voucher.MinOrderValue)
			}
			voucherCode = voucher.Code
		}
		totals := s.pricing.ComputeTotals(priceLines, voucher, now)

		o := model.Order{
			Link:          s.newLink(),
			UserID:        userID,
			Items:         items,
			TotalAmount:   totals.Subtotal,
			ShippingFee:   totals.ShippingFee,
			Discount:      totals.Discount,
			FinalAmount:   totals.FinalAmount,
			VoucherCode:   voucherCode,
			Status:        constants.ORDER_PENDING,
			PaymentMethod: in.PaymentMethod,
			PaymentStatus: constants.PAYMENT_PENDING,
		}
		if err := copier.Copy(&o, &in.ShippingProfile); err != nil {
			return err
		}
		if in.IdempotencyKey != "" {
			key := in.IdempotencyKey
			o.IdempotencyKey = &key
		}

		if err := r.Orders().Create(ctx, &o); err != nil {
			return err
		}

		// Xoá giỏ sau khi đã ghi đơn, cùng transaction
		if fromCart != nil {
			if err := r.Carts().ClearItems(ctx, fromCart.ID); err != nil {
				return err
			}
			fromCart.Items = nil
			fromCart.VoucherID = nil
			fromCart.Voucher = nil
			fromCart.TotalAmount, fromCart.DiscountAmount, fromCart.ShippingFee, fromCart.FinalAmount = 0, 0, 0, 0
			if err := r.Carts().SaveSummary(ctx, *fromCart); err != nil {
				return err
			}
		}

		order = o
		return nil
	})
	return order, err
}

// decreaseStock trừ kho theo thứ tự product id, hết hàng thì huỷ cả transaction
func (s *OrderService) decreaseStock(ctx context.Context, r repository.TxRepos, items []model.OrderItem, products map[uint]model.Product) error {
	need := map[uint]int64{}
	for _, it := range items {
		need[it.ProductID] += it.Quantity
	}
	ids := make([]uint, 0, len(need))
	for id := range need {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		ok, err := r.Products().DecreaseStockIfEnough(ctx, id, need[id])
		if err != nil {
			return err
		}
		if !ok {
			return errOutOfStock(products[id].Name)
		}
	}
	return nil
}

func (s *OrderService) restoreStock(ctx context.Context, r repository.TxRepos, items []model.OrderItem) error {
	for _, it := range items {
		if err := r.Products().IncreaseStock(ctx, it.ProductID, it.Quantity); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
	}
	return nil
}

func (s *OrderService) ListOrders(ctx context.Context, userID uint, q repository.OrderListQuery) ([]model.Order, int64, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 100 {
		q.Limit = 20
	}
	return s.store.Orders().ListByUserID(ctx, userID, q)
}

// GetOrder: chỉ chủ đơn hoặc admin xem được, người khác nhận NotFound
func (s *OrderService) GetOrder(ctx context.Context, user model.TokenClaim, link string) (model.Order, error) {
	order, err := s.store.Orders().FindByLink(ctx, link)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Order{}, errOrderNotFound()
	}
	if err != nil {
		return model.Order{}, err
	}
	if order.UserID != user.UserId && user.Role != constants.ROLE_ADMIN {
		return model.Order{}, errOrderNotFound()
	}
	return order, nil
}

// CancelOrder: user chỉ huỷ được đơn pending chưa thanh toán, kho được trả lại
func (s *OrderService) CancelOrder(ctx context.Context, userID uint, link string) (model.Order, error) {
	return s.transition(ctx, link, constants.ORDER_CANCELLED, func(o model.Order) error {
		if o.UserID != userID {
			return errOrderNotFound()
		}
		if o.Status != constants.ORDER_PENDING || o.PaymentStatus == constants.PAYMENT_PAID {
			return newError(KindConflict, constants.ERR_INVALID_TRANSITION, "Chỉ huỷ được đơn hàng chưa thanh toán")
		}
		return nil
	})
}

// UpdateStatus dành cho admin: pending/paid -> shipping -> delivered, hoặc huỷ
func (s *OrderService) UpdateStatus(ctx context.Context, link, to string) (model.Order, error) {
	return s.transition(ctx, link, to, func(o model.Order) error {
		allowed := false
		for _, next := range adminTransitions[o.Status] {
			if next == to {
				allowed = true
				break
			}
		}
		// Đơn chuyển khoản phải thanh toán xong mới được giao
		if to == constants.ORDER_SHIPPING && o.Status == constants.ORDER_PENDING && o.PaymentMethod != constants.METHOD_COD {
			allowed = false
		}
		if !allowed {
			return newError(KindConflict, constants.ERR_INVALID_TRANSITION,
				fmt.Sprintf("Không thể chuyển đơn hàng từ %s sang %s", o.Status, to))
		}
		return nil
	})
}

func (s *OrderService) transition(ctx context.Context, link, to string, check func(o model.Order) error) (model.Order, error) {
	current, err := s.store.Orders().FindByLink(ctx, link)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Order{}, errOrderNotFound()
	}
	if err != nil {
		return model.Order{}, err
	}

	// Cùng lock với IPN của đơn này
	unlock, err := s.locks.Lock(ctx, locker.OrderKey(current.ID))
	if err != nil {
		return model.Order{}, transient("Đơn hàng đang được xử lý, vui lòng thử lại", err)
	}
	defer unlock()

	now := s.now()
	var updated model.Order
	reviewReason := ""
	err = s.store.WithinTx(ctx, func(r repository.TxRepos) error {
		o, err := r.Orders().FindByIDForUpdate(ctx, current.ID)
		if err != nil {
			return err
		}
		if err := check(o); err != nil {
			return err
		}

		ok, err := r.Orders().Transition(ctx, o.ID, o.Status, to, now)
		if err != nil {
			return err
		}
		if !ok {
			return newError(KindConflict, constants.ERR_INVALID_TRANSITION, "Trạng thái đơn hàng vừa thay đổi, vui lòng thử lại")
		}

		switch to {
		case constants.ORDER_CANCELLED:
			if err := s.restoreStock(ctx, r, current.Items); err != nil {
				return err
			}
			if o.PaymentStatus == constants.PAYMENT_PAID {
				reviewReason = "Đơn đã thanh toán bị huỷ, cần hoàn tiền"
				if err := r.Orders().FlagReview(ctx, o.ID, reviewReason); err != nil {
					return err
				}
			}
		case constants.ORDER_DELIVERED:
			// COD: giao xong là thu tiền xong
			if o.PaymentMethod == constants.METHOD_COD && o.PaymentStatus != constants.PAYMENT_PAID {
				if _, err := r.Orders().MarkPaid(ctx, o.ID, o.FinalAmount, now); err != nil {
					return err
				}
			}
		}

		updated, err = r.Orders().FindByID(ctx, o.ID)
		return err
	})
	if err != nil {
		return model.Order{}, err
	}

	helper.Logger(ctx).Infow("order status changed", "order_id", updated.ID, "link", updated.Link, "status", updated.Status)
	routingKey := events.OrderStatusRoutingKey
	if to == constants.ORDER_CANCELLED {
		routingKey = events.OrderCancelledRoutingKey
	}
	publish(ctx, s.events, routingKey, updated, now)
	if reviewReason != "" {
		s.notifyReview(ctx, updated, reviewReason)
	}
	return updated, nil
}

// FlagStalePayments đánh dấu review các đơn chuyển khoản không nhận được IPN sau olderThan
func (s *OrderService) FlagStalePayments(ctx context.Context, olderThan time.Duration) (int, error) {
	now := s.now()
	orders, err := s.store.Orders().ListStalePending(ctx, constants.METHOD_BANKING, now.Add(-olderThan))
	if err != nil {
		return 0, err
	}

	reason := fmt.Sprintf("Chưa nhận được IPN sau %s", olderThan)
	for _, o := range orders {
		if err := s.store.Orders().FlagReview(ctx, o.ID, reason); err != nil {
			return 0, err
		}
		o.NeedsReview, o.ReviewReason = true, reason
		publish(ctx, s.events, events.PaymentReviewRoutingKey, o, now)
		s.notifyReview(ctx, o, reason)
	}
	return len(orders), nil
}

func (s *OrderService) notifyReview(ctx context.Context, o model.Order, reason string) {
	if err := s.notifier.ReviewRequired(ctx, o, reason); err != nil {
		helper.Logger(ctx).Warnw("review alert failed", "order_id", o.ID, "error", err)
	}
}

// Gộp các dòng trùng sản phẩm + biến thể
func mergeDirectItems(in []model.DirectItemInput) []orderLine {
	lines := []orderLine{}
	index := map[string]int{}
	for _, it := range in {
		key := fmt.Sprintf("%d|%s", it.ProductId, it.Variant)
		if i, ok := index[key]; ok {
			lines[i].quantity += it.Quantity
			continue
		}
		index[key] = len(lines)
		lines = append(lines, orderLine{productID: it.ProductId, variant: it.Variant, quantity: it.Quantity})
	}
	return lines
}

func cartSubtotalOf(lines []helper.PriceLine) int64 {
	var sum int64
	for _, l := range lines {
		sum += l.UnitPrice * l.Quantity
	}
	return sum
}
