// Package service holds the checkout business rules: cart mutations, order
// creation, payment URL issuing and gateway callback reconciliation.
package service

import (
	"context"
	"net/url"
	"time"

	"storefront/events"
	"storefront/gateway"
	"storefront/helper"
	"storefront/model"
)

// PaymentGateway là phần của cổng thanh toán mà service cần
type PaymentGateway interface {
	BuildPaymentUrl(req model.PaymentRequest) (string, error)
	ParseCallback(values url.Values) (gateway.Callback, error)
}

// Notifier gửi thông báo ra ngoài sau khi trạng thái đã commit
type Notifier interface {
	OrderPaid(ctx context.Context, order model.Order) error
	ReviewRequired(ctx context.Context, order model.Order, reason string) error
}

type NopNotifier struct{}

func (NopNotifier) OrderPaid(context.Context, model.Order) error              { return nil }
func (NopNotifier) ReviewRequired(context.Context, model.Order, string) error { return nil }

// publish gửi event sau commit; lỗi chỉ ghi log, không ảnh hưởng đơn hàng
func publish(ctx context.Context, p events.Publisher, routingKey string, o model.Order, at time.Time) {
	if p == nil {
		return
	}
	ev := events.Event{
		Type:          routingKey,
		OrderID:       o.ID,
		Link:          o.Link,
		UserID:        o.UserID,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		Amount:        o.FinalAmount,
		Timestamp:     at.UTC(),
	}
	if err := p.Publish(ctx, ev); err != nil {
		helper.Logger(ctx).Warnw("publish event failed", "event", routingKey, "order_id", o.ID, "error", err)
	}
}
