// Package events publishes order/payment domain events after the state change
// has been committed. Publishing is best effort: a failed publish is logged by
// the caller and never rolls back the order.
package events

import (
	"context"
	"errors"
	"time"
)

const (
	EventsExchange = "storefront.events"

	OrderCreatedRoutingKey     = "order.created.v1"
	OrderCancelledRoutingKey   = "order.cancelled.v1"
	OrderStatusRoutingKey      = "order.status_changed.v1"
	PaymentConfirmedRoutingKey = "payment.confirmed.v1"
	PaymentFailedRoutingKey    = "payment.failed.v1"
	PaymentReviewRoutingKey    = "payment.review_required.v1"
)

type Event struct {
	Type          string    `json:"eventType"`
	OrderID       uint      `json:"orderId"`
	Link          string    `json:"link"`
	UserID        uint      `json:"userId"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"paymentStatus"`
	Amount        int64     `json:"amount"`
	Timestamp     time.Time `json:"timestamp"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Multi gửi event tới tất cả publisher, gom lỗi lại
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
