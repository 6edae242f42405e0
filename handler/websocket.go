package handler

import (
	"context"
	"strings"

	"storefront/events"
	"storefront/helper"
	"storefront/model"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type orderStatusMessage struct {
	Type          string `json:"type"`
	Link          string `json:"link"`
	Status        string `json:"status"`
	PaymentStatus string `json:"paymentStatus"`
}

// UpgradeWebsocket chặn request không phải websocket trước khi vào handler
func UpgradeWebsocket(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// OrderStatusSocket đẩy trạng thái thanh toán của một đơn cho trang kết quả.
// Gửi trạng thái hiện tại ngay khi kết nối, sau đó chuyển tiếp event từ Redis.
func (h *Handler) OrderStatusSocket(c *websocket.Conn) {
	defer c.Close()

	user, ok := c.Locals("user").(model.TokenClaim)
	if !ok {
		return
	}
	link := strings.ToUpper(c.Params("link"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = helper.WithUser(ctx, user)
	log := helper.Logger(ctx)

	order, err := h.Orders.GetOrder(ctx, user, link)
	if err != nil {
		_ = c.WriteJSON(fiber.Map{"error": "OrderNotFound"})
		return
	}
	if err := c.WriteJSON(orderStatusMessage{Type: "snapshot", Link: order.Link, Status: order.Status, PaymentStatus: order.PaymentStatus}); err != nil {
		return
	}
	if h.Redis == nil {
		return
	}

	pubsub := h.Redis.Subscribe(ctx, events.OrderChannel(order.Link))
	defer pubsub.Close()

	// Client đóng kết nối thì dừng subscribe
	go func() {
		defer cancel()
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	channel := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-channel:
			if !ok {
				return
			}
			if err := c.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				log.Infow("order socket closed", "link", order.Link, "error", err)
				return
			}
		}
	}
}
