package handler

import (
	"net/url"

	"storefront/model"
	"storefront/utils"

	"github.com/gofiber/fiber/v2"
)

func (h *Handler) CreatePaymentURL(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	input := c.Locals("input").(model.CreatePaymentInput)

	paymentURL, err := h.Payments.CreatePaymentURL(c.UserContext(), user.UserId, input.OrderId, c.IP())
	if err != nil {
		return respondError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{"redirectUrl": paymentURL})
}

// VNPayReturn: trình duyệt quay về từ VNPay. Chỉ hiển thị, không đổi trạng thái đơn.
func (h *Handler) VNPayReturn(c *fiber.Ctx) error {
	res := h.Reconcile.HandleReturn(c.UserContext(), callbackValues(c))

	if h.FrontendURL == "" {
		return utils.SuccessResponse(c, fiber.StatusOK, res)
	}

	q := url.Values{}
	if res.Valid {
		q.Set("valid", "1")
	} else {
		q.Set("valid", "0")
	}
	q.Set("link", res.Link)
	q.Set("code", res.ResponseCode)
	q.Set("status", res.Status)
	q.Set("paymentStatus", res.PaymentStatus)
	return c.Redirect(h.FrontendURL+"/payment/result?"+q.Encode(), fiber.StatusFound)
}

// VNPayIPN: server-to-server, luôn trả 200 kèm RspCode cho VNPay
func (h *Handler) VNPayIPN(c *fiber.Ctx) error {
	ack := h.Reconcile.HandleIPN(c.UserContext(), callbackValues(c))
	return c.Status(fiber.StatusOK).JSON(ack)
}

// callbackValues gom tham số từ query string và form body (POST)
func callbackValues(c *fiber.Ctx) url.Values {
	values := url.Values{}
	c.Context().QueryArgs().VisitAll(func(k, v []byte) {
		values.Add(string(k), string(v))
	})
	if c.Method() == fiber.MethodPost {
		c.Request().PostArgs().VisitAll(func(k, v []byte) {
			if !values.Has(string(k)) {
				values.Add(string(k), string(v))
			}
		})
	}
	return values
}
