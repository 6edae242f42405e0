package handler

import (
	"storefront/helper"
	"storefront/model"
	"storefront/repository"
	"storefront/utils"

	"github.com/gofiber/fiber/v2"
)

// CreateOrder: 201 khi tạo mới, 200 khi Idempotency-Key đã dùng
func (h *Handler) CreateOrder(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	input := c.Locals("input").(model.CreateOrderInput)

	order, created, err := h.Orders.CreateOrder(c.UserContext(), user.UserId, input)
	if err != nil {
		return respondError(c, err)
	}

	status := fiber.StatusCreated
	if !created {
		status = fiber.StatusOK
	}
	return utils.SuccessResponse(c, status, order)
}

func (h *Handler) GetMyOrders(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	pagination, _ := c.Locals("pagination").(model.Pagination)

	q := repository.OrderListQuery{}
	if pagination.Page != nil {
		q.Page = *pagination.Page
	}
	if pagination.Limit != nil {
		q.Limit = *pagination.Limit
	}

	orders, total, err := h.Orders.ListOrders(c.UserContext(), user.UserId, q)
	if err != nil {
		return respondError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, model.ResponseCustom{
		Rows:       orders,
		Limit:      pagination.Limit,
		Page:       pagination.Page,
		TotalCount: total,
	})
}

func (h *Handler) GetOrderDetail(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	link := c.Locals("link").(string)

	order, err := h.Orders.GetOrder(c.UserContext(), user, link)
	if err != nil {
		return respondError(c, err)
	}

	// 1 QR cho cả đơn, trỏ về trang chi tiết đơn
	qrCode, err := utils.QRCodeDataURL(h.FrontendURL+"/orders/"+order.Link, 400)
	if err != nil {
		helper.Logger(c.UserContext()).Warnw("generate order qr failed", "link", order.Link, "error", err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
		"order":  order,
		"qrCode": qrCode,
	})
}

func (h *Handler) CancelOrderByUser(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	link := c.Locals("link").(string)

	order, err := h.Orders.CancelOrder(c.UserContext(), user.UserId, link)
	if err != nil {
		return respondError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, order)
}

// UpdateOrderStatus dành cho admin (AdminOnly)
func (h *Handler) UpdateOrderStatus(c *fiber.Ctx) error {
	link := c.Locals("link").(string)
	input := c.Locals("input").(model.UpdateOrderStatusInput)

	order, err := h.Orders.UpdateStatus(c.UserContext(), link, input.Status)
	if err != nil {
		return respondError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, order)
}
