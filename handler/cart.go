package handler

import (
	"storefront/model"
	"storefront/utils"

	"github.com/gofiber/fiber/v2"
)

func (h *Handler) GetCart(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	cart, err := h.Cart.GetCart(c.UserContext(), user.UserId)
	if err != nil {
		return respondError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, cart)
}

func (h *Handler) AddCartItem(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	input := c.Locals("input").(model.AddCartItemInput)

	cart, err := h.Cart.AddItem(c.UserContext(), user.UserId, input)
	if err != nil {
		return respondError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, cart)
}

func (h *Handler) UpdateCartItem(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	itemID := c.Locals("inputId").(uint)
	input := c.Locals("input").(model.UpdateCartItemInput)

	cart, err := h.Cart.UpdateItem(c.UserContext(), user.UserId, itemID, input.Quantity)
	if err != nil {
		return respondError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, cart)
}

func (h *Handler) RemoveCartItem(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	itemID := c.Locals("inputId").(uint)

	cart, err := h.Cart.RemoveItem(c.UserContext(), user.UserId, itemID)
	if err != nil {
		return respondError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, cart)
}

func (h *Handler) ApplyVoucher(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	input := c.Locals("input").(model.ApplyVoucherInput)

	cart, err := h.Cart.ApplyVoucher(c.UserContext(), user.UserId, input.Code)
	if err != nil {
		return respondError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, cart)
}

func (h *Handler) RemoveVoucher(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	cart, err := h.Cart.RemoveVoucher(c.UserContext(), user.UserId)
	if err != nil {
		return respondError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, cart)
}

// AbandonCart: người dùng bỏ giỏ hàng hiện tại
func (h *Handler) AbandonCart(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	cart, err := h.Cart.Abandon(c.UserContext(), user.UserId)
	if err != nil {
		return respondError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, cart)
}
