package validate

import (
	"strings"

	"storefront/model"

	"github.com/gofiber/fiber/v2"
)

func AddCartItem() fiber.Handler {
	return body(func(c *fiber.Ctx, input *model.AddCartItemInput) error {
		input.Variant = strings.TrimSpace(input.Variant)
		return nil
	})
}

// Dùng sau GetById("itemId")
func UpdateCartItem() fiber.Handler {
	return body[model.UpdateCartItemInput](nil)
}

func ApplyVoucher() fiber.Handler {
	return body(func(c *fiber.Ctx, input *model.ApplyVoucherInput) error {
		input.Code = strings.ToUpper(strings.TrimSpace(input.Code))
		return nil
	})
}
