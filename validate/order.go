package validate

import (
	"errors"
	"strings"

	"storefront/model"

	"github.com/gofiber/fiber/v2"
)

const maxIdempotencyKeyLen = 255

func CreateOrder() fiber.Handler {
	return body(func(c *fiber.Ctx, input *model.CreateOrderInput) error {
		key := strings.TrimSpace(c.Get("Idempotency-Key"))
		if len(key) > maxIdempotencyKeyLen {
			return errors.New("Idempotency-Key quá dài")
		}
		input.IdempotencyKey = key
		input.ShippingProfile.FullName = strings.TrimSpace(input.ShippingProfile.FullName)
		input.ShippingProfile.Phone = strings.TrimSpace(input.ShippingProfile.Phone)
		input.ShippingProfile.Address = strings.TrimSpace(input.ShippingProfile.Address)
		return nil
	})
}

func UpdateOrderStatus() fiber.Handler {
	return body(func(c *fiber.Ctx, input *model.UpdateOrderStatusInput) error {
		input.Status = strings.ToLower(strings.TrimSpace(input.Status))
		return nil
	})
}

func CreatePayment() fiber.Handler {
	return body[model.CreatePaymentInput](nil)
}
