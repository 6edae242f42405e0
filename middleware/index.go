package middleware

import (
	"errors"
	"strings"

	"storefront/constants"
	"storefront/helper"
	"storefront/utils"

	"github.com/gofiber/fiber/v2"
)

// RequestContext đưa request id (đã gắn bởi requestid middleware) vào
// UserContext để service ghi log theo request
func RequestContext() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, _ := c.Locals("requestid").(string)
		if id == "" {
			id = c.GetRespHeader(fiber.HeaderXRequestID)
		}
		c.SetUserContext(helper.WithRequestID(c.UserContext(), id))
		return c.Next()
	}
}

func Protected(secret []byte) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies("access_token")

		if token == "" {
			// check header Authorization: Bearer xxx
			auth := c.Get("Authorization")
			if strings.HasPrefix(auth, "Bearer ") {
				token = strings.TrimPrefix(auth, "Bearer ")
			}
		}

		if token == "" {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, constants.MISSING_TOKEN, errors.New(constants.ERR_UNAUTHORIZED))
		}

		claim, err := helper.ParseToken(secret, token)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, constants.INVALID_TOKEN, errors.New(constants.ERR_UNAUTHORIZED))
		}

		c.Locals("user", claim)
		c.SetUserContext(helper.WithUser(c.UserContext(), claim))
		return c.Next()
	}
}

// AdminOnly dùng sau Protected
func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claim, ok := helper.GetUserFromToken(c)
		if !ok || claim.Role != constants.ROLE_ADMIN {
			return utils.ErrorResponse(c, fiber.StatusForbidden, constants.NOT_ADMIN, errors.New(constants.ERR_FORBIDDEN))
		}
		return c.Next()
	}
}
