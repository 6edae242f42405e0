package validate

import (
	"errors"
	"strconv"
	"strings"

	"storefront/constants"
	"storefront/model"
	"storefront/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// Struct dùng chung validator của package cho các nơi khác (seed, test)
func Struct(s interface{}) error {
	return validate.Struct(s)
}

// body parse JSON body vào T, validate rồi lưu vào c.Locals("input")
func body[T any](prepare func(c *fiber.Ctx, input *T) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var input T
		if err := c.BodyParser(&input); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.ERROR_INPUT, err)
		}
		if prepare != nil {
			if err := prepare(c, &input); err != nil {
				return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.ERROR_INPUT, err)
			}
		}
		if err := validate.Struct(input); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
		}

		c.Locals("input", input)
		return c.Next()
	}
}

func GetById(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		params := c.Params(key)
		valueKey, err := strconv.ParseUint(params, 10, 64)
		if err != nil || valueKey == 0 {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.DATA_INPUT_IS_NOT_NUMBER, errors.New("params invalid"))
		}

		c.Locals("inputId", uint(valueKey))
		return c.Next()
	}
}

// OrderLink kiểm tra :link có dạng ORD-XXXXXXXXXX
func OrderLink(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		link := strings.ToUpper(strings.TrimSpace(c.Params(key)))
		if !strings.HasPrefix(link, "ORD-") || len(link) > 32 {
			return utils.ErrorCodeResponse(c, fiber.StatusNotFound, "Đơn hàng không tồn tại", constants.ERR_ORDER_NOT_FOUND)
		}
		c.Locals("link", link)
		return c.Next()
	}
}

func Pagination() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var input model.Pagination
		if err := c.QueryParser(&input); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.DATA_INPUT_IS_NOT_NUMBER, err)
		}
		if input.Page != nil && *input.Page < 1 {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "page phải lớn hơn 0", errors.New("invalid page"))
		}
		if input.Limit != nil && (*input.Limit < 1 || *input.Limit > 100) {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "limit phải trong khoảng 1-100", errors.New("invalid limit"))
		}
		c.Locals("pagination", input)
		return c.Next()
	}
}
