package handler

import (
	"errors"

	"storefront/constants"
	"storefront/helper"
	"storefront/model"
	"storefront/service"
	"storefront/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// Handler gom các service mà route cần
type Handler struct {
	Cart      *service.CartService
	Orders    *service.OrderService
	Payments  *service.PaymentService
	Reconcile *service.ReconcileService

	// FrontendURL là nơi trang kết quả thanh toán và chi tiết đơn hàng được hiển thị
	FrontendURL string
	// Redis nil thì websocket chỉ gửi trạng thái hiện tại rồi đóng
	Redis *redis.Client
}

// respondError chuyển lỗi service thành response, lỗi lạ thành 500
func respondError(c *fiber.Ctx, err error) error {
	var e *service.Error
	if !errors.As(err, &e) {
		helper.Logger(c.UserContext()).Errorw("unhandled error", "path", c.Path(), "error", err)
		return utils.ErrorCodeResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, constants.ERR_TRANSIENT)
	}

	status := fiber.StatusInternalServerError
	switch e.Kind {
	case service.KindValidation:
		status = fiber.StatusBadRequest
	case service.KindConflict:
		status = fiber.StatusConflict
	case service.KindNotFound:
		status = fiber.StatusNotFound
	case service.KindForbidden:
		status = fiber.StatusForbidden
	case service.KindTransient:
		status = fiber.StatusServiceUnavailable
		helper.Logger(c.UserContext()).Warnw("transient error", "path", c.Path(), "error", err)
	}
	return utils.ErrorCodeResponse(c, status, e.Message, e.Code)
}

func currentUser(c *fiber.Ctx) (model.TokenClaim, bool) {
	return helper.GetUserFromToken(c)
}

func unauthorized(c *fiber.Ctx) error {
	return utils.ErrorResponse(c, fiber.StatusUnauthorized, constants.MISSING_TOKEN, errors.New(constants.ERR_UNAUTHORIZED))
}

func Healthz(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
