package utils

import (
	"github.com/gofiber/fiber/v2"
)

// ErrorResponse: {"message": ..., "error": code}
func ErrorResponse(c *fiber.Ctx, status int, message string, err error) error {
	var errMsg interface{}
	if err != nil {
		errMsg = err.Error()
	} else {
		errMsg = nil
	}
	return c.Status(status).JSON(fiber.Map{
		"message": message,
		"error":   errMsg,
	})
}

// ErrorCodeResponse trả về mã lỗi nghiệp vụ thay vì chuỗi lỗi nội bộ
func ErrorCodeResponse(c *fiber.Ctx, status int, message, code string) error {
	return c.Status(status).JSON(fiber.Map{
		"message": message,
		"error":   code,
	})
}

func SuccessResponse(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(fiber.Map{
		"status": "success",
		"data":   data,
	})
}
