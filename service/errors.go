package service

import (
	"errors"
	"fmt"

	"storefront/constants"
	"storefront/gateway"
)

type Kind int

const (
	KindValidation Kind = iota + 1
	KindConflict
	KindNotFound
	KindUntrusted
	KindTransient
	KindForbidden
)

// Error là lỗi nghiệp vụ có Code trả về cho client
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func transient(message string, err error) *Error {
	return &Error{Kind: KindTransient, Code: constants.ERR_TRANSIENT, Message: message, Err: err}
}

// rejectCallback phân loại callback không tin được để ghi log audit
func rejectCallback(err error) *Error {
	code := constants.ERR_MALFORMED_CALLBACK
	switch {
	case errors.Is(err, gateway.ErrInvalidSignature):
		code = constants.ERR_INVALID_SIGNATURE
	case errors.Is(err, gateway.ErrInvalidAmount):
		code = constants.ERR_AMOUNT_MISMATCH
	}
	return &Error{Kind: KindUntrusted, Code: code, Message: "callback bị từ chối", Err: err}
}

// IsCode cho test và handler kiểm tra mã lỗi
func IsCode(err error, code string) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

func errProductNotFound() *Error {
	return newError(KindNotFound, constants.ERR_PRODUCT_NOT_FOUND, "Sản phẩm không tồn tại")
}

func errOutOfStock(name string) *Error {
	return newError(KindConflict, constants.ERR_OUT_OF_STOCK, fmt.Sprintf("Sản phẩm %q không đủ hàng", name))
}

func errItemNotFound() *Error {
	return newError(KindNotFound, constants.ERR_ITEM_NOT_FOUND, "Sản phẩm không có trong giỏ hàng")
}

func errInvalidQuantity() *Error {
	return newError(KindValidation, constants.ERR_INVALID_QUANTITY, "Số lượng phải lớn hơn 0")
}

func errInvalidVoucher() *Error {
	return newError(KindValidation, constants.ERR_INVALID_VOUCHER, "Mã giảm giá không hợp lệ hoặc đã hết hạn")
}

func errMinOrderNotMet(min int64) *Error {
	return newError(KindValidation, constants.ERR_MIN_ORDER_NOT_MET,
		fmt.Sprintf("Đơn hàng tối thiểu %d VND để dùng mã này", min))
}

func errCartEmpty() *Error {
	return newError(KindValidation, constants.ERR_CART_EMPTY, "Giỏ hàng trống")
}

func errOrderNotFound() *Error {
	return newError(KindNotFound, constants.ERR_ORDER_NOT_FOUND, "Đơn hàng không tồn tại")
}
