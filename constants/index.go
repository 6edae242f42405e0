package constants

// Order.Status
const (
	ORDER_PENDING   = "pending"
	ORDER_PAID      = "paid"
	ORDER_SHIPPING  = "shipping"
	ORDER_DELIVERED = "delivered"
	ORDER_CANCELLED = "cancelled"
)

// Order.PaymentStatus
const (
	PAYMENT_PENDING = "pending"
	PAYMENT_PAID    = "paid"
	PAYMENT_FAILED  = "failed"
)

// Order.PaymentMethod
const (
	METHOD_COD     = "COD"
	METHOD_BANKING = "Banking"
)

// PaymentTransaction.Status
const (
	TXN_PENDING = "PENDING"
	TXN_SUCCESS = "SUCCESS"
	TXN_FAILED  = "FAILED"
)

// Cart.Status
const (
	CART_ACTIVE    = "ACTIVE"
	CART_ABANDONED = "ABANDONED"
)

// Voucher.DiscountType
const (
	DISCOUNT_FIXED      = "FIXED"
	DISCOUNT_PERCENTAGE = "PERCENTAGE"
)

const (
	ROLE_ADMIN    = "ADMIN"
	ROLE_CUSTOMER = "CUSTOMER"
)

// Error codes returned in the "error" field of the response envelope.
const (
	ERR_PRODUCT_NOT_FOUND  = "ProductNotFound"
	ERR_OUT_OF_STOCK       = "OutOfStock"
	ERR_ITEM_NOT_FOUND     = "ItemNotFound"
	ERR_INVALID_VOUCHER    = "InvalidVoucher"
	ERR_MIN_ORDER_NOT_MET  = "MinOrderNotMet"
	ERR_INVALID_QUANTITY   = "InvalidQuantity"
	ERR_CART_EMPTY         = "CartEmpty"
	ERR_ORDER_NOT_FOUND    = "OrderNotFound"
	ERR_ORDER_NOT_PAYABLE  = "OrderNotPayable"
	ERR_INVALID_TRANSITION = "InvalidStatusTransition"
	ERR_VALIDATION         = "ValidationError"
	ERR_UNAUTHORIZED       = "Unauthorized"
	ERR_FORBIDDEN          = "Forbidden"
	ERR_TRANSIENT          = "TemporarilyUnavailable"

	// chỉ ghi log, không trả ra ngoài
	ERR_INVALID_SIGNATURE  = "InvalidSignature"
	ERR_AMOUNT_MISMATCH    = "AmountMismatch"
	ERR_MALFORMED_CALLBACK = "MalformedCallback"
)

const (
	ERROR_INTERNAL_ERROR     = "Lỗi hệ thống, vui lòng thử lại sau"
	ERROR_INPUT              = "Dữ liệu đầu vào không hợp lệ"
	DATA_INPUT_IS_NOT_NUMBER = "Tham số phải là số"
	MISSING_TOKEN            = "Vui lòng đăng nhập"
	INVALID_TOKEN            = "Phiên đăng nhập không hợp lệ"
	NOT_ADMIN                = "Bạn không có quyền thực hiện thao tác này"
)
