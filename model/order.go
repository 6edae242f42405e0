package model

import "time"

// Order là bản ghi tài chính: sau khi tạo chỉ status, payment_status,
// paid_amount, các mốc thời gian và cờ review được phép thay đổi.
type Order struct {
	DTO
	Link           string      `gorm:"uniqueIndex;size:32;not null" json:"link"` // Mã đơn công khai (ORD-XXXXXXXXXX)
	UserID         uint        `gorm:"not null;index;uniqueIndex:idx_orders_user_idem" json:"userId"`
	IdempotencyKey *string     `gorm:"size:255;uniqueIndex:idx_orders_user_idem" json:"-"`
	Items          []OrderItem `gorm:"foreignKey:OrderID" json:"items"`

	TotalAmount int64  `gorm:"not null" json:"totalAmount"`
	ShippingFee int64  `gorm:"not null" json:"shippingFee"`
	Discount    int64  `gorm:"not null" json:"discount"`
	FinalAmount int64  `gorm:"not null" json:"finalAmount"`
	VoucherCode string `gorm:"size:50" json:"voucherCode,omitempty"`

	FullName string `gorm:"not null" json:"fullName"`
	Phone    string `gorm:"not null" json:"phone"`
	Email    string `json:"email"`
	Address  string `gorm:"type:text;not null" json:"address"`
	Note     string `gorm:"type:text" json:"note,omitempty"`

	Status        string `gorm:"size:20;not null;index" json:"status"`        // pending, paid, shipping, delivered, cancelled
	PaymentMethod string `gorm:"size:20;not null" json:"paymentMethod"`       // COD, Banking
	PaymentStatus string `gorm:"size:20;not null;index" json:"paymentStatus"` // pending, paid, failed
	PaidAmount    int64  `gorm:"not null;default:0" json:"paidAmount"`

	ConfirmedAt *time.Time `json:"confirmedAt,omitempty"`
	ShippedAt   *time.Time `json:"shippedAt,omitempty"`
	DeliveredAt *time.Time `json:"deliveredAt,omitempty"`
	CancelledAt *time.Time `json:"cancelledAt,omitempty"`

	NeedsReview  bool   `gorm:"not null;default:false;index" json:"needsReview"`
	ReviewReason string `gorm:"type:text" json:"reviewReason,omitempty"`
}

type OrderItem struct {
	DTO
	OrderID     uint   `gorm:"not null;index" json:"orderId"`
	ProductID   uint   `gorm:"not null;index" json:"productId"`
	ProductName string `gorm:"not null" json:"productName"`
	Variant     string `gorm:"size:50" json:"variant"`
	Quantity    int64  `gorm:"not null" json:"quantity"`
	UnitPrice   int64  `gorm:"not null" json:"unitPrice"`
	Subtotal    int64  `gorm:"not null" json:"subtotal"`
}

type ShippingProfile struct {
	FullName string `json:"fullName" validate:"required,max=100"`
	Phone    string `json:"phone" validate:"required,min=8,max=20"`
	Email    string `json:"email" validate:"omitempty,email"`
	Address  string `json:"address" validate:"required,max=500"`
	Note     string `json:"note" validate:"omitempty,max=500"`
}

type DirectItemInput struct {
	ProductId uint   `json:"productId" validate:"required,gt=0"`
	Quantity  int64  `json:"quantity" validate:"required,gte=1,lte=1000"`
	Variant   string `json:"variant" validate:"omitempty,max=50"`
}

type CreateOrderInput struct {
	ShippingProfile ShippingProfile   `json:"shippingProfile" validate:"required"`
	PaymentMethod   string            `json:"paymentMethod" validate:"required,oneof=COD Banking"`
	Items           []DirectItemInput `json:"items" validate:"omitempty,max=50,dive"` // "mua ngay": bỏ qua giỏ hàng
	IdempotencyKey  string            `json:"-"`
}

type UpdateOrderStatusInput struct {
	Status string `json:"status" validate:"required,oneof=shipping delivered cancelled"`
}
