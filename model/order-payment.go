package model

import "time"

// PaymentTransaction là một lần thanh toán qua cổng cho một đơn hàng.
// Bảng chỉ ghi thêm; ProcessedAt được set đúng một lần.
type PaymentTransaction struct {
	DTO
	OrderID               uint       `gorm:"not null;index" json:"orderId"`
	TxnRef                string     `gorm:"uniqueIndex;size:64;not null" json:"txnRef"`
	GatewayTransactionRef string     `gorm:"size:64;index" json:"gatewayTransactionRef"`
	Amount                int64      `gorm:"not null" json:"amount"`
	ResultCode            string     `gorm:"size:10" json:"resultCode"`
	RawCallbackPayload    string     `gorm:"type:text" json:"-"`
	Status                string     `gorm:"size:20;not null;default:'PENDING'" json:"status"`
	ProcessedAt           *time.Time `json:"processedAt,omitempty"`

	Order Order `gorm:"foreignKey:OrderID" json:"-"`
}

type CreatePaymentInput struct {
	OrderId uint `json:"orderId" validate:"required,gt=0"`
}
