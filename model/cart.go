package model

type Cart struct {
	DTO
	UserID uint   `gorm:"uniqueIndex;not null" json:"userId"`
	Status string `gorm:"size:20;not null;default:'ACTIVE'" json:"status"`

	Items []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`

	VoucherID *uint    `json:"voucherId"`
	Voucher   *Voucher `gorm:"foreignKey:VoucherID" json:"voucher,omitempty"`

	// Luôn được tính lại từ server, không bao giờ nhận từ client
	TotalAmount    int64 `gorm:"not null;default:0" json:"totalAmount"`
	DiscountAmount int64 `gorm:"not null;default:0" json:"discountAmount"`
	ShippingFee    int64 `gorm:"not null;default:0" json:"shippingFee"`
	FinalAmount    int64 `gorm:"not null;default:0" json:"finalAmount"`
}

type CartItem struct {
	DTO
	CartID    uint    `gorm:"not null;index" json:"cartId"`
	ProductID uint    `gorm:"not null;index" json:"productId"`
	Product   Product `gorm:"foreignKey:ProductID" json:"-"`
	Variant   string  `gorm:"size:50;not null;default:''" json:"variant"`
	Quantity  int64   `gorm:"not null" json:"quantity"`
	UnitPrice int64   `gorm:"not null" json:"unitPrice"`
	Subtotal  int64   `gorm:"not null" json:"subtotal"`
}

type AddCartItemInput struct {
	ProductId uint   `json:"productId" validate:"required,gt=0"`
	Quantity  int64  `json:"quantity" validate:"required,gte=1,lte=1000"`
	Variant   string `json:"variant" validate:"omitempty,max=50"`
}

type UpdateCartItemInput struct {
	Quantity int64 `json:"quantity" validate:"required,gte=1,lte=1000"`
}

type ApplyVoucherInput struct {
	Code string `json:"code" validate:"required,max=50"`
}
