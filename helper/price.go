package helper

import (
	"storefront/constants"
	"storefront/model"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// PriceLine là một dòng cần tính tiền, giá luôn lấy từ server
type PriceLine struct {
	UnitPrice int64
	Quantity  int64
}

type Totals struct {
	Subtotal    int64 `json:"subtotal"`
	Discount    int64 `json:"discount"`
	ShippingFee int64 `json:"shippingFee"`
	FinalAmount int64 `json:"finalAmount"`
}

// PricingEngine tính tiền giỏ hàng/đơn hàng. Không I/O, cùng input luôn ra cùng output.
type PricingEngine struct {
	ShippingFee int64 // phí ship cố định
}

func NewPricingEngine(shippingFee int64) PricingEngine {
	return PricingEngine{ShippingFee: shippingFee}
}

// ComputeTotals: final = max(subtotal - discount, 0) + shippingFee.
// Không có dòng nào thì phí ship = 0.
func (p PricingEngine) ComputeTotals(lines []PriceLine, voucher *model.Voucher, now time.Time) Totals {
	var subtotal int64
	for _, l := range lines {
		subtotal += l.UnitPrice * l.Quantity
	}

	discount := VoucherDiscount(subtotal, voucher, now)

	shipping := p.ShippingFee
	if len(lines) == 0 {
		shipping = 0
	}

	net := subtotal - discount
	if net < 0 {
		net = 0
	}

	return Totals{
		Subtotal:    subtotal,
		Discount:    discount,
		ShippingFee: shipping,
		FinalAmount: net + shipping,
	}
}

// VoucherDiscount trả về 0 nếu voucher nil, hết hạn hoặc chưa đủ giá trị tối thiểu
func VoucherDiscount(subtotal int64, voucher *model.Voucher, now time.Time) int64 {
	if voucher == nil || subtotal <= 0 || !voucher.IsApplicable(subtotal, now) {
		return 0
	}

	var discount int64
	switch voucher.DiscountType {
	case constants.DISCOUNT_FIXED:
		discount = voucher.DiscountValue.Floor().IntPart()
	case constants.DISCOUNT_PERCENTAGE:
		discount = decimal.NewFromInt(subtotal).
			Mul(voucher.DiscountValue).
			Div(hundred).
			Floor().
			IntPart()
	default:
		return 0
	}

	if discount < 0 {
		return 0
	}
	if discount > subtotal {
		return subtotal
	}
	return discount
}
