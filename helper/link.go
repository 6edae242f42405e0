package helper

import (
	"strings"

	"github.com/google/uuid"
)

const orderLinkPrefix = "ORD-"

// NewOrderLink sinh mã đơn dạng ORD-XXXXXXXXXX, khó đoán
func NewOrderLink() string {
	return orderLinkPrefix + randomToken(10)
}

// NewTxnSuffix là phần đuôi của vnp_TxnRef cho mỗi lần thanh toán
func NewTxnSuffix() string {
	return randomToken(12)
}

func randomToken(n int) string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return raw[:n]
}
