package model

type VNPayConfig struct {
	TmnCode    string
	HashSecret string
	BaseURL    string
	ReturnURL  string
	Locale     string
}

type PaymentRequest struct {
	Amount    int64  `json:"amount"` // VND, chưa nhân 100
	OrderInfo string `json:"orderInfo"`
	TxnRef    string `json:"txnRef"`
	IPAddr    string `json:"ipAddr"`
}

// IPNResponse là mã phản hồi VNPay yêu cầu cho IPN
type IPNResponse struct {
	RspCode string `json:"RspCode"`
	Message string `json:"Message"`
}
