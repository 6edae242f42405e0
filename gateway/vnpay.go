package gateway

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"storefront/model"
)

const (
	vnpVersion   = "2.1.0"
	vnpCommand   = "pay"
	vnpCurrency  = "VND"
	vnpOrderType = "other"
	vnpTimeFmt   = "20060102150405"
	paymentTTL   = 15 * time.Minute

	ParamSecureHash     = "vnp_SecureHash"
	ParamSecureHashType = "vnp_SecureHashType"
)

// Mã phản hồi IPN theo tài liệu VNPay
const (
	RspConfirmSuccess   = "00"
	RspOrderNotFound    = "01"
	RspInvalidAmount    = "04"
	RspInvalidSignature = "97"
	RspUnknownError     = "99"
)

var (
	ErrInvalidSignature = errors.New("vnpay: invalid signature")
	ErrMalformed        = errors.New("vnpay: malformed callback")
	ErrInvalidAmount    = fmt.Errorf("%w: invalid amount", ErrMalformed)
)

// Callback là dữ liệu IPN/return đã được xác thực chữ ký và kiểm tra kiểu
type Callback struct {
	OrderID               uint
	TxnRef                string
	GatewayTransactionRef string
	Amount                int64 // VND
	ResponseCode          string
	TransactionStatus     string
	BankCode              string
	PayDate               string
	Raw                   string
}

func (c Callback) IsSuccess() bool {
	return c.ResponseCode == "00" && (c.TransactionStatus == "" || c.TransactionStatus == "00")
}

// HasGatewayRef: VNPay trả vnp_TransactionNo=0 khi giao dịch bị huỷ hoặc lỗi
func (c Callback) HasGatewayRef() bool {
	return c.GatewayTransactionRef != "" && c.GatewayTransactionRef != "0"
}

// VNPay Service
type VNPay struct {
	Config model.VNPayConfig
	now    func() time.Time
}

func NewVNPay(cfg model.VNPayConfig) *VNPay {
	return &VNPay{Config: cfg, now: time.Now}
}

// Tạo Payment URL
func (v *VNPay) BuildPaymentUrl(req model.PaymentRequest) (string, error) {
	if req.Amount <= 0 {
		return "", fmt.Errorf("vnpay: amount must be positive, got %d", req.Amount)
	}
	if req.TxnRef == "" {
		return "", errors.New("vnpay: txnRef is required")
	}

	now := v.now()
	params := url.Values{}
	params.Add("vnp_Version", vnpVersion)
	params.Add("vnp_Command", vnpCommand)
	params.Add("vnp_TmnCode", v.Config.TmnCode)
	params.Add("vnp_Amount", strconv.FormatInt(req.Amount*100, 10)) // VND * 100
	params.Add("vnp_CreateDate", now.Format(vnpTimeFmt))
	params.Add("vnp_ExpireDate", now.Add(paymentTTL).Format(vnpTimeFmt))
	params.Add("vnp_CurrCode", vnpCurrency)
	params.Add("vnp_IpAddr", req.IPAddr)
	params.Add("vnp_Locale", v.Config.Locale)
	params.Add("vnp_OrderInfo", req.OrderInfo)
	params.Add("vnp_OrderType", vnpOrderType)
	params.Add("vnp_ReturnUrl", v.Config.ReturnURL)
	params.Add("vnp_TxnRef", req.TxnRef)

	// Sort & Hash
	query := canonicalize(params)
	fullQuery := query + "&" + ParamSecureHash + "=" + v.generateHash(query)

	return v.Config.BaseURL + "?" + fullQuery, nil
}

// Verify tính lại chữ ký trên mọi tham số vnp_* trừ SecureHash/SecureHashType
func (v *VNPay) Verify(query url.Values) bool {
	received := strings.ToLower(query.Get(ParamSecureHash))
	if received == "" {
		return false
	}
	got, err := hex.DecodeString(received)
	if err != nil {
		return false
	}

	signed := url.Values{}
	for k, vals := range query {
		if k == ParamSecureHash || k == ParamSecureHashType || !strings.HasPrefix(k, "vnp_") {
			continue
		}
		signed[k] = vals
	}

	want, _ := hex.DecodeString(v.generateHash(canonicalize(signed)))
	return hmac.Equal(got, want)
}

// ParseCallback chỉ trả về Callback khi chữ ký hợp lệ
func (v *VNPay) ParseCallback(query url.Values) (Callback, error) {
	if !v.Verify(query) {
		return Callback{}, ErrInvalidSignature
	}

	txnRef := query.Get("vnp_TxnRef")
	orderID, err := OrderIDFromTxnRef(txnRef)
	if err != nil {
		return Callback{}, err
	}

	rawAmount, err := strconv.ParseInt(query.Get("vnp_Amount"), 10, 64)
	if err != nil || rawAmount < 0 || rawAmount%100 != 0 {
		return Callback{}, fmt.Errorf("%w: vnp_Amount %q", ErrInvalidAmount, query.Get("vnp_Amount"))
	}

	responseCode := query.Get("vnp_ResponseCode")
	if responseCode == "" {
		return Callback{}, fmt.Errorf("%w: missing vnp_ResponseCode", ErrMalformed)
	}

	return Callback{
		OrderID:               orderID,
		TxnRef:                txnRef,
		GatewayTransactionRef: query.Get("vnp_TransactionNo"),
		Amount:                rawAmount / 100,
		ResponseCode:          responseCode,
		TransactionStatus:     query.Get("vnp_TransactionStatus"),
		BankCode:              query.Get("vnp_BankCode"),
		PayDate:               query.Get("vnp_PayDate"),
		Raw:                   query.Encode(),
	}, nil
}

// Sign gắn vnp_SecureHash vào bộ tham số như phía VNPay làm khi gọi lại
// (dùng cho sandbox và test)
func (v *VNPay) Sign(values url.Values) url.Values {
	signed := url.Values{}
	for k, vals := range values {
		if k == ParamSecureHash || k == ParamSecureHashType {
			continue
		}
		signed[k] = append([]string(nil), vals...)
	}
	signed.Set(ParamSecureHash, v.generateHash(canonicalize(signed)))
	return signed
}

// TxnRef có dạng "<orderId>_<suffix>", mỗi lần thanh toán một suffix mới
func NewTxnRef(orderID uint, suffix string) string {
	return fmt.Sprintf("%d_%s", orderID, suffix)
}

func OrderIDFromTxnRef(txnRef string) (uint, error) {
	idPart, _, ok := strings.Cut(txnRef, "_")
	if !ok {
		return 0, fmt.Errorf("%w: vnp_TxnRef %q", ErrMalformed, txnRef)
	}
	id, err := strconv.ParseUint(idPart, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: vnp_TxnRef %q", ErrMalformed, txnRef)
	}
	return uint(id), nil
}

// Helpers
func (v *VNPay) generateHash(data string) string {
	h := hmac.New(sha512.New, []byte(v.Config.HashSecret))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}

// canonicalize: key tăng dần, giá trị encode kiểu form (khoảng trắng thành "+")
func canonicalize(params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		for _, val := range params[k] {
			if val == "" {
				continue
			}
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(k))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(val))
		}
	}
	return b.String()
}
