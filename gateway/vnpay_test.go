package gateway

import (
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"storefront/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVNPay() *VNPay {
	v := NewVNPay(model.VNPayConfig{
		TmnCode:    "DEMO1234",
		HashSecret: "SECRETSECRETSECRET",
		BaseURL:    "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
		ReturnURL:  "http://localhost:8002/payment/return",
		Locale:     "vn",
	})
	v.now = func() time.Time { return time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC) }
	return v
}

// signedCallback dựng một callback hợp lệ như VNPay gửi về
func signedCallback(v *VNPay, txnRef string, amount int64, code string) url.Values {
	q := url.Values{}
	q.Set("vnp_TmnCode", v.Config.TmnCode)
	q.Set("vnp_Amount", strconv.FormatInt(amount*100, 10))
	q.Set("vnp_BankCode", "NCB")
	q.Set("vnp_OrderInfo", "Thanh toan don hang ORD-ABC")
	q.Set("vnp_PayDate", "20260501093500")
	q.Set("vnp_ResponseCode", code)
	q.Set("vnp_TransactionNo", "14226112")
	q.Set("vnp_TransactionStatus", code)
	q.Set("vnp_TxnRef", txnRef)
	return v.Sign(q)
}

func TestBuildPaymentUrl_SignsAndScalesAmount(t *testing.T) {
	v := newTestVNPay()

	raw, err := v.BuildPaymentUrl(model.PaymentRequest{
		Amount:    580000,
		OrderInfo: "Thanh toan don hang ORD-ABC",
		TxnRef:    "42_a1b2c3",
		IPAddr:    "10.0.0.1",
	})
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "sandbox.vnpayment.vn", u.Host)

	q := u.Query()
	assert.Equal(t, "58000000", q.Get("vnp_Amount"))
	assert.Equal(t, "42_a1b2c3", q.Get("vnp_TxnRef"))
	assert.Equal(t, "VND", q.Get("vnp_CurrCode"))
	assert.Equal(t, "20260501093000", q.Get("vnp_CreateDate"))
	assert.Equal(t, "20260501094500", q.Get("vnp_ExpireDate"))
	assert.True(t, v.Verify(q), "own url must verify")
}

func TestBuildPaymentUrl_RejectsBadInput(t *testing.T) {
	v := newTestVNPay()

	_, err := v.BuildPaymentUrl(model.PaymentRequest{Amount: 0, TxnRef: "1_x"})
	assert.Error(t, err)

	_, err = v.BuildPaymentUrl(model.PaymentRequest{Amount: 1000})
	assert.Error(t, err)
}

func TestParseCallback_Valid(t *testing.T) {
	v := newTestVNPay()
	q := signedCallback(v, "42_a1b2c3", 580000, "00")

	cb, err := v.ParseCallback(q)
	require.NoError(t, err)
	assert.Equal(t, uint(42), cb.OrderID)
	assert.Equal(t, int64(580000), cb.Amount)
	assert.Equal(t, "14226112", cb.GatewayTransactionRef)
	assert.True(t, cb.IsSuccess())
}

func TestParseCallback_FailureCode(t *testing.T) {
	v := newTestVNPay()
	cb, err := v.ParseCallback(signedCallback(v, "42_a1b2c3", 580000, "24"))
	require.NoError(t, err)
	assert.False(t, cb.IsSuccess())
}

func TestCallback_HasGatewayRef(t *testing.T) {
	assert.True(t, Callback{GatewayTransactionRef: "14226112"}.HasGatewayRef())
	assert.False(t, Callback{GatewayTransactionRef: "0"}.HasGatewayRef())
	assert.False(t, Callback{}.HasGatewayRef())
}

func TestVerify_AcceptsUppercaseHashAndIgnoresHashType(t *testing.T) {
	v := newTestVNPay()
	q := signedCallback(v, "7_zz", 1000, "00")
	q.Set(ParamSecureHash, strings.ToUpper(q.Get(ParamSecureHash)))
	q.Set(ParamSecureHashType, "HmacSHA512")

	assert.True(t, v.Verify(q))
}

func TestVerify_SingleByteTamperingFails(t *testing.T) {
	v := newTestVNPay()
	original := signedCallback(v, "42_a1b2c3", 580000, "00")

	for key := range original {
		value := original.Get(key)
		for i := 0; i < len(value); i++ {
			tampered := url.Values{}
			for k, vals := range original {
				tampered[k] = append([]string(nil), vals...)
			}
			b := []byte(value)
			b[i] ^= 0x01
			tampered.Set(key, string(b))

			assert.False(t, v.Verify(tampered), "tampering %s[%d] must be detected", key, i)
			_, err := v.ParseCallback(tampered)
			assert.Error(t, err)
		}
	}
}

func TestVerify_MissingOrGarbageSignature(t *testing.T) {
	v := newTestVNPay()
	q := signedCallback(v, "42_a1b2c3", 580000, "00")

	noSig := url.Values{}
	for k, vals := range q {
		if k != ParamSecureHash {
			noSig[k] = vals
		}
	}
	assert.False(t, v.Verify(noSig))

	q.Set(ParamSecureHash, "not-hex")
	assert.False(t, v.Verify(q))
}

func TestVerify_WrongSecret(t *testing.T) {
	v := newTestVNPay()
	q := signedCallback(v, "42_a1b2c3", 580000, "00")

	other := newTestVNPay()
	other.Config.HashSecret = "ANOTHERSECRET"
	assert.False(t, other.Verify(q))
}

func TestParseCallback_MalformedFields(t *testing.T) {
	v := newTestVNPay()

	_, err := v.ParseCallback(signedCallback(v, "no-separator", 1000, "00"))
	assert.ErrorIs(t, err, ErrMalformed)

	q := signedCallback(v, "9_abc", 1000, "00")
	q.Set("vnp_Amount", "12345")
	_, err = v.ParseCallback(v.Sign(q))
	assert.ErrorIs(t, err, ErrMalformed)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestTxnRefRoundTrip(t *testing.T) {
	ref := NewTxnRef(1234, "f00d")
	id, err := OrderIDFromTxnRef(ref)
	require.NoError(t, err)
	assert.Equal(t, uint(1234), id)

	_, err = OrderIDFromTxnRef("0_abc")
	assert.Error(t, err)
}
