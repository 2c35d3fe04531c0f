package vnpay

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dormhub/dormhub/internal/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGateway(t *testing.T) *Gateway {
	t.Helper()

	gw, err := New(config.Config{
		Timezone: "Asia/Ho_Chi_Minh",
		VNPay: config.VNPayConfig{
			TmnCode:         "DORMHUB1",
			HashSecret:      "topsecret",
			PayURL:          "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
			ReturnURL:       "http://localhost:8080/api/payment-transactions/callback",
			ClientReturnURL: "http://localhost:3000/payments/result",
			MaxAmount:       1_000_000_000,
			ExpireMinutes:   15,
		},
	})
	require.NoError(t, err)
	return gw
}

func TestSignCanonicalOrdering(t *testing.T) {
	// The signed byte string sorts keys ASCII-ascending regardless of
	// insertion order.
	a := canonicalQuery(map[string]string{"vnp_TxnRef": "42", "vnp_Amount": "100", "vnp_Command": "pay"})
	b := canonicalQuery(map[string]string{"vnp_Command": "pay", "vnp_Amount": "100", "vnp_TxnRef": "42"})
	assert.Equal(t, a, b)
	assert.Equal(t, "vnp_Amount=100&vnp_Command=pay&vnp_TxnRef=42", a)

	t.Run("empty values dropped", func(t *testing.T) {
		q := canonicalQuery(map[string]string{"vnp_BankCode": "", "vnp_Amount": "100"})
		assert.Equal(t, "vnp_Amount=100", q)
	})

	t.Run("values url-encoded", func(t *testing.T) {
		q := canonicalQuery(map[string]string{"vnp_OrderInfo": "Dorm bill 42 for A 101"})
		assert.Equal(t, "vnp_OrderInfo=Dorm+bill+42+for+A+101", q)
	})
}

func TestBuildPaymentURL(t *testing.T) {
	gw := testGateway(t)
	createdAt := time.Date(2026, 3, 10, 2, 0, 0, 0, time.UTC) // 09:00 in VN

	raw, expiresAt, err := gw.BuildPaymentURL(PaymentRequest{
		TxnRef:    "1234567890",
		OrderInfo: "Dorm bill 1234567890",
		Amount:    decimal.NewFromInt(420000),
		BankCode:  "NCB",
		ClientIP:  "203.0.113.7",
		CreatedAt: createdAt,
	})
	require.NoError(t, err)
	assert.Equal(t, createdAt.Add(15*time.Minute).Unix(), expiresAt.Unix())

	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	q := parsed.Query()

	assert.Equal(t, "42000000", q.Get("vnp_Amount"), "amount is VND x 100")
	assert.Equal(t, Version, q.Get("vnp_Version"))
	assert.Equal(t, "DORMHUB1", q.Get("vnp_TmnCode"))
	assert.Equal(t, "NCB", q.Get("vnp_BankCode"))
	assert.Equal(t, "20260310090000", q.Get("vnp_CreateDate"))
	assert.Equal(t, "20260310091500", q.Get("vnp_ExpireDate"))
	require.NotEmpty(t, q.Get(paramSecureHash))

	// The emitted signature verifies under the callback rules.
	params := map[string]string{}
	for k := range q {
		params[k] = q.Get(k)
	}
	assert.NoError(t, gw.VerifyCallback(params))

	t.Run("fractional minor units rejected", func(t *testing.T) {
		_, _, err := gw.BuildPaymentURL(PaymentRequest{
			TxnRef:    "1",
			OrderInfo: "x",
			Amount:    decimal.RequireFromString("0.005"),
			ClientIP:  "203.0.113.7",
			CreatedAt: createdAt,
		})
		assert.Error(t, err)
	})
}

func TestVerifyCallback(t *testing.T) {
	gw := testGateway(t)

	params := map[string]string{
		"vnp_TxnRef":        "1234567890",
		"vnp_Amount":        "42000000",
		"vnp_ResponseCode":  "00",
		"vnp_TransactionNo": "99000001",
		"vnp_BankCode":      "NCB",
	}
	params[paramSecureHash] = Sign("topsecret", canonicalQuery(params))

	assert.NoError(t, gw.VerifyCallback(params))

	t.Run("upper-case signature accepted", func(t *testing.T) {
		upper := map[string]string{}
		for k, v := range params {
			upper[k] = v
		}
		delete(upper, paramSecureHash)
		upper[paramSecureHash] = strings.ToUpper(Sign("topsecret", canonicalQuery(upper)))
		assert.NoError(t, gw.VerifyCallback(upper))
	})

	t.Run("hash type field excluded from signing", func(t *testing.T) {
		withType := map[string]string{}
		for k, v := range params {
			withType[k] = v
		}
		withType[paramSecureHashType] = "HMACSHA512"
		assert.NoError(t, gw.VerifyCallback(withType))
	})

	t.Run("tampered amount", func(t *testing.T) {
		tampered := map[string]string{}
		for k, v := range params {
			tampered[k] = v
		}
		tampered["vnp_Amount"] = "1"
		assert.ErrorIs(t, gw.VerifyCallback(tampered), ErrBadSignature)
	})

	t.Run("missing signature", func(t *testing.T) {
		unsigned := map[string]string{"vnp_TxnRef": "1"}
		assert.ErrorIs(t, gw.VerifyCallback(unsigned), ErrMissingSignature)
	})

	t.Run("wrong secret", func(t *testing.T) {
		forged := map[string]string{"vnp_TxnRef": "1"}
		forged[paramSecureHash] = Sign("othersecret", canonicalQuery(map[string]string{"vnp_TxnRef": "1"}))
		assert.ErrorIs(t, gw.VerifyCallback(forged), ErrBadSignature)
	})
}

func TestIsSuccess(t *testing.T) {
	assert.True(t, IsSuccess("00"))
	assert.False(t, IsSuccess("24"))
	assert.False(t, IsSuccess(""))
}
