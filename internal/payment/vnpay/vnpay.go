// Package vnpay implements the VNPay redirect-payment wire format:
// signed payment URLs and callback signature verification. Amounts
// cross this boundary as integer minor units (VND x 100); everything
// above it stays decimal.
package vnpay

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dormhub/dormhub/internal/config"
	"github.com/shopspring/decimal"
)

const (
	Version     = "2.1.0"
	CommandPay  = "pay"
	CurrCode    = "VND"
	OrderType   = "billpayment"
	Locale      = "vn"
	CodeSuccess = "00"

	paramSecureHash     = "vnp_SecureHash"
	paramSecureHashType = "vnp_SecureHashType"
	dateLayout          = "20060102150405"
)

var (
	ErrMissingSignature = errors.New("missing_gateway_signature")
	ErrBadSignature     = errors.New("bad_gateway_signature")
)

type Gateway struct {
	cfg config.VNPayConfig
	loc *time.Location
}

func New(cfg config.Config) (*Gateway, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, err
	}
	return &Gateway{cfg: cfg.VNPay, loc: loc}, nil
}

func (g *Gateway) MaxAmount() decimal.Decimal {
	return decimal.NewFromInt(g.cfg.MaxAmount)
}

func (g *Gateway) ClientReturnURL() string {
	return g.cfg.ClientReturnURL
}

type PaymentRequest struct {
	TxnRef    string
	OrderInfo string
	Amount    decimal.Decimal
	BankCode  string
	ClientIP  string
	CreatedAt time.Time
}

// BuildPaymentURL assembles the signed redirect URL for one payment
// attempt and returns it together with the attempt's expiry.
func (g *Gateway) BuildPaymentURL(req PaymentRequest) (string, time.Time, error) {
	createdAt := req.CreatedAt.In(g.loc)
	expiresAt := createdAt.Add(time.Duration(g.cfg.ExpireMinutes) * time.Minute)

	// vnp_Amount carries VND x 100 as an integer.
	minor := req.Amount.Mul(decimal.NewFromInt(100))
	if !minor.IsInteger() {
		return "", time.Time{}, errors.New("amount_not_representable")
	}

	params := map[string]string{
		"vnp_Version":    Version,
		"vnp_Command":    CommandPay,
		"vnp_TmnCode":    g.cfg.TmnCode,
		"vnp_Amount":     strconv.FormatInt(minor.IntPart(), 10),
		"vnp_CurrCode":   CurrCode,
		"vnp_TxnRef":     req.TxnRef,
		"vnp_OrderInfo":  req.OrderInfo,
		"vnp_OrderType":  OrderType,
		"vnp_Locale":     Locale,
		"vnp_ReturnUrl":  g.cfg.ReturnURL,
		"vnp_IpAddr":     req.ClientIP,
		"vnp_CreateDate": createdAt.Format(dateLayout),
		"vnp_ExpireDate": expiresAt.Format(dateLayout),
	}
	if req.BankCode != "" {
		params["vnp_BankCode"] = req.BankCode
	}

	query := canonicalQuery(params)
	signature := Sign(g.cfg.HashSecret, query)
	return g.cfg.PayURL + "?" + query + "&" + paramSecureHash + "=" + signature, expiresAt, nil
}

// VerifyCallback checks the gateway signature over the returned
// parameters with the hash fields removed.
func (g *Gateway) VerifyCallback(params map[string]string) error {
	signature, ok := params[paramSecureHash]
	if !ok || signature == "" {
		return ErrMissingSignature
	}

	signed := make(map[string]string, len(params))
	for k, v := range params {
		if k == paramSecureHash || k == paramSecureHashType {
			continue
		}
		signed[k] = v
	}

	expected := Sign(g.cfg.HashSecret, canonicalQuery(signed))
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(signature))) {
		return ErrBadSignature
	}
	return nil
}

// IsSuccess reports whether a gateway response code marks the payment
// as completed.
func IsSuccess(responseCode string) bool {
	return responseCode == CodeSuccess
}

// canonicalQuery renders the parameters as k1=v1&k2=v2 with keys
// ASCII-sorted and values URL-encoded, the exact byte string VNPay
// signs. Empty values are excluded.
func canonicalQuery(params map[string]string) string {
	values := url.Values{}
	for k, v := range params {
		if v == "" {
			continue
		}
		values.Set(k, v)
	}
	// url.Values.Encode sorts keys ASCII-ascending.
	return values.Encode()
}

// Sign computes the lower-case hex HMAC-SHA512 of the canonical query.
func Sign(secret, canonical string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(canonical))
	return hex.EncodeToString(mac.Sum(nil))
}
