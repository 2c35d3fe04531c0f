package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/dormhub/dormhub/internal/actor"
	billdomain "github.com/dormhub/dormhub/internal/bill/domain"
	"github.com/shopspring/decimal"
)

type Service interface {
	// Initiate opens a payment attempt against a PENDING bill and
	// returns the gateway redirect URL. Any previous open attempt on
	// the same bill is cancelled first.
	Initiate(ctx context.Context, act actor.Actor, req InitiateRequest) (*InitiateResponse, error)

	// HandleCallback reconciles a gateway return. Replays against a
	// terminal transaction are no-ops and return the same outcome.
	HandleCallback(ctx context.Context, params map[string]string) (*CallbackResult, error)

	ListByBill(ctx context.Context, billID string) ([]Response, error)
	MyTransactions(ctx context.Context, act actor.Actor) ([]Response, error)
	Get(ctx context.Context, id string) (*Response, error)
}

type InitiateRequest struct {
	BillID   string `json:"bill_id"`
	Method   string `json:"method"`
	BankCode string `json:"bank_code,omitempty"`
	ClientIP string `json:"-"`
}

type InitiateResponse struct {
	TransactionID string    `json:"transaction_id"`
	PayURL        string    `json:"pay_url"`
	ExpiresAt     time.Time `json:"expires_at"`
}

type CallbackResult struct {
	TransactionID string `json:"transaction_id"`
	BillID        string `json:"bill_id"`
	Status        Status `json:"status"`
	ResponseCode  string `json:"response_code"`
	RedirectURL   string `json:"redirect_url"`
}

type Response struct {
	ID           string                   `json:"id"`
	BillID       string                   `json:"bill_id"`
	UserID       string                   `json:"user_id"`
	Method       billdomain.PaymentMethod `json:"method"`
	Amount       decimal.Decimal          `json:"amount"`
	Status       Status                   `json:"status"`
	TxnRef       string                   `json:"txn_ref"`
	GatewayTxnNo string                   `json:"gateway_txn_no,omitempty"`
	ResponseCode string                   `json:"response_code,omitempty"`
	ExpiresAt    time.Time                `json:"expires_at"`
	CompletedAt  *time.Time               `json:"completed_at,omitempty"`
	CreatedAt    time.Time                `json:"created_at"`
}

var (
	ErrNotFound         = errors.New("transaction_not_found")
	ErrInvalidID        = errors.New("invalid_id")
	ErrMethodNotAllowed = errors.New("payment_method_not_allowed")
	ErrBillNotPayable   = errors.New("bill_not_payable")
	ErrNotBillOwner     = errors.New("not_bill_owner")
	ErrAmountOutOfRange = errors.New("amount_out_of_range")
	ErrInvalidSignature = errors.New("invalid_gateway_signature")
	ErrUnknownTxnRef    = errors.New("unknown_transaction_reference")
)

func ParseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(value)
}
