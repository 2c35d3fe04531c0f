// Package domain contains payment transactions against monthly bills.
// A bill may accumulate many transactions over time but at most one
// SUCCESS; open transactions are cancelled before a new attempt starts.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	billdomain "github.com/dormhub/dormhub/internal/bill/domain"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusSuccess   Status = "SUCCESS"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
)

// Terminal reports whether the transaction can no longer change state.
// Gateway callback replays against a terminal transaction are no-ops.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed || s == StatusCancelled
}

type Transaction struct {
	ID            snowflake.ID             `json:"id" gorm:"primaryKey"`
	BillID        snowflake.ID             `json:"bill_id" gorm:"not null;index"`
	UserID        snowflake.ID             `json:"user_id" gorm:"not null;index"`
	Method        billdomain.PaymentMethod `json:"method" gorm:"type:text;not null"`
	Amount        decimal.Decimal          `json:"amount" gorm:"type:numeric(18,2);not null"`
	Status        Status                   `json:"status" gorm:"type:text;not null;default:'PENDING'"`
	TxnRef        string                   `json:"txn_ref" gorm:"type:text;not null;uniqueIndex:ux_transactions_txn_ref"`
	GatewayTxnNo  string                   `json:"gateway_txn_no" gorm:"type:text"`
	ResponseCode  string                   `json:"response_code" gorm:"type:text"`
	BankCode      string                   `json:"bank_code" gorm:"type:text"`
	OrderInfo     string                   `json:"order_info" gorm:"type:text"`
	ExpiresAt     time.Time                `json:"expires_at" gorm:"not null"`
	CompletedAt   *time.Time               `json:"completed_at"`
	CreatedAt     time.Time                `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time                `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Transaction) TableName() string { return "payment_transactions" }
