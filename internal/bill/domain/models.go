// Package domain contains monthly bills. Every bill is derived 1:1 from
// one meter reading; the unique index on reading_id is what makes bulk
// generation idempotent.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusPaid    PaymentStatus = "PAID"
	PaymentStatusFailed  PaymentStatus = "FAILED"
	PaymentStatusOverdue PaymentStatus = "OVERDUE"
)

// CanTransitionTo enforces the bill's payment lifecycle: PENDING may
// move to PAID, FAILED or OVERDUE; PAID is terminal. FAILED and OVERDUE
// may still be settled, or reopened to PENDING so a payment can be
// retried.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	if s == next {
		return false
	}
	switch s {
	case PaymentStatusPending:
		return next == PaymentStatusPaid || next == PaymentStatusFailed || next == PaymentStatusOverdue
	case PaymentStatusFailed, PaymentStatusOverdue:
		return next == PaymentStatusPaid || next == PaymentStatusPending
	default:
		return false
	}
}

type PaymentMethod string

const MethodVNPay PaymentMethod = "VNPAY"

type MonthlyBill struct {
	ID                   snowflake.ID    `json:"id" gorm:"primaryKey"`
	UserID               snowflake.ID    `json:"user_id" gorm:"not null;index"`
	RoomID               snowflake.ID    `json:"room_id" gorm:"not null;index"`
	ReadingID            snowflake.ID    `json:"reading_id" gorm:"column:detail_id;not null;uniqueIndex:ux_bills_detail"`
	BillMonth            time.Time       `json:"bill_month" gorm:"type:date;not null;index"`
	TotalAmount          decimal.Decimal `json:"total_amount" gorm:"type:numeric(18,2);not null"`
	PaymentStatus        PaymentStatus   `json:"payment_status" gorm:"type:text;not null;default:'PENDING'"`
	PaidAt               *time.Time      `json:"paid_at"`
	TransactionReference string          `json:"transaction_reference" gorm:"type:text"`
	AllowedMethods       datatypes.JSON  `json:"allowed_methods" gorm:"type:json"`
	CreatedAt            time.Time       `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt            time.Time       `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (MonthlyBill) TableName() string { return "monthly_bills" }
