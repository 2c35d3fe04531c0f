package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/dormhub/dormhub/internal/actor"
	"github.com/dormhub/dormhub/pkg/db/pagination"
	"github.com/shopspring/decimal"
)

type Service interface {
	// Generate creates one bill per unlinked reading in the month for
	// the target rooms. Partial: per-room failures are collected, not
	// fatal.
	Generate(ctx context.Context, req GenerateRequest) (*BulkResult, error)

	List(ctx context.Context, req ListRequest) (*ListResult, error)
	MyBills(ctx context.Context, act actor.Actor) ([]Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	// Delete removes an unpaid bill and cancels its open transactions
	// in the same transaction.
	Delete(ctx context.Context, id string) error

	// MarkOverdue flips PENDING bills for months strictly before the
	// first-of-month cutoff to OVERDUE; returns how many changed.
	MarkOverdue(ctx context.Context, monthBefore time.Time) (int64, error)
}

type GenerateRequest struct {
	BillMonth string   `json:"bill_month"` // YYYY-MM
	RoomIDs   []string `json:"room_ids,omitempty"`
}

type BulkResult struct {
	Created []Response  `json:"bills_created"`
	Errors  []RoomError `json:"errors"`
}

type RoomError struct {
	RoomID string `json:"room_id"`
	Reason string `json:"reason"`
}

type ListRequest struct {
	Month     string
	RoomID    string
	UserID    string
	Status    string
	PageToken string
	PageSize  int
}

type ListResult struct {
	Bills    []Response           `json:"bills"`
	PageInfo *pagination.PageInfo `json:"page_info"`
}

type UpdateRequest struct {
	ID     string  `json:"id"`
	Status *string `json:"payment_status,omitempty"`
}

type Response struct {
	ID                   string          `json:"id"`
	UserID               string          `json:"user_id"`
	RoomID               string          `json:"room_id"`
	ReadingID            string          `json:"reading_id"`
	BillMonth            string          `json:"bill_month"`
	TotalAmount          decimal.Decimal `json:"total_amount"`
	PaymentStatus        PaymentStatus   `json:"payment_status"`
	PaidAt               *time.Time      `json:"paid_at,omitempty"`
	TransactionReference string          `json:"transaction_reference,omitempty"`
	AllowedMethods       []PaymentMethod `json:"allowed_methods"`
	CreatedAt            time.Time       `json:"created_at"`
}

var (
	ErrNotFound        = errors.New("bill_not_found")
	ErrInvalidID       = errors.New("invalid_id")
	ErrNoUnlinked      = errors.New("no_unlinked_readings")
	ErrNoBillsCreated  = errors.New("no_bills_created")
	ErrAlreadyPaid     = errors.New("bill_already_paid")
	ErrDeletePaid      = errors.New("cannot_delete_paid_bill")
	ErrInvalidStatus   = errors.New("invalid_payment_status")
	ErrBadTransition   = errors.New("invalid_payment_transition")
	ErrNoActiveTenancy = errors.New("no_active_contract_for_room")
)

func ParseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(value)
}
