package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/dormhub/dormhub/internal/actor"
	"github.com/shopspring/decimal"
)

type Service interface {
	// Submit records the resident's readings for one bill month. The
	// room comes from the actor's active contract; all readings persist
	// atomically or not at all.
	Submit(ctx context.Context, act actor.Actor, req SubmitRequest) ([]Response, error)

	// Matrix is the admin overview: per room and service, whether a
	// reading was submitted for the month and how its bill stands.
	Matrix(ctx context.Context, month string) ([]MatrixRow, error)

	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*Response, error)
}

type SubmitRequest struct {
	BillMonth string                  `json:"bill_month"` // YYYY-MM
	Readings  map[string]ReadingInput `json:"readings"`   // keyed by service id
}

type ReadingInput struct {
	Current decimal.Decimal `json:"current"`
}

type UpdateRequest struct {
	ID       string           `json:"id"`
	Current  *decimal.Decimal `json:"current_reading,omitempty"`
	Previous *decimal.Decimal `json:"previous_reading,omitempty"`
}

type Response struct {
	ID              string          `json:"id"`
	RoomID          string          `json:"room_id"`
	BillMonth       string          `json:"bill_month"`
	ServiceID       string          `json:"service_id"`
	TariffID        string          `json:"tariff_id"`
	PreviousReading decimal.Decimal `json:"previous_reading"`
	CurrentReading  decimal.Decimal `json:"current_reading"`
	Price           decimal.Decimal `json:"price"`
	SubmittedBy     string          `json:"submitted_by"`
	SubmittedAt     time.Time       `json:"submitted_at"`
}

type MatrixRow struct {
	RoomID   string       `json:"room_id"`
	RoomName string       `json:"room_name"`
	Cells    []MatrixCell `json:"cells"`
}

type MatrixCell struct {
	ServiceID   string `json:"service_id"`
	ServiceName string `json:"service_name"`
	Submitted   bool   `json:"submitted"`
	ReadingID   string `json:"reading_id,omitempty"`
	BillStatus  string `json:"bill_status,omitempty"`
}

var (
	ErrNoActiveContract    = errors.New("no_active_contract")
	ErrDuplicateReading    = errors.New("duplicate_reading")
	ErrNonMonotonicReading = errors.New("non_monotonic_reading")
	ErrNegativeReading     = errors.New("negative_reading")
	ErrMonthClosed         = errors.New("month_closed")
	ErrFutureMonth         = errors.New("future_bill_month")
	ErrEmptySubmission     = errors.New("empty_submission")
	ErrNotFound            = errors.New("reading_not_found")
	ErrLinkedBill          = errors.New("reading_linked_to_bill")
	ErrInvalidID           = errors.New("invalid_id")
)

func ParseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(value)
}
