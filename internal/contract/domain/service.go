package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)

	// Sweep recomputes statuses for contracts near their start or end
	// date and applies the occupancy bookkeeping for every transition
	// that crosses the ACTIVE boundary. Idempotent.
	Sweep(ctx context.Context) (*SweepResult, error)

	// ActiveForUser resolves the user's contract whose state is ACTIVE
	// as of today; nil when there is none.
	ActiveForUser(ctx context.Context, userID snowflake.ID) (*Contract, error)
	// ActiveForRoom lists contracts ACTIVE as of today for the room,
	// ordered by start date.
	ActiveForRoom(ctx context.Context, roomID snowflake.ID) ([]Contract, error)
}

type CreateRequest struct {
	UserID       string `json:"user_id"`
	RoomID       string `json:"room_id"`
	ContractType string `json:"contract_type"`
	StartDate    string `json:"start_date"` // YYYY-MM-DD
	EndDate      string `json:"end_date"`   // YYYY-MM-DD
}

type UpdateRequest struct {
	ID           string  `json:"id"`
	UserID       *string `json:"user_id,omitempty"`
	RoomID       *string `json:"room_id,omitempty"`
	ContractType *string `json:"contract_type,omitempty"`
	StartDate    *string `json:"start_date,omitempty"`
	EndDate      *string `json:"end_date,omitempty"`
	// ForceStatus is admin-only; the handler enforces the role.
	ForceStatus *string `json:"status,omitempty"`
}

type ListRequest struct {
	RoomID string
	UserID string
	Status string
}

type Response struct {
	ID           string       `json:"id"`
	RoomID       string       `json:"room_id"`
	UserID       string       `json:"user_id"`
	ContractType ContractType `json:"contract_type"`
	StartDate    string       `json:"start_date"`
	EndDate      string       `json:"end_date"`
	Status       Status       `json:"status"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

type SweepResult struct {
	Activated int `json:"activated"`
	Expired   int `json:"expired"`
	Skipped   int `json:"skipped"`
}

var (
	ErrNotFound         = errors.New("contract_not_found")
	ErrInvalidID        = errors.New("invalid_id")
	ErrInvalidType      = errors.New("invalid_contract_type")
	ErrInvalidPeriod    = errors.New("invalid_contract_period")
	ErrStartInPast      = errors.New("start_date_in_past")
	ErrContractExists   = errors.New("contract_exists")
	ErrTerminated       = errors.New("contract_terminated")
	ErrDeleteActive     = errors.New("contract_active")
	ErrInvalidStatus    = errors.New("invalid_status")
	ErrUserHasContract  = errors.New("user_has_contract")
	ErrUnknownRoom      = errors.New("unknown_room")
	ErrInvalidUser      = errors.New("invalid_user")
	ErrStatusTransition = errors.New("invalid_status_transition")
)

func ParseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(value)
}
