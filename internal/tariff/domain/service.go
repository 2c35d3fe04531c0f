package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Service interface {
	CreateService(ctx context.Context, req CreateServiceRequest) (*ServiceResponse, error)
	ListServices(ctx context.Context) ([]ServiceResponse, error)

	AddTariff(ctx context.Context, req AddTariffRequest) (*TariffResponse, error)
	ListTariffs(ctx context.Context, serviceID string) ([]TariffResponse, error)

	// LookupTariff returns the tariff with the greatest effective date
	// not after asOf.
	LookupTariff(ctx context.Context, serviceID snowflake.ID, asOf time.Time) (*Tariff, error)
	// CurrentTariff is LookupTariff as of today.
	CurrentTariff(ctx context.Context, serviceID snowflake.ID) (*Tariff, error)

	GetService(ctx context.Context, id snowflake.ID) (*UtilityService, error)
	GetTariff(ctx context.Context, id snowflake.ID) (*Tariff, error)
}

type CreateServiceRequest struct {
	Name      string `json:"name"`
	Unit      string `json:"unit"`
	IsMetered bool   `json:"is_metered"`
}

type ServiceResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Unit      string    `json:"unit"`
	IsMetered bool      `json:"is_metered"`
	CreatedAt time.Time `json:"created_at"`
}

type AddTariffRequest struct {
	ServiceID     string          `json:"service_id"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	EffectiveDate string          `json:"effective_date"` // YYYY-MM-DD, first of month
}

type TariffResponse struct {
	ID            string          `json:"id"`
	ServiceID     string          `json:"service_id"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	EffectiveDate string          `json:"effective_date"`
	CreatedAt     time.Time       `json:"created_at"`
}

var (
	ErrUnknownService       = errors.New("unknown_service")
	ErrInvalidServiceName   = errors.New("invalid_service_name")
	ErrInvalidUnit          = errors.New("invalid_unit")
	ErrDuplicateService     = errors.New("duplicate_service")
	ErrInvalidUnitPrice     = errors.New("invalid_unit_price")
	ErrInvalidEffectiveDate = errors.New("invalid_effective_date")
	ErrDuplicateTariff      = errors.New("duplicate_tariff")
	ErrNoTariff             = errors.New("no_tariff")
	ErrInvalidID            = errors.New("invalid_id")
)

func ParseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(value)
}
