// Package domain contains the utility service catalogue and its
// time-versioned tariffs.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// UtilityService is a billable service (electricity, water, fixed monthly
// fee). IsMetered decides how its readings are priced: metered services
// charge consumption × unit price, fixed services charge the unit price
// flat. Immutable once a tariff references it.
type UtilityService struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	Name      string       `json:"name" gorm:"type:text;not null;uniqueIndex:ux_services_name"`
	Unit      string       `json:"unit" gorm:"type:text;not null"`
	IsMetered bool         `json:"is_metered" gorm:"not null;default:false"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (UtilityService) TableName() string { return "services" }

// Tariff is one (service, unit_price, effective_date) row. Tariffs are
// append-only; corrections are new rows at a later effective date.
type Tariff struct {
	ID            snowflake.ID    `json:"id" gorm:"primaryKey"`
	ServiceID     snowflake.ID    `json:"service_id" gorm:"not null;uniqueIndex:ux_tariffs_service_effective,priority:1"`
	UnitPrice     decimal.Decimal `json:"unit_price" gorm:"type:numeric(18,2);not null"`
	EffectiveDate time.Time       `json:"effective_date" gorm:"type:date;not null;uniqueIndex:ux_tariffs_service_effective,priority:2"`
	CreatedAt     time.Time       `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Tariff) TableName() string { return "tariffs" }
