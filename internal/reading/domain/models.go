// Package domain contains the meter ledger: one Reading per room,
// service and bill month, chained by previous/current values.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Reading is a single submitted meter measurement. PreviousReading is
// derived by the ledger, never supplied by the resident: it equals the
// current reading of the most recent earlier month for the same room and
// service, or zero.
type Reading struct {
	ID              snowflake.ID    `json:"id" gorm:"primaryKey"`
	RoomID          snowflake.ID    `json:"room_id" gorm:"not null;index;uniqueIndex:ux_readings_room_month_tariff,priority:1"`
	BillMonth       time.Time       `json:"bill_month" gorm:"type:date;not null;uniqueIndex:ux_readings_room_month_tariff,priority:2"`
	TariffID        snowflake.ID    `json:"tariff_id" gorm:"not null;uniqueIndex:ux_readings_room_month_tariff,priority:3"`
	ServiceID       snowflake.ID    `json:"service_id" gorm:"not null;index"`
	PreviousReading decimal.Decimal `json:"previous_reading" gorm:"type:numeric(18,2);not null"`
	CurrentReading  decimal.Decimal `json:"current_reading" gorm:"type:numeric(18,2);not null"`
	Price           decimal.Decimal `json:"price" gorm:"type:numeric(18,2);not null"`
	SubmittedBy     snowflake.ID    `json:"submitted_by" gorm:"not null"`
	SubmittedAt     time.Time       `json:"submitted_at" gorm:"not null"`
	CreatedAt       time.Time       `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time       `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Reading) TableName() string { return "bill_details" }
