// Package domain contains rental contracts and their date-driven state
// machine.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusActive     Status = "ACTIVE"
	StatusExpired    Status = "EXPIRED"
	StatusTerminated Status = "TERMINATED"
)

func (s Status) Terminal() bool {
	return s == StatusTerminated
}

type ContractType string

const (
	TypeShortTerm ContractType = "SHORT_TERM"
	TypeLongTerm  ContractType = "LONG_TERM"
)

type Contract struct {
	ID           snowflake.ID `json:"id" gorm:"primaryKey"`
	RoomID       snowflake.ID `json:"room_id" gorm:"not null;index"`
	UserID       snowflake.ID `json:"user_id" gorm:"not null;index"`
	ContractType ContractType `json:"contract_type" gorm:"type:text;not null"`
	StartDate    time.Time    `json:"start_date" gorm:"type:date;not null"`
	EndDate      time.Time    `json:"end_date" gorm:"type:date;not null"`
	Status       Status       `json:"status" gorm:"type:text;not null"`
	CreatedAt    time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Contract) TableName() string { return "contracts" }

// StatusAt is the pure state function. TERMINATED is sticky and admin
// only; otherwise the status is fully determined by the dates.
func StatusAt(start, end, today time.Time, terminated bool) Status {
	if terminated {
		return StatusTerminated
	}
	switch {
	case today.Before(start):
		return StatusPending
	case today.After(end):
		return StatusExpired
	default:
		return StatusActive
	}
}

// EffectiveStatus evaluates the contract's state as of today.
func (c *Contract) EffectiveStatus(today time.Time) Status {
	return StatusAt(c.StartDate, c.EndDate, today, c.Status.Terminal())
}
