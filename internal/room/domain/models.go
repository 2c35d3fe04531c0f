// Package domain contains the room aggregate. Occupancy counters are
// only ever touched under a row lock on the room.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusAvailable   Status = "AVAILABLE"
	StatusOccupied    Status = "OCCUPIED"
	StatusMaintenance Status = "MAINTENANCE"
	StatusDisabled    Status = "DISABLED"
)

// AdminSticky reports whether s was set by an admin and must survive
// occupancy recomputation.
func (s Status) AdminSticky() bool {
	return s == StatusMaintenance || s == StatusDisabled
}

type Room struct {
	ID                  snowflake.ID    `json:"id" gorm:"primaryKey"`
	AreaID              snowflake.ID    `json:"area_id" gorm:"not null;index;uniqueIndex:ux_rooms_area_name,priority:1"`
	Name                string          `json:"name" gorm:"type:text;not null;uniqueIndex:ux_rooms_area_name,priority:2"`
	Capacity            int             `json:"capacity" gorm:"not null"`
	Price               decimal.Decimal `json:"price" gorm:"type:numeric(18,2);not null;default:0"`
	Description         string          `json:"description" gorm:"type:text"`
	Status              Status          `json:"status" gorm:"type:text;not null;default:'AVAILABLE'"`
	CurrentPersonNumber int             `json:"current_person_number" gorm:"not null;default:0"`
	Deleted             bool            `json:"deleted" gorm:"not null;default:false"`
	CreatedAt           time.Time       `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt           time.Time       `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Room) TableName() string { return "rooms" }

var (
	ErrNotFound = errors.New("room_not_found")
	ErrRoomFull = errors.New("room_full")
	ErrGone     = errors.New("room_deleted")
)

// ApplyOccupancyDelta adjusts the headcount and recomputes the status.
// MAINTENANCE and DISABLED are admin decisions and are never overwritten
// by occupancy changes. Returns ErrRoomFull when the delta would exceed
// capacity.
func (r *Room) ApplyOccupancyDelta(delta int) error {
	next := r.CurrentPersonNumber + delta
	if next < 0 {
		next = 0
	}
	if next > r.Capacity {
		return ErrRoomFull
	}
	r.CurrentPersonNumber = next
	if !r.Status.AdminSticky() {
		if r.CurrentPersonNumber >= r.Capacity {
			r.Status = StatusOccupied
		} else {
			r.Status = StatusAvailable
		}
	}
	return nil
}
