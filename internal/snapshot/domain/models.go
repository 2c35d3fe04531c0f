// Package domain contains monthly occupancy history rows. Both tables
// are upsert-only, keyed on (room, year, month).
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	roomdomain "github.com/dormhub/dormhub/internal/room/domain"
)

type RoomStatusHistory struct {
	ID        snowflake.ID      `json:"id" gorm:"primaryKey"`
	RoomID    snowflake.ID      `json:"room_id" gorm:"not null;uniqueIndex:ux_room_status_history,priority:1"`
	Year      int               `json:"year" gorm:"not null;uniqueIndex:ux_room_status_history,priority:2"`
	Month     int               `json:"month" gorm:"not null;uniqueIndex:ux_room_status_history,priority:3"`
	Status    roomdomain.Status `json:"status" gorm:"type:text;not null"`
	UpdatedAt time.Time         `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (RoomStatusHistory) TableName() string { return "room_status_history" }

type UserRoomHistory struct {
	ID          snowflake.ID `json:"id" gorm:"primaryKey"`
	RoomID      snowflake.ID `json:"room_id" gorm:"not null;uniqueIndex:ux_user_room_history,priority:1"`
	Year        int          `json:"year" gorm:"not null;uniqueIndex:ux_user_room_history,priority:2"`
	Month       int          `json:"month" gorm:"not null;uniqueIndex:ux_user_room_history,priority:3"`
	PersonCount int          `json:"person_count" gorm:"not null;default:0"`
	UpdatedAt   time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (UserRoomHistory) TableName() string { return "user_room_history" }
