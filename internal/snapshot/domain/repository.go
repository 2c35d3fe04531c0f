package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	UpsertRoomStatus(ctx context.Context, db *gorm.DB, row *RoomStatusHistory) error
	UpsertUserRoom(ctx context.Context, db *gorm.DB, row *UserRoomHistory) error
}
