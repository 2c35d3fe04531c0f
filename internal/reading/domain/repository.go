package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, r *Reading) error
	Update(ctx context.Context, db *gorm.DB, r *Reading) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Reading, error)
	FindByRoomMonthTariff(ctx context.Context, db *gorm.DB, roomID snowflake.ID, month time.Time, tariffID snowflake.ID) (*Reading, error)
	// FindLatestBefore returns the most recent reading for (room,
	// service) with a bill month strictly earlier than month.
	FindLatestBefore(ctx context.Context, db *gorm.DB, roomID, serviceID snowflake.ID, month time.Time) (*Reading, error)
	ExistsForRoomMonth(ctx context.Context, db *gorm.DB, roomID snowflake.ID, month time.Time) (bool, error)
	ListByRoomMonth(ctx context.Context, db *gorm.DB, roomID snowflake.ID, month time.Time) ([]Reading, error)
	ListByMonth(ctx context.Context, db *gorm.DB, month time.Time) ([]Reading, error)
}
