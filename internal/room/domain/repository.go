package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository is the only read/write path to rooms in the core. The
// soft-delete filter is applied by every method; IncludeDeleted is an
// explicit opt-out for admin audit reads.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, room *Room) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Room, error)
	FindByIDIncludeDeleted(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Room, error)
	// FindByIDForUpdate acquires a row-level lock; call inside a transaction.
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Room, error)
	List(ctx context.Context, db *gorm.DB) ([]Room, error)
	// UpdateOccupancy persists occupancy and status; callers stamp
	// room.UpdatedAt from their clock first.
	UpdateOccupancy(ctx context.Context, db *gorm.DB, room *Room) error
	SoftDelete(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) error
}
