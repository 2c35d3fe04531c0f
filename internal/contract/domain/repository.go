package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, c *Contract) error
	Update(ctx context.Context, db *gorm.DB, c *Contract) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Contract, error)
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Contract, error)
	// FindNonTerminalByUser returns the user's PENDING/ACTIVE/EXPIRED
	// contract, if any. A user holds at most one.
	FindNonTerminalByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*Contract, error)
	FindByRoom(ctx context.Context, db *gorm.DB, roomID snowflake.ID) ([]Contract, error)
	List(ctx context.Context, db *gorm.DB, roomID, userID snowflake.ID, status Status) ([]Contract, error)
	// FindSweepCandidates returns PENDING and ACTIVE contracts plus any
	// whose start or end date falls within the window around today.
	FindSweepCandidates(ctx context.Context, db *gorm.DB, windowStart, windowEnd time.Time) ([]Contract, error)
	CountActiveByRoom(ctx context.Context, db *gorm.DB, roomID snowflake.ID) (int, error)
}
