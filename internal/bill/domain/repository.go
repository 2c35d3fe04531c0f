package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	readingdomain "github.com/dormhub/dormhub/internal/reading/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ListFilter struct {
	Month   *time.Time
	RoomID  snowflake.ID
	UserID  snowflake.ID
	Status  PaymentStatus
	AfterID snowflake.ID
	Limit   int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, bill *MonthlyBill) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*MonthlyBill, error)
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*MonthlyBill, error)
	FindByReadingID(ctx context.Context, db *gorm.DB, readingID snowflake.ID) (*MonthlyBill, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]MonthlyBill, error)
	ListByMonth(ctx context.Context, db *gorm.DB, month time.Time) ([]MonthlyBill, error)
	UpdateTotal(ctx context.Context, db *gorm.DB, id snowflake.ID, total decimal.Decimal, now time.Time) error
	UpdatePayment(ctx context.Context, db *gorm.DB, bill *MonthlyBill) error
	// MarkOverdue flips PENDING bills whose bill month falls strictly
	// before monthBefore to OVERDUE; returns how many changed.
	MarkOverdue(ctx context.Context, db *gorm.DB, monthBefore time.Time, now time.Time) (int64, error)
	// FindUnlinkedReadings returns the month's readings for a room that
	// no bill references yet.
	FindUnlinkedReadings(ctx context.Context, db *gorm.DB, roomID snowflake.ID, month time.Time) ([]readingdomain.Reading, error)
}
