package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, txn *Transaction) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Transaction, error)
	FindByTxnRef(ctx context.Context, db *gorm.DB, txnRef string) (*Transaction, error)
	FindByTxnRefForUpdate(ctx context.Context, db *gorm.DB, txnRef string) (*Transaction, error)
	// FindOpenByBill returns the bill's PENDING transactions.
	FindOpenByBill(ctx context.Context, db *gorm.DB, billID snowflake.ID) ([]Transaction, error)
	ListByBill(ctx context.Context, db *gorm.DB, billID snowflake.ID) ([]Transaction, error)
	ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]Transaction, error)
	Update(ctx context.Context, db *gorm.DB, txn *Transaction) error
	// CancelOpenByBill flips the bill's PENDING transactions to
	// CANCELLED; returns how many changed.
	CancelOpenByBill(ctx context.Context, db *gorm.DB, billID snowflake.ID, now time.Time) (int64, error)
}
