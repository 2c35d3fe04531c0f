// Package uow scopes each core operation to a single database
// transaction with one commit point. Side effects such as notifications
// are queued during the transaction and flushed only after commit, so a
// rollback never leaves a stray message behind.
package uow

import (
	"context"

	"gorm.io/gorm"
)

type UnitOfWork struct {
	tx          *gorm.DB
	afterCommit []func(ctx context.Context)
}

// Tx is the transaction this unit of work runs in.
func (u *UnitOfWork) Tx() *gorm.DB {
	return u.tx
}

// AfterCommit queues fn to run once the transaction has committed.
func (u *UnitOfWork) AfterCommit(fn func(ctx context.Context)) {
	u.afterCommit = append(u.afterCommit, fn)
}

// Run executes fn inside one transaction. After-commit hooks run only on
// success; hook failures are the hook's own problem and never roll back
// the committed work.
func Run(ctx context.Context, db *gorm.DB, fn func(ctx context.Context, u *UnitOfWork) error) error {
	u := &UnitOfWork{}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u.tx = tx
		return fn(ctx, u)
	})
	if err != nil {
		return err
	}
	for _, hook := range u.afterCommit {
		hook(ctx)
	}
	return nil
}
