package db

import "gorm.io/gorm"

// LockingSuffix returns the row-locking clause for the connected dialect.
// SQLite has no SELECT ... FOR UPDATE; its tests rely on the database-level
// write lock instead.
func LockingSuffix(db *gorm.DB) string {
	if db.Dialector.Name() == "sqlite" {
		return ""
	}
	return " FOR UPDATE"
}
