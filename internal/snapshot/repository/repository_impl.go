package repository

import (
	"context"

	snapshotdomain "github.com/dormhub/dormhub/internal/snapshot/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() snapshotdomain.Repository {
	return &repo{}
}

// ON CONFLICT works on both postgres and sqlite; the (room, year, month)
// unique index is the conflict target.
func (r *repo) UpsertRoomStatus(ctx context.Context, db *gorm.DB, row *snapshotdomain.RoomStatusHistory) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO room_status_history (id, room_id, year, month, status, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (room_id, year, month)
		 DO UPDATE SET status = excluded.status, updated_at = excluded.updated_at`,
		row.ID,
		row.RoomID,
		row.Year,
		row.Month,
		row.Status,
		row.UpdatedAt,
	).Error
}

func (r *repo) UpsertUserRoom(ctx context.Context, db *gorm.DB, row *snapshotdomain.UserRoomHistory) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO user_room_history (id, room_id, year, month, person_count, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (room_id, year, month)
		 DO UPDATE SET person_count = excluded.person_count, updated_at = excluded.updated_at`,
		row.ID,
		row.RoomID,
		row.Year,
		row.Month,
		row.PersonCount,
		row.UpdatedAt,
	).Error
}
