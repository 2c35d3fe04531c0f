package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	roomdomain "github.com/dormhub/dormhub/internal/room/domain"
	"github.com/dormhub/dormhub/pkg/db"
	"gorm.io/gorm"
)

const roomColumns = `id, area_id, name, capacity, price, description, status, current_person_number, deleted, created_at, updated_at`

type repo struct{}

func Provide() roomdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, conn *gorm.DB, room *roomdomain.Room) error {
	return conn.WithContext(ctx).Exec(
		`INSERT INTO rooms (`+roomColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		room.ID,
		room.AreaID,
		room.Name,
		room.Capacity,
		room.Price,
		room.Description,
		room.Status,
		room.CurrentPersonNumber,
		room.Deleted,
		room.CreatedAt,
		room.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*roomdomain.Room, error) {
	return r.findOne(ctx, conn, `SELECT `+roomColumns+` FROM rooms WHERE id = ? AND deleted = ?`, id, false)
}

func (r *repo) FindByIDIncludeDeleted(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*roomdomain.Room, error) {
	return r.findOne(ctx, conn, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, id)
}

func (r *repo) FindByIDForUpdate(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*roomdomain.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE id = ? AND deleted = ?` + db.LockingSuffix(conn)
	return r.findOne(ctx, conn, query, id, false)
}

func (r *repo) findOne(ctx context.Context, conn *gorm.DB, query string, args ...any) (*roomdomain.Room, error) {
	var room roomdomain.Room
	err := conn.WithContext(ctx).Raw(query, args...).Scan(&room).Error
	if err != nil {
		return nil, err
	}
	if room.ID == 0 {
		return nil, nil
	}
	return &room, nil
}

func (r *repo) List(ctx context.Context, conn *gorm.DB) ([]roomdomain.Room, error) {
	var rooms []roomdomain.Room
	err := conn.WithContext(ctx).Raw(
		`SELECT `+roomColumns+` FROM rooms WHERE deleted = ? ORDER BY name ASC`,
		false,
	).Scan(&rooms).Error
	if err != nil {
		return nil, err
	}
	return rooms, nil
}

func (r *repo) UpdateOccupancy(ctx context.Context, conn *gorm.DB, room *roomdomain.Room) error {
	return conn.WithContext(ctx).Exec(
		`UPDATE rooms
		 SET current_person_number = ?, status = ?, updated_at = ?
		 WHERE id = ?`,
		room.CurrentPersonNumber,
		room.Status,
		room.UpdatedAt,
		room.ID,
	).Error
}

func (r *repo) SoftDelete(ctx context.Context, conn *gorm.DB, id snowflake.ID, now time.Time) error {
	return conn.WithContext(ctx).Exec(
		`UPDATE rooms SET deleted = ?, updated_at = ? WHERE id = ?`,
		true,
		now,
		id,
	).Error
}
