package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	readingdomain "github.com/dormhub/dormhub/internal/reading/domain"
	"gorm.io/gorm"
)

const readingColumns = `id, room_id, bill_month, tariff_id, service_id, previous_reading, current_reading, price, submitted_by, submitted_at, created_at, updated_at`

type repo struct{}

func Provide() readingdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, conn *gorm.DB, reading *readingdomain.Reading) error {
	return conn.WithContext(ctx).Exec(
		`INSERT INTO bill_details (`+readingColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		reading.ID,
		reading.RoomID,
		reading.BillMonth,
		reading.TariffID,
		reading.ServiceID,
		reading.PreviousReading,
		reading.CurrentReading,
		reading.Price,
		reading.SubmittedBy,
		reading.SubmittedAt,
		reading.CreatedAt,
		reading.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, conn *gorm.DB, reading *readingdomain.Reading) error {
	return conn.WithContext(ctx).Exec(
		`UPDATE bill_details
		 SET previous_reading = ?, current_reading = ?, price = ?, updated_at = ?
		 WHERE id = ?`,
		reading.PreviousReading,
		reading.CurrentReading,
		reading.Price,
		reading.UpdatedAt,
		reading.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, conn *gorm.DB, id snowflake.ID) error {
	return conn.WithContext(ctx).Exec(`DELETE FROM bill_details WHERE id = ?`, id).Error
}

func (r *repo) FindByID(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*readingdomain.Reading, error) {
	return r.findOne(ctx, conn, `SELECT `+readingColumns+` FROM bill_details WHERE id = ?`, id)
}

func (r *repo) FindByRoomMonthTariff(ctx context.Context, conn *gorm.DB, roomID snowflake.ID, month time.Time, tariffID snowflake.ID) (*readingdomain.Reading, error) {
	return r.findOne(ctx, conn,
		`SELECT `+readingColumns+` FROM bill_details
		 WHERE room_id = ? AND bill_month = ? AND tariff_id = ?`,
		roomID,
		month,
		tariffID,
	)
}

func (r *repo) FindLatestBefore(ctx context.Context, conn *gorm.DB, roomID, serviceID snowflake.ID, month time.Time) (*readingdomain.Reading, error) {
	return r.findOne(ctx, conn,
		`SELECT `+readingColumns+` FROM bill_details
		 WHERE room_id = ? AND service_id = ? AND bill_month < ?
		 ORDER BY bill_month DESC
		 LIMIT 1`,
		roomID,
		serviceID,
		month,
	)
}

func (r *repo) findOne(ctx context.Context, conn *gorm.DB, query string, args ...any) (*readingdomain.Reading, error) {
	var reading readingdomain.Reading
	err := conn.WithContext(ctx).Raw(query, args...).Scan(&reading).Error
	if err != nil {
		return nil, err
	}
	if reading.ID == 0 {
		return nil, nil
	}
	return &reading, nil
}

func (r *repo) ExistsForRoomMonth(ctx context.Context, conn *gorm.DB, roomID snowflake.ID, month time.Time) (bool, error) {
	var count int
	err := conn.WithContext(ctx).Raw(
		`SELECT COUNT(*) FROM bill_details WHERE room_id = ? AND bill_month = ?`,
		roomID,
		month,
	).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) ListByRoomMonth(ctx context.Context, conn *gorm.DB, roomID snowflake.ID, month time.Time) ([]readingdomain.Reading, error) {
	var readings []readingdomain.Reading
	err := conn.WithContext(ctx).Raw(
		`SELECT `+readingColumns+` FROM bill_details
		 WHERE room_id = ? AND bill_month = ?
		 ORDER BY service_id ASC`,
		roomID,
		month,
	).Scan(&readings).Error
	if err != nil {
		return nil, err
	}
	return readings, nil
}

func (r *repo) ListByMonth(ctx context.Context, conn *gorm.DB, month time.Time) ([]readingdomain.Reading, error) {
	var readings []readingdomain.Reading
	err := conn.WithContext(ctx).Raw(
		`SELECT `+readingColumns+` FROM bill_details
		 WHERE bill_month = ?
		 ORDER BY room_id ASC, service_id ASC`,
		month,
	).Scan(&readings).Error
	if err != nil {
		return nil, err
	}
	return readings, nil
}
