package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	contractdomain "github.com/dormhub/dormhub/internal/contract/domain"
	"github.com/dormhub/dormhub/pkg/db"
	"gorm.io/gorm"
)

const contractColumns = `id, room_id, user_id, contract_type, start_date, end_date, status, created_at, updated_at`

type repo struct{}

func Provide() contractdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, conn *gorm.DB, c *contractdomain.Contract) error {
	return conn.WithContext(ctx).Exec(
		`INSERT INTO contracts (`+contractColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID,
		c.RoomID,
		c.UserID,
		c.ContractType,
		c.StartDate,
		c.EndDate,
		c.Status,
		c.CreatedAt,
		c.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, conn *gorm.DB, c *contractdomain.Contract) error {
	return conn.WithContext(ctx).Exec(
		`UPDATE contracts
		 SET room_id = ?, user_id = ?, contract_type = ?, start_date = ?, end_date = ?, status = ?, updated_at = ?
		 WHERE id = ?`,
		c.RoomID,
		c.UserID,
		c.ContractType,
		c.StartDate,
		c.EndDate,
		c.Status,
		c.UpdatedAt,
		c.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, conn *gorm.DB, id snowflake.ID) error {
	return conn.WithContext(ctx).Exec(`DELETE FROM contracts WHERE id = ?`, id).Error
}

func (r *repo) FindByID(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*contractdomain.Contract, error) {
	return r.findOne(ctx, conn, `SELECT `+contractColumns+` FROM contracts WHERE id = ?`, id)
}

func (r *repo) FindByIDForUpdate(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*contractdomain.Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts WHERE id = ?` + db.LockingSuffix(conn)
	return r.findOne(ctx, conn, query, id)
}

func (r *repo) FindNonTerminalByUser(ctx context.Context, conn *gorm.DB, userID snowflake.ID) (*contractdomain.Contract, error) {
	return r.findOne(ctx, conn,
		`SELECT `+contractColumns+` FROM contracts
		 WHERE user_id = ? AND status != ?
		 ORDER BY created_at DESC LIMIT 1`,
		userID,
		contractdomain.StatusTerminated,
	)
}

func (r *repo) findOne(ctx context.Context, conn *gorm.DB, query string, args ...any) (*contractdomain.Contract, error) {
	var c contractdomain.Contract
	err := conn.WithContext(ctx).Raw(query, args...).Scan(&c).Error
	if err != nil {
		return nil, err
	}
	if c.ID == 0 {
		return nil, nil
	}
	return &c, nil
}

func (r *repo) FindByRoom(ctx context.Context, conn *gorm.DB, roomID snowflake.ID) ([]contractdomain.Contract, error) {
	var contracts []contractdomain.Contract
	err := conn.WithContext(ctx).Raw(
		`SELECT `+contractColumns+` FROM contracts WHERE room_id = ? ORDER BY start_date ASC`,
		roomID,
	).Scan(&contracts).Error
	if err != nil {
		return nil, err
	}
	return contracts, nil
}

func (r *repo) List(ctx context.Context, conn *gorm.DB, roomID, userID snowflake.ID, status contractdomain.Status) ([]contractdomain.Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts WHERE 1=1`
	args := []any{}
	if roomID != 0 {
		query += ` AND room_id = ?`
		args = append(args, roomID)
	}
	if userID != 0 {
		query += ` AND user_id = ?`
		args = append(args, userID)
	}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	var contracts []contractdomain.Contract
	err := conn.WithContext(ctx).Raw(query, args...).Scan(&contracts).Error
	if err != nil {
		return nil, err
	}
	return contracts, nil
}

func (r *repo) FindSweepCandidates(ctx context.Context, conn *gorm.DB, windowStart, windowEnd time.Time) ([]contractdomain.Contract, error) {
	var contracts []contractdomain.Contract
	err := conn.WithContext(ctx).Raw(
		`SELECT `+contractColumns+` FROM contracts
		 WHERE status IN (?, ?)
		    OR (start_date BETWEEN ? AND ?)
		    OR (end_date BETWEEN ? AND ?)
		 ORDER BY id ASC`,
		contractdomain.StatusPending,
		contractdomain.StatusActive,
		windowStart, windowEnd,
		windowStart, windowEnd,
	).Scan(&contracts).Error
	if err != nil {
		return nil, err
	}
	return contracts, nil
}

func (r *repo) CountActiveByRoom(ctx context.Context, conn *gorm.DB, roomID snowflake.ID) (int, error) {
	var count int
	err := conn.WithContext(ctx).Raw(
		`SELECT COUNT(*) FROM contracts WHERE room_id = ? AND status = ?`,
		roomID,
		contractdomain.StatusActive,
	).Scan(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
