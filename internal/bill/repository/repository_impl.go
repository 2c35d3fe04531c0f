package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	billdomain "github.com/dormhub/dormhub/internal/bill/domain"
	readingdomain "github.com/dormhub/dormhub/internal/reading/domain"
	"github.com/dormhub/dormhub/pkg/db"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const billColumns = `id, user_id, room_id, detail_id, bill_month, total_amount, payment_status, paid_at, transaction_reference, allowed_methods, created_at, updated_at`

type repo struct{}

func Provide() billdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, conn *gorm.DB, bill *billdomain.MonthlyBill) error {
	return conn.WithContext(ctx).Exec(
		`INSERT INTO monthly_bills (`+billColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		bill.ID,
		bill.UserID,
		bill.RoomID,
		bill.ReadingID,
		bill.BillMonth,
		bill.TotalAmount,
		bill.PaymentStatus,
		bill.PaidAt,
		bill.TransactionReference,
		bill.AllowedMethods,
		bill.CreatedAt,
		bill.UpdatedAt,
	).Error
}

func (r *repo) Delete(ctx context.Context, conn *gorm.DB, id snowflake.ID) error {
	return conn.WithContext(ctx).Exec(`DELETE FROM monthly_bills WHERE id = ?`, id).Error
}

func (r *repo) FindByID(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*billdomain.MonthlyBill, error) {
	return r.findOne(ctx, conn, `SELECT `+billColumns+` FROM monthly_bills WHERE id = ?`, id)
}

func (r *repo) FindByIDForUpdate(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*billdomain.MonthlyBill, error) {
	query := `SELECT ` + billColumns + ` FROM monthly_bills WHERE id = ?` + db.LockingSuffix(conn)
	return r.findOne(ctx, conn, query, id)
}

func (r *repo) FindByReadingID(ctx context.Context, conn *gorm.DB, readingID snowflake.ID) (*billdomain.MonthlyBill, error) {
	return r.findOne(ctx, conn, `SELECT `+billColumns+` FROM monthly_bills WHERE detail_id = ?`, readingID)
}

func (r *repo) findOne(ctx context.Context, conn *gorm.DB, query string, args ...any) (*billdomain.MonthlyBill, error) {
	var bill billdomain.MonthlyBill
	err := conn.WithContext(ctx).Raw(query, args...).Scan(&bill).Error
	if err != nil {
		return nil, err
	}
	if bill.ID == 0 {
		return nil, nil
	}
	return &bill, nil
}

func (r *repo) List(ctx context.Context, conn *gorm.DB, filter billdomain.ListFilter) ([]billdomain.MonthlyBill, error) {
	query := `SELECT ` + billColumns + ` FROM monthly_bills WHERE 1=1`
	args := []any{}
	if filter.Month != nil {
		query += ` AND bill_month = ?`
		args = append(args, *filter.Month)
	}
	if filter.RoomID != 0 {
		query += ` AND room_id = ?`
		args = append(args, filter.RoomID)
	}
	if filter.UserID != 0 {
		query += ` AND user_id = ?`
		args = append(args, filter.UserID)
	}
	if filter.Status != "" {
		query += ` AND payment_status = ?`
		args = append(args, filter.Status)
	}
	if filter.AfterID != 0 {
		query += ` AND id > ?`
		args = append(args, filter.AfterID)
	}
	query += ` ORDER BY id ASC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit+1)
	}

	var bills []billdomain.MonthlyBill
	err := conn.WithContext(ctx).Raw(query, args...).Scan(&bills).Error
	if err != nil {
		return nil, err
	}
	return bills, nil
}

func (r *repo) ListByMonth(ctx context.Context, conn *gorm.DB, month time.Time) ([]billdomain.MonthlyBill, error) {
	var bills []billdomain.MonthlyBill
	err := conn.WithContext(ctx).Raw(
		`SELECT `+billColumns+` FROM monthly_bills WHERE bill_month = ? ORDER BY room_id ASC`,
		month,
	).Scan(&bills).Error
	if err != nil {
		return nil, err
	}
	return bills, nil
}

func (r *repo) UpdateTotal(ctx context.Context, conn *gorm.DB, id snowflake.ID, total decimal.Decimal, now time.Time) error {
	return conn.WithContext(ctx).Exec(
		`UPDATE monthly_bills SET total_amount = ?, updated_at = ? WHERE id = ?`,
		total,
		now,
		id,
	).Error
}

func (r *repo) UpdatePayment(ctx context.Context, conn *gorm.DB, bill *billdomain.MonthlyBill) error {
	return conn.WithContext(ctx).Exec(
		`UPDATE monthly_bills
		 SET payment_status = ?, paid_at = ?, transaction_reference = ?, updated_at = ?
		 WHERE id = ?`,
		bill.PaymentStatus,
		bill.PaidAt,
		bill.TransactionReference,
		bill.UpdatedAt,
		bill.ID,
	).Error
}

func (r *repo) MarkOverdue(ctx context.Context, conn *gorm.DB, monthBefore time.Time, now time.Time) (int64, error) {
	result := conn.WithContext(ctx).Exec(
		`UPDATE monthly_bills
		 SET payment_status = ?, updated_at = ?
		 WHERE payment_status = ? AND bill_month < ?`,
		billdomain.PaymentStatusOverdue,
		now,
		billdomain.PaymentStatusPending,
		monthBefore,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) FindUnlinkedReadings(ctx context.Context, conn *gorm.DB, roomID snowflake.ID, month time.Time) ([]readingdomain.Reading, error) {
	var readings []readingdomain.Reading
	err := conn.WithContext(ctx).Raw(
		`SELECT d.id, d.room_id, d.bill_month, d.tariff_id, d.service_id, d.previous_reading,
		        d.current_reading, d.price, d.submitted_by, d.submitted_at, d.created_at, d.updated_at
		 FROM bill_details d
		 LEFT JOIN monthly_bills b ON b.detail_id = d.id
		 WHERE d.room_id = ? AND d.bill_month = ? AND b.id IS NULL
		 ORDER BY d.service_id ASC`,
		roomID,
		month,
	).Scan(&readings).Error
	if err != nil {
		return nil, err
	}
	return readings, nil
}
