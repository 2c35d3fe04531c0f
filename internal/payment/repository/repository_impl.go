package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	paymentdomain "github.com/dormhub/dormhub/internal/payment/domain"
	"github.com/dormhub/dormhub/pkg/db"
	"gorm.io/gorm"
)

const txnColumns = `id, bill_id, user_id, method, amount, status, txn_ref, gateway_txn_no, response_code, bank_code, order_info, expires_at, completed_at, created_at, updated_at`

type repo struct{}

func Provide() paymentdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, conn *gorm.DB, txn *paymentdomain.Transaction) error {
	return conn.WithContext(ctx).Exec(
		`INSERT INTO payment_transactions (`+txnColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.ID,
		txn.BillID,
		txn.UserID,
		txn.Method,
		txn.Amount,
		txn.Status,
		txn.TxnRef,
		txn.GatewayTxnNo,
		txn.ResponseCode,
		txn.BankCode,
		txn.OrderInfo,
		txn.ExpiresAt,
		txn.CompletedAt,
		txn.CreatedAt,
		txn.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*paymentdomain.Transaction, error) {
	return r.findOne(ctx, conn, `SELECT `+txnColumns+` FROM payment_transactions WHERE id = ?`, id)
}

func (r *repo) FindByTxnRef(ctx context.Context, conn *gorm.DB, txnRef string) (*paymentdomain.Transaction, error) {
	return r.findOne(ctx, conn, `SELECT `+txnColumns+` FROM payment_transactions WHERE txn_ref = ?`, txnRef)
}

func (r *repo) FindByTxnRefForUpdate(ctx context.Context, conn *gorm.DB, txnRef string) (*paymentdomain.Transaction, error) {
	query := `SELECT ` + txnColumns + ` FROM payment_transactions WHERE txn_ref = ?` + db.LockingSuffix(conn)
	return r.findOne(ctx, conn, query, txnRef)
}

func (r *repo) findOne(ctx context.Context, conn *gorm.DB, query string, args ...any) (*paymentdomain.Transaction, error) {
	var txn paymentdomain.Transaction
	err := conn.WithContext(ctx).Raw(query, args...).Scan(&txn).Error
	if err != nil {
		return nil, err
	}
	if txn.ID == 0 {
		return nil, nil
	}
	return &txn, nil
}

func (r *repo) FindOpenByBill(ctx context.Context, conn *gorm.DB, billID snowflake.ID) ([]paymentdomain.Transaction, error) {
	var txns []paymentdomain.Transaction
	err := conn.WithContext(ctx).Raw(
		`SELECT `+txnColumns+` FROM payment_transactions WHERE bill_id = ? AND status = ? ORDER BY id ASC`,
		billID,
		paymentdomain.StatusPending,
	).Scan(&txns).Error
	if err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *repo) ListByBill(ctx context.Context, conn *gorm.DB, billID snowflake.ID) ([]paymentdomain.Transaction, error) {
	var txns []paymentdomain.Transaction
	err := conn.WithContext(ctx).Raw(
		`SELECT `+txnColumns+` FROM payment_transactions WHERE bill_id = ? ORDER BY id DESC`,
		billID,
	).Scan(&txns).Error
	if err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *repo) ListByUser(ctx context.Context, conn *gorm.DB, userID snowflake.ID) ([]paymentdomain.Transaction, error) {
	var txns []paymentdomain.Transaction
	err := conn.WithContext(ctx).Raw(
		`SELECT `+txnColumns+` FROM payment_transactions WHERE user_id = ? ORDER BY id DESC`,
		userID,
	).Scan(&txns).Error
	if err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *repo) Update(ctx context.Context, conn *gorm.DB, txn *paymentdomain.Transaction) error {
	return conn.WithContext(ctx).Exec(
		`UPDATE payment_transactions
		 SET status = ?, gateway_txn_no = ?, response_code = ?, bank_code = ?, completed_at = ?, updated_at = ?
		 WHERE id = ?`,
		txn.Status,
		txn.GatewayTxnNo,
		txn.ResponseCode,
		txn.BankCode,
		txn.CompletedAt,
		txn.UpdatedAt,
		txn.ID,
	).Error
}

func (r *repo) CancelOpenByBill(ctx context.Context, conn *gorm.DB, billID snowflake.ID, now time.Time) (int64, error) {
	result := conn.WithContext(ctx).Exec(
		`UPDATE payment_transactions SET status = ?, updated_at = ? WHERE bill_id = ? AND status = ?`,
		paymentdomain.StatusCancelled,
		now,
		billID,
		paymentdomain.StatusPending,
	)
	return result.RowsAffected, result.Error
}
