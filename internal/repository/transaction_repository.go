package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/kseat/cinema-reservation-core/internal/model"
)

// ErrTransactionNotFound is returned when a transaction id resolves to
// no row.
var ErrTransactionNotFound = errors.New("transaction not found")

// TransactionRepo persists Transaction rows, the 1:1 ledger entry
// created alongside a Payment.
//
//	CREATE TABLE transactions (
//	  id            BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
//	  user_id       BIGINT UNSIGNED NOT NULL,
//	  total_amount  BIGINT UNSIGNED NOT NULL,
//	  method        VARCHAR(16) NOT NULL,
//	  status        ENUM('pending','success','failed') NOT NULL,
//	  payment_id    BIGINT UNSIGNED NOT NULL UNIQUE,
//	  external_ref  VARCHAR(64) NULL,
//	  created_at    DATETIME NOT NULL,
//	  updated_at    DATETIME NOT NULL
//	);
type TransactionRepo struct {
	db *sql.DB
}

// NewTransactionRepo constructs a TransactionRepo with the given DB handle.
func NewTransactionRepo(db *sql.DB) *TransactionRepo { return &TransactionRepo{db: db} }

const txnCols = `id, user_id, total_amount, method, status, payment_id, external_ref, created_at, updated_at`

func scanTransaction(row interface{ Scan(...interface{}) error }) (model.Transaction, error) {
	var t model.Transaction
	var userID sql.NullInt64
	var externalRef sql.NullString
	var method, status string
	if err := row.Scan(&t.ID, &userID, &t.TotalAmount, &method, &status, &t.PaymentID, &externalRef, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return model.Transaction{}, err
	}
	t.Method = model.PaymentMethod(method)
	t.Status = model.TransactionStatus(status)
	t.UserID = uint64(userID.Int64)
	t.ExternalRef = externalRef.String
	return t, nil
}

// CreateTx inserts a pending transaction row within the caller's
// transaction, mirroring the payment it was created alongside.
func (r *TransactionRepo) CreateTx(ctx context.Context, tx *sql.Tx, t model.Transaction) (model.Transaction, error) {
	const q = `INSERT INTO transactions (user_id, total_amount, method, status, payment_id, external_ref, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, t.UserID, t.TotalAmount, string(t.Method), string(t.Status), t.PaymentID, t.ExternalRef, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return model.Transaction{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Transaction{}, err
	}
	t.ID = uint64(id)
	return t, nil
}

// GetByPaymentIDTx fetches the transaction linked to a payment within
// the caller's transaction.
func (r *TransactionRepo) GetByPaymentIDTx(ctx context.Context, tx *sql.Tx, paymentID uint64) (model.Transaction, error) {
	const q = `SELECT ` + txnCols + ` FROM transactions WHERE payment_id = ? LIMIT 1`
	t, err := scanTransaction(tx.QueryRowContext(ctx, q, paymentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Transaction{}, ErrTransactionNotFound
		}
		return model.Transaction{}, err
	}
	return t, nil
}

// SettleTx transitions the transaction linked to paymentID to status,
// stamping externalRef when provided.
func (r *TransactionRepo) SettleTx(ctx context.Context, tx *sql.Tx, paymentID uint64, status model.TransactionStatus, externalRef string) error {
	const q = `UPDATE transactions SET status = ?, external_ref = ?, updated_at = UTC_TIMESTAMP() WHERE payment_id = ?`
	_, err := tx.ExecContext(ctx, q, string(status), externalRef, paymentID)
	return err
}
